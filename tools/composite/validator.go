package composite

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/xrpl-agent/gateway/envelope"
	"github.com/xrpl-agent/gateway/jsondoc"
	"github.com/xrpl-agent/gateway/tools"
	"github.com/xrpl-agent/gateway/upstream"
)

// reportWindow is the number of report entries summed for the uptime score,
// taken by array position as returned by the reporting service.
const reportWindow = 30

// ValidatorHealthInput identifies a validator.
type ValidatorHealthInput struct {
	Pubkey string `json:"pubkey" yaml:"pubkey" validate:"required" jsonschema:"description=Validator master public key."`
}

// ValidatorHealth is one validator's identity and reliability summary.
type ValidatorHealth struct {
	Pubkey      string   `json:"pubkey"`
	Domain      string   `json:"domain,omitempty"`
	Chain       string   `json:"chain,omitempty"`
	Unl         bool     `json:"unl"`
	Signed      int64    `json:"signed"`
	Missed      int64    `json:"missed"`
	ReportCount int      `json:"reportCount"`
	UptimeScore *float64 `json:"uptimeScore"`
}

// NewValidatorHealth fetches a validator's detail and agreement reports and
// derives an uptime score over the report window.
func NewValidatorHealth(svc *upstream.Services) tools.ITool {
	return tools.MustNew("validator_health",
		"Validator reliability summary: identity, signed and missed validations over the recent report window, and an uptime score.",
		func(ctx context.Context, in *ValidatorHealthInput) (any, error) {
			detail, err := svc.VHS.Fetch(ctx, "/v1/network/validators/"+in.Pubkey, nil)
			if err != nil {
				return nil, err
			}
			reports, err := svc.VHS.Fetch(ctx, "/v1/network/validators/"+in.Pubkey+"/reports", nil)
			if err != nil {
				return nil, err
			}
			sources := []envelope.Source{
				envelope.NewSource(envelope.SystemVHS, "GET /v1/network/validators/"+in.Pubkey),
				envelope.NewSource(envelope.SystemVHS, "GET /v1/network/validators/"+in.Pubkey+"/reports"),
			}
			var warnings []string

			entries := reportEntries(reports)
			window := entries
			if len(window) > reportWindow {
				window = window[:reportWindow]
			} else if len(window) < reportWindow {
				warnings = append(warnings,
					fmt.Sprintf("only %d of %d report entries available", len(window), reportWindow))
			}

			var signed, missed int64
			for _, r := range window {
				signed += reportCount(r, "signed", "validations", "total")
				missed += reportCount(r, "missed", "missed_validations")
			}

			data := ValidatorHealth{
				Pubkey:      in.Pubkey,
				Domain:      detail.Str("domain"),
				Chain:       detail.Str("chain"),
				Unl:         detail.Get("unl").Bool(),
				Signed:      signed,
				Missed:      missed,
				ReportCount: len(window),
			}
			if total := signed + missed; total > 0 {
				data.UptimeScore = floatPtr(float64(signed) / float64(total))
			}

			return envelope.New(data,
				envelope.WithSources(sources...),
				envelope.WithWarnings(warnings...),
			), nil
		})
}

// reportEntries accepts both a bare array body and a wrapping object.
func reportEntries(doc jsondoc.Doc) []gjson.Result {
	if entries := doc.Array("reports"); entries != nil {
		return entries
	}
	return doc.Array("@this")
}

func reportCount(r gjson.Result, aliases ...string) int64 {
	for _, alias := range aliases {
		if v := r.Get(alias); v.Exists() {
			return v.Int()
		}
	}
	return 0
}

// AmendmentOverviewInput identifies an amendment, optionally scoped to a
// network for voting state.
type AmendmentOverviewInput struct {
	Amendment string `json:"amendment" yaml:"amendment" validate:"required" jsonschema:"description=Amendment id or name."`
	Network   string `json:"network,omitempty" yaml:"network,omitempty" jsonschema:"description=Network name for voting state; 'main' when omitted."`
}

// AmendmentOverview is one amendment's governance state.
type AmendmentOverview struct {
	Name           string `json:"name,omitempty"`
	ID             string `json:"id,omitempty"`
	Enabled        bool   `json:"enabled"`
	Threshold      *int64 `json:"threshold,omitempty"`
	ValidatorsFor  *int64 `json:"validatorsFor,omitempty"`
	ConsensusPhase string `json:"consensusPhase,omitempty"`
}

// NewAmendmentOverview fetches an amendment's detail and, when available,
// its live voting state on the selected network.
func NewAmendmentOverview(svc *upstream.Services) tools.ITool {
	return tools.MustNew("amendment_overview",
		"Amendment governance summary: identity, enabled state, and live voting majority when available.",
		func(ctx context.Context, in *AmendmentOverviewInput) (any, error) {
			network := in.Network
			if network == "" {
				network = "main"
			}

			info, err := svc.VHS.Fetch(ctx, "/v1/network/amendments/info/"+in.Amendment, nil)
			if err != nil {
				return nil, err
			}
			sources := []envelope.Source{
				envelope.NewSource(envelope.SystemVHS, "GET /v1/network/amendments/info/"+in.Amendment),
			}
			var warnings []string

			data := AmendmentOverview{
				Name:    info.Str("name"),
				ID:      info.Str("id"),
				Enabled: info.Get("enabled").Bool(),
			}

			votePath := "/v1/network/amendments/vote/" + network + "/" + in.Amendment
			votes, ok := upstream.TryFetch(ctx, svc.VHS, votePath, nil)
			if ok {
				sources = append(sources, envelope.NewSource(envelope.SystemVHS, "GET "+votePath))
				if n, ok := votes.Int64("threshold"); ok {
					data.Threshold = &n
				}
				data.ConsensusPhase = votes.Str("consensus")
				if voters := votes.Array("voted.validators"); voters != nil {
					n := int64(len(voters))
					data.ValidatorsFor = &n
				} else if n, ok := votes.Int64("validators_for"); ok {
					data.ValidatorsFor = &n
				}
			} else {
				warnings = append(warnings, "voting state unavailable")
			}

			return envelope.New(data,
				envelope.WithSources(sources...),
				envelope.WithWarnings(warnings...),
			), nil
		})
}
