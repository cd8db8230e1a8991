package composite

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/xrpl-agent/gateway/envelope"
	"github.com/xrpl-agent/gateway/tools"
	"github.com/xrpl-agent/gateway/upstream"
	"github.com/xrpl-agent/gateway/xrpl"
)

// TokenOverviewInput identifies an issued token.
type TokenOverviewInput struct {
	Issuer   string `json:"issuer" yaml:"issuer" validate:"required" jsonschema:"description=Issuer account address."`
	Currency string `json:"currency" yaml:"currency" validate:"required" jsonschema:"description=Currency code: 3-character, 40-hex, or a short name."`
}

// TokenOverview merges indexed token metadata with live market state.
type TokenOverview struct {
	TokenKey   string   `json:"tokenKey"`
	Metadata   any      `json:"metadata"`
	BestAskXRP *float64 `json:"bestAskXRP"`
	AMM        *AMMPool `json:"amm"`
}

// AMMPool is the liquidity pool paired against the native asset.
type AMMPool struct {
	Account    string `json:"account,omitempty"`
	Amount     any    `json:"amount,omitempty"`
	Amount2    any    `json:"amount2,omitempty"`
	LPToken    any    `json:"lpToken,omitempty"`
	TradingFee int64  `json:"tradingFee"`
}

// NewTokenOverview looks up indexed metadata for a token and enriches it
// with the live best ask and AMM pool against the native asset. A failing
// AMM lookup means the pool does not exist, not a tool failure.
func NewTokenOverview(svc *upstream.Services) tools.ITool {
	return tools.MustNew("token_overview",
		"Issued-token summary: indexed metadata, live best ask in XRP, and the AMM pool against XRP when one exists.",
		func(ctx context.Context, in *TokenOverviewInput) (any, error) {
			key, ok := xrpl.TokenKey(in.Issuer, in.Currency)
			if !ok {
				return nil, errors.WithMessagef(xrpl.ErrCurrencyTooLong, "currency %q", in.Currency)
			}

			meta, err := svc.LOS.Fetch(ctx, "/v1/token/"+key, nil)
			if err != nil {
				return nil, err
			}
			sources := []envelope.Source{envelope.NewSource(envelope.SystemLOS, "GET /v1/token/"+key)}
			var warnings []string

			data := TokenOverview{
				TokenKey: key,
				Metadata: meta.Value(),
			}

			asset, err := assetParam(in.Currency, in.Issuer)
			if err != nil {
				return nil, err
			}
			book, ok := svc.Node.TryCall(ctx, "book_offers", map[string]any{
				"taker_gets": asset,
				"taker_pays": map[string]any{"currency": xrpl.Native},
				"limit":      1,
			})
			if ok {
				sources = append(sources, envelope.NewSource(envelope.SystemRippled, "book_offers"))
				if offers := book.Array("offers"); len(offers) > 0 {
					if q := offers[0].Get("quality"); q.Exists() {
						data.BestAskXRP = floatPtr(q.Float())
					}
				}
			} else {
				warnings = append(warnings, "order book unavailable")
			}

			// An error on amm_info means no pool exists for the pair.
			if pool, ok := svc.Node.TryCall(ctx, "amm_info", map[string]any{
				"asset":  asset,
				"asset2": map[string]any{"currency": xrpl.Native},
			}); ok {
				sources = append(sources, envelope.NewSource(envelope.SystemRippled, "amm_info"))
				data.AMM = ammPool(pool.Get("amm"))
			}

			return envelope.New(data,
				envelope.WithSources(sources...),
				envelope.WithWarnings(warnings...),
			), nil
		})
}
