package composite

import (
	"context"
	"fmt"

	"github.com/xrpl-agent/gateway/envelope"
	"github.com/xrpl-agent/gateway/jsondoc"
	"github.com/xrpl-agent/gateway/tools"
	"github.com/xrpl-agent/gateway/upstream"
)

// Risk-indicator thresholds.
const (
	trustlineRiskThreshold  = 250
	ownerCountRiskThreshold = 1000
)

// AccountOverviewInput selects the account to summarize.
type AccountOverviewInput struct {
	Account string `json:"account" yaml:"account" validate:"required" jsonschema:"description=Account address."`
}

// AccountTxSample is one recent transaction touching the account.
type AccountTxSample struct {
	Hash        string `json:"hash,omitempty"`
	Type        string `json:"type,omitempty"`
	LedgerIndex int64  `json:"ledgerIndex,omitempty"`
}

// AccountOverview merges live account state with trust lines and a recent
// transaction sample.
type AccountOverview struct {
	Account             string            `json:"account"`
	BalanceDrops        string            `json:"balanceDrops,omitempty"`
	Sequence            *int64            `json:"sequence,omitempty"`
	OwnerCount          int64             `json:"ownerCount"`
	Flags               int64             `json:"flags"`
	TrustlineCount      *int64            `json:"trustlineCount"`
	RecentTransactions  []AccountTxSample `json:"recentTransactions"`
	RiskIndicators      []string          `json:"riskIndicators"`
	EstimatedReserveXRP float64           `json:"estimatedReserveXRP"`
}

// NewAccountOverview fetches account state from the ledger node and enriches
// it with trust lines and transaction history. The reserve figure is an
// estimate in reserve units, never the node's authoritative value.
func NewAccountOverview(svc *upstream.Services) tools.ITool {
	return tools.MustNew("account_overview",
		"Account summary: balance, flags, trust lines, recent transactions, risk indicators and an estimated reserve.",
		func(ctx context.Context, in *AccountOverviewInput) (any, error) {
			info, err := svc.Node.Call(ctx, "account_info", map[string]any{
				"account":      in.Account,
				"ledger_index": "validated",
			})
			if err != nil {
				return nil, err
			}
			sources := []envelope.Source{envelope.NewSource(envelope.SystemRippled, "account_info")}
			var warnings []string

			ownerCount, _ := info.Int64("account_data.OwnerCount")
			flags, _ := info.Int64("account_data.Flags")

			data := AccountOverview{
				Account:             in.Account,
				BalanceDrops:        info.Str("account_data.Balance"),
				OwnerCount:          ownerCount,
				Flags:               flags,
				RecentTransactions:  []AccountTxSample{},
				EstimatedReserveXRP: 1 + float64(ownerCount)*0.2,
			}
			if seq, ok := info.Int64("account_data.Sequence"); ok {
				data.Sequence = &seq
			}

			lines, ok := svc.Node.TryCall(ctx, "account_lines", map[string]any{
				"account": in.Account,
				"limit":   400,
			})
			if ok {
				sources = append(sources, envelope.NewSource(envelope.SystemRippled, "account_lines"))
				n := int64(len(lines.Array("lines")))
				data.TrustlineCount = &n
			} else {
				warnings = append(warnings, "trust lines unavailable")
			}

			txs, ok := svc.Node.TryCall(ctx, "account_tx", map[string]any{
				"account": in.Account,
				"limit":   10,
			})
			if ok {
				sources = append(sources, envelope.NewSource(envelope.SystemRippled, "account_tx"))
				data.RecentTransactions = txSamples(txs)
			} else {
				warnings = append(warnings, "transaction history unavailable")
			}

			data.RiskIndicators = riskIndicators(data.TrustlineCount, ownerCount, flags)

			var ledger *int64
			if idx, ok := info.Int64("ledger_index"); ok {
				ledger = envelope.Ledger(idx)
			}
			return envelope.New(data,
				envelope.WithSources(sources...),
				envelope.WithLedger(ledger),
				envelope.WithWarnings(warnings...),
			), nil
		})
}

func txSamples(doc jsondoc.Doc) []AccountTxSample {
	sample := []AccountTxSample{}
	for _, entry := range doc.Array("transactions") {
		tx := entry.Get("tx")
		if !tx.Exists() {
			tx = entry.Get("tx_json")
		}
		s := AccountTxSample{
			Hash: tx.Get("hash").String(),
			Type: tx.Get("TransactionType").String(),
		}
		if s.Hash == "" {
			s.Hash = entry.Get("hash").String()
		}
		if idx := tx.Get("ledger_index"); idx.Exists() {
			s.LedgerIndex = idx.Int()
		} else {
			s.LedgerIndex = entry.Get("ledger_index").Int()
		}
		sample = append(sample, s)
	}
	return sample
}

// riskIndicators are independent threshold checks in fixed order: trust line
// count, then owner count, then flags. All may fire at once.
func riskIndicators(trustlines *int64, ownerCount, flags int64) []string {
	indicators := []string{}
	if trustlines != nil && *trustlines > trustlineRiskThreshold {
		indicators = append(indicators,
			fmt.Sprintf("high trust line count: %d exceeds %d", *trustlines, trustlineRiskThreshold))
	}
	if ownerCount > ownerCountRiskThreshold {
		indicators = append(indicators,
			fmt.Sprintf("high owner count: %d exceeds %d", ownerCount, ownerCountRiskThreshold))
	}
	if flags != 0 {
		indicators = append(indicators,
			fmt.Sprintf("account flags set: %d", flags))
	}
	return indicators
}
