package composite

import (
	"context"
	"fmt"

	"github.com/xrpl-agent/gateway/envelope"
	"github.com/xrpl-agent/gateway/tools"
	"github.com/xrpl-agent/gateway/upstream"
)

// NetworkOverviewInput has no parameters.
type NetworkOverviewInput struct{}

// NetworkOverview summarizes node, topology and ingestion state.
type NetworkOverview struct {
	ServerState         string `json:"serverState,omitempty"`
	BuildVersion        string `json:"buildVersion,omitempty"`
	ValidatedLedger     *int64 `json:"validatedLedger"`
	Peers               *int64 `json:"peers,omitempty"`
	TopologyNodeCount   *int64 `json:"topologyNodeCount,omitempty"`
	LatestIndexedLedger *int64 `json:"latestIndexedLedger"`
	LedgerLag           *int64 `json:"ledgerLag"`
}

// NewNetworkOverview combines the ledger node's live state with the
// validator topology and the indexing watermark.
func NewNetworkOverview(svc *upstream.Services) tools.ITool {
	return tools.MustNew("network_overview",
		"Network health summary: ledger node state, validator topology size, indexing watermark and ledger lag.",
		func(ctx context.Context, _ *NetworkOverviewInput) (any, error) {
			info, err := svc.Node.Call(ctx, "server_info", nil)
			if err != nil {
				return nil, err
			}
			sources := []envelope.Source{envelope.NewSource(envelope.SystemRippled, "server_info")}
			var warnings []string

			data := NetworkOverview{
				ServerState:  info.Str("info.server_state"),
				BuildVersion: info.Str("info.build_version"),
			}
			if seq, ok := info.Int64("info.validated_ledger.seq"); ok {
				data.ValidatedLedger = envelope.Ledger(seq)
			}
			if peers, ok := info.Int64("info.peers"); ok {
				data.Peers = &peers
			}

			topo, ok := upstream.TryFetch(ctx, svc.VHS, "/v1/network/topology", nil)
			if ok {
				sources = append(sources, envelope.NewSource(envelope.SystemVHS, "GET /v1/network/topology"))
				if n, ok := topo.Int64("node_count"); ok {
					data.TopologyNodeCount = &n
				} else if nodes := topo.Array("nodes"); nodes != nil {
					n := int64(len(nodes))
					data.TopologyNodeCount = &n
				}
			} else {
				warnings = append(warnings, "validator topology unavailable")
			}

			wm := upstream.ProbeIngestionWatermark(ctx, svc.LOS)
			if wm.LatestIndexedLedger != nil {
				sources = append(sources, envelope.NewSource(envelope.SystemLOS, "GET "+wm.SourcePath))
				data.LatestIndexedLedger = wm.LatestIndexedLedger
			} else {
				warnings = append(warnings, "ingestion watermark unavailable")
			}

			data.LedgerLag = ledgerLag(data.ValidatedLedger, data.LatestIndexedLedger)

			return envelope.New(data,
				envelope.WithSources(sources...),
				envelope.WithLedger(data.ValidatedLedger),
				envelope.WithWarnings(warnings...),
			), nil
		})
}

// ledgerLag is the exact integer difference when both operands are known,
// absence otherwise.
func ledgerLag(validated, indexed *int64) *int64 {
	if validated == nil || indexed == nil {
		return nil
	}
	lag := *validated - *indexed
	return &lag
}

// LedgerOverviewInput selects a ledger; the validated ledger by default.
type LedgerOverviewInput struct {
	LedgerIndex *int64 `json:"ledger_index,omitempty" yaml:"ledger_index,omitempty" jsonschema:"description=Ledger index number; the latest validated ledger when omitted."`
}

// LedgerOverview summarizes one closed ledger.
type LedgerOverview struct {
	LedgerIndex         *int64 `json:"ledgerIndex"`
	LedgerHash          string `json:"ledgerHash,omitempty"`
	CloseTime           string `json:"closeTime,omitempty"`
	TxnCount            int    `json:"txnCount"`
	TotalCoins          string `json:"totalCoins,omitempty"`
	LatestIndexedLedger *int64 `json:"latestIndexedLedger"`
	LedgerLag           *int64 `json:"ledgerLag"`
}

// NewLedgerOverview fetches one ledger's header and transaction count and
// estimates how far behind the indexing service is.
func NewLedgerOverview(svc *upstream.Services) tools.ITool {
	return tools.MustNew("ledger_overview",
		"Summary of one closed ledger: close time, transaction count, total coins, and ingestion lag.",
		func(ctx context.Context, in *LedgerOverviewInput) (any, error) {
			params := map[string]any{
				"ledger_index": "validated",
				"transactions": true,
			}
			if in.LedgerIndex != nil {
				params["ledger_index"] = *in.LedgerIndex
			}
			doc, err := svc.Node.Call(ctx, "ledger", params)
			if err != nil {
				return nil, err
			}
			sources := []envelope.Source{envelope.NewSource(envelope.SystemRippled, "ledger")}
			var warnings []string

			data := LedgerOverview{
				LedgerHash: doc.Str("ledger.ledger_hash"),
				CloseTime:  doc.Str("ledger.close_time_human"),
				TotalCoins: doc.Str("ledger.total_coins"),
				TxnCount:   len(doc.Array("ledger.transactions")),
			}
			if idx, ok := doc.Int64("ledger_index"); ok {
				data.LedgerIndex = envelope.Ledger(idx)
			} else if idx, ok := doc.Int64("ledger.ledger_index"); ok {
				data.LedgerIndex = envelope.Ledger(idx)
			}

			wm := upstream.ProbeIngestionWatermark(ctx, svc.LOS)
			if wm.LatestIndexedLedger != nil {
				sources = append(sources, envelope.NewSource(envelope.SystemLOS, "GET "+wm.SourcePath))
				data.LatestIndexedLedger = wm.LatestIndexedLedger
			} else {
				warnings = append(warnings, "ingestion watermark unavailable")
			}
			data.LedgerLag = ledgerLag(data.LedgerIndex, data.LatestIndexedLedger)

			return envelope.New(data,
				envelope.WithSources(sources...),
				envelope.WithLedger(data.LedgerIndex),
				envelope.WithWarnings(warnings...),
			), nil
		})
}

// IngestionStatusInput has no parameters.
type IngestionStatusInput struct{}

// IngestionStatus reports the indexing watermark against the live ledger.
type IngestionStatus struct {
	LatestIndexedLedger *int64 `json:"latestIndexedLedger"`
	SourcePath          string `json:"sourcePath,omitempty"`
	ValidatedLedger     *int64 `json:"validatedLedger"`
	LedgerLag           *int64 `json:"ledgerLag"`
}

// NewIngestionStatus probes the indexing watermark and compares it to the
// node's validated ledger. Neither side is mandatory; absences degrade to
// warnings.
func NewIngestionStatus(svc *upstream.Services) tools.ITool {
	return tools.MustNew("ingestion_status",
		"Indexing-service ingestion status: latest indexed ledger, probe path, and lag behind the validated ledger.",
		func(ctx context.Context, _ *IngestionStatusInput) (any, error) {
			var sources []envelope.Source
			var warnings []string
			var data IngestionStatus

			wm := upstream.ProbeIngestionWatermark(ctx, svc.LOS)
			if wm.LatestIndexedLedger != nil {
				sources = append(sources, envelope.NewSource(envelope.SystemLOS, "GET "+wm.SourcePath))
				data.LatestIndexedLedger = wm.LatestIndexedLedger
				data.SourcePath = wm.SourcePath
			} else {
				warnings = append(warnings, fmt.Sprintf("no ingestion watermark found on %s", svc.LOS.BaseURL()))
			}

			if info, ok := svc.Node.TryCall(ctx, "server_info", nil); ok {
				sources = append(sources, envelope.NewSource(envelope.SystemRippled, "server_info"))
				if seq, ok := info.Int64("info.validated_ledger.seq"); ok {
					data.ValidatedLedger = envelope.Ledger(seq)
				}
			} else {
				warnings = append(warnings, "ledger node unavailable")
			}
			data.LedgerLag = ledgerLag(data.ValidatedLedger, data.LatestIndexedLedger)

			return envelope.New(data,
				envelope.WithSources(sources...),
				envelope.WithLedger(data.ValidatedLedger),
				envelope.WithWarnings(warnings...),
			), nil
		})
}
