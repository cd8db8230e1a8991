package upstream

import (
	"context"

	"github.com/xrpl-agent/gateway/jsondoc"
)

// Candidate status paths tried in order against the indexing service.
var watermarkPaths = []string{"/status", "/v1/status", "/health", "/ledger/latest"}

// Field-name aliases recognized as "latest indexed ledger", in priority order.
var watermarkAliases = []string{
	"ledger_index",
	"latest_ledger",
	"latest_ledger_index",
	"last_indexed_ledger",
	"ledgerIndex",
	"current_ledger",
}

// Watermark is the indexing service's best-known ingestion position.
type Watermark struct {
	LatestIndexedLedger *int64
	SourcePath          string
	Raw                 jsondoc.Doc
}

// ProbeIngestionWatermark walks the candidate status paths until one yields a
// recognizable ledger-index field. The indexing service's status schema is
// not guaranteed, so the search is schema-tolerant: each response is scanned
// for the known aliases at the top level and one nested level below. Returns
// all-absent when no candidate yields a numeric value.
func ProbeIngestionWatermark(ctx context.Context, los *Client) Watermark {
	for _, path := range watermarkPaths {
		doc, ok := TryFetch(ctx, los, path, nil)
		if !ok {
			continue
		}
		r := doc.FindFirst(watermarkAliases...)
		if !r.Exists() {
			continue
		}
		if n, ok := jsondoc.NumericValue(r); ok {
			return Watermark{
				LatestIndexedLedger: &n,
				SourcePath:          path,
				Raw:                 doc,
			}
		}
	}
	return Watermark{}
}
