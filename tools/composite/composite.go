// Package composite implements the aggregation tools: each handler fans out
// to one or more upstream services, merges the responses, derives a few
// statistics, and returns a normalized envelope with provenance, freshness
// and soft-failure warnings.
package composite

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"

	"github.com/xrpl-agent/gateway/tools"
	"github.com/xrpl-agent/gateway/upstream"
	"github.com/xrpl-agent/gateway/xrpl"
)

// All returns the full composite tool set bound to the given upstream
// services.
func All(svc *upstream.Services) []tools.ITool {
	return []tools.ITool{
		NewNetworkOverview(svc),
		NewLedgerOverview(svc),
		NewAccountOverview(svc),
		NewTokenOverview(svc),
		NewMarketSnapshot(svc),
		NewAMMOverview(svc),
		NewValidatorHealth(svc),
		NewAmendmentOverview(svc),
		NewTxExplain(svc),
		NewSearchTransactions(svc),
		NewResolveEntities(svc),
		NewIngestionStatus(svc),
	}
}

// assetParam renders one side of a currency pair the way the ledger node
// expects it: the native marker alone, a 3-character code as-is, anything
// else canonicalized to hex. Fails on codes that cannot be normalized.
func assetParam(currency, issuer string) (map[string]any, error) {
	if currency == xrpl.Native {
		return map[string]any{"currency": xrpl.Native}, nil
	}
	code := currency
	if len(currency) != 3 {
		hexCur, ok := xrpl.CurrencyToHex(currency)
		if !ok {
			return nil, errors.WithMessagef(xrpl.ErrCurrencyTooLong, "currency %q", currency)
		}
		code = hexCur
	}
	return map[string]any{"currency": code, "issuer": issuer}, nil
}

// tradeSample soft-fetches the indexing service's recent trades for a token.
func tradeSample(ctx context.Context, los *upstream.Client, tokenKey string, limit int) ([]gjson.Result, bool) {
	doc, ok := upstream.TryFetch(ctx, los, "/v1/token/"+tokenKey+"/exchanges", map[string]any{"limit": limit})
	if !ok {
		return nil, false
	}
	trades := doc.Array("exchanges")
	if trades == nil {
		trades = doc.Array("trades")
	}
	if trades == nil {
		return nil, false
	}
	return trades, true
}

// vwap is the volume-weighted average price over a trade sample. Absence on
// an empty sample or a zero amount sum; never a division fault.
func vwap(trades []gjson.Result) *float64 {
	var weighted, volume float64
	for _, t := range trades {
		price := t.Get("price").Float()
		amount := t.Get("amount").Float()
		if amount == 0 {
			amount = t.Get("volume").Float()
		}
		weighted += price * amount
		volume += amount
	}
	if volume == 0 {
		return nil
	}
	v := weighted / volume
	return &v
}

func floatPtr(v float64) *float64 {
	return &v
}
