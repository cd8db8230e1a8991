package composite

import (
	"context"

	"github.com/tidwall/gjson"

	"github.com/xrpl-agent/gateway/envelope"
	"github.com/xrpl-agent/gateway/tools"
	"github.com/xrpl-agent/gateway/upstream"
	"github.com/xrpl-agent/gateway/xrpl"
)

const tradeSampleLimit = 50

// MarketSnapshotInput identifies a trading pair. Use "XRP" with no issuer
// for the native asset.
type MarketSnapshotInput struct {
	BaseCurrency  string `json:"base_currency" yaml:"base_currency" validate:"required" jsonschema:"description=Base asset currency code, or XRP."`
	BaseIssuer    string `json:"base_issuer,omitempty" yaml:"base_issuer,omitempty" jsonschema:"description=Base asset issuer; omit for XRP."`
	QuoteCurrency string `json:"quote_currency" yaml:"quote_currency" validate:"required" jsonschema:"description=Quote asset currency code, or XRP."`
	QuoteIssuer   string `json:"quote_issuer,omitempty" yaml:"quote_issuer,omitempty" jsonschema:"description=Quote asset issuer; omit for XRP."`
}

// MarketSnapshot is the live order-book state of one pair with a recent
// trade sample. ApproxMid and ApproxSpread are top-of-one-book estimates,
// not a true bid/ask midpoint or spread.
type MarketSnapshot struct {
	Base         string   `json:"base"`
	Quote        string   `json:"quote"`
	BestAsk      *float64 `json:"bestAsk"`
	BestBid      *float64 `json:"bestBid"`
	ApproxMid    *float64 `json:"approxMid"`
	ApproxSpread *float64 `json:"approxSpread"`
	VWAP         *float64 `json:"vwap"`
	SampleSize   int      `json:"sampleSize"`
}

// NewMarketSnapshot reads both directions of one order book and the indexed
// trade history of the pair's issued side.
func NewMarketSnapshot(svc *upstream.Services) tools.ITool {
	return tools.MustNew("market_snapshot",
		"Order-book snapshot for a pair: best ask and bid, approximate mid and spread, and a volume-weighted average price over recent trades.",
		func(ctx context.Context, in *MarketSnapshotInput) (any, error) {
			base, err := assetParam(in.BaseCurrency, in.BaseIssuer)
			if err != nil {
				return nil, err
			}
			quote, err := assetParam(in.QuoteCurrency, in.QuoteIssuer)
			if err != nil {
				return nil, err
			}

			ask, err := svc.Node.Call(ctx, "book_offers", map[string]any{
				"taker_gets": base,
				"taker_pays": quote,
				"limit":      5,
			})
			if err != nil {
				return nil, err
			}
			bid, err := svc.Node.Call(ctx, "book_offers", map[string]any{
				"taker_gets": quote,
				"taker_pays": base,
				"limit":      5,
			})
			if err != nil {
				return nil, err
			}
			sources := []envelope.Source{
				envelope.NewSource(envelope.SystemRippled, "book_offers"),
				envelope.NewSource(envelope.SystemRippled, "book_offers"),
			}
			var warnings []string

			data := MarketSnapshot{
				Base:  pairLabel(in.BaseCurrency, in.BaseIssuer),
				Quote: pairLabel(in.QuoteCurrency, in.QuoteIssuer),
			}
			askOffers := ask.Array("offers")
			if len(askOffers) > 0 {
				data.BestAsk = offerQuality(askOffers[0])
			}
			if bidOffers := bid.Array("offers"); len(bidOffers) > 0 {
				if q := offerQuality(bidOffers[0]); q != nil && *q != 0 {
					data.BestBid = floatPtr(1 / *q)
				}
			}
			data.ApproxMid, data.ApproxSpread = approxTopOfBook(askOffers)

			if key, ok := issuedSideKey(in); ok {
				if trades, ok := tradeSample(ctx, svc.LOS, key, tradeSampleLimit); ok {
					sources = append(sources, envelope.NewSource(envelope.SystemLOS, "GET /v1/token/"+key+"/exchanges"))
					data.VWAP = vwap(trades)
					data.SampleSize = len(trades)
				} else {
					warnings = append(warnings, "trade sample unavailable")
				}
			} else {
				warnings = append(warnings, "no trade sample for a native-only pair")
			}

			var ledger *int64
			if idx, ok := ask.Int64("ledger_current_index"); ok {
				ledger = envelope.Ledger(idx)
			} else if idx, ok := ask.Int64("ledger_index"); ok {
				ledger = envelope.Ledger(idx)
			}
			return envelope.New(data,
				envelope.WithSources(sources...),
				envelope.WithLedger(ledger),
				envelope.WithWarnings(warnings...),
			), nil
		})
}

// approxTopOfBook derives mid and spread estimates from one book only: the
// mid is the best order's price and the spread is the price step to the
// next order. Absence when the book has fewer entries than needed.
func approxTopOfBook(offers []gjson.Result) (mid, spread *float64) {
	if len(offers) == 0 {
		return nil, nil
	}
	mid = offerQuality(offers[0])
	if mid == nil || len(offers) < 2 {
		return mid, nil
	}
	next := offerQuality(offers[1])
	if next == nil {
		return mid, nil
	}
	return mid, floatPtr(*next - *mid)
}

func offerQuality(offer gjson.Result) *float64 {
	q := offer.Get("quality")
	if !q.Exists() {
		return nil
	}
	return floatPtr(q.Float())
}

func pairLabel(currency, issuer string) string {
	if currency == xrpl.Native || issuer == "" {
		return currency
	}
	if key, ok := xrpl.TokenKey(issuer, currency); ok {
		return key
	}
	return currency + "." + issuer
}

// issuedSideKey picks the token key to sample trades for: the base side
// when issued, else the quote side. Absence when both sides are native.
func issuedSideKey(in *MarketSnapshotInput) (string, bool) {
	if in.BaseCurrency != xrpl.Native && in.BaseIssuer != "" {
		return xrpl.TokenKey(in.BaseIssuer, in.BaseCurrency)
	}
	if in.QuoteCurrency != xrpl.Native && in.QuoteIssuer != "" {
		return xrpl.TokenKey(in.QuoteIssuer, in.QuoteCurrency)
	}
	return "", false
}

// AMMOverviewInput identifies a pool by its asset pair or by the AMM
// account address.
type AMMOverviewInput struct {
	AssetCurrency  string `json:"asset_currency,omitempty" yaml:"asset_currency,omitempty" jsonschema:"description=First pool asset currency code, or XRP."`
	AssetIssuer    string `json:"asset_issuer,omitempty" yaml:"asset_issuer,omitempty" jsonschema:"description=First pool asset issuer; omit for XRP."`
	Asset2Currency string `json:"asset2_currency,omitempty" yaml:"asset2_currency,omitempty" jsonschema:"description=Second pool asset currency code, or XRP."`
	Asset2Issuer   string `json:"asset2_issuer,omitempty" yaml:"asset2_issuer,omitempty" jsonschema:"description=Second pool asset issuer; omit for XRP."`
	AMMAccount     string `json:"amm_account,omitempty" yaml:"amm_account,omitempty" jsonschema:"description=AMM account address; alternative to the asset pair."`
}

// AMMOverview is one pool's balances and trading activity.
type AMMOverview struct {
	Pool       *AMMPool `json:"pool"`
	VWAP       *float64 `json:"vwap"`
	SampleSize int      `json:"sampleSize"`
}

// NewAMMOverview fetches one AMM pool's live state and the indexed trade
// history of its issued side.
func NewAMMOverview(svc *upstream.Services) tools.ITool {
	return tools.MustNew("amm_overview",
		"AMM pool summary: balances, LP token, trading fee, and a volume-weighted average price over recent trades.",
		func(ctx context.Context, in *AMMOverviewInput) (any, error) {
			params := map[string]any{}
			if in.AMMAccount != "" {
				params["amm_account"] = in.AMMAccount
			} else {
				asset, err := assetParam(in.AssetCurrency, in.AssetIssuer)
				if err != nil {
					return nil, err
				}
				asset2, err := assetParam(in.Asset2Currency, in.Asset2Issuer)
				if err != nil {
					return nil, err
				}
				params["asset"] = asset
				params["asset2"] = asset2
			}

			doc, err := svc.Node.Call(ctx, "amm_info", params)
			if err != nil {
				return nil, err
			}
			sources := []envelope.Source{envelope.NewSource(envelope.SystemRippled, "amm_info")}
			var warnings []string

			data := AMMOverview{
				Pool: ammPool(doc.Get("amm")),
			}

			if key, ok := poolTokenKey(doc.Get("amm")); ok {
				if trades, ok := tradeSample(ctx, svc.LOS, key, tradeSampleLimit); ok {
					sources = append(sources, envelope.NewSource(envelope.SystemLOS, "GET /v1/token/"+key+"/exchanges"))
					data.VWAP = vwap(trades)
					data.SampleSize = len(trades)
				} else {
					warnings = append(warnings, "trade sample unavailable")
				}
			} else {
				warnings = append(warnings, "no issued asset in pool; trade sample skipped")
			}

			var ledger *int64
			if idx, ok := doc.Int64("ledger_current_index"); ok {
				ledger = envelope.Ledger(idx)
			} else if idx, ok := doc.Int64("ledger_index"); ok {
				ledger = envelope.Ledger(idx)
			}
			return envelope.New(data,
				envelope.WithSources(sources...),
				envelope.WithLedger(ledger),
				envelope.WithWarnings(warnings...),
			), nil
		})
}

// ammPool reads the node's amm object. Pool amounts are either a drops
// string for the native asset or a currency/issuer/value object.
func ammPool(amm gjson.Result) *AMMPool {
	if !amm.Exists() {
		return nil
	}
	return &AMMPool{
		Account:    amm.Get("account").String(),
		Amount:     amm.Get("amount").Value(),
		Amount2:    amm.Get("amount2").Value(),
		LPToken:    amm.Get("lp_token").Value(),
		TradingFee: amm.Get("trading_fee").Int(),
	}
}

// poolTokenKey picks the pool's issued side for trade sampling.
func poolTokenKey(amm gjson.Result) (string, bool) {
	for _, field := range []string{"amount", "amount2"} {
		a := amm.Get(field)
		if !a.IsObject() {
			continue
		}
		currency := a.Get("currency").String()
		issuer := a.Get("issuer").String()
		if currency == "" || currency == xrpl.Native || issuer == "" {
			continue
		}
		if key, ok := xrpl.TokenKey(issuer, currency); ok {
			return key, true
		}
	}
	return "", false
}
