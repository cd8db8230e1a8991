package composite_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xrpl-agent/gateway/envelope"
	"github.com/xrpl-agent/gateway/mcp"
	"github.com/xrpl-agent/gateway/tools"
	"github.com/xrpl-agent/gateway/tools/composite"
	"github.com/xrpl-agent/gateway/upstream"
	"github.com/xrpl-agent/gateway/xrpl"
)

const (
	testAccount = "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh"
	testIssuer  = "rvYAfWj5gh67oV6fW32ZzP3Aw4Eubs59B"
	testPubkey  = "nHUon2tpyJEHHYGmxqeGu37cvPYHzrMtUNQFVdCgGNvEkjmCpTqK"
)

// newFakeRippled serves canned JSON-RPC results keyed by method name.
// Methods absent from the map fail with an error-status result.
func newFakeRippled(t *testing.T, results map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		result, ok := results[req.Method]
		if !ok {
			result = `{"status": "error", "error": "unknownCmd", "error_message": "Unknown method."}`
		}
		_, _ = w.Write([]byte(`{"result": ` + result + `}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// newCapturingRippled is newFakeRippled with the last request body kept for
// inspection, for asserting what the handler sent to the node.
func newCapturingRippled(t *testing.T, results map[string]string) (*httptest.Server, *json.RawMessage) {
	t.Helper()
	var captured json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		captured = body

		var req struct {
			Method string `json:"method"`
		}
		require.NoError(t, json.Unmarshal(body, &req))
		w.Header().Set("Content-Type", "application/json")
		result, ok := results[req.Method]
		if !ok {
			result = `{"status": "error", "error": "unknownCmd", "error_message": "Unknown method."}`
		}
		_, _ = w.Write([]byte(`{"result": ` + result + `}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &captured
}

// newFakeREST serves canned JSON bodies keyed by request path; unknown paths
// return 404.
func newFakeREST(t *testing.T, bodies map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := bodies[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func findTool(t *testing.T, list []tools.ITool, name string) tools.ITool {
	t.Helper()
	for _, tool := range list {
		if tool.Name() == name {
			return tool
		}
	}
	t.Fatalf("tool not found: %s", name)
	return nil
}

func callEnvelope(t *testing.T, tool tools.ITool, args string) *envelope.Envelope {
	t.Helper()
	res, err := tool.Call(context.Background(), json.RawMessage(args))
	require.NoError(t, err)
	env, ok := res.(*envelope.Envelope)
	require.True(t, ok, "expected envelope, got %T", res)
	return env
}

func TestAll_Count(t *testing.T) {
	svc := upstream.NewServices("http://los", "http://vhs", "http://node", "http://meta", nil)
	assert.Len(t, composite.All(svc), 12)
}

func TestNetworkOverview_LagAndDegradation(t *testing.T) {
	node := newFakeRippled(t, map[string]string{
		"server_info": `{"status": "success", "info": {"server_state": "full", "build_version": "2.2.0", "peers": 21, "validated_ledger": {"seq": 95000010}}}`,
	})
	los := newFakeREST(t, map[string]string{
		"/status": `{"ledger_index": 95000000}`,
	})
	// VHS is unreachable: topology degrades to a warning.
	svc := upstream.NewServices(los.URL, "http://127.0.0.1:1", node.URL, "http://meta", nil)
	tool := findTool(t, composite.All(svc), "network_overview")

	env := callEnvelope(t, tool, `{}`)
	data, ok := env.Data.(composite.NetworkOverview)
	require.True(t, ok)

	require.NotNil(t, data.ValidatedLedger)
	assert.Equal(t, int64(95000010), *data.ValidatedLedger)
	require.NotNil(t, data.LatestIndexedLedger)
	assert.Equal(t, int64(95000000), *data.LatestIndexedLedger)
	require.NotNil(t, data.LedgerLag)
	assert.Equal(t, int64(10), *data.LedgerLag)
	assert.Equal(t, "full", data.ServerState)

	assert.Contains(t, env.Warnings, "validator topology unavailable")
	require.NotEmpty(t, env.Sources)
	assert.Equal(t, envelope.SystemRippled, env.Sources[0].System)
}

func TestNetworkOverview_LagAbsentWhenWatermarkMissing(t *testing.T) {
	node := newFakeRippled(t, map[string]string{
		"server_info": `{"status": "success", "info": {"validated_ledger": {"seq": 95000010}}}`,
	})
	svc := upstream.NewServices("http://127.0.0.1:1", "http://127.0.0.1:1", node.URL, "http://meta", nil)
	tool := findTool(t, composite.All(svc), "network_overview")

	env := callEnvelope(t, tool, `{}`)
	data := env.Data.(composite.NetworkOverview)
	assert.Nil(t, data.LatestIndexedLedger)
	assert.Nil(t, data.LedgerLag)
	assert.Contains(t, env.Warnings, "ingestion watermark unavailable")
}

func TestNetworkOverview_MandatoryFailure(t *testing.T) {
	// The ledger node is unreachable: the whole tool fails, no envelope.
	svc := upstream.NewServices("http://127.0.0.1:1", "http://127.0.0.1:1", "http://127.0.0.1:1", "http://meta", nil)
	tool := findTool(t, composite.All(svc), "network_overview")

	res, err := tool.Call(context.Background(), json.RawMessage(`{}`))
	require.Error(t, err)
	assert.Nil(t, res)
}

func TestLedgerOverview_HeaderAndLag(t *testing.T) {
	node := newFakeRippled(t, map[string]string{
		"ledger": `{
			"status": "success",
			"ledger_index": 95000010,
			"ledger": {
				"ledger_hash": "F00D",
				"close_time_human": "2026-Aug-30 12:00:00.000000000 UTC",
				"total_coins": "99987000000000000",
				"transactions": ["AA", "BB", "CC"]
			}
		}`,
	})
	los := newFakeREST(t, map[string]string{
		"/status": `{"ledger_index": 95000000}`,
	})
	svc := upstream.NewServices(los.URL, "http://vhs", node.URL, "http://meta", nil)
	tool := findTool(t, composite.All(svc), "ledger_overview")

	env := callEnvelope(t, tool, `{}`)
	data := env.Data.(composite.LedgerOverview)

	require.NotNil(t, data.LedgerIndex)
	assert.Equal(t, int64(95000010), *data.LedgerIndex)
	assert.Equal(t, "F00D", data.LedgerHash)
	assert.Equal(t, "2026-Aug-30 12:00:00.000000000 UTC", data.CloseTime)
	assert.Equal(t, "99987000000000000", data.TotalCoins)
	assert.Equal(t, 3, data.TxnCount)
	require.NotNil(t, data.LedgerLag)
	assert.Equal(t, int64(10), *data.LedgerLag)
	require.NotNil(t, env.Freshness.AsOfLedger)
	assert.Equal(t, int64(95000010), *env.Freshness.AsOfLedger)
}

func TestLedgerOverview_WatermarkMissingWarns(t *testing.T) {
	node := newFakeRippled(t, map[string]string{
		"ledger": `{"status": "success", "ledger_index": 95000010, "ledger": {"transactions": []}}`,
	})
	svc := upstream.NewServices("http://127.0.0.1:1", "http://vhs", node.URL, "http://meta", nil)
	tool := findTool(t, composite.All(svc), "ledger_overview")

	env := callEnvelope(t, tool, `{}`)
	data := env.Data.(composite.LedgerOverview)
	assert.Nil(t, data.LatestIndexedLedger)
	assert.Nil(t, data.LedgerLag)
	assert.Contains(t, env.Warnings, "ingestion watermark unavailable")
}

func TestLedgerOverview_MandatoryFailure(t *testing.T) {
	svc := upstream.NewServices("http://los", "http://vhs", "http://127.0.0.1:1", "http://meta", nil)
	tool := findTool(t, composite.All(svc), "ledger_overview")

	res, err := tool.Call(context.Background(), json.RawMessage(`{"ledger_index": 95000010}`))
	require.Error(t, err)
	assert.Nil(t, res)
}

func TestAccountOverview_RiskIndicators(t *testing.T) {
	tcs := []struct {
		name       string
		ownerCount int64
		flags      int64
		lines      int
		expected   int
	}{
		{name: "trustlines_only", ownerCount: 0, flags: 0, lines: 251, expected: 1},
		{name: "owner_count_only", ownerCount: 1001, flags: 0, lines: 0, expected: 1},
		{name: "all_three", ownerCount: 1001, flags: 1114112, lines: 251, expected: 3},
		{name: "none", ownerCount: 5, flags: 0, lines: 2, expected: 0},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			lines := make([]map[string]any, tc.lines)
			for i := range lines {
				lines[i] = map[string]any{"currency": "USD", "account": testIssuer}
			}
			linesJSON, err := json.Marshal(map[string]any{"status": "success", "lines": lines})
			require.NoError(t, err)

			node := newFakeRippled(t, map[string]string{
				"account_info": `{"status": "success", "ledger_index": 95000000, "account_data": {"Balance": "1000000", "Sequence": 7, "OwnerCount": ` +
					jsonInt(tc.ownerCount) + `, "Flags": ` + jsonInt(tc.flags) + `}}`,
				"account_lines": string(linesJSON),
				"account_tx":    `{"status": "success", "transactions": []}`,
			})
			svc := upstream.NewServices("http://los", "http://vhs", node.URL, "http://meta", nil)
			tool := findTool(t, composite.All(svc), "account_overview")

			env := callEnvelope(t, tool, `{"account": "`+testAccount+`"}`)
			data := env.Data.(composite.AccountOverview)
			require.Len(t, data.RiskIndicators, tc.expected)

			// Fixed firing order: trust lines, owner count, flags.
			if tc.expected == 3 {
				assert.Contains(t, data.RiskIndicators[0], "trust line")
				assert.Contains(t, data.RiskIndicators[1], "owner count")
				assert.Contains(t, data.RiskIndicators[2], "flags")
			}
		})
	}
}

func TestAccountOverview_ReserveEstimate(t *testing.T) {
	node := newFakeRippled(t, map[string]string{
		"account_info":  `{"status": "success", "account_data": {"Balance": "20000000", "OwnerCount": 5, "Flags": 0}}`,
		"account_lines": `{"status": "success", "lines": []}`,
		"account_tx":    `{"status": "success", "transactions": []}`,
	})
	svc := upstream.NewServices("http://los", "http://vhs", node.URL, "http://meta", nil)
	tool := findTool(t, composite.All(svc), "account_overview")

	env := callEnvelope(t, tool, `{"account": "`+testAccount+`"}`)
	data := env.Data.(composite.AccountOverview)
	assert.InDelta(t, 2.0, data.EstimatedReserveXRP, 1e-9)
}

func TestAccountOverview_SoftFailuresWarn(t *testing.T) {
	node := newFakeRippled(t, map[string]string{
		"account_info": `{"status": "success", "account_data": {"Balance": "1", "OwnerCount": 0, "Flags": 0}}`,
	})
	svc := upstream.NewServices("http://los", "http://vhs", node.URL, "http://meta", nil)
	tool := findTool(t, composite.All(svc), "account_overview")

	env := callEnvelope(t, tool, `{"account": "`+testAccount+`"}`)
	assert.Contains(t, env.Warnings, "trust lines unavailable")
	assert.Contains(t, env.Warnings, "transaction history unavailable")
	data := env.Data.(composite.AccountOverview)
	assert.Nil(t, data.TrustlineCount)
}

func TestAccountOverview_InputValidation(t *testing.T) {
	svc := upstream.NewServices("http://los", "http://vhs", "http://node", "http://meta", nil)
	tool := findTool(t, composite.All(svc), "account_overview")

	_, err := tool.Call(context.Background(), json.RawMessage(`{}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, mcp.ErrInvalidParams))
}

func TestTokenOverview_NoAMM(t *testing.T) {
	key, ok := xrpl.TokenKey(testIssuer, "USD")
	require.True(t, ok)

	los := newFakeREST(t, map[string]string{
		"/v1/token/" + key: `{"name": "US Dollar", "trusted": true}`,
	})
	node := newFakeRippled(t, map[string]string{
		"book_offers": `{"status": "success", "offers": [{"quality": "0.52"}]}`,
		// amm_info is absent from the map: the node reports an error, which
		// means no pool exists rather than a tool failure.
	})
	svc := upstream.NewServices(los.URL, "http://vhs", node.URL, "http://meta", nil)
	tool := findTool(t, composite.All(svc), "token_overview")

	env := callEnvelope(t, tool, `{"issuer": "`+testIssuer+`", "currency": "USD"}`)
	data := env.Data.(composite.TokenOverview)
	assert.Equal(t, key, data.TokenKey)
	assert.Nil(t, data.AMM)
	require.NotNil(t, data.BestAskXRP)
	assert.InDelta(t, 0.52, *data.BestAskXRP, 1e-9)
}

func TestTokenOverview_CurrencyTooLong(t *testing.T) {
	svc := upstream.NewServices("http://los", "http://vhs", "http://node", "http://meta", nil)
	tool := findTool(t, composite.All(svc), "token_overview")

	_, err := tool.Call(context.Background(),
		json.RawMessage(`{"issuer": "`+testIssuer+`", "currency": "this currency name is far too long"}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, xrpl.ErrCurrencyTooLong))
}

func TestMarketSnapshot_VWAPZeroVolume(t *testing.T) {
	key, ok := xrpl.TokenKey(testIssuer, "USD")
	require.True(t, ok)

	node := newFakeRippled(t, map[string]string{
		"book_offers": `{"status": "success", "ledger_current_index": 95000001, "offers": [{"quality": "2.0"}, {"quality": "2.1"}]}`,
	})
	los := newFakeREST(t, map[string]string{
		"/v1/token/" + key + "/exchanges": `{"exchanges": [{"price": 2.0, "amount": 0}, {"price": 2.1, "amount": 0}]}`,
	})
	svc := upstream.NewServices(los.URL, "http://vhs", node.URL, "http://meta", nil)
	tool := findTool(t, composite.All(svc), "market_snapshot")

	env := callEnvelope(t, tool,
		`{"base_currency": "USD", "base_issuer": "`+testIssuer+`", "quote_currency": "XRP"}`)
	data := env.Data.(composite.MarketSnapshot)

	assert.Nil(t, data.VWAP)
	assert.Equal(t, 2, data.SampleSize)
	require.NotNil(t, data.ApproxMid)
	assert.InDelta(t, 2.0, *data.ApproxMid, 1e-9)
	require.NotNil(t, data.ApproxSpread)
	assert.InDelta(t, 0.1, *data.ApproxSpread, 1e-9)
	require.NotNil(t, env.Freshness.AsOfLedger)
	assert.Equal(t, int64(95000001), *env.Freshness.AsOfLedger)
}

func TestMarketSnapshot_VWAP(t *testing.T) {
	key, ok := xrpl.TokenKey(testIssuer, "USD")
	require.True(t, ok)

	node := newFakeRippled(t, map[string]string{
		"book_offers": `{"status": "success", "offers": []}`,
	})
	los := newFakeREST(t, map[string]string{
		"/v1/token/" + key + "/exchanges": `{"exchanges": [{"price": 1.0, "amount": 10}, {"price": 2.0, "amount": 30}]}`,
	})
	svc := upstream.NewServices(los.URL, "http://vhs", node.URL, "http://meta", nil)
	tool := findTool(t, composite.All(svc), "market_snapshot")

	env := callEnvelope(t, tool,
		`{"base_currency": "USD", "base_issuer": "`+testIssuer+`", "quote_currency": "XRP"}`)
	data := env.Data.(composite.MarketSnapshot)

	// (1*10 + 2*30) / 40
	require.NotNil(t, data.VWAP)
	assert.InDelta(t, 1.75, *data.VWAP, 1e-9)
	assert.Nil(t, data.ApproxMid)
	assert.Nil(t, data.ApproxSpread)
}

func TestAMMOverview_AssetPair(t *testing.T) {
	key, ok := xrpl.TokenKey(testIssuer, "USD")
	require.True(t, ok)

	node := newFakeRippled(t, map[string]string{
		"amm_info": `{
			"status": "success",
			"ledger_current_index": 95000123,
			"amm": {
				"account": "rMEdVzU8mtEArzjrN9avm3kA675GX7ez8W",
				"amount": "1000000000",
				"amount2": {"currency": "USD", "issuer": "` + testIssuer + `", "value": "500"},
				"lp_token": {"currency": "039C99CD9AB0B70B32ECDA51EAAE471625608EA2", "issuer": "rMEdVzU8mtEArzjrN9avm3kA675GX7ez8W", "value": "700000"},
				"trading_fee": 500
			}
		}`,
	})
	los := newFakeREST(t, map[string]string{
		"/v1/token/" + key + "/exchanges": `{"exchanges": [{"price": 1.0, "amount": 10}, {"price": 2.0, "amount": 30}]}`,
	})
	svc := upstream.NewServices(los.URL, "http://vhs", node.URL, "http://meta", nil)
	tool := findTool(t, composite.All(svc), "amm_overview")

	env := callEnvelope(t, tool,
		`{"asset_currency": "XRP", "asset2_currency": "USD", "asset2_issuer": "`+testIssuer+`"}`)
	data := env.Data.(composite.AMMOverview)

	require.NotNil(t, data.Pool)
	assert.Equal(t, "rMEdVzU8mtEArzjrN9avm3kA675GX7ez8W", data.Pool.Account)
	assert.Equal(t, int64(500), data.Pool.TradingFee)
	require.NotNil(t, data.VWAP)
	assert.InDelta(t, 1.75, *data.VWAP, 1e-9)
	assert.Equal(t, 2, data.SampleSize)
	require.NotNil(t, env.Freshness.AsOfLedger)
	assert.Equal(t, int64(95000123), *env.Freshness.AsOfLedger)
	assert.Empty(t, env.Warnings)
}

func TestAMMOverview_AccountSelector(t *testing.T) {
	node, captured := newCapturingRippled(t, map[string]string{
		// Both pool sides are native-shaped strings, so no trade sample
		// target exists.
		"amm_info": `{"status": "success", "amm": {"account": "rMEdVzU8mtEArzjrN9avm3kA675GX7ez8W", "amount": "1000000000", "amount2": "2000000000", "trading_fee": 30}}`,
	})
	svc := upstream.NewServices("http://los", "http://vhs", node.URL, "http://meta", nil)
	tool := findTool(t, composite.All(svc), "amm_overview")

	env := callEnvelope(t, tool, `{"amm_account": "rMEdVzU8mtEArzjrN9avm3kA675GX7ez8W"}`)

	var req struct {
		Params []map[string]any `json:"params"`
	}
	require.NoError(t, json.Unmarshal(*captured, &req))
	require.Len(t, req.Params, 1)
	assert.Equal(t, "rMEdVzU8mtEArzjrN9avm3kA675GX7ez8W", req.Params[0]["amm_account"])
	assert.NotContains(t, req.Params[0], "asset")
	assert.NotContains(t, req.Params[0], "asset2")

	data := env.Data.(composite.AMMOverview)
	assert.Nil(t, data.VWAP)
	assert.Equal(t, 0, data.SampleSize)
	assert.Contains(t, env.Warnings, "no issued asset in pool; trade sample skipped")
}

func TestAMMOverview_TradeSampleUnavailableWarns(t *testing.T) {
	node := newFakeRippled(t, map[string]string{
		"amm_info": `{"status": "success", "amm": {"account": "rMEdVzU8mtEArzjrN9avm3kA675GX7ez8W", "amount": "1000000000", "amount2": {"currency": "USD", "issuer": "` + testIssuer + `", "value": "500"}}}`,
	})
	// The indexing service is unreachable: the pool still renders.
	svc := upstream.NewServices("http://127.0.0.1:1", "http://vhs", node.URL, "http://meta", nil)
	tool := findTool(t, composite.All(svc), "amm_overview")

	env := callEnvelope(t, tool, `{"amm_account": "rMEdVzU8mtEArzjrN9avm3kA675GX7ez8W"}`)
	data := env.Data.(composite.AMMOverview)
	require.NotNil(t, data.Pool)
	assert.Nil(t, data.VWAP)
	assert.Contains(t, env.Warnings, "trade sample unavailable")
}

func TestAMMOverview_MandatoryFailure(t *testing.T) {
	// amm_info is absent from the map: the node reports an error and the
	// whole tool fails.
	node := newFakeRippled(t, map[string]string{})
	svc := upstream.NewServices("http://los", "http://vhs", node.URL, "http://meta", nil)
	tool := findTool(t, composite.All(svc), "amm_overview")

	res, err := tool.Call(context.Background(), json.RawMessage(`{"amm_account": "rMEdVzU8mtEArzjrN9avm3kA675GX7ez8W"}`))
	require.Error(t, err)
	assert.Nil(t, res)
}

func TestValidatorHealth_UptimeAndWindowWarning(t *testing.T) {
	reports := `[
		{"signed": 900, "missed": 100},
		{"signed": 950, "missed": 50}
	]`
	vhs := newFakeREST(t, map[string]string{
		"/v1/network/validators/" + testPubkey:              `{"domain": "example.net", "chain": "main", "unl": true}`,
		"/v1/network/validators/" + testPubkey + "/reports": `{"reports": ` + reports + `}`,
	})
	svc := upstream.NewServices("http://los", vhs.URL, "http://node", "http://meta", nil)
	tool := findTool(t, composite.All(svc), "validator_health")

	env := callEnvelope(t, tool, `{"pubkey": "`+testPubkey+`"}`)
	data := env.Data.(composite.ValidatorHealth)

	assert.Equal(t, int64(1850), data.Signed)
	assert.Equal(t, int64(150), data.Missed)
	assert.Equal(t, 2, data.ReportCount)
	require.NotNil(t, data.UptimeScore)
	assert.InDelta(t, 0.925, *data.UptimeScore, 1e-9)
	assert.True(t, data.Unl)
	assert.Contains(t, env.Warnings, "only 2 of 30 report entries available")
}

func TestValidatorHealth_UptimeAbsentOnZeroDenominator(t *testing.T) {
	vhs := newFakeREST(t, map[string]string{
		"/v1/network/validators/" + testPubkey:              `{"domain": "example.net"}`,
		"/v1/network/validators/" + testPubkey + "/reports": `{"reports": []}`,
	})
	svc := upstream.NewServices("http://los", vhs.URL, "http://node", "http://meta", nil)
	tool := findTool(t, composite.All(svc), "validator_health")

	env := callEnvelope(t, tool, `{"pubkey": "`+testPubkey+`"}`)
	data := env.Data.(composite.ValidatorHealth)
	assert.Nil(t, data.UptimeScore)
}

func TestValidatorHealth_ReportsFailureAborts(t *testing.T) {
	vhs := newFakeREST(t, map[string]string{
		"/v1/network/validators/" + testPubkey: `{"domain": "example.net"}`,
	})
	svc := upstream.NewServices("http://los", vhs.URL, "http://node", "http://meta", nil)
	tool := findTool(t, composite.All(svc), "validator_health")

	res, err := tool.Call(context.Background(), json.RawMessage(`{"pubkey": "`+testPubkey+`"}`))
	require.Error(t, err)
	assert.Nil(t, res)
	failure, ok := upstream.IsUpstreamFailure(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, failure.Status)
}

func TestAmendmentOverview_VotingState(t *testing.T) {
	vhs := newFakeREST(t, map[string]string{
		"/v1/network/amendments/info/AMMClawback": `{"name": "AMMClawback", "id": "ABCD1234", "enabled": false}`,
		"/v1/network/amendments/vote/main/AMMClawback": `{
			"threshold": 28,
			"consensus": "got_majority",
			"voted": {"validators": [{"signing_key": "a"}, {"signing_key": "b"}, {"signing_key": "c"}]}
		}`,
	})
	svc := upstream.NewServices("http://los", vhs.URL, "http://node", "http://meta", nil)
	tool := findTool(t, composite.All(svc), "amendment_overview")

	env := callEnvelope(t, tool, `{"amendment": "AMMClawback"}`)
	data := env.Data.(composite.AmendmentOverview)

	assert.Equal(t, "AMMClawback", data.Name)
	assert.Equal(t, "ABCD1234", data.ID)
	assert.False(t, data.Enabled)
	require.NotNil(t, data.Threshold)
	assert.Equal(t, int64(28), *data.Threshold)
	require.NotNil(t, data.ValidatorsFor)
	assert.Equal(t, int64(3), *data.ValidatorsFor)
	assert.Equal(t, "got_majority", data.ConsensusPhase)
	assert.Empty(t, env.Warnings)
	require.Len(t, env.Sources, 2)
	assert.Equal(t, envelope.SystemVHS, env.Sources[1].System)
}

func TestAmendmentOverview_ValidatorsForCount(t *testing.T) {
	// Some deployments report a bare counter instead of the voter list.
	vhs := newFakeREST(t, map[string]string{
		"/v1/network/amendments/info/AMMClawback":      `{"name": "AMMClawback", "enabled": true}`,
		"/v1/network/amendments/vote/test/AMMClawback": `{"validators_for": 12}`,
	})
	svc := upstream.NewServices("http://los", vhs.URL, "http://node", "http://meta", nil)
	tool := findTool(t, composite.All(svc), "amendment_overview")

	env := callEnvelope(t, tool, `{"amendment": "AMMClawback", "network": "test"}`)
	data := env.Data.(composite.AmendmentOverview)
	assert.True(t, data.Enabled)
	require.NotNil(t, data.ValidatorsFor)
	assert.Equal(t, int64(12), *data.ValidatorsFor)
}

func TestAmendmentOverview_VotesUnavailableWarns(t *testing.T) {
	vhs := newFakeREST(t, map[string]string{
		"/v1/network/amendments/info/AMMClawback": `{"name": "AMMClawback", "enabled": true}`,
	})
	svc := upstream.NewServices("http://los", vhs.URL, "http://node", "http://meta", nil)
	tool := findTool(t, composite.All(svc), "amendment_overview")

	env := callEnvelope(t, tool, `{"amendment": "AMMClawback"}`)
	data := env.Data.(composite.AmendmentOverview)
	assert.Nil(t, data.ValidatorsFor)
	assert.Nil(t, data.Threshold)
	assert.Contains(t, env.Warnings, "voting state unavailable")
}

func TestAmendmentOverview_MandatoryFailure(t *testing.T) {
	vhs := newFakeREST(t, map[string]string{})
	svc := upstream.NewServices("http://los", vhs.URL, "http://node", "http://meta", nil)
	tool := findTool(t, composite.All(svc), "amendment_overview")

	res, err := tool.Call(context.Background(), json.RawMessage(`{"amendment": "AMMClawback"}`))
	require.Error(t, err)
	assert.Nil(t, res)
	failure, ok := upstream.IsUpstreamFailure(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, failure.Status)
}

func TestTxExplain_Classification(t *testing.T) {
	node := newFakeRippled(t, map[string]string{
		"tx": `{
			"status": "success",
			"hash": "ABCD",
			"TransactionType": "Payment",
			"Account": "` + testAccount + `",
			"Destination": "` + testIssuer + `",
			"Amount": {"currency": "USD", "issuer": "` + testIssuer + `", "value": "5"},
			"validated": true,
			"ledger_index": 94999999,
			"meta": {
				"TransactionResult": "tesSUCCESS",
				"delivered_amount": "1000000",
				"AffectedNodes": [
					{"ModifiedNode": {"FinalFields": {"Account": "rUAfRTDbouUn6aVZVYmYkZger1tozttKbc", "Balance": "42"}}},
					{"CreatedNode": {"NewFields": {"Account": "` + testIssuer + `"}}}
				]
			}
		}`,
	})
	svc := upstream.NewServices("http://los", "http://vhs", node.URL, "http://meta", nil)
	tool := findTool(t, composite.All(svc), "tx_explain")

	hash := "aa11bb22cc33dd44ee55ff6600112233445566778899aabbccddeeff00112233"
	env := callEnvelope(t, tool, `{"hash": "`+hash+`"}`)
	data := env.Data.(composite.TxExplain)

	assert.True(t, data.IsTransfer)
	assert.False(t, data.IsDexTrade)
	assert.False(t, data.IsAMMRelated)
	assert.Equal(t, "AA11BB22CC33DD44EE55FF6600112233445566778899AABBCCDDEEFF00112233", data.Hash)
	assert.Equal(t, "tesSUCCESS", data.Result)

	assert.ElementsMatch(t, []string{
		testAccount,
		testIssuer,
		"rUAfRTDbouUn6aVZVYmYkZger1tozttKbc",
	}, data.AffectedAccounts)

	usdKey, _ := xrpl.TokenKey(testIssuer, "USD")
	assert.ElementsMatch(t, []string{xrpl.Native, usdKey}, data.Tokens)

	require.NotNil(t, data.LedgerIndex)
	assert.Equal(t, int64(94999999), *data.LedgerIndex)
}

func TestTxExplain_DexAndAMMTypes(t *testing.T) {
	for txType, expect := range map[string]struct{ dex, amm bool }{
		"OfferCreate": {dex: true},
		"OfferCancel": {dex: true},
		"AMMSwap":     {dex: true, amm: true},
		"AMMDeposit":  {amm: true},
		"TrustSet":    {},
	} {
		node := newFakeRippled(t, map[string]string{
			"tx": `{"status": "success", "TransactionType": "` + txType + `", "validated": true, "meta": {"TransactionResult": "tesSUCCESS"}}`,
		})
		svc := upstream.NewServices("http://los", "http://vhs", node.URL, "http://meta", nil)
		tool := findTool(t, composite.All(svc), "tx_explain")

		hash := "aa11bb22cc33dd44ee55ff6600112233445566778899aabbccddeeff00112233"
		env := callEnvelope(t, tool, `{"hash": "`+hash+`"}`)
		data := env.Data.(composite.TxExplain)
		assert.Equal(t, expect.dex, data.IsDexTrade, txType)
		assert.Equal(t, expect.amm, data.IsAMMRelated, txType)
		assert.False(t, data.IsTransfer, txType)
	}
}

func TestSearchTransactions_EmptyIsWarning(t *testing.T) {
	los := newFakeREST(t, map[string]string{
		"/v1/transactions/search": `{"results": []}`,
	})
	svc := upstream.NewServices(los.URL, "http://vhs", "http://node", "http://meta", nil)
	tool := findTool(t, composite.All(svc), "search_transactions")

	env := callEnvelope(t, tool, `{"query": {"account": "`+testAccount+`"}, "limit": 10}`)
	data := env.Data.(composite.SearchTransactionsResult)
	assert.Equal(t, 0, data.Count)
	assert.Contains(t, env.Warnings, "no transactions matched the search")
}

func TestResolveEntities_Vectors(t *testing.T) {
	svc := upstream.NewServices("http://los", "http://vhs", "http://node", "http://meta", nil)
	tool := findTool(t, composite.All(svc), "resolve_entities")

	hash := "99999999999999999999999999999999999999999999999999999999999999ff"
	tokenKey, _ := xrpl.TokenKey(testIssuer, "USD")
	env := callEnvelope(t, tool, mustJSON(t, map[string]any{
		"inputs": []string{hash, testAccount, tokenKey, "95000000", "example.net", "zz!!"},
	}))

	entities, ok := env.Data.([]xrpl.Entity)
	require.True(t, ok)
	require.Len(t, entities, 6)

	assert.Equal(t, xrpl.EntityTransaction, entities[0].Kind)
	assert.Equal(t, "99999999999999999999999999999999999999999999999999999999999999FF", entities[0].Value)
	assert.Equal(t, xrpl.EntityAccount, entities[1].Kind)
	assert.Equal(t, xrpl.EntityToken, entities[2].Kind)
	assert.Equal(t, xrpl.EntityLedger, entities[3].Kind)
	assert.Equal(t, int64(95000000), entities[3].Value)
	assert.Equal(t, xrpl.EntityDomain, entities[4].Kind)
	assert.Equal(t, xrpl.EntityUnknown, entities[5].Kind)

	assert.Contains(t, entities[1].SuggestedTools, "account_overview")
	require.Len(t, env.Warnings, 1)
	assert.Contains(t, env.Warnings[0], "zz!!")
	require.Len(t, env.Sources, 1)
	assert.Equal(t, envelope.SystemResolver, env.Sources[0].System)
}

func TestIngestionStatus_Degraded(t *testing.T) {
	los := newFakeREST(t, map[string]string{
		"/health": `{"ingest": {"last_indexed_ledger": 94999990}}`,
	})
	svc := upstream.NewServices(los.URL, "http://vhs", "http://127.0.0.1:1", "http://meta", nil)
	tool := findTool(t, composite.All(svc), "ingestion_status")

	env := callEnvelope(t, tool, `{}`)
	data := env.Data.(composite.IngestionStatus)

	require.NotNil(t, data.LatestIndexedLedger)
	assert.Equal(t, int64(94999990), *data.LatestIndexedLedger)
	assert.Equal(t, "/health", data.SourcePath)
	assert.Nil(t, data.LedgerLag)
	assert.Contains(t, env.Warnings, "ledger node unavailable")
}

func jsonInt(v int64) string {
	bs, _ := json.Marshal(v)
	return string(bs)
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	bs, err := json.Marshal(v)
	require.NoError(t, err)
	return string(bs)
}
