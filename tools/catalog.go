package tools

import (
	"github.com/xrpl-agent/gateway/upstream"
)

// Passthroughs returns the full pass-through tool set bound to the given
// upstream services: one tool per upstream endpoint, forwarding arguments
// verbatim and returning the raw upstream result.
func Passthroughs(svc *upstream.Services) []ITool {
	specs := make([]PassthroughSpec, 0, 37)
	specs = append(specs, rippledSpecs()...)
	specs = append(specs, vhsSpecs()...)
	specs = append(specs, losSpecs()...)
	specs = append(specs, metaSpecs()...)

	list := make([]ITool, 0, len(specs))
	for _, spec := range specs {
		list = append(list, NewPassthrough(svc, spec))
	}
	return list
}

func rippledSpecs() []PassthroughSpec {
	return []PassthroughSpec{
		{
			Name:        "rippled_server_info",
			Description: "Raw rippled server_info: build version, server state, validated ledger, load.",
			Forward:     forwardRippled("server_info"),
		},
		{
			Name:        "rippled_ledger",
			Description: "Raw rippled ledger by index or hash; defaults to the validated ledger.",
			Fields: []Field{
				{Name: "ledger_index", Kind: KindAny, Description: "Ledger index number or shortcut such as 'validated'."},
				{Name: "ledger_hash", Kind: KindString, Description: "Ledger hash, 64 hex characters."},
				{Name: "transactions", Kind: KindBoolean, Description: "Include the transaction list."},
				{Name: "expand", Kind: KindBoolean, Description: "Expand transactions into full objects."},
			},
			Forward: forwardRippled("ledger"),
		},
		{
			Name:        "rippled_account_info",
			Description: "Raw rippled account_info: balance, sequence, owner count, flags.",
			Fields: []Field{
				{Name: "account", Kind: KindString, Description: "Account address.", Required: true},
				{Name: "ledger_index", Kind: KindAny, Description: "Ledger index number or shortcut."},
			},
			Forward: forwardRippled("account_info"),
		},
		{
			Name:        "rippled_account_lines",
			Description: "Raw rippled account_lines: trust lines held by an account.",
			Fields: []Field{
				{Name: "account", Kind: KindString, Description: "Account address.", Required: true},
				{Name: "peer", Kind: KindString, Description: "Restrict to lines against this counterparty."},
				{Name: "limit", Kind: KindNumber, Description: "Maximum number of lines to return."},
				{Name: "marker", Kind: KindAny, Description: "Pagination marker from a previous response."},
			},
			Forward: forwardRippled("account_lines"),
		},
		{
			Name:        "rippled_account_tx",
			Description: "Raw rippled account_tx: transaction history for an account.",
			Fields: []Field{
				{Name: "account", Kind: KindString, Description: "Account address.", Required: true},
				{Name: "limit", Kind: KindNumber, Description: "Maximum number of transactions to return."},
				{Name: "forward", Kind: KindBoolean, Description: "Return oldest first."},
				{Name: "ledger_index_min", Kind: KindInteger, Description: "Earliest ledger to include, -1 for earliest available."},
				{Name: "ledger_index_max", Kind: KindInteger, Description: "Latest ledger to include, -1 for latest available."},
				{Name: "marker", Kind: KindAny, Description: "Pagination marker from a previous response."},
			},
			Forward: forwardRippled("account_tx"),
		},
		{
			Name:        "rippled_account_objects",
			Description: "Raw rippled account_objects: ledger entries owned by an account.",
			Fields: []Field{
				{Name: "account", Kind: KindString, Description: "Account address.", Required: true},
				{Name: "type", Kind: KindString, Description: "Filter by entry type, e.g. 'offer' or 'state'."},
				{Name: "limit", Kind: KindNumber, Description: "Maximum number of objects to return."},
				{Name: "marker", Kind: KindAny, Description: "Pagination marker from a previous response."},
			},
			Forward: forwardRippled("account_objects"),
		},
		{
			Name:        "rippled_tx",
			Description: "Raw rippled tx: a single transaction with metadata by hash.",
			Fields: []Field{
				{Name: "transaction", Kind: KindString, Description: "Transaction hash, 64 hex characters.", Required: true},
				{Name: "binary", Kind: KindBoolean, Description: "Return binary format instead of JSON."},
			},
			Forward: forwardRippled("tx"),
		},
		{
			Name:        "rippled_book_offers",
			Description: "Raw rippled book_offers: the order book between two assets.",
			Fields: []Field{
				{Name: "taker_gets", Kind: KindObject, Description: "Asset the taker receives: {currency} or {currency, issuer}.", Required: true},
				{Name: "taker_pays", Kind: KindObject, Description: "Asset the taker pays: {currency} or {currency, issuer}.", Required: true},
				{Name: "limit", Kind: KindNumber, Description: "Maximum number of offers to return."},
			},
			Forward: forwardRippled("book_offers"),
		},
		{
			Name:        "rippled_amm_info",
			Description: "Raw rippled amm_info: automated market maker pool state.",
			Fields: []Field{
				{Name: "asset", Kind: KindObject, Description: "First pool asset: {currency} or {currency, issuer}."},
				{Name: "asset2", Kind: KindObject, Description: "Second pool asset."},
				{Name: "amm_account", Kind: KindString, Description: "AMM account address, alternative to the asset pair."},
			},
			Forward: forwardRippled("amm_info"),
		},
		{
			Name:        "rippled_nft_info",
			Description: "Raw rippled nft_info: current state of an NFT by id.",
			Fields: []Field{
				{Name: "nft_id", Kind: KindString, Description: "NFT id, 64 hex characters.", Required: true},
			},
			Forward: forwardRippled("nft_info"),
		},
		{
			Name:        "rippled_nft_history",
			Description: "Raw rippled nft_history: ownership and transfer history of an NFT.",
			Fields: []Field{
				{Name: "nft_id", Kind: KindString, Description: "NFT id, 64 hex characters.", Required: true},
				{Name: "limit", Kind: KindNumber, Description: "Maximum number of entries to return."},
				{Name: "marker", Kind: KindAny, Description: "Pagination marker from a previous response."},
			},
			Forward: forwardRippled("nft_history"),
		},
		{
			Name:        "rippled_nfts_by_issuer",
			Description: "Raw rippled nfts_by_issuer: NFTs minted by an issuing account.",
			Fields: []Field{
				{Name: "issuer", Kind: KindString, Description: "Issuer account address.", Required: true},
				{Name: "limit", Kind: KindNumber, Description: "Maximum number of NFTs to return."},
				{Name: "marker", Kind: KindAny, Description: "Pagination marker from a previous response."},
			},
			Forward: forwardRippled("nfts_by_issuer"),
		},
		{
			Name:        "rippled_fee",
			Description: "Raw rippled fee: current transaction cost and open ledger state.",
			Forward:     forwardRippled("fee"),
		},
		{
			Name:        "rippled_rpc",
			Description: "Open-ended rippled JSON-RPC passthrough: any method with a params object.",
			Fields: []Field{
				{Name: "method", Kind: KindString, Description: "JSON-RPC method name.", Required: true},
				{Name: "params", Kind: KindObject, Description: "Parameters object for the method."},
			},
			Forward: forwardRippledRPC(),
		},
	}
}

func vhsSpecs() []PassthroughSpec {
	pubkey := Field{Name: "pubkey", Kind: KindString, Description: "Validator master public key.", Required: true}
	return []PassthroughSpec{
		{
			Name:        "vhs_networks",
			Description: "Raw validator-reporting list of known networks.",
			Forward:     forwardGet(vhsClient, "/v1/networks"),
		},
		{
			Name:        "vhs_topology",
			Description: "Raw validator-reporting network topology snapshot.",
			Forward:     forwardGet(vhsClient, "/v1/network/topology"),
		},
		{
			Name:        "vhs_topology_nodes",
			Description: "Raw validator-reporting list of topology nodes.",
			Forward:     forwardGet(vhsClient, "/v1/network/topology/nodes"),
		},
		{
			Name:        "vhs_topology_node",
			Description: "Raw validator-reporting detail for one topology node.",
			Fields:      []Field{pubkey},
			Forward:     forwardGet(vhsClient, "/v1/network/topology/node/{pubkey}"),
		},
		{
			Name:        "vhs_validators",
			Description: "Raw validator-reporting list of known validators.",
			Forward:     forwardGet(vhsClient, "/v1/network/validators"),
		},
		{
			Name:        "vhs_validator",
			Description: "Raw validator-reporting detail for one validator.",
			Fields:      []Field{pubkey},
			Forward:     forwardGet(vhsClient, "/v1/network/validators/{pubkey}"),
		},
		{
			Name:        "vhs_validator_manifests",
			Description: "Raw validator-reporting manifest history for one validator.",
			Fields:      []Field{pubkey},
			Forward:     forwardGet(vhsClient, "/v1/network/validators/{pubkey}/manifests"),
		},
		{
			Name:        "vhs_validator_reports",
			Description: "Raw validator-reporting agreement reports for one validator.",
			Fields:      []Field{pubkey},
			Forward:     forwardGet(vhsClient, "/v1/network/validators/{pubkey}/reports"),
		},
		{
			Name:        "vhs_amendment_info",
			Description: "Raw validator-reporting detail for one amendment.",
			Fields: []Field{
				{Name: "amendment", Kind: KindString, Description: "Amendment id or name.", Required: true},
			},
			Forward: forwardGet(vhsClient, "/v1/network/amendments/info/{amendment}"),
		},
		{
			Name:        "vhs_amendment_votes",
			Description: "Raw validator-reporting voting state for one amendment on a network.",
			Fields: []Field{
				{Name: "network", Kind: KindString, Description: "Network name, e.g. 'main'.", Required: true},
				{Name: "amendment", Kind: KindString, Description: "Amendment id or name.", Required: true},
			},
			Forward: forwardGet(vhsClient, "/v1/network/amendments/vote/{network}/{amendment}"),
		},
		{
			Name:        "vhs_health",
			Description: "Raw validator-reporting service health.",
			Forward:     forwardGet(vhsClient, "/v1/health"),
		},
		{
			Name:        "vhs_metrics",
			Description: "Raw validator-reporting service metrics.",
			Forward:     forwardGet(vhsClient, "/v1/metrics"),
		},
	}
}

func losSpecs() []PassthroughSpec {
	token := Field{Name: "token", Kind: KindString, Description: "Token key as <CURRENCY_HEX>.<issuer>.", Required: true}
	return []PassthroughSpec{
		{
			Name:        "los_token",
			Description: "Raw indexing-service metadata for one token.",
			Fields:      []Field{token},
			Forward:     forwardGet(losClient, "/v1/token/{token}"),
		},
		{
			Name:        "los_tokens_batch",
			Description: "Raw indexing-service metadata for a batch of tokens.",
			Fields: []Field{
				{Name: "tokens", Kind: KindArray, Description: "Token keys as <CURRENCY_HEX>.<issuer>.", Required: true},
			},
			Forward: forwardPost(losClient, "/v1/tokens"),
		},
		{
			Name:        "los_trusted_tokens",
			Description: "Raw indexing-service list of trusted tokens.",
			Forward:     forwardGet(losClient, "/v1/tokens/trusted"),
		},
		{
			Name:        "los_search_transactions",
			Description: "Raw indexing-service transaction search with pagination and sort.",
			Fields: []Field{
				{Name: "query", Kind: KindObject, Description: "Search filters: account, type, token, ledger range."},
				{Name: "page", Kind: KindNumber, Description: "Page number, starting at 1."},
				{Name: "limit", Kind: KindNumber, Description: "Page size."},
				{Name: "sort", Kind: KindString, Description: "Sort key, prefix with '-' for descending."},
			},
			Forward: forwardPost(losClient, "/v1/transactions/search"),
		},
		{
			Name:        "los_transaction",
			Description: "Raw indexing-service view of one transaction by hash.",
			Fields: []Field{
				{Name: "hash", Kind: KindString, Description: "Transaction hash, 64 hex characters.", Required: true},
			},
			Forward: forwardGet(losClient, "/v1/transactions/{hash}"),
		},
		{
			Name:        "los_account_stats",
			Description: "Raw indexing-service activity statistics for an account.",
			Fields: []Field{
				{Name: "account", Kind: KindString, Description: "Account address.", Required: true},
			},
			Forward: forwardGet(losClient, "/v1/accounts/{account}/stats"),
		},
		{
			Name:        "los_token_holders",
			Description: "Raw indexing-service holder list for one token.",
			Fields: []Field{
				token,
				{Name: "limit", Kind: KindNumber, Description: "Maximum number of holders to return."},
			},
			Forward: forwardGet(losClient, "/v1/token/{token}/holders"),
		},
		{
			Name:        "los_exchanges",
			Description: "Raw indexing-service recent trades for one token.",
			Fields: []Field{
				token,
				{Name: "limit", Kind: KindNumber, Description: "Maximum number of trades to return."},
			},
			Forward: forwardGet(losClient, "/v1/token/{token}/exchanges"),
		},
		{
			Name:        "los_status",
			Description: "Raw indexing-service ingestion status.",
			Forward:     forwardGet(losClient, "/v1/status"),
		},
		{
			Name:        "los_ledger",
			Description: "Raw indexing-service view of one indexed ledger.",
			Fields: []Field{
				{Name: "ledger_index", Kind: KindInteger, Description: "Ledger index number.", Required: true},
			},
			Forward: forwardGet(losClient, "/v1/ledger/{ledger_index}"),
		},
	}
}

func metaSpecs() []PassthroughSpec {
	return []PassthroughSpec{
		{
			Name:        "xrplmeta_get",
			Description: "Generic metadata-service passthrough: GET any path with query parameters.",
			Fields: []Field{
				{Name: "path", Kind: KindString, Description: "Request path, e.g. '/token/USD.rXXXX'.", Required: true},
				{Name: "query", Kind: KindObject, Description: "Query parameters."},
			},
			Forward: forwardMetaGet(),
		},
	}
}
