package composite

import (
	"context"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/xrpl-agent/gateway/envelope"
	"github.com/xrpl-agent/gateway/jsondoc"
	"github.com/xrpl-agent/gateway/tools"
	"github.com/xrpl-agent/gateway/upstream"
	"github.com/xrpl-agent/gateway/xrpl"
)

// TxExplainInput identifies a transaction.
type TxExplainInput struct {
	Hash string `json:"hash" yaml:"hash" validate:"required,len=64,hexadecimal" jsonschema:"description=Transaction hash, 64 hex characters."`
}

// TxExplain is a classified view of one validated transaction.
type TxExplain struct {
	Hash             string   `json:"hash"`
	Type             string   `json:"type"`
	Result           string   `json:"result,omitempty"`
	Validated        bool     `json:"validated"`
	IsDexTrade       bool     `json:"isDexTrade"`
	IsTransfer       bool     `json:"isTransfer"`
	IsAMMRelated     bool     `json:"isAmmRelated"`
	AffectedAccounts []string `json:"affectedAccounts"`
	Tokens           []string `json:"tokens"`
	LedgerIndex      *int64   `json:"ledgerIndex"`
}

var dexTradeTypes = map[string]bool{
	"OfferCreate": true,
	"AMMSwap":     true,
	"OfferCancel": true,
}

// NewTxExplain fetches one transaction with its metadata and classifies it:
// trade or transfer category, every account touched by a ledger-object
// mutation, and every token moved.
func NewTxExplain(svc *upstream.Services) tools.ITool {
	return tools.MustNew("tx_explain",
		"Explain one transaction: category, affected accounts, and tokens touched, derived from the transaction and its metadata.",
		func(ctx context.Context, in *TxExplainInput) (any, error) {
			doc, err := svc.Node.Call(ctx, "tx", map[string]any{"transaction": in.Hash})
			if err != nil {
				return nil, err
			}
			sources := []envelope.Source{envelope.NewSource(envelope.SystemRippled, "tx")}

			txType := doc.Str("TransactionType")
			data := TxExplain{
				Hash:             strings.ToUpper(in.Hash),
				Type:             txType,
				Result:           doc.Str("meta.TransactionResult"),
				Validated:        doc.Get("validated").Bool(),
				IsDexTrade:       dexTradeTypes[txType],
				IsTransfer:       txType == "Payment",
				IsAMMRelated:     strings.HasPrefix(txType, "AMM"),
				AffectedAccounts: affectedAccounts(doc),
				Tokens:           touchedTokens(doc),
			}
			if idx, ok := doc.Int64("ledger_index"); ok {
				data.LedgerIndex = envelope.Ledger(idx)
			}

			return envelope.New(data,
				envelope.WithSources(sources...),
				envelope.WithLedger(data.LedgerIndex),
			), nil
		})
}

// affectedAccounts is the union of sender, destination, and every account
// named in a mutated ledger object's final or newly-created fields.
func affectedAccounts(doc jsondoc.Doc) []string {
	set := map[string]bool{}
	if acc := doc.Str("Account"); acc != "" {
		set[acc] = true
	}
	if dst := doc.Str("Destination"); dst != "" {
		set[dst] = true
	}
	for _, node := range doc.Array("meta.AffectedNodes") {
		for _, wrapper := range []string{"ModifiedNode", "CreatedNode", "DeletedNode"} {
			inner := node.Get(wrapper)
			if !inner.Exists() {
				continue
			}
			for _, fields := range []string{"FinalFields.Account", "NewFields.Account"} {
				if acc := inner.Get(fields); acc.Exists() && acc.String() != "" {
					set[acc.String()] = true
				}
			}
		}
	}
	return sortedKeys(set)
}

// touchedTokens is the distinct set of assets referenced by the amount
// fields or mutated balances, as canonical token keys plus the native
// marker.
func touchedTokens(doc jsondoc.Doc) []string {
	set := map[string]bool{}
	for _, field := range []string{"Amount", "DeliverMax", "SendMax", "TakerGets", "TakerPays", "meta.delivered_amount"} {
		addAmountToken(set, doc.Get(field))
	}
	for _, node := range doc.Array("meta.AffectedNodes") {
		for _, wrapper := range []string{"ModifiedNode", "CreatedNode", "DeletedNode"} {
			inner := node.Get(wrapper)
			if !inner.Exists() {
				continue
			}
			addAmountToken(set, inner.Get("FinalFields.Balance"))
			addAmountToken(set, inner.Get("NewFields.Balance"))
		}
	}
	return sortedKeys(set)
}

// addAmountToken records the asset of one amount value: a bare string is a
// native-asset amount in drops, an object carries currency and issuer.
func addAmountToken(set map[string]bool, amount gjson.Result) {
	switch {
	case !amount.Exists():
	case amount.Type == gjson.String:
		set[xrpl.Native] = true
	case amount.IsObject():
		currency := amount.Get("currency").String()
		if currency == "" || currency == xrpl.Native {
			if currency == xrpl.Native {
				set[xrpl.Native] = true
			}
			return
		}
		issuer := amount.Get("issuer").String()
		if key, ok := xrpl.TokenKey(issuer, currency); ok {
			set[key] = true
		}
	}
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SearchTransactionsInput is the indexed-search request. Unlisted filter
// keys can be supplied inside query.
type SearchTransactionsInput struct {
	Query map[string]any `json:"query,omitempty" yaml:"query,omitempty" jsonschema:"description=Search filters: account, type, token, ledger range."`
	Page  int            `json:"page,omitempty" yaml:"page,omitempty" jsonschema:"description=Page number, starting at 1."`
	Limit int            `json:"limit,omitempty" yaml:"limit,omitempty" jsonschema:"description=Page size."`
	Sort  string         `json:"sort,omitempty" yaml:"sort,omitempty" jsonschema:"description=Sort key; prefix with '-' for descending."`
}

// SearchTransactionsResult carries the raw indexed matches and their count.
type SearchTransactionsResult struct {
	Matches any `json:"matches"`
	Count   int `json:"count"`
}

// NewSearchTransactions forwards a search to the indexing service. An empty
// result set is a warning, not an error.
func NewSearchTransactions(svc *upstream.Services) tools.ITool {
	return tools.MustNew("search_transactions",
		"Search indexed transactions with filters, pagination and sort.",
		func(ctx context.Context, in *SearchTransactionsInput) (any, error) {
			body := map[string]any{}
			if in.Query != nil {
				body["query"] = in.Query
			}
			if in.Page > 0 {
				body["page"] = in.Page
			}
			if in.Limit > 0 {
				body["limit"] = in.Limit
			}
			if in.Sort != "" {
				body["sort"] = in.Sort
			}

			doc, err := svc.LOS.FetchWithBody(ctx, "/v1/transactions/search", "POST", body)
			if err != nil {
				return nil, err
			}
			sources := []envelope.Source{envelope.NewSource(envelope.SystemLOS, "POST /v1/transactions/search")}
			var warnings []string

			matches := doc.Array("results")
			if matches == nil {
				matches = doc.Array("transactions")
			}
			if len(matches) == 0 {
				warnings = append(warnings, "no transactions matched the search")
			}

			data := SearchTransactionsResult{
				Matches: doc.Value(),
				Count:   len(matches),
			}
			return envelope.New(data,
				envelope.WithSources(sources...),
				envelope.WithWarnings(warnings...),
			), nil
		})
}

// ResolveEntitiesInput is a batch of free-form identifier strings.
type ResolveEntitiesInput struct {
	Inputs []string `json:"inputs" yaml:"inputs" validate:"required,min=1" jsonschema:"description=Identifier strings to classify: hashes, addresses, token keys, ledger indexes, domains."`
}

// NewResolveEntities classifies identifier strings locally, without any
// upstream call. Unrecognized inputs are warnings, not errors.
func NewResolveEntities(_ *upstream.Services) tools.ITool {
	return tools.MustNew("resolve_entities",
		"Classify identifier strings into transaction, account, token, ledger or domain entities with suggested follow-up tools.",
		func(ctx context.Context, in *ResolveEntitiesInput) (any, error) {
			var warnings []string
			entities := make([]xrpl.Entity, 0, len(in.Inputs))
			for _, input := range in.Inputs {
				e := xrpl.Classify(input)
				if e.Kind == xrpl.EntityUnknown {
					warnings = append(warnings, "unrecognized identifier: "+e.Input)
				}
				entities = append(entities, e)
			}
			return envelope.New(entities,
				envelope.WithSources(envelope.NewSource(envelope.SystemResolver, "classify")),
				envelope.WithWarnings(warnings...),
			), nil
		})
}
