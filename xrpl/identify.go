package xrpl

import (
	"regexp"
	"strconv"
	"strings"
)

// EntityKind classifies a free-form identifier string.
type EntityKind string

const (
	EntityTransaction EntityKind = "transaction"
	EntityAccount     EntityKind = "account"
	EntityToken       EntityKind = "token"
	EntityLedger      EntityKind = "ledger"
	EntityDomain      EntityKind = "domain"
	EntityUnknown     EntityKind = "unknown"
)

// Entity is the result of classifying one input string.
type Entity struct {
	Input          string     `json:"input"`
	Kind           EntityKind `json:"kind"`
	Value          any        `json:"value,omitempty"`
	SuggestedTools []string   `json:"suggestedTools,omitempty"`
}

var (
	reTxHash = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)
	// rippled's base58 alphabet; addresses start with the network prefix 'r'.
	reAccount  = regexp.MustCompile(`^r[rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz]{24,34}$`)
	reTokenKey = regexp.MustCompile(`^[0-9A-Fa-f]{40}\.r[rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz]{24,34}$`)
	reDigits   = regexp.MustCompile(`^[0-9]+$`)
)

// Suggested follow-up tools per recognized entity kind. Fixed lists; the
// agent uses them to plan its next call.
var suggestedTools = map[EntityKind][]string{
	EntityTransaction: {"tx_explain", "rippled_tx"},
	EntityAccount:     {"account_overview", "rippled_account_info", "rippled_account_tx"},
	EntityToken:       {"token_overview", "los_token", "market_snapshot"},
	EntityLedger:      {"ledger_overview", "rippled_ledger"},
	EntityDomain:      {"vhs_validators", "xrplmeta_get"},
}

// Classify matches a trimmed input string against the recognition patterns in
// fixed order; the first matching pattern wins.
func Classify(input string) Entity {
	s := strings.TrimSpace(input)
	e := Entity{Input: s}

	switch {
	case reTxHash.MatchString(s):
		e.Kind = EntityTransaction
		e.Value = strings.ToUpper(s)
	case reAccount.MatchString(s):
		e.Kind = EntityAccount
		e.Value = s
	case reTokenKey.MatchString(s):
		e.Kind = EntityToken
		e.Value = s
	case reDigits.MatchString(s):
		e.Kind = EntityLedger
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			e.Kind = EntityUnknown
			return e
		}
		e.Value = n
	case strings.Contains(s, "."):
		e.Kind = EntityDomain
		e.Value = s
	default:
		e.Kind = EntityUnknown
		return e
	}

	e.SuggestedTools = suggestedTools[e.Kind]
	return e
}
