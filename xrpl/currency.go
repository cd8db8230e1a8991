// Package xrpl holds XRP Ledger identifier handling: currency code
// normalization, canonical token keys, and entity classification.
package xrpl

import (
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
)

// Native is the literal marker for the ledger's native asset.
const Native = "XRP"

// ErrCurrencyTooLong is returned when a currency string cannot be encoded
// into the 160-bit representation used by the indexing service.
var ErrCurrencyTooLong = errors.New("currency code exceeds 20 bytes")

var (
	reHex40  = regexp.MustCompile(`^[0-9a-fA-F]{40}$`)
	reISO    = regexp.MustCompile(`^[0-9a-zA-Z]{3}$`)
	zeroPad  = make([]byte, 20)
	hexUpper = strings.ToUpper
)

// CurrencyToHex canonicalizes a currency code into the fixed-width 40-digit
// hexadecimal form. Three input shapes are accepted: an already-hex
// 40-character code, a 3-character ISO-style code, or an arbitrary short
// string. ok is false when the code cannot fit 20 bytes.
func CurrencyToHex(currency string) (string, bool) {
	if reHex40.MatchString(currency) {
		return hexUpper(currency), true
	}
	if reISO.MatchString(currency) {
		return padHex([]byte(currency)), true
	}
	bs := []byte(currency)
	if len(bs) > 20 {
		return "", false
	}
	return padHex(bs), true
}

func padHex(bs []byte) string {
	padded := append(bs, zeroPad[:20-len(bs)]...)
	return hexUpper(hex.EncodeToString(padded))
}

// TokenKey derives the canonical `<40-hex-currency>.<issuer>` key identifying
// an issued asset. Two tokens are the same entity iff their keys are
// byte-equal. ok is false iff the currency cannot be normalized.
func TokenKey(issuer, currency string) (string, bool) {
	hexCur, ok := CurrencyToHex(currency)
	if !ok {
		return "", false
	}
	return hexCur + "." + issuer, true
}
