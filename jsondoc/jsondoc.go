// Package jsondoc wraps upstream JSON payloads as loosely-typed documents.
//
// Upstream schemas are not guaranteed; accessors search a known alias list
// for the first matching field and tolerate absence instead of failing.
// The nested search is bounded to exactly one object level below the top.
package jsondoc

import (
	"github.com/tidwall/gjson"
)

// Doc is a parsed upstream response body. The zero value is an absent
// document: IsPresent reports false and every accessor returns absence.
type Doc struct {
	raw    []byte
	parsed gjson.Result
	isJSON bool
	text   string
}

// FromBytes parses body as JSON when possible, keeping the raw bytes.
func FromBytes(body []byte) Doc {
	if gjson.ValidBytes(body) {
		return Doc{raw: body, parsed: gjson.ParseBytes(body), isJSON: true}
	}
	return Doc{raw: body, text: string(body)}
}

// FromText wraps a non-JSON response body.
func FromText(body string) Doc {
	return Doc{raw: []byte(body), text: body}
}

// IsPresent reports whether the document holds any body at all.
func (d Doc) IsPresent() bool {
	return len(d.raw) > 0
}

// IsJSON reports whether the body parsed as JSON.
func (d Doc) IsJSON() bool {
	return d.isJSON
}

// Text returns the raw body as text.
func (d Doc) Text() string {
	if d.isJSON {
		return string(d.raw)
	}
	return d.text
}

// Get returns the value at a gjson path.
func (d Doc) Get(path string) gjson.Result {
	if !d.isJSON {
		return gjson.Result{}
	}
	return d.parsed.Get(path)
}

// Value returns the document decoded into generic Go values, for inclusion
// in a tool result as-is.
func (d Doc) Value() any {
	if !d.isJSON {
		return d.text
	}
	return d.parsed.Value()
}

// FindFirst searches the top level of the document, then every object exactly
// one level below the top, for the first field whose name matches one of the
// aliases, in alias order. Deeper nesting is deliberately not searched.
func (d Doc) FindFirst(aliases ...string) gjson.Result {
	if !d.isJSON || !d.parsed.IsObject() {
		return gjson.Result{}
	}
	for _, alias := range aliases {
		if r := d.parsed.Get(alias); r.Exists() {
			return r
		}
	}
	var found gjson.Result
	d.parsed.ForEach(func(_, child gjson.Result) bool {
		if !child.IsObject() {
			return true
		}
		for _, alias := range aliases {
			if r := child.Get(alias); r.Exists() {
				found = r
				return false
			}
		}
		return true
	})
	return found
}

// Int64 returns the integer at path, or absence.
func (d Doc) Int64(path string) (int64, bool) {
	r := d.Get(path)
	if !r.Exists() || r.Type != gjson.Number {
		return 0, false
	}
	return r.Int(), true
}

// Float returns the number at path, or absence. String-encoded numbers are
// accepted; rippled amounts arrive as decimal strings.
func (d Doc) Float(path string) (float64, bool) {
	r := d.Get(path)
	switch r.Type {
	case gjson.Number:
		return r.Float(), true
	case gjson.String:
		if r.Str == "" {
			return 0, false
		}
		f := r.Float()
		return f, true
	default:
		return 0, false
	}
}

// Str returns the string at path, or "".
func (d Doc) Str(path string) string {
	r := d.Get(path)
	if r.Type != gjson.String {
		return ""
	}
	return r.Str
}

// Array returns the array elements at path.
func (d Doc) Array(path string) []gjson.Result {
	r := d.Get(path)
	if !r.IsArray() {
		return nil
	}
	return r.Array()
}

// NumericValue extracts a numeric value from a gjson result, accepting
// string-encoded numbers.
func NumericValue(r gjson.Result) (int64, bool) {
	switch r.Type {
	case gjson.Number:
		return r.Int(), true
	case gjson.String:
		if r.Str == "" {
			return 0, false
		}
		n := r.Int()
		if n == 0 && r.Str != "0" {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
