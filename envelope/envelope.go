// Package envelope defines the normalized response shape returned by the
// composite tools: a domain payload plus provenance, freshness and warnings
// for agent-side trust reasoning.
package envelope

import "time"

// System names attributed in provenance records.
const (
	SystemLOS      = "LOS"
	SystemVHS      = "VHS"
	SystemRippled  = "rippled"
	SystemXRPLMeta = "XRPLMeta"
	SystemResolver = "local-resolver"
)

// Source attributes one upstream call that produced part of the data.
// Immutable once created; never consulted for control flow.
type Source struct {
	System string    `json:"system"`
	Method string    `json:"method"`
	At     time.Time `json:"at"`
}

// Freshness carries the best-known ledger index and the handler's completion
// wall-clock time.
type Freshness struct {
	AsOfLedger *int64    `json:"asOfLedger"`
	AsOfTime   time.Time `json:"asOfTime"`
}

// Envelope is the universal composite-tool response.
type Envelope struct {
	Data      any       `json:"data"`
	Sources   []Source  `json:"sources"`
	Freshness Freshness `json:"freshness"`
	Warnings  []string  `json:"warnings"`
}

// Option mutates an envelope under construction.
type Option func(*Envelope)

// WithSources appends provenance records in call order.
func WithSources(sources ...Source) Option {
	return func(e *Envelope) {
		e.Sources = append(e.Sources, sources...)
	}
}

// WithLedger sets the best-known ledger index.
func WithLedger(index *int64) Option {
	return func(e *Envelope) {
		e.Freshness.AsOfLedger = index
	}
}

// WithWarnings appends soft-failure warnings.
func WithWarnings(warnings ...string) Option {
	return func(e *Envelope) {
		e.Warnings = append(e.Warnings, warnings...)
	}
}

// WithTime overrides the completion timestamp; used in tests.
func WithTime(at time.Time) Option {
	return func(e *Envelope) {
		e.Freshness.AsOfTime = at
	}
}

// New builds an envelope around data. AsOfTime defaults to the current time,
// AsOfLedger to absence. The data shape is not validated.
func New(data any, opts ...Option) *Envelope {
	e := &Envelope{
		Data:     data,
		Sources:  []Source{},
		Warnings: []string{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.Freshness.AsOfTime.IsZero() {
		e.Freshness.AsOfTime = time.Now().UTC()
	}
	return e
}

// NewSource stamps a provenance record with the current time.
func NewSource(system, method string) Source {
	return Source{System: system, Method: method, At: time.Now().UTC()}
}

// Ledger wraps an index value as an optional ledger reference.
func Ledger(index int64) *int64 {
	return &index
}
