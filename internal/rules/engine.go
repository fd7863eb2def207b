// internal/rules/engine.go
package rules

import (
	"time"

	"github.com/rs/zerolog"
)

// Engine translates query-builder filter trees onto query targets.
// Immutable after construction; safe for concurrent use as long as each
// call receives its own Target.
type Engine struct {
	fields          fieldPolicy
	dates           DateParser
	strictCondition bool
	enforceTypes    bool
	logger          zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithAllowedFields restricts rules to the given field names. An empty
// list allows every field.
func WithAllowedFields(fields ...string) Option {
	return func(e *Engine) {
		e.fields = newFieldPolicy(fields, e.fields.raw)
	}
}

// WithRawFields maps logical field names to raw expressions emitted instead.
func WithRawFields(raw map[string]string) Option {
	return func(e *Engine) {
		e.fields = newFieldPolicy(e.fields.order, raw)
	}
}

// WithStrictCondition validates the top-level condition like nested ones.
// By default an unrecognised top-level condition combines with AND.
func WithStrictCondition(strict bool) Option {
	return func(e *Engine) {
		e.strictCondition = strict
	}
}

// WithOperatorTypeEnforcement rejects operators used with a type they do
// not apply to, e.g. "contains" on a number.
func WithOperatorTypeEnforcement(enforce bool) Option {
	return func(e *Engine) {
		e.enforceTypes = enforce
	}
}

// WithDateParser replaces the date parsing collaborator.
func WithDateParser(p DateParser) Option {
	return func(e *Engine) {
		if p != nil {
			e.dates = p
		}
	}
}

// WithLocation interprets zone-less dates in loc.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		e.dates = NewDateParser(loc)
	}
}

// WithLogger sets the logger used for skipped rules.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// NewEngine creates an engine. Without options every field is allowed,
// no raw fields are mapped and dates are parsed in UTC.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		fields: newFieldPolicy(nil, nil),
		dates:  NewDateParser(time.UTC),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AllowedFields returns a copy of the configured allow-list.
func (e *Engine) AllowedFields() []string {
	return append([]string(nil), e.fields.order...)
}
