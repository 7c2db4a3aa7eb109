package selector

import (
	// Packages
	multipart "github.com/mutablelogic/go-multipart"
	schema "github.com/mutablelogic/go-multipart/pkg/schema"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Action is the runtime decision for a candidate part.
type Action int

// Engine applies the configured selector to incoming parts, tracking
// per-field acceptance counts. Counts increase monotonically and are never
// reset for the lifetime of the engine.
type Engine struct {
	selector schema.Selector
	policy   schema.UnknownFieldPolicy
	counts   map[string]int
	fields   map[string]schema.SelectedField
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	// Accept the part and continue yielding it.
	Accept Action = iota
	// Ignore the part: the caller drains and skips it.
	Ignore
)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New creates a selector engine with fresh runtime counters.
func New(selector schema.Selector, policy schema.UnknownFieldPolicy) *Engine {
	fields := make(map[string]schema.SelectedField, len(selector.Fields()))
	for _, field := range selector.Fields() {
		fields[field.Name] = field
	}
	return &Engine{
		selector: selector,
		policy:   policy,
		counts:   make(map[string]int),
		fields:   fields,
	}
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// EvaluateFileField applies the selector rules to a file part.
func (e *Engine) EvaluateFileField(name string) (Action, error) {
	switch e.selector.Kind() {
	case schema.SelectorSingle, schema.SelectorArray:
		if name != e.selector.Name() {
			return e.unknownField(name)
		}
		if err := e.record(name, e.selector.MaxCount()); err != nil {
			return Ignore, err
		}
		return Accept, nil
	case schema.SelectorFields:
		rules, exists := e.fields[name]
		if !exists || rules.Kind != schema.FieldFile {
			return e.unknownField(name)
		}
		if err := e.record(name, rules.MaxCount); err != nil {
			return Ignore, err
		}
		return Accept, nil
	case schema.SelectorNone:
		return e.unknownField(name)
	default:
		return Accept, nil
	}
}

// EvaluateTextField applies the selector rules to a text part. Text parts
// are accepted by every selector except a Fields selector without a
// matching text entry.
func (e *Engine) EvaluateTextField(name string) (Action, error) {
	if e.selector.Kind() != schema.SelectorFields {
		return Accept, nil
	}
	rules, exists := e.fields[name]
	if !exists || rules.Kind != schema.FieldText {
		return e.unknownField(name)
	}
	return Accept, nil
}

// FieldMimeTypes returns the MIME patterns configured for a selected field.
func (e *Engine) FieldMimeTypes(name string) []string {
	return e.fields[name].AllowedMimeTypes
}

// FieldTextMaxSize returns the per-field size cap configured for a selected
// text field, or zero.
func (e *Engine) FieldTextMaxSize(name string) int64 {
	if rules, exists := e.fields[name]; exists && rules.Kind == schema.FieldText {
		return rules.MaxSize
	}
	return 0
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (e *Engine) unknownField(name string) (Action, error) {
	if e.policy == schema.UnknownFieldReject {
		return Ignore, &multipart.UnexpectedFieldError{Field: name}
	}
	return Ignore, nil
}

func (e *Engine) record(name string, maxCount int) error {
	next := e.counts[name] + 1
	if maxCount > 0 && next > maxCount {
		return &multipart.FieldCountLimitError{Field: name, MaxCount: maxCount}
	}
	e.counts[name] = next
	return nil
}
