// Package recordlist decodes patient lists exported as a JSON array that the
// upstream system wraps in a stray object brace: "{[ ... ]}" instead of
// "[ ... ]".
package recordlist

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ehr/nhsextract/internal/domain/patient"
)

const (
	wrapperOpen  = "{["
	wrapperClose = "]}"
)

var (
	ErrEmptyInput     = errors.New("recordlist: input is empty")
	ErrMissingWrapper = errors.New("recordlist: missing {[ ... ]} wrapper")
)

// DecodeError reports why a batch could not be decoded. The whole batch is
// rejected; no partial results are returned alongside it.
type DecodeError struct {
	Stage string // "repair", "parse", "validate" or "convert"
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("recordlist %s: %v", e.Stage, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

const entrySchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "properties": {
      "Name":      {"type": ["string", "null"]},
      "NHSNumber": {"type": ["integer", "string", "null"]}
    }
  }
}`

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("recordlist.json", strings.NewReader(entrySchema)); err != nil {
		return nil, fmt.Errorf("failed to load entry schema: %w", err)
	}
	return compiler.Compile("recordlist.json")
})

// Repair swaps the outer "{[" and "]}" wrapper for plain array brackets.
// Surrounding whitespace is ignored; anything else is left untouched.
func Repair(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", ErrEmptyInput
	}
	if !strings.HasPrefix(trimmed, wrapperOpen) || !strings.HasSuffix(trimmed, wrapperClose) {
		return "", ErrMissingWrapper
	}
	inner := trimmed[len(wrapperOpen) : len(trimmed)-len(wrapperClose)]
	return "[" + inner + "]", nil
}

// Extract decodes text into records. Entries without a usable name are given
// patient.UnknownName and every NHS number is normalized to digits.
//
// On failure Extract returns an empty, non-nil slice and a *DecodeError.
func Extract(text string) ([]patient.Record, error) {
	repaired, err := Repair(text)
	if err != nil {
		return []patient.Record{}, &DecodeError{Stage: "repair", Err: err}
	}

	dec := json.NewDecoder(strings.NewReader(repaired))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return []patient.Record{}, &DecodeError{Stage: "parse", Err: err}
	}
	if dec.More() {
		return []patient.Record{}, &DecodeError{Stage: "parse", Err: errors.New("unexpected data after array")}
	}

	schema, err := compileSchema()
	if err != nil {
		return []patient.Record{}, &DecodeError{Stage: "validate", Err: err}
	}
	if err := schema.Validate(doc); err != nil {
		return []patient.Record{}, &DecodeError{Stage: "validate", Err: err}
	}

	items, ok := doc.([]any)
	if !ok {
		return []patient.Record{}, &DecodeError{Stage: "convert", Err: fmt.Errorf("expected an array, got %T", doc)}
	}

	records := make([]patient.Record, 0, len(items))
	for i, item := range items {
		r, err := toRecord(item)
		if err != nil {
			return []patient.Record{}, &DecodeError{Stage: "convert", Err: fmt.Errorf("entry %d: %w", i, err)}
		}
		records = append(records, r)
	}
	return records, nil
}

// toRecord reads the exact keys "Name" and "NHSNumber" of a validated entry.
// Keys differing only in case are ignored.
func toRecord(item any) (patient.Record, error) {
	fields, ok := item.(map[string]any)
	if !ok {
		return patient.Record{}, fmt.Errorf("expected an object, got %T", item)
	}

	name := patient.UnknownName
	if s, ok := fields["Name"].(string); ok && strings.TrimSpace(s) != "" {
		name = s
	}

	raw, err := identifierText(fields["NHSNumber"])
	if err != nil {
		return patient.Record{}, err
	}
	return patient.NewRecord(name, raw), nil
}

// identifierText renders NHSNumber as text. Numbers keep their exact digits
// whatever their magnitude; null or a missing field yields "".
func identifierText(v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case json.Number:
		if !isWholeNumber(v.String()) {
			return "", fmt.Errorf("NHSNumber %s must be written as plain digits", v)
		}
		return v.String(), nil
	default:
		return "", fmt.Errorf("NHSNumber has unsupported type %T", v)
	}
}

// isWholeNumber reports whether s is an optional minus sign followed by
// ASCII digits.
func isWholeNumber(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
