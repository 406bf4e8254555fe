// Package script decodes and validates exported conversational scripts: a JSON
// array of turn records, each carrying a role and a text.
package script

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	errs "github.com/yungbote/scriptgraph/internal/pkg/errors"
)

const (
	FieldRole = "role"
	FieldText = "text"
	// FieldSeq is the legacy ordering field. Accepted when it is an integer, never stored.
	FieldSeq = "seq"
)

// Turn is one validated utterance.
type Turn struct {
	Role string
	Text string
}

// TurnSchemaError reports the first record that failed validation. Index is -1
// when the payload as a whole is unusable.
type TurnSchemaError struct {
	Index  int
	Field  string
	Reason string
}

func (e *TurnSchemaError) Error() string {
	if e == nil {
		return "invalid script"
	}
	switch {
	case e.Index < 0:
		return "invalid script: " + e.Reason
	case e.Field == "":
		return fmt.Sprintf("invalid script: turn %d: %s", e.Index, e.Reason)
	default:
		return fmt.Sprintf("invalid script: turn %d: field %q: %s", e.Index, e.Field, e.Reason)
	}
}

func (e *TurnSchemaError) Is(target error) bool { return target == errs.ErrTurnSchema }

// Decode reads a whole script from r and validates it.
func Decode(r io.Reader) ([]Turn, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return Parse(data)
}

// Parse validates every record before returning any of them, so a bad record at
// any position rejects the whole script.
func Parse(data []byte) ([]Turn, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &TurnSchemaError{Index: -1, Reason: "payload must be a JSON array of turn objects: " + err.Error()}
	}
	if records == nil {
		return nil, &TurnSchemaError{Index: -1, Reason: "payload must be a JSON array of turn objects, got null"}
	}

	turns := make([]Turn, 0, len(records))
	for i, raw := range records {
		t, err := validateRecord(i, raw)
		if err != nil {
			return nil, err
		}
		turns = append(turns, t)
	}
	return turns, nil
}

func validateRecord(i int, raw json.RawMessage) (Turn, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Turn{}, &TurnSchemaError{Index: i, Reason: "record must be a JSON object"}
	}

	role, err := stringField(i, fields, FieldRole)
	if err != nil {
		return Turn{}, err
	}
	text, err := stringField(i, fields, FieldText)
	if err != nil {
		return Turn{}, err
	}
	if seq, ok := fields[FieldSeq]; ok && !isNullOrInteger(seq) {
		return Turn{}, &TurnSchemaError{Index: i, Field: FieldSeq, Reason: "must be an integer when present"}
	}
	return Turn{Role: role, Text: text}, nil
}

func stringField(i int, fields map[string]json.RawMessage, name string) (string, error) {
	raw, ok := fields[name]
	if !ok {
		return "", &TurnSchemaError{Index: i, Field: name, Reason: "required field is missing"}
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return "", &TurnSchemaError{Index: i, Field: name, Reason: "must be a string"}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", &TurnSchemaError{Index: i, Field: name, Reason: "must be a string"}
	}
	return s, nil
}

func isNullOrInteger(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if string(raw) == "null" {
		return true
	}
	if len(raw) == 0 || raw[0] == '"' {
		return false
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return false
	}
	_, err := n.Int64()
	return err == nil
}
