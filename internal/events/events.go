// Package events defines the turn events exchanged with downstream workers over
// Redis Streams. Stream entries are flat string maps; the schemas live in
// contracts/*.yaml and are embedded.
package events

import (
	"fmt"
	"strconv"
	"strings"

	errs "github.com/yungbote/scriptgraph/internal/pkg/errors"
)

const (
	NameTurnUpdated  = "script.turn.updated"
	NameDiffReported = "script.turn.diff_reported"
)

type TurnUpdated struct {
	ID            string
	ParentID      string
	PersonaID     string
	Editor        string
	TS            int64
	Text          string
	CommitMessage string
}

func (e TurnUpdated) Values() map[string]any {
	return map[string]any{
		"id":             e.ID,
		"parent_id":      e.ParentID,
		"persona_id":     e.PersonaID,
		"editor":         e.Editor,
		"ts":             strconv.FormatInt(e.TS, 10),
		"text":           e.Text,
		"commit_message": e.CommitMessage,
	}
}

type DiffReported struct {
	ID        string
	ParentID  string
	PersonaID string
	DiffHTML  string
	Grade     string
}

func (e DiffReported) Values() map[string]any {
	return map[string]any{
		"id":         e.ID,
		"parent_id":  e.ParentID,
		"persona_id": e.PersonaID,
		"diff_html":  e.DiffHTML,
		"grade":      e.Grade,
	}
}

// ParseTurnUpdated reads a stream entry. Missing optional fields decode to zero
// values; a missing text is an empty text.
func ParseTurnUpdated(values map[string]any) (TurnUpdated, error) {
	if err := checkRequired(NameTurnUpdated, values); err != nil {
		return TurnUpdated{}, err
	}
	e := TurnUpdated{
		ID:            str(values["id"]),
		ParentID:      str(values["parent_id"]),
		PersonaID:     str(values["persona_id"]),
		Editor:        str(values["editor"]),
		Text:          str(values["text"]),
		CommitMessage: str(values["commit_message"]),
	}
	if raw := strings.TrimSpace(str(values["ts"])); raw != "" {
		ts, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return TurnUpdated{}, fmt.Errorf("%w: %s: ts %q is not an integer", errs.ErrInvalidArgument, NameTurnUpdated, raw)
		}
		e.TS = ts
	}
	return e, nil
}

func checkRequired(name string, values map[string]any) error {
	c, err := LoadContract(name)
	if err != nil {
		return err
	}
	var missing []string
	for _, f := range c.Required() {
		if _, ok := values[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s: missing fields %s", errs.ErrInvalidArgument, name, strings.Join(missing, ", "))
	}
	return nil
}

func str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}
