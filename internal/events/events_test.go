package events

import (
	"errors"
	"sort"
	"testing"

	errs "github.com/yungbote/scriptgraph/internal/pkg/errors"
)

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func TestContractsShape(t *testing.T) {
	cases := map[string][]string{
		NameDiffReported: {"id", "parent_id", "persona_id", "diff_html", "grade"},
		NameTurnUpdated:  {"id", "parent_id", "persona_id", "editor", "ts", "text", "commit_message"},
	}
	for name, want := range cases {
		c, err := LoadContract(name)
		if err != nil {
			t.Fatalf("LoadContract(%s): %v", name, err)
		}
		if c.Name != name {
			t.Fatalf("name: want=%q got=%q", name, c.Name)
		}
		for _, f := range want {
			if _, ok := c.Fields[f]; !ok {
				t.Fatalf("%s: missing field %q", name, f)
			}
		}
	}
}

func TestValuesCoverContracts(t *testing.T) {
	cases := map[string]map[string]any{
		NameDiffReported: DiffReported{}.Values(),
		NameTurnUpdated:  TurnUpdated{}.Values(),
	}
	for name, values := range cases {
		c, err := LoadContract(name)
		if err != nil {
			t.Fatalf("LoadContract: %v", err)
		}
		got := keys(values)
		var want []string
		for f := range c.Fields {
			want = append(want, f)
		}
		sort.Strings(want)
		if len(got) != len(want) {
			t.Fatalf("%s: want fields=%v got=%v", name, want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("%s: want fields=%v got=%v", name, want, got)
			}
		}
	}
}

func TestParseTurnUpdatedRoundTrip(t *testing.T) {
	in := TurnUpdated{ID: "5", ParentID: "4", PersonaID: "1", Editor: "alex", TS: 1735689600000, Text: "new text", CommitMessage: "tone"}
	got, err := ParseTurnUpdated(in.Values())
	if err != nil {
		t.Fatalf("ParseTurnUpdated: %v", err)
	}
	if got != in {
		t.Fatalf("want=%+v got=%+v", in, got)
	}
}

func TestParseTurnUpdatedMissingText(t *testing.T) {
	got, err := ParseTurnUpdated(map[string]any{"id": "6", "parent_id": "4", "persona_id": "1"})
	if err != nil {
		t.Fatalf("ParseTurnUpdated: %v", err)
	}
	if got.Text != "" || got.TS != 0 {
		t.Fatalf("zero values expected, got=%+v", got)
	}
}

func TestParseTurnUpdatedErrors(t *testing.T) {
	if _, err := ParseTurnUpdated(map[string]any{"id": "6"}); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("missing fields: want ErrInvalidArgument, got=%v", err)
	}
	_, err := ParseTurnUpdated(map[string]any{"id": "6", "parent_id": "4", "persona_id": "1", "ts": "yesterday"})
	if !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("bad ts: want ErrInvalidArgument, got=%v", err)
	}
}

func TestDiffReportedValuesSatisfyContract(t *testing.T) {
	in := DiffReported{ID: "5", ParentID: "4", PersonaID: "1", DiffHTML: "<table/>"}
	if err := checkRequired(NameDiffReported, in.Values()); err != nil {
		t.Fatalf("checkRequired: %v", err)
	}
	if err := checkRequired(NameDiffReported, map[string]any{"id": "5", "parent_id": "4", "persona_id": "1"}); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("missing diff_html: want ErrInvalidArgument, got=%v", err)
	}
}
