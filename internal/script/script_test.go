package script

import (
	"errors"
	"strings"
	"testing"

	errs "github.com/yungbote/scriptgraph/internal/pkg/errors"
)

func TestParseValidScript(t *testing.T) {
	turns, err := Parse([]byte(`[
		{"role":"system","text":"Welcome"},
		{"role":"user","text":"Hi","seq":2,"speaker":"Alex"},
		{"role":"assistant","text":"","seq":null}
	]`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []Turn{{"system", "Welcome"}, {"user", "Hi"}, {"assistant", ""}}
	if len(turns) != len(want) {
		t.Fatalf("len: want=%d got=%d", len(want), len(turns))
	}
	for i := range want {
		if turns[i] != want[i] {
			t.Fatalf("turn %d: want=%+v got=%+v", i, want[i], turns[i])
		}
	}
}

func TestParseEmptyArray(t *testing.T) {
	turns, err := Parse([]byte(`[]`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(turns) != 0 {
		t.Fatalf("len: want=0 got=%d", len(turns))
	}
}

func TestParseReportsFailingRecord(t *testing.T) {
	cases := []struct {
		name  string
		in    string
		index int
		field string
	}{
		{"missing text", `[{"role":"system","text":"a"},{"role":"user"}]`, 1, FieldText},
		{"missing role", `[{"text":"a"}]`, 0, FieldRole},
		{"role not string", `[{"role":1,"text":"a"}]`, 0, FieldRole},
		{"text null", `[{"role":"user","text":null}]`, 0, FieldText},
		{"text object", `[{"role":"user","text":{"a":1}}]`, 0, FieldText},
		{"seq string", `[{"role":"user","text":"a","seq":"3"}]`, 0, FieldSeq},
		{"seq fraction", `[{"role":"user","text":"a","seq":1.5}]`, 0, FieldSeq},
		{"record not object", `[{"role":"user","text":"a"}, "hello"]`, 1, ""},
		{"record null", `[null]`, 0, ""},
		{"not json", `{{{`, -1, ""},
		{"object payload", `{"role":"user","text":"a"}`, -1, ""},
		{"null payload", `null`, -1, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			turns, err := Parse([]byte(tc.in))
			if turns != nil {
				t.Fatalf("turns: want nil on failure, got=%v", turns)
			}
			if !errors.Is(err, errs.ErrTurnSchema) {
				t.Fatalf("want ErrTurnSchema, got=%v", err)
			}
			var se *TurnSchemaError
			if !errors.As(err, &se) {
				t.Fatalf("want *TurnSchemaError, got=%T", err)
			}
			if se.Index != tc.index || se.Field != tc.field {
				t.Fatalf("want index=%d field=%q, got index=%d field=%q", tc.index, tc.field, se.Index, se.Field)
			}
			if !errs.IsInputError(err) {
				t.Fatalf("schema error must be an input error")
			}
		})
	}
}

func TestTurnSchemaErrorMessage(t *testing.T) {
	_, err := Parse([]byte(`[{"role":"user"}]`))
	if err == nil || !strings.Contains(err.Error(), `turn 0: field "text"`) {
		t.Fatalf("message: got=%v", err)
	}
}

func TestDecode(t *testing.T) {
	turns, err := Decode(strings.NewReader(`[{"role":"system","text":"x"}]`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(turns) != 1 || turns[0].Role != "system" {
		t.Fatalf("Decode: got=%+v", turns)
	}
}
