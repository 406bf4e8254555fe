package envutil

import (
	"testing"
	"time"
)

func TestString(t *testing.T) {
	t.Setenv("SG_TEST_STRING", "  neo4j://db:7687 ")
	if got := String("SG_TEST_STRING", "x"); got != "neo4j://db:7687" {
		t.Fatalf("String: want=%q got=%q", "neo4j://db:7687", got)
	}
	t.Setenv("SG_TEST_STRING", "")
	if got := String("SG_TEST_STRING", "x"); got != "x" {
		t.Fatalf("String default: want=%q got=%q", "x", got)
	}
}

func TestIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("SG_TEST_INT", "ten")
	if got := Int("SG_TEST_INT", 10); got != 10 {
		t.Fatalf("Int: want=%d got=%d", 10, got)
	}
	t.Setenv("SG_TEST_INT", "-3")
	if got := PositiveInt("SG_TEST_INT", 7); got != 7 {
		t.Fatalf("PositiveInt: want=%d got=%d", 7, got)
	}
}

func TestBool(t *testing.T) {
	cases := map[string]bool{"1": true, "on": true, "FALSE": false, "no": false, "maybe": true, "": true}
	for raw, want := range cases {
		t.Setenv("SG_TEST_BOOL", raw)
		if got := Bool("SG_TEST_BOOL", true); got != want {
			t.Fatalf("Bool(%q): want=%v got=%v", raw, want, got)
		}
	}
}

func TestSeconds(t *testing.T) {
	t.Setenv("SG_TEST_SECONDS", "3")
	if got := Seconds("SG_TEST_SECONDS", time.Second); got != 3*time.Second {
		t.Fatalf("Seconds: want=%v got=%v", 3*time.Second, got)
	}
	t.Setenv("SG_TEST_SECONDS", "0")
	if got := Seconds("SG_TEST_SECONDS", time.Second); got != time.Second {
		t.Fatalf("Seconds default: want=%v got=%v", time.Second, got)
	}
}
