package textdiff

import (
	"context"
	"strings"
	"testing"
)

func TestRenderMarksAdditionsAndRemovals(t *testing.T) {
	got := Render("old text", "new text")
	if !strings.Contains(got, `<span class="diff_add">`) {
		t.Fatalf("want addition marker, got=%q", got)
	}
	if !strings.Contains(got, `<span class="diff_sub">`) {
		t.Fatalf("want removal marker, got=%q", got)
	}
	if !strings.Contains(got, " text") {
		t.Fatalf("want unchanged text kept, got=%q", got)
	}
}

func TestRenderEscapesHTML(t *testing.T) {
	got := Render("", "<b>hi</b>\nthere")
	if strings.Contains(got, "<b>") {
		t.Fatalf("unescaped markup: got=%q", got)
	}
	if !strings.Contains(got, "&lt;b&gt;hi&lt;/b&gt;<br>there") {
		t.Fatalf("escaped text: got=%q", got)
	}
}

func TestRenderEmptyInputs(t *testing.T) {
	if got := Render("", ""); got != `<div class="diff"></div>` {
		t.Fatalf("empty diff: got=%q", got)
	}
}

func TestHTMLDifferHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := (HTMLDiffer{}).Diff(ctx, "a", "b"); err == nil {
		t.Fatalf("Diff: expected context error")
	}
	html, grade, err := (HTMLDiffer{}).Diff(context.Background(), "a", "ab")
	if err != nil || grade != "" || !strings.Contains(html, "diff_add") {
		t.Fatalf("Diff: html=%q grade=%q err=%v", html, grade, err)
	}
}
