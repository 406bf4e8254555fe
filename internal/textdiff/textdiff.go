// Package textdiff renders word-level text differences as HTML fragments for
// script.turn.diff_reported events.
package textdiff

import (
	"context"
	"html"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	ClassAdd = "diff_add"
	ClassSub = "diff_sub"
)

// HTMLDiffer marks inserted text with <span class="diff_add"> and removed text
// with <span class="diff_sub">. Unchanged text is copied through escaped. It
// does not grade edits.
type HTMLDiffer struct{}

func (HTMLDiffer) Diff(ctx context.Context, before, after string) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	return Render(before, after), "", nil
}

// Render diffs before against after and returns the HTML fragment.
func Render(before, after string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(before, after, false))

	var b strings.Builder
	b.WriteString(`<div class="diff">`)
	for _, d := range diffs {
		text := strings.ReplaceAll(html.EscapeString(d.Text), "\n", "<br>")
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			b.WriteString(`<span class="` + ClassAdd + `">` + text + `</span>`)
		case diffmatchpatch.DiffDelete:
			b.WriteString(`<span class="` + ClassSub + `">` + text + `</span>`)
		default:
			b.WriteString(text)
		}
	}
	b.WriteString(`</div>`)
	return b.String()
}
