// Package catalog turns a script file path into Program/Module/Day/Persona
// coordinates. Only the path is inspected, never the file contents.
package catalog

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	errs "github.com/yungbote/scriptgraph/internal/pkg/errors"
)

const (
	// ScriptExt is the extension every persona script file carries.
	ScriptExt = ".json"

	modulePrefix = "Module"
	dayPrefix    = "Day"
)

// Coordinates locate a script in the catalog hierarchy.
type Coordinates struct {
	Program    string
	ProgramKey int64
	Module     int64
	Day        int64
	Persona    string
	PersonaKey int64
}

// ModuleKey and DayKey are the ordering keys of the numeric catalog levels. They
// always equal the ids.
func (c Coordinates) ModuleKey() int64 { return c.Module }
func (c Coordinates) DayKey() int64    { return c.Day }

type PathFormatError struct {
	Path    string
	Segment string
	Reason  string
}

func (e *PathFormatError) Error() string {
	if e == nil {
		return "invalid script path"
	}
	if e.Segment != "" {
		return fmt.Sprintf("invalid script path %q: segment %q: %s", e.Path, e.Segment, e.Reason)
	}
	return fmt.Sprintf("invalid script path %q: %s", e.Path, e.Reason)
}

func (e *PathFormatError) Is(target error) bool { return target == errs.ErrPathFormat }

// Parser parses script paths. The zero value uses OrderingKey.
type Parser struct {
	Key KeyFunc
}

// ParsePath parses p with the default ordering key rule.
func ParsePath(p string) (Coordinates, error) {
	return Parser{}.Parse(p)
}

// Parse reads the last four segments of p as
// <Program>/Module<digits>/Day<digits>/<Persona>.json. Leading segments are
// ignored. Pure: no filesystem access.
func (ps Parser) Parse(p string) (Coordinates, error) {
	key := ps.Key
	if key == nil {
		key = OrderingKey
	}

	segs := segments(p)
	if len(segs) < 4 {
		return Coordinates{}, &PathFormatError{
			Path:   p,
			Reason: fmt.Sprintf("want at least 4 segments <Program>/<Module##>/<Day##>/<persona>%s, got %d", ScriptExt, len(segs)),
		}
	}
	segs = segs[len(segs)-4:]
	program, moduleSeg, daySeg, file := segs[0], segs[1], segs[2], segs[3]

	module, err := numberedSegment(p, moduleSeg, modulePrefix)
	if err != nil {
		return Coordinates{}, err
	}
	day, err := numberedSegment(p, daySeg, dayPrefix)
	if err != nil {
		return Coordinates{}, err
	}

	if !strings.HasSuffix(file, ScriptExt) {
		return Coordinates{}, &PathFormatError{Path: p, Segment: file, Reason: "persona file must have a " + ScriptExt + " extension"}
	}
	persona := strings.TrimSuffix(file, ScriptExt)
	if persona == "" {
		return Coordinates{}, &PathFormatError{Path: p, Segment: file, Reason: "persona name is empty"}
	}

	return Coordinates{
		Program:    program,
		ProgramKey: key(program),
		Module:     module,
		Day:        day,
		Persona:    persona,
		PersonaKey: key(persona),
	}, nil
}

// segments splits p on the OS separator and drops empty and "." parts, so the
// filesystem root never counts as a segment.
func segments(p string) []string {
	p = filepath.ToSlash(p)
	raw := strings.Split(p, "/")
	out := raw[:0]
	for _, s := range raw {
		if s == "" || s == "." {
			continue
		}
		out = append(out, s)
	}
	return out
}

func numberedSegment(path, seg, prefix string) (int64, error) {
	want := fmt.Sprintf("folder name in the form '%s##'", prefix)
	if !strings.HasPrefix(seg, prefix) {
		return 0, &PathFormatError{Path: path, Segment: seg, Reason: "expected " + want}
	}
	digits := seg[len(prefix):]
	if digits == "" {
		return 0, &PathFormatError{Path: path, Segment: seg, Reason: "expected " + want + ", missing number"}
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, &PathFormatError{Path: path, Segment: seg, Reason: "expected " + want + ", suffix is not all digits"}
		}
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, &PathFormatError{Path: path, Segment: seg, Reason: "number out of range"}
	}
	return n, nil
}
