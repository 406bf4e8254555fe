package catalog

import (
	"math"
	"strconv"
	"strings"
)

// KeyFunc derives a best-effort numeric sort hint from a catalog name.
type KeyFunc func(name string) int64

// OrderingKey keeps the ASCII digits of name, in order, and parses them as one
// number. Names without digits get 0 and values that overflow saturate at
// math.MaxInt64. "Mindfulness101" -> 101, "a1b2" -> 12, "Therapy" -> 0.
//
// The key is lossy and is not a uniqueness guarantee. Existing catalog data was
// written with this exact rule, so change it only behind a new KeyFunc.
func OrderingKey(name string) int64 {
	var b strings.Builder
	for i := 0; i < len(name); i++ {
		if c := name[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	if b.Len() == 0 {
		return 0
	}
	n, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		return math.MaxInt64
	}
	return n
}
