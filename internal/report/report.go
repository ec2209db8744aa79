package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/CZERTAINLY/wc/internal/count"
)

// Counter names as used in the configuration file
const (
	NameBytes = "bytes"
	NameLines = "lines"
	NameWords = "words"
	NameChars = "chars"
)

// Selection tells which counters are printed. The output order is fixed:
// bytes, lines, words, chars.
type Selection struct {
	Bytes bool
	Lines bool
	Words bool
	Chars bool
}

// DefaultSelection is used when no counter was requested. Characters are
// never printed by default.
var DefaultSelection = Selection{
	Bytes: true,
	Lines: true,
	Words: true,
}

func (s Selection) IsZero() bool {
	return s == Selection{}
}

// Resolve returns s, or defaults when nothing was selected.
func (s Selection) Resolve(defaults Selection) Selection {
	if s.IsZero() {
		return defaults
	}
	return s
}

// Names returns the selected counter names in output order.
func (s Selection) Names() []string {
	ret := make([]string, 0, 4)
	if s.Bytes {
		ret = append(ret, NameBytes)
	}
	if s.Lines {
		ret = append(ret, NameLines)
	}
	if s.Words {
		ret = append(ret, NameWords)
	}
	if s.Chars {
		ret = append(ret, NameChars)
	}
	return ret
}

// ParseSelection builds a Selection from counter names. Order and duplicates
// do not matter.
func ParseSelection(names []string) (Selection, error) {
	var ret Selection
	for _, name := range names {
		switch name {
		case NameBytes:
			ret.Bytes = true
		case NameLines:
			ret.Lines = true
		case NameWords:
			ret.Words = true
		case NameChars:
			ret.Chars = true
		default:
			return Selection{}, fmt.Errorf("unknown counter %q", name)
		}
	}
	return ret, nil
}

// Format renders the selected counters, each preceded by a single space,
// followed by the space prefixed filename when it is not empty.
// The line is not terminated.
func Format(c count.Counters, sel Selection, filename string) string {
	var b strings.Builder
	add := func(n uint64) {
		b.WriteByte(' ')
		b.WriteString(strconv.FormatUint(n, 10))
	}
	if sel.Bytes {
		add(c.Bytes)
	}
	if sel.Lines {
		add(c.Lines)
	}
	if sel.Words {
		add(c.Words)
	}
	if sel.Chars {
		add(c.Chars)
	}
	if filename != "" {
		b.WriteByte(' ')
		b.WriteString(filename)
	}
	return b.String()
}
