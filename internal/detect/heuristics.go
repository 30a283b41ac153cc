package detect

import (
	"strings"
)

type Format string

const (
	FormatDelimited Format = "delimited"
	FormatJSON      Format = "json"   // one document: {"data":[...]} or [...]
	FormatNDJSON    Format = "ndjson" // one object per line
	FormatUnknown   Format = "unknown"
)

// Candidates are tried in this order; ties go to the earlier one.
var Candidates = []rune{',', ';', '\t', '|'}

type Guess struct {
	Format     Format
	Delimiter  rune
	Confidence float64
}

// Heuristics inspects the first lines of a table file. For delimited text it
// picks the candidate whose per-line count is non-zero and most consistent
// with the header line.
func Heuristics(sample []string) Guess {
	lines := []string{}
	for _, l := range sample {
		if s := strings.TrimSpace(l); s != "" {
			lines = append(lines, s)
		}
	}
	if len(lines) == 0 {
		return Guess{Format: FormatUnknown}
	}
	first := lines[0]
	if strings.HasPrefix(first, "[") || (strings.HasPrefix(first, "{") && !strings.HasSuffix(first, "}")) {
		return Guess{Format: FormatJSON, Confidence: 0.9}
	}
	objCount := 0
	for _, l := range lines {
		if strings.HasPrefix(l, "{") && strings.HasSuffix(l, "}") {
			objCount++
		}
	}
	if objCount == len(lines) {
		if len(lines) == 1 && strings.Contains(first, `"data"`) {
			return Guess{Format: FormatJSON, Confidence: 0.8}
		}
		return Guess{Format: FormatNDJSON, Confidence: conf(len(lines), objCount)}
	}

	best := Guess{Format: FormatDelimited, Delimiter: ','}
	for _, d := range Candidates {
		want := countOutsideQuotes(first, d)
		if want == 0 {
			continue
		}
		hits := 0
		for _, l := range lines {
			if countOutsideQuotes(l, d) == want {
				hits++
			}
		}
		c := conf(len(lines), hits)
		if c > best.Confidence {
			best = Guess{Format: FormatDelimited, Delimiter: d, Confidence: c}
		}
	}
	return best
}

func conf(lines, hits int) float64 {
	if lines == 0 {
		return 0
	}
	return float64(hits) / float64(lines)
}

func countOutsideQuotes(s string, d rune) int {
	n := 0
	quoted := false
	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
		case r == d && !quoted:
			n++
		}
	}
	return n
}

// ParseDelimiter accepts a single character or one of the names comma,
// semicolon, tab, pipe.
func ParseDelimiter(s string) (rune, bool) {
	switch strings.ToLower(s) {
	case "", "auto":
		return 0, true
	case "comma":
		return ',', true
	case "semicolon":
		return ';', true
	case "tab", `\t`:
		return '\t', true
	case "pipe":
		return '|', true
	}
	r := []rune(s)
	if len(r) == 1 && r[0] != '"' && r[0] != '\n' && r[0] != '\r' {
		return r[0], true
	}
	return 0, false
}
