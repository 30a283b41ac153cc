package ui

import (
	"encoding/base64"
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"

	"ssot/internal/search"
)

func overlay(base, top string) string {
	bLines := strings.Split(base, "\n")
	oLines := strings.Split(top, "\n")
	n := len(bLines)
	if len(oLines) > n {
		n = len(oLines)
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		var b, o string
		if i < len(bLines) {
			b = bLines[i]
		}
		if i < len(oLines) {
			o = oLines[i]
		}
		// whitespace-only overlay lines are transparent
		if strings.TrimSpace(o) != "" {
			out[i] = o
		} else {
			out[i] = b
		}
	}
	return strings.Join(out, "\n")
}

// copyToClipboard copies text with OSC52, which most terminals honour.
func copyToClipboard(s string) {
	s = stripANSI(s)
	payload := fmt.Sprintf("\x1b]52;c;%s\x07", base64.StdEncoding.EncodeToString([]byte(s)))
	if f, err := os.OpenFile("/dev/tty", os.O_WRONLY, 0); err == nil {
		defer f.Close()
		_, _ = f.WriteString(payload)
		return
	}
	fmt.Fprint(os.Stdout, payload)
}

var ansiRE = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]`)

func stripANSI(s string) string {
	return ansiRE.ReplaceAllString(s, "")
}

// renderCounts draws value counts as labelled bars in width columns.
func renderCounts(col string, counts []search.ValueCount, width int) string {
	if len(counts) == 0 {
		return "No data"
	}
	if width < 30 {
		width = 30
	}
	labelW := width / 2
	barW := width - labelW - 8
	maxc := counts[0].Count
	total := 0
	for _, c := range counts {
		total += c.Count
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d distinct, %d rows\n\n", col, len(counts), total)
	for _, c := range counts {
		label := padRight(truncateRunes(formatCell(c.Value), labelW-1), labelW)
		n := int(math.Round(float64(barW) * float64(c.Count) / float64(maxc)))
		fmt.Fprintf(&b, "%s%s %d\n", label, colorBar(n, float64(c.Count), float64(maxc)), c.Count)
	}
	return b.String()
}

// colorBar returns a bar shading from yellow to red as val nears max.
func colorBar(width int, val, max float64) string {
	if width <= 0 {
		return ""
	}
	r := 0.0
	if max > 0 {
		r = val / max
	}
	color := 226 - int(r*30)
	if color < 196 {
		color = 196
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", color, strings.Repeat("▇", width))
}

func runeLen(s string) int { return len([]rune(s)) }

func padRight(s string, w int) string {
	rs := []rune(s)
	if len(rs) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(rs))
}

func truncateRunes(s string, w int) string {
	if w <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= w {
		return s
	}
	if w == 1 {
		return "…"
	}
	return string(rs[:w-1]) + "…"
}
