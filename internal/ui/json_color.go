package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ssot/internal/model"
)

type jsonStyles struct {
	Key, String, Number, Punct lipgloss.Style
}

func newJSONStyles() jsonStyles {
	return jsonStyles{
		Key:    lipgloss.NewStyle().Foreground(lipgloss.Color("81")),
		String: lipgloss.NewStyle().Foreground(lipgloss.Color("150")),
		Number: lipgloss.NewStyle().Foreground(lipgloss.Color("215")),
		Punct:  lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
	}
}

// colorizeRecord renders r as an indented JSON object in column order.
// Cells that parse as numbers are coloured as numbers but stay quoted,
// since every cell is a string on the wire.
func colorizeRecord(r model.Record, st jsonStyles) string {
	var b strings.Builder
	cols := r.Columns()
	b.WriteString(st.Punct.Render("{"))
	if len(cols) > 0 {
		b.WriteString("\n")
	}
	for i, c := range cols {
		b.WriteString("  ")
		b.WriteString(st.Key.Render(`"` + escapeString(c) + `"`))
		b.WriteString(st.Punct.Render(": "))
		v := `"` + escapeString(r.Get(c)) + `"`
		if _, ok := parseNumber(r.Get(c)); ok {
			b.WriteString(st.Number.Render(v))
		} else {
			b.WriteString(st.String.Render(v))
		}
		if i < len(cols)-1 {
			b.WriteString(st.Punct.Render(","))
		}
		b.WriteString("\n")
	}
	b.WriteString(st.Punct.Render("}"))
	return b.String()
}

func escapeString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}
