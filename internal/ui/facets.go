package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"ssot/internal/source"
	"ssot/internal/util/logx"
)

// updateFacets handles keys while the facet panel has focus. It reports
// whether the key was consumed. Nothing is consumed while the table loads.
func (m *Model) updateFacets(msg tea.KeyMsg) bool {
	p := m.cur()
	e := p.engine
	if e.Len() == 0 {
		m.focus = focusTable
		return false
	}
	if p.status != source.StatusReady {
		return false
	}
	opts := e.Options(p.facetIdx)
	changed := false
	switch {
	case msg.Type == tea.KeyEsc || keyMatches(msg, m.keymap.FocusFacets):
		m.focus = focusTable
		return true
	case msg.Type == tea.KeyUp:
		if p.optIdx > 0 {
			p.optIdx--
		}
	case msg.Type == tea.KeyDown:
		if p.optIdx+1 < len(opts) {
			p.optIdx++
		}
	case msg.Type == tea.KeyLeft:
		if p.facetIdx > 0 {
			p.facetIdx--
			p.optIdx = 0
		}
	case msg.Type == tea.KeyRight:
		if p.facetIdx+1 < e.Len() {
			p.facetIdx++
			p.optIdx = 0
		}
	case keyMatches(msg, m.keymap.Toggle) || msg.Type == tea.KeySpace:
		if p.optIdx < len(opts) {
			v := opts[p.optIdx]
			if err := e.Toggle(p.facetIdx, v, !e.IsSelected(p.facetIdx, v)); err != nil {
				m.lastMsg = err.Error()
				return true
			}
			changed = true
		}
	case keyMatches(msg, m.keymap.SelectAll):
		e.SelectAll(p.facetIdx)
		changed = true
	case keyMatches(msg, m.keymap.DeselectAll):
		e.DeselectAll(p.facetIdx)
		changed = true
	case keyMatches(msg, m.keymap.ResetFacets):
		e.Reset()
		changed = true
	default:
		return false
	}
	if changed {
		p.recompute()
		m.refresh()
		logx.Debugf("facets: %s %s -> %d rows", p.rt, e.Summary(), len(p.rows))
	}
	p.clampFacetCursor()
	return true
}

// renderFacets draws the facet panel for the active pane in at most height
// lines.
func (m *Model) renderFacets(height int) string {
	p := m.cur()
	e := p.engine
	inner := facetPanelWidth - 4
	var lines []string
	for i, f := range e.Facets() {
		opts := e.Options(i)
		sel := len(e.Selected(i))
		head := fmt.Sprintf("%s %d/%d", f.Name, sel, len(opts))
		if e.AllSelected(i) && len(opts) > 0 {
			head = f.Name + " (all)"
		}
		head = truncateRunes(head, inner)
		if i != p.facetIdx {
			lines = append(lines, m.styles.Help.Render("▹ "+head))
			continue
		}
		lines = append(lines, m.styles.TabActive.Render("▾ "+head))
		if len(opts) == 0 {
			lines = append(lines, m.styles.Muted.Render("  (no options)"))
			continue
		}
		room := height - e.Len() - 1
		if room < 3 {
			room = 3
		}
		start := 0
		if p.optIdx >= room {
			start = p.optIdx - room + 1
		}
		for j := start; j < len(opts) && j < start+room; j++ {
			box := "[ ]"
			if e.IsSelected(i, opts[j]) {
				box = "[x]"
			}
			line := truncateRunes(box+" "+opts[j], inner-2)
			if j == p.optIdx && m.focus == focusFacets {
				line = m.styles.Cursor.Render(line)
			}
			lines = append(lines, "  "+line)
		}
	}
	if len(lines) > height && height > 0 {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	box := m.styles.Panel
	if m.focus == focusFacets {
		box = m.styles.PanelFocus
	}
	return box.Width(facetPanelWidth - 2).Render(strings.Join(lines, "\n"))
}
