package ui

import (
	"ssot/internal/search"
)

// applySearch compiles q against the active pane's columns and jumps to the
// first match after the cursor.
func (m *Model) applySearch(q string) {
	p := m.cur()
	c := search.Parse(q, p.cols)
	if c.Empty() {
		m.searchEval = nil
		m.searchQuery = ""
		return
	}
	ev, err := search.NewEvaluator(c)
	if err != nil {
		m.lastMsg = "search: " + err.Error()
		return
	}
	m.searchEval = ev
	m.searchQuery = q
	m.searchStep(1)
}

func (m *Model) searchNext() { m.searchStep(1) }

func (m *Model) searchPrev() { m.searchStep(-1) }

func (m *Model) searchStep(dir int) {
	if m.searchEval == nil {
		return
	}
	p := m.cur()
	i := m.searchEval.Next(p.rows, m.tbl.Cursor(), dir)
	if i < 0 {
		m.lastMsg = "no match for " + m.searchQuery
		return
	}
	p.cursor = i
	m.tbl.SetCursor(i)
	m.lastMsg = ""
}
