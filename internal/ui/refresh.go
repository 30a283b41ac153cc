package ui

import (
	"github.com/charmbracelet/bubbles/table"

	"ssot/internal/model"
	"ssot/internal/source"
)

const (
	facetPanelWidth = 30
	maxColWidth     = 40
	widthSample     = 200
)

func (m *Model) cur() *pane { return m.panes[m.active] }

func (m *Model) paneFor(rt model.ResourceType) *pane {
	for _, p := range m.panes {
		if p.rt == rt {
			return p
		}
	}
	return nil
}

// setDataset replaces the pane's dataset wholesale and recomputes facets
// and rows.
func (p *pane) setDataset(ds model.Dataset) {
	p.ds = ds
	p.cols = ds.Columns()
	p.status = source.StatusReady
	p.err = nil
	p.engine.SetDataset(ds)
	p.recompute()
}

// recompute derives the displayed rows from the facet-visible set. Sorting
// reorders a copy; the dataset is never touched.
func (p *pane) recompute() {
	p.rows = sortRows(p.engine.Visible(), p.sortCol, p.sortDir)
	if p.cursor >= len(p.rows) {
		p.cursor = len(p.rows) - 1
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
	p.clampFacetCursor()
}

func (p *pane) clampFacetCursor() {
	if n := p.engine.Len(); p.facetIdx >= n {
		p.facetIdx = n - 1
	}
	if p.facetIdx < 0 {
		p.facetIdx = 0
		p.optIdx = 0
		return
	}
	if p.engine.Len() == 0 {
		p.optIdx = 0
		return
	}
	if n := len(p.engine.Options(p.facetIdx)); p.optIdx >= n {
		p.optIdx = n - 1
	}
	if p.optIdx < 0 {
		p.optIdx = 0
	}
}

func (m *Model) shownColumns(p *pane) []string {
	out := make([]string, 0, len(p.cols))
	for _, c := range p.cols {
		if !p.hidden[c] {
			out = append(out, c)
		}
	}
	return out
}

// selectedColumn is the column under the column cursor, or "".
func (m *Model) selectedColumn() string {
	p := m.cur()
	shown := m.shownColumns(p)
	if len(shown) == 0 {
		return ""
	}
	if p.selCol >= len(shown) {
		p.selCol = len(shown) - 1
	}
	return shown[p.selCol]
}

// selectedRecord is the record under the row cursor.
func (m *Model) selectedRecord() (model.Record, bool) {
	p := m.cur()
	i := m.tbl.Cursor()
	if i < 0 || i >= len(p.rows) {
		return model.Record{}, false
	}
	return p.rows[i], true
}

func (m *Model) tableWidth() int {
	w := m.termWidth
	if m.showFacets && m.cur().engine.Len() > 0 {
		w -= facetPanelWidth + 1
	}
	if w < 20 {
		w = 20
	}
	return w
}

func (m *Model) columnWidth(p *pane, c string) int {
	w := len([]rune(c)) + 2
	for i, r := range p.rows {
		if i >= widthSample {
			break
		}
		if n := len([]rune(formatCell(r.Get(c)))); n > w {
			w = n
		}
	}
	if w > maxColWidth {
		w = maxColWidth
	}
	return w
}

// window picks the shown columns that fit the table width, keeping the
// selected column in view.
func (m *Model) window(p *pane, shown []string) []string {
	if len(shown) == 0 {
		return nil
	}
	if p.selCol >= len(shown) {
		p.selCol = len(shown) - 1
	}
	if p.selCol < p.colOffset {
		p.colOffset = p.selCol
	}
	avail := m.tableWidth()
	fits := func(from int) int {
		used, n := 0, 0
		for i := from; i < len(shown); i++ {
			used += m.columnWidth(p, shown[i]) + 1
			if used > avail && n > 0 {
				break
			}
			n++
		}
		return n
	}
	for p.colOffset < p.selCol && p.colOffset+fits(p.colOffset) <= p.selCol {
		p.colOffset++
	}
	n := fits(p.colOffset)
	m.maxCols = n
	return shown[p.colOffset : p.colOffset+n]
}

// refresh pushes the active pane into the table widget.
func (m *Model) refresh() {
	p := m.cur()
	m.tbl.SetRows(nil)
	if p.status != source.StatusReady {
		m.tbl.SetColumns(nil)
		return
	}
	shown := m.shownColumns(p)
	win := m.window(p, shown)
	selName := ""
	if len(shown) > 0 {
		selName = shown[p.selCol]
	}
	cols := make([]table.Column, len(win))
	for i, c := range win {
		title := c
		if p.resolver.Governs(c) {
			title += "✎"
		}
		if c == p.sortCol {
			title += p.sortDir.arrow()
		}
		if c == selName {
			title = "▸" + title
		}
		cols[i] = table.Column{Title: title, Width: m.columnWidth(p, c)}
	}
	rows := make([]table.Row, len(p.rows))
	for i, r := range p.rows {
		row := make(table.Row, len(win))
		for j, c := range win {
			row[j] = formatCell(r.Get(c))
		}
		rows[i] = row
	}
	m.tbl.SetColumns(cols)
	m.tbl.SetRows(rows)
	m.tbl.SetWidth(m.tableWidth())
	if p.cursor < len(rows) {
		m.tbl.SetCursor(p.cursor)
	}
}

func (m *Model) resize() {
	h := m.termHeight - 4 // tabs, table header, sub-status, status
	if h < 3 {
		h = 3
	}
	m.tbl.SetHeight(h)
	m.refresh()
	if m.modalActive {
		m.resizeModal()
	}
}
