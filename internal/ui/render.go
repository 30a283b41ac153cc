package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"ssot/internal/search"
	"ssot/internal/source"
	"ssot/internal/util/logx"
)

func (m *Model) View() string {
	v := lipgloss.JoinVertical(lipgloss.Left, m.renderTabs(), m.renderMain(), m.renderBottom(), m.renderStatus())
	if m.modalActive {
		dimmed := lipgloss.NewStyle().Faint(true).Render(v)
		v = overlay(dimmed, m.renderModal())
	}
	return v
}

func (m *Model) renderTabs() string {
	parts := make([]string, len(m.panes))
	for i, p := range m.panes {
		label := p.rt.Title()
		switch p.status {
		case source.StatusLoading:
			label += " " + m.spin.View()
		case source.StatusFailed:
			label += " !"
		case source.StatusReady:
			label += fmt.Sprintf(" (%d)", len(p.rows))
		}
		if i == m.active {
			parts[i] = m.styles.TabActive.Render(label)
		} else {
			parts[i] = m.styles.TabInactive.Render(label)
		}
	}
	return strings.Join(parts, "  │  ")
}

func (m *Model) mainHeight() int {
	h := m.termHeight - 3
	if h < 3 {
		h = 3
	}
	return h
}

func (m *Model) renderMain() string {
	p := m.cur()
	h := m.mainHeight()
	place := func(s string) string {
		return lipgloss.Place(m.termWidth, h, lipgloss.Center, lipgloss.Center, s)
	}
	switch p.status {
	case source.StatusIdle, source.StatusLoading:
		return place(fmt.Sprintf("%s Loading %s…", m.spin.View(), p.rt.Title()))
	case source.StatusFailed:
		msg := "load failed"
		if p.err != nil {
			msg = loadError(p.err)
		}
		return place(m.styles.Error.Render("Could not load "+p.rt.Title()) + "\n\n" + msg + "\n\n" + m.styles.Help.Render("[r]=retry"))
	}
	tv := m.tbl.View()
	if len(p.rows) == 0 {
		note := "No rows match the current filters"
		if p.ds.Empty() {
			note = "Table is empty"
		}
		tv = lipgloss.JoinVertical(lipgloss.Left, tv, m.styles.Help.Render(note))
	}
	if m.showFacets && p.engine.Len() > 0 {
		return lipgloss.JoinHorizontal(lipgloss.Top, m.renderFacets(h-2), " ", tv)
	}
	return tv
}

func (m *Model) renderBottom() string {
	p := m.cur()
	switch m.inlineMode {
	case inlineSearch:
		if m.searchEditing {
			return "search: " + m.input.View() + "    [enter]=apply [esc]=quit mode"
		}
		return fmt.Sprintf("search: %s    [n/N]=next/prev [/]=edit [esc]=quit mode", m.searchQuery)
	case inlineExport:
		return "export to: " + m.input.View() + "    [enter]=write [esc]=cancel  (.csv or .ndjson)"
	}
	if p.status == source.StatusReady && p.engine.Len() > 0 {
		return m.styles.Help.Render("filters: " + p.engine.Summary())
	}
	return strings.Repeat(" ", max(m.termWidth, 0))
}

func (m *Model) renderStatus() string {
	p := m.cur()
	col := m.selectedColumn()
	hint := "[?]=help"
	if m.focus == focusFacets {
		hint = "[space]=toggle [a/A]=all/none [R]=reset [esc]=table"
	} else if p.resolver.Governs(col) {
		hint = "[enter]=edit " + hint
	}
	sortInfo := ""
	if p.sortDir != sortNone {
		sortInfo = fmt.Sprintf(" sort:%s%s", p.sortCol, p.sortDir.arrow())
	}
	busy := ""
	if m.submitting {
		busy = " saving…"
	} else if m.netBusy {
		busy = " " + m.spin.View()
	}
	row := 0
	if len(p.rows) > 0 {
		row = m.tbl.Cursor() + 1
	}
	status := fmt.Sprintf("[%s] row:%d/%d total:%d col:%s%s backend:%s%s | %s | %s",
		p.status, row, len(p.rows), p.ds.Len(), col, sortInfo, m.cfg.Backend, busy, hint, m.lastMsg)
	return m.styles.Status.Render(status)
}

func (m *Model) buildHelpItems() []helpItem {
	km := m.keymap
	return []helpItem{
		{group: "Tables", text: "Next table", key: km.NextTab},
		{group: "Tables", text: "Previous table", key: km.PrevTab},
		{group: "Tables", text: "Reload table", key: km.Reload},
		{group: "Navigation", text: "Go to top", key: km.Top},
		{group: "Navigation", text: "Go to bottom", key: km.Bottom},
		{group: "Facets", text: "Show/hide facet panel", key: km.Facets},
		{group: "Facets", text: "Focus facet panel", key: km.FocusFacets},
		{group: "Facets", text: "Toggle option", key: km.Toggle},
		{group: "Facets", text: "Select all options", key: km.SelectAll},
		{group: "Facets", text: "Deselect all options", key: km.DeselectAll},
		{group: "Facets", text: "Reset all facets", key: km.ResetFacets},
		{group: "Edit", text: "Edit selected cell", key: km.Edit},
		{group: "Edit", text: "Save edit", key: km.Submit},
		{group: "Columns", text: "Sort by column", key: km.Sort},
		{group: "Columns", text: "Hide column", key: km.Hide},
		{group: "Columns", text: "Show all columns", key: km.ShowAll},
		{group: "Columns", text: "Value counts", key: km.Counts},
		{group: "Search", text: "Search", key: km.Search},
		{group: "Search", text: "Search next", key: km.SearchNext},
		{group: "Search", text: "Search prev", key: km.SearchPrev},
		{group: "Views", text: "Inspector", key: km.Inspector},
		{group: "Views", text: "Application logs", key: km.AppLogs},
		{group: "Actions", text: "Copy cell", key: km.CopyCell},
		{group: "Actions", text: "Export visible rows", key: km.Export},
		{group: "AI", text: "Summarize visible rows (OpenAI)", key: km.Summarize},
		{group: "Control", text: "Help", key: km.Help},
		{group: "Control", text: "Quit", key: km.Quit},
	}
}

func (m *Model) renderHelp() string {
	var b strings.Builder
	group := ""
	for i, it := range m.helpItems {
		if it.group != group {
			if group != "" {
				b.WriteString("\n")
			}
			group = it.group
			b.WriteString(m.styles.PopupTitle.Render(group) + "\n")
		}
		line := fmt.Sprintf("  %-10s %s", keyLabel(it.key), it.text)
		if i == m.helpSel {
			line = m.styles.Cursor.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m *Model) openHelpModal() {
	m.helpItems = m.buildHelpItems()
	m.helpSel = 0
	m.modalActive = true
	m.modalKind = modalHelp
	m.modalTitle = "Help"
	m.resizeModal()
}

func (m *Model) openCountsModal() {
	col := m.selectedColumn()
	if col == "" {
		return
	}
	m.modalActive = true
	m.modalKind = modalCounts
	m.modalTitle = "Values: " + col
	m.resizeModal()
}

func (m *Model) openInspectorModal() {
	rec, ok := m.selectedRecord()
	if !ok {
		return
	}
	m.modalActive = true
	m.modalKind = modalInspector
	m.modalTitle = "Record"
	m.modalBody = colorizeRecord(rec, newJSONStyles())
	m.resizeModal()
}

func (m *Model) openAppLogsModal() {
	m.modalActive = true
	m.modalKind = modalLogs
	m.modalTitle = "Application Logs"
	m.modalBody = logx.Dump()
	m.resizeModal()
}

func (m *Model) resizeModal() {
	w := m.termWidth - 6
	h := m.termHeight - 6
	if w < 20 {
		w = 20
	}
	if h < 5 {
		h = 5
	}
	m.modalVP = viewport.New(w-4, h-4)
	switch m.modalKind {
	case modalHelp:
		m.modalVP.SetContent(m.renderHelp())
	case modalCounts:
		col := m.selectedColumn()
		m.modalBody = renderCounts(col, search.CountValues(m.cur().rows, col), w-8)
		m.modalVP.SetContent(m.modalBody)
	case modalEdit:
		m.renderEditor()
	default:
		m.modalVP.SetContent(m.modalBody)
	}
}

func (m *Model) renderModal() string {
	boxW := m.termWidth - 6
	if boxW < 20 {
		boxW = 20
	}
	if m.modalKind == modalAlert {
		body := m.styles.Error.Render(m.modalTitle) + "\n\n" + m.modalBody + "\n\n" + m.styles.Help.Render("[enter/esc]=dismiss")
		box := m.styles.AlertBox.Render(body)
		return lipgloss.Place(m.termWidth, m.termHeight, lipgloss.Center, lipgloss.Center, box)
	}
	var content string
	switch m.modalKind {
	case modalHelp:
		m.modalVP.SetContent(m.renderHelp())
		content = m.modalVP.View() + "\n[esc]=close  [enter]=run"
	case modalInspector, modalCounts:
		content = m.modalVP.View() + "\n[esc/enter]=close  [c]=copy"
	case modalEdit:
		hint := "[↑/↓]=field  [enter]=edit field  [ctrl+s]=save  [esc]=cancel"
		if m.editor != nil && m.editor.editing {
			hint = "[enter]=keep value  [esc]=discard value"
		}
		if m.submitting {
			hint = m.spin.View() + " saving…"
		}
		content = m.modalVP.View() + "\n" + hint
	case modalLogs:
		header := m.styles.Help.Render(fmt.Sprintf("backend: %s  %s", m.cfg.Backend, m.cur().engine.Summary()))
		content = header + "\n" + m.modalVP.View() + "\n[esc/enter]=close  [c]=copy"
	default:
		content = m.modalVP.View() + "\n[esc/enter]=close"
	}
	title := m.styles.PopupTitle.Render(m.modalTitle)
	body := m.styles.PopupBox.Width(boxW).Render(title + "\n" + content)
	return lipgloss.Place(m.termWidth, m.termHeight, lipgloss.Center, lipgloss.Center, body)
}
