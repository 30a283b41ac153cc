package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"ssot/internal/ai"
	"ssot/internal/source"
	"ssot/internal/util/logx"
)

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.termWidth, m.termHeight = msg.Width, msg.Height
		m.resize()
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case loadedMsg:
		p := m.paneFor(msg.rt)
		if p == nil {
			return m, nil
		}
		if msg.err != nil {
			p.status = source.StatusFailed
			p.err = msg.err
			logx.Errorf("load: %v", msg.err)
		} else {
			p.setDataset(msg.ds)
			p.loadedAt = msg.at
			logx.Infof("load: %s ready (%d rows, %d visible)", p.rt, msg.ds.Len(), len(p.rows))
		}
		if p == m.cur() {
			m.refresh()
		}
		return m, nil
	case submitDoneMsg:
		m.submitDone(msg)
		return m, nil
	case fileChangedMsg:
		p := m.paneFor(msg.rt)
		cmds := []tea.Cmd{waitChange(msg.rt, msg.ch)}
		// a table already loading will pick up the change
		if p != nil && p.status != source.StatusLoading {
			logx.Infof("follow: %s changed (+%d lines), reloading", msg.rt, msg.change.Lines)
			cmds = append(cmds, m.load(p, true))
		}
		return m, tea.Batch(cmds...)
	case summaryMsg:
		m.netBusy = false
		if msg.err != nil {
			m.lastMsg = "OpenAI: " + msg.err.Error()
			logx.Warnf("openai: %v", msg.err)
			return m, nil
		}
		m.modalActive = true
		m.modalKind = modalSummary
		m.modalTitle = "Summary: " + msg.rt.Title()
		m.modalBody = renderSummary(msg.sum)
		m.resizeModal()
		return m, nil
	case exportDoneMsg:
		if msg.err != nil {
			m.lastMsg = "export failed: " + msg.err.Error()
			logx.Errorf("export: %s: %v", msg.path, msg.err)
		} else {
			m.lastMsg = fmt.Sprintf("exported %d rows to %s", msg.rows, msg.path)
			logx.Infof("export: wrote %d rows to %s", msg.rows, msg.path)
		}
		return m, nil
	case toastMsg:
		m.lastMsg = msg.text
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		return tea.Quit
	}
	if m.modalActive {
		return m.handleModalKey(msg)
	}
	if m.inlineMode != inlineNone {
		if cmd, done := m.handleInlineKey(msg); done {
			return cmd
		}
	}
	if m.focus == focusFacets && m.updateFacets(msg) {
		return nil
	}

	p := m.cur()
	km := m.keymap
	switch {
	case keyMatches(msg, km.Quit):
		return tea.Quit
	case keyMatches(msg, km.NextTab):
		m.switchTab(1)
		return nil
	case keyMatches(msg, km.PrevTab):
		m.switchTab(-1)
		return nil
	case keyMatches(msg, km.Help):
		m.openHelpModal()
		return nil
	case keyMatches(msg, km.AppLogs):
		m.openAppLogsModal()
		return nil
	case keyMatches(msg, km.Reload):
		if p.status == source.StatusLoading {
			return nil
		}
		logx.Infof("reload: %s requested", p.rt)
		return m.load(p, true)
	}

	// everything below needs a loaded table
	if p.status != source.StatusReady {
		return nil
	}
	switch {
	case keyMatches(msg, km.Facets):
		m.showFacets = !m.showFacets
		if !m.showFacets {
			m.focus = focusTable
		}
		m.refresh()
		return nil
	case keyMatches(msg, km.FocusFacets):
		if p.engine.Len() > 0 {
			m.showFacets = true
			m.focus = focusFacets
			m.refresh()
		}
		return nil
	case keyMatches(msg, km.Edit):
		m.openEditor()
		return nil
	case keyMatches(msg, km.Inspector):
		m.openInspectorModal()
		return nil
	case keyMatches(msg, km.Counts):
		m.openCountsModal()
		return nil
	case keyMatches(msg, km.Sort):
		col := m.selectedColumn()
		if col == "" {
			return nil
		}
		if p.sortCol != col {
			p.sortCol, p.sortDir = col, sortAsc
		} else {
			p.sortDir = p.sortDir.next()
		}
		p.recompute()
		m.refresh()
		return nil
	case keyMatches(msg, km.Hide):
		shown := m.shownColumns(p)
		if len(shown) <= 1 {
			m.lastMsg = "cannot hide the last column"
			return nil
		}
		col := m.selectedColumn()
		p.hidden[col] = true
		m.lastMsg = "hid " + col
		m.refresh()
		return nil
	case keyMatches(msg, km.ShowAll):
		p.hidden = map[string]bool{}
		m.refresh()
		return nil
	case keyMatches(msg, km.Search):
		m.inlineMode = inlineSearch
		m.searchEditing = true
		m.input.Prompt = ""
		m.input.Placeholder = "text, /regex/, COL:text or = expr"
		m.input.SetValue(m.searchQuery)
		m.input.Focus()
		return nil
	case keyMatches(msg, km.SearchNext):
		m.searchNext()
		return nil
	case keyMatches(msg, km.SearchPrev):
		m.searchPrev()
		return nil
	case keyMatches(msg, km.Export):
		m.inlineMode = inlineExport
		m.input.Prompt = ""
		m.input.Placeholder = ""
		out := m.cfg.ExportOut
		if out == "" {
			out = string(p.rt) + ".csv"
		}
		m.input.SetValue(out)
		m.input.CursorEnd()
		m.input.Focus()
		return nil
	case keyMatches(msg, km.Summarize):
		if !m.ai.Enabled() {
			m.lastMsg = "OpenAI summaries need OPENAI_API_KEY and no --offline"
			return nil
		}
		if len(p.rows) == 0 {
			m.lastMsg = "nothing to summarize"
			return nil
		}
		m.netBusy = true
		m.lastMsg = "OpenAI: summarizing…"
		return m.summarize(p)
	case keyMatches(msg, km.CopyCell):
		if rec, ok := m.selectedRecord(); ok {
			copyToClipboard(rec.Get(m.selectedColumn()))
			m.lastMsg = "copied to clipboard"
		}
		return nil
	case keyMatches(msg, km.Top):
		m.tbl.GotoTop()
		p.cursor = m.tbl.Cursor()
		return nil
	case keyMatches(msg, km.Bottom):
		m.tbl.GotoBottom()
		p.cursor = m.tbl.Cursor()
		return nil
	case msg.Type == tea.KeyLeft:
		if p.selCol > 0 {
			p.selCol--
			m.refresh()
		}
		return nil
	case msg.Type == tea.KeyRight:
		if p.selCol+1 < len(m.shownColumns(p)) {
			p.selCol++
			m.refresh()
		}
		return nil
	}

	var cmd tea.Cmd
	m.tbl, cmd = m.tbl.Update(msg)
	p.cursor = m.tbl.Cursor()
	return cmd
}

func (m *Model) switchTab(step int) {
	m.active = (m.active + step + len(m.panes)) % len(m.panes)
	m.focus = focusTable
	m.inlineMode = inlineNone
	m.searchEval = nil
	m.searchQuery = ""
	m.refresh()
}

// handleInlineKey drives the bottom input line. done is false when the key
// should fall through to the table.
func (m *Model) handleInlineKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.Type {
	case tea.KeyEsc:
		if m.inlineMode == inlineSearch {
			m.searchEval = nil
			m.searchQuery = ""
		}
		m.inlineMode = inlineNone
		m.searchEditing = false
		m.input.Blur()
		return nil, true
	case tea.KeyEnter:
		q := strings.TrimSpace(m.input.Value())
		switch m.inlineMode {
		case inlineSearch:
			if !m.searchEditing {
				return nil, false
			}
			m.applySearch(q)
			m.searchEditing = false
			m.input.Blur()
		case inlineExport:
			m.inlineMode = inlineNone
			m.input.Blur()
			if q == "" {
				return nil, true
			}
			p := m.cur()
			if len(p.rows) == 0 {
				m.lastMsg = "nothing to export"
				return nil, true
			}
			return exportCmd(q, p.rows, m.shownColumns(p), m.cfg.Delim()), true
		}
		return nil, true
	}
	if m.inlineMode == inlineSearch && !m.searchEditing {
		if keyMatches(msg, m.keymap.Search) {
			m.searchEditing = true
			m.input.Focus()
			return nil, true
		}
		return nil, false
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd, true
}

func (m *Model) handleModalKey(msg tea.KeyMsg) tea.Cmd {
	switch m.modalKind {
	case modalAlert:
		if msg.Type == tea.KeyEnter || msg.Type == tea.KeyEsc {
			m.dismissAlert()
		}
		return nil
	case modalEdit:
		if m.editor == nil {
			m.modalActive = false
			return nil
		}
		return m.updateEditor(msg)
	case modalHelp:
		switch {
		case msg.Type == tea.KeyUp:
			if m.helpSel > 0 {
				m.helpSel--
			}
		case msg.Type == tea.KeyDown:
			if m.helpSel+1 < len(m.helpItems) {
				m.helpSel++
			}
		case msg.Type == tea.KeyEnter:
			m.modalActive = false
			if len(m.helpItems) > 0 {
				return keyCmd(m.helpItems[m.helpSel].key)
			}
		case msg.Type == tea.KeyEsc || keyMatches(msg, m.keymap.Quit) || keyMatches(msg, m.keymap.Help):
			m.modalActive = false
		}
		return nil
	}
	if msg.Type == tea.KeyEsc || msg.Type == tea.KeyEnter {
		m.modalActive = false
		m.modalKind = modalNone
		return nil
	}
	if keyMatches(msg, m.keymap.CopyCell) {
		copyToClipboard(m.modalBody)
		m.lastMsg = "copied to clipboard"
		return nil
	}
	var cmd tea.Cmd
	m.modalVP, cmd = m.modalVP.Update(msg)
	return cmd
}

func renderSummary(s ai.Summary) string {
	var b strings.Builder
	b.WriteString(s.Headline + "\n")
	if len(s.Highlights) > 0 {
		b.WriteString("\nHighlights:\n")
		for _, h := range s.Highlights {
			b.WriteString("  • " + h + "\n")
		}
	}
	if len(s.Anomalies) > 0 {
		b.WriteString("\nAnomalies:\n")
		for _, a := range s.Anomalies {
			b.WriteString("  • " + a + "\n")
		}
	}
	return b.String()
}

// loadError unwraps a load failure for display.
func loadError(err error) string {
	var lf *source.LoadFailure
	if errors.As(err, &lf) {
		return lf.Err.Error()
	}
	return err.Error()
}
