package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"ssot/internal/edit"
	"ssot/internal/mutate"
	"ssot/internal/source"
	"ssot/internal/util/logx"
)

// editor is the modal around one open edit session.
type editor struct {
	sess    *edit.Session
	fields  []string
	sel     int
	editing bool
	input   textinput.Model
	err     string
}

func newEditor(s *edit.Session) *editor {
	in := textinput.New()
	in.Prompt = "> "
	in.CharLimit = 1024
	ed := &editor{sess: s, fields: s.Fields(), input: in}
	// start on the first editable field
	for i, f := range ed.fields {
		if s.Editable(f) {
			ed.sel = i
			break
		}
	}
	return ed
}

func (ed *editor) field() string {
	if ed.sel < 0 || ed.sel >= len(ed.fields) {
		return ""
	}
	return ed.fields[ed.sel]
}

// openEditor resolves the selected cell's column to an edit scope. A
// column that governs nothing opens the inspector instead.
func (m *Model) openEditor() {
	p := m.cur()
	rec, ok := m.selectedRecord()
	if !ok {
		return
	}
	col := m.selectedColumn()
	s, ok := p.resolver.Resolve(col, rec)
	if !ok {
		m.openInspectorModal()
		return
	}
	m.editor = newEditor(s)
	m.modalActive = true
	m.modalKind = modalEdit
	m.modalTitle = fmt.Sprintf("Edit %s · %s", p.rt.Title(), col)
	m.renderEditor()
	logx.Infof("edit: open %s %s keys=%v", p.rt, s.Scope, s.KeyValues())
}

func (m *Model) closeEditor() {
	if m.editor != nil {
		m.editor.sess.Close()
	}
	m.editor = nil
	m.modalActive = false
	m.modalKind = modalNone
}

func (m *Model) updateEditor(msg tea.KeyMsg) tea.Cmd {
	ed := m.editor
	if m.submitting {
		// the save control stays disabled until the submit settles
		return nil
	}
	if ed.editing {
		switch msg.Type {
		case tea.KeyEnter:
			if err := ed.sess.Set(ed.field(), ed.input.Value()); err != nil {
				ed.err = err.Error()
			} else {
				ed.err = ""
			}
			ed.editing = false
			ed.input.Blur()
		case tea.KeyEsc:
			ed.editing = false
			ed.input.Blur()
		default:
			var cmd tea.Cmd
			ed.input, cmd = ed.input.Update(msg)
			m.renderEditor()
			return cmd
		}
		m.renderEditor()
		return nil
	}
	switch {
	case msg.Type == tea.KeyEsc:
		logx.Infof("edit: cancelled %s %s", ed.sess.Resource, ed.sess.Scope)
		m.closeEditor()
		return nil
	case msg.Type == tea.KeyUp:
		if ed.sel > 0 {
			ed.sel--
		}
	case msg.Type == tea.KeyDown:
		if ed.sel+1 < len(ed.fields) {
			ed.sel++
		}
	case msg.Type == tea.KeyEnter:
		f := ed.field()
		if !ed.sess.Editable(f) {
			ed.err = f + " is read-only"
			break
		}
		ed.err = ""
		ed.editing = true
		ed.input.SetValue(ed.sess.Get(f))
		ed.input.CursorEnd()
		ed.input.Focus()
	case keyMatches(msg, m.keymap.Submit):
		ed.err = ""
		m.renderEditor()
		return m.submit(ed.sess)
	}
	m.renderEditor()
	return nil
}

// submitDone applies the outcome of a submit. A failed update keeps the
// editor open under an alert; a failed reload leaves the table in its error
// state.
func (m *Model) submitDone(msg submitDoneMsg) {
	m.submitting = false
	alerts := m.alerts.drain()
	p := m.paneFor(msg.rt)
	var uf *source.UpdateFailure
	var lf *source.LoadFailure
	switch {
	case msg.err == nil:
		p.setDataset(msg.ds)
		m.lastMsg = fmt.Sprintf("saved; %s reloaded (%d rows)", p.rt, msg.ds.Len())
		// facet selections survive the reload, so an edit to a facet column
		// can move the row out of view
		if m.editor != nil && !p.showsKeys(m.editor.sess.KeyColumns, m.editor.sess.KeyValues()) {
			m.lastMsg = fmt.Sprintf("saved; the edited %s row is hidden by the current filters", p.rt)
			logx.Infof("edit: %s keys=%v saved but filtered out", p.rt, m.editor.sess.KeyValues())
		}
		m.closeEditor()
	case errors.As(msg.err, &uf):
		if m.editor != nil {
			m.editor.err = uf.Err.Error()
			m.renderEditor()
		}
		text := mutate.FailureMessage
		if len(alerts) > 0 {
			text = strings.Join(alerts, "\n")
		}
		m.openAlert(text, uf.Err.Error())
	case errors.As(msg.err, &lf):
		m.closeEditor()
		p.status = source.StatusFailed
		p.err = lf
		m.lastMsg = "saved, but reload failed"
	default:
		m.lastMsg = msg.err.Error()
	}
	m.refresh()
}

// showsKeys reports whether a displayed row carries vals in cols.
func (p *pane) showsKeys(cols, vals []string) bool {
	for _, r := range p.rows {
		match := true
		for i, c := range cols {
			if r.Get(c) != vals[i] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func (m *Model) renderEditor() {
	ed := m.editor
	if ed == nil {
		return
	}
	s := ed.sess
	var b strings.Builder
	keys := make([]string, len(s.KeyColumns))
	for i, k := range s.KeyColumns {
		keys[i] = k + "=" + s.Get(k)
	}
	fmt.Fprintf(&b, "scope: %s   key: %s\n\n", s.Scope, strings.Join(keys, ", "))
	w := 0
	for _, f := range ed.fields {
		if n := runeLen(f); n > w {
			w = n
		}
	}
	orig := s.Original()
	for i, f := range ed.fields {
		val := formatCell(s.Get(f))
		if i == ed.sel && ed.editing {
			val = ed.input.View()
		}
		line := padRight(f, w) + "  " + val
		switch {
		case s.ReadOnly(f):
			line = m.styles.ReadOnly.Render(line + "  (read-only)")
		case s.Get(f) != orig.Get(f):
			line = m.styles.Dirty.Render(line + "  *")
		}
		marker := "  "
		if i == ed.sel {
			marker = "▸ "
		}
		b.WriteString(marker + line + "\n")
	}
	if ed.err != "" {
		b.WriteString("\n" + m.styles.Error.Render(ed.err) + "\n")
	}
	m.modalBody = b.String()
	m.modalVP.SetContent(m.modalBody)
}

func (m *Model) openAlert(title, detail string) {
	m.modalBelow = m.modalKind
	m.modalActive = true
	m.modalKind = modalAlert
	m.modalTitle = title
	m.modalBody = detail
}

func (m *Model) dismissAlert() {
	m.modalKind = m.modalBelow
	m.modalBelow = modalNone
	if m.modalKind == modalNone {
		m.modalActive = false
		return
	}
	if m.modalKind == modalEdit {
		m.renderEditor()
	}
}
