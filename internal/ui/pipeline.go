package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"ssot/internal/ai"
	"ssot/internal/edit"
	"ssot/internal/export"
	"ssot/internal/ingest"
	"ssot/internal/model"
	"ssot/internal/source"
	"ssot/internal/util/logx"
)

type loadedMsg struct {
	rt     model.ResourceType
	ds     model.Dataset
	err    error
	reload bool
	at     time.Time
}

type submitDoneMsg struct {
	rt  model.ResourceType
	ds  model.Dataset
	err error
}

type summaryMsg struct {
	rt  model.ResourceType
	sum ai.Summary
	err error
}

type fileChangedMsg struct {
	rt     model.ResourceType
	change ingest.Change
	ch     <-chan ingest.Change
}

type exportDoneMsg struct {
	path string
	rows int
	err  error
}

type toastMsg struct{ text string }

// alertQueue is the Notifier handed to the coordinator. Alerts raised while
// a submit runs are shown when its result arrives.
type alertQueue struct{ ch chan string }

func newAlertQueue() *alertQueue { return &alertQueue{ch: make(chan string, 8)} }

func (q *alertQueue) Alert(msg string) {
	select {
	case q.ch <- msg:
	default:
		logx.Warnf("alert dropped: %s", msg)
	}
}

func (q *alertQueue) drain() []string {
	var out []string
	for {
		select {
		case s := <-q.ch:
			out = append(out, s)
		default:
			return out
		}
	}
}

// load marks the pane loading and fetches its table. reload skips any
// snapshot.
func (m *Model) load(p *pane, reload bool) tea.Cmd {
	p.status = source.StatusLoading
	p.err = nil
	ctx, rt := m.ctx, p.rt
	fetch := m.fetcher.Fetch
	if reload {
		fetch = m.reloader.Reload
	}
	return func() tea.Msg {
		ds, err := fetch(ctx, rt)
		if err != nil {
			err = &source.LoadFailure{Resource: rt, Err: err}
		}
		return loadedMsg{rt: rt, ds: ds, err: err, reload: reload, at: time.Now()}
	}
}

func (m *Model) submit(s *edit.Session) tea.Cmd {
	m.submitting = true
	ctx, coord := m.ctx, m.coord
	return func() tea.Msg {
		ds, err := coord.Submit(ctx, s)
		return submitDoneMsg{rt: s.Resource, ds: ds, err: err}
	}
}

func (m *Model) summarize(p *pane) tea.Cmd {
	client := m.ai
	req := ai.Request{
		Resource: p.rt,
		Filters:  p.engine.Summary(),
		Columns:  m.shownColumns(p),
		Rows:     model.NewDataset(p.rows),
	}
	ctx := m.ctx
	return func() tea.Msg {
		sum, err := client.Summarize(ctx, req)
		return summaryMsg{rt: req.Resource, sum: sum, err: err}
	}
}

func waitChange(rt model.ResourceType, ch <-chan ingest.Change) tea.Cmd {
	return func() tea.Msg {
		c, ok := <-ch
		if !ok {
			return nil
		}
		return fileChangedMsg{rt: rt, change: c, ch: ch}
	}
}

func exportCmd(path string, rows []model.Record, cols []string, delim rune) tea.Cmd {
	ds := model.NewDataset(rows)
	return func() tea.Msg {
		err := export.ToFile(path, ds, cols, delim)
		return exportDoneMsg{path: path, rows: ds.Len(), err: err}
	}
}
