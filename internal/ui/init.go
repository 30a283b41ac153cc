package ui

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ssot/internal/ai"
	"ssot/internal/backend"
	"ssot/internal/config"
	"ssot/internal/edit"
	"ssot/internal/facet"
	"ssot/internal/ingest"
	"ssot/internal/model"
	"ssot/internal/mutate"
	"ssot/internal/source"
	"ssot/internal/store"
	"ssot/internal/util/logx"
)

const followSettle = 300 * time.Millisecond

// deps are the collaborators the model drives.
type deps struct {
	fetcher  source.Fetcher
	reloader source.Reloader
	updater  source.Updater
	ai       *ai.OpenAIClient
}

func newPane(fam edit.Family) *pane {
	return &pane{
		rt:       fam.Resource,
		family:   fam,
		resolver: edit.NewResolver(fam),
		engine:   facet.NewEngine(fam.Facets...),
		hidden:   map[string]bool{},
	}
}

func initialModel(ctx context.Context, cfg *config.Config, d deps) *Model {
	alerts := newAlertQueue()
	m := &Model{
		ctx:        ctx,
		cfg:        cfg,
		fetcher:    d.fetcher,
		reloader:   d.reloader,
		coord:      mutate.NewCoordinator(d.updater, d.reloader, alerts),
		alerts:     alerts,
		ai:         d.ai,
		followed:   map[model.ResourceType]<-chan ingest.Change{},
		styles:     NewStyles(cfg.Theme == config.ThemeDark),
		keymap:     DefaultKeyMap(),
		input:      textinput.New(),
		spin:       spinner.New(),
		maxCols:    6,
		showFacets: true,
	}
	for _, rt := range model.AllResources() {
		fam, ok := cfg.Families[rt]
		if !ok {
			fam = edit.Family{Resource: rt}
		}
		m.panes = append(m.panes, newPane(fam))
	}
	m.spin.Spinner = spinner.Dot
	m.input.CharLimit = 256
	m.modalVP = viewport.New(80, 20)

	m.tbl = table.New(table.WithFocused(true), table.WithHeight(20))
	ts := table.DefaultStyles()
	ts.Header = lipgloss.NewStyle().PaddingRight(1)
	ts.Cell = lipgloss.NewStyle().PaddingRight(1)
	ts.Selected = m.styles.TableStyles.Selected
	m.tbl.SetStyles(ts)
	return m
}

func Run(ctx context.Context, cfg *config.Config) error {
	set, err := backend.Open(cfg)
	if err != nil {
		return err
	}
	defer set.Close()

	d := deps{fetcher: set.Fetcher, reloader: set.Reloader, updater: set.Updater}
	if !cfg.Offline {
		d.ai = ai.NewOpenAIClient(cfg.OpenAIKey(), cfg.OpenAIBase, cfg.OpenAIModel, cfg.OpenAITimeout())
	}
	m := initialModel(ctx, cfg, d)
	if cfg.Follow && set.Local != nil {
		for _, rt := range model.AllResources() {
			p := store.Path(set.Local.Dir(), rt)
			if _, err := os.Stat(p); err != nil {
				continue
			}
			changes, errs := ingest.Follow(ctx, p, followSettle)
			go logFollowErrors(p, errs)
			m.followed[rt] = changes
		}
	}
	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func logFollowErrors(path string, errs <-chan error) {
	for err := range errs {
		logx.Warnf("follow %s: %v", path, err)
	}
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spin.Tick}
	for _, p := range m.panes {
		cmds = append(cmds, m.load(p, false))
	}
	for rt, ch := range m.followed {
		cmds = append(cmds, waitChange(rt, ch))
	}
	return tea.Batch(cmds...)
}
