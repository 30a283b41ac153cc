package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"ssot/internal/ai"
	"ssot/internal/config"
	"ssot/internal/edit"
	"ssot/internal/facet"
	"ssot/internal/ingest"
	"ssot/internal/model"
	"ssot/internal/mutate"
	"ssot/internal/search"
	"ssot/internal/source"
)

type focus int

const (
	focusTable focus = iota
	focusFacets
)

type modalKind int

const (
	modalNone modalKind = iota
	modalHelp
	modalCounts
	modalInspector
	modalLogs
	modalSummary
	modalEdit
	modalAlert
)

type inlineMode int

const (
	inlineNone inlineMode = iota
	inlineSearch
	inlineExport
)

type sortDir int

const (
	sortNone sortDir = iota
	sortAsc
	sortDesc
)

// pane is one resource tab: its dataset, status, facets and view state.
type pane struct {
	rt       model.ResourceType
	family   edit.Family
	resolver *edit.Resolver
	engine   *facet.Engine

	status   source.Status
	err      error
	ds       model.Dataset
	loadedAt time.Time

	// rows is the facet-visible dataset in display order.
	rows    []model.Record
	cols    []string
	hidden  map[string]bool
	sortCol string
	sortDir sortDir

	selCol    int // index into shown columns
	colOffset int
	cursor    int

	// facet panel cursor
	facetIdx int
	optIdx   int
}

type Model struct {
	ctx context.Context
	cfg *config.Config

	// Collaborators
	fetcher  source.Fetcher
	reloader source.Reloader
	coord    *mutate.Coordinator
	alerts   *alertQueue
	ai       *ai.OpenAIClient
	followed map[model.ResourceType]<-chan ingest.Change

	panes  []*pane
	active int

	// UI
	focus      focus
	tbl        table.Model
	styles     Styles
	input      textinput.Model
	spin       spinner.Model
	keymap     KeyMap
	maxCols    int
	termWidth  int
	termHeight int
	showFacets bool

	// Edit
	editor     *editor
	submitting bool

	// Search
	inlineMode    inlineMode
	searchEditing bool
	searchEval    *search.Evaluator
	searchQuery   string

	// status
	lastMsg string
	netBusy bool

	// Modal popup
	modalActive bool
	modalKind   modalKind
	modalVP     viewport.Model
	modalTitle  string
	modalBody   string
	// modal to return to when an alert over it is dismissed
	modalBelow modalKind

	helpItems []helpItem
	helpSel   int
}

type helpItem struct {
	group string
	text  string
	key   tea.Key
}

func keyCmd(k tea.Key) tea.Cmd {
	return func() tea.Msg {
		if k.Type == tea.KeyRunes {
			return tea.KeyMsg{Type: k.Type, Runes: k.Runes}
		}
		return tea.KeyMsg{Type: k.Type}
	}
}

func keyLabel(k tea.Key) string {
	switch k.Type {
	case tea.KeyRunes:
		if len(k.Runes) == 1 {
			r := k.Runes[0]
			if r == ' ' {
				return "space"
			}
			return string(r)
		}
		return strings.ToLower(string(k.Runes))
	case tea.KeyEnter:
		return "enter"
	case tea.KeyEsc:
		return "esc"
	case tea.KeyTab:
		return "tab"
	case tea.KeyShiftTab:
		return "shift-tab"
	case tea.KeyLeft:
		return "left"
	case tea.KeyRight:
		return "right"
	case tea.KeyUp:
		return "up"
	case tea.KeyDown:
		return "down"
	case tea.KeyPgUp:
		return "pgup"
	case tea.KeyPgDown:
		return "pgdown"
	case tea.KeyCtrlS:
		return "ctrl+s"
	default:
		return strings.ToLower(k.String())
	}
}
