package ui

import tea "github.com/charmbracelet/bubbletea"

type KeyMap struct {
	NextTab     tea.Key
	PrevTab     tea.Key
	Facets      tea.Key
	FocusFacets tea.Key
	Toggle      tea.Key
	SelectAll   tea.Key
	DeselectAll tea.Key
	ResetFacets tea.Key
	Edit        tea.Key
	Submit      tea.Key
	Inspector   tea.Key
	Search      tea.Key
	SearchNext  tea.Key
	SearchPrev  tea.Key
	Sort        tea.Key
	Hide        tea.Key
	ShowAll     tea.Key
	Counts      tea.Key
	Export      tea.Key
	Reload      tea.Key
	Summarize   tea.Key
	Top         tea.Key
	Bottom      tea.Key
	CopyCell    tea.Key
	AppLogs     tea.Key
	Help        tea.Key
	Quit        tea.Key
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		NextTab:     tea.Key{Type: tea.KeyTab},
		PrevTab:     tea.Key{Type: tea.KeyShiftTab},
		Facets:      tea.Key{Type: tea.KeyRunes, Runes: []rune{'f'}},
		FocusFacets: tea.Key{Type: tea.KeyRunes, Runes: []rune{'F'}},
		Toggle:      tea.Key{Type: tea.KeyRunes, Runes: []rune{' '}},
		SelectAll:   tea.Key{Type: tea.KeyRunes, Runes: []rune{'a'}},
		DeselectAll: tea.Key{Type: tea.KeyRunes, Runes: []rune{'A'}},
		ResetFacets: tea.Key{Type: tea.KeyRunes, Runes: []rune{'R'}},
		Edit:        tea.Key{Type: tea.KeyEnter},
		Submit:      tea.Key{Type: tea.KeyCtrlS},
		Inspector:   tea.Key{Type: tea.KeyRunes, Runes: []rune{'i'}},
		Search:      tea.Key{Type: tea.KeyRunes, Runes: []rune{'/'}},
		SearchNext:  tea.Key{Type: tea.KeyRunes, Runes: []rune{'n'}},
		SearchPrev:  tea.Key{Type: tea.KeyRunes, Runes: []rune{'N'}},
		Sort:        tea.Key{Type: tea.KeyRunes, Runes: []rune{'s'}},
		Hide:        tea.Key{Type: tea.KeyRunes, Runes: []rune{'h'}},
		ShowAll:     tea.Key{Type: tea.KeyRunes, Runes: []rune{'H'}},
		Counts:      tea.Key{Type: tea.KeyRunes, Runes: []rune{'x'}},
		Export:      tea.Key{Type: tea.KeyRunes, Runes: []rune{'e'}},
		Reload:      tea.Key{Type: tea.KeyRunes, Runes: []rune{'r'}},
		Summarize:   tea.Key{Type: tea.KeyRunes, Runes: []rune{'S'}},
		Top:         tea.Key{Type: tea.KeyRunes, Runes: []rune{'g'}},
		Bottom:      tea.Key{Type: tea.KeyRunes, Runes: []rune{'G'}},
		CopyCell:    tea.Key{Type: tea.KeyRunes, Runes: []rune{'c'}},
		AppLogs:     tea.Key{Type: tea.KeyRunes, Runes: []rune{'L'}},
		Help:        tea.Key{Type: tea.KeyRunes, Runes: []rune{'?'}},
		Quit:        tea.Key{Type: tea.KeyRunes, Runes: []rune{'q'}},
	}
}

func keyMatches(msg tea.KeyMsg, k tea.Key) bool {
	if k.Type != tea.KeyRunes {
		return msg.Type == k.Type
	}
	if len(k.Runes) > 0 {
		return msg.String() == string(k.Runes)
	}
	return false
}
