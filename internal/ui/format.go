package ui

import (
	"sort"
	"strconv"
	"strings"

	"ssot/internal/model"
)

// emptyCell is shown for empty values.
const emptyCell = "—"

func formatCell(v string) string {
	if strings.TrimSpace(v) == "" {
		return emptyCell
	}
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\t", " ").Replace(v)
}

func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 64)
	return f, err == nil
}

// compareCells orders numbers numerically and everything else
// case-insensitively. Empty cells sort first.
func compareCells(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == "":
		return -1
	case b == "":
		return 1
	}
	if fa, ok := parseNumber(a); ok {
		if fb, ok := parseNumber(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

// sortRows returns a sorted copy; rows is left untouched.
func sortRows(rows []model.Record, col string, dir sortDir) []model.Record {
	out := append([]model.Record(nil), rows...)
	if dir == sortNone || col == "" {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		c := compareCells(out[i].Get(col), out[j].Get(col))
		if dir == sortDesc {
			return c > 0
		}
		return c < 0
	})
	return out
}

func (d sortDir) next() sortDir {
	switch d {
	case sortNone:
		return sortAsc
	case sortAsc:
		return sortDesc
	}
	return sortNone
}

func (d sortDir) arrow() string {
	switch d {
	case sortAsc:
		return "↑"
	case sortDesc:
		return "↓"
	}
	return ""
}
