// Package search moves a cursor through rows matching a query. It never
// changes which rows are visible.
package search

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Knetic/govaluate"

	"ssot/internal/model"
)

type Criteria struct {
	Query    string // plain contains, or regex when UseRegex
	UseRegex bool
	Field    string // when set, apply Query only to this column
	Expr     string // govaluate expression over column values
}

// Parse reads the search prompt syntax:
//
//	text          case-insensitive substring in any column
//	/re/          regular expression in any column
//	COL:text      substring (or /re/) in one column
//	= expr        govaluate expression, e.g. = BUDGET > 1000 && TACTIC == 'ctv'
func Parse(input string, columns []string) Criteria {
	s := strings.TrimSpace(input)
	if strings.HasPrefix(s, "=") {
		return Criteria{Expr: strings.TrimSpace(s[1:])}
	}
	var c Criteria
	if i := strings.Index(s, ":"); i > 0 {
		if col := s[:i]; hasColumn(columns, col) {
			c.Field = col
			s = s[i+1:]
		}
	}
	if len(s) >= 2 && strings.HasPrefix(s, "/") && strings.HasSuffix(s, "/") {
		c.UseRegex = true
		s = s[1 : len(s)-1]
	}
	c.Query = s
	return c
}

func hasColumn(cols []string, c string) bool {
	for _, x := range cols {
		if x == c {
			return true
		}
	}
	return false
}

func (c Criteria) Empty() bool { return c.Query == "" && strings.TrimSpace(c.Expr) == "" }

type Evaluator struct {
	c    Criteria
	re   *regexp.Regexp
	expr *govaluate.EvaluableExpression
}

func NewEvaluator(c Criteria) (*Evaluator, error) {
	var re *regexp.Regexp
	var expr *govaluate.EvaluableExpression
	var err error
	if c.UseRegex && c.Query != "" {
		re, err = regexp.Compile(c.Query)
		if err != nil {
			return nil, err
		}
	}
	if strings.TrimSpace(c.Expr) != "" {
		expr, err = govaluate.NewEvaluableExpression(c.Expr)
		if err != nil {
			return nil, err
		}
	}
	return &Evaluator{c: c, re: re, expr: expr}, nil
}

func (e *Evaluator) Match(r model.Record) bool {
	if e.c.Query != "" {
		if e.c.Field != "" {
			if !e.matchText(r.Get(e.c.Field)) {
				return false
			}
		} else {
			hit := false
			for _, v := range r.Values() {
				if e.matchText(v) {
					hit = true
					break
				}
			}
			if !hit {
				return false
			}
		}
	}
	if e.expr != nil {
		params := make(map[string]any, r.Len())
		for _, c := range r.Columns() {
			params[c] = typed(r.Get(c))
		}
		result, err := e.expr.Evaluate(params)
		if err != nil {
			return false
		}
		b, ok := result.(bool)
		if !ok || !b {
			return false
		}
	}
	return true
}

func (e *Evaluator) matchText(s string) bool {
	if e.re != nil {
		return e.re.MatchString(s)
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(e.c.Query))
}

// typed exposes numeric cells as numbers so comparisons work.
func typed(s string) any {
	if f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64); err == nil && s != "" {
		return f
	}
	return s
}

// Next returns the index of the next matching row after from, wrapping
// around, or -1. dir < 0 searches backwards.
func (e *Evaluator) Next(rows []model.Record, from, dir int) int {
	n := len(rows)
	if n == 0 {
		return -1
	}
	step := 1
	if dir < 0 {
		step = -1
	}
	i := from
	for k := 0; k < n; k++ {
		i = ((i+step)%n + n) % n
		if e.Match(rows[i]) {
			return i
		}
	}
	return -1
}

// CountValues tallies the values of col, most frequent first; ties keep first
// occurrence order. Empty cells are counted under "".
func CountValues(rows []model.Record, col string) []ValueCount {
	idx := map[string]int{}
	out := []ValueCount{}
	for _, r := range rows {
		v := r.Get(col)
		if i, ok := idx[v]; ok {
			out[i].Count++
			continue
		}
		idx[v] = len(out)
		out = append(out, ValueCount{Value: v, Count: 1})
	}
	// stable insertion sort by count desc
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Count > out[j-1].Count; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

type ValueCount struct {
	Value string
	Count int
}
