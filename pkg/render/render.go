// Package render formats a sequence of fitted models into a comparison
// table. Text, HTML, and markdown output go through go-pretty; LaTeX is
// emitted directly.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/regtab/pkg/model"
)

// Format selects the output markup.
type Format string

const (
	Text     Format = "text"
	HTML     Format = "html"
	LaTeX    Format = "latex"
	Markdown Format = "markdown"
)

// Summary statistic row names. Callers omit statistics by listing these in
// Options.OmitStats.
const (
	StatN              = "N"
	StatR2             = "R2"
	StatAdjR2          = "Adjusted R2"
	StatPseudoR2       = "Pseudo R2"
	StatFStatistic     = "F Statistic"
	StatResidualStdErr = "Residual Std. Error"
)

// Options controls one render call.
type Options struct {
	Format Format
	// ColumnLabels has one entry per model.
	ColumnLabels []string
	// DepVarLabels has one entry per model; when all models share a
	// dependent variable and the column labels say something else, it
	// becomes a caption line.
	DepVarLabels []string
	// CustomRows are annotation rows appended below the statistics:
	// each is a row header followed by one cell per model.
	CustomRows [][]string
	// OmitStats lists statistic rows to suppress.
	OmitStats []string
}

// Table is the default renderer.
type Table struct{}

// New returns a renderer.
func New() *Table { return &Table{} }

// Render produces the table as a sequence of text lines.
func (r *Table) Render(models []*model.Estimated, opts Options) ([]string, error) {
	if len(models) == 0 {
		return nil, fmt.Errorf("render: no models")
	}
	if len(opts.ColumnLabels) != len(models) {
		return nil, fmt.Errorf("render: %d column labels for %d models", len(opts.ColumnLabels), len(models))
	}

	g := buildGrid(models, opts)

	switch opts.Format {
	case LaTeX:
		return g.latex(), nil
	case HTML:
		return g.pretty(func(t table.Writer) string { return t.RenderHTML() }, true), nil
	case Markdown:
		return g.pretty(func(t table.Writer) string { return t.RenderMarkdown() }, false), nil
	case Text, "":
		return g.pretty(func(t table.Writer) string { return t.Render() }, true), nil
	default:
		return nil, fmt.Errorf("render: unknown format %q", opts.Format)
	}
}

// coefCell is one coefficient entry: estimate with stars, standard error.
type coefCell struct {
	est string
	se  string
}

type grid struct {
	caption  string
	header   []string // column labels, without the leading stub
	coefs    []string // coefficient names in first-appearance order
	cells    map[string][]coefCell
	statRows [][]string
	custom   [][]string
}

func buildGrid(models []*model.Estimated, opts Options) *grid {
	g := &grid{
		header: opts.ColumnLabels,
		cells:  make(map[string][]coefCell),
		custom: opts.CustomRows,
	}

	if dep := sharedDepVar(opts); dep != "" {
		g.caption = "Dependent variable: " + dep
	}

	for mi, m := range models {
		for _, term := range m.Fit.Terms {
			if _, ok := g.cells[term.Name]; !ok {
				g.coefs = append(g.coefs, term.Name)
				g.cells[term.Name] = make([]coefCell, len(models))
			}
			g.cells[term.Name][mi] = coefCell{
				est: formatNum(term.Coef) + stars(term.PValue),
				se:  "(" + formatNum(term.StdErr) + ")",
			}
		}
	}

	g.statRows = statRows(models, opts.OmitStats)
	return g
}

// sharedDepVar returns the common dependent variable when every model has
// the same one and the column labels carry other information.
func sharedDepVar(opts Options) string {
	if len(opts.DepVarLabels) == 0 {
		return ""
	}
	dep := opts.DepVarLabels[0]
	for _, d := range opts.DepVarLabels[1:] {
		if d != dep {
			return ""
		}
	}
	for i, c := range opts.ColumnLabels {
		if c != opts.DepVarLabels[i] {
			return dep
		}
	}
	return ""
}

func statRows(models []*model.Estimated, omit []string) [][]string {
	omitted := make(map[string]bool, len(omit))
	for _, s := range omit {
		omitted[s] = true
	}

	anyOLS, anyLogit := false, false
	for _, m := range models {
		if m.Family == model.Logit {
			anyLogit = true
		} else {
			anyOLS = true
		}
	}

	var rows [][]string
	add := func(name string, cell func(m *model.Estimated) string) {
		if omitted[name] {
			return
		}
		row := []string{name}
		for _, m := range models {
			row = append(row, cell(m))
		}
		rows = append(rows, row)
	}

	add(StatN, func(m *model.Estimated) string {
		return strconv.Itoa(m.Fit.NObs)
	})
	if anyOLS {
		add(StatR2, olsStat(func(f *model.Fit) float64 { return f.RSquared }))
		add(StatAdjR2, olsStat(func(f *model.Fit) float64 { return f.AdjRSquared }))
	}
	if anyLogit {
		add(StatPseudoR2, func(m *model.Estimated) string {
			if m.Family != model.Logit {
				return ""
			}
			return formatNum(m.Fit.PseudoRSquared)
		})
	}
	if anyOLS {
		add(StatFStatistic, olsStat(func(f *model.Fit) float64 { return f.FStat }))
		add(StatResidualStdErr, olsStat(func(f *model.Fit) float64 { return f.ResidualStdErr }))
	}
	return rows
}

func olsStat(get func(f *model.Fit) float64) func(m *model.Estimated) string {
	return func(m *model.Estimated) string {
		if m.Family != model.OLS {
			return ""
		}
		return formatNum(get(m.Fit))
	}
}

// pretty renders through go-pretty. multiline controls whether estimate and
// standard error share a cell on separate lines (text, HTML) or are joined
// on one line (markdown, which cannot hold line breaks in cells).
func (g *grid) pretty(render func(table.Writer) string, multiline bool) []string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)

	var lines []string
	if g.caption != "" {
		lines = append(lines, g.caption)
	}

	header := make(table.Row, len(g.header)+1)
	header[0] = ""
	for i, h := range g.header {
		header[i+1] = h
	}
	t.AppendHeader(header)

	for _, name := range g.coefs {
		row := make(table.Row, len(g.header)+1)
		row[0] = name
		for i, c := range g.cells[name] {
			row[i+1] = joinCell(c, multiline)
		}
		t.AppendRow(row)
	}

	t.AppendSeparator()
	for _, sr := range g.statRows {
		t.AppendRow(toRow(sr))
	}
	for _, cr := range g.custom {
		t.AppendRow(toRow(cr))
	}

	return append(lines, strings.Split(render(t), "\n")...)
}

func joinCell(c coefCell, multiline bool) string {
	if c.est == "" {
		return ""
	}
	if multiline {
		return c.est + "\n" + c.se
	}
	return c.est + " " + c.se
}

func toRow(cells []string) table.Row {
	row := make(table.Row, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}

func stars(p float64) string {
	switch {
	case p < 0.01:
		return "***"
	case p < 0.05:
		return "**"
	case p < 0.1:
		return "*"
	default:
		return ""
	}
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
