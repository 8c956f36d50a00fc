package render

import (
	"fmt"
	"strings"
)

// latex emits a plain tabular environment, one estimate row and one standard
// error row per coefficient, stargazer style.
func (g *grid) latex() []string {
	ncol := len(g.header) + 1
	spec := "l" + strings.Repeat("c", len(g.header))

	var lines []string
	lines = append(lines, `\begin{tabular}{`+spec+`}`)
	lines = append(lines, `\hline`)

	if g.caption != "" {
		lines = append(lines, fmt.Sprintf(`\multicolumn{%d}{c}{%s} \\`, ncol, escapeLatex(g.caption)))
	}

	head := make([]string, ncol)
	for i, h := range g.header {
		head[i+1] = escapeLatex(h)
	}
	lines = append(lines, strings.Join(head, " & ")+` \\`)
	lines = append(lines, `\hline`)

	for _, name := range g.coefs {
		est := make([]string, ncol)
		se := make([]string, ncol)
		est[0] = escapeLatex(name)
		for i, c := range g.cells[name] {
			est[i+1] = latexStars(c.est)
			se[i+1] = escapeLatex(c.se)
		}
		lines = append(lines, strings.Join(est, " & ")+` \\`)
		lines = append(lines, strings.Join(se, " & ")+` \\`)
	}

	lines = append(lines, `\hline`)
	for _, sr := range g.statRows {
		lines = append(lines, latexRow(sr, ncol))
	}
	for _, cr := range g.custom {
		lines = append(lines, latexRow(cr, ncol))
	}
	lines = append(lines, `\hline`)
	lines = append(lines, `\end{tabular}`)
	return lines
}

func latexRow(cells []string, ncol int) string {
	row := make([]string, ncol)
	for i := 0; i < ncol && i < len(cells); i++ {
		row[i] = escapeLatex(cells[i])
	}
	return strings.Join(row, " & ") + ` \\`
}

// latexStars moves trailing significance stars into a superscript.
func latexStars(est string) string {
	trimmed := strings.TrimRight(est, "*")
	if trimmed == est {
		return escapeLatex(est)
	}
	return fmt.Sprintf(`%s$^{%s}$`, escapeLatex(trimmed), est[len(trimmed):])
}

var latexEscaper = strings.NewReplacer(
	`&`, `\&`,
	`%`, `\%`,
	`_`, `\_`,
	`#`, `\#`,
	`$`, `\$`,
)

func escapeLatex(s string) string {
	return latexEscaper.Replace(s)
}
