package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/hylla/rota/internal/domain"
)

// markdownRenderer renders markdown for terminal views and recreates the renderer when wrap width changes.
type markdownRenderer struct {
	width    int
	renderer *glamour.TermRenderer
}

// render converts markdown into ANSI-styled terminal text, falling back to the raw markdown.
func (r *markdownRenderer) render(markdown string, width int) string {
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return ""
	}
	wrapWidth := max(width, 40)
	if r.renderer == nil || r.width != wrapWidth {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(wrapWidth),
		)
		if err != nil {
			return markdown
		}
		r.renderer = renderer
		r.width = wrapWidth
	}
	rendered, err := r.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimRight(rendered, "\n")
}

// StatsMarkdown formats fairness statistics as one markdown table per duty.
func StatsMarkdown(stats []domain.DutyStats) string {
	if len(stats) == 0 {
		return "No duties configured."
	}
	var b strings.Builder
	b.WriteString("# Fairness\n")
	for _, duty := range stats {
		name := duty.Name
		if name == "" {
			name = duty.Duty
		}
		fmt.Fprintf(&b, "\n## %s\n\n", name)
		if duty.Eligible == 0 {
			b.WriteString("_Nobody is eligible._\n")
			continue
		}
		fmt.Fprintf(&b, "%d assignments over %d people, ideal share %.1f%%.\n\n", duty.Total, duty.Eligible, duty.IdealShare*100)
		b.WriteString("| Person | Count | Share | Deviation |\n|---|---:|---:|---:|\n")
		for _, p := range duty.People {
			fmt.Fprintf(&b, "| %s | %d | %.1f%% | %+.1f%% |\n", p.Person, p.Count, p.Share*100, p.DeviationPct)
		}
	}
	return b.String()
}

// RenderStats renders fairness statistics for a terminal of the given width.
func RenderStats(stats []domain.DutyStats, width int) string {
	var r markdownRenderer
	return r.render(StatsMarkdown(stats), width)
}
