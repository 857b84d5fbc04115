// Package report renders the console summaries printed by gen-workflow and
// update-info.
package report

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/mipsuite/internal/artifact"
	"github.com/kingrea/mipsuite/internal/collector"
	"github.com/kingrea/mipsuite/internal/planner"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	skipStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#CCCCCC"))
	logBodyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
)

var boxStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("#444444")).
	Padding(0, 1)

// Plan summarises a planner run: one row per batch plus totals.
func Plan(result planner.Result) string {
	title := titleStyle.Render(fmt.Sprintf("Planned %d instances in %d batches", result.Instances(), len(result.Batches)))
	rows := []string{headerStyle.Render(fmt.Sprintf("%-6s %-5s %s", "BATCH", "SIZE", "FIRST INSTANCES"))}
	for _, batch := range result.Batches {
		rows = append(rows, fmt.Sprintf("%-6d %-5d %s", batch.Index, len(batch.Records), preview(batch.Names(), 3)))
	}
	var files []string
	for _, path := range result.Files {
		files = append(files, filepath.Base(path))
	}
	footer := detailStyle.Render(fmt.Sprintf("wrote %s · removed %d stale file(s)", strings.Join(files, ", "), len(result.Removed)))
	return lipgloss.JoinVertical(lipgloss.Left, title, boxStyle.Render(strings.Join(rows, "\n")), footer)
}

func preview(names []string, n int) string {
	if len(names) <= n {
		return strings.Join(names, " ")
	}
	return fmt.Sprintf("%s … (+%d)", strings.Join(names[:n], " "), len(names)-n)
}

// Check renders a coverage report.
func Check(r planner.CheckReport) string {
	summary := fmt.Sprintf("%d instances · %d jobs · %d files", r.Instances, r.Jobs, r.Files)
	if r.OK() {
		return okStyle.Render("✓ coverage ok") + " " + detailStyle.Render(summary)
	}
	lines := []string{failStyle.Render(fmt.Sprintf("✗ %d coverage problem(s)", len(r.Problems))) + " " + detailStyle.Render(summary)}
	for _, p := range r.Problems {
		lines = append(lines, "  - "+p)
	}
	return strings.Join(lines, "\n")
}

// Outcome renders one collector result line.
func Outcome(out collector.Outcome) string {
	if out.Skipped {
		line := skipStyle.Render(fmt.Sprintf("• %s already recorded, skipped", out.Name))
		switch out.ArtifactState {
		case artifact.StateMissing, artifact.StateInvalid, artifact.StateError:
			line += " " + failStyle.Render(fmt.Sprintf("(solution %s)", out.ArtifactState))
		}
		return line
	}
	rec := out.Record
	line := okStyle.Render("✓ "+out.Name) + " " + fmt.Sprintf("relax=%s bound=%s value=%s optimal=%t", rec.Relaxation, rec.Bound, rec.Value, rec.Optimal)
	if out.Artifact != "" {
		line += " " + detailStyle.Render("→ "+out.Artifact)
	}
	return line
}

// Failure renders a fatal error.
func Failure(err error) string {
	return failStyle.Render("✗ " + err.Error())
}

// LogPanel boxes the last log lines under a header naming the log file.
func LogPanel(path string, lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(path)
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := titleStyle.Render(fmt.Sprintf("LOG · %s", fileName))
	body := logBodyStyle.Render(strings.Join(lines, "\n"))
	return boxStyle.Render(fmt.Sprintf("%s\n%s", head, body))
}
