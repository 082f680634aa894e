package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	greenStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cyanStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	yellowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	orangeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	boldStyle   = lipgloss.NewStyle().Bold(true)
)

func printRunSummary(w io.Writer, cfg appConfig, sum runSummary) {
	check := greenStyle.Render("●")
	dot := dimStyle.Render("●")
	warn := orangeStyle.Render("●")

	logo := cyanStyle.Bold(true).Render(`
    ╔═╗╦ ╦╦═╗  ╦ ╦╦╔═╗╔╦╗
    ╠═╣║║║╠╦╝  ╠═╣║╚═╗ ║
    ╩ ╩╚╩╝╩╚═  ╩ ╩╩╚═╝ ╩`)

	separator := dimStyle.Render("    ─────────────────────────────────")

	var lines []string
	lines = append(lines, "", logo, "    "+dimStyle.Render("v"+version), "", separator, "")

	// Input
	lines = append(lines, boldStyle.Render("    Input"), "")
	lines = append(lines, fmt.Sprintf("    %s  Reports        %s", check, cyanStyle.Render(fmt.Sprintf("%d loaded", sum.Loaded))))
	if len(sum.Skipped) > 0 {
		lines = append(lines, fmt.Sprintf("    %s  Skipped        %s", warn, orangeStyle.Render(fmt.Sprintf("%d unreadable", len(sum.Skipped)))))
	}
	lines = append(lines, fmt.Sprintf("    %s  Section        %s", check, dimStyle.Render(cfg.layout.SectionHeader())))
	lines = append(lines, fmt.Sprintf("    %s  Wait Events    %s", check, dimStyle.Render(fmt.Sprintf("%d (%s match)", len(cfg.WaitEvents), cfg.matchMode))))
	lines = append(lines, "")

	// Results
	lines = append(lines, boldStyle.Render("    Results"), "")
	lines = append(lines, fmt.Sprintf("    %s  Rows Found     %s", check, greenStyle.Render(fmt.Sprintf("%d", sum.Stats.Found))))
	if sum.Stats.Missing > 0 {
		lines = append(lines, fmt.Sprintf("    %s  Not Found      %s", warn, orangeStyle.Render(fmt.Sprintf("%d", sum.Stats.Missing))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Not Found      %s", dot, dimStyle.Render("0")))
	}
	if len(sum.Outputs) == 0 {
		lines = append(lines, fmt.Sprintf("    %s  CSV            %s", dot, dimStyle.Render("nothing written")))
	}
	for _, path := range sum.Outputs {
		lines = append(lines, fmt.Sprintf("    %s  CSV            %s", check, cyanStyle.Render(shortenPath(path))))
	}
	lines = append(lines, "")

	// Storage
	lines = append(lines, boldStyle.Render("    Storage"), "")
	lines = append(lines, fmt.Sprintf("    %s  DuckDB         %s", check, dimStyle.Render(storeLabel(cfg))))
	lines = append(lines, fmt.Sprintf("    %s  Stored Rows    %s", check, dimStyle.Render(fmt.Sprintf("%d (run %s)", sum.Stored, sum.RunID))))
	if cfg.RetentionDays > 0 {
		lines = append(lines, fmt.Sprintf("    %s  Retention      %s", check, dimStyle.Render(fmt.Sprintf("%d days, %d pruned", cfg.RetentionDays, sum.Pruned))))
	}
	lines = append(lines, "")

	// Config
	lines = append(lines, boldStyle.Render("    Config"), "")
	if cfg.ConfigPath != "" {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", check, dimStyle.Render(shortenPath(cfg.ConfigPath))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", dot, dimStyle.Render("default (no file)")))
	}

	lines = append(lines, "", separator, "")
	fmt.Fprintln(w, strings.Join(lines, "\n"))
}

func printServeBanner(w io.Writer, addr string) {
	check := greenStyle.Render("●")
	lines := []string{
		boldStyle.Render("    Gateway"),
		"",
		fmt.Sprintf("    %s  HTTP API       %s", check, cyanStyle.Render(addr)),
		"",
		"    " + dimStyle.Render("Press ") + yellowStyle.Render("Ctrl+C") + dimStyle.Render(" to stop"),
		"",
	}
	fmt.Fprintln(w, strings.Join(lines, "\n"))
}

func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}
