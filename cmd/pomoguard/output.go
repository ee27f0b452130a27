package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	settingsdto "pomoguard/internal/modules/settings/dto"
	timerdto "pomoguard/internal/modules/timer/dto"
	"pomoguard/internal/ui/theme"
	timerview "pomoguard/internal/ui/views/timer"
)

// styled reports whether w is an interactive terminal worth colouring.
func styled(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func printState(w io.Writer, st timerdto.StateOutput) {
	if !styled(w) {
		_, _ = fmt.Fprintf(w, "phase=%s status=%s time_left=%s pomodoros=%d\n",
			st.Phase, st.Status, timerview.Clock(st.TimeLeft), st.Completed)
		return
	}
	clock := lipgloss.NewStyle().Bold(true).Foreground(theme.PhaseColor(st.OnBreak)).Render(timerview.Clock(st.TimeLeft))
	_, _ = fmt.Fprintf(w, "%s %s %s %s\n",
		clock,
		theme.Title.Render(st.Phase),
		theme.Muted.Render(st.Status),
		theme.Hot.Render(fmt.Sprintf("🍅 %d", st.Completed)),
	)
}

func printSettings(w io.Writer, s settingsdto.SettingsOutput) {
	_, _ = fmt.Fprintf(w, "focus=%dm break=%dm\n", s.FocusMinutes, s.BreakMinutes)
	if len(s.BlockedSites) == 0 {
		_, _ = fmt.Fprintln(w, "blocked sites: none")
		return
	}
	_, _ = fmt.Fprintf(w, "blocked sites: %s\n", strings.Join(s.BlockedSites, ", "))
}

func printHistory(w io.Writer, records []timerdto.HistoryOutput) {
	if len(records) == 0 {
		_, _ = fmt.Fprintln(w, "no completed phases")
		return
	}
	for _, r := range records {
		_, _ = fmt.Fprintf(w, "%s  %-5s  %s  #%d\n",
			r.CompletedAt.Local().Format("2006-01-02 15:04"),
			r.Phase,
			timerview.Clock(r.PlannedSeconds),
			r.PomodoroCount,
		)
	}
}
