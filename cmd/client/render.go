package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	apiclient "github.com/bchampine/erops/pkg/api/client"
	"github.com/bchampine/erops/pkg/game/cards"
	"github.com/bchampine/erops/pkg/game/constants"
	"github.com/bchampine/erops/pkg/game/types"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	costStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
)

func renderTitle(version string) string {
	return titleStyle.Render(fmt.Sprintf("Night Shift %s", version))
}

func renderPrompt(state *types.RoundState) string {
	if state == nil {
		return promptStyle.Render("> ")
	}
	if state.IsFinished {
		return promptStyle.Render("[finished] > ")
	}
	return promptStyle.Render(fmt.Sprintf("[round %d/%d %s] > ",
		state.RoundNumber, constants.FinalRound, state.CurrentStep))
}

func renderError(msg string) string {
	return errorStyle.Render("error: " + msg)
}

func renderState(state *types.RoundState) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Round %d, step %s", state.RoundNumber, state.CurrentStep)))
	b.WriteString("\n")
	if state.IsFinished {
		b.WriteString(warnStyle.Render("Game finished.") + "\n")
	}
	if state.ERDivertedLastRound {
		b.WriteString(warnStyle.Render(fmt.Sprintf("ER diverted last round (%d ambulances turned away this round).",
			state.AmbulancesDivertedThisRound)) + "\n")
	}

	b.WriteString(fmt.Sprintf("%-16s %7s %6s %8s %9s %6s %7s  %s\n",
		"department", "census", "beds", "waiting", "requests", "idle", "onduty", "flags"))
	for _, deptID := range types.AllDepartments() {
		dept := state.Department(deptID)
		if dept == nil {
			continue
		}
		beds := "-"
		if free, bounded := dept.FreeBeds(); bounded {
			beds = fmt.Sprintf("%d", free)
		}
		var flags []string
		if dept.IsClosed {
			flags = append(flags, "closed")
		}
		if dept.IsDiverting {
			flags = append(flags, "diverting")
		}
		for _, event := range dept.ActiveEvents {
			flags = append(flags, event.EventID)
		}
		b.WriteString(fmt.Sprintf("%-16s %7d %6s %8d %9d %6d %7d  %s\n",
			deptID.DisplayName(),
			dept.TotalPatients(),
			beds,
			dept.ArrivalsWaiting,
			dept.TotalRequestsWaiting(),
			dept.Staff.TotalIdle(),
			dept.Staff.TotalOnDuty(),
			mutedStyle.Render(strings.Join(flags, ","))))
	}

	b.WriteString(costStyle.Render(fmt.Sprintf("Totals: financial %d, quality %d",
		state.TotalFinancialCost, state.TotalQualityCost)))
	return b.String()
}

func renderCards(form *cards.Form) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Round %d cards", form.Round())))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%-16s %9s %9s\n", "department", "arrivals", "exits"))
	for _, deptID := range types.AllDepartments() {
		arrivals := fmt.Sprintf("%d", form.Arrivals(deptID))
		if form.Arrivals(deptID) != form.DefaultArrivals(deptID) {
			arrivals = warnStyle.Render(fmt.Sprintf("%d*", form.Arrivals(deptID)))
		}
		exits := fmt.Sprintf("%d", form.Exits(deptID))
		if form.Exits(deptID) != form.DefaultExits(deptID) {
			exits = warnStyle.Render(fmt.Sprintf("%d*", form.Exits(deptID)))
		}
		b.WriteString(fmt.Sprintf("%-16s %9s %9s\n", deptID.DisplayName(), arrivals, exits))
	}
	b.WriteString(mutedStyle.Render("* edited; submitted with the next event step"))
	return b.String()
}

func renderRecommendation(rec *types.Recommendation) string {
	if rec == nil {
		return "No recommendation for the current step."
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Advisor (%s, confidence %.2f)", rec.Source, rec.Confidence)))
	b.WriteString("\n")
	b.WriteString(rec.Reasoning + "\n")
	if rec.CostImpact != 0 {
		b.WriteString(costStyle.Render(fmt.Sprintf("Cost impact: %+.0f", rec.CostImpact)) + "\n")
	}
	for _, flag := range rec.RiskFlags {
		b.WriteString(warnStyle.Render("Risk: "+flag) + "\n")
	}
	for _, alt := range rec.Alternatives {
		b.WriteString(mutedStyle.Render("Alternative: "+alt) + "\n")
	}
	if !rec.LLMAvailable {
		b.WriteString(mutedStyle.Render("Advisor model unavailable; showing optimizer fallback.") + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderHistory(history *apiclient.History) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Cost history"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%5s %10s %8s\n", "round", "financial", "quality"))
	for _, entry := range history.RoundCosts {
		b.WriteString(fmt.Sprintf("%5d %10d %8d\n", entry.RoundNumber, entry.Financial, entry.Quality))
	}
	b.WriteString(costStyle.Render(fmt.Sprintf("Total: financial %d, quality %d",
		history.TotalFinancialCost, history.TotalQualityCost)))
	return b.String()
}

func renderReplay(replay *apiclient.Replay) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Replay of game %s", replay.GameID)))
	b.WriteString("\n")
	for _, round := range replay.Rounds {
		b.WriteString(fmt.Sprintf("Round %d: financial %d, quality %d",
			round.RoundNumber, round.Costs.Financial, round.Costs.Quality))
		if len(round.Events) > 0 {
			b.WriteString(warnStyle.Render("  [" + strings.Join(round.Events, ", ") + "]"))
		}
		b.WriteString("\n")
	}
	b.WriteString(costStyle.Render(fmt.Sprintf("Total: financial %d, quality %d",
		replay.TotalFinancialCost, replay.TotalQualityCost)))
	return b.String()
}
