package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"patternlab/internal/breeding"
	"patternlab/internal/evolution"
	"patternlab/internal/model"
	"patternlab/internal/pattern"
)

var (
	colorAccent = lipgloss.Color("#2CD7C7")
	colorBorder = lipgloss.Color("#16858E")
	colorMuted  = lipgloss.Color("#5C7A84")
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	labelStyle = lipgloss.NewStyle().Foreground(colorMuted).Width(16)
	valueStyle = lipgloss.NewStyle().Bold(true)
	codeStyle  = lipgloss.NewStyle().Foreground(colorAccent)
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)
)

type row struct {
	label string
	value string
}

func table(title string, rows []row) string {
	lines := []string{titleStyle.Render(title)}
	for _, r := range rows {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(r.label), valueStyle.Render(r.value)))
	}
	return strings.Join(lines, "\n")
}

// RenderEvolution summarizes a finished session
func RenderEvolution(res *evolution.Result) string {
	md := res.Metadata
	g := res.FamilyTree.Genealogy()
	summary := table("Evolution complete", []row{
		{"session", md.SessionID},
		{"strategy", string(md.Strategy)},
		{"generations", fmt.Sprintf("%d", md.Generations)},
		{"final fitness", fmt.Sprintf("%.3f", md.FinalFitness)},
		{"distance", fmt.Sprintf("%.3f", md.GeneticDistance)},
		{"ancestry depth", fmt.Sprintf("%d", g.AncestryDepth)},
		{"lineage", res.LineageHash},
	})
	if len(res.Summary.EmergentBehaviors) > 0 {
		summary += "\n" + titleStyle.Render("Emergent") + "\n  " + strings.Join(res.Summary.EmergentBehaviors, "\n  ")
	}
	return boxStyle.Render(summary + "\n\n" + codeStyle.Render(res.EvolvedPattern.Code))
}

// RenderOffspring lists bred children with their estimated fitness
func RenderOffspring(kids []pattern.Pattern) string {
	blocks := make([]string, 0, len(kids))
	for i, k := range kids {
		rows := []row{
			{"id", k.Metadata.ID},
			{"genre", k.Metadata.Genre},
			{"generation", fmt.Sprintf("%d", k.Metadata.Generation)},
			{"parents", strings.Join(k.Metadata.ParentIDs, ", ")},
			{"fitness", fmt.Sprintf("%.3f", k.FitnessOr(0))},
		}
		if b := k.Metadata.Breeding; b != nil {
			rows = append(rows, row{"compatibility", fmt.Sprintf("%.0f%%", b.Compatibility*100)})
		}
		body := table(fmt.Sprintf("Offspring %d: %s", i+1, k.Description), rows)
		blocks = append(blocks, boxStyle.Render(body+"\n\n"+codeStyle.Render(k.Code)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

// RenderBreedingStats summarizes the breeding history
func RenderBreedingStats(st breeding.Stats) string {
	return boxStyle.Render(table("Breeding history", []row{
		{"breedings", fmt.Sprintf("%d", st.TotalBreedings)},
		{"strategies", strings.Join(st.StrategiesUsed, ", ")},
		{"compatibility", fmt.Sprintf("%.3f", st.AverageCompatibility)},
		{"success rate", fmt.Sprintf("%.0f%%", st.SuccessRate*100)},
		{"version", st.Version},
	}))
}

// RenderSessions lists recorded evolution sessions, newest last
func RenderSessions(sessions []model.Session) string {
	if len(sessions) == 0 {
		return titleStyle.Render("No sessions recorded")
	}
	rows := make([]row, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, row{
			label: s.StartedAt.Format("01-02 15:04:05"),
			value: fmt.Sprintf("%-10s %-20s gens=%-3d fitness=%.3f  %s",
				s.Status, s.Config.Strategy, len(s.Generations), s.FinalFitness, s.ID),
		})
	}
	return boxStyle.Render(table("Sessions", rows))
}
