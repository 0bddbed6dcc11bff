package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"rotacore/internal/core"
	"rotacore/pkg/domain"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4A5568"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func renderGenerationHeader(gen core.Generation, option int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("generation " + gen.ID))
	fmt.Fprintf(&b, "\noutcome %s, %d of %d options, horizon %d weeks", gen.Outcome(), len(gen.Samples), gen.Requested, gen.Horizon)
	if option > 0 && option <= len(gen.Samples) {
		s := gen.Samples[option-1]
		fmt.Fprintf(&b, "\noption %d/%d  seed %d  status %s  objective %d", option, len(gen.Samples), s.Seed, s.Status, s.Objective)
	}
	return b.String()
}

func renderSample(s core.Sample) string {
	return renderSchedule(s.Schedule) + "\n" + renderDiagnostics(s.Diagnostics)
}

func renderSchedule(s domain.Schedule) string {
	headers := []string{"Week", "Leader"}
	for _, inst := range domain.ScheduledInstruments {
		headers = append(headers, string(inst))
	}
	t := newTable(headers...)
	for _, week := range s.Weeks {
		row := []string{strconv.Itoa(week.Week), week.Leader}
		for _, inst := range domain.ScheduledInstruments {
			row = append(row, strings.Join(week.Players(inst), ", "))
		}
		t.Row(row...)
	}
	return t.String()
}

func renderDiagnostics(d domain.Diagnostics) string {
	t := newTable("Name", "Weeks", "Leading", "Deviation", "Instruments")
	var findings []string
	for _, p := range d.People {
		t.Row(p.Name, joinWeeks(p.WeeksScheduled), joinWeeks(p.WeeksLeading), strconv.Itoa(p.FrequencyDeviation), p.Narrative())
		for _, v := range p.Violations {
			findings = append(findings, warnStyle.Render(fmt.Sprintf("%s [%s]: %s", p.Name, v.Rule, v.Message)))
		}
	}
	if len(findings) == 0 {
		return t.String()
	}
	return t.String() + "\n" + strings.Join(findings, "\n")
}

func renderRows(rows []domain.Row) string {
	t := newTable("Name", "Leader", "Weeks wanted", "Available", "Instruments")
	for _, row := range rows {
		var available []int
		for i, ok := range row.Availability {
			if ok {
				available = append(available, i+1)
			}
		}
		var insts []string
		for _, inst := range domain.Instruments {
			if row.Instruments[inst] {
				insts = append(insts, string(inst))
			}
		}
		leader := "no"
		if row.IsLeader != nil && *row.IsLeader {
			leader = "yes"
		}
		wanted := mutedStyle.Render("-")
		if row.NumWeeks != nil {
			wanted = strconv.Itoa(*row.NumWeeks)
		}
		t.Row(row.Name, leader, wanted, joinWeeks(available), strings.Join(insts, ", "))
	}
	return t.String()
}

func renderHistory(infos []core.GenerationInfo) string {
	t := newTable("Generation", "Written", "Size")
	for _, info := range infos {
		t.Row(info.ID, info.LastModified.Local().Format(time.DateTime), strconv.FormatInt(info.Size, 10)+" B")
	}
	return t.String()
}

func joinWeeks(weeks []int) string {
	parts := make([]string, len(weeks))
	for i, w := range weeks {
		parts[i] = strconv.Itoa(w)
	}
	return strings.Join(parts, " ")
}
