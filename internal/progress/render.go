package progress

import (
	"fmt"
	"io"
	"strconv"

	"flowprogress/internal/scrapers/flow"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Report is everything printed for one run. Previous is nil when the previous
// year was not queried.
type Report struct {
	Summary  Summary
	Current  flow.YearlyReport
	Previous *flow.YearlyReport
}

// NewReport computes the summary for the current year's totals.
func NewReport(goalKm float64, dayOfYear int, current flow.YearlyReport, previous *flow.YearlyReport) Report {
	return Report{
		Summary:  Compute(goalKm, current.TotalDistanceMeters, dayOfYear),
		Current:  current,
		Previous: previous,
	}
}

func formatGoal(goalKm float64) string {
	return strconv.FormatFloat(goalKm, 'f', -1, 64)
}

func scheduleLine(s Summary) string {
	if s.IsAhead {
		return fmt.Sprintf(
			"You are %.1f km or %.1f days ahead of schedule",
			s.DeltaKm, s.DeltaDays,
		)
	}
	return fmt.Sprintf("You are %.1f km behind schedule", s.ExpectedToDateKm-s.AchievedKm)
}

func yearLine(label string, report flow.YearlyReport) string {
	return fmt.Sprintf(
		"%s: %6.1f km in %3d sessions",
		label, report.TotalDistanceMeters/1000, report.TotalSessionCount,
	)
}

// Lines returns the plain text report, one entry per output line.
func Lines(r Report) []string {
	s := r.Summary
	lines := []string{
		fmt.Sprintf("Target: %s km", formatGoal(s.TargetKm)),
		fmt.Sprintf("Daily target: %.2f km/day", s.DailyTargetKm),
		fmt.Sprintf("Effective daily average: %.2f km/day", s.EffectiveDailyKm),
		fmt.Sprintf("Expected distance to date: %.1f km", s.ExpectedToDateKm),
		fmt.Sprintf("Achieved distance: %.1f km or %.1f%% of target", s.AchievedKm, s.PercentOfTarget),
		scheduleLine(s),
		yearLine("This year", r.Current),
	}
	if r.Previous != nil {
		lines = append(lines, yearLine("Last year", *r.Previous))
	}
	lines = append(lines, fmt.Sprintf("Extrapolated result: %.1f km at the end of the year", s.ExtrapolatedYearEndKm))
	return lines
}

// Render writes the plain text report.
func Render(w io.Writer, r Report) error {
	for _, line := range Lines(r) {
		_, err := fmt.Fprintln(w, line)
		if err != nil {
			return err
		}
	}
	return nil
}

// RenderTable writes the same figures as Render laid out as tables.
func RenderTable(w io.Writer, r Report) error {
	s := r.Summary

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Progress", "Value"})
	t.AppendRows([]table.Row{
		{"Target", fmt.Sprintf("%s km", formatGoal(s.TargetKm))},
		{"Daily target", fmt.Sprintf("%.2f km/day", s.DailyTargetKm)},
		{"Effective daily average", fmt.Sprintf("%.2f km/day", s.EffectiveDailyKm)},
		{"Expected distance to date", fmt.Sprintf("%.1f km", s.ExpectedToDateKm)},
		{"Achieved distance", fmt.Sprintf("%.1f km (%.1f%%)", s.AchievedKm, s.PercentOfTarget)},
		{"Schedule", scheduleLine(s)},
		{"Extrapolated result", fmt.Sprintf("%.1f km", s.ExtrapolatedYearEndKm)},
	})
	t.SetStyle(table.StyleRounded)
	t.Render()

	years := table.NewWriter()
	years.SetOutputMirror(w)
	years.AppendHeader(table.Row{"Year", "Distance", "Sessions"})
	years.AppendRow(table.Row{
		r.Current.Year,
		fmt.Sprintf("%.1f km", r.Current.TotalDistanceMeters/1000),
		r.Current.TotalSessionCount,
	})
	if r.Previous != nil {
		years.AppendRow(table.Row{
			r.Previous.Year,
			fmt.Sprintf("%.1f km", r.Previous.TotalDistanceMeters/1000),
			r.Previous.TotalSessionCount,
		})
	}
	years.SetStyle(table.StyleRounded)
	years.Render()

	return nil
}
