package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// YearlyReport is the running summary of one calendar year.
type YearlyReport struct {
	Year                int
	TotalDistanceMeters float64
	TotalSessionCount   int
}

type reportQuery struct {
	From          string   `json:"from"`
	To            string   `json:"to"`
	Sport         []string `json:"sport"`
	BarType       string   `json:"barType"`
	Group         string   `json:"group"`
	Report        string   `json:"report"`
	ReportSubtype string   `json:"reportSubtype"`
	TimeFrame     string   `json:"timeFrame"`
}

func formatDate(day int, month time.Month, year int) string {
	return fmt.Sprintf("%02d-%02d-%d", day, int(month), year)
}

// reportRange returns the from and to dates (dd-mm-yyyy) for a year. The current
// year stops at today so nothing in the future is queried, any other year covers
// January 1 to December 31.
func reportRange(year int, now time.Time) (string, string) {
	from := formatDate(1, time.January, year)
	if year == now.Year() {
		return from, formatDate(now.Day(), now.Month(), year)
	}
	return from, formatDate(31, time.December, year)
}

func newReportQuery(year int, now time.Time) reportQuery {
	from, to := reportRange(year, now)
	return reportQuery{
		From:          from,
		To:            to,
		Sport:         []string{"RUNNING"},
		BarType:       "distance",
		Group:         "week",
		Report:        "time",
		ReportSubtype: "training",
		TimeFrame:     "year",
	}
}

type reportResponse struct {
	ProgressContainer *struct {
		TrainingReportSummary *struct {
			TotalDistance             *float64 `json:"totalDistance"`
			TotalTrainingSessionCount *float64 `json:"totalTrainingSessionCount"`
		} `json:"trainingReportSummary"`
	} `json:"progressContainer"`
}

func parseReport(body []byte, status int, year int) (YearlyReport, error) {
	var res reportResponse
	err := json.Unmarshal(body, &res)
	if err != nil {
		return YearlyReport{}, &ReportFormatError{StatusCode: status, Err: err}
	}

	if res.ProgressContainer == nil {
		return YearlyReport{}, &ReportFormatError{Field: "progressContainer", StatusCode: status}
	}
	summary := res.ProgressContainer.TrainingReportSummary
	if summary == nil {
		return YearlyReport{}, &ReportFormatError{Field: "progressContainer.trainingReportSummary", StatusCode: status}
	}
	if summary.TotalDistance == nil {
		return YearlyReport{}, &ReportFormatError{Field: "progressContainer.trainingReportSummary.totalDistance", StatusCode: status}
	}
	if summary.TotalTrainingSessionCount == nil {
		return YearlyReport{}, &ReportFormatError{Field: "progressContainer.trainingReportSummary.totalTrainingSessionCount", StatusCode: status}
	}

	return YearlyReport{
		Year:                year,
		TotalDistanceMeters: *summary.TotalDistance,
		TotalSessionCount:   int(math.Round(*summary.TotalTrainingSessionCount)),
	}, nil
}

// FetchYearlyReport queries the running totals for `year`, every call is a new request.
func (s *Session) FetchYearlyReport(ctx context.Context, year int) (YearlyReport, error) {
	ctx, span := tracer.Start(ctx, "session:FetchYearlyReport")
	defer span.End()
	span.SetAttributes(attribute.Int("year", year))

	c := s.client
	query := newReportQuery(year, c.clock.Now())
	c.tel.ReportDebug(report_client_fetch_yearly_report, query.From, query.To)

	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("x-requested-with", "XMLHttpRequest").
		SetBody(query).
		Post(c.endpoints.YearReport)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch report")
		c.tel.ReportBroken(
			report_client_fetch_yearly_report,
			fmt.Errorf("fetch: %w", err),
			year,
		)
		return YearlyReport{}, fmt.Errorf("flow scraper: fetch report for %d: %w", year, err)
	}

	if res.StatusCode() != http.StatusOK {
		err := &ReportFormatError{StatusCode: res.StatusCode()}
		span.SetStatus(codes.Error, err.Error())
		c.tel.ReportBroken(report_client_fetch_yearly_report, err, year)
		return YearlyReport{}, err
	}

	report, err := parseReport(res.Body(), res.StatusCode(), year)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse report")
		c.tel.ReportBroken(report_client_fetch_yearly_report, err, year)
		return YearlyReport{}, err
	}

	c.tel.ReportCount("sessions", int64(report.TotalSessionCount))
	return report, nil
}
