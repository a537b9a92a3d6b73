package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"flowprogress/internal/components/chrono"
	"flowprogress/internal/scrapers/flow"
	"flowprogress/internal/scrapers/flow/flowtest"
	"flowprogress/internal/settings"

	"github.com/stretchr/testify/require"
)

// July 1st 2023 is day 182.
var testNow = time.Date(2023, time.July, 1, 8, 0, 0, 0, time.UTC)

func fixedClock(string) (chrono.API, error) {
	return chrono.FixedImpl{Time: testNow}, nil
}

func newFakeFlow(t testing.TB, opts flowtest.Options) *flowtest.Server {
	if opts.Email == "" {
		opts.Email = "runner@example.com"
		opts.Password = "hunter2"
	}
	server := flowtest.NewServer(opts)
	t.Cleanup(server.Close)
	return server
}

func writeConfig(t testing.TB, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "progress_settings.json")
	err := os.WriteFile(path, []byte(contents), 0600)
	if err != nil {
		t.Fatal(err)
	}
	return path
}

func validConfig(t testing.TB, baseUrl string) string {
	return writeConfig(t, fmt.Sprintf(`{
		"login": "runner@example.com",
		"password": "hunter2",
		"goal": 1000,
		"base_url": %q
	}`, baseUrl))
}

func execute(t testing.TB, args ...string) (string, error) {
	t.Chdir(t.TempDir())

	var stdout bytes.Buffer
	cmd := newRootCommand(fixedClock)
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestReport(t *testing.T) {
	server := newFakeFlow(t, flowtest.Options{
		Reports: map[int]*flowtest.Summary{
			2023: {TotalDistance: 500000, TotalTrainingSessionCount: 61},
			2022: {TotalDistance: 1203400, TotalTrainingSessionCount: 140},
		},
	})

	out, err := execute(t, "--config", validConfig(t, server.URL))
	require.NoError(t, err)

	require.Equal(t, strings.Join([]string{
		"Target: 1000 km",
		"Daily target: 2.74 km/day",
		"Effective daily average: 2.75 km/day",
		"Expected distance to date: 498.6 km",
		"Achieved distance: 500.0 km or 50.0% of target",
		"You are 1.4 km or 0.5 days ahead of schedule",
		"This year:  500.0 km in  61 sessions",
		"Last year: 1203.4 km in 140 sessions",
		"Extrapolated result: 1002.7 km at the end of the year",
	}, "\n")+"\n", out)

	queries := server.Queries()
	require.Len(t, queries, 2)
	require.Equal(t, "01-07-2023", queries[0].To)
	require.Equal(t, "31-12-2022", queries[1].To)
}

func TestReportNoPreviousTable(t *testing.T) {
	server := newFakeFlow(t, flowtest.Options{
		Reports: map[int]*flowtest.Summary{
			2023: {TotalDistance: 100000, TotalTrainingSessionCount: 9},
		},
	})

	out, err := execute(t, "--config", validConfig(t, server.URL), "--no-previous", "--format", "table")
	require.NoError(t, err)
	require.Contains(t, out, "100.0 km (10.0%)")
	require.Len(t, server.Queries(), 1)
}

func TestMissingGoal(t *testing.T) {
	server := newFakeFlow(t, flowtest.Options{})
	path := writeConfig(t, fmt.Sprintf(`{"login": "a", "password": "b", "base_url": %q}`, server.URL))

	out, err := execute(t, "--config", path)
	var cfgErr *settings.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	require.Equal(t, "goal", cfgErr.Field)
	require.Empty(t, out)
	require.Equal(t, 0, server.Requests())
}

func TestLoginPageChanged(t *testing.T) {
	server := newFakeFlow(t, flowtest.Options{
		LoginPage: `<html><body><form></form></body></html>`,
	})

	out, err := execute(t, "--config", validConfig(t, server.URL))
	var pageErr *flow.AuthPageFormatError
	require.True(t, errors.As(err, &pageErr))
	require.Empty(t, out)
	require.Equal(t, 0, server.LoginPosts())
}

func TestReportShapeChanged(t *testing.T) {
	server := newFakeFlow(t, flowtest.Options{
		RawReport: `{"progressContainer": {"somethingElse": {}}}`,
	})

	out, err := execute(t, "--config", validConfig(t, server.URL))
	var reportErr *flow.ReportFormatError
	require.True(t, errors.As(err, &reportErr))
	require.Equal(t, "progressContainer.trainingReportSummary", reportErr.Field)
	require.Empty(t, out)
}

func TestPreviousYearFailureLeavesNoOutput(t *testing.T) {
	server := newFakeFlow(t, flowtest.Options{
		Reports: map[int]*flowtest.Summary{
			2023: {TotalDistance: 500000, TotalTrainingSessionCount: 61},
		},
	})

	out, err := execute(t, "--config", validConfig(t, server.URL))
	require.Error(t, err)
	require.Empty(t, out)
}

func TestUnknownFormat(t *testing.T) {
	_, err := execute(t, "--format", "xml")
	require.ErrorContains(t, err, "unknown format")
}

func TestVerboseWritesDumps(t *testing.T) {
	server := newFakeFlow(t, flowtest.Options{
		Reports: map[int]*flowtest.Summary{
			2023: {TotalDistance: 500000, TotalTrainingSessionCount: 61},
		},
	})
	config := validConfig(t, server.URL)
	dumps := filepath.Join(t.TempDir(), "dumps")

	_, err := execute(t, "--config", config, "--no-previous", "--verbose", "--dump-dir", dumps)
	require.NoError(t, err)

	entries, err := os.ReadDir(dumps)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	login, err := os.ReadFile(filepath.Join(dumps, "2"))
	require.NoError(t, err)
	require.Contains(t, string(login), "password=<redacted>")
	require.NotContains(t, string(login), "hunter2")
}

func TestErrorAttrs(t *testing.T) {
	attrs := errorAttrs(&flow.AuthenticationError{StatusCode: 403})
	require.Contains(t, attrs, "authentication")
	require.Contains(t, attrs, 403)

	attrs = errorAttrs(fmt.Errorf("wrapped: %w", &flow.ReportFormatError{Field: "progressContainer"}))
	require.Contains(t, attrs, "progressContainer")

	attrs = errorAttrs(&settings.ConfigError{Path: "x.json", Field: "goal", Err: errors.New("missing")})
	require.Contains(t, attrs, "goal")
}
