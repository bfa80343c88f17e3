package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/sdejongh/dedupnorris/pkg/models"
)

// JSONFormatter prints a single JSON document at the end of the run
type JSONFormatter struct {
	writer io.Writer
	errors []string
}

// JSONReportData represents the final report document
type JSONReportData struct {
	OperationID     string            `json:"operation_id"`
	Mode            string            `json:"mode"`
	Source          string            `json:"source"`
	Destination     string            `json:"destination,omitempty"`
	DryRun          bool              `json:"dry_run"`
	Interrupted     bool              `json:"interrupted,omitempty"`
	Status          string            `json:"status"`
	ExitCode        int               `json:"exit_code"`
	Duration        string            `json:"duration"`
	DurationMs      int64             `json:"duration_ms"`
	Stats           models.Statistics `json:"stats"`
	ReportPath      string            `json:"report_path,omitempty"`
	NoCreationDate  []string          `json:"no_creation_date,omitempty"`
	MissingSidecars []string          `json:"missing_sidecars,omitempty"`
	OrphanSidecars  []string          `json:"orphan_sidecars,omitempty"`
	Failures        []JSONFailureData `json:"failures,omitempty"`
	Errors          []string          `json:"errors,omitempty"`
}

// JSONFailureData represents a per-file failure
type JSONFailureData struct {
	Path  string `json:"path"`
	Stage string `json:"stage"`
	Error string `json:"error"`
}

// NewJSONFormatter creates a JSON formatter. A nil writer is stdout.
func NewJSONFormatter(writer io.Writer) *JSONFormatter {
	if writer == nil {
		writer = os.Stdout
	}
	return &JSONFormatter{writer: writer}
}

// Start is silent to keep the output parseable
func (f *JSONFormatter) Start(stage string, total int, maxWorkers int) error {
	return nil
}

// Progress is silent to keep the output parseable
func (f *JSONFormatter) Progress(update ProgressUpdate) error {
	return nil
}

// Complete writes the report document
func (f *JSONFormatter) Complete(report *models.RunReport) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(newJSONReport(report, f.errors))
}

func newJSONReport(report *models.RunReport, errors []string) JSONReportData {
	data := JSONReportData{
		OperationID:     report.OperationID,
		Mode:            string(report.Mode),
		Source:          report.SourcePath,
		Destination:     report.DestPath,
		DryRun:          report.DryRun,
		Interrupted:     report.Interrupted,
		Status:          string(report.Status),
		ExitCode:        report.Status.ExitCode(),
		Duration:        report.Duration.Round(time.Millisecond).String(),
		DurationMs:      report.Duration.Milliseconds(),
		Stats:           report.Stats,
		ReportPath:      report.ReportPath,
		NoCreationDate:  report.NoCreationDate,
		MissingSidecars: report.MissingSidecars,
		OrphanSidecars:  report.OrphanSidecars,
		Errors:          errors,
	}
	for _, fail := range report.Failures {
		data.Failures = append(data.Failures, JSONFailureData{
			Path:  fail.Path,
			Stage: string(fail.Stage),
			Error: fail.Message(),
		})
	}
	return data
}

// Error records a run-level error for the final document
func (f *JSONFormatter) Error(err error) error {
	f.errors = append(f.errors, err.Error())
	return nil
}

// Name returns the formatter name
func (f *JSONFormatter) Name() string {
	return "json"
}
