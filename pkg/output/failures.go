package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sdejongh/dedupnorris/pkg/models"
)

// WriteFailureReport writes the per-file failures of a run to a file.
// Format can be "human" or "json". Nothing is written when there are no failures.
func WriteFailureReport(report *models.RunReport, path string, format string) error {
	if len(report.Failures) == 0 {
		return nil
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create failure report: %w", err)
	}
	defer file.Close()

	switch format {
	case "json":
		err = writeFailuresJSON(report, file)
	default: // "human"
		err = writeFailuresHuman(report, file)
	}
	if err != nil {
		return fmt.Errorf("failed to write failure report: %w", err)
	}
	return file.Close()
}

func writeFailuresHuman(report *models.RunReport, w io.Writer) error {
	fmt.Fprintf(w, "Failure Report\n")
	fmt.Fprintf(w, "==============\n\n")
	fmt.Fprintf(w, "Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(w, "Run: %s\n", report.OperationID)
	fmt.Fprintf(w, "Mode: %s\n", report.Mode)
	fmt.Fprintf(w, "Source: %s\n", report.SourcePath)
	if report.DestPath != "" {
		fmt.Fprintf(w, "Destination: %s\n", report.DestPath)
	}
	fmt.Fprintf(w, "Dry Run: %v\n\n", report.DryRun)
	fmt.Fprintf(w, "Total Failures: %d\n\n", len(report.Failures))

	byStage := make(map[models.Action][]models.Failure)
	for _, fail := range report.Failures {
		byStage[fail.Stage] = append(byStage[fail.Stage], fail)
	}

	stageOrder := []models.Action{models.ActionHash, models.ActionMove, models.ActionDelete, models.ActionSkip}
	stageLabels := map[models.Action]string{
		models.ActionHash:   "Unreadable Files",
		models.ActionMove:   "Move Failures",
		models.ActionDelete: "Delete Failures",
		models.ActionSkip:   "Other",
	}

	for _, stage := range stageOrder {
		fails := byStage[stage]
		if len(fails) == 0 {
			continue
		}

		label := fmt.Sprintf("%s (%d files)", stageLabels[stage], len(fails))
		fmt.Fprintf(w, "%s\n%s\n", label, strings.Repeat("-", len(label)))
		for _, fail := range fails {
			fmt.Fprintf(w, "  %s\n    %s\n", fail.Path, fail.Message())
		}
		fmt.Fprintf(w, "\n")
	}

	return nil
}

func writeFailuresJSON(report *models.RunReport, w io.Writer) error {
	data := newJSONReport(report, nil)
	out := struct {
		Generated   string            `json:"generated"`
		OperationID string            `json:"operation_id"`
		Mode        string            `json:"mode"`
		Source      string            `json:"source"`
		Destination string            `json:"destination,omitempty"`
		DryRun      bool              `json:"dry_run"`
		TotalCount  int               `json:"total_count"`
		Failures    []JSONFailureData `json:"failures"`
	}{
		Generated:   time.Now().Format(time.RFC3339),
		OperationID: data.OperationID,
		Mode:        data.Mode,
		Source:      data.Source,
		Destination: data.Destination,
		DryRun:      data.DryRun,
		TotalCount:  len(data.Failures),
		Failures:    data.Failures,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}
