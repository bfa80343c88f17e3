package output

import (
	"bufio"
	"fmt"
	"os"
)

// PathReportName is the default file name of the external-only report
const PathReportName = "onlyAsExternalFileAvailable.txt"

// PathReport writes one path per line, UTF-8, without a header
type PathReport struct {
	file   *os.File
	writer *bufio.Writer
	count  int
}

// CreatePathReport creates (or truncates) the report file
func CreatePathReport(path string) (*PathReport, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}
	return &PathReport{file: file, writer: bufio.NewWriter(file)}, nil
}

// Append adds one path
func (r *PathReport) Append(path string) error {
	if _, err := r.writer.WriteString(path + "\n"); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	r.count++
	return nil
}

// Count returns the number of paths written
func (r *PathReport) Count() int {
	return r.count
}

// Close flushes and closes the file
func (r *PathReport) Close() error {
	if err := r.writer.Flush(); err != nil {
		r.file.Close()
		return fmt.Errorf("failed to flush report: %w", err)
	}
	return r.file.Close()
}

// WritePathReport writes paths to a new report file
func WritePathReport(path string, paths []string) error {
	report, err := CreatePathReport(path)
	if err != nil {
		return err
	}
	for _, p := range paths {
		if err := report.Append(p); err != nil {
			report.Close()
			return err
		}
	}
	return report.Close()
}
