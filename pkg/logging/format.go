package logging

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Format represents the log output format
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// ParseFormat maps a config value to a Format, defaulting to text
func ParseFormat(s string) Format {
	if strings.EqualFold(s, string(FormatJSON)) {
		return FormatJSON
	}
	return FormatText
}

func mergeFields(base, extra Fields) Fields {
	merged := make(Fields, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}

// formatEntry renders one log line, newline included
func formatEntry(format Format, now time.Time, level Level, msg string, err error, fields Fields) ([]byte, error) {
	if format == FormatJSON {
		return formatJSON(now, level, msg, err, fields)
	}
	return formatText(now, level, msg, err, fields), nil
}

func formatJSON(now time.Time, level Level, msg string, err error, fields Fields) ([]byte, error) {
	entry := map[string]interface{}{
		"timestamp": now.UTC().Format(time.RFC3339),
		"level":     level.String(),
		"message":   msg,
	}

	if err != nil {
		entry["error"] = err.Error()
	}

	for k, v := range fields {
		entry[k] = v
	}

	data, jsonErr := json.Marshal(entry)
	if jsonErr != nil {
		return nil, jsonErr
	}

	return append(data, '\n'), nil
}

// formatText writes "timestamp [LEVEL] message error=... key=value", keys sorted
func formatText(now time.Time, level Level, msg string, err error, fields Fields) []byte {
	var b strings.Builder
	b.WriteString(now.UTC().Format("2006-01-02T15:04:05.000Z"))
	fmt.Fprintf(&b, " [%s] %s", level.String(), msg)

	if err != nil {
		fmt.Fprintf(&b, " error=%q", err.Error())
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}

	b.WriteByte('\n')
	return []byte(b.String())
}
