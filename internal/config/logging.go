package config

import "strings"

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

// NormalizeLogFormat case-folds raw; unknown values are returned as given so
// validation can reject them.
func NormalizeLogFormat(raw string) LogFormat {
	return LogFormat(strings.ToLower(strings.TrimSpace(raw)))
}
