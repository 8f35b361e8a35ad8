// logfmt.go defines the closed set of log argument kinds used by Env.Log.
package wt

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// LogArg is a log argument. The set of implementations is closed.
type LogArg interface {
	logArg()
}

// LogText is a literal string.
type LogText string

// LogNumber is a numeric value.
type LogNumber float64

// LogDeferred is evaluated only when the record is actually emitted.
type LogDeferred func() LogArg

// LogCollection is a structured value rendered as JSON.
type LogCollection map[string]any

func (LogText) logArg()       {}
func (LogNumber) logArg()     {}
func (LogDeferred) logArg()   {}
func (LogCollection) logArg() {}

// FormatLogArg renders one argument.
func FormatLogArg(a LogArg) string {
	switch v := a.(type) {
	case LogText:
		return formatText(v)
	case LogNumber:
		return formatNumber(v)
	case LogDeferred:
		return formatDeferred(v)
	case LogCollection:
		return formatCollection(v)
	case nil:
		return ""
	}
	return fmt.Sprintf("%v", a)
}

// FormatLogArgs renders arguments separated by spaces.
func FormatLogArgs(args ...LogArg) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		parts = append(parts, FormatLogArg(a))
	}
	return strings.Join(parts, " ")
}

func formatText(v LogText) string {
	return string(v)
}

func formatNumber(v LogNumber) string {
	return strconv.FormatFloat(float64(v), 'f', -1, 64)
}

func formatDeferred(v LogDeferred) string {
	if v == nil {
		return ""
	}
	return FormatLogArg(v())
}

func formatCollection(v LogCollection) string {
	b, err := json.Marshal(map[string]any(v))
	if err != nil {
		return fmt.Sprintf("%v", map[string]any(v))
	}
	return string(b)
}
