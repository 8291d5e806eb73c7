package logger

import (
	"log/slog"

	"github.com/lmittmann/tint"

	"reqfail/pkg/failure"
)

// FailureKey is the group key of attributes built by Failure.
const FailureKey = "failure"

// Failure describes err as a request failure: its category, the kind that
// matched and the message. Errors no category claims are logged with
// category Unknown and no kind.
func Failure(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	c, k := failure.Classify(err)
	attrs := []any{slog.String("category", c.String())}
	if k != "" {
		attrs = append(attrs, slog.String("kind", string(k)))
	}
	attrs = append(attrs, slog.String("error", err.Error()))
	return slog.Group(FailureKey, attrs...)
}

var categoryColors = map[string]uint8{
	failure.Timeout.String():    11,
	failure.Connection.String(): 13,
	failure.Protocol.String():   9,
}

// colorFailures highlights the category of a Failure group on the console.
func colorFailures(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 || groups[len(groups)-1] != FailureKey || a.Key != "category" {
		return a
	}
	if color, ok := categoryColors[a.Value.String()]; ok {
		return tint.Attr(color, a)
	}
	return a
}
