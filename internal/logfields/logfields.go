package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyPath       = "path"
	KeyOutput     = "output"
	KeyRoot       = "root"
	KeyProject    = "project"
	KeyBatchID    = "batch_id"
	KeyReason     = "reason"
	KeyCount      = "count"
	KeyRendered   = "rendered"
	KeySkipped    = "skipped"
	KeyFailed     = "failed"
	KeyDurationMS = "duration_ms"
	KeyOp         = "op"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyRequestID  = "request_id"
	KeyURL        = "url"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Output(p string) slog.Attr       { return slog.String(KeyOutput, p) }
func Root(p string) slog.Attr         { return slog.String(KeyRoot, p) }
func Project(n string) slog.Attr      { return slog.String(KeyProject, n) }
func BatchID(id string) slog.Attr     { return slog.String(KeyBatchID, id) }
func Reason(r string) slog.Attr       { return slog.String(KeyReason, r) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Rendered(n int) slog.Attr        { return slog.Int(KeyRendered, n) }
func Skipped(n int) slog.Attr         { return slog.Int(KeySkipped, n) }
func Failed(n int) slog.Attr          { return slog.Int(KeyFailed, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Op(op string) slog.Attr          { return slog.String(KeyOp, op) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func RequestID(id string) slog.Attr   { return slog.String(KeyRequestID, id) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
