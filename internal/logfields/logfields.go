package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyTask       = "task"
	KeyStep       = "step"
	KeyRunID      = "run_id"
	KeyState      = "state"
	KeyPath       = "path"
	KeyArtifact   = "artifact"
	KeyTool       = "tool"
	KeyDurationMS = "duration_ms"
	KeyCommit     = "commit"
	KeyRepository = "repository"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Task(name string) slog.Attr      { return slog.String(KeyTask, name) }
func Step(name string) slog.Attr      { return slog.String(KeyStep, name) }
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func State(s string) slog.Attr        { return slog.String(KeyState, s) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Artifact(p string) slog.Attr     { return slog.String(KeyArtifact, p) }
func Tool(name string) slog.Attr      { return slog.String(KeyTool, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Commit(hash string) slog.Attr    { return slog.String(KeyCommit, hash) }
func Repository(r string) slog.Attr   { return slog.String(KeyRepository, r) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
