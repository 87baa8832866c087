package logging

import "log/slog"

// Common field names for consistent logging across handlers and services.
const (
	FieldService  = "service"
	FieldCaseID   = "case_id"
	FieldUserID   = "user_id"
	FieldMethod   = "method"
	FieldPath     = "path"
	FieldStatus   = "status"
	FieldDuration = "duration_ms"
	FieldError    = "error"
	FieldProvider = "provider"
	FieldModel    = "model"
)

// Service returns a slog attribute for the service name.
func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

// CaseID returns a slog attribute for a case ID.
func CaseID(id int64) slog.Attr {
	return slog.Int64(FieldCaseID, id)
}

// UserID returns a slog attribute for the acting user's ID.
func UserID(id int64) slog.Attr {
	return slog.Int64(FieldUserID, id)
}

// Method returns a slog attribute for the HTTP method.
func Method(method string) slog.Attr {
	return slog.String(FieldMethod, method)
}

// Path returns a slog attribute for the HTTP path.
func Path(path string) slog.Attr {
	return slog.String(FieldPath, path)
}

// Status returns a slog attribute for the HTTP status code.
func Status(code int) slog.Attr {
	return slog.Int(FieldStatus, code)
}

// Duration returns a slog attribute for duration in milliseconds.
func Duration(ms int64) slog.Attr {
	return slog.Int64(FieldDuration, ms)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}

// Provider returns a slog attribute for the LLM provider name.
func Provider(name string) slog.Attr {
	return slog.String(FieldProvider, name)
}

// Model returns a slog attribute for the LLM model name.
func Model(name string) slog.Attr {
	return slog.String(FieldModel, name)
}
