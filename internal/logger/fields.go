package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Tracing fields, propagated through the call chain via context.
const (
	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldDownloadID is the download job ID
	FieldDownloadID = "download_id"

	// FieldComponent is the component/module name
	FieldComponent = "component"

	// FieldURL is the media URL a job was submitted for
	FieldURL = "url"
)

// Metric fields, attached per entry for aggregation and alerting.
const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldCount is a generic count field
	FieldCount = "count"

	// FieldSize is the data size in bytes
	FieldSize = "size"

	// FieldStatus is the operation status
	FieldStatus = "status"

	// FieldExitCode is the exit code of a child process
	FieldExitCode = "exit_code"
)
