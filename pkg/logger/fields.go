package logger

// Log field names shared across packages so one query finds a post's lines everywhere.
// 跨包共用的日志字段名
const (
	FieldTraceID = "traceId"
	FieldUID     = "uid"

	// FieldPID post id
	FieldPID = "pid"
	// FieldTimestamp revision timestamp in ms
	FieldTimestamp = "ts"
	// FieldOperation store operation, e.g. "history.load"
	FieldOperation = "operation"

	FieldMethod   = "method"
	FieldDuration = "duration"
)
