package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldBackend    = "backend"
	FieldTxnID      = "transaction_id"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentStore   = "store"
	ComponentBackend = "backend"
)

// Operations defines standard operation names
const (
	OpList     = "list"
	OpCreate   = "create"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpStats    = "stats"
	OpMonthly  = "monthly_expenses"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
