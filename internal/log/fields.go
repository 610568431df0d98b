package log

// Common field names for structured logging
const (
	FieldComponent    = "component"
	FieldRequestID    = "request_id"
	FieldScanID       = "scan_id"
	FieldMethod       = "method"
	FieldPath         = "path"
	FieldStatusCode   = "status_code"
	FieldDuration     = "duration_ms"
	FieldSuccess      = "success"
	FieldError        = "error"
	FieldOperation    = "operation"
	FieldSource       = "source"
	FieldDocument     = "document"
	FieldDocuments    = "documents"
	FieldFilter       = "filter"
	FieldToday        = "today"
	FieldMatches      = "matches"
	FieldTransactions = "transactions"
	FieldFallbacks    = "category_fallbacks"
	FieldFaults       = "faults"
	FieldRawDate      = "raw_date"
	FieldRawAmount    = "raw_amount"
	FieldTotal        = "total"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentScan    = "scan"
	ComponentSource  = "source"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentCLI     = "cli"
)

// Operations defines standard operation names
const (
	OpExtract   = "extract"
	OpNormalize = "normalize"
	OpAggregate = "aggregate"
	OpLoad      = "load"
	OpRecord    = "record"
	OpPublish   = "publish"
	OpConsume   = "consume"
	OpRender    = "render"
	OpShutdown  = "shutdown"
	OpStartup   = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithDocument adds the source document name
func (f LogFields) WithDocument(name string) LogFields {
	f[FieldDocument] = name
	return f
}

// WithScan adds the counters of a finished scan
func (f LogFields) WithScan(documents, matches, transactions, fallbacks, faults int) LogFields {
	f[FieldDocuments] = documents
	f[FieldMatches] = matches
	f[FieldTransactions] = transactions
	f[FieldFallbacks] = fallbacks
	f[FieldFaults] = faults
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
