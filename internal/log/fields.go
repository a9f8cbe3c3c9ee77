package log

// Common field names for structured logging
const (
	FieldComponent        = "component"
	FieldRequestID        = "request_id"
	FieldClientIP         = "client_ip"
	FieldMethod           = "method"
	FieldPath             = "path"
	FieldQuery            = "query"
	FieldStatusCode       = "status_code"
	FieldDuration         = "duration_ms"
	FieldUserAgent        = "user_agent"
	FieldReferer          = "referer"
	FieldSuccess          = "success"
	FieldError            = "error"
	FieldOperation        = "operation"
	FieldSource           = "source"
	FieldDateRange        = "date_range"
	FieldTransactions     = "transactions"
	FieldCustomers        = "customers"
	FieldInvalidAmounts   = "invalid_amounts"
	FieldNonPositive      = "non_positive_amounts"
	FieldInvalidDates     = "invalid_dates"
	FieldUnknownCustomers = "unknown_customers"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentRewards   = "rewards"
	ComponentSource    = "source"
	ComponentCache     = "cache"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentReport    = "report"
)

// Operations defines standard operation names
const (
	OpLoad       = "load"
	OpAggregate  = "aggregate"
	OpCompute    = "compute"
	OpInvalidate = "invalidate"
	OpParse      = "parse"
	OpShutdown   = "shutdown"
	OpStartup    = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeSource        = "source_error"
	ErrorTypeTimeout       = "timeout_error"
	ErrorTypeInternal      = "internal_error"
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

// WithRequestID adds request ID field
func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

// WithClientIP adds client IP field
func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
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

// WithSource adds the transaction source name
func (f LogFields) WithSource(name string) LogFields {
	f[FieldSource] = name
	return f
}

// WithDateRange adds the date range key
func (f LogFields) WithDateRange(key string) LogFields {
	f[FieldDateRange] = key
	return f
}

// WithInputQuality adds data quality counters for a transaction batch
func (f LogFields) WithInputQuality(transactions, invalidAmounts, nonPositive, invalidDates, unknownCustomers int) LogFields {
	f[FieldTransactions] = transactions
	f[FieldInvalidAmounts] = invalidAmounts
	f[FieldNonPositive] = nonPositive
	f[FieldInvalidDates] = invalidDates
	f[FieldUnknownCustomers] = unknownCustomers
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, query, userAgent, referer string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	f[FieldUserAgent] = userAgent
	f[FieldReferer] = referer
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
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
