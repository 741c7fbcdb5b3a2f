package log

// Attribute keys shared by every component.
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldQuery         = "query"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldUserAgent     = "user_agent"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldPeriod        = "period"
	FieldTransactionID = "transaction_id"
	FieldType          = "type"
	FieldCategory      = "category"
	FieldAmount        = "amount"
	FieldBackend       = "backend"
)

const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentStorage  = "storage"
	ComponentWorker   = "worker"
	ComponentCache    = "cache"
	ComponentOverdue  = "overdue"
	ComponentSecurity = "security"
)

const (
	OpCreate = "create"
	OpToggle = "toggle_payment_status"
	OpDelete = "delete"
	OpExport = "export"
	OpSync   = "sync"
)

// Attrs is an ordered list of key/value pairs ready to pass to slog.
// Empty optional values are left out.
type Attrs []any

func (a Attrs) Add(key string, value any) Attrs {
	return append(a, key, value)
}

// AddString appends key only when value is not empty.
func (a Attrs) AddString(key, value string) Attrs {
	if value == "" {
		return a
	}
	return append(a, key, value)
}

// AddError appends the error text; a nil error is skipped.
func (a Attrs) AddError(err error) Attrs {
	if err == nil {
		return a
	}
	return append(a, FieldError, err.Error())
}

// Transaction appends the identifying attributes of a ledger entry.
func (a Attrs) Transaction(id, txType, category, amount string) Attrs {
	return append(a,
		FieldTransactionID, id,
		FieldType, txType,
		FieldCategory, category,
		FieldAmount, amount)
}
