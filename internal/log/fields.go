package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldChatID      = "chat_id"
	FieldUserID      = "user_id"
	FieldCommand     = "command"
	FieldArgs        = "args"
	FieldCategory    = "category"
	FieldType        = "category_type"
	FieldAmountCents = "amount_cents"
	FieldOperationID = "operation_id"
	FieldYear        = "year"
	FieldMonth       = "month"
	FieldError       = "error"
	FieldDuration    = "duration_ms"
	FieldQueue       = "queue"
	FieldExchange    = "exchange"
)

// Components defines standard component names
const (
	ComponentApp        = "app"
	ComponentGateway    = "gateway"
	ComponentDispatcher = "dispatcher"
	ComponentLedger     = "ledger"
	ComponentStorage    = "storage"
	ComponentAMQP       = "amqp"
	ComponentWorker     = "worker"
)
