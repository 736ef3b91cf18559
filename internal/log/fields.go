package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldChatID      = "chat_id"
	FieldMessageID   = "message_id"
	FieldCommand     = "command"
	FieldExpenseID   = "expense_id"
	FieldAmount      = "amount"
	FieldDescription = "description"
	FieldDate        = "date"
	FieldLimit       = "limit"
	FieldPeriod      = "period"
	FieldPath        = "path"
	FieldDriver      = "driver"
	FieldStack       = "stack"
	FieldTask        = "task"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentStorage   = "storage"
	ComponentLedger    = "ledger"
	ComponentBot       = "bot"
	ComponentTelegram  = "telegram"
	ComponentAMQP      = "amqp"
	ComponentScheduler = "scheduler"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpExport   = "export"
	OpReport   = "report"
	OpConnect  = "connect"
	OpMigrate  = "migrate"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)
