package domain

// Intent is the classified purpose of a recognized voice command.
type Intent string

const (
	IntentTransfer     Intent = "transfer"
	IntentBalance      Intent = "balance"
	IntentTransactions Intent = "transactions"
	IntentChangePIN    Intent = "change_pin"
	IntentUnknown      Intent = "unknown"
)
