package constants

// EventType is the kind of receipt lifecycle event published after a commit.
type EventType string

// Stable values (consumers match on these exact strings).
const (
	EventReceiptCreated      EventType = "receipt.created"
	EventReceiptUpdated      EventType = "receipt.updated"
	EventReceiptRecalculated EventType = "receipt.recalculated"
	EventReceiptDeleted      EventType = "receipt.deleted"
)

// ReceiptSource records how a receipt entered the system.
type ReceiptSource string

const (
	SourceImage  ReceiptSource = "IMAGE"
	SourceManual ReceiptSource = "MANUAL"
)
