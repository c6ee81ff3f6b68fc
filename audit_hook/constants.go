package audithook

// Action constants for audit events.
const (
	// Administrator actions
	ActionAdminAdded   = "admin.added"
	ActionAdminDeleted = "admin.deleted"

	// Configuration actions
	ActionTokenBound      = "token.bound"
	ActionLevelMinChanged = "level.min_changed"
	ActionSaleModified    = "sale.modified"
	ActionSaleDisabled    = "sale.disabled"
	ActionSaleEnabled     = "sale.enabled"

	// Allocation actions
	ActionAllocated          = "allocation.committed"
	ActionAllocationRejected = "allocation.rejected"
	ActionJournalFailed      = "journal.failed"
)

// Resource constants for audit events.
const (
	ResourceAdmin      = "admin"
	ResourceToken      = "token"
	ResourceLevel      = "level"
	ResourceSale       = "sale"
	ResourceAllocation = "allocation"
	ResourceJournal    = "journal"
)

// Category constants for audit events.
const (
	CategoryAccess     = "access"
	CategoryConfig     = "config"
	CategoryAllocation = "allocation"
	CategoryStorage    = "storage"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
