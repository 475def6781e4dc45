package enum

// ── Order statuses (lowercase on the wire, matching the gateway contract) ──

const (
	OrderStatusPending   = "pending"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusPaid      = "paid"
	OrderStatusCancelled = "cancelled"
	OrderStatusCompleted = "completed"
)

// ── Menu option kinds ──

const (
	OptionKindSugar       = "sugar"
	OptionKindTemperature = "temperature"
	OptionKindSize        = "size"
	OptionKindCustom      = "custom"
	OptionKindCheckbox    = "checkbox"
)

// ── Client roles ──

const (
	RoleBarista  = "barista"
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)
