package enum

// --- Order lifecycle (CHECK constrained in DB) ---
//
// Orders only move forward: pending, preparing, ready, completed.
// Closing a bill force-completes from any non-terminal state.

const (
	OrderStatusPending   = "pending"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusCompleted = "completed"
)

// --- Account roles (CHECK constrained in DB) ---

const (
	RoleAdmin  = "ADMIN"
	RoleWaiter = "WAITER"
)

// --- Stock unit labels ---

const (
	UnitPiece    = "adet"
	UnitKilogram = "kg"
	UnitLiter    = "lt"
	UnitPortion  = "porsiyon"

	// UnitInactive marks the stock row of a soft-deleted product.
	UnitInactive = "pasif"
)

// NextOrderStatus returns the forward transition for a status, or "" when
// the status is terminal or unknown.
func NextOrderStatus(status string) string {
	switch status {
	case OrderStatusPending:
		return OrderStatusPreparing
	case OrderStatusPreparing:
		return OrderStatusReady
	case OrderStatusReady:
		return OrderStatusCompleted
	}
	return ""
}
