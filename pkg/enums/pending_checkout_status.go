package enums

import "fmt"

// PendingCheckoutStatus tracks a staged checkout awaiting payment confirmation.
type PendingCheckoutStatus string

const (
	PendingCheckoutStatusPending   PendingCheckoutStatus = "pending"
	PendingCheckoutStatusCompleted PendingCheckoutStatus = "completed"
	PendingCheckoutStatusFailed    PendingCheckoutStatus = "failed"
)

var validPendingCheckoutStatuses = []PendingCheckoutStatus{
	PendingCheckoutStatusPending,
	PendingCheckoutStatusCompleted,
	PendingCheckoutStatusFailed,
}

// String implements fmt.Stringer.
func (p PendingCheckoutStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is known.
func (p PendingCheckoutStatus) IsValid() bool {
	for _, candidate := range validPendingCheckoutStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePendingCheckoutStatus converts raw input into a PendingCheckoutStatus.
func ParsePendingCheckoutStatus(value string) (PendingCheckoutStatus, error) {
	for _, candidate := range validPendingCheckoutStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pending checkout status %q", value)
}
