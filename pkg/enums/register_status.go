package enums

import "fmt"

// RegisterStatus tracks whether a cash register session is open for sales.
type RegisterStatus string

const (
	RegisterStatusOpen   RegisterStatus = "open"
	RegisterStatusClosed RegisterStatus = "closed"
)

var validRegisterStatuses = []RegisterStatus{
	RegisterStatusOpen,
	RegisterStatusClosed,
}

// String implements fmt.Stringer.
func (r RegisterStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is known.
func (r RegisterStatus) IsValid() bool {
	for _, candidate := range validRegisterStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRegisterStatus converts raw input into a RegisterStatus.
func ParseRegisterStatus(value string) (RegisterStatus, error) {
	for _, candidate := range validRegisterStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid register status %q", value)
}
