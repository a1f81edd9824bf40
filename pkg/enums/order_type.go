package enums

import "fmt"

// OrderType distinguishes web checkouts from point-of-sale ones.
type OrderType string

const (
	OrderTypeOnline OrderType = "online"
	OrderTypePOS    OrderType = "pos"
)

var validOrderTypes = []OrderType{
	OrderTypeOnline,
	OrderTypePOS,
}

// String implements fmt.Stringer.
func (o OrderType) String() string {
	return string(o)
}

// IsValid reports whether the value is known.
func (o OrderType) IsValid() bool {
	for _, candidate := range validOrderTypes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderType converts raw input into an OrderType.
func ParseOrderType(value string) (OrderType, error) {
	for _, candidate := range validOrderTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order type %q", value)
}
