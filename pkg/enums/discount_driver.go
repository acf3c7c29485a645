package enums

import "fmt"

// DiscountDriver names the bundle discount field the seller edits last. The
// other discount field is always derived from it.
type DiscountDriver string

const (
	DiscountDriverNone       DiscountDriver = "none"
	DiscountDriverAmount     DiscountDriver = "amount"
	DiscountDriverPercentage DiscountDriver = "percentage"
)

var validDiscountDrivers = []DiscountDriver{
	DiscountDriverNone,
	DiscountDriverAmount,
	DiscountDriverPercentage,
}

// String implements fmt.Stringer.
func (d DiscountDriver) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DiscountDriver.
func (d DiscountDriver) IsValid() bool {
	for _, candidate := range validDiscountDrivers {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDiscountDriver converts raw input into a DiscountDriver. Empty input
// means no discount.
func ParseDiscountDriver(value string) (DiscountDriver, error) {
	if value == "" {
		return DiscountDriverNone, nil
	}
	for _, candidate := range validDiscountDrivers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid discount driver %q", value)
}
