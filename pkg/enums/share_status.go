package enums

import "fmt"

// ShareStatus captures the lifecycle of a share request node.
type ShareStatus string

const (
	ShareStatusPending  ShareStatus = "pending"
	ShareStatusAccepted ShareStatus = "accepted"
	ShareStatusRejected ShareStatus = "rejected"
)

var validShareStatuses = []ShareStatus{
	ShareStatusPending,
	ShareStatusAccepted,
	ShareStatusRejected,
}

// String implements fmt.Stringer.
func (s ShareStatus) String() string {
	return string(s)
}

// IsValid reports whether the value matches a known ShareStatus.
func (s ShareStatus) IsValid() bool {
	for _, candidate := range validShareStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status can no longer change.
func (s ShareStatus) IsTerminal() bool {
	return s == ShareStatusAccepted || s == ShareStatusRejected
}

// ParseShareStatus converts raw input into a ShareStatus.
func ParseShareStatus(value string) (ShareStatus, error) {
	for _, candidate := range validShareStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid share status %q", value)
}
