package enums

import "fmt"

// SharePermission controls what a recipient may do with a shared item.
type SharePermission string

const (
	SharePermissionView SharePermission = "view"
	SharePermissionEdit SharePermission = "edit"
)

var validSharePermissions = []SharePermission{
	SharePermissionView,
	SharePermissionEdit,
}

// String implements fmt.Stringer.
func (p SharePermission) String() string {
	return string(p)
}

// IsValid reports whether the value matches a known SharePermission.
func (p SharePermission) IsValid() bool {
	for _, candidate := range validSharePermissions {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseSharePermission converts raw input into a SharePermission.
func ParseSharePermission(value string) (SharePermission, error) {
	for _, candidate := range validSharePermissions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid share permission %q", value)
}
