package enums

import "fmt"

// ShareItemType identifies which kind of record a share request or grant
// points at.
type ShareItemType string

const (
	ShareItemGame       ShareItemType = "game"
	ShareItemMatch      ShareItemType = "match"
	ShareItemPlayer     ShareItemType = "player"
	ShareItemLocation   ShareItemType = "location"
	ShareItemScoresheet ShareItemType = "scoresheet"
)

var validShareItemTypes = []ShareItemType{
	ShareItemGame,
	ShareItemMatch,
	ShareItemPlayer,
	ShareItemLocation,
	ShareItemScoresheet,
}

// String implements fmt.Stringer.
func (s ShareItemType) String() string {
	return string(s)
}

// IsValid reports whether the value matches a known ShareItemType.
func (s ShareItemType) IsValid() bool {
	for _, candidate := range validShareItemTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseShareItemType converts raw input into a ShareItemType.
func ParseShareItemType(value string) (ShareItemType, error) {
	for _, candidate := range validShareItemTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid share item type %q", value)
}
