package enums

import (
	"fmt"
	"strings"
)

// RecordStatus marks stores and users as active or disabled.
type RecordStatus string

const (
	StatusActive   RecordStatus = "active"
	StatusInactive RecordStatus = "inactive"
)

var validRecordStatuses = []RecordStatus{
	StatusActive,
	StatusInactive,
}

func (s RecordStatus) String() string {
	return string(s)
}

func (s RecordStatus) IsValid() bool {
	for _, candidate := range validRecordStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseRecordStatus converts raw input into a RecordStatus.
func ParseRecordStatus(value string) (RecordStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validRecordStatuses {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid status %q", value)
}
