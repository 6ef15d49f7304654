package enums

import "fmt"

// TaskPriority ranks farm tasks on the dashboard.
type TaskPriority string

const (
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityLow    TaskPriority = "low"
)

var validTaskPriorities = []TaskPriority{
	TaskPriorityHigh,
	TaskPriorityMedium,
	TaskPriorityLow,
}

// String implements fmt.Stringer.
func (p TaskPriority) String() string {
	return string(p)
}

// IsValid reports whether the value is a known TaskPriority.
func (p TaskPriority) IsValid() bool {
	for _, candidate := range validTaskPriorities {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseTaskPriority converts raw input into a TaskPriority.
func ParseTaskPriority(value string) (TaskPriority, error) {
	for _, candidate := range validTaskPriorities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid task priority %q", value)
}
