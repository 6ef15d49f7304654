package enums

// TaskSource distinguishes user-created tasks from machine-synthesized ones.
// Machine-sourced tasks may be removed and regenerated on refresh; user tasks
// are never touched by the synthesizer.
type TaskSource string

const (
	TaskSourceUser    TaskSource = "user"
	TaskSourceInsight TaskSource = "insight"
)

// String implements fmt.Stringer.
func (s TaskSource) String() string {
	return string(s)
}

// IsValid reports whether the value is a known TaskSource.
func (s TaskSource) IsValid() bool {
	return s == TaskSourceUser || s == TaskSourceInsight
}
