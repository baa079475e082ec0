package status

import "math"

// Status is the discrete label attached to a cumulative risk value.
type Status string

const (
	Safe     Status = "Safe"
	Warning  Status = "Warning"
	Critical Status = "Critical"
)

// Band thresholds. A value equal to a threshold belongs to the lower band.
const (
	WarningThreshold  = 0.3
	CriticalThreshold = 0.7
)

// FromRisk maps a cumulative risk in [0,1] to its status. Values outside the
// range saturate to the nearest band and NaN is treated as Critical.
func FromRisk(risk float64) Status {
	switch {
	case math.IsNaN(risk):
		return Critical
	case risk > CriticalThreshold:
		return Critical
	case risk > WarningThreshold:
		return Warning
	default:
		return Safe
	}
}

// Severity orders statuses: Safe=0, Warning=1, Critical=2, unknown=-1.
func (s Status) Severity() int {
	switch s {
	case Safe:
		return 0
	case Warning:
		return 1
	case Critical:
		return 2
	default:
		return -1
	}
}

// Valid reports whether s is one of the three known labels.
func (s Status) Valid() bool {
	return s.Severity() >= 0
}
