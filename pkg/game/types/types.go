package types

// DepartmentID identifies one of the four hospital departments.
type DepartmentID string

const (
	DepartmentER           DepartmentID = "er"
	DepartmentSurgery      DepartmentID = "surgery"
	DepartmentCriticalCare DepartmentID = "cc"
	DepartmentStepDown     DepartmentID = "sd"
)

// AllDepartments returns the department identifiers in display order.
func AllDepartments() []DepartmentID {
	return []DepartmentID{
		DepartmentER,
		DepartmentSurgery,
		DepartmentCriticalCare,
		DepartmentStepDown,
	}
}

func (d DepartmentID) Valid() bool {
	switch d {
	case DepartmentER, DepartmentSurgery, DepartmentCriticalCare, DepartmentStepDown:
		return true
	}
	return false
}

// HasHallway reports whether the department can hold patients in hallway
// overflow. Only the ER and Step Down allow this; the other two enforce
// their bed capacity as a hard ceiling server-side.
func (d DepartmentID) HasHallway() bool {
	return d == DepartmentER || d == DepartmentStepDown
}

func (d DepartmentID) DisplayName() string {
	switch d {
	case DepartmentER:
		return "ER"
	case DepartmentSurgery:
		return "Surgery"
	case DepartmentCriticalCare:
		return "Critical Care"
	case DepartmentStepDown:
		return "Step Down"
	}
	return string(d)
}

// StepType identifies one of the six phases of a round.
type StepType string

const (
	StepEvent     StepType = "event"
	StepArrivals  StepType = "arrivals"
	StepExits     StepType = "exits"
	StepClosed    StepType = "closed"
	StepStaffing  StepType = "staffing"
	StepPaperwork StepType = "paperwork"
)

// StepOrder is the fixed step sequence within a round.
var StepOrder = []StepType{
	StepEvent,
	StepArrivals,
	StepExits,
	StepClosed,
	StepStaffing,
	StepPaperwork,
}

func (s StepType) Valid() bool {
	switch s {
	case StepEvent, StepArrivals, StepExits, StepClosed, StepStaffing, StepPaperwork:
		return true
	}
	return false
}

// IsDecision reports whether the step collects operator decisions and
// therefore has a meaningful advisory recommendation.
func (s StepType) IsDecision() bool {
	switch s {
	case StepArrivals, StepExits, StepClosed, StepStaffing:
		return true
	}
	return false
}

// flowGraph lists the allowed transfer destinations for each department.
var flowGraph = map[DepartmentID][]DepartmentID{
	DepartmentER:           {DepartmentSurgery, DepartmentCriticalCare, DepartmentStepDown},
	DepartmentSurgery:      {DepartmentCriticalCare, DepartmentStepDown},
	DepartmentCriticalCare: {DepartmentSurgery, DepartmentStepDown},
	DepartmentStepDown:     {DepartmentSurgery, DepartmentCriticalCare},
}

// TransferDestinations returns the departments a patient exiting from the
// given department may be transferred to.
func TransferDestinations(from DepartmentID) []DepartmentID {
	dests := flowGraph[from]
	out := make([]DepartmentID, len(dests))
	copy(out, dests)
	return out
}

// CanTransfer reports whether a transfer route is allowed.
func CanTransfer(from, to DepartmentID) bool {
	for _, dest := range flowGraph[from] {
		if dest == to {
			return true
		}
	}
	return false
}
