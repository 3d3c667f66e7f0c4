package actions

import (
	"github.com/bchampine/erops/pkg/game/types"
)

// Builders translate transient form state into structurally well-formed
// actions. They do not enforce business rules (idle staff, bed caps);
// the engine is the only authority on those, so local validation is
// advisory at most. Their contract is minimality: zero-valued and
// unreachable entries never appear in the payload.

// ArrivalsForm is the editable state behind the arrivals step.
type ArrivalsForm struct {
	// Admit maps department -> waiting patients to admit
	Admit map[types.DepartmentID]int
	// Accept maps department -> source department -> transfers to accept
	Accept map[types.DepartmentID]map[types.DepartmentID]int
	// ArrivalOverrides maps department -> edited arrival count, only for
	// departments whose value differs from the round's card default
	// (cards.Form.ArrivalOverrides computes this)
	ArrivalOverrides map[types.DepartmentID]int
}

// BuildArrivals builds the arrivals action. Zero admissions and zero
// accepts are omitted; the override map carries only edited departments.
func BuildArrivals(form ArrivalsForm) *ArrivalsAction {
	action := &ArrivalsAction{
		Admissions:       []AdmitDecision{},
		TransferAccepts:  []AcceptTransferDecision{},
		ArrivalOverrides: map[types.DepartmentID]int{},
	}
	for _, dept := range types.AllDepartments() {
		if count := form.Admit[dept]; count > 0 {
			action.Admissions = append(action.Admissions, AdmitDecision{
				Department: dept,
				AdmitCount: count,
			})
		}
		for _, from := range types.AllDepartments() {
			if count := form.Accept[dept][from]; count > 0 {
				action.TransferAccepts = append(action.TransferAccepts, AcceptTransferDecision{
					Department:  dept,
					FromDept:    from,
					AcceptCount: count,
				})
			}
		}
		if override, ok := form.ArrivalOverrides[dept]; ok {
			action.ArrivalOverrides[dept] = override
		}
	}
	return action
}

// ExitsForm is the editable state behind the exits step.
type ExitsForm struct {
	// Walkouts maps department -> patients leaving the system entirely
	Walkouts map[types.DepartmentID]int
	// Transfers maps source department -> destination -> count
	Transfers map[types.DepartmentID]map[types.DepartmentID]int
}

// BuildExits builds the exits action. A department gets a routing entry
// only if it has a positive walkout count or at least one positive
// transfer to a destination it can structurally reach; transfer entries
// to unreachable destinations are dropped outright.
func BuildExits(form ExitsForm) *ExitsAction {
	action := &ExitsAction{Routings: []ExitRouting{}}
	for _, from := range types.AllDepartments() {
		walkout := form.Walkouts[from]
		transfers := map[types.DepartmentID]int{}
		for _, dest := range types.TransferDestinations(from) {
			if count := form.Transfers[from][dest]; count > 0 {
				transfers[dest] = count
			}
		}
		if walkout <= 0 && len(transfers) == 0 {
			continue
		}
		if walkout < 0 {
			walkout = 0
		}
		action.Routings = append(action.Routings, ExitRouting{
			FromDept:     from,
			WalkoutCount: walkout,
			Transfers:    transfers,
		})
	}
	return action
}

// ClosedForm is the editable state behind the closed/divert step.
type ClosedForm struct {
	// Closed maps department -> requested closed flag
	Closed map[types.DepartmentID]bool
	// DivertER requests ER ambulance diversion for the next round
	DivertER bool
}

// BuildClosed builds the closed action as the set difference between the
// requested flags and each department's actual closed flag in the current
// state. Re-closing a closed department or re-opening an open one is
// never submitted, since the engine's instructions are edge-triggered.
func BuildClosed(state *types.RoundState, form ClosedForm) *ClosedAction {
	action := &ClosedAction{
		CloseDepartments: []types.DepartmentID{},
		OpenDepartments:  []types.DepartmentID{},
		DivertER:         form.DivertER,
	}
	for _, dept := range types.AllDepartments() {
		current := false
		if ds := state.Department(dept); ds != nil {
			current = ds.IsClosed
		}
		requested, edited := form.Closed[dept]
		if !edited {
			continue
		}
		switch {
		case requested && !current:
			action.CloseDepartments = append(action.CloseDepartments, dept)
		case !requested && current:
			action.OpenDepartments = append(action.OpenDepartments, dept)
		}
	}
	return action
}

// StaffingForm is the editable state behind the staffing step.
type StaffingForm struct {
	// ExtraStaff maps department -> extra staff to call (arrive next round)
	ExtraStaff map[types.DepartmentID]int
	// ReturnExtra maps department -> extra staff to send home
	ReturnExtra map[types.DepartmentID]int
	// Transfers moves idle staff between departments this round
	Transfers []StaffTransfer
}

// BuildStaffing builds the staffing action, omitting zero-valued calls
// and returns and non-positive transfers.
func BuildStaffing(form StaffingForm) *StaffingAction {
	action := &StaffingAction{
		ExtraStaff:  map[types.DepartmentID]int{},
		ReturnExtra: map[types.DepartmentID]int{},
		Transfers:   []StaffTransfer{},
	}
	for _, dept := range types.AllDepartments() {
		if count := form.ExtraStaff[dept]; count > 0 {
			action.ExtraStaff[dept] = count
		}
		if count := form.ReturnExtra[dept]; count > 0 {
			action.ReturnExtra[dept] = count
		}
	}
	for _, transfer := range form.Transfers {
		if transfer.Count <= 0 {
			continue
		}
		action.Transfers = append(action.Transfers, transfer)
	}
	return action
}
