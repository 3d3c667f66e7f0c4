// Package actions defines the per-step submission payloads and the pure
// builders that translate operator form state into them.
package actions

import (
	"github.com/bchampine/erops/pkg/game/cards"
	"github.com/bchampine/erops/pkg/game/types"
)

// Action is the tagged union of per-step submission payloads. One shape
// exists per step; paperwork submits no payload at all (a nil Action).
type Action interface {
	Step() types.StepType
}

// EventAction carries the optional card-value overrides submitted with
// the event step. An empty overrides patch is valid and means "play the
// round's cards as dealt".
type EventAction struct {
	cards.Overrides
}

func (a *EventAction) Step() types.StepType { return types.StepEvent }

// AdmitDecision says how many waiting patients to admit in a department.
type AdmitDecision struct {
	Department types.DepartmentID `json:"department"`
	AdmitCount int                `json:"admit_count"`
}

// AcceptTransferDecision accepts matured incoming transfer requests.
type AcceptTransferDecision struct {
	Department  types.DepartmentID `json:"department"`
	FromDept    types.DepartmentID `json:"from_dept"`
	AcceptCount int                `json:"accept_count"`
}

// ArrivalsAction is the operator's decisions for the arrivals step.
type ArrivalsAction struct {
	Admissions       []AdmitDecision            `json:"admissions"`
	TransferAccepts  []AcceptTransferDecision   `json:"transfer_accepts"`
	ArrivalOverrides map[types.DepartmentID]int `json:"arrival_overrides"`
}

func (a *ArrivalsAction) Step() types.StepType { return types.StepArrivals }

// ExitRouting says where to send a batch of exiting patients.
type ExitRouting struct {
	FromDept     types.DepartmentID         `json:"from_dept"`
	WalkoutCount int                        `json:"walkout_count"`
	Transfers    map[types.DepartmentID]int `json:"transfers"`
}

// ExitsAction is the operator's decisions for the exits step.
type ExitsAction struct {
	Routings []ExitRouting `json:"routings"`
}

func (a *ExitsAction) Step() types.StepType { return types.StepExits }

// ClosedAction is the operator's decisions for the closed/divert step.
// The engine's semantics are edge-triggered: close_departments and
// open_departments are instructions, not desired state.
type ClosedAction struct {
	CloseDepartments []types.DepartmentID `json:"close_departments"`
	OpenDepartments  []types.DepartmentID `json:"open_departments"`
	DivertER         bool                 `json:"divert_er"`
}

func (a *ClosedAction) Step() types.StepType { return types.StepClosed }

// StaffTransfer moves idle staff between departments.
type StaffTransfer struct {
	FromDept types.DepartmentID `json:"from_dept"`
	ToDept   types.DepartmentID `json:"to_dept"`
	Count    int                `json:"count"`
}

// StaffingAction is the operator's decisions for the staffing step.
type StaffingAction struct {
	ExtraStaff  map[types.DepartmentID]int `json:"extra_staff"`
	ReturnExtra map[types.DepartmentID]int `json:"return_extra"`
	Transfers   []StaffTransfer            `json:"transfers"`
}

func (a *StaffingAction) Step() types.StepType { return types.StepStaffing }
