package actions

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/bchampine/erops/pkg/game/types"
)

// FromRecommendation converts the advisory engine's opaque recommended
// action payload into the concrete action for its step. The advisory
// source is a weaker contract than the step-submission one, so the decode
// is defensive: unknown fields are tolerated, but a payload naming an
// unknown department or disagreeing with the step is rejected.
func FromRecommendation(rec *types.Recommendation) (Action, error) {
	if rec == nil {
		return nil, fmt.Errorf("no recommendation")
	}
	payload := rec.RecommendedAction
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return nil, fmt.Errorf("recommendation for step %s has no action payload", rec.Step)
	}

	var action Action
	switch rec.Step {
	case types.StepArrivals:
		a := &ArrivalsAction{}
		if err := json.Unmarshal(payload, a); err != nil {
			return nil, fmt.Errorf("failed to decode arrivals payload: %v", err)
		}
		for _, admission := range a.Admissions {
			if !admission.Department.Valid() {
				return nil, fmt.Errorf("arrivals payload names unknown department %q", admission.Department)
			}
		}
		for _, accept := range a.TransferAccepts {
			if !accept.Department.Valid() || !accept.FromDept.Valid() {
				return nil, fmt.Errorf("transfer accept names unknown department")
			}
		}
		action = a
	case types.StepExits:
		a := &ExitsAction{}
		if err := json.Unmarshal(payload, a); err != nil {
			return nil, fmt.Errorf("failed to decode exits payload: %v", err)
		}
		for _, routing := range a.Routings {
			if !routing.FromDept.Valid() {
				return nil, fmt.Errorf("exit routing names unknown department %q", routing.FromDept)
			}
			for dest := range routing.Transfers {
				if !types.CanTransfer(routing.FromDept, dest) {
					return nil, fmt.Errorf("exit routing %s -> %s is not a reachable route", routing.FromDept, dest)
				}
			}
		}
		action = a
	case types.StepClosed:
		a := &ClosedAction{}
		if err := json.Unmarshal(payload, a); err != nil {
			return nil, fmt.Errorf("failed to decode closed payload: %v", err)
		}
		for _, dept := range append(append([]types.DepartmentID{}, a.CloseDepartments...), a.OpenDepartments...) {
			if !dept.Valid() {
				return nil, fmt.Errorf("closed payload names unknown department %q", dept)
			}
		}
		action = a
	case types.StepStaffing:
		a := &StaffingAction{}
		if err := json.Unmarshal(payload, a); err != nil {
			return nil, fmt.Errorf("failed to decode staffing payload: %v", err)
		}
		for dept := range a.ExtraStaff {
			if !dept.Valid() {
				return nil, fmt.Errorf("staffing payload names unknown department %q", dept)
			}
		}
		for dept := range a.ReturnExtra {
			if !dept.Valid() {
				return nil, fmt.Errorf("staffing payload names unknown department %q", dept)
			}
		}
		for _, transfer := range a.Transfers {
			if !transfer.FromDept.Valid() || !transfer.ToDept.Valid() {
				return nil, fmt.Errorf("staff transfer names unknown department")
			}
		}
		action = a
	default:
		return nil, fmt.Errorf("step %s does not take a recommended action", rec.Step)
	}

	return action, nil
}
