// Package cards tracks the engine's per-round card defaults and the
// operator's edits to them, and reconciles the two into the minimal
// override patch the engine accepts.
package cards

import (
	"github.com/bchampine/erops/pkg/game/types"
)

// Entry is the card default for one department in one round.
type Entry struct {
	Arrivals int `json:"arrivals"`
	Exits    int `json:"exits"`
	// Walkin and Ambulance are the ER arrival sub-splits; nil for the
	// other departments
	Walkin    *int `json:"walkin,omitempty"`
	Ambulance *int `json:"ambulance,omitempty"`
}

// RoundCards is the engine's card data for a single round.
type RoundCards struct {
	Round       int                            `json:"round"`
	Departments map[types.DepartmentID]Entry `json:"departments"`
}

// Overrides is the minimal override patch submitted with the event step.
// Only values that differ from the round's defaults appear.
type Overrides struct {
	Arrivals    map[types.DepartmentID]int `json:"arrivals,omitempty"`
	Exits       map[types.DepartmentID]int `json:"exits,omitempty"`
	ERWalkin    *int                       `json:"er_walkin,omitempty"`
	ERAmbulance *int                       `json:"er_ambulance,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (o *Overrides) Empty() bool {
	if o == nil {
		return true
	}
	return len(o.Arrivals) == 0 && len(o.Exits) == 0 && o.ERWalkin == nil && o.ERAmbulance == nil
}

// Form holds the operator's editable copy of a round's card values. Edits
// live here, never in the RoundState; the session orchestrator resets the
// form whenever the round number changes so a fresh round can never
// inherit a stale edit.
type Form struct {
	round     int
	defaults  map[types.DepartmentID]Entry
	arrivals  map[types.DepartmentID]int
	exits     map[types.DepartmentID]int
	walkin    int
	ambulance int
}

// NewForm returns a form initialized to the given round's defaults.
func NewForm(rc *RoundCards) *Form {
	f := &Form{}
	f.SetDefaults(rc)
	return f
}

// SetDefaults replaces the form's defaults with a new round's card data
// and discards all edits.
func (f *Form) SetDefaults(rc *RoundCards) {
	f.defaults = make(map[types.DepartmentID]Entry)
	f.round = 0
	if rc != nil {
		f.round = rc.Round
		for dept, entry := range rc.Departments {
			f.defaults[dept] = entry
		}
	}
	f.Reset()
}

// Reset restores all edited values to exactly the current round's
// defaults.
func (f *Form) Reset() {
	f.arrivals = make(map[types.DepartmentID]int)
	f.exits = make(map[types.DepartmentID]int)
	f.walkin = 0
	f.ambulance = 0
	for dept, entry := range f.defaults {
		f.arrivals[dept] = entry.Arrivals
		f.exits[dept] = entry.Exits
		if dept == types.DepartmentER {
			if entry.Walkin != nil {
				f.walkin = *entry.Walkin
			}
			if entry.Ambulance != nil {
				f.ambulance = *entry.Ambulance
			}
		}
	}
}

// Round is the round number the current defaults belong to.
func (f *Form) Round() int {
	return f.round
}

// Arrivals returns the current (possibly edited) arrival value for a
// department.
func (f *Form) Arrivals(dept types.DepartmentID) int {
	return f.arrivals[dept]
}

// Exits returns the current (possibly edited) exit value for a department.
func (f *Form) Exits(dept types.DepartmentID) int {
	return f.exits[dept]
}

// DefaultArrivals returns the round's unedited arrival default.
func (f *Form) DefaultArrivals(dept types.DepartmentID) int {
	return f.defaults[dept].Arrivals
}

// DefaultExits returns the round's unedited exit default.
func (f *Form) DefaultExits(dept types.DepartmentID) int {
	return f.defaults[dept].Exits
}

// SetArrivals records an edited arrival value for a department.
func (f *Form) SetArrivals(dept types.DepartmentID, count int) {
	f.arrivals[dept] = count
}

// SetExits records an edited exit value for a department.
func (f *Form) SetExits(dept types.DepartmentID, count int) {
	f.exits[dept] = count
}

// SetERSplit records edited ER walk-in and ambulance values.
func (f *Form) SetERSplit(walkin, ambulance int) {
	f.walkin = walkin
	f.ambulance = ambulance
}

// Patch computes the minimal override patch: only departments whose
// edited value differs from the round default appear, and the ER
// sub-splits only when edited. Calling Patch twice with unchanged inputs
// yields an identical result.
func (f *Form) Patch() *Overrides {
	o := &Overrides{}
	for _, dept := range types.AllDepartments() {
		entry, ok := f.defaults[dept]
		if !ok {
			continue
		}
		if v := f.arrivals[dept]; v != entry.Arrivals {
			if o.Arrivals == nil {
				o.Arrivals = make(map[types.DepartmentID]int)
			}
			o.Arrivals[dept] = v
		}
		if v := f.exits[dept]; v != entry.Exits {
			if o.Exits == nil {
				o.Exits = make(map[types.DepartmentID]int)
			}
			o.Exits[dept] = v
		}
	}
	if er, ok := f.defaults[types.DepartmentER]; ok {
		if er.Walkin != nil && f.walkin != *er.Walkin {
			v := f.walkin
			o.ERWalkin = &v
		}
		if er.Ambulance != nil && f.ambulance != *er.Ambulance {
			v := f.ambulance
			o.ERAmbulance = &v
		}
	}
	return o
}

// ArrivalOverrides computes the per-department arrival override map for
// the arrivals action: edited values only where they differ from the
// round default. Unchanged departments are omitted entirely.
func (f *Form) ArrivalOverrides() map[types.DepartmentID]int {
	overrides := make(map[types.DepartmentID]int)
	for _, dept := range types.AllDepartments() {
		entry, ok := f.defaults[dept]
		if !ok {
			continue
		}
		if v := f.arrivals[dept]; v != entry.Arrivals {
			overrides[dept] = v
		}
	}
	return overrides
}
