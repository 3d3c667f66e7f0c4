package types

// EventEffect is the mechanical effect of an event card.
type EventEffect struct {
	StaffUnavailable          int  `json:"staff_unavailable"`
	StaffUnavailablePermanent bool `json:"staff_unavailable_permanent"`
	NoExits                   bool `json:"no_exits"`
	ExtraStaffNeeded          int  `json:"extra_staff_needed"`
	BedReduction              int  `json:"bed_reduction"`
	AdditionalArrivals        int  `json:"additional_arrivals"`
	ShiftChange               bool `json:"shift_change"`
	NoNewArrivals             bool `json:"no_new_arrivals"`
}

// ActiveEvent is an event currently in effect on a department. The engine
// creates these during event steps and ticks them down; the client only
// renders them.
type ActiveEvent struct {
	EventID     string      `json:"event_id"`
	Description string      `json:"description"`
	Effect      EventEffect `json:"effect"`
	// RoundsRemaining is nil for permanent events
	RoundsRemaining *int `json:"rounds_remaining"`
}

// Permanent reports whether the event lasts for the rest of the session.
func (e *ActiveEvent) Permanent() bool {
	return e.RoundsRemaining == nil
}
