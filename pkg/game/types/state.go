package types

// StaffState tracks staff availability for a department.
type StaffState struct {
	// CoreTotal is the permanent staff count
	CoreTotal int `json:"core_total"`
	// CoreBusy is the number of core staff serving patients
	CoreBusy int `json:"core_busy"`
	// ExtraTotal is the number of extra (on-call) staff currently on duty
	ExtraTotal int `json:"extra_total"`
	// ExtraBusy is the number of extra staff serving patients
	ExtraBusy int `json:"extra_busy"`
	// ExtraIncoming is extra staff called this round, arriving next round
	ExtraIncoming int `json:"extra_incoming"`
	// Unavailable is staff out due to active events
	Unavailable int `json:"unavailable"`
}

// TransferRequest is a patient batch in transit between departments.
type TransferRequest struct {
	FromDept        DepartmentID `json:"from_dept"`
	ToDept          DepartmentID `json:"to_dept"`
	Count           int          `json:"count"`
	RoundsRemaining int          `json:"rounds_remaining"`
}

// DepartmentState is the full state of a single department.
type DepartmentState struct {
	ID                DepartmentID         `json:"id"`
	Staff             StaffState           `json:"staff"`
	PatientsInBeds    int                  `json:"patients_in_beds"`
	PatientsInHallway int                  `json:"patients_in_hallway"`
	// BedCapacity is nil for departments with unbounded (hallway) capacity
	BedCapacity       *int                 `json:"bed_capacity"`
	ArrivalsWaiting   int                  `json:"arrivals_waiting"`
	RequestsWaiting   map[DepartmentID]int `json:"requests_waiting"`
	OutgoingTransfers []TransferRequest    `json:"outgoing_transfers"`
	IsClosed          bool                 `json:"is_closed"`
	IsDiverting       bool                 `json:"is_diverting"`
	ActiveEvents      []ActiveEvent        `json:"active_events"`
}

// RoundCostEntry is the cost breakdown for a single round.
type RoundCostEntry struct {
	RoundNumber int            `json:"round_number"`
	Financial   int            `json:"financial"`
	Quality     int            `json:"quality"`
	Details     map[string]int `json:"details"`
}

// CostConstants are the per-session cost rates used by the engine's
// scoring worksheet. The client only displays them.
type CostConstants struct {
	ERDiversionFinancial     int `json:"er_diversion_financial"`
	ERDiversionQuality       int `json:"er_diversion_quality"`
	ERWaitingFinancial       int `json:"er_waiting_financial"`
	ERWaitingQuality         int `json:"er_waiting_quality"`
	ExtraStaffFinancial      int `json:"extra_staff_financial"`
	ExtraStaffQuality        int `json:"extra_staff_quality"`
	ArrivalsWaitingFinancial int `json:"arrivals_waiting_financial"`
	ArrivalsWaitingQuality   int `json:"arrivals_waiting_quality"`
	RequestsWaitingFinancial int `json:"requests_waiting_financial"`
	RequestsWaitingQuality   int `json:"requests_waiting_quality"`
}

// RoundState is the authoritative snapshot of one round, as returned by
// the remote engine. It is replaced wholesale on every successful step
// submission and never patched field-by-field.
type RoundState struct {
	GameID                      string                             `json:"game_id"`
	RoundNumber                 int                                `json:"round_number"`
	CurrentStep                 StepType                           `json:"current_step"`
	Departments                 map[DepartmentID]*DepartmentState  `json:"departments"`
	TotalFinancialCost          int                                `json:"total_financial_cost"`
	TotalQualityCost            int                                `json:"total_quality_cost"`
	RoundCosts                  []RoundCostEntry                   `json:"round_costs"`
	IsFinished                  bool                               `json:"is_finished"`
	ERDivertedLastRound         bool                               `json:"er_diverted_last_round"`
	AmbulancesDivertedThisRound int                                `json:"ambulances_diverted_this_round"`
	CostConstants               CostConstants                      `json:"cost_constants"`
	ExitOverrides               map[DepartmentID]int               `json:"exit_overrides,omitempty"`
}

// Department returns the state for the given department, or nil if the
// payload did not include it.
func (s *RoundState) Department(id DepartmentID) *DepartmentState {
	if s == nil {
		return nil
	}
	return s.Departments[id]
}
