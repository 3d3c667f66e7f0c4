package types

// Derived staffing and occupancy quantities. The engine does not transmit
// these; they are recomputed on every read from the latest RoundState so
// they can never go stale across a wholesale state replacement. None of
// them clamp to zero except FreeBeds: a negative idle count means the
// client and engine have desynced, and hiding that would mask the bug.

// CoreIdle is the number of core staff neither busy nor taken by events.
// Unavailability only consumes staff that are actually free, matching the
// engine's accounting.
func (s StaffState) CoreIdle() int {
	available := s.CoreTotal - s.CoreBusy
	unavail := s.Unavailable
	if unavail > available {
		unavail = available
	}
	return available - unavail
}

// ExtraIdle is the number of on-call staff not serving patients.
func (s StaffState) ExtraIdle() int {
	return s.ExtraTotal - s.ExtraBusy
}

// TotalIdle is the staff available for new admissions this step.
func (s StaffState) TotalIdle() int {
	return s.CoreIdle() + s.ExtraIdle()
}

// TotalBusy is the staff currently serving patients.
func (s StaffState) TotalBusy() int {
	return s.CoreBusy + s.ExtraBusy
}

// TotalOnDuty is all staff present this round, net of event losses.
func (s StaffState) TotalOnDuty() int {
	return s.CoreTotal + s.ExtraTotal - s.Unavailable
}

// TotalPatients is the department census including hallway overflow.
func (d *DepartmentState) TotalPatients() int {
	return d.PatientsInBeds + d.PatientsInHallway
}

// FreeBeds returns the number of open beds and whether the department has
// a bed capacity at all. When bounded is false the department admits into
// hallway overflow and every consumer must treat capacity as unlimited.
func (d *DepartmentState) FreeBeds() (n int, bounded bool) {
	if d.BedCapacity == nil {
		return 0, false
	}
	n = *d.BedCapacity - d.PatientsInBeds
	if n < 0 {
		n = 0
	}
	return n, true
}

// TotalRequestsWaiting is the number of matured transfer requests waiting
// for acceptance, summed over all source departments.
func (d *DepartmentState) TotalRequestsWaiting() int {
	total := 0
	for _, count := range d.RequestsWaiting {
		total += count
	}
	return total
}
