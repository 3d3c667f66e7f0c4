package constants

const (
	// FirstRound is the round number of a fresh session
	FirstRound = 1
	// FinalRound is the last playable round; the session terminates
	// after its paperwork step completes
	FinalRound = 24
	// TransferDelayRounds is how long an outgoing transfer spends in
	// transit before maturing at its destination
	TransferDelayRounds = 1
)

// eventRounds are the rounds at which the engine draws event cards,
// before the arrivals step.
var eventRounds = map[int]bool{
	6:  true,
	9:  true,
	12: true,
	17: true,
	21: true,
}

// IsEventRound reports whether the engine draws events at the given round.
func IsEventRound(round int) bool {
	return eventRounds[round]
}
