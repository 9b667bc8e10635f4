package session

// Dot11 association status vocabulary. The table is fixed at start-up and
// never mutated.
const (
	StatusIdle              = "IDLE"
	StatusAAAPending        = "AAA_PENDING"
	StatusAuthenticated     = "AUTHENTICATED"
	StatusAssociated        = "ASSOCIATED"
	StatusPowersave         = "POWERSAVE"
	StatusDisassociated     = "DISASSOCIATED"
	StatusToBeDeleted       = "TO_BE_DELETED"
	StatusProbing           = "PROBING"
	StatusBlackListed       = "BLACK_LISTED"
	StatusWaitAuthenticated = "WAIT_AUTHENTICATED"
	StatusWaitAssociated    = "WAIT_ASSOCIATED"
)

var statusNames = map[int64]string{
	0:   StatusIdle,
	1:   StatusAAAPending,
	2:   StatusAuthenticated,
	3:   StatusAssociated,
	4:   StatusPowersave,
	5:   StatusDisassociated,
	6:   StatusToBeDeleted,
	7:   StatusProbing,
	8:   StatusBlackListed,
	256: StatusWaitAuthenticated,
	257: StatusWaitAssociated,
}

// StatusName maps a wire status code to its name. Unknown codes report
// false; the caller leaves the attribute absent rather than failing.
func StatusName(code int64) (string, bool) {
	name, ok := statusNames[code]

	return name, ok
}
