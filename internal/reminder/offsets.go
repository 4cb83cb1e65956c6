package reminder

import "time"

// Offset is a fixed lead time before an appointment at which a reminder
// fires. Label is the persisted delivery-marker key.
type Offset struct {
	Label string
	Lead  time.Duration
}

// Offsets are the reminder lead times, in descending magnitude. Sweeps must
// evaluate them in this order so a partial sweep never skips the largest due
// offset.
var Offsets = []Offset{
	{"24h", 24 * time.Hour},
	{"12h", 12 * time.Hour},
	{"6h", 6 * time.Hour},
	{"1h", time.Hour},
	{"30m", 30 * time.Minute},
	{"5m", 5 * time.Minute},
	{"now", 0},
}

// MaxLead is the largest offset lead; the sweep lookahead window must be at
// least this wide.
const MaxLead = 24 * time.Hour

// Due returns the offsets currently due for an appointment starting
// untilStart from now, in descending order.
//
// An offset o is due when untilStart has crossed o.Lead but by no more than
// slop. The slop must exceed the polling interval so a missed tick still
// lands inside the window of the next one; it is deliberately NOT the
// duplicate guard — alreadySent (the persisted delivery set) is.
func Due(untilStart time.Duration, alreadySent func(label string) bool, slop time.Duration) []Offset {
	var due []Offset
	for _, o := range Offsets {
		if untilStart > o.Lead {
			continue
		}
		if untilStart <= o.Lead-slop {
			continue
		}
		if alreadySent(o.Label) {
			continue
		}
		due = append(due, o)
	}
	return due
}
