package tui

import (
	"time"

	"github.com/shmtui/tui/region"
)

// stageTimer measures one pipeline stage's wall-clock cost and
// records it into the header's corresponding stage-timer slot in
// microseconds, matching spec §4.9's "start-end nanosecond
// differences... stored as microseconds" rule. Grounded on memo.go's
// generation-counter idiom of a single atomic bump per observed event,
// generalized from a counter to a duration.
func stageTimer(h region.Header, slot int) func() {
	start := time.Now()
	return func() {
		h.SetStageTimer(slot, uint32(time.Since(start).Microseconds()))
	}
}
