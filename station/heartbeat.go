package station

import (
	"fmt"
	"strings"
)

const heartbeatFrames = 3

// Heartbeat rotates through three "still alive" frames:
//
//	<prefix>.      12.50 %
//	<prefix>..     25.00 %
//	<prefix>...    37.50 %
type Heartbeat struct {
	frame int
}

func (h *Heartbeat) Next(prefix string, percent float64) string {
	i := h.frame
	h.frame = (h.frame + 1) % heartbeatFrames
	return fmt.Sprintf("%s%s%s%.2f %%", prefix,
		strings.Repeat(".", i+1),
		strings.Repeat(" ", 6-i),
		percent)
}

// Frame is the index of the frame Next will produce.
func (h *Heartbeat) Frame() int {
	return h.frame
}
