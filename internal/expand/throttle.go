package expand

// throttle is the adaptive batch size state machine of one expansion run.
// size only ever halves and never drops below floor.
type throttle struct {
	size         int
	floor        int
	giveUpAfter  int
	emptyAtFloor int
}

func newThrottle(perCall, floor, giveUpAfter int) *throttle {
	if floor < 1 {
		floor = 1
	}
	if perCall < floor {
		perCall = floor
	}
	if giveUpAfter < 1 {
		giveUpAfter = 1
	}
	return &throttle{size: perCall, floor: floor, giveUpAfter: giveUpAfter}
}

func (t *throttle) requestSize(remaining int) int {
	return min(t.size, remaining)
}

func (t *throttle) progress() {
	t.emptyAtFloor = 0
}

// empty records a request of the given size that yielded nothing new and
// reports whether the run is exhausted.
func (t *throttle) empty(requested int) bool {
	if requested <= t.floor {
		t.emptyAtFloor++
		return t.emptyAtFloor >= t.giveUpAfter
	}
	t.size = max(t.floor, t.size/2)
	return false
}
