// internal/timer/timer.go
package timer

// StopItemUnits is how long the timer-stop item freezes the countdown.
const StopItemUnits = 5

// TurnTimer is a countdown advanced by an external tick source, one unit per
// Tick. It is not safe for concurrent use; the owning session loop drives it.
//
// Every Start and Stop bumps the generation so that a tick scheduled for an
// earlier countdown can be recognised and dropped by the caller.
type TurnTimer struct {
	max        int
	value      int
	running    bool
	pauseLeft  int
	generation uint64

	isMyTurn  func() bool
	onTimeout func()
}

// New returns a stopped timer. isMyTurn decides whether expiry emits; onTimeout
// is called at most once per countdown.
func New(isMyTurn func() bool, onTimeout func()) *TurnTimer {
	return &TurnTimer{isMyTurn: isMyTurn, onTimeout: onTimeout}
}

// Start replaces any running countdown with a fresh one of d units.
func (t *TurnTimer) Start(d int) {
	if d < 0 {
		d = 0
	}
	t.generation++
	t.max = d
	t.value = d
	t.pauseLeft = 0
	t.running = d > 0
}

// Stop halts the countdown. Calling it on a stopped timer is a no-op apart
// from invalidating pending ticks.
func (t *TurnTimer) Stop() {
	t.generation++
	t.running = false
	t.pauseLeft = 0
}

// Tick advances the countdown by one unit and reports whether it expired on
// this tick.
func (t *TurnTimer) Tick() bool {
	if !t.running {
		return false
	}
	if t.pauseLeft > 0 {
		t.pauseLeft--
		return false
	}
	t.value--
	if t.value > 0 {
		return false
	}
	t.value = 0
	t.running = false
	if t.isMyTurn != nil && t.isMyTurn() && t.onTimeout != nil {
		t.onTimeout()
	}
	return true
}

// Pause freezes the countdown for units ticks, after which it resumes from
// the value it held when paused.
func (t *TurnTimer) Pause(units int) {
	if !t.running || units <= 0 {
		return
	}
	t.pauseLeft = units
}

// Reset applies a value dictated by the server, clamped into [0, max].
// Reaching 0 this way stops the timer without emitting.
func (t *TurnTimer) Reset(v int) {
	if v > t.max {
		v = t.max
	}
	if v <= 0 {
		v = 0
		t.running = false
		t.pauseLeft = 0
	}
	t.value = v
}

func (t *TurnTimer) Value() int         { return t.value }
func (t *TurnTimer) Max() int           { return t.max }
func (t *TurnTimer) Running() bool      { return t.running }
func (t *TurnTimer) Paused() bool       { return t.running && t.pauseLeft > 0 }
func (t *TurnTimer) Generation() uint64 { return t.generation }
