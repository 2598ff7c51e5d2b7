package vision

// fillPhase is the state of the shared two-state machine used throughout the
// pipeline: the row rotator runs it as IDLE/FILLING and the lane decider as
// IDLE/ACTIVE. The machine itself is identical; only the activation and
// deactivation conditions differ.
type fillPhase int

const (
	phaseIdle fillPhase = iota
	phaseActive
)

// fillMachine is a two-state gate parameterized by its transition
// conditions. activate is evaluated while idle, deactivate while active;
// both transitions take one tick.
type fillMachine struct {
	phase      fillPhase
	activate   func() bool
	deactivate func() bool
}

// step advances the machine by one tick and reports whether it is active
// after the transition.
func (m *fillMachine) step() bool {
	switch m.phase {
	case phaseIdle:
		if m.activate() {
			m.phase = phaseActive
		}
	case phaseActive:
		if m.deactivate() {
			m.phase = phaseIdle
		}
	}
	return m.phase == phaseActive
}

// active reports the current phase without advancing it.
func (m *fillMachine) active() bool { return m.phase == phaseActive }

// reset returns the machine to idle.
func (m *fillMachine) reset() { m.phase = phaseIdle }
