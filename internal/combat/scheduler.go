package combat

import "time"

// Pacing hints for the enemy's scripted sequence. They are advisory: the
// engine never sleeps, the caller decides how long to wait before Step.
const (
	delayTurnStart = 1000 * time.Millisecond
	delayThinking  = 1500 * time.Millisecond
	delayCard      = 800 * time.Millisecond
	delayTurnEnd   = 1000 * time.Millisecond
)

type step struct {
	name  string
	delay time.Duration
	run   func()
}

func (e *Engine) schedule(name string, delay time.Duration, run func()) {
	e.queue = append(e.queue, step{name: name, delay: delay, run: run})
}

// runStep pops and runs the head of the queue. Steps scheduled while it
// runs are appended behind whatever was already pending.
func (e *Engine) runStep() {
	if len(e.queue) == 0 {
		return
	}
	s := e.queue[0]
	e.queue = e.queue[1:]
	if !e.st.Active {
		e.queue = nil
		return
	}
	s.run()
}

// Pending returns the number of queued steps.
func (e *Engine) Pending() int { return len(e.queue) }

// NextDelay returns the pacing hint for the next step. ok is false when the
// queue is empty.
func (e *Engine) NextDelay() (d time.Duration, ok bool) {
	if len(e.queue) == 0 {
		return 0, false
	}
	return e.queue[0].delay, true
}

// Step runs the next queued step and returns the events it produced.
func (e *Engine) Step() []Event {
	e.runStep()
	return e.takeEvents()
}

// Drain runs every queued step, including those scheduled along the way,
// and returns the combined events.
func (e *Engine) Drain() []Event {
	for len(e.queue) > 0 {
		e.runStep()
	}
	return e.takeEvents()
}
