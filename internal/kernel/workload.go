package kernel

// Signal is what a Workload reports at the end of a tick: how the
// process wants to transition once control returns to the dispatcher.
type Signal int

const (
	// SigContinue means "still running, give me another tick" — the
	// dispatcher returns p to RUNNABLE, exactly as if it had voluntarily
	// yielded at the end of its quantum.
	SigContinue Signal = iota
	// SigYield is the explicit form of SigContinue, used by workloads
	// that want to make the voluntary-yield intent visible in traces.
	SigYield
	// SigSleep blocks p on Chan until a matching Wakeup.
	SigSleep
	// SigExit terminates p with ExitCode.
	SigExit
)

// StepResult is what a Workload returns after running for one tick.
type StepResult struct {
	Signal   Signal
	Chan     any
	ExitCode int
}

// Workload is the simulated replacement for a real context switch: a
// function invoked once per dispatch, while the kernel's lock is held,
// standing in for "the process ran for one quantum and the CPU trapped
// back into the kernel." This package deliberately does not model a
// context switch with a real parked goroutine and channel handoff,
// since that shape is prone to exactly the thrash/race/deadlock bugs a
// goroutine-per-process toy scheduler tends to hit. A synchronous
// callback makes every scheduling decision deterministic and trivially
// testable: given a fixed sequence of StepResults, the sequence of
// dispatch decisions is reproducible.
type Workload func(p *Proc, tick uint64) StepResult
