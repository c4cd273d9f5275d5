package kernel

import (
	"context"

	"go.uber.org/zap"
)

// CPU is one simulated processor running its own dispatch loop against
// a shared Kernel. Multiple CPUs run concurrently; the Kernel's single
// mutex serializes their access to the table, engines and arena exactly
// as xv6's ptable.lock does across real CPUs.
type CPU struct {
	ID      int
	current *Proc
	log     *zap.Logger
}

// NewCPU constructs a CPU bound to id, with a logger named for it.
func (k *Kernel) NewCPU(id int) *CPU {
	return &CPU{ID: id, log: k.log.Named("cpu").With(zap.Int("cpu", id))}
}

// Current returns the process this CPU is currently running, or nil.
func (c *CPU) Current() *Proc { return c.current }

// Run drives the dispatch loop until ctx is cancelled. Each iteration
// mirrors one pass of proc.c's scheduler(): acquire the lock, call
// choice(), and if it returned a RUNNABLE process, run it for one tick
// and perform the post-switch bookkeeping — all under the same lock
// hold, matching the original's "lock held across swtch" invariant
// (there is no real context switch here to yield the lock across).
func (c *CPU) Run(ctx context.Context, k *Kernel) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		k.Lock()
		p := k.choice()
		if p != nil && p.State == StateRunnable {
			c.current = p
			p.State = StateRunning
			c.log.Debug("dispatching", zap.Int64("pid", p.PID), zap.Stringer("class", p.Class))
			if k.onDispatch != nil {
				k.onDispatch(p.Class)
			}

			k.runTick(p)
			c.current = nil

			// Post-switch bookkeeping: if p transitioned to UNUSED while
			// running (reaped inline, e.g. a self-wait edge case), pop it
			// from its engine queue. In the normal path Wait already pops
			// eagerly at reap time, so this is defense-in-depth mirroring
			// proc.c's own post-swtch "if(p->state == UNUSED)" check.
			if p.State == StateUnused {
				switch p.Class {
				case ClassMLFQ:
					k.arena.pop(p, mlfqQueueForLevel(p.mlfq.level))
				case ClassDefault:
					k.arena.pop(p, queueStride)
				}
			}

			if k.mlfq.boostingPeriod >= boostPeriod {
				k.mlfq.boost(k.arena)
				c.log.Debug("mlfq boost")
				if k.onBoost != nil {
					k.onBoost()
				}
			}
		}
		k.Unlock()
	}
}

// runTick invokes p's Workload for one simulated quantum and applies
// the resulting signal. Must be called with k.mu held and p.State ==
// StateRunning.
func (k *Kernel) runTick(p *Proc) {
	k.tick++
	res := StepResult{Signal: SigContinue}
	if p.Workload != nil {
		res = p.Workload(p, k.tick)
	}

	switch res.Signal {
	case SigContinue, SigYield:
		p.State = StateRunnable
		k.Sched(p)
	case SigSleep:
		k.Sleep(p, res.Chan)
	case SigExit:
		k.exitLocked(p, res.ExitCode)
	}
}

// exitLocked runs a workload-triggered exit: the same reparent/zombie/
// wakeup bookkeeping as Exit, plus handing control back to the
// dispatcher via Sched, since this path is reached from inside the
// process's own simulated execution rather than as a standalone call.
func (k *Kernel) exitLocked(p *Proc, status int) {
	k.doExit(p, status)
	k.Sched(p)
}
