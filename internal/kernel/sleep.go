package kernel

import "go.uber.org/zap"

// Sched hands control back to the dispatcher. Ported from proc.c's
// sched(): it asserts two preconditions as panics rather than silently
// proceeding — the kernel lock is held, and p is not RUNNING — since a
// violation is a bug in the caller, not a recoverable condition. The
// original's per-CPU ncli depth and readeflags()&FL_IF checks have no
// counterpart here: this package models neither a per-CPU interrupt
// nesting depth nor an interrupt flag, so neither is checked.
//
// Must be called with k.mu held; p must not be RUNNING (the caller is
// expected to have already moved it to RUNNABLE/SLEEPING/ZOMBIE).
func (k *Kernel) Sched(p *Proc) {
	if !k.held {
		panic("kernel: sched: kernel lock not held")
	}
	if p.State == StateRunning {
		panic("kernel: sched: process still RUNNING")
	}
}

// Yield voluntarily gives up the CPU, moving p from RUNNING back to
// RUNNABLE and calling Sched. Mirrors proc.c's yield().
func (k *Kernel) Yield(p *Proc) {
	k.Lock()
	defer k.Unlock()
	p.State = StateRunnable
	k.Sched(p)
}

// Sleep blocks p on chan, to be woken by a matching Wakeup. Mirrors
// proc.c's sleep(): the caller is expected to already hold k's lock
// (there is no separate resource lock to hand off here, since every
// resource this package models is already guarded by k.mu). Unlike
// proc.c, p.Chan is not cleared here: Sched returns immediately in this
// synchronous one-tick-at-a-time model rather than after a real future
// wakeup, so clearing it now would erase the very value Wakeup needs to
// match against. Wakeup's transition to RUNNABLE is what ends the
// sleep; Chan is simply left stale until the process sleeps again.
func (k *Kernel) Sleep(p *Proc, chan_ any) {
	if !k.held {
		panic("kernel: sleep: kernel lock not held")
	}
	p.Chan = chan_
	p.State = StateSleeping
	k.Sched(p)
}

// wakeupLocked moves every SLEEPING process blocked on chan to
// RUNNABLE. Must be called with k.mu held. Mirrors proc.c's wakeup1.
func (k *Kernel) wakeupLocked(chan_ any) {
	if chan_ == nil {
		return
	}
	for i := range k.table {
		p := &k.table[i]
		if p.State == StateSleeping && p.Chan == chan_ {
			p.State = StateRunnable
		}
	}
}

// Wakeup acquires k's lock and wakes every process sleeping on chan.
// Mirrors proc.c's wakeup (the lock-acquiring wrapper around wakeup1).
func (k *Kernel) Wakeup(chan_ any) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.wakeupLocked(chan_)
}

// Kill marks p killed and, if it is SLEEPING, promotes it to RUNNABLE
// so it observes the kill flag on its next dispatch. Returns -1 if p is
// already a ZOMBIE (mirroring proc.c's kill returning -1 for an unknown
// or already-exited pid; this package looks p up by reference, so the
// only failure mode left is "already exited"). Mirrors proc.c's kill.
func (k *Kernel) Kill(p *Proc) int {
	k.mu.Lock()
	defer k.mu.Unlock()

	if p.State == StateZombie || p.State == StateUnused {
		return -1
	}
	p.Killed = true
	if p.State == StateSleeping {
		p.State = StateRunnable
	}
	k.log.Info("process killed", zap.Int64("pid", p.PID))
	return 0
}
