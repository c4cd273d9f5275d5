package kernel

import "go.uber.org/zap"

// allocProcLocked scans the table for an UNUSED slot, initializes it as
// EMBRYO with a fresh pid, and — for pid 1 only — pushes it straight to
// the DEFAULT Stride list, mirroring proc.c's allocproc()/userinit()
// split. Returns nil if the table is full, the same condition Fork
// reports to its caller by returning nil.
//
// Must be called with k.mu held.
func (k *Kernel) allocProcLocked(name string) *Proc {
	var p *Proc
	for i := range k.table {
		if k.table[i].State == StateUnused {
			p = &k.table[i]
			break
		}
	}
	if p == nil {
		return nil
	}

	*p = Proc{
		PID:   k.nextPID,
		State: StateEmbryo,
		Name:  name,
		Class: ClassDefault,
	}
	k.nextPID++

	if p.PID == 1 {
		k.arena.push(p, queueStride)
	}
	return p
}

// AllocProc allocates a fresh process, mirroring proc.c's allocproc as a
// directly callable operation that seeds a process outside of Fork's
// parent/child copy semantics. The process is left EMBRYO.
func (k *Kernel) AllocProc(name string) *Proc {
	k.mu.Lock()
	defer k.mu.Unlock()
	p := k.allocProcLocked(name)
	if p != nil {
		k.log.Debug("allocated process", zap.Int64("pid", p.PID), zap.String("name", name))
	}
	return p
}

// Fork creates a child of parent, copying its scheduling class and
// per-class state, and pushes the child onto the same engine queue the
// parent occupies. Returns the child or nil if the table is full
// (proc.c's fork returning -1 on allocproc failure).
func (k *Kernel) Fork(parent *Proc, name string) *Proc {
	k.mu.Lock()
	defer k.mu.Unlock()

	child := k.allocProcLocked(name)
	if child == nil {
		k.log.Warn("fork failed: process table full", zap.Int64("parent_pid", parent.PID))
		return nil
	}

	child.Parent = parent
	child.Class = parent.Class
	child.mlfq = parent.mlfq
	child.share = parent.share
	child.deflt = parent.deflt
	child.Sz = parent.Sz
	child.State = StateRunnable

	switch child.Class {
	case ClassDefault:
		if child.PID != 1 {
			k.arena.push(child, queueStride)
		}
	case ClassMLFQ:
		k.arena.push(child, mlfqQueueForLevel(child.mlfq.level))
	}
	// SHARE-class children are never pushed to an engine queue: the SHARE
	// pool has no list of its own, and choice() finds SHARE candidates by
	// scanning k.table directly (see choice() in arbiter.go).

	k.log.Info("forked process", zap.Int64("parent_pid", parent.PID), zap.Int64("child_pid", child.PID))
	return child
}

// Exit marks p ZOMBIE, reparents its RUNNABLE/SLEEPING/ZOMBIE children to
// init, and wakes its parent. It does not remove p from its engine
// queue: a ZOMBIE PCB stays queued until Wait reaps it (the engines'
// start() functions already skip non-RUNNABLE nodes while walking).
// Mirrors proc.c's exit(), minus the fd/cwd teardown that is out of
// scope here.
func (k *Kernel) Exit(p *Proc, status int) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.doExit(p, status)
}

// doExit is Exit's body, factored out so runTick (dispatcher.go) can
// reuse it while already holding k.mu instead of deadlocking on Exit's
// own lock acquisition.
func (k *Kernel) doExit(p *Proc, status int) {
	for i := range k.table {
		c := &k.table[i]
		if c.Parent == p {
			c.Parent = k.initProcLocked()
			if c.State == StateZombie {
				k.wakeupLocked(c.Parent)
			}
		}
	}

	p.ExitStatus = status
	p.State = StateZombie
	if p.Parent != nil {
		k.wakeupLocked(p.Parent)
	}
	k.log.Info("process exited", zap.Int64("pid", p.PID), zap.Int("status", status))
}

// initProcLocked returns the init process (pid 1), or nil if it hasn't
// been booted yet or has since exited.
func (k *Kernel) initProcLocked() *Proc {
	if k.initPID == 0 {
		return nil
	}
	for i := range k.table {
		if k.table[i].PID == k.initPID && k.table[i].State != StateUnused {
			return &k.table[i]
		}
	}
	return nil
}

// Wait scans parent's children for a ZOMBIE, reaps the first one found
// (freeing its table slot and, eagerly, its engine-queue membership —
// the dispatcher's own post-switch check only catches the rarer inline
// self-reap case), and returns its pid and exit status. Returns pid -1 if
// parent has no children at all, or pid 0 if it has children but none
// have exited yet — mirroring proc.c's wait(), whose sleep(curproc, ...)
// spin becomes, in this one-tick-at-a-time simulation, the caller
// issuing SigSleep with itself as the wait channel and calling Wait
// again on its next dispatch (Exit wakes the channel == parent proc, so
// the next tick after a child exits finds it RUNNABLE again).
func (k *Kernel) Wait(parent *Proc) (pid int64, status int) {
	k.mu.Lock()
	defer k.mu.Unlock()

	haveChild := false
	for i := range k.table {
		c := &k.table[i]
		if c.Parent != parent || c.State == StateUnused {
			continue
		}
		haveChild = true
		if c.State != StateZombie {
			continue
		}

		switch c.Class {
		case ClassDefault:
			if c.PID != 1 {
				k.arena.pop(c, queueStride)
			}
		case ClassMLFQ:
			k.arena.pop(c, mlfqQueueForLevel(c.mlfq.level))
		}

		reapedPID, reapedStatus := c.PID, c.ExitStatus
		*c = Proc{}
		k.log.Debug("reaped process", zap.Int64("pid", reapedPID))
		return reapedPID, reapedStatus
	}

	if !haveChild {
		return -1, 0
	}
	return 0, 0
}

// GetLev returns the MLFQ level (0-indexed: 0,1,2) of p, or -1 if p is
// not currently in the MLFQ class. Mirrors proc.c's getlev.
func (k *Kernel) GetLev(p *Proc) int {
	k.mu.Lock()
	defer k.mu.Unlock()
	if p.Class != ClassMLFQ {
		return -1
	}
	return p.mlfq.level - 1
}

// CPUShare reserves percent% of the CPU for p in the SHARE pool,
// removing it from whichever pool it currently occupies. Returns 0 on
// success, 1 if percent is non-positive or would push the SHARE pool's
// total reservation over shareBudget. Mirrors proc.c's cpu_share.
func (k *Kernel) CPUShare(p *Proc, percent int64) int {
	k.mu.Lock()
	defer k.mu.Unlock()

	if percent <= 0 {
		if k.onShareReject != nil {
			k.onShareReject()
		}
		return 1
	}

	total := int64(0)
	for i := range k.table {
		if k.table[i].Class == ClassShare {
			total += k.table[i].share.share
		}
	}
	if total+percent > shareBudget {
		if k.onShareReject != nil {
			k.onShareReject()
		}
		return 1
	}

	switch p.Class {
	case ClassDefault:
		k.arena.pop(p, queueStride)
	case ClassMLFQ:
		k.arena.pop(p, mlfqQueueForLevel(p.mlfq.level))
	}

	// p joins the SHARE pool by class alone; there is no SHARE engine
	// queue to push onto. choice() locates it by scanning k.table for
	// Class == ClassShare.
	p.Class = ClassShare
	p.share = shareData{share: percent, pass: k.stride.pass}

	k.log.Info("cpu_share granted", zap.Int64("pid", p.PID), zap.Int64("percent", percent))
	return 0
}

// RunMLFQ transitions p into the MLFQ pool at L1. Returns 1 (no-op) if
// p is already in the MLFQ class. Unlike proc.c's run_MLFQ, which only
// pops the caller when it is already Class==Default (silently leaving a
// SHARE-pool caller's reservation in Σshare's running total), this
// clears the SHARE bookkeeping before transitioning so Σshare always
// reflects actual SHARE membership. Mirrors proc.c's run_MLFQ.
func (k *Kernel) RunMLFQ(p *Proc) int {
	k.mu.Lock()
	defer k.mu.Unlock()

	if p.Class == ClassMLFQ {
		return 1
	}

	switch p.Class {
	case ClassDefault:
		k.arena.pop(p, queueStride)
	case ClassShare:
		p.share = shareData{}
	}

	p.Class = ClassMLFQ
	p.mlfq = mlfqData{level: 1}
	k.arena.push(p, queueMLFQ1)

	k.log.Info("transitioned to MLFQ", zap.Int64("pid", p.PID))
	return 0
}
