package kernel

// MLFQ tuning constants, ported verbatim from proc.c.
const (
	boostPeriod = 100
)

var mlfqTimeQuantum = [3]int{1, 2, 4}
var mlfqTimeAllot = [2]int{5, 10}

// mlfqEngine is the MLFQ policy engine's own state: its running pass
// value (it is itself one of choice()'s three competing pools) and the
// boost countdown.
type mlfqEngine struct {
	pass           int64
	boostingPeriod uint32
}

// nonEmpty reports whether any MLFQ level currently holds a process,
// used by returnStride's "20*mlfq_exist" term.
func (e *mlfqEngine) nonEmpty(a *listArena) bool {
	return a.len(queueMLFQ1) > 0 || a.len(queueMLFQ2) > 0 || a.len(queueMLFQ3) > 0
}

// start picks the next RUNNABLE MLFQ process, highest level first,
// applying quantum rotation and allotment demotion as it goes. Ported
// from proc.c's mlfq_start, whose goto-chained L1/L2/L3 fallthrough
// becomes an explicit loop here. onDemote, if non-nil, is called once
// for every process that gets demoted a level.
//
// If none of the three levels holds a RUNNABLE candidate, returns nil,
// unlike the original's undefined null-proc_h dereference in that same
// (unreachable in practice, since choice() only calls this when the
// MLFQ pool is non-empty) corner.
func (e *mlfqEngine) start(a *listArena, onDemote func()) *Proc {
	for level := 0; level < 3; level++ {
		q := mlfqQueueForLevel(level + 1)
		n := a.queues[q].start
		for n != nil && n.p.State != StateRunnable {
			n = n.next
		}
		if n == nil {
			continue
		}

		p := n.p
		p.mlfq.execCount++
		e.pass += 50
		e.boostingPeriod++

		if level <= 1 && p.mlfq.execCount%uint32(mlfqTimeAllot[level]) == 0 {
			a.pop(p, q)
			a.push(p, mlfqQueueForLevel(level+2))
			p.mlfq.level = level + 2
			p.mlfq.execCount = 0
			if onDemote != nil {
				onDemote()
			}
			return p
		}

		if p.mlfq.execCount%uint32(mlfqTimeQuantum[level]) == 0 {
			a.pop(p, q)
			a.push(p, q)
			if level == 2 {
				p.mlfq.execCount -= uint32(mlfqTimeQuantum[2])
			}
		}
		return p
	}
	return nil
}

// boost resets every MLFQ process to L1, clearing exec counts, and
// restarts the boost countdown. Ported from proc.c's mlfq_boosting.
func (e *mlfqEngine) boost(a *listArena) {
	for n := a.queues[queueMLFQ1].start; n != nil; n = n.next {
		n.p.mlfq.execCount = 0
	}

	for a.len(queueMLFQ3) > 0 {
		p := a.queues[queueMLFQ3].start.p
		a.pop(p, queueMLFQ3)
		a.push(p, queueMLFQ1)
		p.mlfq.level = 1
		p.mlfq.execCount = 0
	}
	for a.len(queueMLFQ2) > 0 {
		p := a.queues[queueMLFQ2].start.p
		a.pop(p, queueMLFQ2)
		a.push(p, queueMLFQ1)
		p.mlfq.level = 1
		p.mlfq.execCount = 0
	}

	e.boostingPeriod = 0
}
