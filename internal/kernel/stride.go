package kernel

// stridePrecision is the fixed-point scale ("K") for stride/pass
// arithmetic: stride = stridePrecision / share, matching proc.c's use
// of the literal 1000 throughout.
const stridePrecision = 1000

// shareBudget is the total percentage the SHARE pool may reserve; the
// DEFAULT pool and MLFQ always retain at least 80% of the CPU between
// them (proc.c's "100 - share_percent - 20*mlfq_exist").
const shareBudget = 20

// strideEngine is the Stride policy engine's state for the DEFAULT pool:
// its own pass value and the dynamically recomputed stride, plus the
// round-robin swtch flip used to give every DEFAULT process a turn
// before any repeats.
type strideEngine struct {
	pass      int64
	stride    int64
	switchNum int
}

func newStrideEngine() strideEngine {
	return strideEngine{stride: 100}
}

// start picks the next RUNNABLE DEFAULT process whose swtch flag matches
// the engine's current switchNum. When a full pass over the list finds
// no such candidate, it flips switchNum (completing a round), advances
// pass by the current stride, and recomputes stride via returnStride
// before trying again. Ported from proc.c's stride_start, whose
// goto-chained again/runnable/flp labels become the loop below.
//
// Returns nil immediately if the DEFAULT list is empty — returnStride
// would otherwise be asked to resolve a "0 DEFAULT processes" division
// that choice() should never be routing here in the first place.
func (e *strideEngine) start(a *listArena, returnStride func() int64) *Proc {
	if a.len(queueStride) == 0 {
		return nil
	}

	for {
		n := a.queues[queueStride].start
		for n != nil && (n.p.deflt.swtch != e.switchNum || n.p.State != StateRunnable) {
			n = n.next
		}
		if n != nil {
			n.p.deflt.swtch = 1 - e.switchNum
			return n.p
		}

		e.switchNum = 1 - e.switchNum
		e.pass += e.stride
		e.stride = returnStride()
	}
}
