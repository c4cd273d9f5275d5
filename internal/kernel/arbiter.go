package kernel

// choice selects which of the three pools (MLFQ, SHARE, DEFAULT) the
// next dispatch comes from, then asks that pool's engine to pick the
// actual process. Ported statement-for-statement from proc.c's
// choice(): the nested pairwise comparisons of the three pools' pass
// values build an explicit priority order, broken out here as an
// order[3] array of pool tags rather than reinvented as, say, a sort,
// since the exact tie-break behavior matters more than the
// implementation's elegance.
//
// Must be called with k.mu held.
func (k *Kernel) choice() *Proc {
	var dExist, mExist, sExist bool
	var shareCandidate *Proc

	for i := range k.table {
		p := &k.table[i]
		if p.State != StateRunnable {
			continue
		}
		switch p.Class {
		case ClassDefault:
			dExist = true
		case ClassMLFQ:
			mExist = true
		case ClassShare:
			sExist = true
			if shareCandidate == nil || p.share.pass < shareCandidate.share.pass {
				shareCandidate = p
			}
		}
	}

	var sharePass int64 = 1
	if sExist {
		sharePass = shareCandidate.share.pass
	}
	mlfqPass := k.mlfq.pass
	stridePass := k.stride.pass

	flag := func(exist bool, tag int) int {
		if exist {
			return tag
		}
		return 0
	}

	// tag 1 = DEFAULT, 2 = SHARE, 3 = MLFQ — matching proc.c's pool
	// ordinals for the order[] array.
	var order [3]int
	switch {
	case sharePass > mlfqPass:
		switch {
		case mlfqPass < stridePass:
			if stridePass > sharePass {
				order = [3]int{flag(mExist, 3), flag(sExist, 2), flag(dExist, 1)}
			} else {
				order = [3]int{flag(mExist, 3), flag(dExist, 1), flag(sExist, 2)}
			}
		default:
			order = [3]int{flag(dExist, 1), flag(mExist, 3), flag(sExist, 2)}
		}
	default:
		switch {
		case sharePass < stridePass:
			if mlfqPass < stridePass {
				order = [3]int{flag(sExist, 2), flag(mExist, 3), flag(dExist, 1)}
			} else {
				order = [3]int{flag(sExist, 2), flag(dExist, 1), flag(mExist, 3)}
			}
		default:
			order = [3]int{flag(dExist, 1), flag(sExist, 2), flag(mExist, 3)}
		}
	}

	for _, tag := range order {
		switch tag {
		case 3:
			if p := k.mlfq.start(k.arena, k.onDemote); p != nil {
				k.minPass = k.mlfq.pass
				return p
			}
		case 2:
			if shareCandidate != nil {
				p := shareCandidate
				p.share.stride = stridePrecision / p.share.share
				p.share.pass += p.share.stride
				k.minPass = p.share.pass
				return p
			}
		case 1:
			if p := k.stride.start(k.arena, k.returnStride); p != nil {
				k.minPass = k.stride.pass
				return p
			}
		}
	}
	return nil
}
