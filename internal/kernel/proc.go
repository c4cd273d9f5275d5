// Package kernel implements the combined MLFQ + Stride process scheduler:
// a fixed process table, two policy engines, an intrusive membership
// list arena, a pass-based arbiter, and the lifecycle hooks that drive
// them. The algorithms are ported from xv6's proc.c; the shape of the
// package (fixed table, coarse lock, functional-options construction,
// structured logging) follows this repo's own idiom conventions.
package kernel

import "fmt"

// ProcState is the lifecycle state of a process control block.
type ProcState int

const (
	StateUnused ProcState = iota
	StateEmbryo
	StateSleeping
	StateRunnable
	StateRunning
	StateZombie
)

func (s ProcState) String() string {
	switch s {
	case StateUnused:
		return "UNUSED"
	case StateEmbryo:
		return "EMBRYO"
	case StateSleeping:
		return "SLEEPING"
	case StateRunnable:
		return "RUNNABLE"
	case StateRunning:
		return "RUNNING"
	case StateZombie:
		return "ZOMBIE"
	default:
		return fmt.Sprintf("ProcState(%d)", int(s))
	}
}

// SchedClass selects which policy engine owns a process: the DEFAULT
// Stride pool, the SHARE Stride pool, or the MLFQ pool.
type SchedClass int

const (
	ClassDefault SchedClass = iota
	ClassShare
	ClassMLFQ
)

func (c SchedClass) String() string {
	switch c {
	case ClassDefault:
		return "DEFAULT"
	case ClassShare:
		return "SHARE"
	case ClassMLFQ:
		return "MLFQ"
	default:
		return fmt.Sprintf("SchedClass(%d)", int(c))
	}
}

// mlfqData is the per-process state the MLFQ engine maintains. Level is
// 1-indexed (L1/L2/L3) to match proc.c and the queue numbering in list.go.
type mlfqData struct {
	level     int
	execCount uint32
}

// shareData is the per-process state of a SHARE-pool member.
type shareData struct {
	share  int64
	stride int64
	pass   int64
}

// defaultData is the per-process state of a DEFAULT-pool member: which
// half of the round-robin swtch flip it currently belongs to.
type defaultData struct {
	swtch int
}

// Proc is a process control block. Once allocated at a table slot by
// NewKernel, a *Proc's address never changes for the lifetime of the
// Kernel: the table is a fixed-length slice that is never appended to,
// so slot addresses are stable, the same property proc.c gets from a
// fixed-size ptable array of structs.
type Proc struct {
	PID    int64
	State  ProcState
	Parent *Proc
	Killed bool
	Name   string

	Class SchedClass
	mlfq  mlfqData
	share shareData
	deflt defaultData

	// Chan is the wait channel a SLEEPING process is blocked on; compared
	// by identity, never dereferenced by the scheduler.
	Chan any

	// Context, KStack and PgDir stand in for the VM/trapframe/kernel-stack
	// state a real kernel would save across a context switch. They are
	// opaque to every operation in this package and exist only so callers
	// porting real process state have somewhere to put it.
	Context any
	KStack  []byte
	PgDir   any
	Sz      int

	// ExitStatus is set by Exit and consumed by Wait.
	ExitStatus int

	// Workload is invoked once per dispatch, in place of a real context
	// switch; see workload.go.
	Workload Workload
}

// Level returns the 1-indexed MLFQ level (1..3), or 0 if the process is
// not currently in the MLFQ class.
func (p *Proc) Level() int {
	if p.Class != ClassMLFQ {
		return 0
	}
	return p.mlfq.level
}

// Share returns the process's reserved CPU-share percentage, or 0 if it
// is not currently in the SHARE class.
func (p *Proc) Share() int64 {
	if p.Class != ClassShare {
		return 0
	}
	return p.share.share
}
