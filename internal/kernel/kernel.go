package kernel

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

// DefaultNProc is the process table size used when Option WithNProc is
// not supplied, matching xv6's NPROC default.
const DefaultNProc = 64

// Kernel owns the process table, both policy engines, and the list
// arena behind a single coarse-grained mutex — the Go equivalent of
// xv6's ptable.lock guarding every process-table and scheduler-queue
// mutation.
type Kernel struct {
	mu sync.Mutex

	table []Proc
	arena *listArena

	mlfq   mlfqEngine
	stride strideEngine

	nextPID int64
	initPID int64
	minPass int64
	tick    uint64
	held    bool

	log *zap.Logger

	// onDispatch/onBoost/onDemote/onShareReject are optional observability
	// hooks, invoked while k.mu is held. cmd/schedsim wires these to
	// internal/metrics so dispatch decisions, boosts, demotions and
	// cpu_share rejections are visible to prometheus without this package
	// importing a metrics client directly.
	onDispatch    func(class SchedClass)
	onBoost       func()
	onDemote      func()
	onShareReject func()
}

// WithDispatchHook registers fn to be called, under the kernel lock,
// every time choice() picks a process to run.
func WithDispatchHook(fn func(class SchedClass)) Option {
	return func(k *Kernel) { k.onDispatch = fn }
}

// WithBoostHook registers fn to be called, under the kernel lock, every
// time the MLFQ boost fires.
func WithBoostHook(fn func()) Option {
	return func(k *Kernel) { k.onBoost = fn }
}

// WithDemoteHook registers fn to be called, under the kernel lock,
// every time mlfqEngine.start demotes a process a level.
func WithDemoteHook(fn func()) Option {
	return func(k *Kernel) { k.onDemote = fn }
}

// WithShareRejectHook registers fn to be called, under the kernel lock,
// every time CPUShare rejects a reservation request.
func WithShareRejectHook(fn func()) Option {
	return func(k *Kernel) { k.onShareReject = fn }
}

// Option configures a Kernel at construction time.
type Option func(*Kernel)

// WithNProc overrides the process table size.
func WithNProc(n int) Option {
	return func(k *Kernel) {
		k.table = make([]Proc, n)
		k.arena = newListArena(n)
	}
}

// WithLogger overrides the structured logger; defaults to zap.NewNop().
func WithLogger(log *zap.Logger) Option {
	return func(k *Kernel) { k.log = log }
}

// NewKernel constructs a Kernel with an empty process table. The table
// and arena are sized once here and never reallocated afterward, so
// every *Proc handed out by AllocProc/Fork remains valid for the life
// of the Kernel.
func NewKernel(opts ...Option) *Kernel {
	k := &Kernel{
		table:   make([]Proc, DefaultNProc),
		nextPID: 1,
		stride:  newStrideEngine(),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(k)
	}
	if k.arena == nil {
		k.arena = newListArena(len(k.table))
	}
	return k
}

// Boot allocates the first process (pid 1), pushing it straight to the
// DEFAULT Stride list and marking it RUNNABLE, mirroring proc.c's
// userinit(). The returned Proc's Workload is left nil; the caller sets
// it before running the dispatcher.
func (k *Kernel) Boot(name string) *Proc {
	k.mu.Lock()
	defer k.mu.Unlock()

	p := k.allocProcLocked(name)
	if p == nil {
		panic("kernel: Boot: process table full")
	}
	p.State = StateRunnable
	k.initPID = p.PID
	k.log.Info("booted init process", zap.Int64("pid", p.PID))
	return p
}

// Lock/Unlock expose the coarse kernel lock directly to callers that
// need to hold it across several operations (e.g. a CPU's dispatch
// loop across choice()+runTick). Mirrors acquire(&ptable.lock) /
// release(&ptable.lock) being callable from outside scheduler().
// held records whether mu is currently held through Lock (by any
// goroutine; acquisitions of mu inside other Kernel methods do not set
// it), purely so Sched can assert it the way proc.c's sched() asserts holding() —
// sync.Mutex itself has no public "am I held" query.
func (k *Kernel) Lock() {
	k.mu.Lock()
	k.held = true
}

func (k *Kernel) Unlock() {
	k.held = false
	k.mu.Unlock()
}

// MinPass returns the pass value of the last process choice() selected,
// a diagnostic field useful for observing how the three pools'
// competing pass values converge over time.
func (k *Kernel) MinPass() int64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.minPass
}

// Dump writes a human-readable snapshot of every non-UNUSED process to
// w: pid, state, scheduling class, and queue-relevant detail. Grounded
// on proc.c's procdump, including its "don't wedge a stuck machine
// further" stance — this takes the lock only for the brief snapshot
// copy, never while writing to w.
func (k *Kernel) Dump(w io.Writer) {
	k.mu.Lock()
	type row struct {
		pid   int64
		state ProcState
		class SchedClass
		name  string
		extra string
	}
	var rows []row
	for i := range k.table {
		p := &k.table[i]
		if p.State == StateUnused {
			continue
		}
		r := row{pid: p.PID, state: p.State, class: p.Class, name: p.Name}
		switch p.Class {
		case ClassMLFQ:
			r.extra = fmt.Sprintf("level=%d exec=%d", p.mlfq.level, p.mlfq.execCount)
		case ClassShare:
			r.extra = fmt.Sprintf("share=%d%% pass=%d", p.share.share, p.share.pass)
		case ClassDefault:
			r.extra = fmt.Sprintf("swtch=%d", p.deflt.swtch)
		}
		rows = append(rows, r)
	}
	k.mu.Unlock()

	for _, r := range rows {
		fmt.Fprintf(w, "pid=%d name=%q state=%s class=%s %s\n", r.pid, r.name, r.state, r.class, r.extra)
	}
}

// returnStride recomputes the DEFAULT pool's dynamic stride: the share
// not reserved by SHARE processes or (when non-empty) the MLFQ pool's
// fixed 20%, split evenly among the RUNNABLE DEFAULT processes. Ported
// from proc.c's return_stride, including its documented return-0 when
// no DEFAULT process exists.
func (k *Kernel) returnStride() int64 {
	sharePercent := int64(0)
	dpCount := int64(0)
	mlfqExist := int64(0)
	if k.mlfq.nonEmpty(k.arena) {
		mlfqExist = 1
	}

	for i := range k.table {
		p := &k.table[i]
		if p.State != StateRunnable {
			continue
		}
		switch p.Class {
		case ClassShare:
			sharePercent += p.share.share
		case ClassDefault:
			dpCount++
		}
	}

	if dpCount == 0 {
		return 0
	}
	return stridePrecision / (((100 - sharePercent) - 20*mlfqExist) / dpCount)
}
