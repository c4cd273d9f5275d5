package kernel

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewKernelDefaultsAndOptions(t *testing.T) {
	k := NewKernel()
	require.Len(t, k.table, DefaultNProc)

	k2 := NewKernel(WithNProc(8), WithLogger(zaptest.NewLogger(t)))
	require.Len(t, k2.table, 8)
}

func TestDumpOmitsUnusedSlots(t *testing.T) {
	k := NewKernel(WithNProc(4))
	p := k.Boot("init")
	p.Name = "init"

	var buf bytes.Buffer
	k.Dump(&buf)
	out := buf.String()
	require.Contains(t, out, "pid=1")
	require.Contains(t, out, `name="init"`)
	// Three unallocated slots must not show up in the dump.
	require.NotContains(t, out, "pid=0")
}

func TestDispatchHookFiresOnChoice(t *testing.T) {
	var seen SchedClass = -1
	k := NewKernel(WithNProc(4), WithDispatchHook(func(class SchedClass) { seen = class }))
	p := k.Boot("init")
	p.Workload = func(proc *Proc, tick uint64) StepResult { return StepResult{Signal: SigExit} }

	stepOnce(k)
	require.Equal(t, ClassDefault, seen)
}

func TestBoostHookFires(t *testing.T) {
	boosts := 0
	k := NewKernel(WithNProc(4), WithBoostHook(func() { boosts++ }))
	init := k.Boot("init")
	init.Workload = func(p *Proc, tick uint64) StepResult { return StepResult{Signal: SigSleep, Chan: "idle"} }
	child := k.Fork(init, "busy")
	k.RunMLFQ(child)
	child.Workload = func(p *Proc, tick uint64) StepResult { return StepResult{Signal: SigContinue} }

	for i := 0; i < 101; i++ {
		stepOnce(k)
	}
	require.Equal(t, 1, boosts)
}
