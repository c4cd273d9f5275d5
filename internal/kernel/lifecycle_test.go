package kernel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBootAllocatesPID1OnDefaultList(t *testing.T) {
	k := NewKernel(WithNProc(4))
	p := k.Boot("init")
	require.EqualValues(t, 1, p.PID)
	require.Equal(t, StateRunnable, p.State)
	require.Equal(t, 1, k.arena.len(queueStride))
}

func TestForkCopiesClassAndPushesChild(t *testing.T) {
	k := NewKernel(WithNProc(4))
	parent := k.Boot("init")
	child := k.Fork(parent, "child")
	require.NotNil(t, child)
	require.Equal(t, parent, child.Parent)
	require.Equal(t, StateRunnable, child.State)
	require.Equal(t, 2, k.arena.len(queueStride)) // parent (pid1) + child
}

func TestForkFailsWhenTableFull(t *testing.T) {
	k := NewKernel(WithNProc(1))
	parent := k.Boot("init")
	require.Nil(t, k.Fork(parent, "child"))
}

func TestExitReparentsChildrenToInit(t *testing.T) {
	k := NewKernel(WithNProc(4))
	init := k.Boot("init")
	mid := k.Fork(init, "mid")
	leaf := k.Fork(mid, "leaf")

	k.Exit(mid, 0)
	require.Equal(t, StateZombie, mid.State)
	require.Same(t, init, leaf.Parent)
}

func TestWaitReapsZombieChildAndPopsQueue(t *testing.T) {
	k := NewKernel(WithNProc(4))
	parent := k.Boot("init")
	child := k.Fork(parent, "child")
	require.Equal(t, 2, k.arena.len(queueStride))

	childPID := child.PID
	k.Exit(child, 7)
	pid, status := k.Wait(parent)
	require.Equal(t, childPID, pid)
	require.Equal(t, 7, status)
	require.Equal(t, 1, k.arena.len(queueStride))
	require.Equal(t, StateUnused, child.State)
}

func TestWaitReturnsMinusOneWithNoChildren(t *testing.T) {
	k := NewKernel(WithNProc(4))
	lone := k.Boot("init")
	pid, _ := k.Wait(lone)
	require.EqualValues(t, -1, pid)
}

func TestWaitReturnsZeroWithLiveChildren(t *testing.T) {
	k := NewKernel(WithNProc(4))
	parent := k.Boot("init")
	k.Fork(parent, "child")
	pid, _ := k.Wait(parent)
	require.EqualValues(t, 0, pid)
}

func TestGetLevReturnsZeroIndexedLevel(t *testing.T) {
	k := NewKernel(WithNProc(4))
	p := k.Boot("init")
	require.Equal(t, -1, k.GetLev(p))

	k.RunMLFQ(p)
	require.Equal(t, 0, k.GetLev(p))
}

func TestCPUShareBoundaries(t *testing.T) {
	cases := []struct {
		name    string
		percent int64
		ok      bool
	}{
		{"zero rejected", 0, false},
		{"negative rejected", -5, false},
		{"one accepted", 1, true},
		{"exactly budget accepted", shareBudget, true},
		{"over budget rejected", shareBudget + 1, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			k := NewKernel(WithNProc(4))
			p := k.Boot("init")
			rc := k.CPUShare(p, tc.percent)
			if tc.ok {
				require.Equal(t, 0, rc)
				require.Equal(t, ClassShare, p.Class)
			} else {
				require.Equal(t, 1, rc)
				require.Equal(t, ClassDefault, p.Class)
			}
		})
	}
}

func TestCPUShareRejectsWhenBudgetWouldOverflow(t *testing.T) {
	k := NewKernel(WithNProc(4))
	p1 := k.Boot("init")
	p2 := k.Fork(p1, "p2")

	require.Equal(t, 0, k.CPUShare(p1, 15))
	require.Equal(t, 1, k.CPUShare(p2, 10)) // 15+10 > 20
	require.Equal(t, 0, k.CPUShare(p2, 5))  // 15+5 == 20, allowed
}

func TestRunMLFQFromShareClearsShareAccounting(t *testing.T) {
	k := NewKernel(WithNProc(4))
	p1 := k.Boot("init")
	p2 := k.Fork(p1, "p2")

	require.Equal(t, 0, k.CPUShare(p2, 15))
	require.Equal(t, 0, k.RunMLFQ(p2))
	require.Equal(t, ClassMLFQ, p2.Class)

	// Σshare must reflect the removal: a fresh 20% reservation now fits.
	require.Equal(t, 0, k.CPUShare(p1, 20))
}

func TestRunMLFQNoOpWhenAlreadyMLFQ(t *testing.T) {
	k := NewKernel(WithNProc(4))
	p := k.Boot("init")
	require.Equal(t, 0, k.RunMLFQ(p))
	require.Equal(t, 1, k.RunMLFQ(p))
}
