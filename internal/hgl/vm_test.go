package hgl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testCallbacks() (Callbacks, *map[int]float64, *map[int]float64) {
	lvars := map[int]float64{}
	hormones := map[int]float64{}
	cb := Callbacks{
		GetLVar:    func(id uint64, idx int) float64 { return lvars[idx] },
		SetLVar:    func(id uint64, idx int, v float64) { lvars[idx] = v },
		GetHormone: func(idx int) float64 { return hormones[idx] },
		SetHormone: func(idx int, v float64) { hormones[idx] = v },
		QueueMitosis: func(id uint64) {},
		QueueApoptosis: func(id uint64) {},
		QueueSynapse: func(src, tgt uint64, sigType int, weight float64) {},
		CurrentTick: func() uint64 { return 42 },
		RandFloat:   func() float64 { return 0.5 },
	}
	return cb, &lvars, &hormones
}

func TestExecuteGenePushConstSetLVar(t *testing.T) {
	gene := &Gene{ID: 0, Instructions: []Instruction{
		{Op: OpPushConst, Operand: 0x20}, // 32/16 = 2.0
		{Op: OpSetLVar, Operand: 10},
		{Op: OpHalt},
	}}
	cb, lvars, _ := testCallbacks()
	require.NoError(t, ExecuteGene(gene, 1, cb))
	require.Equal(t, 2.0, (*lvars)[10])
}

func TestExecuteGeneArithmetic(t *testing.T) {
	gene := &Gene{ID: 0, Instructions: []Instruction{
		{Op: OpPushConst, Operand: 0x20}, // 2.0
		{Op: OpPushConst, Operand: 0x30}, // 3.0
		{Op: OpAdd},
		{Op: OpSetLVar, Operand: 0},
	}}
	cb, lvars, _ := testCallbacks()
	require.NoError(t, ExecuteGene(gene, 1, cb))
	require.Equal(t, 5.0, (*lvars)[0])
}

func TestExecuteGeneJumpIfZeroSkipsBranch(t *testing.T) {
	gene := &Gene{ID: 0, Instructions: []Instruction{
		{Op: OpPushConst, Operand: 0x00}, // 0.0
		{Op: OpJumpIfZero, Operand: 4},
		{Op: OpPushConst, Operand: 0x10}, // skipped: 1.0
		{Op: OpSetLVar, Operand: 1},
		{Op: OpHalt},
	}}
	cb, lvars, _ := testCallbacks()
	require.NoError(t, ExecuteGene(gene, 1, cb))
	require.Equal(t, 0.0, (*lvars)[1])
}

func TestExecuteGeneMitosisQueuesEffect(t *testing.T) {
	called := false
	gene := &Gene{ID: 0, Instructions: []Instruction{{Op: OpMitosis}}}
	cb, _, _ := testCallbacks()
	cb.QueueMitosis = func(id uint64) { called = true }
	require.NoError(t, ExecuteGene(gene, 7, cb))
	require.True(t, called)
}

func TestExecuteGeneInfiniteLoopHitsStepBudget(t *testing.T) {
	gene := &Gene{ID: 0, Instructions: []Instruction{
		{Op: OpJump, Operand: 0},
	}}
	cb, _, _ := testCallbacks()
	err := ExecuteGene(gene, 1, cb)
	require.Error(t, err)
}

func TestExecuteGeneDivByZeroPushesZero(t *testing.T) {
	gene := &Gene{ID: 0, Instructions: []Instruction{
		{Op: OpPushConst, Operand: 0x10},
		{Op: OpPushConst, Operand: 0x00},
		{Op: OpDiv},
		{Op: OpSetLVar, Operand: 0},
	}}
	cb, lvars, _ := testCallbacks()
	require.NoError(t, ExecuteGene(gene, 1, cb))
	require.Equal(t, 0.0, (*lvars)[0])
}
