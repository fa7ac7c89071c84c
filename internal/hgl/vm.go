package hgl

import "github.com/hidra-sim/hidra/internal/herr"

// Callbacks is the world's mutation surface exposed to a running gene,
// injected by internal/world the way the teacher's ExtracellularMatrix
// injects a Callbacks struct into neurons and synapses rather than
// handing them a pointer back to itself. A gene only ever sees this
// narrow surface, never the graph or the event queue directly.
type Callbacks struct {
	GetLVar    func(neuronID uint64, idx int) float64
	SetLVar    func(neuronID uint64, idx int, value float64)
	GetHormone func(idx int) float64
	SetHormone func(idx int, value float64)

	// QueueMitosis and QueueApoptosis record the effect for next-tick
	// materialization rather than mutating the graph immediately — doing
	// either mid-tick would violate the in-tick invariants the
	// integration and synapse passes depend on.
	QueueMitosis   func(parentID uint64)
	QueueApoptosis func(neuronID uint64)

	// QueueSynapse requests a new synapse from the invoking neuron;
	// internal/world adds it to the graph at once rather than through the
	// event queue. sigType is the raw graph.SignalType value, passed as an
	// int so hgl has no dependency on internal/graph.
	QueueSynapse func(sourceID, targetID uint64, sigType int, weight float64)

	CurrentTick func() uint64
	RandFloat   func() float64
}

const maxSteps = 100000

// ExecuteGene runs gene's instruction stream to completion (or OpHalt),
// in the context of invokingNeuronID, using cb for every effect on the
// outside world. The VM's own operand stack stands in for the gene's
// local scope; nothing about gene execution escapes except through cb.
func ExecuteGene(gene *Gene, invokingNeuronID uint64, cb Callbacks) error {
	var stack []float64
	push := func(v float64) { stack = append(stack, v) }
	pop := func() float64 {
		if len(stack) == 0 {
			return 0
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v
	}

	pc := 0
	steps := 0
	for pc < len(gene.Instructions) {
		steps++
		if steps > maxSteps {
			return herr.Configuration("gene %d exceeded maximum instruction budget, likely an infinite loop", gene.ID)
		}

		ins := gene.Instructions[pc]
		nextPC := pc + 1

		switch ins.Op {
		case OpHalt:
			return nil
		case OpNop:
		case OpPushConst:
			push(pushConstValue(ins.Operand))
		case OpPushLVar:
			push(cb.GetLVar(invokingNeuronID, int(ins.Operand)))
		case OpPushHormone:
			push(cb.GetHormone(int(ins.Operand)))
		case OpSetLVar:
			cb.SetLVar(invokingNeuronID, int(ins.Operand), pop())
		case OpSetHormone:
			cb.SetHormone(int(ins.Operand), pop())
		case OpAdd:
			b, a := pop(), pop()
			push(a + b)
		case OpSub:
			b, a := pop(), pop()
			push(a - b)
		case OpMul:
			b, a := pop(), pop()
			push(a * b)
		case OpDiv:
			b, a := pop(), pop()
			if b == 0 {
				push(0)
			} else {
				push(a / b)
			}
		case OpDup:
			v := pop()
			push(v)
			push(v)
		case OpSwap:
			b, a := pop(), pop()
			push(b)
			push(a)
		case OpJump:
			nextPC = int(ins.Operand)
		case OpJumpIfZero:
			if pop() == 0 {
				nextPC = int(ins.Operand)
			}
		case OpMitosis:
			cb.QueueMitosis(invokingNeuronID)
		case OpApoptose:
			cb.QueueApoptosis(invokingNeuronID)
		case OpAddSynapse:
			weight := pop()
			targetID := uint64(pop())
			cb.QueueSynapse(invokingNeuronID, targetID, int(ins.Operand), weight)
		case OpPushTick:
			push(float64(cb.CurrentTick()))
		case OpPushRandom:
			push(cb.RandFloat())
		default:
			return herr.Configuration("gene %d: unhandled opcode %d", gene.ID, ins.Op)
		}

		if nextPC < 0 || nextPC > len(gene.Instructions) {
			return herr.Configuration("gene %d: jump target %d out of range", gene.ID, nextPC)
		}
		pc = nextPC
	}
	return nil
}
