package hgl

import "github.com/hidra-sim/hidra/internal/herr"

// Opcode is one instruction in a gene's compiled bytecode. Each
// instruction is two bytes: the opcode followed by a single operand
// byte, whose meaning is opcode-specific (an LVar/hormone index, a
// jump target, a signal-type selector, or an unused filler).
type Opcode byte

const (
	OpHalt Opcode = iota
	OpNop
	OpPushConst     // operand: signed nibble-scaled constant, int8(operand)/16.0
	OpPushLVar      // operand: LVar index to read from the invoking neuron
	OpPushHormone   // operand: hormone index to read
	OpSetLVar       // operand: LVar index; pops top of stack and writes it
	OpSetHormone    // operand: hormone index; pops top of stack and writes it
	OpAdd           // pop b, pop a, push a+b
	OpSub           // pop b, pop a, push a-b
	OpMul           // pop b, pop a, push a*b
	OpDiv           // pop b, pop a, push a/b (0 if b == 0)
	OpDup           // duplicate top of stack
	OpSwap          // swap top two stack values
	OpJump          // operand: absolute instruction index to jump to
	OpJumpIfZero    // operand: absolute instruction index; pops top, jumps if zero
	OpMitosis       // queue a Mitosis structural event for the invoking neuron
	OpApoptose      // queue an Apoptosis structural event for the invoking neuron
	OpAddSynapse    // operand: SignalType selector; pops weight then target-id
	OpPushTick      // push the current tick as a float
	OpPushRandom    // push a uniform [0,1) draw from the simulation RNG stream
)

// Instruction is one decoded (opcode, operand) pair.
type Instruction struct {
	Op      Opcode
	Operand byte
}

func decodeInstructions(raw []byte) ([]Instruction, error) {
	out := make([]Instruction, 0, len(raw)/2)
	for i := 0; i+1 < len(raw); i += 2 {
		op := Opcode(raw[i])
		if op > OpPushRandom {
			return nil, herr.Configuration("unknown opcode 0x%02x at byte %d", raw[i], i)
		}
		out = append(out, Instruction{Op: op, Operand: raw[i+1]})
	}
	return out, nil
}

func pushConstValue(operand byte) float64 {
	return float64(int8(operand)) / 16.0
}
