package graph

// LVarCount is the width of every neuron's local variable array.
const LVarCount = 256

// Reserved LVar indices. 5..238 are free for HGL code to use as scratch.
const (
	LVarFiringThreshold           = 0
	LVarDecayRate                 = 1
	LVarRefractoryPeriod          = 2
	LVarThresholdAdaptationFactor = 3
	LVarThresholdRecoveryRate     = 4

	LVarRefractoryTimeLeft = 239
	LVarFiringRate         = 240
	LVarDendriticPotential = 241
	LVarSomaPotential      = 242
	LVarHealth             = 243
	LVarAge                = 244
	LVarAdaptiveThreshold  = 245
)

// HormoneCount is the width of the global hormone vector.
const HormoneCount = 256
