package brainx

import (
	"math"

	"github.com/hidra-sim/hidra/internal/graph"
	"gonum.org/v1/gonum/mat"
)

// Activation names the nonlinearity applied after each layer's affine
// transform.
type Activation string

const (
	ActivationSigmoid Activation = "sigmoid"
	ActivationTanh    Activation = "tanh"
	ActivationReLU    Activation = "relu"
	ActivationLinear  Activation = "linear"
)

// Layer is one affine transform of a feed-forward network, stored in
// plain row-major slices so it serializes directly with encoding/json;
// Evaluate assembles a gonum matrix from it on the fly.
type Layer struct {
	Weights []float64 // row-major, Outputs×Inputs
	Biases  []float64 // length Outputs
	Inputs  int
	Outputs int
}

// FeedForwardBrain is a small multi-layer perceptron. It holds no
// mutable state between calls to Evaluate beyond its own weights, which
// HGL or an evolution driver may mutate between generations.
type FeedForwardBrain struct {
	Layers     []Layer
	Activation Activation
}

// NewFeedForwardBrain constructs a brain from pre-built layers.
func NewFeedForwardBrain(layers []Layer, activation Activation) *FeedForwardBrain {
	if activation == "" {
		activation = ActivationSigmoid
	}
	return &FeedForwardBrain{Layers: layers, Activation: activation}
}

func (b *FeedForwardBrain) Evaluate(inputs []float64) []float64 {
	x := inputs
	for _, layer := range b.Layers {
		if len(x) != layer.Inputs {
			// a structurally inconsistent layer is a caller bug (brain
			// structure edited without updating Inputs); degrade to a
			// zero vector of the expected output width rather than
			// panicking mid-tick.
			x = make([]float64, layer.Outputs)
			continue
		}
		w := mat.NewDense(layer.Outputs, layer.Inputs, append([]float64(nil), layer.Weights...))
		in := mat.NewVecDense(layer.Inputs, append([]float64(nil), x...))
		out := mat.NewVecDense(layer.Outputs, nil)
		out.MulVec(w, in)

		next := make([]float64, layer.Outputs)
		for i := 0; i < layer.Outputs; i++ {
			v := out.AtVec(i)
			if i < len(layer.Biases) {
				v += layer.Biases[i]
			}
			next[i] = applyActivation(b.Activation, v)
		}
		x = next
	}
	return x
}

func (b *FeedForwardBrain) Clone() graph.Brain {
	layers := make([]Layer, len(b.Layers))
	for i, l := range b.Layers {
		layers[i] = Layer{
			Weights: append([]float64(nil), l.Weights...),
			Biases:  append([]float64(nil), l.Biases...),
			Inputs:  l.Inputs,
			Outputs: l.Outputs,
		}
	}
	return &FeedForwardBrain{Layers: layers, Activation: b.Activation}
}

func (b *FeedForwardBrain) Kind() string { return "feed_forward" }

func applyActivation(a Activation, v float64) float64 {
	switch a {
	case ActivationTanh:
		return math.Tanh(v)
	case ActivationReLU:
		if v < 0 {
			return 0
		}
		return v
	case ActivationLinear:
		return v
	default:
		return 1 / (1 + math.Exp(-v))
	}
}
