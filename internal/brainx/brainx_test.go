package brainx

import (
	"testing"

	"github.com/hidra-sim/hidra/internal/graph"
	"github.com/stretchr/testify/require"
)

func TestPassThroughReturnsInputsUnchanged(t *testing.T) {
	b := NewPassThrough()
	out := b.Evaluate([]float64{1, 2, 3})
	require.Equal(t, []float64{1, 2, 3}, out)
}

func TestLogicGateXOR(t *testing.T) {
	b := NewLogicGateBrain(GateXOR)
	require.Equal(t, []float64{0}, b.Evaluate([]float64{0, 0}))
	require.Equal(t, []float64{1}, b.Evaluate([]float64{1, 0}))
	require.Equal(t, []float64{1}, b.Evaluate([]float64{0, 1}))
	require.Equal(t, []float64{0}, b.Evaluate([]float64{1, 1}))
}

func TestLogicGateNOT(t *testing.T) {
	b := NewLogicGateBrain(GateNOT)
	require.Equal(t, []float64{1}, b.Evaluate([]float64{0}))
	require.Equal(t, []float64{0}, b.Evaluate([]float64{1}))
}

func TestFlipFlopSetAndReset(t *testing.T) {
	b := NewFlipFlopBrain()
	require.Equal(t, []float64{1}, b.Evaluate([]float64{1, 0}))
	require.Equal(t, []float64{1}, b.Evaluate([]float64{0, 0}))
	require.Equal(t, []float64{0}, b.Evaluate([]float64{0, 1}))
}

func TestFlipFlopCloneIsIndependent(t *testing.T) {
	b := NewFlipFlopBrain()
	b.Evaluate([]float64{1, 0})
	clone := b.Clone().(*FlipFlopBrain)
	require.True(t, clone.State)

	clone.Evaluate([]float64{0, 1})
	require.False(t, clone.State)
	require.True(t, b.State)
}

func TestFeedForwardSingleLayerLinear(t *testing.T) {
	b := NewFeedForwardBrain([]Layer{
		{Weights: []float64{1, 0, 0, 1}, Biases: []float64{0, 0}, Inputs: 2, Outputs: 2},
	}, ActivationLinear)
	out := b.Evaluate([]float64{3, 4})
	require.InDeltaSlice(t, []float64{3, 4}, out, 1e-9)
}

func TestFeedForwardSigmoidSquashes(t *testing.T) {
	b := NewFeedForwardBrain([]Layer{
		{Weights: []float64{1}, Biases: []float64{0}, Inputs: 1, Outputs: 1},
	}, ActivationSigmoid)
	out := b.Evaluate([]float64{0})
	require.InDelta(t, 0.5, out[0], 1e-9)
}

func TestFeedForwardCloneIsDeepCopy(t *testing.T) {
	b := NewFeedForwardBrain([]Layer{
		{Weights: []float64{1}, Biases: []float64{0}, Inputs: 1, Outputs: 1},
	}, ActivationLinear)
	clone := b.Clone().(*FeedForwardBrain)
	clone.Layers[0].Weights[0] = 99
	require.Equal(t, 1.0, b.Layers[0].Weights[0])
}

func TestMarshalUnmarshalRoundTripEachKind(t *testing.T) {
	brains := []graph.Brain{
		NewPassThrough(),
		NewLogicGateBrain(GateAND),
		NewFlipFlopBrain(),
		NewFeedForwardBrain([]Layer{{Weights: []float64{1}, Biases: []float64{0}, Inputs: 1, Outputs: 1}}, ActivationTanh),
	}
	for _, b := range brains {
		data, err := Marshal(b)
		require.NoError(t, err)

		restored, err := Unmarshal(data)
		require.NoError(t, err)
		require.Equal(t, b.Kind(), restored.Kind())
	}
}

func TestUnmarshalUnknownKindErrors(t *testing.T) {
	_, err := Unmarshal([]byte(`{"kind":"nonsense","payload":{}}`))
	require.Error(t, err)
}
