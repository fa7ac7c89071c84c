package brainx

import (
	"encoding/json"

	"github.com/hidra-sim/hidra/internal/graph"
	"github.com/hidra-sim/hidra/internal/herr"
)

// envelope is the tagged-variant wrapper internal/snapshot persists for
// a neuron's brain: a Kind discriminator plus the kind-specific payload,
// re-architected from the source's embedded-type-tag JSON convention
// into an explicit enumerate-then-dispatch pair.
type envelope struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// Marshal produces the tagged envelope bytes for b.
func Marshal(b graph.Brain) ([]byte, error) {
	payload, err := json.Marshal(b)
	if err != nil {
		return nil, herr.Wrapf(herr.KindConfiguration, err, "marshaling brain of kind %s", b.Kind())
	}
	return json.Marshal(envelope{Kind: b.Kind(), Payload: payload})
}

// Unmarshal dispatches on the envelope's Kind to reconstruct the
// concrete Brain implementation.
func Unmarshal(data []byte) (graph.Brain, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, herr.Wrapf(herr.KindConfiguration, err, "decoding brain envelope")
	}
	switch env.Kind {
	case "pass_through":
		return NewPassThrough(), nil
	case "logic_gate":
		var b LogicGateBrain
		if err := json.Unmarshal(env.Payload, &b); err != nil {
			return nil, herr.Wrapf(herr.KindConfiguration, err, "decoding logic_gate brain")
		}
		return &b, nil
	case "flip_flop":
		var b FlipFlopBrain
		if err := json.Unmarshal(env.Payload, &b); err != nil {
			return nil, herr.Wrapf(herr.KindConfiguration, err, "decoding flip_flop brain")
		}
		return &b, nil
	case "feed_forward":
		var b FeedForwardBrain
		if err := json.Unmarshal(env.Payload, &b); err != nil {
			return nil, herr.Wrapf(herr.KindConfiguration, err, "decoding feed_forward brain")
		}
		return &b, nil
	default:
		return nil, herr.Configuration("unknown brain kind %q", env.Kind)
	}
}
