// Package graph holds the entities a Hidra world is made of: neurons,
// synapses, input/output nodes, and the global hormone vector. It knows
// nothing about ticks, RNG, or HGL — internal/world orchestrates those
// against the Graph's API, which mirrors the teacher's AstrocyteNetwork
// component registry narrowed to exactly this engine's entity shapes.
package graph

import (
	"sort"
	"sync"

	"github.com/hidra-sim/hidra/internal/herr"
	"github.com/hidra-sim/hidra/types"
)

// Graph owns every neuron, synapse, and I/O node in a world, plus the
// global hormone vector. All ID-producing mutations use an atomic
// fetch-and-increment on the relevant counter, and IDs are never reused.
type Graph struct {
	mu sync.RWMutex

	// entityCounter is shared by neurons and I/O nodes: "IDs are drawn
	// from the same space as neuron IDs but partitioned by registration."
	entityCounter  uint64
	synapseCounter uint64

	neurons     map[uint64]*Neuron
	synapses    map[uint64]*Synapse
	inputNodes  map[uint64]*InputNode
	outputNodes map[uint64]*OutputNode

	hormones [HormoneCount]float64
}

// NewGraph constructs an empty graph.
func NewGraph() *Graph {
	return &Graph{
		neurons:     make(map[uint64]*Neuron),
		synapses:    make(map[uint64]*Synapse),
		inputNodes:  make(map[uint64]*InputNode),
		outputNodes: make(map[uint64]*OutputNode),
	}
}

func (g *Graph) nextEntityID() uint64 {
	g.entityCounter++
	return g.entityCounter
}

func (g *Graph) nextSynapseID() uint64 {
	g.synapseCounter++
	return g.synapseCounter
}

// AddNeuron allocates a fresh ID, constructs a neuron at pos with the
// given default reserved LVars, and registers it. Safe for concurrent
// callers.
func (g *Graph) AddNeuron(pos types.Position3D, defaultThreshold, defaultDecayRate, defaultRefractoryPeriod float64) *Neuron {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.nextEntityID()
	n := newNeuron(id, pos, defaultThreshold, defaultDecayRate, defaultRefractoryPeriod)
	g.neurons[id] = n
	return n
}

// RestoreNeuron registers an already-constructed neuron (used by
// snapshot restore, which builds the Neuron value itself from persisted
// fields). Bumps entityCounter if id exceeds the current counter.
func (g *Graph) RestoreNeuron(n *Neuron) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.neurons[n.Id] = n
	if n.Id > g.entityCounter {
		g.entityCounter = n.Id
	}
}

// RestoreSynapse registers an already-constructed synapse at its
// persisted ID, used only by snapshot restore.
func (g *Graph) RestoreSynapse(s *Synapse) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.synapses[s.Id] = s
	if s.Id > g.synapseCounter {
		g.synapseCounter = s.Id
	}
}

// RestoreInputNode registers an already-constructed input node at its
// persisted ID, used only by snapshot restore.
func (g *Graph) RestoreInputNode(n *InputNode) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inputNodes[n.Id] = n
	if n.Id > g.entityCounter {
		g.entityCounter = n.Id
	}
}

// RestoreOutputNode registers an already-constructed output node at its
// persisted ID, used only by snapshot restore.
func (g *Graph) RestoreOutputNode(n *OutputNode) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.outputNodes[n.Id] = n
	if n.Id > g.entityCounter {
		g.entityCounter = n.Id
	}
}

// GetNeuron returns the neuron with id, or (nil, false).
func (g *Graph) GetNeuron(id uint64) (*Neuron, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.neurons[id]
	return n, ok
}

// ApoptoseNeuron marks a neuron inactive. It remains in the ID map for
// ID stability; callers are responsible for removing it from the
// spatial hash and pruning its synapses.
func (g *Graph) ApoptoseNeuron(id uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.neurons[id]
	if !ok {
		return herr.NotFound("neuron %d does not exist", id)
	}
	n.IsActive = false
	return nil
}

// PatchNeuronLVars applies a sparse index→value update to a neuron's
// LVar array. Indices outside [0, LVarCount) are rejected as a whole
// (no partial application).
func (g *Graph) PatchNeuronLVars(id uint64, patch map[int]float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.neurons[id]
	if !ok {
		return herr.NotFound("neuron %d does not exist", id)
	}
	for idx := range patch {
		if idx < 0 || idx >= LVarCount {
			return herr.Argument("LVar index %d out of range", idx)
		}
	}
	for idx, v := range patch {
		n.LVars[idx] = v
	}
	return nil
}

// NeuronIDsSorted returns every neuron ID (active and inactive) in
// ascending order, the iteration order required at every externally
// observable point.
func (g *Graph) NeuronIDsSorted() []uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return sortedKeys(g.neurons)
}

// ActiveNeuronIDsSorted returns only active neuron IDs, ascending.
func (g *Graph) ActiveNeuronIDsSorted() []uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ids := make([]uint64, 0, len(g.neurons))
	for id, n := range g.neurons {
		if n.IsActive {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// AddSynapse allocates a fresh synapse ID and registers the synapse.
func (g *Graph) AddSynapse(sourceID, targetID uint64, sigType SignalType, weight, parameter float64) *Synapse {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.nextSynapseID()
	s := newSynapse(id, sourceID, targetID, sigType, weight, parameter)
	g.synapses[id] = s
	return s
}

// RemoveSynapse deletes a synapse outright (synapses, unlike neurons,
// are not retained after removal — only their ID is never reused).
func (g *Graph) RemoveSynapse(id uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.synapses[id]; !ok {
		return herr.NotFound("synapse %d does not exist", id)
	}
	delete(g.synapses, id)
	return nil
}

// GetSynapse returns the synapse with id, or (nil, false).
func (g *Graph) GetSynapse(id uint64) (*Synapse, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	s, ok := g.synapses[id]
	return s, ok
}

// ActiveSynapsesSorted returns every active synapse ordered by ascending
// ID, the order the synapse pass must iterate in.
func (g *Graph) ActiveSynapsesSorted() []*Synapse {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Synapse, 0, len(g.synapses))
	for _, s := range g.synapses {
		if s.IsActive {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out
}

// RemoveSynapsesTouching deletes every synapse whose source or target is
// id, called when a neuron is apoptosed.
func (g *Graph) RemoveSynapsesTouching(id uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for sid, s := range g.synapses {
		if s.SourceId == id || s.TargetId == id {
			delete(g.synapses, sid)
		}
	}
}

// AddInputNode allocates a fresh ID from the shared entity space and
// registers an input node.
func (g *Graph) AddInputNode() *InputNode {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.nextEntityID()
	n := &InputNode{Id: id}
	g.inputNodes[id] = n
	return n
}

// RemoveInputNode deletes an input node outright.
func (g *Graph) RemoveInputNode(id uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.inputNodes[id]; !ok {
		return herr.NotFound("input node %d does not exist", id)
	}
	delete(g.inputNodes, id)
	return nil
}

// SetInputValue writes an input node's value.
func (g *Graph) SetInputValue(id uint64, value float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.inputNodes[id]
	if !ok {
		return herr.NotFound("input node %d does not exist", id)
	}
	n.Value = value
	return nil
}

// GetInputNode returns the input node with id, or (nil, false).
func (g *Graph) GetInputNode(id uint64) (*InputNode, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.inputNodes[id]
	return n, ok
}

// InputNodeIDsSorted returns every input node ID, ascending.
func (g *Graph) InputNodeIDsSorted() []uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return sortedKeys(g.inputNodes)
}

// AddOutputNode allocates a fresh ID from the shared entity space and
// registers an output node.
func (g *Graph) AddOutputNode() *OutputNode {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.nextEntityID()
	n := &OutputNode{Id: id}
	g.outputNodes[id] = n
	return n
}

// RemoveOutputNode deletes an output node outright.
func (g *Graph) RemoveOutputNode(id uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.outputNodes[id]; !ok {
		return herr.NotFound("output node %d does not exist", id)
	}
	delete(g.outputNodes, id)
	return nil
}

// GetOutputNode returns the output node with id, or (nil, false).
func (g *Graph) GetOutputNode(id uint64) (*OutputNode, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.outputNodes[id]
	return n, ok
}

// SetOutputValue writes an output node's value; called by the synapse
// pass and by the structural event drain, never by external callers.
func (g *Graph) SetOutputValue(id uint64, value float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.outputNodes[id]
	if !ok {
		return herr.NotFound("output node %d does not exist", id)
	}
	n.Value = value
	return nil
}

// OutputNodeIDsSorted returns every output node ID, ascending.
func (g *Graph) OutputNodeIDsSorted() []uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return sortedKeys(g.outputNodes)
}

// SetHormone writes hormone idx.
func (g *Graph) SetHormone(idx int, value float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if idx < 0 || idx >= HormoneCount {
		return herr.Argument("hormone index %d out of range", idx)
	}
	g.hormones[idx] = value
	return nil
}

// GetHormone reads hormone idx.
func (g *Graph) GetHormone(idx int) float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if idx < 0 || idx >= HormoneCount {
		return 0
	}
	return g.hormones[idx]
}

// Hormones returns a copy of the full hormone vector, for snapshotting.
func (g *Graph) Hormones() [HormoneCount]float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.hormones
}

// SetHormones replaces the entire hormone vector, used by snapshot
// restore.
func (g *Graph) SetHormones(h [HormoneCount]float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.hormones = h
}

// Counters returns the current (entityCounter, synapseCounter) pair for
// persistence.
func (g *Graph) Counters() (entity, synapse uint64) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.entityCounter, g.synapseCounter
}

// SetCounters restores the (entityCounter, synapseCounter) pair from a
// snapshot. Never lowers a counter below its current value.
func (g *Graph) SetCounters(entity, synapse uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if entity > g.entityCounter {
		g.entityCounter = entity
	}
	if synapse > g.synapseCounter {
		g.synapseCounter = synapse
	}
}

func sortedKeys[V any](m map[uint64]V) []uint64 {
	out := make([]uint64, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
