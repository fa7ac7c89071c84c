// Package hgl compiles and executes Hidra Genesis Language genomes: hex
// bytecode split into genes by the literal delimiter "GN", each gene a
// flat instruction stream for a small stack-based virtual machine.
package hgl

import (
	"strings"

	"github.com/hidra-sim/hidra/internal/herr"
)

const (
	// GeneGenesis is invoked once when a neuron is created through the
	// world's AddNeuron, to initialize its free LVar slots (5..238);
	// mitosed children run GeneGestation instead.
	GeneGenesis = 0
	// GeneGestation is invoked on a newly mitosed child neuron, after its
	// brain has been cloned from the parent, to let the genome adjust the
	// child's starting LVars.
	GeneGestation = 1
	// GeneMitosisSystem and GeneApoptosisSystem are reserved slots a
	// genome may use to hold the bytecode a Mitosis/Apoptosis structural
	// event runs in addition to the engine's own built-in handling; they
	// are optional even though their slots are reserved.
	GeneMitosisSystem   = 2
	GeneApoptosisSystem = 3
)

// Gene is one compiled, numbered unit of a genome.
type Gene struct {
	ID           int
	Instructions []Instruction
}

// Registry maps gene ID to its compiled instruction stream.
type Registry struct {
	genes map[int]*Gene
}

// Genes returns the gene IDs present, for iteration/inspection.
func (r *Registry) Genes() map[int]*Gene { return r.genes }

// Gene returns the gene with id, or (nil, false).
func (r *Registry) Gene(id int) (*Gene, bool) {
	g, ok := r.genes[id]
	return g, ok
}

// Validate checks that Gene 0 (Genesis) is present and that
// systemGeneCount is at least 1; gene IDs are not bounded, and the
// systemGeneCount slots beyond Genesis are reserved but not required to
// be present.
func (r *Registry) Validate(systemGeneCount int) error {
	if _, ok := r.genes[GeneGenesis]; !ok {
		return herr.Configuration("genome missing required Gene 0 (Genesis)")
	}
	if systemGeneCount < 1 {
		return herr.Configuration("systemGeneCount must be at least 1")
	}
	return nil
}

// ParseGenome compiles genome text into a Registry. The text is
// uppercased, non-hex characters are stripped, and genes are split on
// the literal delimiter "GN" (after normalization, so "GN" inside what
// was originally lowercase or punctuated text still delimits correctly
// as long as it decodes to the two bytes 'G' and 'N' are never valid hex
// digits themselves, making the split unambiguous against gene payload
// bytes). A gene with an odd number of hex digits has its trailing
// half-byte padded with a '0' nibble.
func ParseGenome(text string) (*Registry, error) {
	normalized := normalizeHex(text)
	parts := strings.Split(normalized, "GN")

	reg := &Registry{genes: make(map[int]*Gene)}
	geneID := 0
	for _, part := range parts {
		if part == "" {
			// An intentionally empty gene slot (back-to-back "GN"
			// delimiters) still occupies a positional ID; it stays
			// absent from the registry, but geneID must still advance
			// so every later gene keeps its correct positional index.
			geneID++
			continue
		}
		if len(part)%2 != 0 {
			part += "0"
		}
		raw, err := decodeHex(part)
		if err != nil {
			return nil, herr.Wrapf(herr.KindConfiguration, err, "gene %d is not valid hex", geneID)
		}
		instrs, err := decodeInstructions(raw)
		if err != nil {
			return nil, herr.Wrapf(herr.KindConfiguration, err, "gene %d failed to decode", geneID)
		}
		reg.genes[geneID] = &Gene{ID: geneID, Instructions: instrs}
		geneID++
	}
	return reg, nil
}

// normalizeHex uppercases the input and strips every character that is
// neither a hex digit nor part of the literal "GN" delimiter.
func normalizeHex(text string) string {
	upper := strings.ToUpper(text)
	var b strings.Builder
	b.Grow(len(upper))
	for i := 0; i < len(upper); i++ {
		c := upper[i]
		switch {
		case c >= '0' && c <= '9':
			b.WriteByte(c)
		case c >= 'A' && c <= 'F':
			// 'G' is excluded here; only true hex digits A-F pass, so a
			// literal "GN" delimiter can never be confused with hex
			// payload (G and N are not hex digits).
			b.WriteByte(c)
		case c == 'G' || c == 'N':
			b.WriteByte(c)
		}
	}
	return b.String()
}

func decodeHex(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, herr.Configuration("odd-length hex string after padding")
	}
	out := make([]byte, len(s)/2)
	for i := 0; i < len(out); i++ {
		hi, err := hexDigit(s[2*i])
		if err != nil {
			return nil, err
		}
		lo, err := hexDigit(s[2*i+1])
		if err != nil {
			return nil, err
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexDigit(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	default:
		return 0, herr.Configuration("invalid hex digit %q", c)
	}
}
