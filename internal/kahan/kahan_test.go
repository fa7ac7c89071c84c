package kahan

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOrderIndependence(t *testing.T) {
	values := make([]float64, 2000)
	r := rand.New(rand.NewSource(1))
	for i := range values {
		values[i] = r.Float64()*2 - 1
	}

	var a Accumulator
	for _, v := range values {
		a.Add(v)
	}

	shuffled := append([]float64(nil), values...)
	r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	var b Accumulator
	for _, v := range shuffled {
		b.Add(v)
	}

	require.InDelta(t, a.Sum(), b.Sum(), 1e-12)
}

func TestResetZeroesState(t *testing.T) {
	var a Accumulator
	a.Add(1.0)
	a.Add(2.0)
	a.Reset()
	require.Equal(t, 0.0, a.Sum())
	a.Add(5.0)
	require.Equal(t, 5.0, a.Sum())
}

func TestSetPerTargetIsolation(t *testing.T) {
	s := NewSet()
	s.Add(1, 1.0)
	s.Add(2, 10.0)
	s.Add(1, 0.5)

	require.InDelta(t, 1.5, s.Sum(1), 1e-15)
	require.InDelta(t, 10.0, s.Sum(2), 1e-15)
	require.Equal(t, 0.0, s.Sum(999))
}

func TestSetPrune(t *testing.T) {
	s := NewSet()
	s.Add(1, 1.0)
	s.Add(2, 2.0)
	s.Prune(map[uint64]struct{}{1: {}})
	require.Equal(t, 0.0, s.Sum(2))
	require.InDelta(t, 1.0, s.Sum(1), 1e-15)
}
