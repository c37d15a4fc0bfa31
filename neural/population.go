package neural

import (
	"fmt"
	"math/rand"
)

// DefaultMutationAmount is the blend applied to every non-elite copy of the champion.
const DefaultMutationAmount = 0.1

// NewPopulation creates size independently owned networks with the given topology.
//
// Without a champion every network is freshly randomized. With a champion every
// network starts as a deep copy of it and all but index 0 are mutated by amount,
// so the champion itself always survives unchanged.
func NewPopulation(rng *rand.Rand, size int, topology []int, champion *Network, amount float64) ([]*Network, error) {
	if size < 1 {
		return nil, fmt.Errorf("neural: population size must be >= 1, got %d", size)
	}
	if err := validateCounts(topology); err != nil {
		return nil, err
	}
	if champion != nil && !champion.HasTopology(topology) {
		return nil, fmt.Errorf("%w: champion has %v, want %v", ErrTopology, champion.Topology(), topology)
	}

	nets := make([]*Network, size)
	for i := range nets {
		if champion == nil {
			nn, err := NewNetwork(rng, topology...)
			if err != nil {
				return nil, err
			}
			nets[i] = nn
			continue
		}

		nets[i] = champion.Clone()
		if i != 0 {
			nets[i].Mutate(rng, amount)
		}
	}
	return nets, nil
}
