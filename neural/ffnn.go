// Package neural provides the feed-forward networks that drive the cars.
package neural

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// NumOutputs is the control-vector arity: forward, left, right, reverse.
const NumOutputs = 4

var (
	// ErrTopology reports an invalid or mismatched layer layout.
	ErrTopology = errors.New("neural: invalid topology")
	// ErrInputSize reports an input vector of the wrong length.
	ErrInputSize = errors.New("neural: input size mismatch")
)

// Layer is one fully connected level of the network.
type Layer struct {
	Weights *mat.Dense // input × output
	Biases  []float64  // one per output
}

// InputCount returns the number of inputs the layer accepts.
func (l *Layer) InputCount() int {
	r, _ := l.Weights.Dims()
	return r
}

// OutputCount returns the number of outputs the layer produces.
func (l *Layer) OutputCount() int {
	return len(l.Biases)
}

// forward applies the weighted sum and the binary step.
// An output fires when its weighted sum strictly exceeds its bias.
func (l *Layer) forward(inputs []float64) []float64 {
	var sums mat.VecDense
	sums.MulVec(l.Weights.T(), mat.NewVecDense(len(inputs), inputs))

	outputs := make([]float64, len(l.Biases))
	for j, bias := range l.Biases {
		if sums.AtVec(j) > bias {
			outputs[j] = 1
		}
	}
	return outputs
}

// Network is a fixed-topology feed-forward network.
type Network struct {
	Layers []*Layer
}

// NewNetwork creates a network with weights and biases drawn uniformly from [-1, 1].
// counts lists neuron counts from the input layer to the output layer, e.g. [5, 6, 4].
func NewNetwork(rng *rand.Rand, counts ...int) (*Network, error) {
	if err := validateCounts(counts); err != nil {
		return nil, err
	}

	nn := &Network{Layers: make([]*Layer, len(counts)-1)}
	for i := range nn.Layers {
		l := &Layer{
			Weights: mat.NewDense(counts[i], counts[i+1], nil),
			Biases:  make([]float64, counts[i+1]),
		}
		randomize(rng, l)
		nn.Layers[i] = l
	}
	return nn, nil
}

func validateCounts(counts []int) error {
	if len(counts) < 2 {
		return fmt.Errorf("%w: need at least input and output counts, got %v", ErrTopology, counts)
	}
	for _, c := range counts {
		if c < 1 {
			return fmt.Errorf("%w: neuron counts must be positive, got %v", ErrTopology, counts)
		}
	}
	return nil
}

func randomize(rng *rand.Rand, l *Layer) {
	rows, cols := l.Weights.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			l.Weights.Set(i, j, rng.Float64()*2-1)
		}
	}
	for j := range l.Biases {
		l.Biases[j] = rng.Float64()*2 - 1
	}
}

// Topology returns the neuron counts per level, inputs first.
func (nn *Network) Topology() []int {
	if len(nn.Layers) == 0 {
		return nil
	}
	counts := []int{nn.Layers[0].InputCount()}
	for _, l := range nn.Layers {
		counts = append(counts, l.OutputCount())
	}
	return counts
}

// HasTopology reports whether the network matches the given neuron counts.
func (nn *Network) HasTopology(counts []int) bool {
	return slices.Equal(nn.Topology(), counts)
}

// FeedForward runs the inputs through every layer in order.
// Every output is exactly 0 or 1.
func (nn *Network) FeedForward(inputs []float64) ([]float64, error) {
	if len(nn.Layers) == 0 {
		return nil, fmt.Errorf("%w: network has no layers", ErrTopology)
	}
	if want := nn.Layers[0].InputCount(); len(inputs) != want {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInputSize, len(inputs), want)
	}

	outputs := inputs
	for _, l := range nn.Layers {
		outputs = l.forward(outputs)
	}
	return outputs, nil
}

// Activations holds the inputs and outputs seen by one layer.
type Activations struct {
	Inputs  []float64
	Outputs []float64
}

// FeedForwardWithCapture is FeedForward that also records per-layer activations
// for visualization.
func (nn *Network) FeedForwardWithCapture(inputs []float64) ([]float64, []Activations, error) {
	if len(nn.Layers) == 0 {
		return nil, nil, fmt.Errorf("%w: network has no layers", ErrTopology)
	}
	if want := nn.Layers[0].InputCount(); len(inputs) != want {
		return nil, nil, fmt.Errorf("%w: got %d, want %d", ErrInputSize, len(inputs), want)
	}

	acts := make([]Activations, len(nn.Layers))
	outputs := inputs
	for i, l := range nn.Layers {
		acts[i].Inputs = slices.Clone(outputs)
		outputs = l.forward(outputs)
		acts[i].Outputs = outputs
	}
	return outputs, acts, nil
}

// Mutate blends every bias and weight toward a fresh random value in [-1, 1].
// amount 0 leaves the network untouched, amount 1 fully re-randomizes it.
func (nn *Network) Mutate(rng *rand.Rand, amount float64) {
	for _, l := range nn.Layers {
		for j := range l.Biases {
			l.Biases[j] = lerp(l.Biases[j], rng.Float64()*2-1, amount)
		}
		rows, cols := l.Weights.Dims()
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				l.Weights.Set(i, j, lerp(l.Weights.At(i, j), rng.Float64()*2-1, amount))
			}
		}
	}
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Clone creates a deep copy of the network.
func (nn *Network) Clone() *Network {
	clone := &Network{Layers: make([]*Layer, len(nn.Layers))}
	for i, l := range nn.Layers {
		clone.Layers[i] = &Layer{
			Weights: mat.DenseCopyOf(l.Weights),
			Biases:  slices.Clone(l.Biases),
		}
	}
	return clone
}
