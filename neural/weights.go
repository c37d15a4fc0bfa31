package neural

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"

	"github.com/cespare/xxhash/v2"
	"gonum.org/v1/gonum/mat"
)

// LayerWeights is the serialized form of one layer.
// Weights[i][j] connects input i to output j.
type LayerWeights struct {
	Weights [][]float64 `json:"weights"`
	Biases  []float64   `json:"biases"`
}

// BrainWeights holds the nested weight and bias arrays of a network, layer order preserved.
type BrainWeights struct {
	Layers []LayerWeights `json:"layers"`
}

// MarshalWeights copies the network parameters into their serialized form.
func (nn *Network) MarshalWeights() BrainWeights {
	bw := BrainWeights{Layers: make([]LayerWeights, len(nn.Layers))}
	for k, l := range nn.Layers {
		rows, cols := l.Weights.Dims()
		w := make([][]float64, rows)
		for i := range w {
			w[i] = make([]float64, cols)
			mat.Row(w[i], i, l.Weights)
		}
		bw.Layers[k] = LayerWeights{Weights: w, Biases: slices.Clone(l.Biases)}
	}
	return bw
}

// UnmarshalWeights builds a network from serialized parameters.
// Ragged matrices and layers that do not chain are rejected.
func UnmarshalWeights(bw BrainWeights) (*Network, error) {
	if len(bw.Layers) == 0 {
		return nil, fmt.Errorf("%w: no layers", ErrTopology)
	}

	nn := &Network{Layers: make([]*Layer, len(bw.Layers))}
	for k, lw := range bw.Layers {
		rows, cols := len(lw.Weights), len(lw.Biases)
		if rows == 0 || cols == 0 {
			return nil, fmt.Errorf("%w: layer %d is empty", ErrTopology, k)
		}
		if k > 0 && rows != nn.Layers[k-1].OutputCount() {
			return nil, fmt.Errorf("%w: layer %d has %d inputs, previous layer has %d outputs",
				ErrTopology, k, rows, nn.Layers[k-1].OutputCount())
		}

		data := make([]float64, 0, rows*cols)
		for i, row := range lw.Weights {
			if len(row) != cols {
				return nil, fmt.Errorf("%w: layer %d row %d has %d weights, want %d",
					ErrTopology, k, i, len(row), cols)
			}
			data = append(data, row...)
		}
		nn.Layers[k] = &Layer{
			Weights: mat.NewDense(rows, cols, data),
			Biases:  slices.Clone(lw.Biases),
		}
	}
	return nn, nil
}

// Fingerprint hashes the exact bit pattern of every parameter, layer by layer.
func (bw BrainWeights) Fingerprint() uint64 {
	d := xxhash.New()
	var buf [8]byte
	put := func(v float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		d.Write(buf[:])
	}
	for _, l := range bw.Layers {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(l.Weights)))
		d.Write(buf[:])
		for _, row := range l.Weights {
			for _, v := range row {
				put(v)
			}
		}
		for _, v := range l.Biases {
			put(v)
		}
	}
	return d.Sum64()
}
