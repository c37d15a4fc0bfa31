package controls

import (
	"math/rand"
	"testing"

	"github.com/pthm-cable/selfdrive/geom"
	"github.com/pthm-cable/selfdrive/neural"
)

func TestScripted(t *testing.T) {
	s := ConstantForward()
	for i := 0; i < 3; i++ {
		if v := s.Sample(); v != (Vector{Forward: true}) {
			t.Fatalf("tick %d: got %+v", i, v)
		}
	}
}

func TestInputs(t *testing.T) {
	readings := []*geom.Reading{nil, {Offset: 0.25}, {Offset: 1}, nil}
	got := Inputs(readings, nil)
	want := []float64{0, 0.75, 0, 0}
	if len(got) != len(want) {
		t.Fatalf("length: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("input[%d]: got %f, want %f", i, got[i], want[i])
		}
	}
}

func TestFromOutputs(t *testing.T) {
	v := FromOutputs([]float64{1, 0, 1, 0})
	if !v.Forward || v.Left || !v.Right || v.Reverse {
		t.Errorf("got %+v", v)
	}
	if v := FromOutputs([]float64{0, 1, 0, 1}); v.Forward || !v.Left || v.Right || !v.Reverse {
		t.Errorf("got %+v", v)
	}
}

// Observe on tick N only changes what Sample returns from then on.
func TestNetworkObserveThenSample(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	nn, err := neural.NewNetwork(rng, 3, 4)
	if err != nil {
		t.Fatal(err)
	}
	// Forward always fires, nothing else does.
	l := nn.Layers[0]
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			l.Weights.Set(i, j, 0)
		}
	}
	l.Biases = []float64{-1, 1, 1, 1}

	src := NewNetwork(nn)
	if v := src.Sample(); v != (Vector{}) {
		t.Fatalf("sample before observe: %+v", v)
	}

	src.Observe([]*geom.Reading{nil, nil, nil})
	if v := src.Sample(); v != (Vector{Forward: true}) {
		t.Errorf("sample after observe: %+v", v)
	}
	if len(src.Activations) != 1 {
		t.Errorf("activations not captured")
	}
}
