// Package controls provides the sources that drive a car each tick.
package controls

import (
	"log/slog"

	"github.com/pthm-cable/selfdrive/geom"
	"github.com/pthm-cable/selfdrive/neural"
)

// Vector is the control vector applied on one integration step.
type Vector struct {
	Forward bool
	Reverse bool
	Left    bool
	Right   bool
}

// Source supplies a control vector once per tick.
type Source interface {
	Sample() Vector
}

// Observer is implemented by sources that react to the car's sensor readings.
// Observe runs after sensing on tick N; its effect shows up in Sample on tick N+1.
type Observer interface {
	Observe(readings []*geom.Reading)
}

// Scripted always returns the same control vector.
type Scripted struct {
	Vector Vector
}

// Sample implements Source.
func (s Scripted) Sample() Vector {
	return s.Vector
}

// ConstantForward is the traffic pattern: throttle held, no steering.
func ConstantForward() Scripted {
	return Scripted{Vector: Vector{Forward: true}}
}

// Network drives a car from its sensor readings.
// Output order is forward, left, right, reverse; a nonzero output counts as pressed.
type Network struct {
	Net         *neural.Network
	Activations []neural.Activations // from the last Observe

	next   Vector
	inputs []float64
}

// NewNetwork wraps a network the caller hands over; it must not be shared with another car.
func NewNetwork(nn *neural.Network) *Network {
	return &Network{Net: nn}
}

// Sample implements Source.
func (n *Network) Sample() Vector {
	return n.next
}

// Observe implements Observer.
func (n *Network) Observe(readings []*geom.Reading) {
	n.inputs = Inputs(readings, n.inputs)
	outputs, acts, err := n.Net.FeedForwardWithCapture(n.inputs)
	if err != nil {
		// Topology is validated at spawn; keep the previous controls.
		slog.Error("network feed-forward failed", "error", err)
		return
	}
	n.Activations = acts
	n.next = FromOutputs(outputs)
}

// Inputs converts readings into network inputs: 1-offset for a touch, 0 otherwise.
// Near obstacles give strong signals. dst is reused when large enough.
func Inputs(readings []*geom.Reading, dst []float64) []float64 {
	if cap(dst) < len(readings) {
		dst = make([]float64, len(readings))
	}
	dst = dst[:len(readings)]
	for i, r := range readings {
		if r == nil {
			dst[i] = 0
			continue
		}
		dst[i] = 1 - r.Offset
	}
	return dst
}

// FromOutputs maps network outputs [forward, left, right, reverse] to a control vector.
func FromOutputs(outputs []float64) Vector {
	at := func(i int) bool { return i < len(outputs) && outputs[i] != 0 }
	return Vector{
		Forward: at(0),
		Left:    at(1),
		Right:   at(2),
		Reverse: at(3),
	}
}
