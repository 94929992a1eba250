package scoring

import (
	"fmt"
)

const defaultThreshold = 0.5

// Classifier maps a standardized vector to a binary label.
type Classifier interface {
	// Predict returns 0 or 1.
	Predict(x []float64) (int, error)
	// Dim is the input width the classifier was trained on.
	Dim() int
}

// Layer is one fully connected layer. Weights are indexed [input][output].
type Layer struct {
	Weights [][]float64
	Biases  []float64
}

func (l Layer) in() int  { return len(l.Weights) }
func (l Layer) out() int { return len(l.Biases) }

// Option applies a configuration option to the MLP.
type Option func(*MLP)

// WithHiddenActivation sets the activation used by every hidden layer.
func WithHiddenActivation(a Activation) Option {
	return func(m *MLP) {
		if a != "" {
			m.hidden = a
		}
	}
}

// WithThreshold sets the probability the output must exceed to predict 1.
func WithThreshold(threshold float64) Option {
	return func(m *MLP) {
		if threshold > 0 && threshold < 1 {
			m.threshold = threshold
		}
	}
}

// MLP is a feed-forward network with a single logistic output unit.
type MLP struct {
	layers    []Layer
	hidden    Activation
	threshold float64
}

// NewMLP validates layer shapes and copies the parameters.
func NewMLP(layers []Layer, opts ...Option) (*MLP, error) {
	m := &MLP{
		hidden:    ActivationReLU,
		threshold: defaultThreshold,
	}
	for _, opt := range opts {
		opt(m)
	}
	if _, err := ParseActivation(string(m.hidden)); err != nil {
		return nil, err
	}
	if len(layers) == 0 {
		return nil, fmt.Errorf("%w: no layers", ErrInvalidParameters)
	}

	for i, l := range layers {
		if l.in() == 0 || l.out() == 0 {
			return nil, fmt.Errorf("%w: layer %d is empty", ErrInvalidParameters, i)
		}
		if i > 0 && l.in() != layers[i-1].out() {
			return nil, fmt.Errorf("%w: layer %d expects %d inputs, previous layer has %d outputs",
				ErrInvalidParameters, i, l.in(), layers[i-1].out())
		}
		for r, row := range l.Weights {
			if len(row) != l.out() {
				return nil, fmt.Errorf("%w: layer %d weight row %d has %d columns, want %d",
					ErrInvalidParameters, i, r, len(row), l.out())
			}
			for _, w := range row {
				if !finite(w) {
					return nil, fmt.Errorf("%w: layer %d has a non-finite weight", ErrInvalidParameters, i)
				}
			}
		}
		for _, b := range l.Biases {
			if !finite(b) {
				return nil, fmt.Errorf("%w: layer %d has a non-finite bias", ErrInvalidParameters, i)
			}
		}
		m.layers = append(m.layers, copyLayer(l))
	}

	if out := layers[len(layers)-1].out(); out != 1 {
		return nil, fmt.Errorf("%w: output layer has %d units, binary output needs 1", ErrInvalidParameters, out)
	}
	return m, nil
}

// Dim implements Classifier.
func (m *MLP) Dim() int { return m.layers[0].in() }

// Widths returns the unit count of every layer, input first.
func (m *MLP) Widths() []int {
	widths := []int{m.Dim()}
	for _, l := range m.layers {
		widths = append(widths, l.out())
	}
	return widths
}

// HiddenActivation returns the configured hidden activation.
func (m *MLP) HiddenActivation() Activation { return m.hidden }

// Threshold returns the decision threshold.
func (m *MLP) Threshold() float64 { return m.threshold }

// Predict implements Classifier.
func (m *MLP) Predict(x []float64) (int, error) {
	if len(x) != m.Dim() {
		return 0, fmt.Errorf("%w: classifier expects %d features, got %d", ErrDimensionMismatch, m.Dim(), len(x))
	}

	if err := checkFinite("input", x); err != nil {
		return 0, err
	}

	a := x
	for i, l := range m.layers {
		z := append([]float64(nil), l.Biases...)
		for r, in := range a {
			for c, w := range l.Weights[r] {
				z[c] += in * w
			}
		}
		if i < len(m.layers)-1 {
			m.hidden.apply(z)
		}
		if err := checkFinite(fmt.Sprintf("layer %d unit", i+1), z); err != nil {
			return 0, err
		}
		a = z
	}

	if sigmoid(a[0]) > m.threshold {
		return 1, nil
	}
	return 0, nil
}

func copyLayer(l Layer) Layer {
	out := Layer{
		Weights: make([][]float64, len(l.Weights)),
		Biases:  append([]float64(nil), l.Biases...),
	}
	for i, row := range l.Weights {
		out.Weights[i] = append([]float64(nil), row...)
	}
	return out
}
