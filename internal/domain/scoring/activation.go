package scoring

import (
	"fmt"
	"math"
)

// Activation names a hidden-layer activation function.
type Activation string

// Supported activations.
const (
	ActivationReLU     Activation = "relu"
	ActivationTanh     Activation = "tanh"
	ActivationLogistic Activation = "logistic"
	ActivationIdentity Activation = "identity"
)

// ParseActivation resolves name; an empty name means ReLU.
func ParseActivation(name string) (Activation, error) {
	switch a := Activation(name); a {
	case "":
		return ActivationReLU, nil
	case ActivationReLU, ActivationTanh, ActivationLogistic, ActivationIdentity:
		return a, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownActivation, name)
	}
}

func (a Activation) apply(v []float64) {
	switch a {
	case ActivationReLU:
		for i, x := range v {
			v[i] = math.Max(0, x)
		}
	case ActivationTanh:
		for i, x := range v {
			v[i] = math.Tanh(x)
		}
	case ActivationLogistic:
		for i, x := range v {
			v[i] = sigmoid(x)
		}
	case ActivationIdentity:
	}
}

// sigmoid is the logistic function, split by sign so exp never overflows.
func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}
