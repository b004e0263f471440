package nn

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DefaultHidden is the hidden layer layout used unless configured otherwise
var DefaultHidden = []int{128, 128}

// Config describes the shape of a Network
type Config struct {
	InputDim  int
	OutputDim int
	Hidden    []int
}

// Validate checks that every layer has a positive width
func (c Config) Validate() error {
	if c.InputDim <= 0 || c.OutputDim <= 0 {
		return fmt.Errorf("%w: input %d output %d", ErrInvalidConfig, c.InputDim, c.OutputDim)
	}
	for i, h := range c.Hidden {
		if h <= 0 {
			return fmt.Errorf("%w: hidden layer %d has width %d", ErrInvalidConfig, i, h)
		}
	}
	return nil
}

func (c Config) widths() []int {
	w := make([]int, 0, len(c.Hidden)+2)
	w = append(w, c.InputDim)
	w = append(w, c.Hidden...)
	return append(w, c.OutputDim)
}

// Network is a fully connected feed-forward Q approximator: ReLU hidden
// layers and a linear output with one value per action. Weights of layer l
// are stored as an (in x out) matrix so a batch forward pass is X*W + b.
type Network struct {
	cfg     Config
	weights []*mat.Dense
	biases  [][]float64
}

// New creates a network with weights and biases drawn from
// U(-1/sqrt(fanIn), 1/sqrt(fanIn))
func New(cfg Config, rng *rand.Rand) (*Network, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n := alloc(cfg)
	for l, w := range n.weights {
		fanIn, _ := w.Dims()
		bound := 1 / math.Sqrt(float64(fanIn))
		data := w.RawMatrix().Data
		for i := range data {
			data[i] = (2*rng.Float64() - 1) * bound
		}
		for i := range n.biases[l] {
			n.biases[l][i] = (2*rng.Float64() - 1) * bound
		}
	}
	return n, nil
}

func alloc(cfg Config) *Network {
	widths := cfg.widths()
	n := &Network{
		cfg: Config{
			InputDim:  cfg.InputDim,
			OutputDim: cfg.OutputDim,
			Hidden:    append([]int(nil), cfg.Hidden...),
		},
		weights: make([]*mat.Dense, len(widths)-1),
		biases:  make([][]float64, len(widths)-1),
	}
	for l := 0; l < len(widths)-1; l++ {
		n.weights[l] = mat.NewDense(widths[l], widths[l+1], nil)
		n.biases[l] = make([]float64, widths[l+1])
	}
	return n
}

// Config returns a copy of the network shape
func (n *Network) Config() Config {
	c := n.cfg
	c.Hidden = append([]int(nil), n.cfg.Hidden...)
	return c
}

// InputDim is the observation length the network accepts
func (n *Network) InputDim() int { return n.cfg.InputDim }

// OutputDim is the number of action values the network produces
func (n *Network) OutputDim() int { return n.cfg.OutputDim }

// NumParams returns the total number of weights and biases
func (n *Network) NumParams() int {
	total := 0
	for l, w := range n.weights {
		r, c := w.Dims()
		total += r*c + len(n.biases[l])
	}
	return total
}

// Forward returns the action values for a single observation
func (n *Network) Forward(x []float64) ([]float64, error) {
	if len(x) != n.cfg.InputDim {
		return nil, fmt.Errorf("%w: input has %d features, want %d", ErrShapeMismatch, len(x), n.cfg.InputDim)
	}
	out := n.forward(mat.NewDense(1, len(x), append([]float64(nil), x...)), nil)
	return mat.Row(nil, 0, out), nil
}

// ForwardBatch returns the action values for every row of X
func (n *Network) ForwardBatch(X mat.Matrix) (*mat.Dense, error) {
	_, c := X.Dims()
	if c != n.cfg.InputDim {
		return nil, fmt.Errorf("%w: batch has %d features, want %d", ErrShapeMismatch, c, n.cfg.InputDim)
	}
	return n.forward(X, nil), nil
}

// forward runs the batch through every layer. When acts is non-nil it
// receives the input of each layer, which backprop needs.
func (n *Network) forward(X mat.Matrix, acts *[]mat.Matrix) *mat.Dense {
	last := len(n.weights) - 1
	a := X
	var z *mat.Dense
	for l, w := range n.weights {
		if acts != nil {
			*acts = append(*acts, a)
		}
		rows, _ := a.Dims()
		_, cols := w.Dims()
		z = mat.NewDense(rows, cols, nil)
		z.Mul(a, w)
		b := n.biases[l]
		relu := l < last
		z.Apply(func(_, j int, v float64) float64 {
			v += b[j]
			if relu && v < 0 {
				return 0
			}
			return v
		}, z)
		a = z
	}
	return z
}

// CopyFrom overwrites n's parameters with src's. Both networks must have
// the same shape; no memory is shared afterwards.
func (n *Network) CopyFrom(src *Network) error {
	if !n.sameShape(src) {
		return fmt.Errorf("%w: cannot copy %v into %v", ErrShapeMismatch, src.cfg.widths(), n.cfg.widths())
	}
	for l := range n.weights {
		n.weights[l].Copy(src.weights[l])
		copy(n.biases[l], src.biases[l])
	}
	return nil
}

// Clone returns a deep copy of the network
func (n *Network) Clone() *Network {
	c := alloc(n.cfg)
	for l := range n.weights {
		c.weights[l].Copy(n.weights[l])
		copy(c.biases[l], n.biases[l])
	}
	return c
}

func (n *Network) sameShape(o *Network) bool {
	a, b := n.cfg.widths(), o.cfg.widths()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Greedy returns the index of the largest value, the lowest index on ties
func Greedy(q []float64) int {
	return floats.MaxIdx(q)
}
