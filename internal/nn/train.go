package nn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// gradients holds dLoss/dParam for every layer, shaped like the network
type gradients struct {
	weights []*mat.Dense
	biases  [][]float64
}

// TrainStep fits the values of the taken actions to targets with a mean
// squared error loss and applies one optimizer step. It returns the loss
// measured before the update.
func (n *Network) TrainStep(states [][]float64, actions []int, targets []float64, opt *Adam) (float64, error) {
	X, err := n.batch(states, actions, targets)
	if err != nil {
		return 0, err
	}
	loss, grads := n.backprop(X, actions, targets)
	opt.step(n, grads)
	return loss, nil
}

// Loss returns the mean squared error of the taken actions' values against
// targets without touching the parameters
func (n *Network) Loss(states [][]float64, actions []int, targets []float64) (float64, error) {
	X, err := n.batch(states, actions, targets)
	if err != nil {
		return 0, err
	}
	q := n.forward(X, nil)
	var loss float64
	for i, a := range actions {
		d := q.At(i, a) - targets[i]
		loss += d * d
	}
	return loss / float64(len(actions)), nil
}

func (n *Network) batch(states [][]float64, actions []int, targets []float64) (*mat.Dense, error) {
	if len(states) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(actions) != len(states) || len(targets) != len(states) {
		return nil, fmt.Errorf("%w: %d states, %d actions, %d targets",
			ErrShapeMismatch, len(states), len(actions), len(targets))
	}
	X := mat.NewDense(len(states), n.cfg.InputDim, nil)
	for i, s := range states {
		if len(s) != n.cfg.InputDim {
			return nil, fmt.Errorf("%w: state %d has %d features, want %d", ErrShapeMismatch, i, len(s), n.cfg.InputDim)
		}
		if actions[i] < 0 || actions[i] >= n.cfg.OutputDim {
			return nil, fmt.Errorf("%w: %d", ErrInvalidAction, actions[i])
		}
		X.SetRow(i, s)
	}
	return X, nil
}

// backprop returns the batch loss and its gradient. Only the output column
// of each sample's taken action carries error.
func (n *Network) backprop(X *mat.Dense, actions []int, targets []float64) (float64, gradients) {
	var acts []mat.Matrix
	q := n.forward(X, &acts)
	batch := float64(len(actions))

	rows, cols := q.Dims()
	delta := mat.NewDense(rows, cols, nil)
	var loss float64
	for i, a := range actions {
		d := q.At(i, a) - targets[i]
		loss += d * d
		delta.Set(i, a, 2*d/batch)
	}

	g := gradients{
		weights: make([]*mat.Dense, len(n.weights)),
		biases:  make([][]float64, len(n.weights)),
	}
	for l := len(n.weights) - 1; l >= 0; l-- {
		in := acts[l]
		r, c := n.weights[l].Dims()
		gw := mat.NewDense(r, c, nil)
		gw.Mul(in.T(), delta)
		g.weights[l] = gw

		gb := make([]float64, c)
		for i := 0; i < rows; i++ {
			for j := 0; j < c; j++ {
				gb[j] += delta.At(i, j)
			}
		}
		g.biases[l] = gb

		if l == 0 {
			break
		}
		// error at the previous layer's output, gated by its ReLU
		prev := mat.NewDense(rows, r, nil)
		prev.Mul(delta, n.weights[l].T())
		prev.Apply(func(i, j int, v float64) float64 {
			if in.At(i, j) <= 0 {
				return 0
			}
			return v
		}, prev)
		delta = prev
	}
	return loss / batch, g
}
