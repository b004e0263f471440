package nn

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Adam is the Adam optimizer. Moment estimates are allocated on the first
// step, so one Adam must only ever be used with one network.
type Adam struct {
	LearningRate float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64

	t  int
	mW []*mat.Dense
	vW []*mat.Dense
	mB [][]float64
	vB [][]float64
}

// NewAdam creates an optimizer with the usual beta and epsilon defaults
func NewAdam(learningRate float64) *Adam {
	return &Adam{
		LearningRate: learningRate,
		Beta1:        0.9,
		Beta2:        0.999,
		Epsilon:      1e-8,
	}
}

// Steps returns how many updates have been applied
func (o *Adam) Steps() int {
	return o.t
}

func (o *Adam) init(n *Network) {
	o.mW = make([]*mat.Dense, len(n.weights))
	o.vW = make([]*mat.Dense, len(n.weights))
	o.mB = make([][]float64, len(n.weights))
	o.vB = make([][]float64, len(n.weights))
	for l, w := range n.weights {
		r, c := w.Dims()
		o.mW[l] = mat.NewDense(r, c, nil)
		o.vW[l] = mat.NewDense(r, c, nil)
		o.mB[l] = make([]float64, c)
		o.vB[l] = make([]float64, c)
	}
}

// step applies one bias-corrected update of g to n
func (o *Adam) step(n *Network, g gradients) {
	if o.mW == nil {
		o.init(n)
	}
	o.t++
	c1 := 1 - math.Pow(o.Beta1, float64(o.t))
	c2 := 1 - math.Pow(o.Beta2, float64(o.t))

	for l := range n.weights {
		o.update(n.weights[l].RawMatrix().Data, g.weights[l].RawMatrix().Data,
			o.mW[l].RawMatrix().Data, o.vW[l].RawMatrix().Data, c1, c2)
		o.update(n.biases[l], g.biases[l], o.mB[l], o.vB[l], c1, c2)
	}
}

func (o *Adam) update(param, grad, m, v []float64, c1, c2 float64) {
	for i, gi := range grad {
		m[i] = o.Beta1*m[i] + (1-o.Beta1)*gi
		v[i] = o.Beta2*v[i] + (1-o.Beta2)*gi*gi
		mHat := m[i] / c1
		vHat := v[i] / c2
		param[i] -= o.LearningRate * mHat / (math.Sqrt(vHat) + o.Epsilon)
	}
}
