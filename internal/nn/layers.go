package nn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// LayerParams is the raw parameter set of one dense layer. Weights are
// row-major with In rows and Out columns.
type LayerParams struct {
	In      int
	Out     int
	Weights []float64
	Biases  []float64
}

// Layers returns a copy of every layer's parameters, input layer first
func (n *Network) Layers() []LayerParams {
	out := make([]LayerParams, len(n.weights))
	for l, w := range n.weights {
		r, c := w.Dims()
		data := make([]float64, 0, r*c)
		for i := 0; i < r; i++ {
			data = append(data, w.RawRowView(i)...)
		}
		out[l] = LayerParams{
			In:      r,
			Out:     c,
			Weights: data,
			Biases:  append([]float64(nil), n.biases[l]...),
		}
	}
	return out
}

// FromLayers rebuilds a network from raw layer parameters. Consecutive
// layers must chain (Out of one equals In of the next).
func FromLayers(layers []LayerParams) (*Network, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("%w: no layers", ErrInvalidConfig)
	}
	cfg := Config{InputDim: layers[0].In, OutputDim: layers[len(layers)-1].Out}
	for l, p := range layers {
		if len(p.Weights) != p.In*p.Out || len(p.Biases) != p.Out {
			return nil, fmt.Errorf("%w: layer %d is %dx%d with %d weights and %d biases",
				ErrShapeMismatch, l, p.In, p.Out, len(p.Weights), len(p.Biases))
		}
		if l > 0 && layers[l-1].Out != p.In {
			return nil, fmt.Errorf("%w: layer %d expects %d inputs, previous layer has %d outputs",
				ErrShapeMismatch, l, p.In, layers[l-1].Out)
		}
		if l < len(layers)-1 {
			cfg.Hidden = append(cfg.Hidden, p.Out)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	n := alloc(cfg)
	for l, p := range layers {
		n.weights[l].Copy(mat.NewDense(p.In, p.Out, p.Weights))
		copy(n.biases[l], p.Biases)
	}
	return n, nil
}
