package model

import (
	"context"
	"fmt"

	"EVDemand/internal/domain/models"
	domsvc "EVDemand/internal/domain/service"
)

// Node is one node of an exported regression tree. Leaves have Feature -1
// and carry Value; split nodes send x[Feature] <= Threshold to Left.
type Node struct {
	Feature   int     `yaml:"feature"`
	Threshold float64 `yaml:"threshold"`
	Left      int     `yaml:"left"`
	Right     int     `yaml:"right"`
	Value     float64 `yaml:"value"`
}

// Tree is a flat node array rooted at index 0.
type Tree struct {
	Nodes []Node `yaml:"nodes"`
}

// Forest averages the outputs of its regression trees.
type Forest struct {
	name  string
	trees []Tree
}

// NewForest validates tree structure and builds the ensemble.
func NewForest(name string, trees []Tree) (*Forest, error) {
	if len(trees) == 0 {
		return nil, fmt.Errorf("forest model: no trees")
	}
	for ti, t := range trees {
		if err := t.validate(); err != nil {
			return nil, fmt.Errorf("forest model: tree %d: %w", ti, err)
		}
	}
	return &Forest{name: name, trees: trees}, nil
}

func (m *Forest) Name() string { return m.name }

func (m *Forest) Predict(_ context.Context, rows [][]float64) ([]float64, error) {
	if err := checkRows(rows); err != nil {
		return nil, err
	}
	out := make([]float64, len(rows))
	for i, r := range rows {
		sum := 0.0
		for _, t := range m.trees {
			sum += t.eval(r)
		}
		out[i] = sum / float64(len(m.trees))
	}
	return out, nil
}

func (t Tree) eval(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// validate checks indices and that children always point forward, which rules
// out cycles.
func (t Tree) validate() error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("empty tree")
	}
	for i, n := range t.Nodes {
		if n.Feature < 0 {
			continue
		}
		if n.Feature >= models.NumFeatures {
			return fmt.Errorf("node %d: feature index %d out of range", i, n.Feature)
		}
		for _, c := range []int{n.Left, n.Right} {
			if c <= i || c >= len(t.Nodes) {
				return fmt.Errorf("node %d: child %d out of range", i, c)
			}
		}
	}
	return nil
}

var _ domsvc.Model = (*Forest)(nil)
