// Package gbdt evaluates gradient-boosted decision tree models exported to
// a shared JSON artifact format. The three ensemble members (CatBoost,
// XGBoost, LightGBM) are all flattened to the same structure at export
// time, so serving needs exactly one tree walker.
//
// Trees store leaf values with learning rate already applied; prediction
// is a plain sum over trees, followed by softmax (multiclass) or sigmoid
// (binary).
package gbdt

import (
	"encoding/json"
	"io"

	"github.com/orbitalml/transit/pkg/errors"
)

// Objectives supported by the exported artifacts.
const (
	ObjectiveMulticlass = "multiclass"
	ObjectiveBinary     = "binary"
)

// Node is one node of a flattened tree. Interior nodes split on
// Feature <= Threshold going left; leaves carry Feature == -1 and the
// output in Value.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	// DefaultLeft routes missing (NaN) feature values.
	DefaultLeft bool    `json:"default_left"`
	Value       float64 `json:"value"`
}

// IsLeaf reports whether the node is a leaf.
func (n *Node) IsLeaf() bool { return n.Feature < 0 }

// Tree is a flattened decision tree rooted at node 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// predict walks the tree for one feature row.
func (t *Tree) predict(features []float64) float64 {
	idx := 0
	for {
		node := &t.Nodes[idx]
		if node.IsLeaf() {
			return node.Value
		}
		fval := features[node.Feature]
		switch {
		case fval != fval: // NaN
			if node.DefaultLeft {
				idx = node.Left
			} else {
				idx = node.Right
			}
		case fval <= node.Threshold:
			idx = node.Left
		default:
			idx = node.Right
		}
	}
}

// Model is one exported boosted forest.
type Model struct {
	Name        string    `json:"name"`
	Objective   string    `json:"objective"`
	NumClass    int       `json:"num_class"`
	NumFeatures int       `json:"num_features"`
	InitScores  []float64 `json:"init_scores,omitempty"`
	Trees       []Tree    `json:"trees"`
}

// LoadModel reads and validates a JSON model artifact.
func LoadModel(r io.Reader) (*Model, error) {
	var m Model
	dec := json.NewDecoder(r)
	if err := dec.Decode(&m); err != nil {
		return nil, errors.Wrap(err, "transit: decoding gbdt model")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the structural invariants the predictor relies on, so a
// malformed artifact fails at load time instead of mid-batch.
func (m *Model) Validate() error {
	switch m.Objective {
	case ObjectiveMulticlass:
		if m.NumClass < 2 {
			return errors.Newf("transit: model %s: multiclass objective needs num_class >= 2, got %d",
				m.Name, m.NumClass)
		}
	case ObjectiveBinary:
		if m.NumClass != 2 {
			return errors.Newf("transit: model %s: binary objective needs num_class == 2, got %d",
				m.Name, m.NumClass)
		}
	default:
		return errors.Newf("transit: model %s: unknown objective %q", m.Name, m.Objective)
	}
	if m.NumFeatures <= 0 {
		return errors.Newf("transit: model %s: num_features must be positive, got %d",
			m.Name, m.NumFeatures)
	}
	if len(m.Trees) == 0 {
		return errors.Newf("transit: model %s: no trees", m.Name)
	}
	if len(m.InitScores) != 0 && len(m.InitScores) != m.scoreWidth() {
		return errors.Newf("transit: model %s: init_scores length %d, want %d",
			m.Name, len(m.InitScores), m.scoreWidth())
	}
	for ti := range m.Trees {
		nodes := m.Trees[ti].Nodes
		if len(nodes) == 0 {
			return errors.Newf("transit: model %s: tree %d is empty", m.Name, ti)
		}
		for ni := range nodes {
			n := &nodes[ni]
			if n.IsLeaf() {
				continue
			}
			if n.Feature >= m.NumFeatures {
				return errors.Newf("transit: model %s: tree %d node %d splits on feature %d of %d",
					m.Name, ti, ni, n.Feature, m.NumFeatures)
			}
			if n.Left <= 0 || n.Left >= len(nodes) || n.Right <= 0 || n.Right >= len(nodes) {
				return errors.Newf("transit: model %s: tree %d node %d has child out of range",
					m.Name, ti, ni)
			}
		}
	}
	return nil
}

// scoreWidth is the raw score vector width before the link function:
// one per class for multiclass, a single logit for binary.
func (m *Model) scoreWidth() int {
	if m.Objective == ObjectiveBinary {
		return 1
	}
	return m.NumClass
}
