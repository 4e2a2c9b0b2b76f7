package model

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"EVDemand/internal/domain/models"
	domsvc "EVDemand/internal/domain/service"
)

// Artifact types.
const (
	TypeLinear = "linear"
	TypeForest = "forest"
)

// Artifact is the on-disk form of a trained model. YAML and JSON are both
// accepted. Features must list the canonical feature names in order.
type Artifact struct {
	Type     string   `yaml:"type"`
	Name     string   `yaml:"name"`
	Version  string   `yaml:"version"`
	Features []string `yaml:"features"`

	// linear
	Intercept    float64   `yaml:"intercept"`
	Coefficients []float64 `yaml:"coefficients"`

	// forest
	Trees []Tree `yaml:"trees"`
}

// LoadFile reads and decodes the artifact at path and builds the model.
func LoadFile(path string) (domsvc.Model, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}
	return Load(b)
}

// Load decodes an artifact and builds the model it describes.
func Load(b []byte) (domsvc.Model, error) {
	var a Artifact
	if err := yaml.Unmarshal(b, &a); err != nil {
		return nil, fmt.Errorf("parse model artifact: %w", err)
	}
	if err := CheckFeatureOrder(a.Features); err != nil {
		return nil, err
	}
	if a.Type == "" {
		a.Type = TypeLinear
	}
	name := a.Name
	if name == "" {
		name = a.Type
	}
	if a.Version != "" {
		name = name + "@" + a.Version
	}

	switch a.Type {
	case TypeLinear:
		return NewLinear(name, a.Intercept, a.Coefficients)
	case TypeForest:
		return NewForest(name, a.Trees)
	default:
		return nil, fmt.Errorf("unsupported model type %q", a.Type)
	}
}

// CheckFeatureOrder fails unless names equals the canonical feature order.
func CheckFeatureOrder(names []string) error {
	if len(names) != models.NumFeatures {
		return fmt.Errorf("model expects %d features, service provides %d", len(names), models.NumFeatures)
	}
	for i, n := range names {
		if n != models.FeatureNames[i] {
			return fmt.Errorf("feature %d: model expects %q, service provides %q", i, n, models.FeatureNames[i])
		}
	}
	return nil
}

func checkRows(rows [][]float64) error {
	for i, r := range rows {
		if len(r) != models.NumFeatures {
			return fmt.Errorf("row %d: expected %d features, got %d", i, models.NumFeatures, len(r))
		}
	}
	return nil
}
