package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// NumFeatures is the cardinality the trained model was fit on.
const NumFeatures = 9

// Canonical feature names. Order matches training time and must never change.
const (
	FeatureMonthsSinceEpoch = "months_since_epoch"
	FeatureCountyCode       = "county_code"
	FeatureLag1             = "lag1"
	FeatureLag2             = "lag2"
	FeatureLag3             = "lag3"
	FeatureRollingMean3     = "rolling_mean_3"
	FeaturePctChange1       = "pct_change_1"
	FeaturePctChange3       = "pct_change_3"
	FeatureGrowthSlope      = "growth_slope"
)

// FeatureNames lists the feature names in vector order.
var FeatureNames = [NumFeatures]string{
	FeatureMonthsSinceEpoch,
	FeatureCountyCode,
	FeatureLag1,
	FeatureLag2,
	FeatureLag3,
	FeatureRollingMean3,
	FeaturePctChange1,
	FeaturePctChange3,
	FeatureGrowthSlope,
}

// FeatureVector is the fixed-order model input.
type FeatureVector [NumFeatures]float64

// Row returns the vector as a model input row.
func (v FeatureVector) Row() []float64 {
	row := make([]float64, NumFeatures)
	copy(row, v[:])
	return row
}

// Named pairs every value with its canonical name, preserving order.
func (v FeatureVector) Named() Features {
	out := make(Features, NumFeatures)
	for i, name := range FeatureNames {
		out[i] = Feature{Name: name, Value: v[i]}
	}
	return out
}

// Feature is a single named feature value.
type Feature struct {
	Name  string
	Value float64
}

// Features is an ordered name->value mapping. It marshals to a JSON object
// whose keys keep the slice order.
type Features []Feature

// Get returns the value for name.
func (f Features) Get(name string) (float64, bool) {
	for _, ft := range f {
		if ft.Name == name {
			return ft.Value, true
		}
	}
	return 0, false
}

// Map returns an unordered copy.
func (f Features) Map() map[string]float64 {
	m := make(map[string]float64, len(f))
	for _, ft := range f {
		m[ft.Name] = ft.Value
	}
	return m
}

// Names returns the keys in order.
func (f Features) Names() []string {
	names := make([]string, len(f))
	for i, ft := range f {
		names[i] = ft.Name
	}
	return names
}

func (f Features) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, ft := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(ft.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(ft.Value)
		if err != nil {
			return nil, fmt.Errorf("feature %s: %w", ft.Name, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (f *Features) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("features: expected object, got %v", tok)
	}
	out := Features{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("features: expected key, got %v", tok)
		}
		var v float64
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("feature %s: %w", name, err)
		}
		out = append(out, Feature{Name: name, Value: v})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*f = out
	return nil
}
