// Package config loads named constraint sets and scoring profiles from
// YAML, routing between a legacy flat-map document shape and a structured
// one the way the corpus's threshold router does.
package config

import (
	"fmt"

	yaml2 "gopkg.in/yaml.v2"
	yaml3 "gopkg.in/yaml.v3"

	"github.com/optionstrat/engine/internal/constraints"
	"github.com/optionstrat/engine/internal/optionmodel"
)

// Document is the structured (yaml.v3) document shape: named constraint
// sets and named scoring profiles, each independently selectable by a
// round.
type Document struct {
	ConstraintSets map[string]constraints.Set `yaml:"constraint_sets"`
	Profiles       []ProfileSpec              `yaml:"profiles"`
}

// ProfileSpec is the on-disk form of a scoring profile, keyed by metric
// name string rather than the internal MetricID enum.
type ProfileSpec struct {
	Name    string             `yaml:"name"`
	Weights map[string]float64 `yaml:"weights"`
}

// legacyDocument is the older flat-map shape some deployments still ship:
// every top-level key is a constraint set, and weights live under a
// reserved "weights" key instead of a dedicated profiles list.
type legacyDocument map[string]map[string]interface{}

// Router loads a config document, trying the structured yaml.v3 shape
// first and falling back to the legacy yaml.v2 flat map, mirroring how the
// engine's threshold configuration has evolved across versions.
type Router struct{}

// NewRouter returns a ready-to-use Router.
func NewRouter() *Router { return &Router{} }

// Load parses raw YAML bytes into a Document, validating every constraint
// set and scoring profile it finds.
func (r *Router) Load(raw []byte) (*Document, error) {
	var doc Document
	if err := yaml3.Unmarshal(raw, &doc); err == nil && (len(doc.ConstraintSets) > 0 || len(doc.Profiles) > 0) {
		if err := validate(&doc); err != nil {
			return nil, err
		}
		return &doc, nil
	}

	var legacy legacyDocument
	if err := yaml2.Unmarshal(raw, &legacy); err != nil {
		return nil, fmt.Errorf("config: unrecognized document shape: %w", err)
	}
	converted := fromLegacy(legacy)
	if err := validate(&converted); err != nil {
		return nil, err
	}
	return &converted, nil
}

func fromLegacy(legacy legacyDocument) Document {
	doc := Document{ConstraintSets: make(map[string]constraints.Set)}
	for name, fields := range legacy {
		for key, v := range fields {
			if iv, ok := v.(int); ok {
				fields[key] = float64(iv)
			}
		}
		set := constraints.DefaultSet()
		if v, ok := fields["min_premium_sell"].(float64); ok {
			set.MinPremiumSell = v
		}
		if v, ok := fields["max_premium"].(float64); ok {
			set.MaxPremium = v
		}
		if v, ok := fields["ouvert_gauche"].(float64); ok {
			set.OuvertGauche = v
		}
		if v, ok := fields["ouvert_droite"].(float64); ok {
			set.OuvertDroite = v
		}
		if v, ok := fields["delta_min"].(float64); ok {
			set.DeltaMin = v
		}
		if v, ok := fields["delta_max"].(float64); ok {
			set.DeltaMax = v
		}
		if v, ok := fields["limit_left"].(float64); ok {
			set.LimitLeft = v
		}
		if v, ok := fields["limit_right"].(float64); ok {
			set.LimitRight = v
		}
		if v, ok := fields["max_loss_left"].(float64); ok {
			set.MaxLossLeft = v
		}
		if v, ok := fields["max_loss_right"].(float64); ok {
			set.MaxLossRight = v
		}
		doc.ConstraintSets[name] = set

		if weights, ok := fields["weights"].(map[interface{}]interface{}); ok {
			spec := ProfileSpec{Name: name, Weights: make(map[string]float64)}
			for k, v := range weights {
				switch fv := v.(type) {
				case float64:
					spec.Weights[fmt.Sprint(k)] = fv
				case int:
					spec.Weights[fmt.Sprint(k)] = float64(fv)
				}
			}
			doc.Profiles = append(doc.Profiles, spec)
		}
	}
	return doc
}

var metricNames = func() map[string]optionmodel.MetricID {
	m := make(map[string]optionmodel.MetricID)
	for id := range optionmodel.DefaultMetricSpecs {
		m[id.String()] = id
	}
	return m
}()

// ResolveProfile converts a ProfileSpec's string-keyed weights into an
// optionmodel.ScoringProfile, rejecting unknown metric names.
func ResolveProfile(spec ProfileSpec) (optionmodel.ScoringProfile, error) {
	profile := optionmodel.ScoringProfile{Name: spec.Name}
	for name, weight := range spec.Weights {
		id, ok := metricNames[name]
		if !ok {
			return profile, fmt.Errorf("config: unknown metric %q in profile %q", name, spec.Name)
		}
		profile.Weights = append(profile.Weights, optionmodel.MetricWeight{ID: id, Weight: weight})
	}
	return profile, nil
}

func validate(doc *Document) error {
	for name, set := range doc.ConstraintSets {
		if set.DeltaMin > set.DeltaMax {
			return fmt.Errorf("config: constraint set %q has delta_min > delta_max", name)
		}
		if set.LimitLeft > set.LimitRight {
			return fmt.Errorf("config: constraint set %q has limit_left > limit_right", name)
		}
		if set.MaxPremium < 0 || set.MaxLossLeft < 0 || set.MaxLossRight < 0 {
			return fmt.Errorf("config: constraint set %q has a negative bound", name)
		}
	}
	for _, p := range doc.Profiles {
		if _, err := ResolveProfile(p); err != nil {
			return err
		}
		var total float64
		for _, w := range p.Weights {
			total += w
		}
		if total <= 0 {
			return fmt.Errorf("config: profile %q has non-positive total weight", p.Name)
		}
	}
	return nil
}
