package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadStructuredDocument(t *testing.T) {
	raw := []byte(`
constraint_sets:
  conservative:
    min_premium_sell: 0.5
    max_premium: 100
    delta_min: -0.5
    delta_max: 0.5
    limit_left: 80
    limit_right: 120
    max_loss_left: 50
    max_loss_right: 50
profiles:
  - name: income
    weights:
      PREMIUM: 1
      AVERAGE_PNL: 2
`)
	doc, err := NewRouter().Load(raw)
	require.NoError(t, err)
	require.Contains(t, doc.ConstraintSets, "conservative")
	assert.Equal(t, 0.5, doc.ConstraintSets["conservative"].DeltaMax)
	require.Len(t, doc.Profiles, 1)

	profile, err := ResolveProfile(doc.Profiles[0])
	require.NoError(t, err)
	assert.Equal(t, "income", profile.Name)
	assert.Equal(t, 3.0, profile.TotalWeight())
}

func TestLoadLegacyFlatMapDocument(t *testing.T) {
	raw := []byte(`
conservative:
  min_premium_sell: 0.1
  max_premium: 50
  weights:
    PREMIUM: 1
`)
	doc, err := NewRouter().Load(raw)
	require.NoError(t, err)
	require.Contains(t, doc.ConstraintSets, "conservative")
	require.Len(t, doc.Profiles, 1)
	assert.Equal(t, "conservative", doc.Profiles[0].Name)
}

func TestLoadRejectsUnknownMetric(t *testing.T) {
	raw := []byte(`
profiles:
  - name: bogus
    weights:
      NOT_A_METRIC: 1
`)
	_, err := NewRouter().Load(raw)
	assert.Error(t, err)
}

func TestLoadRejectsInvertedDeltaRange(t *testing.T) {
	raw := []byte(`
constraint_sets:
  broken:
    delta_min: 0.5
    delta_max: -0.5
`)
	_, err := NewRouter().Load(raw)
	assert.Error(t, err)
}

func TestLoadRejectsZeroWeightProfile(t *testing.T) {
	raw := []byte(`
profiles:
  - name: empty
    weights: {}
`)
	_, err := NewRouter().Load(raw)
	assert.Error(t, err)
}
