package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylab-io/aqicast/pkg/errors"
	"github.com/skylab-io/aqicast/pkg/interfaces"
	"github.com/skylab-io/aqicast/pkg/models"
)

func TestPersistenceModelPredictsSourceColumn(t *testing.T) {
	table := rampTable(10)
	model := NewPersistenceModel(models.ColumnAQI)

	require.NoError(t, model.Fit(table, table.Column(models.ColumnAQI)))
	preds, err := model.Predict(table)
	require.NoError(t, err)

	assert.Equal(t, table.Column(models.ColumnAQI), preds)
}

func TestPersistenceModelClampsNegatives(t *testing.T) {
	table := rampTable(3)
	table.Column(models.ColumnAQI)[1] = -20

	model := NewPersistenceModel(models.ColumnAQI)
	preds, err := model.Predict(table)
	require.NoError(t, err)
	assert.Equal(t, 0.0, preds[1])
}

func TestPersistenceModelMissingColumn(t *testing.T) {
	table := rampTable(5)
	model := NewPersistenceModel("no_such")

	err := model.Fit(table, nil)
	require.Error(t, err)
	assert.True(t, errors.IsSchemaError(err))
}

func TestLinearModelRecoversLinearRelation(t *testing.T) {
	table := rampTable(30)
	x := table.Select([]string{models.ColumnPM25})
	// y = 2*pm25 + 1, exactly.
	y := make([]float64, 30)
	for i, v := range x.Column(models.ColumnPM25) {
		y[i] = 2*v + 1
	}

	model := NewLinearModel()
	require.NoError(t, model.Fit(x, y))

	preds, err := model.Predict(x)
	require.NoError(t, err)
	for i := range preds {
		assert.InDelta(t, y[i], preds[i], 1e-6)
	}

	metrics, err := model.Evaluate(x, y)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, metrics.RMSE, 1e-6)
	assert.InDelta(t, 1.0, metrics.R2, 1e-6)
}

func TestLinearModelNotFitted(t *testing.T) {
	model := NewLinearModel()
	_, err := model.Predict(rampTable(5))
	assert.Error(t, err)
}

func TestLinearModelInsufficientData(t *testing.T) {
	table := rampTable(2)
	model := NewLinearModel()

	err := model.Fit(table, []float64{1, 2})
	require.Error(t, err)
	assert.True(t, errors.IsInsufficientDataError(err))
}

func TestDefaultRegistry(t *testing.T) {
	registry := NewDefaultRegistry(models.ColumnAQI)

	assert.ElementsMatch(t, []string{PredictorPersistence, PredictorLinear}, registry.Names())

	factory, ok := registry.Factory(PredictorPersistence)
	require.True(t, ok)
	assert.NotNil(t, factory())

	_, ok = registry.Factory("nope")
	assert.False(t, ok)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	registry := interfaces.NewRegistry()
	factory := func() interfaces.Predictor { return NewLinearModel() }

	require.NoError(t, registry.Register("custom", factory))
	assert.Error(t, registry.Register("custom", factory))
	assert.Error(t, registry.Register("nil_factory", nil))
}

func TestRegistryNewReturnsFreshInstances(t *testing.T) {
	registry := NewDefaultRegistry(models.ColumnAQI)

	a, err := registry.New(PredictorLinear)
	require.NoError(t, err)
	b, err := registry.New(PredictorLinear)
	require.NoError(t, err)
	assert.NotSame(t, a, b)

	_, err = registry.New("nope")
	assert.Error(t, err)
}
