package forecast

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/skylab-io/aqicast/internal/utils/stats"
	"github.com/skylab-io/aqicast/pkg/errors"
	"github.com/skylab-io/aqicast/pkg/interfaces"
	"github.com/skylab-io/aqicast/pkg/models"
)

// PersistenceModel is the naive baseline: it predicts the current value
// of its source column unchanged. It anchors the skill score and gives
// tests a predictor with fully known behavior.
type PersistenceModel struct {
	// Column is the feature column holding the value at feature time.
	Column string
}

// NewPersistenceModel creates a persistence baseline over a column.
func NewPersistenceModel(column string) *PersistenceModel {
	return &PersistenceModel{Column: column}
}

// Fit is a no-op; persistence has nothing to learn.
func (p *PersistenceModel) Fit(x *models.Table, y []float64) error {
	if !x.HasColumn(p.Column) {
		return errors.NewSchemaError(p.Column)
	}
	return nil
}

// Predict returns the source column, clamped non-negative.
func (p *PersistenceModel) Predict(x *models.Table) ([]float64, error) {
	src := x.Column(p.Column)
	if src == nil {
		return nil, errors.NewSchemaError(p.Column)
	}
	out := make([]float64, len(src))
	for i, v := range src {
		if v < 0 {
			v = 0
		}
		out[i] = v
	}
	return out, nil
}

// Evaluate scores persistence predictions against actuals.
func (p *PersistenceModel) Evaluate(x *models.Table, y []float64) (*models.RegressionMetrics, error) {
	preds, err := p.Predict(x)
	if err != nil {
		return nil, err
	}
	return ComputeMetrics(preds, y), nil
}

// LinearModel is an ordinary-least-squares regression over all feature
// columns with an intercept, solved by QR decomposition. Missing feature
// cells are substituted with the training mean of their column, so lag
// warm-up rows do not poison the fit.
type LinearModel struct {
	columns []string
	weights []float64 // intercept first
	means   map[string]float64
}

// NewLinearModel creates an untrained linear model.
func NewLinearModel() *LinearModel {
	return &LinearModel{}
}

// Fit solves min ||A w - y|| over the design matrix A = [1 | features].
func (m *LinearModel) Fit(x *models.Table, y []float64) error {
	n := x.NumRows()
	if n != len(y) {
		return errors.NewValidationError("SHAPE_MISMATCH", "feature matrix and target lengths differ")
	}
	m.columns = x.Columns()
	if n < len(m.columns)+1 {
		return errors.NewInsufficientDataError("linear regression", len(m.columns)+1, n)
	}

	m.means = make(map[string]float64, len(m.columns))
	for _, col := range m.columns {
		mean := stats.Mean(x.Column(col))
		if math.IsNaN(mean) {
			mean = 0
		}
		m.means[col] = mean
	}

	cols := len(m.columns) + 1
	a := mat.NewDense(n, cols, nil)
	b := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		a.Set(i, 0, 1)
		for j, col := range m.columns {
			a.Set(i, j+1, m.cell(x, col, i))
		}
		v := y[i]
		if math.IsNaN(v) {
			v = 0
		}
		b.SetVec(i, v)
	}

	var qr mat.QR
	qr.Factorize(a)
	var w mat.VecDense
	if err := qr.SolveVecTo(&w, false, b); err != nil {
		return errors.WrapError(err, errors.ErrorTypeInternal, "SOLVE_FAILED", "least squares solve failed")
	}

	m.weights = make([]float64, cols)
	for i := range m.weights {
		m.weights[i] = w.AtVec(i)
	}
	return nil
}

// Predict applies the fitted weights, clamping predictions
// non-negative; pollutant concentrations cannot be negative.
func (m *LinearModel) Predict(x *models.Table) ([]float64, error) {
	if m.weights == nil {
		return nil, errors.NewValidationError("NOT_FITTED", "linear model has not been fitted")
	}
	n := x.NumRows()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		v := m.weights[0]
		for j, col := range m.columns {
			v += m.weights[j+1] * m.cell(x, col, i)
		}
		if v < 0 || math.IsNaN(v) {
			v = 0
		}
		out[i] = v
	}
	return out, nil
}

// Evaluate scores the fitted model on held-out data.
func (m *LinearModel) Evaluate(x *models.Table, y []float64) (*models.RegressionMetrics, error) {
	preds, err := m.Predict(x)
	if err != nil {
		return nil, err
	}
	return ComputeMetrics(preds, y), nil
}

// cell reads a feature value, substituting the training mean for
// missing cells and zero for columns unseen at fit time.
func (m *LinearModel) cell(x *models.Table, col string, i int) float64 {
	src := x.Column(col)
	if src == nil {
		return m.means[col]
	}
	v := src[i]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return m.means[col]
	}
	return v
}

// Predictor registry names.
const (
	PredictorPersistence = "persistence"
	PredictorLinear      = "linear"
)

// NewDefaultRegistry returns a registry with the built-in reference
// predictors. targetColumn feeds the persistence baseline.
func NewDefaultRegistry(targetColumn string) *interfaces.Registry {
	r := interfaces.NewRegistry()
	// Registration of built-ins cannot collide on a fresh registry.
	_ = r.Register(PredictorPersistence, func() interfaces.Predictor {
		return NewPersistenceModel(targetColumn)
	})
	_ = r.Register(PredictorLinear, func() interfaces.Predictor {
		return NewLinearModel()
	})
	return r
}
