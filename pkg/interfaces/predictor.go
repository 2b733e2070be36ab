package interfaces

import (
	"fmt"
	"sort"
	"sync"

	"github.com/skylab-io/aqicast/pkg/models"
)

// Predictor is the uniform contract every forecasting model implements.
// Predictions must be clamped non-negative by the predictor itself, not
// by the evaluation harness.
type Predictor interface {
	// Fit trains the model on a feature matrix and target vector.
	Fit(x *models.Table, y []float64) error

	// Predict returns one prediction per row of x.
	Predict(x *models.Table) ([]float64, error)

	// Evaluate scores the model on held-out data.
	Evaluate(x *models.Table, y []float64) (*models.RegressionMetrics, error)
}

// PredictorFactory constructs a fresh, untrained predictor. Walk-forward
// evaluation calls the factory once per fold so that no training state
// leaks between folds.
type PredictorFactory func() Predictor

// Registry maps predictor identifiers to factories. It is resolved once
// at startup; lookups after that are read-only.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]PredictorFactory
}

// NewRegistry creates an empty predictor registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]PredictorFactory)}
}

// Register adds a factory under the given name. Registering the same
// name twice is an error: predictor identity must be unambiguous.
func (r *Registry) Register(name string, factory PredictorFactory) error {
	if factory == nil {
		return fmt.Errorf("predictor factory for %q cannot be nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("predictor %q already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// Factory returns the factory registered under name.
func (r *Registry) Factory(name string) (PredictorFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	return f, ok
}

// New constructs a fresh predictor by name.
func (r *Registry) New(name string) (Predictor, error) {
	f, ok := r.Factory(name)
	if !ok {
		return nil, fmt.Errorf("predictor %q not registered", name)
	}
	return f(), nil
}

// Names returns the registered predictor names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
