// Package features synthesizes model-ready features from cleaned
// pollutant series: temporal and cyclical encodings, per-entity lags and
// rolling statistics, chemically-motivated interactions and ratios, and
// per-entity baselines. Everything is a pure function of the input batch
// plus explicit per-entity grouping; there is no cross-batch memory.
package features

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/skylab-io/aqicast/internal/utils/stats"
	"github.com/skylab-io/aqicast/pkg/constants"
	"github.com/skylab-io/aqicast/pkg/models"
)

// Config controls which feature families are generated.
type Config struct {
	Lags           []int `json:"lags" mapstructure:"lags"`
	RollingWindows []int `json:"rolling_windows" mapstructure:"rolling_windows"`

	Temporal     bool `json:"temporal" mapstructure:"temporal"`
	Interactions bool `json:"interactions" mapstructure:"interactions"`
	Ratios       bool `json:"ratios" mapstructure:"ratios"`
	EntityStats  bool `json:"entity_stats" mapstructure:"entity_stats"`
	Weather      bool `json:"weather" mapstructure:"weather"`
}

// DefaultConfig enables every feature family with the standard lag and
// window sets.
func DefaultConfig() *Config {
	return &Config{
		Lags:           append([]int{}, constants.DefaultLags...),
		RollingWindows: append([]int{}, constants.DefaultRollingWindows...),
		Temporal:       true,
		Interactions:   true,
		Ratios:         true,
		EntityStats:    true,
		Weather:        true,
	}
}

// interactionPairs are fixed chemically-motivated pollutant pairs, not
// an exhaustive cross product: each corresponds to known
// atmospheric-chemistry co-occurrence.
var interactionPairs = [][2]string{
	{models.ColumnPM25, models.ColumnNO2},
	{models.ColumnPM10, models.ColumnO3},
	{models.ColumnNO2, models.ColumnO3},
	{models.ColumnCO, models.ColumnNO2},
	{models.ColumnSO2, models.ColumnPM25},
}

// ratioPairs are numerator/denominator pairs with division guarded
// against near-zero denominators.
var ratioPairs = [][2]string{
	{models.ColumnPM25, models.ColumnPM10},
	{models.ColumnNO2, models.ColumnO3},
	{models.ColumnCO, models.ColumnNO2},
}

// Engineer synthesizes features over a cleaned table.
type Engineer struct {
	config *Config
	logger *logrus.Logger
}

// NewEngineer creates a feature engineer.
func NewEngineer(config *Config, logger *logrus.Logger) *Engineer {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Engineer{config: config, logger: logger}
}

// Transform returns a new table extending the input columns with the
// configured feature families. The input table is not modified. Lag
// cells before a full lag window are left missing: backfilling them
// would leak, so dropping or imputing them is the consumer's call.
func (e *Engineer) Transform(t *models.Table) *models.Table {
	out := t.Clone()

	if e.config.Temporal {
		e.addTemporal(out)
	}
	e.addLags(out)
	e.addRolling(out)
	if e.config.Interactions {
		e.addInteractions(out)
	}
	if e.config.Ratios {
		e.addRatios(out)
	}
	if e.config.EntityStats {
		e.addEntityStats(out)
	}
	if e.config.Weather {
		e.addWeather(out)
	}

	e.logger.WithFields(logrus.Fields{
		"rows":            out.NumRows(),
		"input_columns":   len(t.Columns()),
		"feature_columns": len(out.Columns()) - len(t.Columns()),
	}).Debug("Feature engineering completed")

	return out
}

// addTemporal extracts calendar features. Cyclical sin/cos encodings are
// used instead of raw integers so hour 23 and hour 0 are numerically
// adjacent.
func (e *Engineer) addTemporal(t *models.Table) {
	n := t.NumRows()
	hour := make([]float64, n)
	dow := make([]float64, n)
	month := make([]float64, n)
	weekend := make([]float64, n)
	rush := make([]float64, n)
	hourSin := make([]float64, n)
	hourCos := make([]float64, n)
	dowSin := make([]float64, n)
	dowCos := make([]float64, n)
	monthSin := make([]float64, n)
	monthCos := make([]float64, n)

	for i, ts := range t.Timestamps {
		h := float64(ts.Hour())
		d := float64(ts.Weekday())
		m := float64(ts.Month())
		hour[i] = h
		dow[i] = d
		month[i] = m
		if ts.Weekday() == 0 || ts.Weekday() == 6 {
			weekend[i] = 1
		}
		if (h >= 7 && h <= 9) || (h >= 17 && h <= 19) {
			rush[i] = 1
		}
		hourSin[i], hourCos[i] = cyclical(h, 24)
		dowSin[i], dowCos[i] = cyclical(d, 7)
		monthSin[i], monthCos[i] = cyclical(m-1, 12)
	}

	t.AddColumn("hour", hour)
	t.AddColumn("day_of_week", dow)
	t.AddColumn("month", month)
	t.AddColumn("is_weekend", weekend)
	t.AddColumn("is_rush_hour", rush)
	t.AddColumn("hour_sin", hourSin)
	t.AddColumn("hour_cos", hourCos)
	t.AddColumn("day_of_week_sin", dowSin)
	t.AddColumn("day_of_week_cos", dowCos)
	t.AddColumn("month_sin", monthSin)
	t.AddColumn("month_cos", monthCos)
}

func cyclical(value, period float64) (sin, cos float64) {
	angle := 2 * math.Pi * value / period
	return math.Sin(angle), math.Cos(angle)
}

// addLags shifts each pollutant by each configured lag, grouped by
// entity so one city's history never appears in another's features.
func (e *Engineer) addLags(t *models.Table) {
	runs := t.EntityRuns()
	for _, col := range models.PollutantColumns {
		src := t.Column(col)
		if src == nil {
			continue
		}
		for _, lag := range e.config.Lags {
			lagged := make([]float64, len(src))
			for i := range lagged {
				lagged[i] = math.NaN()
			}
			for _, run := range runs {
				for i := run[0] + lag; i < run[1]; i++ {
					lagged[i] = src[i-lag]
				}
			}
			t.AddColumn(fmt.Sprintf("%s_lag_%dh", col, lag), lagged)
		}
	}
}

// addRolling computes trailing rolling mean and std per pollutant and
// window, grouped by entity, with a minimum of one sample. A std over a
// single sample is 0, not missing: "no variance yet" is information.
func (e *Engineer) addRolling(t *models.Table) {
	runs := t.EntityRuns()
	for _, col := range models.PollutantColumns {
		src := t.Column(col)
		if src == nil {
			continue
		}
		for _, window := range e.config.RollingWindows {
			means := make([]float64, len(src))
			stds := make([]float64, len(src))
			for _, run := range runs {
				m, s := stats.RollingMeanStd(src[run[0]:run[1]], window)
				copy(means[run[0]:run[1]], m)
				copy(stds[run[0]:run[1]], s)
			}
			t.AddColumn(fmt.Sprintf("%s_roll_mean_%dh", col, window), means)
			t.AddColumn(fmt.Sprintf("%s_roll_std_%dh", col, window), stds)
		}
	}
}

func (e *Engineer) addInteractions(t *models.Table) {
	for _, pair := range interactionPairs {
		a, b := t.Column(pair[0]), t.Column(pair[1])
		if a == nil || b == nil {
			continue
		}
		product := make([]float64, len(a))
		for i := range product {
			product[i] = a[i] * b[i]
		}
		t.AddColumn(fmt.Sprintf("%s_x_%s", pair[0], pair[1]), product)
	}
}

func (e *Engineer) addRatios(t *models.Table) {
	for _, pair := range ratioPairs {
		num, den := t.Column(pair[0]), t.Column(pair[1])
		if num == nil || den == nil {
			continue
		}
		ratio := make([]float64, len(num))
		for i := range ratio {
			ratio[i] = guardedRatio(num[i], den[i])
		}
		t.AddColumn(fmt.Sprintf("%s_%s_ratio", pair[0], pair[1]), ratio)
	}
}

// guardedRatio returns 0 instead of a huge ratio when the denominator is
// below the guard threshold.
func guardedRatio(num, den float64) float64 {
	if math.IsNaN(num) || math.IsNaN(den) {
		return math.NaN()
	}
	if math.Abs(den) < constants.RatioGuard {
		return 0
	}
	return num / den
}

// addEntityStats adds each entity's mean of every pollutant and each
// reading's deviation from that mean. A single unified model can then
// learn a per-city baseline without one-hot city encoding.
func (e *Engineer) addEntityStats(t *models.Table) {
	runs := t.EntityRuns()
	for _, col := range models.PollutantColumns {
		src := t.Column(col)
		if src == nil {
			continue
		}
		entityMean := make([]float64, len(src))
		deviation := make([]float64, len(src))
		for _, run := range runs {
			mean := stats.Mean(src[run[0]:run[1]])
			for i := run[0]; i < run[1]; i++ {
				entityMean[i] = mean
				deviation[i] = src[i] - mean
			}
		}
		t.AddColumn(col+"_entity_mean", entityMean)
		t.AddColumn(col+"_entity_dev", deviation)
	}
}

// addWeather adds weather interaction features when the weather columns
// are present; batches without meteorology simply skip them.
func (e *Engineer) addWeather(t *models.Table) {
	temp := t.Column(models.ColumnTemperature)
	humidity := t.Column(models.ColumnHumidity)
	wind := t.Column(models.ColumnWindSpeed)
	pm25 := t.Column(models.ColumnPM25)
	o3 := t.Column(models.ColumnO3)

	if temp != nil && o3 != nil {
		t.AddColumn("temp_x_o3", product(temp, o3))
	}
	if temp != nil && pm25 != nil {
		t.AddColumn("temp_x_pm25", product(temp, pm25))
	}
	if humidity != nil && pm25 != nil {
		t.AddColumn("humidity_x_pm25", product(humidity, pm25))
	}
	if wind != nil {
		for _, col := range models.PollutantColumns {
			src := t.Column(col)
			if src == nil {
				continue
			}
			dispersion := make([]float64, len(src))
			for i := range dispersion {
				dispersion[i] = src[i] / (wind[i] + constants.WindDispersionOffset)
			}
			t.AddColumn(col+"_wind_dispersion", dispersion)
		}
	}
}

func product(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range out {
		out[i] = a[i] * b[i]
	}
	return out
}
