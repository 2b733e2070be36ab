package constants

// Application constants
const (
	AppName        = "aqicast"
	AppDescription = "Air quality time-series cleaning, feature engineering and forecast evaluation"
	AppVersion     = "0.1.0"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Cleaning defaults
const (
	DefaultZScoreThreshold = 3.0
	DefaultIQRMultiplier   = 1.5
	DefaultCapLowerPct     = 5.0
	DefaultCapUpperPct     = 95.0
	DefaultFillLimit       = 3
	DefaultRollingFillSpan = 6
	DefaultCVThreshold     = 0.30
	DefaultAQIDiscrepancy  = 50.0
	DefaultAnomalyWindow   = 24
	DefaultAnomalyMediumZ  = 3.0
	DefaultAnomalyHighZ    = 5.0
)

// Feature engineering defaults
var (
	DefaultLags           = []int{1, 3, 6, 12, 24}
	DefaultRollingWindows = []int{3, 6, 12, 24}
)

const (
	// RatioGuard avoids explosive ratios when the denominator is
	// effectively zero; guarded ratios return 0 instead.
	RatioGuard = 0.01

	// WindDispersionOffset keeps the wind-dispersion index finite in
	// calm conditions.
	WindDispersionOffset = 0.1
)

// Validation defaults
const (
	DefaultNSplits        = 5
	DefaultGap            = 0
	DefaultTestSize       = 0.2
	DefaultMaxConcurrency = 4

	// RollingTrainDivisorOffset sizes the rolling training window when
	// one is not given explicitly: n_samples / (n_splits + offset).
	RollingTrainDivisorOffset = 5
)

// DomainRange is the physically plausible value range for a field, used
// as one of the outlier-detection methods.
type DomainRange struct {
	Min float64
	Max float64
}

// DomainRanges maps fields to fixed physically plausible bounds.
// Concentrations in ug/m3 except CO (mg/m3).
var DomainRanges = map[string]DomainRange{
	"pm25":        {Min: 0, Max: 999},
	"pm10":        {Min: 0, Max: 1999},
	"no2":         {Min: 0, Max: 1000},
	"so2":         {Min: 0, Max: 1000},
	"co":          {Min: 0, Max: 75},
	"o3":          {Min: 0, Max: 1000},
	"aqi":         {Min: 0, Max: 500},
	"temperature": {Min: -60, Max: 60},
	"humidity":    {Min: 0, Max: 100},
	"wind_speed":  {Min: 0, Max: 120},
}
