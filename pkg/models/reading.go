package models

import (
	"math"
	"time"
)

// Well-known column names in the ingestion schema. Pollutant
// concentrations are in ug/m3 except CO which arrives in mg/m3.
const (
	ColumnPM25 = "pm25"
	ColumnPM10 = "pm10"
	ColumnNO2  = "no2"
	ColumnSO2  = "so2"
	ColumnCO   = "co"
	ColumnO3   = "o3"
	ColumnAQI  = "aqi"

	ColumnTemperature = "temperature"
	ColumnHumidity    = "humidity"
	ColumnWindSpeed   = "wind_speed"
)

// PollutantColumns lists the pollutant concentration columns in schema order.
var PollutantColumns = []string{ColumnPM25, ColumnPM10, ColumnNO2, ColumnSO2, ColumnCO, ColumnO3}

// WeatherColumns lists the optional meteorological columns.
var WeatherColumns = []string{ColumnTemperature, ColumnHumidity, ColumnWindSpeed}

// Reading is a single observation from one source for one entity at one
// timestamp. Missing numeric values are represented as NaN. Readings are
// produced by an external collector and consumed read-only by the pipeline.
type Reading struct {
	EntityID  string             `json:"entity_id"`
	Timestamp time.Time          `json:"timestamp"`
	Values    map[string]float64 `json:"values"`
	Source    string             `json:"source"`
}

// Value returns the named field of the reading, or NaN when absent.
func (r *Reading) Value(column string) float64 {
	if v, ok := r.Values[column]; ok {
		return v
	}
	return math.NaN()
}

// AQIBand is an AQI severity category.
type AQIBand string

const (
	BandGood               AQIBand = "good"
	BandModerate           AQIBand = "moderate"
	BandUnhealthySensitive AQIBand = "unhealthy_sensitive"
	BandUnhealthy          AQIBand = "unhealthy"
	BandVeryUnhealthy      AQIBand = "very_unhealthy"
	BandHazardous          AQIBand = "hazardous"
)

// AQIBands lists the severity bands from least to most severe.
var AQIBands = []AQIBand{
	BandGood,
	BandModerate,
	BandUnhealthySensitive,
	BandUnhealthy,
	BandVeryUnhealthy,
	BandHazardous,
}

// AQIBandFor maps an AQI value to its severity band using the standard
// EPA breakpoints.
func AQIBandFor(aqi float64) AQIBand {
	switch {
	case aqi <= 50:
		return BandGood
	case aqi <= 100:
		return BandModerate
	case aqi <= 150:
		return BandUnhealthySensitive
	case aqi <= 200:
		return BandUnhealthy
	case aqi <= 300:
		return BandVeryUnhealthy
	default:
		return BandHazardous
	}
}
