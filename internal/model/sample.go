package model

import (
	"fmt"
	"strconv"
	"strings"
)

// TabularSample holds the six environmental measurements sent to the
// tabular prediction endpoint. JSON names match the endpoint's schema.
type TabularSample struct {
	MaximumTemperature float64 `json:"Maximum_Temperature"`
	MinimumTemperature float64 `json:"Minimum_Temperature"`
	Temperature        float64 `json:"Temperature"`
	Precipitation      float64 `json:"Precipitation"`
	SoilPH             float64 `json:"Soil_pH"`
	RelativeHumidity   float64 `json:"Relative_Humidity"`
}

// Field names of a TabularSample, as used on the wire and in the form.
const (
	FieldMaximumTemperature = "Maximum_Temperature"
	FieldMinimumTemperature = "Minimum_Temperature"
	FieldTemperature        = "Temperature"
	FieldPrecipitation      = "Precipitation"
	FieldSoilPH             = "Soil_pH"
	FieldRelativeHumidity   = "Relative_Humidity"
)

// TabularField describes one input of the environmental form.
type TabularField struct {
	Name  string
	Label string
}

// TabularFields lists the sample fields in form order.
var TabularFields = []TabularField{
	{Name: FieldMaximumTemperature, Label: "Max Temperature"},
	{Name: FieldMinimumTemperature, Label: "Min Temperature"},
	{Name: FieldTemperature, Label: "Temperature"},
	{Name: FieldPrecipitation, Label: "Precipitation"},
	{Name: FieldSoilPH, Label: "Soil pH"},
	{Name: FieldRelativeHumidity, Label: "Humidity"},
}

// IsTabularField reports whether name is one of the six sample fields.
func IsTabularField(name string) bool {
	_, ok := fieldLabel(name)
	return ok
}

// FieldLabel returns the display label of a sample field, or the name itself
// when the field is unknown.
func FieldLabel(name string) string {
	if label, ok := fieldLabel(name); ok {
		return label
	}
	return name
}

func fieldLabel(name string) (string, bool) {
	for _, f := range TabularFields {
		if f.Name == name {
			return f.Label, true
		}
	}
	return "", false
}

// Get returns the value of a named field.
func (s TabularSample) Get(name string) (float64, error) {
	switch name {
	case FieldMaximumTemperature:
		return s.MaximumTemperature, nil
	case FieldMinimumTemperature:
		return s.MinimumTemperature, nil
	case FieldTemperature:
		return s.Temperature, nil
	case FieldPrecipitation:
		return s.Precipitation, nil
	case FieldSoilPH:
		return s.SoilPH, nil
	case FieldRelativeHumidity:
		return s.RelativeHumidity, nil
	}
	return 0, fmt.Errorf("unknown tabular field %q", name)
}

// Set assigns the value of a named field.
func (s *TabularSample) Set(name string, value float64) error {
	switch name {
	case FieldMaximumTemperature:
		s.MaximumTemperature = value
	case FieldMinimumTemperature:
		s.MinimumTemperature = value
	case FieldTemperature:
		s.Temperature = value
	case FieldPrecipitation:
		s.Precipitation = value
	case FieldSoilPH:
		s.SoilPH = value
	case FieldRelativeHumidity:
		s.RelativeHumidity = value
	default:
		return fmt.Errorf("unknown tabular field %q", name)
	}
	return nil
}

// ParseFieldValue parses user input for a sample field.
func ParseFieldValue(raw string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(raw), 64)
}

// Map returns the sample keyed by wire field name.
func (s TabularSample) Map() map[string]float64 {
	out := make(map[string]float64, len(TabularFields))
	for _, f := range TabularFields {
		v, _ := s.Get(f.Name)
		out[f.Name] = v
	}
	return out
}

// SampleFromMap builds a sample from wire field names. Missing keys are zero.
func SampleFromMap(values map[string]float64) TabularSample {
	var s TabularSample
	for name, v := range values {
		_ = s.Set(name, v)
	}
	return s
}
