// Package riskengine turns raw patient metrics and prediction results into
// chart datasets and rule-based health suggestions. Everything here is a pure
// function of its inputs and safe for concurrent use.
package riskengine

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/mlhealth/riskview/internal/domain"
)

// references is the fixed radar-chart reference set, in display order.
var references = []domain.MetricReference{
	{Key: domain.FieldAge, Label: "Age", Min: 20, Max: 80, OptimalLow: 30, OptimalHigh: 55},
	{Key: domain.FieldRestingBP, Label: "Resting BP", Min: 90, Max: 180, OptimalLow: 110, OptimalHigh: 130},
	{Key: domain.FieldSerumCholesterol, Label: "Cholesterol", Min: 100, Max: 350, OptimalLow: 150, OptimalHigh: 200},
	{Key: domain.FieldMaxHeartRate, Label: "Max Heart Rate", Min: 70, Max: 210, OptimalLow: 140, OptimalHigh: 180, Invert: true},
}

// leading numeric prefix, the same subset a lenient form parser accepts
var numericPrefix = regexp.MustCompile(`^[+-]?(Infinity|(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?)`)

// References returns a copy of the fixed reference set.
func References() []domain.MetricReference {
	out := make([]domain.MetricReference, len(references))
	copy(out, references)
	return out
}

// Reference looks up the reference for a metric key.
func Reference(key string) (domain.MetricReference, bool) {
	for _, ref := range references {
		if ref.Key == key {
			return ref, true
		}
	}
	return domain.MetricReference{}, false
}

// Normalize clamps value to [ref.Min, ref.Max] and rescales it to 0-100,
// flipping the scale for inverted references. A reference with Min == Max is
// a configuration bug and panics.
func Normalize(value float64, ref domain.MetricReference) float64 {
	span := ref.Max - ref.Min
	if span == 0 {
		panic(fmt.Sprintf("riskengine: reference %q has an empty range (min == max == %v)", ref.Key, ref.Min))
	}

	if value < ref.Min {
		value = ref.Min
	}
	if value > ref.Max {
		value = ref.Max
	}

	pct := (value - ref.Min) / span * 100
	if ref.Invert {
		return 100 - pct
	}
	return pct
}

// NormalizeOptimalMidpoint places the middle of the healthy range on the
// normalized scale.
func NormalizeOptimalMidpoint(ref domain.MetricReference) float64 {
	return Normalize((ref.OptimalLow+ref.OptimalHigh)/2, ref)
}

// SafeFloat reads a raw form value leniently: blank or non-numeric input is 0.
//
// This is intentional product behavior, but it means a blank field lands on
// the clamped end of its axis rather than being left out of the chart.
func SafeFloat(raw string) float64 {
	v, ok := ParseMetric(raw)
	if !ok {
		return 0
	}
	return v
}

// ParseMetric parses the leading numeric part of raw ("54", " 54", "54kg").
// It reports false when no number can be read.
func ParseMetric(raw string) (float64, bool) {
	s := strings.TrimLeftFunc(raw, unicode.IsSpace)
	match := numericPrefix.FindString(s)
	if match == "" {
		return 0, false
	}
	switch match {
	case "Infinity", "+Infinity":
		return math.Inf(1), true
	case "-Infinity":
		return math.Inf(-1), true
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		// out-of-range exponents saturate to ±Inf with ErrRange
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return v, true
		}
		return 0, false
	}
	return v, true
}
