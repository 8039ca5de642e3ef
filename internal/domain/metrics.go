package domain

import "fmt"

// Metric field keys as they appear in the body-assessment form and on the wire.
const (
	FieldAge               = "age"
	FieldGender            = "gender"
	FieldChestPain         = "chestpain"
	FieldRestingBP         = "restingBP"
	FieldSerumCholesterol  = "serumcholestrol"
	FieldFastingBloodSugar = "fastingbloodsugar"
	FieldRestingECG        = "restingrelectro"
	FieldMaxHeartRate      = "maxheartrate"
	FieldExerciseAngina    = "exerciseangia"
	FieldOldpeak           = "oldpeak"
	FieldSlope             = "slope"
	FieldMajorVessels      = "noofmajorvessels"
)

// MetricFields lists every body-assessment field in form order.
var MetricFields = []string{
	FieldAge,
	FieldGender,
	FieldChestPain,
	FieldRestingBP,
	FieldSerumCholesterol,
	FieldFastingBloodSugar,
	FieldRestingECG,
	FieldMaxHeartRate,
	FieldExerciseAngina,
	FieldOldpeak,
	FieldSlope,
	FieldMajorVessels,
}

// PatientMetrics holds the raw, user-entered cardiac risk factors.
// Values are kept as typed so that blank and non-numeric input survives until
// a consumer decides how lenient to be.
type PatientMetrics struct {
	Age               string `json:"age" yaml:"age"`
	Gender            string `json:"gender" yaml:"gender"`
	ChestPain         string `json:"chestpain" yaml:"chestpain"`
	RestingBP         string `json:"restingBP" yaml:"restingBP"`
	SerumCholesterol  string `json:"serumcholestrol" yaml:"serumcholestrol"`
	FastingBloodSugar string `json:"fastingbloodsugar" yaml:"fastingbloodsugar"`
	RestingECG        string `json:"restingrelectro" yaml:"restingrelectro"`
	MaxHeartRate      string `json:"maxheartrate" yaml:"maxheartrate"`
	ExerciseAngina    string `json:"exerciseangia" yaml:"exerciseangia"`
	Oldpeak           string `json:"oldpeak" yaml:"oldpeak"`
	Slope             string `json:"slope" yaml:"slope"`
	MajorVessels      string `json:"noofmajorvessels" yaml:"noofmajorvessels"`

	// PatientID is a display-only reference and is never submitted.
	PatientID string `json:"patient_id,omitempty" yaml:"patient_id,omitempty"`
}

// Get returns the raw value for a field key. Unknown keys read as blank.
func (m PatientMetrics) Get(field string) string {
	switch field {
	case FieldAge:
		return m.Age
	case FieldGender:
		return m.Gender
	case FieldChestPain:
		return m.ChestPain
	case FieldRestingBP:
		return m.RestingBP
	case FieldSerumCholesterol:
		return m.SerumCholesterol
	case FieldFastingBloodSugar:
		return m.FastingBloodSugar
	case FieldRestingECG:
		return m.RestingECG
	case FieldMaxHeartRate:
		return m.MaxHeartRate
	case FieldExerciseAngina:
		return m.ExerciseAngina
	case FieldOldpeak:
		return m.Oldpeak
	case FieldSlope:
		return m.Slope
	case FieldMajorVessels:
		return m.MajorVessels
	default:
		return ""
	}
}

// Set assigns a raw value to a field key.
func (m *PatientMetrics) Set(field, value string) error {
	switch field {
	case FieldAge:
		m.Age = value
	case FieldGender:
		m.Gender = value
	case FieldChestPain:
		m.ChestPain = value
	case FieldRestingBP:
		m.RestingBP = value
	case FieldSerumCholesterol:
		m.SerumCholesterol = value
	case FieldFastingBloodSugar:
		m.FastingBloodSugar = value
	case FieldRestingECG:
		m.RestingECG = value
	case FieldMaxHeartRate:
		m.MaxHeartRate = value
	case FieldExerciseAngina:
		m.ExerciseAngina = value
	case FieldOldpeak:
		m.Oldpeak = value
	case FieldSlope:
		m.Slope = value
	case FieldMajorVessels:
		m.MajorVessels = value
	default:
		return NewValidationError(field, "unknown metric field", value)
	}
	return nil
}

// MetricReference is the static scale used to place a raw metric on the
// 0-100 radar axis.
type MetricReference struct {
	Key         string
	Label       string
	Min         float64
	Max         float64
	OptimalLow  float64
	OptimalHigh float64
	// Invert is set for metrics where a higher raw value is healthier.
	Invert bool
}

// Validate checks min < optimalLow <= optimalHigh < max.
func (r MetricReference) Validate() error {
	if !(r.Min < r.OptimalLow && r.OptimalLow <= r.OptimalHigh && r.OptimalHigh < r.Max) {
		return NewValidationError(r.Key,
			fmt.Sprintf("reference range must satisfy min < optimalLow <= optimalHigh < max, got %v/%v/%v/%v",
				r.Min, r.OptimalLow, r.OptimalHigh, r.Max),
			r)
	}
	return nil
}
