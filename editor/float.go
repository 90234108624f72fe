package editor

import "math"

type (
	// Float is a continuous value of the model, e.g. a morph coordinate or
	// an effect amount, that can be bound to a slider.
	Float struct {
		FloatData
	}

	FloatData interface {
		Value() float64
		Range() floatRange

		setValue(float64)
		change(kind string) func()
	}

	floatRange struct {
		Min, Max float64
	}
)

func (v Float) Add(delta float64) (ok bool) {
	return v.Set(v.Value() + delta)
}

func (v Float) Set(value float64) (ok bool) {
	if math.IsNaN(value) {
		return false
	}
	value = v.Range().Clamp(value)
	if value == v.Value() {
		return false
	}
	defer v.change("Set")()
	v.setValue(value)
	return true
}

func (r floatRange) Clamp(value float64) float64 {
	return math.Max(math.Min(value, r.Max), r.Min)
}
