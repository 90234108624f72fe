package editor

import (
	"fmt"
	"math"
	"time"

	"gopkg.in/yaml.v3"
)

type (
	// NavMode tells which coordinates of the morph position are driven by the
	// user; the others are derived from them.
	NavMode int

	// Position is a continuous position over the bank; either a GridPos or a
	// LinearPos. The variant decides the navigation mode: in grid mode X and Y
	// are driven and Z = Y*width + X is derived; in linear mode Z is driven
	// and X = Z mod width, Y = floor(Z / width) are derived.
	Position interface {
		Mode() NavMode
		Linear(width int) float64
		Grid(width int) (x, y float64)
	}

	// GridPos is a position in grid mode.
	GridPos struct{ X, Y float64 }

	// LinearPos is a position in linear mode.
	LinearPos struct{ Z float64 }

	// MorphState is the continuous position of the morph cursor over the bank
	// together with the parameters controlling its motion. When Interpolate
	// is false and ZSpeed is zero, the position is always snapped to integer
	// coordinates i.e. exactly one wave is addressed; otherwise the position
	// may be fractional and addresses a blend of neighboring waves.
	MorphState struct {
		Pos         Position
		ZSpeed      float64 // waves per second; the position loops through the bank when positive
		Interpolate bool
	}

	// Blend is a morph position resolved to wave indices. The waves A and B
	// are neighbors along the bank and T in [0,1) is the crossfade between
	// them. In grid mode, C and D are the waves one row below A and B, and U
	// in [0,1) is the crossfade between the rows. When T is zero, B == A; when
	// U is zero, C == A and D == B.
	Blend struct {
		A, B int
		T    float64
		C, D int
		U    float64
	}

	// MorphModel groups the ways to query and change the morph state.
	MorphModel Model

	morphX           MorphModel
	morphY           MorphModel
	morphZ           MorphModel
	morphZSpeed      MorphModel
	morphInterpolate MorphModel
	morphGridMode    MorphModel
)

const (
	LinearMode NavMode = iota
	GridMode
)

// MaxZSpeed is the fastest auto-advance rate, in waves per second.
const MaxZSpeed = 10

var defaultMorphState = MorphState{Pos: LinearPos{}}

func (m NavMode) String() string {
	switch m {
	case GridMode:
		return "grid"
	case LinearMode:
		return "linear"
	}
	return fmt.Sprintf("NavMode(%d)", int(m))
}

// Position methods

func (p GridPos) Mode() NavMode                 { return GridMode }
func (p GridPos) Linear(width int) float64      { return p.Y*float64(width) + p.X }
func (p GridPos) Grid(width int) (x, y float64) { return p.X, p.Y }

func (p LinearPos) Mode() NavMode            { return LinearMode }
func (p LinearPos) Linear(width int) float64 { return p.Z }
func (p LinearPos) Grid(width int) (x, y float64) {
	w := float64(width)
	return math.Mod(p.Z, w), math.Floor(p.Z / w)
}

// ConvertPosition converts a position to the given mode so that it still
// addresses the same point of the bank.
func ConvertPosition(p Position, mode NavMode, width int) Position {
	if p == nil {
		p = LinearPos{}
	}
	if p.Mode() == mode {
		return p
	}
	switch mode {
	case GridMode:
		x, y := p.Grid(width)
		return GridPos{X: x, Y: y}
	default:
		return LinearPos{Z: p.Linear(width)}
	}
}

// MorphState methods

func (s MorphState) position() Position {
	if s.Pos == nil {
		return LinearPos{}
	}
	return s.Pos
}

// Mode returns the current navigation mode.
func (s MorphState) Mode() NavMode { return s.position().Mode() }

// X returns the horizontal grid coordinate, driven or derived.
func (s MorphState) X(width int) float64 {
	x, _ := s.position().Grid(width)
	return x
}

// Y returns the vertical grid coordinate, driven or derived.
func (s MorphState) Y(width int) float64 {
	_, y := s.position().Grid(width)
	return y
}

// Z returns the linear coordinate, driven or derived.
func (s MorphState) Z(width int) float64 { return s.position().Linear(width) }

// Quantized reports if the snap rule is in effect: no interpolation and no
// auto-advance.
func (s MorphState) Quantized() bool { return !s.Interpolate && s.ZSpeed <= 0 }

// WithMode returns the state converted to the given navigation mode, keeping
// the addressed wave.
func (s MorphState) WithMode(mode NavMode, width int) MorphState {
	s.Pos = ConvertPosition(s.position(), mode, width)
	return s
}

// Snap applies the snap rule: if the state is quantized, the driven
// coordinates are rounded to the nearest integers, halfway cases away from
// zero. A position rounded past the last column continues from the next row
// and the bank wraps around, like the auto-advance does.
func (s MorphState) Snap(width, height int) MorphState {
	if !s.Quantized() {
		return s
	}
	n := float64(width * height)
	switch p := s.position().(type) {
	case GridPos:
		z := wrap(math.Round(p.Y)*float64(width)+math.Round(p.X), n)
		s.Pos = GridPos{X: math.Mod(z, float64(width)), Y: math.Floor(z / float64(width))}
	case LinearPos:
		s.Pos = LinearPos{Z: wrap(math.Round(p.Z), n)}
	}
	return s
}

// Advance moves the position forward by ZSpeed*seconds waves, looping around
// the bank. Both modes advance along Z; in grid mode, X and Y are recomputed
// from the advanced Z.
func (s MorphState) Advance(seconds float64, width, height int) MorphState {
	if s.ZSpeed <= 0 || seconds <= 0 {
		return s
	}
	z := wrap(s.Z(width)+s.ZSpeed*seconds, float64(width*height))
	s.Pos = ConvertPosition(LinearPos{Z: z}, s.Mode(), width)
	return s
}

// Clamp moves the position inside the bank.
func (s MorphState) Clamp(width, height int) MorphState {
	switch p := s.position().(type) {
	case GridPos:
		s.Pos = GridPos{X: clampHalfOpen(p.X, width), Y: clampHalfOpen(p.Y, height)}
	case LinearPos:
		s.Pos = LinearPos{Z: clampHalfOpen(p.Z, width*height)}
	}
	s.ZSpeed = math.Max(math.Min(s.ZSpeed, MaxZSpeed), 0)
	return s
}

// Resolve returns the waves addressed by the position and the crossfades
// between them.
func (s MorphState) Resolve(width, height int) Blend {
	n := width * height
	if p, ok := s.position().(GridPos); ok {
		return resolveGrid(p.X, p.Y, width, n)
	}
	return resolveLinear(s.Z(width), n)
}

func resolveGrid(x, y float64, width, n int) Blend {
	x0, y0 := math.Floor(x), math.Floor(y)
	a := clampInt(int(y0)*width+int(x0), 0, n-1)
	b := Blend{A: a, B: a, C: a, D: a, T: x - x0, U: y - y0}
	if b.T > 0 {
		b.B = (a + 1) % n
		b.D = b.B
	}
	if b.U > 0 {
		b.C = (a + width) % n
		b.D = b.C
		if b.T > 0 {
			b.D = (b.C + 1) % n
		}
	}
	return b
}

func resolveLinear(z float64, n int) Blend {
	z = wrap(z, float64(n))
	z0 := math.Floor(z)
	a := min(int(z0), n-1)
	b := Blend{A: a, B: a, C: a, D: a, T: z - z0}
	if b.T > 0 {
		b.B = (a + 1) % n
		b.D = b.B
	}
	return b
}

// Exact reports if the blend addresses exactly one wave.
func (b Blend) Exact() bool { return b.T == 0 && b.U == 0 }

type morphYaml struct {
	Mode        string
	X, Y, Z     float64 `yaml:",omitempty"`
	ZSpeed      float64 `yaml:",omitempty"`
	Interpolate bool    `yaml:",omitempty"`
}

func (s MorphState) MarshalYAML() (any, error) {
	ret := morphYaml{Mode: s.Mode().String(), ZSpeed: s.ZSpeed, Interpolate: s.Interpolate}
	switch p := s.position().(type) {
	case GridPos:
		ret.X, ret.Y = p.X, p.Y
	case LinearPos:
		ret.Z = p.Z
	}
	return ret, nil
}

func (s *MorphState) UnmarshalYAML(node *yaml.Node) error {
	var y morphYaml
	if err := node.Decode(&y); err != nil {
		return err
	}
	*s = MorphState{Pos: LinearPos{Z: y.Z}, ZSpeed: y.ZSpeed, Interpolate: y.Interpolate}
	if y.Mode == GridMode.String() {
		s.Pos = GridPos{X: y.X, Y: y.Y}
	}
	return nil
}

func wrap(v, n float64) float64 {
	if n <= 0 {
		return 0
	}
	v = math.Mod(v, n)
	if v < 0 {
		v += n
	}
	if v >= n { // -tiny + n rounds to n
		v = 0
	}
	return v
}

func clampHalfOpen(v float64, n int) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v >= float64(n) {
		return float64(n - 1)
	}
	return v
}

// Model methods

func (m *Model) Morph() *MorphModel { return (*MorphModel)(m) }

// setMorphPosition moves the morph cursor exactly onto wave i, keeping the
// navigation mode.
func (m *Model) setMorphPosition(i int) {
	w := m.d.Bank.Width
	m.d.Morph.Pos = ConvertPosition(LinearPos{Z: float64(i)}, m.d.Morph.Mode(), w)
	m.d.Morph = m.d.Morph.Snap(w, m.d.Bank.Height)
	m.needPublish = true
}

// setMorph installs a new morph state, snapping and clamping it.
func (m *Model) setMorph(s MorphState) {
	w, h := m.d.Bank.Width, m.d.Bank.Height
	m.d.Morph = s.Clamp(w, h).Snap(w, h)
	m.needPublish = true
}

// MorphModel methods

// Value returns the current morph state.
func (m *MorphModel) Value() MorphState { return m.d.Morph }

// Mode returns the current navigation mode.
func (m *MorphModel) Mode() NavMode { return m.d.Morph.Mode() }

// SetMode switches the navigation mode. The position is converted so that
// the addressed wave does not change.
func (m *MorphModel) SetMode(mode NavMode) {
	if mode == m.Mode() {
		return
	}
	defer (*Model)(m).change("Morph.SetMode")()
	(*Model)(m).setMorph(m.d.Morph.WithMode(mode, m.d.Bank.Width))
}

// Blend returns the current morph position resolved to wave indices.
func (m *MorphModel) Blend() Blend {
	return m.d.Morph.Resolve(m.d.Bank.Width, m.d.Bank.Height)
}

// Update advances the morph position by the elapsed time, applies the snap
// rule and publishes the result. It should be called once per update cycle
// of the control loop.
func (m *MorphModel) Update(elapsed time.Duration) {
	w, h := m.d.Bank.Width, m.d.Bank.Height
	next := m.d.Morph.Advance(elapsed.Seconds(), w, h).Snap(w, h)
	if next == m.d.Morph {
		return
	}
	defer (*Model)(m).change("Morph.Update")()
	m.d.Morph = next
	m.needPublish = true
}

func (m *MorphModel) X() Float           { return Float{(*morphX)(m)} }
func (m *MorphModel) Y() Float           { return Float{(*morphY)(m)} }
func (m *MorphModel) Z() Float           { return Float{(*morphZ)(m)} }
func (m *MorphModel) ZSpeed() Float      { return Float{(*morphZSpeed)(m)} }
func (m *MorphModel) Interpolate() Bool  { return Bool{(*morphInterpolate)(m)} }
func (m *MorphModel) GridMode() Bool     { return Bool{(*morphGridMode)(m)} }

// X, Y and Z. Setting a grid coordinate switches to grid mode and setting
// the linear coordinate switches to linear mode.

func (v *morphX) Value() float64 { return v.d.Morph.X(v.d.Bank.Width) }
func (v *morphX) Range() floatRange {
	return floatRange{0, float64(v.d.Bank.Width - 1)}
}
func (v *morphX) setValue(x float64) {
	s := v.d.Morph.WithMode(GridMode, v.d.Bank.Width)
	s.Pos = GridPos{X: x, Y: s.Pos.(GridPos).Y}
	(*Model)(v).setMorph(s)
}
func (v *morphX) change(kind string) func() { return (*Model)(v).change("MorphX." + kind) }

func (v *morphY) Value() float64 { return v.d.Morph.Y(v.d.Bank.Width) }
func (v *morphY) Range() floatRange {
	return floatRange{0, float64(v.d.Bank.Height - 1)}
}
func (v *morphY) setValue(y float64) {
	s := v.d.Morph.WithMode(GridMode, v.d.Bank.Width)
	s.Pos = GridPos{X: s.Pos.(GridPos).X, Y: y}
	(*Model)(v).setMorph(s)
}
func (v *morphY) change(kind string) func() { return (*Model)(v).change("MorphY." + kind) }

func (v *morphZ) Value() float64 { return v.d.Morph.Z(v.d.Bank.Width) }
func (v *morphZ) Range() floatRange {
	return floatRange{0, float64(v.d.Bank.Len() - 1)}
}
func (v *morphZ) setValue(z float64) {
	s := v.d.Morph
	s.Pos = LinearPos{Z: z}
	(*Model)(v).setMorph(s)
}
func (v *morphZ) change(kind string) func() { return (*Model)(v).change("MorphZ." + kind) }

func (v *morphZSpeed) Value() float64      { return v.d.Morph.ZSpeed }
func (v *morphZSpeed) Range() floatRange   { return floatRange{0, MaxZSpeed} }
func (v *morphZSpeed) setValue(s float64) {
	state := v.d.Morph
	state.ZSpeed = s
	(*Model)(v).setMorph(state)
}
func (v *morphZSpeed) change(kind string) func() {
	return (*Model)(v).change("MorphZSpeed." + kind)
}

func (v *morphInterpolate) Value() bool   { return v.d.Morph.Interpolate }
func (v *morphInterpolate) Enabled() bool { return true }
func (v *morphInterpolate) setValue(val bool) {
	defer (*Model)(v).change("MorphInterpolate")()
	state := v.d.Morph
	state.Interpolate = val
	(*Model)(v).setMorph(state)
}

func (v *morphGridMode) Value() bool   { return v.d.Morph.Mode() == GridMode }
func (v *morphGridMode) Enabled() bool { return true }
func (v *morphGridMode) setValue(val bool) {
	mode := LinearMode
	if val {
		mode = GridMode
	}
	(*MorphModel)(v).SetMode(mode)
}
