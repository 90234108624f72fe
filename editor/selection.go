package editor

type (
	// Selection is a range of waves in the bank. Anchor is where the
	// selection was started and Focus is the wave that is currently edited;
	// the selected range is [min(Anchor,Focus), max(Anchor,Focus)].
	Selection struct {
		Anchor, Focus int
	}

	// SelectionModel groups the ways to query and change the selection.
	SelectionModel Model

	selectAll   SelectionModel
	selectedInt SelectionModel
)

// Range returns the selected range as an ordered pair.
func (s Selection) Range() (lo, hi int) {
	return min(s.Anchor, s.Focus), max(s.Anchor, s.Focus)
}

// Single reports if exactly one wave is selected.
func (s Selection) Single() bool { return s.Anchor == s.Focus }

// Contains reports if wave i is inside the selected range.
func (s Selection) Contains(i int) bool {
	lo, hi := s.Range()
	return i >= lo && i <= hi
}

func (s Selection) clamp(n int) Selection {
	return Selection{Anchor: clampInt(s.Anchor, 0, n-1), Focus: clampInt(s.Focus, 0, n-1)}
}

// Model methods

func (m *Model) Selection() *SelectionModel { return (*SelectionModel)(m) }

// SelectionModel methods

// Value returns the current selection.
func (m *SelectionModel) Value() Selection { return m.d.Selection }

// Focus returns the index of the focused (edited) wave.
func (m *SelectionModel) Focus() int { return m.d.Selection.Focus }

// Range returns the selected range as an ordered [lo, hi] pair.
func (m *SelectionModel) Range() (lo, hi int) { return m.d.Selection.Range() }

// Select selects a single wave. The index is clamped into the bank. The
// morph position follows the selection, so the selected wave is also the one
// heard.
func (m *SelectionModel) Select(i int) {
	defer (*Model)(m).change("Selection.Select")()
	i = clampInt(i, 0, m.d.Bank.Len()-1)
	m.d.Selection = Selection{Anchor: i, Focus: i}
	(*Model)(m).setMorphPosition(i)
}

// Extend moves the focus to wave i while keeping the anchor, extending the
// selection to a range.
func (m *SelectionModel) Extend(i int) {
	m.d.Selection.Focus = clampInt(i, 0, m.d.Bank.Len()-1)
}

// Move moves the focus by delta waves and collapses the selection to the
// single wave at the clamped index. This is what the directional keys do;
// it never extends a range.
func (m *SelectionModel) Move(delta int) {
	m.Select(m.d.Selection.Focus + delta)
}

// Next returns an Action to move the focus to the next wave; it is disabled
// at the last wave.
func (m *SelectionModel) Next() Action {
	return MakeEnabledAction(DoFunc(func() { m.Move(1) }), func() bool {
		return m.d.Selection.Focus < m.d.Bank.Len()-1
	})
}

// Prev returns an Action to move the focus to the previous wave; it is
// disabled at the first wave.
func (m *SelectionModel) Prev() Action {
	return MakeEnabledAction(DoFunc(func() { m.Move(-1) }), func() bool {
		return m.d.Selection.Focus > 0
	})
}

// All returns an Action to select all waves of the bank.
func (m *SelectionModel) All() Action { return MakeAction((*selectAll)(m)) }

func (m *selectAll) Do() {
	m.d.Selection = Selection{Anchor: 0, Focus: m.d.Bank.Len() - 1}
}

// Int returns the focused wave as an Int, e.g. for a numeric up-down.
func (m *SelectionModel) Int() Int { return Int{(*selectedInt)(m)} }

func (v *selectedInt) Value() int         { return v.d.Selection.Focus }
func (v *selectedInt) Range() intRange    { return intRange{0, v.d.Bank.Len() - 1} }
func (v *selectedInt) setValue(value int) { (*SelectionModel)(v).Select(value) }
func (v *selectedInt) change(kind string) func() {
	return (*Model)(v).change("SelectedInt." + kind)
}

func clampInt(v, lo, hi int) int {
	return max(min(v, hi), lo)
}
