package trial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectionAxis(t *testing.T) {
	t.Parallel()

	want := map[Direction]Axis{
		North:     AxisVertical,
		South:     AxisVertical,
		East:      AxisHorizontal,
		West:      AxisHorizontal,
		NorthEast: AxisDiagonal,
		NorthWest: AxisDiagonal,
		SouthEast: AxisDiagonal,
		SouthWest: AxisDiagonal,
	}
	require.Len(t, AllDirections, len(want))
	for _, d := range AllDirections {
		assert.Equal(t, want[d], d.Axis(), "axis of %s", d)
		assert.True(t, d.Valid())
	}
	assert.False(t, Direction("X").Valid())
}

func TestStraightness(t *testing.T) {
	t.Parallel()

	assert.ElementsMatch(t, []Direction{North, South, East, West}, Straight.Directions())
	assert.ElementsMatch(t, []Direction{NorthEast, NorthWest, SouthEast, SouthWest}, Diagonal.Directions())
	assert.ElementsMatch(t, AllDirections, Any.Directions())
	assert.Nil(t, Straightness("curvy").Directions())

	dirs := Straight.Directions()
	dirs[0] = SouthWest
	assert.Equal(t, North, Straight.Directions()[0], "Directions returns a copy")

	assert.True(t, Any.Allows(SouthWest))
	assert.False(t, Straight.Allows(SouthWest))
}

func TestStraightnessCodes(t *testing.T) {
	t.Parallel()

	for code, want := range []Straightness{Straight, Diagonal, Any} {
		got, err := StraightnessFromCode(code)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := StraightnessFromCode(3)
	assert.Error(t, err)
	_, err = StraightnessFromCode(-1)
	assert.Error(t, err)

	st, err := ParseStraightness("Diagonal")
	require.NoError(t, err)
	assert.Equal(t, Diagonal, st)
	_, err = ParseStraightness("zigzag")
	assert.Error(t, err)
}

func TestRandomPicker_Seeded(t *testing.T) {
	t.Parallel()

	a := NewRandomPicker(7)
	b := NewRandomPicker(7)
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Pick(AllDirections), b.Pick(AllDirections))
	}

	var global RandomPicker
	assert.True(t, Any.Allows(global.Pick(AllDirections)))
}
