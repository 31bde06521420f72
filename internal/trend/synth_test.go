package trend

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qiankun/internal/types"
)

func testIdentity() types.Identity {
	return types.Identity{
		Name:       "测试",
		Gender:     types.GenderMale,
		BirthDate:  "1990-05-15",
		BirthTime:  "08:00",
		BirthPlace: "Beijing",
	}
}

func TestSynthesize_Deterministic(t *testing.T) {
	first, err := Synthesize(testIdentity())
	require.NoError(t, err)
	second, err := Synthesize(testIdentity())
	require.NoError(t, err)
	assert.Equal(t, first, second, "same birth data must reproduce the same series")
}

func TestSynthesize_Invariants(t *testing.T) {
	series, err := Synthesize(testIdentity())
	require.NoError(t, err)
	require.Len(t, series, Lifespan+1)

	for i, p := range series {
		require.Equal(t, i, p.Age)
		require.Equal(t, 1990+i, p.Year)

		body := math.Max(p.Open, p.Close)
		floor := math.Min(p.Open, p.Close)
		require.GreaterOrEqual(t, p.Low, 0.0, "age %d", i)
		require.LessOrEqual(t, p.Low, floor, "age %d", i)
		require.GreaterOrEqual(t, p.High, body, "age %d", i)
		require.LessOrEqual(t, p.High, 100.0, "age %d", i)
		require.GreaterOrEqual(t, p.Close, 5.0, "age %d", i)
		require.LessOrEqual(t, p.Close, 95.0, "age %d", i)

		require.Equal(t, p.Close, p.Score)
		require.Equal(t, math.Abs(p.Open-p.Close) > 15 || i%10 == 0, p.TurningPoint, "age %d", i)
		require.Len(t, []rune(p.GanZhi), 2)
	}
}

func TestSynthesize_Continuity(t *testing.T) {
	series, err := Synthesize(testIdentity())
	require.NoError(t, err)
	for i := 0; i < len(series)-1; i++ {
		require.Equal(t, series[i].Close, series[i+1].Open, "close/open chain broke at age %d", i)
	}
}

func TestSynthesize_EmptyIdentity(t *testing.T) {
	series, err := Synthesize(types.Identity{
		Gender:    types.GenderMale,
		BirthDate: "2000-01-01",
		BirthTime: "00:00",
	})
	require.NoError(t, err)

	assert.Equal(t, 50.0, series[0].Open, "walk starts at the neutral score")
	assert.Equal(t, Lifespan, series[Lifespan].Age)
	for k, p := range series {
		require.Equal(t, 2000+k, p.Year)
	}
}

func TestSynthesize_GanZhiCycle(t *testing.T) {
	series, err := Synthesize(testIdentity())
	require.NoError(t, err)

	// 1990 is 庚午; the 60-year cycle repeats exactly.
	assert.Equal(t, "庚午", series[0].GanZhi)
	assert.Equal(t, series[0].GanZhi, series[60].GanZhi)
	assert.NotEqual(t, series[0].GanZhi, series[30].GanZhi)
}

func TestSynthesize_InvalidBirthDate(t *testing.T) {
	tests := []struct {
		name string
		date string
	}{
		{"empty", ""},
		{"prose", "not a date"},
		{"wrong layout", "15/05/1990"},
		{"out of range month", "1990-13-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := testIdentity()
			in.BirthDate = tt.date
			_, err := Synthesize(in)
			require.ErrorIs(t, err, ErrInvalidBirthDate)
		})
	}
}

func TestSynthesize_DistinctIdentitiesDiverge(t *testing.T) {
	a, err := Synthesize(testIdentity())
	require.NoError(t, err)

	other := testIdentity()
	other.BirthPlace = "Shanghai"
	b, err := Synthesize(other)
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "different seed keys should not collide on a full series")
}
