package store

import (
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qiankun/internal/types"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "entitlements.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUsage_ZeroStateForUnknownClient(t *testing.T) {
	s := openStore(t)
	state, err := s.GetUsage("nobody")
	require.NoError(t, err)
	assert.Equal(t, types.UsageState{}, state)
}

func TestUsage_IncrementAndExtraTrials(t *testing.T) {
	s := openStore(t)

	state, err := s.IncrementUsage("client-1")
	require.NoError(t, err)
	assert.Equal(t, 1, state.Count)

	state, err = s.IncrementUsage("client-1")
	require.NoError(t, err)
	assert.Equal(t, 2, state.Count)

	state, err = s.AddExtraTrial("client-1")
	require.NoError(t, err)
	assert.Equal(t, 1, state.ExtraTrials)
	assert.Equal(t, 2, state.Count, "extra trials must not disturb the counter")
}

func TestGenerateCodes_Format(t *testing.T) {
	s := openStore(t)

	codes, err := s.GenerateCodes(5)
	require.NoError(t, err)
	require.Len(t, codes, 5)

	pattern := regexp.MustCompile(`^TK-[0-9A-Z]{6}$`)
	for _, c := range codes {
		assert.Regexp(t, pattern, c.Code)
		assert.False(t, c.Used)
		assert.NotZero(t, c.GeneratedAt)
	}

	listed, err := s.ListCodes()
	require.NoError(t, err)
	assert.Len(t, listed, 5)
}

func TestRandomCode_AlphabetOnly(t *testing.T) {
	pattern := regexp.MustCompile(`^TK-[0-9A-Z]{6}$`)
	for i := 0; i < 1000; i++ {
		code, err := randomCode()
		require.NoError(t, err)
		require.Regexp(t, pattern, code, "rejection sampling must still emit full-length codes")
	}
}

func TestActivate_SingleUse(t *testing.T) {
	s := openStore(t)

	codes, err := s.GenerateCodes(1)
	require.NoError(t, err)
	code := codes[0].Code

	require.NoError(t, s.Activate("client-1", code))

	state, err := s.GetUsage("client-1")
	require.NoError(t, err)
	assert.True(t, state.Activated)

	// The same code cannot be spent twice, even by the same client.
	require.ErrorIs(t, s.Activate("client-2", code), ErrInvalidCode)

	other, err := s.GetUsage("client-2")
	require.NoError(t, err)
	assert.False(t, other.Activated)
}

func TestActivate_UnknownCode(t *testing.T) {
	s := openStore(t)
	require.ErrorIs(t, s.Activate("client-1", "TK-NOPE99"), ErrInvalidCode)
}

func TestActivate_StopsCounting(t *testing.T) {
	s := openStore(t)

	_, err := s.IncrementUsage("client-1")
	require.NoError(t, err)

	codes, err := s.GenerateCodes(1)
	require.NoError(t, err)
	require.NoError(t, s.Activate("client-1", codes[0].Code))

	state, err := s.IncrementUsage("client-1")
	require.NoError(t, err)
	assert.Equal(t, 1, state.Count, "activated clients are not counted")
	assert.True(t, state.Activated)
}

func TestRatings(t *testing.T) {
	s := openStore(t)

	rating, err := s.GetRating("client-1")
	require.NoError(t, err)
	assert.Zero(t, rating)

	require.NoError(t, s.SaveRating("client-1", 4))
	require.NoError(t, s.SaveRating("client-1", 5))

	rating, err = s.GetRating("client-1")
	require.NoError(t, err)
	assert.Equal(t, 5, rating, "latest rating wins")
}
