package directory

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestGetRatingProfileSeedsDefaults(t *testing.T) {
	s := newStore(t)
	p, err := s.GetRatingProfile(42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), p.PlayerID)
	assert.Equal(t, 1200, p.Rating)
	assert.Zero(t, p.Games)
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	s := newStore(t)
	in := RatingProfile{
		PlayerID: 7,
		Name:     "ada",
		Rating:   1337,
		Wins:     3,
		Losses:   1,
		Games:    4,
		Address:  "0xabc",
	}
	require.NoError(t, s.SaveRatingProfile(in))

	out, err := s.GetRatingProfile(7)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSaveIsAtomicNoTmpLeftBehind(t *testing.T) {
	root := t.TempDir()
	s, err := NewFileStore(root)
	require.NoError(t, err)
	require.NoError(t, s.SaveRatingProfile(RatingProfile{PlayerID: 1, Name: "a", Rating: 1200}))

	entries, err := os.ReadDir(filepath.Join(root, "profiles"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "1.json", entries[0].Name())
}

func TestRecordMatchWritesFile(t *testing.T) {
	root := t.TempDir()
	s, err := NewFileStore(root)
	require.NoError(t, err)

	rec := MatchRecord{
		MatchID:  "abc-123",
		PlayedAt: time.Now(),
		Reason:   "forfeit",
		Sides: [2]MatchSide{
			{PlayerID: 1, Name: "ada", Score: 10, RatingOld: 1200, RatingNew: 1216, RatingDelta: 16},
			{PlayerID: 2, Name: "bob", Score: 3, RatingOld: 1200, RatingNew: 1184, RatingDelta: -16},
		},
	}
	require.NoError(t, s.RecordMatch(rec))

	entries, err := os.ReadDir(filepath.Join(root, "matches"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "abc-123.json", entries[0].Name())
}

func TestLeaderboardSortsByRatingThenName(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.SaveRatingProfile(RatingProfile{PlayerID: 1, Name: "zed", Rating: 1500}))
	require.NoError(t, s.SaveRatingProfile(RatingProfile{PlayerID: 2, Name: "ada", Rating: 1500}))
	require.NoError(t, s.SaveRatingProfile(RatingProfile{PlayerID: 3, Name: "mid", Rating: 1300}))

	got, err := s.Leaderboard(0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "ada", got[0].Name)
	assert.Equal(t, "zed", got[1].Name)
	assert.Equal(t, "mid", got[2].Name)
}

func TestLeaderboardHonorsLimit(t *testing.T) {
	s := newStore(t)
	for i := int64(1); i <= 5; i++ {
		require.NoError(t, s.SaveRatingProfile(RatingProfile{PlayerID: i, Name: "p", Rating: 1200 + int(i)*10}))
	}
	got, err := s.Leaderboard(2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1250, got[0].Rating)
}

func TestSafeFileName(t *testing.T) {
	assert.Equal(t, "a-b_c1", safeFileName("a-b_c1"))
	assert.Equal(t, "x_y", safeFileName("x/y"))
	assert.Equal(t, "match", safeFileName(""))
}
