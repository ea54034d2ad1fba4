// Package directory is the player-facing persistence collaborator: rating
// profiles, match records and the leaderboard query. The orchestrator only
// ever reads/writes through the Store interface.
package directory

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
)

// RatingProfile is the per-player skill record.
type RatingProfile struct {
	PlayerID int64  `json:"playerId"`
	Name     string `json:"name"`
	Rating   int    `json:"rating"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
	Games    int    `json:"games"`
	Address  string `json:"address,omitempty"` // external ledger address
}

// MatchSide is one participant's slice of a finished match.
type MatchSide struct {
	PlayerID    int64  `json:"playerId"`
	Name        string `json:"name"`
	Score       int    `json:"score"`
	RatingOld   int    `json:"ratingOld"`
	RatingNew   int    `json:"ratingNew"`
	RatingDelta int    `json:"ratingDelta"`
}

// MatchRecord links both participants of a finished ranked match.
type MatchRecord struct {
	MatchID  string       `json:"matchId"`
	PlayedAt time.Time    `json:"playedAt"`
	Reason   string       `json:"reason,omitempty"`
	Sides    [2]MatchSide `json:"sides"`
}

// FileStore keeps one JSON file per profile and per match record,
// written atomically (tmp + rename).
type FileStore struct {
	root string
}

func NewFileStore(root string) (*FileStore, error) {
	for _, d := range []string{profilesDir(root), matchesDir(root)} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, eris.Wrapf(err, "directory: create %s", d)
		}
	}
	return &FileStore{root: root}, nil
}

func profilesDir(root string) string { return filepath.Join(root, "profiles") }
func matchesDir(root string) string  { return filepath.Join(root, "matches") }

func (s *FileStore) profilePath(playerID int64) string {
	return filepath.Join(profilesDir(s.root), strconv.FormatInt(playerID, 10)+".json")
}

// GetRatingProfile loads a profile, seeding defaults on first appearance.
func (s *FileStore) GetRatingProfile(playerID int64) (RatingProfile, error) {
	b, err := os.ReadFile(s.profilePath(playerID))
	if eris.Is(err, os.ErrNotExist) {
		return RatingProfile{PlayerID: playerID, Rating: defaultRating}, nil
	}
	if err != nil {
		return RatingProfile{}, eris.Wrapf(err, "directory: read profile %d", playerID)
	}
	var p RatingProfile
	if err := json.Unmarshal(b, &p); err != nil {
		return RatingProfile{}, eris.Wrapf(err, "directory: parse profile %d", playerID)
	}
	if p.Rating == 0 {
		p.Rating = defaultRating
	}
	if p.PlayerID == 0 {
		p.PlayerID = playerID
	}
	return p, nil
}

func (s *FileStore) SaveRatingProfile(p RatingProfile) error {
	return writeAtomic(s.profilePath(p.PlayerID), p)
}

func (s *FileStore) RecordMatch(rec MatchRecord) error {
	name := safeFileName(rec.MatchID) + ".json"
	return writeAtomic(filepath.Join(matchesDir(s.root), name), rec)
}

// Leaderboard returns the top profiles by rating, ties broken by name.
func (s *FileStore) Leaderboard(limit int) ([]RatingProfile, error) {
	var out []RatingProfile
	dir := profilesDir(s.root)
	err := fs.WalkDir(os.DirFS(dir), ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(p, ".json") {
			return nil
		}
		b, err := os.ReadFile(filepath.Join(dir, p))
		if err != nil {
			return nil
		}
		var prof RatingProfile
		if json.Unmarshal(b, &prof) != nil {
			return nil
		}
		if prof.Rating == 0 {
			prof.Rating = defaultRating
		}
		out = append(out, prof)
		return nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "directory: walk profiles")
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

const defaultRating = 1200

func writeAtomic(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrap(err, "directory: marshal")
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return eris.Wrapf(err, "directory: write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return eris.Wrapf(err, "directory: rename %s", path)
	}
	return nil
}

func safeFileName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "match"
	}
	return b.String()
}
