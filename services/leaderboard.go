package services

import (
	"sort"
	"sync"
	"time"

	"trayectoria-service/models"

	"gorm.io/gorm"
)

// Period selects the vote-counting window for a leaderboard read.
type Period string

const (
	PeriodAll   Period = "all"
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
)

// ParsePeriod maps the query value (Spanish aliases included) onto a
// window; anything unrecognized falls back to the all-time window.
func ParsePeriod(raw string) Period {
	switch raw {
	case "today", "hoy":
		return PeriodToday
	case "week", "semana", "7d":
		return PeriodWeek
	default:
		return PeriodAll
	}
}

// windowStart returns the lower bound for cast_at, or zero time for all.
func (p Period) windowStart(now time.Time) time.Time {
	switch p {
	case PeriodToday:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case PeriodWeek:
		return now.AddDate(0, 0, -7)
	default:
		return time.Time{}
	}
}

// LeaderboardPage is the API projection of one leaderboard read.
type LeaderboardPage struct {
	ChallengeID        string                  `json:"challenge_id"`
	Period             string                  `json:"period"`
	Leaderboard        []models.LeaderboardRow `json:"leaderboard"`
	TotalParticipantes int                     `json:"total_participantes"`
	MiPosicion         *models.LeaderboardRow  `json:"mi_posicion,omitempty"`
	Pagination         struct {
		Limit   int  `json:"limit"`
		Offset  int  `json:"offset"`
		HasMore bool `json:"has_more"`
	} `json:"pagination"`
}

// LeaderboardService ranks approved participations by votes in a window.
// Ranking is recomputed in memory on every read; the only state the engine
// keeps is the previous computation's ranks, used to classify movement.
type LeaderboardService struct {
	DB *gorm.DB

	mu        sync.Mutex
	prevRanks map[string]map[string]int // challengeID|period → participationID → rank

	// now is swappable in tests.
	now func() time.Time
}

func NewLeaderboardService(db *gorm.DB) *LeaderboardService {
	return &LeaderboardService{
		DB:        db,
		prevRanks: make(map[string]map[string]int),
		now:       time.Now,
	}
}

// MaxPageSize caps a single leaderboard read; full-list cost scales with
// contest size, so the cap is the resource control rather than a timeout.
const MaxPageSize = 100

// Compute ranks the challenge's approved participations for the window and
// returns one page. viewerEntityID, when non-empty, fills mi_posicion with
// that entity's row even if it falls outside the page.
func (s *LeaderboardService) Compute(challengeID string, period Period, limit, offset int, viewerEntityID string) (*LeaderboardPage, error) {
	if limit < 1 || limit > MaxPageSize {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	now := s.now()

	var challenge models.Challenge
	if err := s.DB.Where("id = ?", challengeID).First(&challenge).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrChallengeNotFound
		}
		return nil, err
	}
	// A contest that isn't live has no meaningful ranking.
	if challenge.Status != "active" {
		return nil, ErrChallengeNotFound
	}
	if now.Before(challenge.StartTime) {
		return nil, ErrChallengeNotFound
	}
	if !challenge.EndTime.IsZero() && now.After(challenge.EndTime) {
		return nil, ErrChallengeNotFound
	}

	var participations []models.ChallengeParticipation
	if err := s.DB.Where("challenge_id = ? AND status = ?", challengeID, models.ParticipationApproved).
		Find(&participations).Error; err != nil {
		return nil, err
	}

	rows := make([]models.LeaderboardRow, 0, len(participations))
	if len(participations) > 0 {
		ids := make([]string, len(participations))
		for i, p := range participations {
			ids[i] = p.ID
		}

		voteQuery := s.DB.Model(&models.Vote{}).Where("participation_id IN ?", ids)
		if start := period.windowStart(now); !start.IsZero() {
			voteQuery = voteQuery.Where("cast_at >= ?", start)
		}
		type tally struct {
			ParticipationID string
			Votes           int64
		}
		var tallies []tally
		if err := voteQuery.
			Select("participation_id, COUNT(*) AS votes").
			Group("participation_id").
			Scan(&tallies).Error; err != nil {
			return nil, err
		}
		votesByID := make(map[string]int64, len(tallies))
		for _, t := range tallies {
			votesByID[t.ParticipationID] = t.Votes
		}

		// In-memory sort + dense rank: votes desc, earlier submission wins
		// ties. Fully deterministic, independent of the storage engine.
		sort.SliceStable(participations, func(i, j int) bool {
			vi, vj := votesByID[participations[i].ID], votesByID[participations[j].ID]
			if vi != vj {
				return vi > vj
			}
			return participations[i].SubmittedAt.Before(participations[j].SubmittedAt)
		})

		rank := 0
		var prevVotes int64 = -1
		for i, p := range participations {
			votes := votesByID[p.ID]
			if i == 0 || votes != prevVotes {
				rank = i + 1
				prevVotes = votes
			}
			rows = append(rows, models.LeaderboardRow{
				ParticipationID: p.ID,
				EntityID:        p.EntityID,
				Votes:           votes,
				Rank:            rank,
			})
		}
	}

	s.classifyMovement(challengeID, period, rows)

	page := &LeaderboardPage{
		ChallengeID:        challengeID,
		Period:             string(period),
		TotalParticipantes: len(rows),
	}
	page.Pagination.Limit = limit
	page.Pagination.Offset = offset

	if viewerEntityID != "" {
		for i := range rows {
			if rows[i].EntityID == viewerEntityID {
				row := rows[i]
				page.MiPosicion = &row
				break
			}
		}
	}

	end := offset + limit
	if offset >= len(rows) {
		page.Leaderboard = []models.LeaderboardRow{}
	} else {
		if end > len(rows) {
			end = len(rows)
		}
		page.Leaderboard = rows[offset:end]
	}
	page.Pagination.HasMore = end < len(rows)

	return page, nil
}

// classifyMovement compares against the immediately preceding computation
// for the same (challenge, window) and records the new ranks. The previous
// ranks live in engine instance state, not in the store: a fresh process
// starts everyone at "new".
func (s *LeaderboardService) classifyMovement(challengeID string, period Period, rows []models.LeaderboardRow) {
	key := challengeID + "|" + string(period)

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.prevRanks[key]
	next := make(map[string]int, len(rows))
	for i := range rows {
		next[rows[i].ParticipationID] = rows[i].Rank
		old, ok := prev[rows[i].ParticipationID]
		switch {
		case !ok:
			rows[i].RankDelta = models.RankNew
		case rows[i].Rank < old:
			rows[i].RankDelta = models.RankUp
		case rows[i].Rank > old:
			rows[i].RankDelta = models.RankDown
		default:
			rows[i].RankDelta = models.RankSame
		}
	}
	s.prevRanks[key] = next
}
