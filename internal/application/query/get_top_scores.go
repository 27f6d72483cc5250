package query

import (
	"context"
	"log/slog"
	"sort"

	"github.com/venturehub/readiness-hub/internal/domain/scoring"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET TOP SCORES QUERY
// Ranked view over current score results. Served from the Redis score board
// when possible, falling back to Postgres when the board is cold or down.
// ══════════════════════════════════════════════════════════════════════════════

const (
	defaultTopScoresLimit = 10
	maxTopScoresLimit     = 100
)

// GetTopScoresQuery asks for the highest-scoring assessments.
type GetTopScoresQuery struct {
	// Limit caps the number of entries (default 10, max 100).
	Limit int
}

// TopScoreEntryDTO is one ranked entry.
type TopScoreEntryDTO struct {
	Rank         int    `json:"rank"`
	AssessmentID string `json:"assessmentId"`
	TotalScore   int    `json:"totalScore"`
}

// BoardEntry is one ranked entry as read from the score board cache.
type BoardEntry struct {
	AssessmentID string
	TotalScore   int
	Rank         int64
}

// BoardReader reads the ranked score board. Implementations are expected
// to be best-effort; any error triggers the Postgres fallback.
type BoardReader interface {
	TopScores(ctx context.Context, limit int) ([]BoardEntry, error)
}

// GetTopScoresHandler handles the query.
type GetTopScoresHandler struct {
	board  BoardReader // nil when Redis is not configured
	scores scoring.Repository
	logger *slog.Logger
}

// NewGetTopScoresHandler creates the handler.
func NewGetTopScoresHandler(board BoardReader, scores scoring.Repository, logger *slog.Logger) *GetTopScoresHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GetTopScoresHandler{board: board, scores: scores, logger: logger}
}

// Handle returns the top-scoring assessments, highest total first.
func (h *GetTopScoresHandler) Handle(ctx context.Context, q GetTopScoresQuery) ([]TopScoreEntryDTO, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultTopScoresLimit
	}
	if limit > maxTopScoresLimit {
		limit = maxTopScoresLimit
	}

	if entries, ok := h.tryBoard(ctx, limit); ok {
		return entries, nil
	}

	return h.fromStore(ctx, limit)
}

// tryBoard serves the query from the cached score board.
func (h *GetTopScoresHandler) tryBoard(ctx context.Context, limit int) ([]TopScoreEntryDTO, bool) {
	if h.board == nil {
		return nil, false
	}

	entries, err := h.board.TopScores(ctx, limit)
	if err != nil || len(entries) == 0 {
		if err != nil {
			h.logger.Warn("score board read failed, falling back to store", "error", err)
		}
		return nil, false
	}

	dtos := make([]TopScoreEntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, TopScoreEntryDTO{
			Rank:         int(e.Rank),
			AssessmentID: e.AssessmentID,
			TotalScore:   e.TotalScore,
		})
	}
	return dtos, true
}

// fromStore rebuilds the ranking from current score results.
func (h *GetTopScoresHandler) fromStore(ctx context.Context, limit int) ([]TopScoreEntryDTO, error) {
	results, err := h.scores.ListCurrentBySelector(ctx, scoring.Selector{})
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].TotalScore != results[j].TotalScore {
			return results[i].TotalScore > results[j].TotalScore
		}
		return results[i].AssessmentID < results[j].AssessmentID
	})

	if len(results) > limit {
		results = results[:limit]
	}

	dtos := make([]TopScoreEntryDTO, 0, len(results))
	for i, r := range results {
		dtos = append(dtos, TopScoreEntryDTO{
			Rank:         i + 1,
			AssessmentID: r.AssessmentID,
			TotalScore:   r.TotalScore,
		})
	}
	return dtos, nil
}
