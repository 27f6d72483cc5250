package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTopScores_ServedFromBoard(t *testing.T) {
	board := &fakeBoard{entries: []BoardEntry{
		{AssessmentID: "a-1", TotalScore: 90, Rank: 1},
		{AssessmentID: "a-2", TotalScore: 70, Rank: 2},
	}}
	scores := newMemScores()
	h := NewGetTopScoresHandler(board, scores, nil)

	got, err := h.Handle(context.Background(), GetTopScoresQuery{Limit: 5})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, TopScoreEntryDTO{Rank: 1, AssessmentID: "a-1", TotalScore: 90}, got[0])
	assert.Equal(t, TopScoreEntryDTO{Rank: 2, AssessmentID: "a-2", TotalScore: 70}, got[1])
	assert.Equal(t, 1, board.calls)
}

func TestGetTopScores_FallsBackWhenBoardFails(t *testing.T) {
	board := &fakeBoard{err: errBoardDown}
	scores := newMemScores()
	scores.add("a-1", 40)
	scores.add("a-2", 80)
	scores.add("a-3", 60)

	h := NewGetTopScoresHandler(board, scores, nil)

	got, err := h.Handle(context.Background(), GetTopScoresQuery{})
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, "a-2", got[0].AssessmentID)
	assert.Equal(t, 1, got[0].Rank)
	assert.Equal(t, "a-3", got[1].AssessmentID)
	assert.Equal(t, "a-1", got[2].AssessmentID)
	assert.Equal(t, 3, got[2].Rank)
}

func TestGetTopScores_NoBoardConfigured(t *testing.T) {
	scores := newMemScores()
	scores.add("a-1", 55)

	h := NewGetTopScoresHandler(nil, scores, nil)

	got, err := h.Handle(context.Background(), GetTopScoresQuery{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a-1", got[0].AssessmentID)
}

func TestGetTopScores_TiesBreakByAssessmentID(t *testing.T) {
	scores := newMemScores()
	scores.add("b", 50)
	scores.add("a", 50)

	h := NewGetTopScoresHandler(nil, scores, nil)

	got, err := h.Handle(context.Background(), GetTopScoresQuery{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].AssessmentID)
	assert.Equal(t, "b", got[1].AssessmentID)
}

func TestGetTopScores_Limits(t *testing.T) {
	scores := newMemScores()
	for i := 0; i < 15; i++ {
		scores.add(string(rune('a'+i)), 100-i)
	}

	h := NewGetTopScoresHandler(nil, scores, nil)

	// Zero limit applies the default.
	got, err := h.Handle(context.Background(), GetTopScoresQuery{})
	require.NoError(t, err)
	assert.Len(t, got, defaultTopScoresLimit)

	// Absurd limits are capped.
	got, err = h.Handle(context.Background(), GetTopScoresQuery{Limit: 10_000})
	require.NoError(t, err)
	assert.Len(t, got, 15)

	got, err = h.Handle(context.Background(), GetTopScoresQuery{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}
