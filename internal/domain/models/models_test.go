package models

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPredictionDecisionID(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	a := PredictionResult{Symbol: "BTC", TimeHorizon: TimeframeShort, GeneratedAt: at}
	b := a
	b.OverallScore = 0.9

	assert.Equal(t, a.DecisionID(), b.DecisionID(), "id depends on identity, not scores")

	c := a
	c.GeneratedAt = at.Add(time.Nanosecond)
	assert.NotEqual(t, a.DecisionID(), c.DecisionID())

	d := a
	d.TimeHorizon = TimeframeLong
	assert.NotEqual(t, a.DecisionID(), d.DecisionID())
}

func TestActionDispatchDecisionID(t *testing.T) {
	a := ActionDispatch{SignalID: "s1", Symbol: "ETH"}
	assert.Equal(t, a.DecisionID(), ActionDispatch{SignalID: "s1", Alerted: true}.DecisionID())
	assert.NotEqual(t, a.DecisionID(), "s1")
	assert.Equal(t, "s1", WebhookSignal{ID: "s1"}.DecisionID())
}

func TestRecommendationActionable(t *testing.T) {
	for _, r := range []Recommendation{RecommendationStrongBuy, RecommendationBuy, RecommendationSell, RecommendationStrongSell} {
		assert.True(t, r.Actionable(), r)
	}
	assert.False(t, RecommendationHold.Actionable())
	assert.False(t, Recommendation("").Actionable())
}

func TestAlertPriorityRank(t *testing.T) {
	assert.Less(t, PriorityLow.Rank(), PriorityNormal.Rank())
	assert.Less(t, PriorityNormal.Rank(), PriorityHigh.Rank())
	assert.Equal(t, 0, AlertPriority("urgent").Rank())
}

func TestErrorTaxonomy(t *testing.T) {
	var err error = fmt.Errorf("intake: %w", &ValidationError{Field: "symbol", Reason: "symbol is required"})
	assert.True(t, errors.Is(err, ErrValidation))
	assert.False(t, errors.Is(err, ErrInput))
	assert.EqualError(t, err, "intake: symbol: symbol is required")

	cause := errors.New("timeout")
	err = &CollaboratorError{Collaborator: "notifier", Err: cause}
	assert.True(t, errors.Is(err, ErrCollaborator))
	assert.True(t, errors.Is(err, cause))
}
