package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

func brakeRetrieval() *domain.Retrieval {
	selected := []domain.Candidate{
		{CollectionID: "car_1a2b3c4d", Text: "Check the brake fluid level monthly.", Distance: 0.21, KeywordMatch: true},
	}
	return &domain.Retrieval{
		Question:        "brake fluid",
		Keywords:        []string{"brake", "fluid"},
		Candidates:      selected,
		Selected:        selected,
		KeywordFiltered: true,
		Context:         domain.JoinContext(selected),
	}
}

func TestAskCmd_Use(t *testing.T) {
	assert.Equal(t, "ask [question]", askCmd.Use)
}

func TestAskCmd_RequiresQuestion(t *testing.T) {
	_, err := execute(t, "", "ask")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s)")
}

func TestAskCmd_Flags(t *testing.T) {
	k := askCmd.Flags().Lookup("top-k")
	require.NotNil(t, k)
	assert.Equal(t, "k", k.Shorthand)

	c := askCmd.Flags().Lookup("collection")
	require.NotNil(t, c)
	assert.Equal(t, "c", c.Shorthand)
	assert.Equal(t, "", c.DefValue)
}

func TestAskCmd_ErrorsWithoutService(t *testing.T) {
	old := answerService
	answerService = nil
	defer func() { answerService = old }()

	_, err := execute(t, "", "ask", "how", "often")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestAskCmd_PrintsAnswer(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.answer.answer = &domain.Answer{
		Question:  "how often should I check the brake fluid",
		Text:      "Check it monthly.",
		Outcome:   domain.OutcomeAnswered,
		Retrieval: brakeRetrieval(),
	}

	output, err := execute(t, "", "ask", "how", "often", "should", "I", "check", "the", "brake", "fluid")

	require.NoError(t, err)
	assert.Contains(t, output, "Check it monthly.")
	assert.NotContains(t, output, "Sources:")
	assert.Equal(t, "how often should I check the brake fluid", ts.answer.question)
	assert.True(t, ts.answer.scope.IsAll())
	assert.Equal(t, 3, ts.answer.k)
}

func TestAskCmd_ScopeAndK(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.answer.answer = &domain.Answer{Text: domain.NotFoundAnswer, Outcome: domain.OutcomeNotFound}

	output, err := execute(t, "", "ask", "-c", "car_1a2b3c4d", "-k", "5", "warp drive")

	require.NoError(t, err)
	assert.Contains(t, output, domain.NotFoundAnswer)
	assert.Equal(t, domain.Scope("car_1a2b3c4d"), ts.answer.scope)
	assert.Equal(t, 5, ts.answer.k)
}

func TestAskCmd_ShowsSources(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.answer.answer = &domain.Answer{Text: "Monthly.", Outcome: domain.OutcomeAnswered, Retrieval: brakeRetrieval()}

	output, err := execute(t, "", "ask", "--sources", "brake fluid")

	require.NoError(t, err)
	assert.Contains(t, output, "Sources:")
	assert.Contains(t, output, "car_1a2b3c4d")
	assert.Contains(t, output, "Check the brake fluid level monthly.")
}

func TestAskCmd_JSONOutput(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.answer.answer = &domain.Answer{
		Question:  "brake fluid",
		Text:      domain.FallbackAnswer,
		Outcome:   domain.OutcomeFallback,
		Retrieval: brakeRetrieval(),
	}

	output, err := execute(t, "", "ask", "--json", "brake fluid")

	require.NoError(t, err)
	assert.Contains(t, output, `"outcome": "fallback"`)
	assert.Contains(t, output, `"keyword_match": true`)
}

func TestAskCmd_PropagatesInvalidQuery(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.answer.err = domain.ErrInvalidQuery

	_, err := execute(t, "", "ask", "-k", "0", "brake")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidQuery)
	assert.Equal(t, 0, ts.answer.k)
}
