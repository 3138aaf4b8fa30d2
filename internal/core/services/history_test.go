package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

func TestHistoryService_Recent(t *testing.T) {
	store := &mockHistoryStore{
		queries: []domain.QueryRecord{{Question: "q1"}, {Question: "q2"}},
		ingests: []domain.IngestRecord{{Name: "m.pdf"}},
	}
	svc := NewHistoryService(store)

	queries, err := svc.Recent(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, queries, 1)

	ingests, err := svc.RecentIngests(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, ingests, 1)
}

func TestHistoryService_NilStore(t *testing.T) {
	svc := NewHistoryService(nil)

	queries, err := svc.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, queries)

	ingests, err := svc.RecentIngests(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, ingests)
}
