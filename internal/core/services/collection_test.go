package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

func TestCollectionService_List(t *testing.T) {
	index := newMockIndexStore()
	index.withHits("b_manual", hit("x", 0))
	index.withHits("a_manual", hit("y", 0))
	svc := NewCollectionService(index)

	collections, err := svc.List(context.Background())

	require.NoError(t, err)
	require.Len(t, collections, 2)
	assert.Equal(t, "a_manual", collections[0].ID)
}

func TestCollectionService_List_Error(t *testing.T) {
	index := newMockIndexStore()
	index.listErr = domain.ErrIndexStoreUnavailable

	_, err := NewCollectionService(index).List(context.Background())

	assert.ErrorIs(t, err, domain.ErrIndexStoreUnavailable)
}

func TestCollectionService_Get(t *testing.T) {
	index := newMockIndexStore()
	index.withHits("a_manual", hit("x", 0), hit("y", 0))
	svc := NewCollectionService(index)

	coll, err := svc.Get(context.Background(), "a_manual")
	require.NoError(t, err)
	assert.Equal(t, 2, coll.Count)

	_, err = svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrCollectionNotFound)

	_, err = svc.Get(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
