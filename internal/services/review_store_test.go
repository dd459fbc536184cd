package services

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func sampleDraft() *ReviewDraft {
	return &ReviewDraft{
		ID:               uuid.NewString(),
		SubjectID:        uuid.New(),
		ProfessorID:      uuid.New(),
		Title:            "Cells",
		StorageKey:       "lessons/cells.txt",
		FileName:         "cells.txt",
		FileSize:         42,
		MimeType:         "text/plain",
		ExtractedContent: "cells are small",
		AssessmentTitle:  "Assessment for Cells",
		Questions:        questionSet(1, 1, 1),
		Meta:             GenerationMeta{ProviderUsed: "openai", Mode: "single", ChunksProcessed: 1},
	}
}

func TestMemoryReviewStoreRoundTrip(t *testing.T) {
	s := NewMemoryReviewStore()
	ctx := context.Background()
	d := sampleDraft()

	require.NoError(t, s.Put(ctx, d, time.Hour))
	got, err := s.Get(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, d.StorageKey, got.StorageKey)
	require.Equal(t, 3, got.Questions.Total())
	require.Equal(t, "openai", got.Meta.ProviderUsed)

	// callers get a copy
	got.Title = "changed"
	again, err := s.Get(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, "Cells", again.Title)

	require.NoError(t, s.Delete(ctx, d.ID))
	_, err = s.Get(ctx, d.ID)
	require.ErrorIs(t, err, ErrDraftNotFound)
}

func TestMemoryReviewStoreExpires(t *testing.T) {
	s := NewMemoryReviewStore()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()
	d := sampleDraft()

	require.NoError(t, s.Put(ctx, d, time.Minute))
	now = now.Add(59 * time.Second)
	_, err := s.Get(ctx, d.ID)
	require.NoError(t, err)

	now = now.Add(time.Second)
	_, err = s.Get(ctx, d.ID)
	require.ErrorIs(t, err, ErrDraftNotFound)
}

func TestMemoryReviewStoreRejectsMissingID(t *testing.T) {
	s := NewMemoryReviewStore()
	require.Error(t, s.Put(context.Background(), &ReviewDraft{}, time.Minute))
	require.Error(t, s.Put(context.Background(), nil, time.Minute))
}

func TestRedisReviewStore(t *testing.T) {
	addr := os.Getenv("LMS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("LMS_TEST_REDIS_ADDR not set")
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	ctx := context.Background()
	s := NewRedisReviewStore(rdb, "lesson_review_test:")
	d := sampleDraft()

	require.NoError(t, s.Put(ctx, d, time.Minute))
	ttl, err := rdb.TTL(ctx, "lesson_review_test:"+d.ID).Result()
	require.NoError(t, err)
	require.Greater(t, ttl, time.Duration(0))

	got, err := s.Get(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, d.ExtractedContent, got.ExtractedContent)

	require.NoError(t, s.Delete(ctx, d.ID))
	_, err = s.Get(ctx, d.ID)
	require.ErrorIs(t, err, ErrDraftNotFound)
}
