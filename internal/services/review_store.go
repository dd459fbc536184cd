package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/eduforge/lms-backend/internal/modules/generation"
)

// ErrDraftNotFound is returned for unknown or expired drafts.
var ErrDraftNotFound = errors.New("review draft not found or expired")

// ReviewDraft is a generated question set waiting for an instructor to
// edit, save or discard it. The uploaded file stays in storage until then.
type ReviewDraft struct {
	ID               string                  `json:"id"`
	SubjectID        uuid.UUID               `json:"subject_id"`
	ProfessorID      uuid.UUID               `json:"professor_id"`
	Title            string                  `json:"title"`
	StorageKey       string                  `json:"file_path"`
	FileName         string                  `json:"file_name"`
	FileSize         int64                   `json:"file_size"`
	MimeType         string                  `json:"mime_type"`
	ExtractedContent string                  `json:"extracted_content"`
	AssessmentTitle  string                  `json:"assessment_title"`
	AssessmentType   string                  `json:"assessment_type"`
	Questions        *generation.QuestionSet `json:"questions"`
	Meta             GenerationMeta          `json:"ai_metadata"`
	CreatedAt        time.Time               `json:"created_at"`
	ExpiresAt        time.Time               `json:"expires_at"`
}

// GenerationMeta records how a question set was produced.
type GenerationMeta struct {
	ProviderUsed    string          `json:"provider_used"`
	Mode            generation.Mode `json:"mode"`
	ChunksProcessed int             `json:"chunks_processed"`
	RetryUsed       bool            `json:"retry_used"`
}

type ReviewStore interface {
	Put(ctx context.Context, draft *ReviewDraft, ttl time.Duration) error
	Get(ctx context.Context, id string) (*ReviewDraft, error)
	Delete(ctx context.Context, id string) error
}

// MemoryReviewStore keeps drafts in process. Expired drafts are dropped on
// read.
type MemoryReviewStore struct {
	mu     sync.Mutex
	drafts map[string]memoryDraft
	now    func() time.Time
}

type memoryDraft struct {
	raw       []byte
	expiresAt time.Time
}

func NewMemoryReviewStore() *MemoryReviewStore {
	return &MemoryReviewStore{drafts: map[string]memoryDraft{}, now: time.Now}
}

func (s *MemoryReviewStore) Put(ctx context.Context, draft *ReviewDraft, ttl time.Duration) error {
	if draft == nil || draft.ID == "" {
		return errors.New("draft id is required")
	}
	raw, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[draft.ID] = memoryDraft{raw: raw, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryReviewStore) Get(ctx context.Context, id string) (*ReviewDraft, error) {
	s.mu.Lock()
	d, ok := s.drafts[id]
	if ok && !s.now().Before(d.expiresAt) {
		delete(s.drafts, id)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return nil, ErrDraftNotFound
	}
	var out ReviewDraft
	if err := json.Unmarshal(d.raw, &out); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return &out, nil
}

func (s *MemoryReviewStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.drafts, id)
	s.mu.Unlock()
	return nil
}

// RedisReviewStore keeps drafts as JSON values with a server-side expiry.
type RedisReviewStore struct {
	rdb    *goredis.Client
	prefix string
}

func NewRedisReviewStore(rdb *goredis.Client, prefix string) *RedisReviewStore {
	if prefix == "" {
		prefix = "lesson_review:"
	}
	return &RedisReviewStore{rdb: rdb, prefix: prefix}
}

func (s *RedisReviewStore) key(id string) string { return s.prefix + id }

func (s *RedisReviewStore) Put(ctx context.Context, draft *ReviewDraft, ttl time.Duration) error {
	if draft == nil || draft.ID == "" {
		return errors.New("draft id is required")
	}
	raw, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key(draft.ID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("store draft: %w", err)
	}
	return nil
}

func (s *RedisReviewStore) Get(ctx context.Context, id string) (*ReviewDraft, error) {
	raw, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrDraftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}
	var out ReviewDraft
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return &out, nil
}

func (s *RedisReviewStore) Delete(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}
