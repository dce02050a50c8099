package trust

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	id "tracelink/pkg/domain"
)

const summaryTTL = 5 * time.Minute

// CachedRatingStore is a read-through cache over a RatingStore. Summaries
// are the hot read path; writes invalidate the subject's cached summary so
// a fresh rating is visible on the next read.
//
// Cache failures are logged and ignored. The backing store is always the
// source of truth.
type CachedRatingStore struct {
	inner  RatingStore
	redis  *redis.Client
	logger *slog.Logger
}

func NewCachedRatingStore(inner RatingStore, client *redis.Client, logger *slog.Logger) *CachedRatingStore {
	return &CachedRatingStore{inner: inner, redis: client, logger: logger}
}

func summaryKey(subject id.ParticipantID) string {
	return fmt.Sprintf("tracelink:rating:%s", subject)
}

func (s *CachedRatingStore) Add(ctx context.Context, r Rating) error {
	if err := s.inner.Add(ctx, r); err != nil {
		return err
	}
	if err := s.redis.Del(ctx, summaryKey(r.Subject)).Err(); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate rating cache",
			"subject", r.Subject,
			"error", err,
		)
	}
	return nil
}

func (s *CachedRatingStore) Summary(ctx context.Context, subject id.ParticipantID) (RatingSummary, error) {
	key := summaryKey(subject)
	raw, err := s.redis.Get(ctx, key).Bytes()
	if err == nil {
		var summary RatingSummary
		if err := json.Unmarshal(raw, &summary); err == nil {
			return summary, nil
		}
		// Corrupt entry, fall through to the store.
	} else if !errors.Is(err, redis.Nil) {
		s.logger.WarnContext(ctx, "rating cache read failed",
			"subject", subject,
			"error", err,
		)
	}

	summary, err := s.inner.Summary(ctx, subject)
	if err != nil {
		return RatingSummary{}, err
	}

	if encoded, err := json.Marshal(summary); err == nil {
		if err := s.redis.Set(ctx, key, encoded, summaryTTL).Err(); err != nil {
			s.logger.WarnContext(ctx, "rating cache write failed",
				"subject", subject,
				"error", err,
			)
		}
	}
	return summary, nil
}

func (s *CachedRatingStore) ListBySubject(ctx context.Context, subject id.ParticipantID) ([]Rating, error) {
	return s.inner.ListBySubject(ctx, subject)
}
