package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/studytracker/domain"
	"github.com/fastygo/studytracker/repository"
)

const (
	runLatestKey = "notification:run:latest"
	runKeyPrefix = "notification:run:"
)

type runSummaryRepository struct {
	client *redislib.Client
	ttl    time.Duration
}

// NewRunSummaryRepository keeps notification run summaries in Redis. Each summary is
// stored under its reference date and as the latest run; both keys expire after ttl.
func NewRunSummaryRepository(client *redislib.Client, ttl time.Duration) repository.RunSummaryRepository {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &runSummaryRepository{client: client, ttl: ttl}
}

func (r *runSummaryRepository) Save(ctx context.Context, summary *domain.RunSummary) error {
	if summary == nil {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, runLatestKey, payload, r.ttl)
	pipe.Set(ctx, runKeyPrefix+summary.ReferenceDate.String(), payload, r.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *runSummaryRepository) Latest(ctx context.Context) (*domain.RunSummary, error) {
	return r.load(ctx, runLatestKey)
}

func (r *runSummaryRepository) GetByDate(ctx context.Context, reference domain.Date) (*domain.RunSummary, error) {
	return r.load(ctx, runKeyPrefix+reference.String())
}

func (r *runSummaryRepository) load(ctx context.Context, key string) (*domain.RunSummary, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, domain.ErrRunNotFound
		}
		return nil, err
	}

	var summary domain.RunSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}
