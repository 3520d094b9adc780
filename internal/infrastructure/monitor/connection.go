package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fastygo/studytracker/internal/infrastructure/buffer"
)

// Probe reports whether a dependency answers.
type Probe func(ctx context.Context) error

// PostgresProbe pings the pool; a nil pool is reported as down.
func PostgresProbe(pool *pgxpool.Pool) Probe {
	if pool == nil {
		return nil
	}
	return pool.Ping
}

// RedisProbe pings the client; a nil client is reported as down.
func RedisProbe(client *redislib.Client) Probe {
	if client == nil {
		return nil
	}
	return func(ctx context.Context) error { return client.Ping(ctx).Err() }
}

// Monitor polls PostgreSQL, Redis and the write buffer. The service is online when
// PostgreSQL answers; Redis only backs sessions and run history.
type Monitor struct {
	pg     Probe
	redis  Probe
	buffer *buffer.Store

	status    Status
	onRecover []func()
	mu        sync.RWMutex
	interval  time.Duration
	stopCh    chan struct{}
	stopOnce  sync.Once
	logger    *zap.Logger
}

func New(pg, redis Probe, buf *buffer.Store, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		pg:       pg,
		redis:    redis,
		buffer:   buf,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

// OnRecover registers fn to run each time PostgreSQL comes back after being down.
func (m *Monitor) OnRecover(fn func()) {
	m.mu.Lock()
	m.onRecover = append(m.onRecover, fn)
	m.mu.Unlock()
}

func (m *Monitor) Start() {
	m.Refresh()
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.PostgreSQL
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Refresh()
		case <-m.stopCh:
			return
		}
	}
}

// Refresh probes every dependency once and updates the status.
func (m *Monitor) Refresh() {
	bufferOK, bufferSize := m.checkBuffer()
	status := Status{
		PostgreSQL: m.check(m.pg, 3*time.Second),
		Redis:      m.check(m.redis, 2*time.Second),
		Buffer:     bufferOK,
		BufferSize: bufferSize,
		LastCheck:  time.Now(),
	}

	m.mu.Lock()
	previous := m.status
	m.status = status
	callbacks := append([]func(){}, m.onRecover...)
	m.mu.Unlock()

	if previous.PostgreSQL != status.PostgreSQL && !previous.LastCheck.IsZero() {
		if status.PostgreSQL {
			m.logger.Info("postgres connection restored")
			for _, fn := range callbacks {
				fn()
			}
		} else {
			m.logger.Warn("postgres connection lost, writes will be buffered")
		}
	}
}

func (m *Monitor) check(probe Probe, timeout time.Duration) bool {
	if probe == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return probe(ctx) == nil
}

func (m *Monitor) checkBuffer() (bool, int) {
	if m.buffer == nil {
		return false, 0
	}
	size, err := m.buffer.Size()
	if err != nil {
		m.logger.Warn("buffer size check failed", zap.Error(err))
		return false, size
	}
	return true, size
}
