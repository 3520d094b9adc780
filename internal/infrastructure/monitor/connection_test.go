package monitor

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/studytracker/internal/infrastructure/buffer"
)

type switchProbe struct{ down atomic.Bool }

func (p *switchProbe) probe(context.Context) error {
	if p.down.Load() {
		return errors.New("connection refused")
	}
	return nil
}

func TestMonitor_RecoverCallback(t *testing.T) {
	store, err := buffer.Open(filepath.Join(t.TempDir(), "buffer.db"), 0)
	require.NoError(t, err)
	defer store.Close()

	pg := &switchProbe{}
	m := New(pg.probe, nil, store, 0, nil)

	var recovered atomic.Int32
	m.OnRecover(func() { recovered.Add(1) })

	m.Refresh()
	assert.True(t, m.IsOnline())
	assert.False(t, m.GetStatus().Redis)
	assert.False(t, m.GetStatus().Healthy())
	assert.True(t, m.GetStatus().Buffer)

	pg.down.Store(true)
	m.Refresh()
	assert.False(t, m.IsOnline())
	assert.Zero(t, recovered.Load())

	pg.down.Store(false)
	m.Refresh()
	assert.True(t, m.IsOnline())
	assert.Equal(t, int32(1), recovered.Load())

	m.Refresh()
	assert.Equal(t, int32(1), recovered.Load())
}

func TestMonitor_NilProbesAreDown(t *testing.T) {
	m := New(PostgresProbe(nil), RedisProbe(nil), nil, 0, nil)
	m.Refresh()
	s := m.GetStatus()
	assert.False(t, s.PostgreSQL)
	assert.False(t, s.Redis)
	assert.False(t, s.Buffer)
	m.Stop()
	m.Stop()
}
