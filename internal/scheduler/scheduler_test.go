package scheduler

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingSweeper struct {
	calls atomic.Int32
}

func (c *countingSweeper) Sweep() int {
	c.calls.Add(1)
	return 2
}

func TestScheduler_ForceRun(t *testing.T) {
	sweeper := &countingSweeper{}
	s := NewScheduler(sweeper, "@every 1h", zap.NewNop())

	s.ForceRun()
	s.ForceRun()

	status := s.GetStatus()
	assert.Equal(t, int32(2), sweeper.calls.Load())
	assert.Equal(t, 2, status["last_swept"])
	assert.Equal(t, 4, status["total_swept"])
	assert.Equal(t, false, status["running"])
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler(&countingSweeper{}, "@every 1h", zap.NewNop())

	require.NoError(t, s.Start())
	require.NoError(t, s.Start())
	status := s.GetStatus()
	assert.Equal(t, true, status["running"])
	assert.Contains(t, status, "next_run")

	s.Stop()
	s.Stop()
	assert.Equal(t, false, s.GetStatus()["running"])
}

func TestScheduler_RestartRegistersSweepOnce(t *testing.T) {
	s := NewScheduler(&countingSweeper{}, "@every 1h", zap.NewNop())

	require.NoError(t, s.Start())
	s.Stop()
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Len(t, s.cron.Entries(), 1)
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	s := NewScheduler(&countingSweeper{}, "not a schedule", zap.NewNop())

	err := s.Start()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid sweep schedule")
}
