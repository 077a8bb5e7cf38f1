package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alexanderramin/greenpath/internal/domain"
	"github.com/alexanderramin/greenpath/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recordingObserver struct {
	events []UseCaseEvent
}

func (r *recordingObserver) ObserveUseCase(_ context.Context, e UseCaseEvent) {
	r.events = append(r.events, e)
}

func TestLogUseCaseObserver_Levels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	obs := NewLogUseCaseObserver(zap.New(core))
	ctx := context.Background()

	obs.ObserveUseCase(ctx, UseCaseEvent{Name: "save_profile", Duration: 3 * time.Millisecond, Success: true})
	obs.ObserveUseCase(ctx, UseCaseEvent{
		Name:   "import_case",
		Err:    errors.New("boom"),
		Fields: map[string]any{"milestone": "perm"},
	})

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "save_profile", entries[0].ContextMap()["use_case"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	ctxMap := entries[1].ContextMap()
	assert.Equal(t, "boom", ctxMap["error"])
	assert.Equal(t, "perm", ctxMap["milestone"])
}

func TestNewLogUseCaseObserver_NilLogger(t *testing.T) {
	assert.IsType(t, NoopUseCaseObserver{}, NewLogUseCaseObserver(nil))
}

func TestMultiUseCaseObserver_FansOut(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	rec := &recordingObserver{}
	obs := NewMultiUseCaseObserver(nil, rec, NewMetricsUseCaseObserver(m))

	observe(context.Background(), obs, "reset_case", time.Now(), nil, nil)
	observe(context.Background(), obs, "reset_case", time.Now(), ErrNoActiveCase, nil)

	require.Len(t, rec.events, 2)
	assert.True(t, rec.events[0].Success)
	assert.False(t, rec.events[1].Success)
	assert.Equal(t, 1.0, promtest.ToFloat64(m.UseCases.WithLabelValues("reset_case", "ok")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.UseCases.WithLabelValues("reset_case", "error")))
}

func TestNewMultiUseCaseObserver_EmptyIsNoop(t *testing.T) {
	assert.IsType(t, NoopUseCaseObserver{}, NewMultiUseCaseObserver(nil, nil))
	assert.IsType(t, NoopUseCaseObserver{}, NewMetricsUseCaseObserver(nil))
}

func TestServices_ReportUseCases(t *testing.T) {
	_, profiles, cases, uow := setupRepos(t)
	rec := &recordingObserver{}
	ctx := context.Background()

	_, err := NewCaseService(cases, uow, rec).SetMilestone(ctx, MilestoneInput{Key: "perm", Status: "filed"})
	require.NoError(t, err)
	err = NewProfileService(profiles, rec).Save(ctx, &domain.Profile{Status: "unknown"})
	require.Error(t, err)

	require.Len(t, rec.events, 2)
	assert.Equal(t, "set_milestone", rec.events[0].Name)
	assert.Equal(t, "perm", rec.events[0].Fields["milestone"])
	assert.Equal(t, "save_profile", rec.events[1].Name)
	assert.False(t, rec.events[1].Success)
}
