package livedata

import (
	"time"

	"go.uber.org/zap"
)

// FetchEvent records one call to the live data endpoint.
type FetchEvent struct {
	Endpoint  string
	Forced    bool
	Attempts  int
	LatencyMs int64
	Success   bool
	ErrorCode string
}

// Observer receives fetch events for logging and metrics.
type Observer interface {
	OnFetch(event FetchEvent)
}

// ZapObserver logs fetch events. Failures are warnings since every caller
// falls back to cached or default data.
type ZapObserver struct {
	log *zap.Logger
}

func NewZapObserver(log *zap.Logger) *ZapObserver {
	return &ZapObserver{log: log}
}

func (o *ZapObserver) OnFetch(e FetchEvent) {
	fields := []zap.Field{
		zap.String("endpoint", e.Endpoint),
		zap.Bool("forced", e.Forced),
		zap.Int("attempts", e.Attempts),
		zap.Duration("latency", time.Duration(e.LatencyMs)*time.Millisecond),
	}
	if e.Success {
		o.log.Debug("live data fetched", fields...)
		return
	}
	o.log.Warn("live data fetch failed", append(fields, zap.String("error_code", e.ErrorCode))...)
}

// NoopObserver discards all events.
type NoopObserver struct{}

func (NoopObserver) OnFetch(FetchEvent) {}
