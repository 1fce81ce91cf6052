package generation

import (
	"context"
	"log/slog"
	"time"

	"github.com/papercomputeco/gauntlet/pkg/logger"
	"github.com/papercomputeco/gauntlet/pkg/metrics"
)

// Call kinds, used as the "kind" metric label.
const (
	KindProbe     = "probe"
	KindFollowUp  = "follow_up"
	KindSeed      = "seed"
	KindPhaseSeed = "phase_seed"
)

// instrumented records latency and failures of every call on the wrapped gateway.
type instrumented struct {
	next   Gateway
	logger *slog.Logger
}

// Instrument wraps g so that each call is timed and logged.
func Instrument(g Gateway, log *slog.Logger) Gateway {
	if log == nil {
		log = logger.Nop()
	}
	return &instrumented{next: g, logger: log}
}

func (i *instrumented) observe(kind string, start time.Time, err error) {
	elapsed := time.Since(start)
	status := "ok"
	if err != nil {
		status = "error"
		i.logger.Warn("generation call failed", "kind", kind, "duration", elapsed, "error", err)
	} else {
		i.logger.Debug("generation call completed", "kind", kind, "duration", elapsed)
	}
	metrics.GenerationDuration.WithLabelValues(kind, status).Observe(elapsed.Seconds())
}

func (i *instrumented) ProbeTarget(ctx context.Context, req ProbeRequest) (resp *ProbeResponse, err error) {
	defer func(start time.Time) {
		observed := err
		if observed == nil {
			observed = resp.Err()
		}
		i.observe(KindProbe, start, observed)
	}(time.Now())
	return i.next.ProbeTarget(ctx, req)
}

func (i *instrumented) SuggestFollowUp(ctx context.Context, req FollowUpRequest) (resp *FollowUpResponse, err error) {
	defer func(start time.Time) { i.observe(KindFollowUp, start, err) }(time.Now())
	return i.next.SuggestFollowUp(ctx, req)
}

func (i *instrumented) GenerateSeed(ctx context.Context, req SeedRequest) (resp *SeedResponse, err error) {
	defer func(start time.Time) { i.observe(KindSeed, start, err) }(time.Now())
	return i.next.GenerateSeed(ctx, req)
}

func (i *instrumented) GeneratePhaseSeed(ctx context.Context, req PhaseSeedRequest) (resp *PhaseSeedResponse, err error) {
	defer func(start time.Time) { i.observe(KindPhaseSeed, start, err) }(time.Now())
	return i.next.GeneratePhaseSeed(ctx, req)
}
