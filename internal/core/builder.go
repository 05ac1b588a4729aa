package core

import (
	"fmt"
	"os"

	"netsend/config"
	"netsend/internal/metrics"
	"netsend/internal/report"
	"netsend/internal/resolve"
	"netsend/internal/retry"
	"netsend/target"
	"netsend/util"
)

// Build constructs the send mode from the given configuration.  Failures
// are reported to the logger and counted in a fresh metrics collector.
func Build(cfg *config.Config, logger *util.Logger) (Mode, error) {
	v, err := target.ParseVariant(cfg.Protocol, cfg.IPv6)
	if err != nil {
		return nil, fmt.Errorf("protocol: %w", err)
	}

	c := metrics.New()
	sink := report.Multi(report.NewLogSink(logger), report.NewMetricsSink(c))

	t := target.New(cfg.Destination, cfg.Port,
		target.WithResolver(resolve.New(cfg.ResolveTimeout)),
		target.WithSink(sink),
		target.WithMetrics(c),
		target.WithLogger(logger),
	)

	backoff := retry.DefaultBackoff()
	backoff.MaxAttempts = cfg.ReopenAttempts

	return &SendMode{
		Target:  t,
		Variant: v,
		Config:  cfg,
		Logger:  logger,
		Metrics: c,
		Backoff: backoff,
		Stderr:  os.Stderr,
	}, nil
}
