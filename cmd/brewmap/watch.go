package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/kass/go-geo-dominance/internal/metrics"
	"github.com/kass/go-geo-dominance/pkg/service"
	"github.com/spf13/cobra"
)

var (
	watchInterval time.Duration
	watchNoServe  bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Recompute periodically and serve metrics",
	Long: `Watch recomputes the dominance map every interval and prints one line per result.
Prometheus metrics and a health check are served on the configured metrics address.`,
	RunE: withApp(runWatch),
}

func init() {
	watchCmd.Flags().DurationVarP(&watchInterval, "interval", "i", 10*time.Second, "Recompute interval")
	watchCmd.Flags().BoolVar(&watchNoServe, "no-metrics", false, "Do not start the metrics server")
}

func runWatch(ctx context.Context, a *app, _ []string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// a failing metrics listener ends the watch as well
	serveErr := make(chan error, 1)
	if !watchNoServe {
		go func() {
			err := metrics.Serve(ctx, a.cfg.Metrics.Addr, a.provider, a.log)
			serveErr <- err
			if err != nil {
				stop()
			}
		}()
	}

	a.log.Info().Dur("interval", watchInterval).Str("metrics", a.cfg.Metrics.Addr).Msg("watching votes")

	err := a.engine.Watch(ctx, watchInterval, func(comp service.Computation) {
		fmt.Println(watchLine(comp))
	})
	stop()

	if !watchNoServe {
		if sErr := <-serveErr; sErr != nil && err == nil {
			err = fmt.Errorf("metrics server: %w", sErr)
		}
	}
	return err
}

func watchLine(comp service.Computation) string {
	state := statStyle.Render(comp.Elapsed.Round(time.Microsecond).String())
	if comp.Cached {
		state = dimStyle.Render("cached")
	}
	line := fmt.Sprintf("%s  votes=%d regions=%d %s",
		time.Now().Format("15:04:05"), comp.Votes, len(comp.Result.Regions), state)
	if n := len(comp.Result.DegenerateRegions()); n > 0 {
		line += " " + errorStyle.Render(fmt.Sprintf("degenerate=%d", n))
	}
	return line
}
