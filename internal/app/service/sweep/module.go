package sweep

import (
	"context"
	"time"

	"github.com/fatflowers/vipclub/internal/app/service/gateway"
	"github.com/fatflowers/vipclub/pkg/config"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// run loops the sweep on the configured interval until the context is
// cancelled.
func (s *Sweeper) run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Sweep.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

func registerSweeper(lc fx.Lifecycle, s *Sweeper, log *zap.SugaredLogger, cfg *config.Config) {
	var cancel context.CancelFunc
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			var runCtx context.Context
			runCtx, cancel = context.WithCancel(context.Background())
			log.Infow("starting overdue sweep", "interval", cfg.Sweep.Interval)
			go s.run(runCtx)
			return nil
		},
		OnStop: func(context.Context) error {
			log.Infow("stopping overdue sweep")
			if cancel != nil {
				cancel()
			}
			return nil
		},
	})
}

// Module exposes the sweeper via Fx and starts its ticker with the app
// lifecycle.
var Module = fx.Options(
	fx.Provide(NewSweeper),
	fx.Provide(func(c *gateway.Client) Charger { return c }),
	fx.Invoke(registerSweeper),
)
