package app

import (
	"time"

	"github.com/fatflowers/vipclub/internal/app/api/server"
	"github.com/fatflowers/vipclub/internal/app/service/gateway"
	"github.com/fatflowers/vipclub/internal/app/service/memberlog"
	"github.com/fatflowers/vipclub/internal/app/service/memberstore"
	notificationlog "github.com/fatflowers/vipclub/internal/app/service/notification_log"
	"github.com/fatflowers/vipclub/internal/app/service/reconcile"
	"github.com/fatflowers/vipclub/internal/app/service/signing"
	"github.com/fatflowers/vipclub/internal/app/service/statistics"
	"github.com/fatflowers/vipclub/internal/app/service/sweep"
	"github.com/fatflowers/vipclub/internal/platform/db"
	"github.com/fatflowers/vipclub/pkg/config"
	"github.com/fatflowers/vipclub/pkg/logger"

	"go.uber.org/fx"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	server.Module,
	memberstore.Module,
	memberlog.Module,
	signing.Module,
	reconcile.Module,
	gateway.Module,
	sweep.Module,
	statistics.Module,
	notificationlog.Module,
)
