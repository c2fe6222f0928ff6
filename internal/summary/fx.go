package summary

import (
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/summary/service"
	"go.uber.org/fx"
)

var Module = fx.Module("summary",
	fx.Provide(service.NewService),
)
