package rate

import (
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/rate/repository"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/rate/service"
	"go.uber.org/fx"
)

var Module = fx.Module("rate",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
