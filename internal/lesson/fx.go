package lesson

import (
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/lesson/repository"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/lesson/service"
	"go.uber.org/fx"
)

var Module = fx.Module("lesson",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
