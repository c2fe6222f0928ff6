package prepaid

import (
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/prepaid/repository"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/prepaid/service"
	"go.uber.org/fx"
)

var Module = fx.Module("prepaid",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
