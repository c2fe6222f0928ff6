package payment

import (
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/payment/repository"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
