package student

import (
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/student/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("student",
	fx.Provide(repository.NewRepository),
)
