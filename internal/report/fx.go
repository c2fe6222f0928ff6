package report

import (
	"go.uber.org/fx"
)

var Module = fx.Module("report.exporter",
	fx.Provide(NewExporter),
)
