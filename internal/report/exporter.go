package report

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/billmonth"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/observability"
	paymentdomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/payment/domain"
	summarydomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/summary/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Exporter renders a finished monthly summary into a distributable document.
// It never mutates the summary and either returns a complete document or an
// error, never a partial one.
type Exporter interface {
	CSV(summary *summarydomain.MonthlySummary, payments []paymentdomain.Payment) ([]byte, error)
	PDF(summary *summarydomain.MonthlySummary, payments []paymentdomain.Payment) ([]byte, error)
}

type ExporterParam struct {
	fx.In

	Log     *zap.Logger
	Metrics *observability.Metrics
}

type exporter struct {
	log     *zap.Logger
	metrics *observability.Metrics
}

func NewExporter(p ExporterParam) Exporter {
	return &exporter{
		log:     p.Log.Named("report.exporter"),
		metrics: p.Metrics,
	}
}

// Filename is the conventional download name for a monthly report,
// e.g. Payment_Report_Aug_2026.csv.
func Filename(m billmonth.Month, format string) string {
	return fmt.Sprintf("Payment_Report_%s.%s", strings.ReplaceAll(m.Label(), " ", "_"), format)
}

// money formats a currency cell. Reports always show two decimal places.
func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// paymentByParent indexes the month's payment records for status lookups.
func paymentByParent(payments []paymentdomain.Payment) map[snowflake.ID]paymentdomain.Payment {
	out := make(map[snowflake.ID]paymentdomain.Payment, len(payments))
	for _, p := range payments {
		out[p.ParentID] = p
	}
	return out
}
