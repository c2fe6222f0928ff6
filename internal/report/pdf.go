package report

import (
	"fmt"
	"strconv"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	paymentdomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/payment/domain"
	summarydomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/summary/domain"
	"go.uber.org/zap"
)

// PDF renders the same report the CSV carries, laid out for printing.
func (e *exporter) PDF(summary *summarydomain.MonthlySummary, payments []paymentdomain.Payment) ([]byte, error) {
	if summary == nil {
		return nil, fmt.Errorf("report: nil summary")
	}

	cfg := config.NewBuilder().
		WithLeftMargin(12).
		WithRightMargin(12).
		WithTopMargin(12).
		Build()
	m := maroto.New(cfg)
	byParent := paymentByParent(payments)

	m.AddRow(10, text.NewCol(12, "Payment Report "+summary.Month.Label(),
		props.Text{Size: 14, Style: fontstyle.Bold}))

	m.AddRow(8, text.NewCol(12, "Summary", props.Text{Size: 11, Style: fontstyle.Bold, Top: 2}))
	m.AddRows(
		kvRow("Total Lessons", strconv.Itoa(summary.Totals.Buckets.TotalLessons())),
		kvRow("Completed", strconv.Itoa(completedTotal(summary.Totals.Buckets))),
		kvRow("Cancelled", strconv.Itoa(summary.Totals.Buckets.CancelledCount)),
		kvRow("Expected Revenue", money(summary.Totals.Amounts.ExpectedAmount)),
		kvRow("Ready to Bill", money(summary.Totals.Amounts.BillableAmount)),
		kvRow("Invoiced", money(summary.Totals.Amounts.InvoicedAmount)),
		kvRow("Collected", money(summary.Totals.Amounts.CollectedAmount)),
	)

	m.AddRow(8, text.NewCol(12, "Family Breakdown", props.Text{Size: 11, Style: fontstyle.Bold, Top: 2}))
	m.AddRows(tableHeader("Family", "Lessons", "Expected", "Invoiced", "Collected", "Status"))
	for _, f := range summary.Families {
		m.AddRows(tableRow(
			f.ParentName,
			strconv.Itoa(f.Buckets.TotalLessons()),
			money(f.Amounts.ExpectedAmount),
			money(f.Amounts.InvoicedAmount),
			money(f.Amounts.CollectedAmount),
			familyPaymentStatus(byParent, f),
		))
	}

	m.AddRow(8, text.NewCol(12, "Lesson Details", props.Text{Size: 11, Style: fontstyle.Bold, Top: 2}))
	m.AddRows(tableHeader("Date", "Student", "Subject", "Min", "Amount", "Billing"))
	for _, f := range summary.Families {
		for _, d := range f.Lessons {
			m.AddRows(tableRow(
				d.ScheduledAt.Format("2006-01-02"),
				d.StudentName,
				d.Subject,
				strconv.Itoa(d.DurationMin),
				money(d.Amount),
				string(d.PaymentState),
			))
		}
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("report: render pdf: %w", err)
	}

	e.metrics.ReportsExported.WithLabelValues("pdf").Inc()
	e.log.Info("report exported",
		zap.String("format", "pdf"),
		zap.String("month", summary.Month.String()),
		zap.Int("families", len(summary.Families)),
	)
	return doc.GetBytes(), nil
}

func kvRow(key, value string) core.Row {
	return row.New(6).Add(
		text.NewCol(5, key, props.Text{Size: 9}),
		text.NewCol(7, value, props.Text{Size: 9, Align: align.Left}),
	)
}

func tableHeader(cells ...string) core.Row {
	r := row.New(6)
	for _, c := range cells {
		r.Add(text.NewCol(2, c, props.Text{Size: 9, Style: fontstyle.Bold}))
	}
	return r
}

func tableRow(cells ...string) core.Row {
	r := row.New(5)
	for _, c := range cells {
		r.Add(text.NewCol(2, c, props.Text{Size: 8}))
	}
	return r
}
