package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/bwmarrin/snowflake"
	paymentdomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/payment/domain"
	summarydomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/summary/domain"
	"go.uber.org/zap"
)

// CSV renders the three-section payment report: a SUMMARY key/value block,
// a FAMILY BREAKDOWN table and a LESSON DETAILS table. Families keep the
// aggregator's order; lessons keep their family's order.
func (e *exporter) CSV(summary *summarydomain.MonthlySummary, payments []paymentdomain.Payment) ([]byte, error) {
	if summary == nil {
		return nil, fmt.Errorf("report: nil summary")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	byParent := paymentByParent(payments)

	rows := [][]string{
		{"SUMMARY"},
		{"Month", summary.Month.Label()},
		{"Total Lessons", strconv.Itoa(summary.Totals.Buckets.TotalLessons())},
		{"Completed", strconv.Itoa(completedTotal(summary.Totals.Buckets))},
		{"Cancelled", strconv.Itoa(summary.Totals.Buckets.CancelledCount)},
		{"Expected Revenue", money(summary.Totals.Amounts.ExpectedAmount)},
		{"Ready to Bill", money(summary.Totals.Amounts.BillableAmount)},
		{"Invoiced", money(summary.Totals.Amounts.InvoicedAmount)},
		{"Collected", money(summary.Totals.Amounts.CollectedAmount)},
		{},
		{"FAMILY BREAKDOWN"},
		{"Family", "Lessons", "Completed", "Cancelled", "Expected", "Invoiced", "Collected", "Payment Status"},
	}
	for _, f := range summary.Families {
		rows = append(rows, []string{
			f.ParentName,
			strconv.Itoa(f.Buckets.TotalLessons()),
			strconv.Itoa(completedTotal(f.Buckets)),
			strconv.Itoa(f.Buckets.CancelledCount),
			money(f.Amounts.ExpectedAmount),
			money(f.Amounts.InvoicedAmount),
			money(f.Amounts.CollectedAmount),
			familyPaymentStatus(byParent, f),
		})
	}

	rows = append(rows,
		[]string{},
		[]string{"LESSON DETAILS"},
		[]string{"Date", "Family", "Student", "Subject", "Duration (min)", "Status", "Amount", "Payment Status"},
	)
	for _, f := range summary.Families {
		for _, d := range f.Lessons {
			rows = append(rows, []string{
				d.ScheduledAt.Format("2006-01-02"),
				f.ParentName,
				d.StudentName,
				d.Subject,
				strconv.Itoa(d.DurationMin),
				lessonStatusLabel(d),
				money(d.Amount),
				string(d.PaymentState),
			})
		}
	}

	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("report: write csv: %w", err)
	}

	e.metrics.ReportsExported.WithLabelValues("csv").Inc()
	e.log.Info("report exported",
		zap.String("format", "csv"),
		zap.String("month", summary.Month.String()),
		zap.Int("families", len(summary.Families)),
	)
	return buf.Bytes(), nil
}

// completedTotal counts every completed lesson regardless of how far along
// its billing is.
func completedTotal(b summarydomain.Buckets) int {
	return b.CompletedCount + b.PrepaidCount + b.InvoicedCount + b.PaidCount
}

func familyPaymentStatus(byParent map[snowflake.ID]paymentdomain.Payment, f summarydomain.FamilyLessonSummary) string {
	if p, ok := byParent[f.ParentID]; ok {
		return string(p.Status)
	}
	return "none"
}

func lessonStatusLabel(d summarydomain.LessonDetail) string {
	base := "completed"
	switch d.PaymentState {
	case summarydomain.PaymentStateScheduled:
		base = "scheduled"
	case summarydomain.PaymentStateCancelled:
		base = "cancelled"
	}
	if d.Combined {
		return base + " (combined)"
	}
	return base
}
