package service

import (
	"fmt"
	"sort"

	"github.com/bwmarrin/snowflake"
	lessondomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/lesson/domain"
	paymentdomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/payment/domain"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/pricing"
	summarydomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/summary/domain"
)

// Aggregate builds the monthly summary from an in-memory snapshot. It is
// pure: it either returns a fully-formed summary or an error, never a
// partial result.
func Aggregate(in summarydomain.Input) (*summarydomain.MonthlySummary, error) {
	studentsByID := make(map[snowflake.ID]studentRef, len(in.Students))
	for _, st := range in.Students {
		studentsByID[st.ID] = studentRef{name: st.Name, parentID: st.ParentID}
	}
	parentNames := make(map[snowflake.ID]string, len(in.Parents))
	for _, p := range in.Parents {
		parentNames[p.ID] = p.Name
	}

	paymentsByID := make(map[snowflake.ID]paymentdomain.Payment, len(in.Payments))
	for _, p := range in.Payments {
		paymentsByID[p.ID] = p
	}
	linksByLesson := make(map[snowflake.ID]paymentdomain.PaymentLesson, len(in.PaymentLessons))
	for _, link := range in.PaymentLessons {
		linksByLesson[link.LessonID] = link
	}

	families := make(map[snowflake.ID]*summarydomain.FamilyLessonSummary)
	familyOrder := make([]snowflake.ID, 0)
	skipped := 0

	for _, lesson := range in.Lessons {
		student, ok := studentsByID[lesson.StudentID]
		if !ok {
			// Orphaned reference: the student was deleted out from under the
			// lesson. Skip, don't fault.
			skipped++
			continue
		}

		family, ok := families[student.parentID]
		if !ok {
			family = &summarydomain.FamilyLessonSummary{
				ParentID:   student.parentID,
				ParentName: parentNames[student.parentID],
			}
			families[student.parentID] = family
			familyOrder = append(familyOrder, student.parentID)
		}

		combined := lesson.SessionID != nil
		quote, err := pricing.Resolve(lesson, in.Schedule, combined)
		if err != nil {
			return nil, fmt.Errorf("pricing lesson %s: %w", lesson.ID, err)
		}

		detail := summarydomain.LessonDetail{
			LessonID:    lesson.ID,
			StudentName: student.name,
			Subject:     lesson.Subject,
			ScheduledAt: lesson.ScheduledAt,
			DurationMin: lesson.DurationMin,
			Amount:      quote.Amount,
			Formula:     quote.Formula,
			Combined:    combined,
		}

		if combined {
			family.Buckets.CombinedSessionCount++
		}

		switch lesson.Status {
		case lessondomain.StatusCancelled:
			family.Buckets.CancelledCount++
			detail.PaymentState = summarydomain.PaymentStateCancelled

		case lessondomain.StatusScheduled:
			family.Buckets.ScheduledCount++
			family.Amounts.ExpectedAmount = family.Amounts.ExpectedAmount.Add(quote.Amount)
			detail.PaymentState = summarydomain.PaymentStateScheduled

		case lessondomain.StatusCompleted:
			// Prepaid-covered completions were paid for when the session pack
			// was bought; they carry no expected or billable dollars here.
			if lesson.PrepaidAccountID() != nil {
				family.Buckets.PrepaidCount++
				detail.PaymentState = summarydomain.PaymentStatePrepaid
				break
			}
			family.Amounts.ExpectedAmount = family.Amounts.ExpectedAmount.Add(quote.Amount)

			link, linked := linksByLesson[lesson.ID]
			if !linked {
				family.Buckets.CompletedCount++
				family.Amounts.BillableAmount = family.Amounts.BillableAmount.Add(quote.Amount)
				detail.PaymentState = summarydomain.PaymentStateUnbilled
				break
			}
			if payment, ok := paymentsByID[link.PaymentID]; ok && payment.IsPaid() {
				family.Buckets.PaidCount++
				detail.PaymentState = summarydomain.PaymentStatePaid
			} else {
				family.Buckets.InvoicedCount++
				detail.PaymentState = summarydomain.PaymentStateInvoiced
			}

		default:
			return nil, fmt.Errorf("lesson %s: unknown status %q", lesson.ID, lesson.Status)
		}

		family.Lessons = append(family.Lessons, detail)
	}

	// Invoiced/collected come straight from payment records, not re-derived
	// from lesson prices.
	for _, payment := range in.Payments {
		family, ok := families[payment.ParentID]
		if !ok {
			continue
		}
		family.Amounts.InvoicedAmount = family.Amounts.InvoicedAmount.Add(payment.AmountDue)
		family.Amounts.CollectedAmount = family.Amounts.CollectedAmount.Add(payment.AmountPaid)
	}

	out := &summarydomain.MonthlySummary{
		Month:          in.Month,
		Families:       make([]summarydomain.FamilyLessonSummary, 0, len(familyOrder)),
		SkippedLessons: skipped,
	}

	sort.Slice(familyOrder, func(i, j int) bool {
		return parentNames[familyOrder[i]] < parentNames[familyOrder[j]]
	})
	for _, parentID := range familyOrder {
		family := families[parentID]
		sort.Slice(family.Lessons, func(i, j int) bool {
			return family.Lessons[i].ScheduledAt.Before(family.Lessons[j].ScheduledAt)
		})
		out.Totals.Buckets.Add(family.Buckets)
		out.Totals.Amounts.Add(family.Amounts)
		out.Families = append(out.Families, *family)
	}

	return out, nil
}

type studentRef struct {
	name     string
	parentID snowflake.ID
}
