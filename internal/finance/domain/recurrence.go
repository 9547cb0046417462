package domain

import "time"

// MaxOccurrencesPerRun bounds how many copies one template produces per run;
// the rest are picked up by the next run.
const MaxOccurrencesPerRun = 366

// OccurrenceDate returns the k-th occurrence of a series starting at start.
// Monthly and yearly series keep start's day of month, clamped to the last
// day of shorter months, so Jan 31 is followed by Feb 28 and then Mar 31.
func OccurrenceDate(start Date, frequency string, k int) Date {
	switch frequency {
	case FrequencyDaily:
		return Date{start.AddDate(0, 0, k)}
	case FrequencyWeekly:
		return Date{start.AddDate(0, 0, 7*k)}
	case FrequencyMonthly:
		return addMonthsClamped(start, k)
	case FrequencyYearly:
		return addMonthsClamped(start, 12*k)
	default:
		return start
	}
}

func addMonthsClamped(start Date, months int) Date {
	total := int(start.Month()) - 1 + months
	year := start.Year() + total/12
	month := time.Month(total%12 + 1)
	day := start.Day()
	if last := daysIn(year, month); day > last {
		day = last
	}
	return NewDate(year, month, day)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DueOccurrences lists the dates after the template's last materialized
// occurrence that are on or before today and within its end date.
func DueOccurrences(template Transaction, today Date) []Date {
	if !template.IsRecurring || template.RecurrenceFrequency == nil || !IsValidFrequency(*template.RecurrenceFrequency) {
		return nil
	}
	start := template.TransactionDate
	last := start
	if template.LastOccurrenceDate != nil && template.LastOccurrenceDate.After(last.Time) {
		last = *template.LastOccurrenceDate
	}

	var due []Date
	for k := 1; len(due) < MaxOccurrencesPerRun; k++ {
		d := OccurrenceDate(start, *template.RecurrenceFrequency, k)
		if d.After(today.Time) {
			break
		}
		if template.RecurrenceEndDate != nil && d.After(template.RecurrenceEndDate.Time) {
			break
		}
		if !d.After(last.Time) {
			continue
		}
		due = append(due, d)
	}
	return due
}

// Occurrence builds the concrete, non-recurring copy of template for date.
func (t Transaction) Occurrence(date Date) Transaction {
	parentID := t.ID
	return Transaction{
		UserID:             t.UserID,
		CategoryID:         t.CategoryID,
		Amount:             t.Amount,
		Type:               t.Type,
		Description:        t.Description,
		TransactionDate:    date,
		PaymentMethod:      t.PaymentMethod,
		RecurrenceParentID: &parentID,
	}
}
