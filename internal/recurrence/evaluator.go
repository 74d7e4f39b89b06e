// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package recurrence expands recurrence rules into occurrences and resolves
// exceptions and attendance on top of them. Everything here is a pure function
// of its inputs and safe for concurrent callers.
package recurrence

import (
	"fmt"
	"iter"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-agenda-service/pkg/constants"
)

// Evaluator turns recurrence rules into ordered nominal occurrences.
type Evaluator struct {
	// maxScan bounds how many occurrences of an unbounded rule are generated.
	maxScan int
}

var _ domain.OccurrenceEvaluator = (*Evaluator)(nil)

// NewEvaluator creates an evaluator. A non-positive maxScan selects the default.
func NewEvaluator(maxScan int) *Evaluator {
	if maxScan <= 0 {
		maxScan = constants.DefaultMaxOccurrenceScan
	}
	return &Evaluator{maxScan: maxScan}
}

var weekdays = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

// Normalize fills the defaults and anchors of a rule from the first occurrence.
// Anchors already set are kept.
func Normalize(rule models.RecurrenceRule, firstStart time.Time) models.RecurrenceRule {
	if rule.Type == "" {
		rule.Type = models.RecurrenceNone
	}
	if rule.End.Kind == "" {
		rule.End.Kind = models.EndNever
	}
	if rule.End.Until != nil {
		u := rule.End.Until.UTC().Truncate(time.Second)
		rule.End.Until = &u
	}

	start := firstStart.UTC()
	switch rule.Type {
	case models.RecurrenceMonthlyByDate, models.RecurrenceYearly:
		if rule.DayOfMonth == 0 {
			rule.DayOfMonth = start.Day()
		}
		rule.WeekOfMonth = 0
	case models.RecurrenceMonthlyByWeekday:
		if rule.WeekOfMonth == 0 {
			rule.WeekOfMonth = weekOfMonth(start)
		}
		rule.DayOfMonth = 0
	default:
		rule.DayOfMonth = 0
		rule.WeekOfMonth = 0
	}
	return rule
}

// weekOfMonth returns the 1-based week of the month of t. The fifth week is
// reported as -1 (last) because not every month has one.
func weekOfMonth(t time.Time) int {
	n := (t.Day()-1)/7 + 1
	if n >= 5 {
		return -1
	}
	return n
}

// Validate rejects malformed rules. It is called at write time so that stored
// rules never fail during expansion.
func (e *Evaluator) Validate(rule models.RecurrenceRule, firstStart, firstEnd time.Time) error {
	switch rule.Type {
	case models.RecurrenceNone, models.RecurrenceDaily, models.RecurrenceWeekly, models.RecurrenceBiweekly,
		models.RecurrenceMonthlyByDate, models.RecurrenceMonthlyByWeekday, models.RecurrenceYearly:
	default:
		return domain.NewInvalidRuleError(fmt.Sprintf("unknown recurrence type %q", rule.Type))
	}

	if rule.Interval <= 0 {
		return domain.NewInvalidRuleError(fmt.Sprintf("recurrence interval must be at least 1, got %d", rule.Interval))
	}
	if rule.Interval > constants.MaxRecurrenceInterval {
		return domain.NewInvalidRuleError(fmt.Sprintf("recurrence interval must be at most %d", constants.MaxRecurrenceInterval))
	}

	switch rule.End.Kind {
	case models.EndNever, "":
	case models.EndOnDate:
		if rule.End.Until == nil {
			return domain.NewInvalidRuleError("on_date end condition requires an until date")
		}
		if rule.Type != models.RecurrenceNone && rule.End.Until.Before(firstStart) {
			return domain.NewInvalidRuleError("until date is before the first occurrence")
		}
	case models.EndAfterCount:
		if rule.End.Count <= 0 {
			return domain.NewInvalidRuleError(fmt.Sprintf("after_count end condition requires a positive count, got %d", rule.End.Count))
		}
	default:
		return domain.NewInvalidRuleError(fmt.Sprintf("unknown end condition %q", rule.End.Kind))
	}

	if rule.DayOfMonth < 0 || rule.DayOfMonth > 31 {
		return domain.NewInvalidRuleError(fmt.Sprintf("day of month %d out of range", rule.DayOfMonth))
	}
	switch rule.WeekOfMonth {
	case 0, 1, 2, 3, 4, -1:
	default:
		return domain.NewInvalidRuleError(fmt.Sprintf("week of month %d out of range", rule.WeekOfMonth))
	}

	if firstStart.IsZero() {
		return domain.NewInvalidRuleError("first occurrence start is required")
	}
	if firstEnd.Before(firstStart) {
		return domain.NewInvalidRuleError("first occurrence ends before it starts")
	}

	first, ok := e.OccurrenceAt(rule, firstStart, firstEnd, 0)
	if !ok || !first.Start.Equal(firstStart.UTC().Truncate(time.Second)) {
		return domain.NewInvalidRuleError("first occurrence does not match the recurrence pattern")
	}

	return nil
}

// RRuleOption builds the RFC 5545 rule equivalent to the recurrence rule.
//
// Month-end clamping is expressed with BYMONTHDAY=28..d;BYSETPOS=-1, which
// selects the last existing day not after d in every month.
func RRuleOption(rule models.RecurrenceRule, firstStart time.Time) (rrule.ROption, error) {
	start := firstStart.UTC().Truncate(time.Second)
	opt := rrule.ROption{
		Dtstart:  start,
		Interval: rule.Interval,
		Wkst:     rrule.MO,
	}

	switch rule.Type {
	case models.RecurrenceNone:
		opt.Freq = rrule.DAILY
		opt.Interval = 1
		opt.Count = 1
		return opt, nil
	case models.RecurrenceDaily:
		opt.Freq = rrule.DAILY
	case models.RecurrenceWeekly:
		opt.Freq = rrule.WEEKLY
	case models.RecurrenceBiweekly:
		opt.Freq = rrule.WEEKLY
		opt.Interval = rule.Interval * 2
	case models.RecurrenceMonthlyByDate:
		opt.Freq = rrule.MONTHLY
		opt.Bymonthday, opt.Bysetpos = monthDaySet(anchorDay(rule, start))
	case models.RecurrenceMonthlyByWeekday:
		opt.Freq = rrule.MONTHLY
		wd := weekdays[start.Weekday()]
		week := rule.WeekOfMonth
		if week == 0 {
			week = weekOfMonth(start)
		}
		opt.Byweekday = []rrule.Weekday{wd.Nth(week)}
	case models.RecurrenceYearly:
		opt.Freq = rrule.YEARLY
		opt.Bymonth = []int{int(start.Month())}
		opt.Bymonthday, opt.Bysetpos = monthDaySet(anchorDay(rule, start))
	default:
		return rrule.ROption{}, fmt.Errorf("unknown recurrence type %q", rule.Type)
	}

	switch rule.End.Kind {
	case models.EndAfterCount:
		opt.Count = rule.End.Count
	case models.EndOnDate:
		if rule.End.Until != nil {
			opt.Until = rule.End.Until.UTC().Truncate(time.Second)
		}
	}

	return opt, nil
}

func anchorDay(rule models.RecurrenceRule, start time.Time) int {
	if rule.DayOfMonth > 0 {
		return rule.DayOfMonth
	}
	return start.Day()
}

func monthDaySet(day int) ([]int, []int) {
	if day <= 28 {
		return []int{day}, nil
	}
	days := make([]int, 0, day-27)
	for d := 28; d <= day; d++ {
		days = append(days, d)
	}
	return days, []int{-1}
}

// nominalStart computes the start of occurrence index without enumerating.
// Daily and weekly rules step a fixed number of days. Monthly and yearly
// rules step a fixed number of months with exactly one occurrence in each,
// because the month day is clamped and the nth weekday always exists.
func nominalStart(rule models.RecurrenceRule, firstStart time.Time, index int) time.Time {
	start := firstStart.UTC().Truncate(time.Second)
	if index <= 0 {
		return start
	}
	switch rule.Type {
	case models.RecurrenceDaily:
		return start.AddDate(0, 0, index*rule.Interval)
	case models.RecurrenceWeekly:
		return start.AddDate(0, 0, 7*index*rule.Interval)
	case models.RecurrenceBiweekly:
		return start.AddDate(0, 0, 14*index*rule.Interval)
	case models.RecurrenceMonthlyByDate:
		return clampedMonthDay(start, index*rule.Interval, anchorDay(rule, start))
	case models.RecurrenceYearly:
		return clampedMonthDay(start, 12*index*rule.Interval, anchorDay(rule, start))
	case models.RecurrenceMonthlyByWeekday:
		week := rule.WeekOfMonth
		if week == 0 {
			week = weekOfMonth(start)
		}
		return nthWeekday(start, index*rule.Interval, week)
	}
	return start
}

// clampedMonthDay returns day in the month months after start, or the last
// day of that month when it is shorter. The time of day is kept.
func clampedMonthDay(start time.Time, months, day int) time.Time {
	first := time.Date(start.Year(), start.Month()+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	return time.Date(first.Year(), first.Month(), min(day, last),
		start.Hour(), start.Minute(), start.Second(), 0, time.UTC)
}

// nthWeekday returns the week-th weekday of start (-1 for the last) in the
// month months after start.
func nthWeekday(start time.Time, months, week int) time.Time {
	first := time.Date(start.Year(), start.Month()+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	var day int
	if week > 0 {
		day = 1 + (int(start.Weekday())-int(first.Weekday())+7)%7 + (week-1)*7
	} else {
		last := first.AddDate(0, 1, -1)
		day = last.Day() - (int(last.Weekday())-int(start.Weekday())+7)%7
	}
	return time.Date(first.Year(), first.Month(), day,
		start.Hour(), start.Minute(), start.Second(), 0, time.UTC)
}

// seekIndex returns an occurrence index at or below the first occurrence
// starting at or after t, so iteration can begin there instead of at 0.
func seekIndex(rule models.RecurrenceRule, firstStart, t time.Time) int {
	start := firstStart.UTC().Truncate(time.Second)
	if rule.Interval <= 0 || !start.Before(t) {
		return 0
	}

	var k int
	switch rule.Type {
	case models.RecurrenceDaily, models.RecurrenceWeekly, models.RecurrenceBiweekly:
		step := nominalStart(rule, start, 1).Sub(start)
		k = int(t.Sub(start) / step)
	case models.RecurrenceMonthlyByDate, models.RecurrenceMonthlyByWeekday:
		k = monthsBetween(start, t) / rule.Interval
	case models.RecurrenceYearly:
		k = monthsBetween(start, t) / (12 * rule.Interval)
	default:
		return 0
	}
	for k > 0 && !nominalStart(rule, start, k).Before(t) {
		k--
	}
	return k
}

func monthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}

// Sequence yields every nominal occurrence of the rule in order, honoring the
// end condition and the scan cap.
func (e *Evaluator) Sequence(rule models.RecurrenceRule, firstStart, firstEnd time.Time) iter.Seq[models.NominalOccurrence] {
	return e.sequenceFrom(rule, firstStart, firstEnd, 0)
}

// sequenceFrom yields the occurrences from index from on. The rrule is
// re-anchored on that occurrence, with the remaining count, so the cost does
// not grow with the age of the series.
func (e *Evaluator) sequenceFrom(rule models.RecurrenceRule, firstStart, firstEnd time.Time, from int) iter.Seq[models.NominalOccurrence] {
	return func(yield func(models.NominalOccurrence) bool) {
		if from < 0 || from >= e.maxScan {
			return
		}
		if from > 0 {
			if rule.Type == models.RecurrenceNone || rule.Type == "" {
				return
			}
			if rule.End.Kind == models.EndAfterCount && from >= rule.End.Count {
				return
			}
			rule = Normalize(rule, firstStart)
		}

		opt, err := RRuleOption(rule, nominalStart(rule, firstStart, from))
		if err != nil {
			return
		}
		if from > 0 && opt.Count > 0 {
			opt.Count -= from
		}
		r, err := rrule.NewRRule(opt)
		if err != nil {
			return
		}

		duration := firstEnd.Sub(firstStart)
		next := r.Iterator()
		for i := from; i < e.maxScan; i++ {
			start, ok := next()
			if !ok {
				return
			}
			if !yield(models.NominalOccurrence{Index: i, Start: start, End: start.Add(duration)}) {
				return
			}
		}
	}
}

// Expand returns the nominal occurrences intersecting [windowStart, windowEnd).
// The end condition is applied to the whole series before windowing.
func (e *Evaluator) Expand(rule models.RecurrenceRule, firstStart, firstEnd, windowStart, windowEnd time.Time) []models.NominalOccurrence {
	var out []models.NominalOccurrence
	if !windowEnd.After(windowStart) {
		return out
	}
	// nothing starting before windowStart-duration can reach the window
	from := seekIndex(rule, firstStart, windowStart.Add(-firstEnd.Sub(firstStart)))
	for occ := range e.sequenceFrom(rule, firstStart, firstEnd, from) {
		if !occ.Start.Before(windowEnd) {
			break
		}
		if Intersects(occ.Start, occ.End, windowStart, windowEnd) {
			out = append(out, occ)
		}
	}
	return out
}

// NextFrom returns the first occurrence starting at or after t.
func (e *Evaluator) NextFrom(rule models.RecurrenceRule, firstStart, firstEnd, t time.Time) (models.NominalOccurrence, bool) {
	for occ := range e.sequenceFrom(rule, firstStart, firstEnd, seekIndex(rule, firstStart, t)) {
		if !occ.Start.Before(t) {
			return occ, true
		}
	}
	return models.NominalOccurrence{}, false
}

// Intersects reports whether [start, end) overlaps [windowStart, windowEnd).
// A zero-length occurrence intersects when it starts inside the window.
func Intersects(start, end, windowStart, windowEnd time.Time) bool {
	if !start.Before(windowEnd) {
		return false
	}
	if end.Equal(start) {
		return !start.Before(windowStart)
	}
	return end.After(windowStart)
}

// OccurrenceAt returns the nominal occurrence at index, if the series has one.
func (e *Evaluator) OccurrenceAt(rule models.RecurrenceRule, firstStart, firstEnd time.Time, index int) (models.NominalOccurrence, bool) {
	if index < 0 {
		return models.NominalOccurrence{}, false
	}
	if rule.End.Kind == models.EndAfterCount && index >= rule.End.Count {
		return models.NominalOccurrence{}, false
	}
	for occ := range e.sequenceFrom(rule, firstStart, firstEnd, index) {
		return occ, true
	}
	return models.NominalOccurrence{}, false
}

// Count returns the number of occurrences of a bounded rule. The second result
// is false for unbounded rules.
func (e *Evaluator) Count(rule models.RecurrenceRule, firstStart, firstEnd time.Time) (int, bool) {
	switch {
	case rule.Type == models.RecurrenceNone:
		return 1, true
	case rule.End.Kind == models.EndAfterCount:
		return rule.End.Count, true
	case rule.End.Kind == models.EndOnDate:
		n := 0
		for range e.Sequence(rule, firstStart, firstEnd) {
			n++
		}
		return n, true
	default:
		return 0, false
	}
}

// Last returns the final occurrence of a bounded rule.
func (e *Evaluator) Last(rule models.RecurrenceRule, firstStart, firstEnd time.Time) (models.NominalOccurrence, bool) {
	if _, bounded := e.Count(rule, firstStart, firstEnd); !bounded {
		return models.NominalOccurrence{}, false
	}
	var last models.NominalOccurrence
	found := false
	for occ := range e.Sequence(rule, firstStart, firstEnd) {
		last = occ
		found = true
	}
	return last, found
}
