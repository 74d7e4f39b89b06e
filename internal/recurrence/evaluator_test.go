// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package recurrence

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain/models"
)

func utc(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}

func starts(occs []models.NominalOccurrence) []time.Time {
	out := make([]time.Time, 0, len(occs))
	for _, o := range occs {
		out = append(out, o.Start)
	}
	return out
}

func rule(t models.RecurrenceType, interval int, end models.EndCondition) models.RecurrenceRule {
	return models.RecurrenceRule{Type: t, Interval: interval, End: end}
}

func TestEvaluator_Expand(t *testing.T) {
	e := NewEvaluator(0)

	tests := []struct {
		name        string
		rule        models.RecurrenceRule
		firstStart  time.Time
		duration    time.Duration
		windowStart time.Time
		windowEnd   time.Time
		want        []time.Time
	}{
		{
			name:        "weekly four week window",
			rule:        rule(models.RecurrenceWeekly, 1, models.NeverEnds()),
			firstStart:  utc(2024, time.January, 1, 10, 0), // Monday
			duration:    time.Hour,
			windowStart: utc(2024, time.January, 1, 0, 0),
			windowEnd:   utc(2024, time.January, 29, 0, 0),
			want: []time.Time{
				utc(2024, time.January, 1, 10, 0),
				utc(2024, time.January, 8, 10, 0),
				utc(2024, time.January, 15, 10, 0),
				utc(2024, time.January, 22, 10, 0),
			},
		},
		{
			name:        "daily every 3 days",
			rule:        rule(models.RecurrenceDaily, 3, models.NeverEnds()),
			firstStart:  utc(2024, time.June, 1, 14, 30),
			duration:    45 * time.Minute,
			windowStart: utc(2024, time.June, 1, 0, 0),
			windowEnd:   utc(2024, time.June, 8, 0, 0),
			want: []time.Time{
				utc(2024, time.June, 1, 14, 30),
				utc(2024, time.June, 4, 14, 30),
				utc(2024, time.June, 7, 14, 30),
			},
		},
		{
			name:        "biweekly doubles the interval",
			rule:        rule(models.RecurrenceBiweekly, 1, models.NeverEnds()),
			firstStart:  utc(2024, time.January, 1, 9, 0),
			duration:    30 * time.Minute,
			windowStart: utc(2024, time.January, 1, 0, 0),
			windowEnd:   utc(2024, time.February, 1, 0, 0),
			want: []time.Time{
				utc(2024, time.January, 1, 9, 0),
				utc(2024, time.January, 15, 9, 0),
				utc(2024, time.January, 29, 9, 0),
			},
		},
		{
			name:        "monthly by date clamps to the month end in a leap year",
			rule:        rule(models.RecurrenceMonthlyByDate, 1, models.NeverEnds()),
			firstStart:  utc(2024, time.January, 31, 12, 0),
			duration:    time.Hour,
			windowStart: utc(2024, time.January, 1, 0, 0),
			windowEnd:   utc(2024, time.June, 1, 0, 0),
			want: []time.Time{
				utc(2024, time.January, 31, 12, 0),
				utc(2024, time.February, 29, 12, 0),
				utc(2024, time.March, 31, 12, 0),
				utc(2024, time.April, 30, 12, 0),
				utc(2024, time.May, 31, 12, 0),
			},
		},
		{
			name:        "monthly by date clamps february in a common year",
			rule:        rule(models.RecurrenceMonthlyByDate, 1, models.NeverEnds()),
			firstStart:  utc(2023, time.January, 30, 8, 0),
			duration:    time.Hour,
			windowStart: utc(2023, time.January, 1, 0, 0),
			windowEnd:   utc(2023, time.April, 1, 0, 0),
			want: []time.Time{
				utc(2023, time.January, 30, 8, 0),
				utc(2023, time.February, 28, 8, 0),
				utc(2023, time.March, 30, 8, 0),
			},
		},
		{
			name:        "monthly by date every 2 months",
			rule:        rule(models.RecurrenceMonthlyByDate, 2, models.NeverEnds()),
			firstStart:  utc(2024, time.January, 15, 8, 0),
			duration:    time.Hour,
			windowStart: utc(2024, time.January, 1, 0, 0),
			windowEnd:   utc(2024, time.June, 1, 0, 0),
			want: []time.Time{
				utc(2024, time.January, 15, 8, 0),
				utc(2024, time.March, 15, 8, 0),
				utc(2024, time.May, 15, 8, 0),
			},
		},
		{
			name:        "monthly by weekday third tuesday",
			rule:        rule(models.RecurrenceMonthlyByWeekday, 1, models.NeverEnds()),
			firstStart:  utc(2024, time.January, 16, 17, 0),
			duration:    time.Hour,
			windowStart: utc(2024, time.January, 1, 0, 0),
			windowEnd:   utc(2024, time.April, 1, 0, 0),
			want: []time.Time{
				utc(2024, time.January, 16, 17, 0),
				utc(2024, time.February, 20, 17, 0),
				utc(2024, time.March, 19, 17, 0),
			},
		},
		{
			name:        "monthly by weekday fifth week becomes last",
			rule:        rule(models.RecurrenceMonthlyByWeekday, 1, models.NeverEnds()),
			firstStart:  utc(2024, time.January, 30, 17, 0),
			duration:    time.Hour,
			windowStart: utc(2024, time.January, 1, 0, 0),
			windowEnd:   utc(2024, time.May, 1, 0, 0),
			want: []time.Time{
				utc(2024, time.January, 30, 17, 0),
				utc(2024, time.February, 27, 17, 0),
				utc(2024, time.March, 26, 17, 0),
				utc(2024, time.April, 30, 17, 0),
			},
		},
		{
			name:        "yearly on leap day clamps to february 28",
			rule:        rule(models.RecurrenceYearly, 1, models.NeverEnds()),
			firstStart:  utc(2024, time.February, 29, 9, 0),
			duration:    time.Hour,
			windowStart: utc(2024, time.January, 1, 0, 0),
			windowEnd:   utc(2029, time.January, 1, 0, 0),
			want: []time.Time{
				utc(2024, time.February, 29, 9, 0),
				utc(2025, time.February, 28, 9, 0),
				utc(2026, time.February, 28, 9, 0),
				utc(2027, time.February, 28, 9, 0),
				utc(2028, time.February, 29, 9, 0),
			},
		},
		{
			name:        "on date end is inclusive",
			rule:        rule(models.RecurrenceDaily, 1, models.EndsOn(utc(2024, time.January, 3, 10, 0))),
			firstStart:  utc(2024, time.January, 1, 10, 0),
			duration:    time.Hour,
			windowStart: utc(2024, time.January, 1, 0, 0),
			windowEnd:   utc(2024, time.February, 1, 0, 0),
			want: []time.Time{
				utc(2024, time.January, 1, 10, 0),
				utc(2024, time.January, 2, 10, 0),
				utc(2024, time.January, 3, 10, 0),
			},
		},
		{
			name:        "none yields a single occurrence",
			rule:        models.SingleOccurrence(),
			firstStart:  utc(2024, time.March, 5, 10, 0),
			duration:    time.Hour,
			windowStart: utc(2024, time.March, 1, 0, 0),
			windowEnd:   utc(2024, time.April, 1, 0, 0),
			want:        []time.Time{utc(2024, time.March, 5, 10, 0)},
		},
		{
			name:        "none outside the window",
			rule:        models.SingleOccurrence(),
			firstStart:  utc(2024, time.March, 5, 10, 0),
			duration:    time.Hour,
			windowStart: utc(2024, time.April, 1, 0, 0),
			windowEnd:   utc(2024, time.May, 1, 0, 0),
			want:        []time.Time{},
		},
		{
			name:        "occurrence overlapping the window start is included",
			rule:        rule(models.RecurrenceDaily, 1, models.NeverEnds()),
			firstStart:  utc(2024, time.January, 1, 23, 0),
			duration:    2 * time.Hour,
			windowStart: utc(2024, time.January, 2, 0, 0),
			windowEnd:   utc(2024, time.January, 2, 12, 0),
			want:        []time.Time{utc(2024, time.January, 1, 23, 0)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Normalize(tt.rule, tt.firstStart)
			firstEnd := tt.firstStart.Add(tt.duration)
			require.NoError(t, e.Validate(r, tt.firstStart, firstEnd))

			got := e.Expand(r, tt.firstStart, firstEnd, tt.windowStart, tt.windowEnd)

			if diff := cmp.Diff(tt.want, starts(got)); diff != "" {
				t.Errorf("Expand() starts mismatch (-want +got):\n%s", diff)
			}
			for _, occ := range got {
				assert.Equal(t, tt.duration, occ.End.Sub(occ.Start), "duration preserved")
			}
		})
	}
}

func TestEvaluator_Expand_WeeklyScenario(t *testing.T) {
	e := NewEvaluator(0)
	first := utc(2024, time.January, 1, 10, 0)
	r := Normalize(rule(models.RecurrenceWeekly, 1, models.NeverEnds()), first)

	got := e.Expand(r, first, first.Add(time.Hour), utc(2024, time.January, 1, 0, 0), utc(2024, time.January, 29, 0, 0))

	require.Len(t, got, 4)
	for i, occ := range got {
		assert.Equal(t, i, occ.Index)
		assert.Equal(t, first.AddDate(0, 0, 7*i), occ.Start)
		assert.Equal(t, time.Hour, occ.End.Sub(occ.Start))
	}
}

func TestEvaluator_Expand_AfterCountAppliesBeforeWindowing(t *testing.T) {
	e := NewEvaluator(0)
	first := utc(2024, time.January, 1, 10, 0)
	r := Normalize(rule(models.RecurrenceDaily, 1, models.EndsAfter(5)), first)
	end := first.Add(time.Hour)

	all := e.Expand(r, first, end, utc(2000, time.January, 1, 0, 0), utc(2100, time.January, 1, 0, 0))
	require.Len(t, all, 5)
	assert.Equal(t, 4, all[4].Index)

	// The window starting on day 2 sees indices 1..4 only, still numbered from the series start.
	partial := e.Expand(r, first, end, utc(2024, time.January, 2, 0, 0), utc(2024, time.February, 1, 0, 0))
	require.Len(t, partial, 4)
	assert.Equal(t, 1, partial[0].Index)

	// Occurrence 5 would be on Jan 6; no window may contain it.
	beyond := e.Expand(r, first, end, utc(2024, time.January, 6, 0, 0), utc(2024, time.January, 10, 0, 0))
	assert.Empty(t, beyond)

	_, ok := e.OccurrenceAt(r, first, end, 5)
	assert.False(t, ok)
}

func TestEvaluator_Expand_StrictlyIncreasing(t *testing.T) {
	e := NewEvaluator(0)
	first := utc(2024, time.January, 31, 10, 0) // Wednesday, fifth week, month end

	for _, typ := range models.RecurrenceTypes {
		for _, interval := range []int{1, 2, 3} {
			t.Run(string(typ), func(t *testing.T) {
				r := Normalize(rule(typ, interval, models.EndsAfter(40)), first)
				require.NoError(t, e.Validate(r, first, first.Add(time.Hour)))

				got := e.Expand(r, first, first.Add(time.Hour), utc(2024, time.January, 1, 0, 0), utc(2200, time.January, 1, 0, 0))
				require.NotEmpty(t, got)

				seen := map[int]bool{}
				for i, occ := range got {
					assert.False(t, seen[occ.Index], "duplicate index %d", occ.Index)
					seen[occ.Index] = true
					assert.Equal(t, i, occ.Index)
					if i > 0 {
						assert.True(t, occ.Start.After(got[i-1].Start), "start %s not after %s", occ.Start, got[i-1].Start)
					}
				}
			})
		}
	}
}

func TestEvaluator_Expand_AllDayStepsWholeDays(t *testing.T) {
	e := NewEvaluator(0)
	// Local midnight to 23:59:59 in UTC-5, captured once at creation.
	first := time.Date(2024, time.March, 8, 5, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.March, 9, 4, 59, 59, 0, time.UTC)
	r := Normalize(rule(models.RecurrenceDaily, 1, models.EndsAfter(4)), first)

	got := e.Expand(r, first, end, first, first.AddDate(0, 0, 10))

	require.Len(t, got, 4)
	for i, occ := range got {
		assert.Equal(t, first.Add(time.Duration(i)*24*time.Hour), occ.Start)
		assert.Equal(t, end.Sub(first), occ.End.Sub(occ.Start))
	}
}

func TestEvaluator_SplitAnchorsSurvive(t *testing.T) {
	e := NewEvaluator(0)
	first := utc(2024, time.January, 31, 12, 0)
	r := Normalize(rule(models.RecurrenceMonthlyByDate, 1, models.NeverEnds()), first)
	assert.Equal(t, 31, r.DayOfMonth)

	// A series starting on the clamped Feb 29 keeps following the 31st.
	feb := utc(2024, time.February, 29, 12, 0)
	split := Normalize(r, feb)
	require.NoError(t, e.Validate(split, feb, feb.Add(time.Hour)))

	got := e.Expand(split, feb, feb.Add(time.Hour), feb, utc(2024, time.May, 1, 0, 0))
	want := []time.Time{
		utc(2024, time.February, 29, 12, 0),
		utc(2024, time.March, 31, 12, 0),
		utc(2024, time.April, 30, 12, 0),
	}
	if diff := cmp.Diff(want, starts(got)); diff != "" {
		t.Errorf("split series mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluator_Validate(t *testing.T) {
	e := NewEvaluator(0)
	first := utc(2024, time.January, 15, 10, 0)
	end := first.Add(time.Hour)

	tests := []struct {
		name  string
		rule  models.RecurrenceRule
		start time.Time
		end   time.Time
	}{
		{name: "zero interval", rule: rule(models.RecurrenceDaily, 0, models.NeverEnds()), start: first, end: end},
		{name: "negative interval", rule: rule(models.RecurrenceWeekly, -2, models.NeverEnds()), start: first, end: end},
		{name: "unknown type", rule: rule("Fortnightly", 1, models.NeverEnds()), start: first, end: end},
		{name: "zero count", rule: rule(models.RecurrenceDaily, 1, models.EndsAfter(0)), start: first, end: end},
		{name: "until before start", rule: rule(models.RecurrenceDaily, 1, models.EndsOn(first.AddDate(0, 0, -1))), start: first, end: end},
		{name: "on date without until", rule: rule(models.RecurrenceDaily, 1, models.EndCondition{Kind: models.EndOnDate}), start: first, end: end},
		{name: "unknown end kind", rule: rule(models.RecurrenceDaily, 1, models.EndCondition{Kind: "sometimes"}), start: first, end: end},
		{name: "end before start", rule: rule(models.RecurrenceDaily, 1, models.NeverEnds()), start: first, end: first.Add(-time.Minute)},
		{name: "zero start", rule: rule(models.RecurrenceDaily, 1, models.NeverEnds()), start: time.Time{}, end: end},
		{
			name:  "anchor does not match first start",
			rule:  models.RecurrenceRule{Type: models.RecurrenceMonthlyByDate, Interval: 1, End: models.NeverEnds(), DayOfMonth: 31},
			start: first,
			end:   end,
		},
		{
			name:  "week of month out of range",
			rule:  models.RecurrenceRule{Type: models.RecurrenceMonthlyByWeekday, Interval: 1, End: models.NeverEnds(), WeekOfMonth: 5},
			start: first,
			end:   end,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.Validate(tt.rule, tt.start, tt.end)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidRule)
			assert.Equal(t, domain.ErrorTypeInvalidRule, domain.GetErrorType(err))
		})
	}
}

func TestEvaluator_CountAndLast(t *testing.T) {
	e := NewEvaluator(0)
	first := utc(2024, time.January, 1, 10, 0)
	end := first.Add(time.Hour)

	n, bounded := e.Count(rule(models.RecurrenceDaily, 1, models.EndsAfter(7)), first, end)
	assert.True(t, bounded)
	assert.Equal(t, 7, n)

	n, bounded = e.Count(rule(models.RecurrenceWeekly, 1, models.EndsOn(utc(2024, time.January, 29, 10, 0))), first, end)
	assert.True(t, bounded)
	assert.Equal(t, 5, n)

	_, bounded = e.Count(rule(models.RecurrenceWeekly, 1, models.NeverEnds()), first, end)
	assert.False(t, bounded)

	n, bounded = e.Count(models.SingleOccurrence(), first, end)
	assert.True(t, bounded)
	assert.Equal(t, 1, n)

	last, ok := e.Last(rule(models.RecurrenceDaily, 2, models.EndsAfter(3)), first, end)
	require.True(t, ok)
	assert.Equal(t, utc(2024, time.January, 5, 10, 0), last.Start)
	assert.Equal(t, 2, last.Index)

	_, ok = e.Last(rule(models.RecurrenceDaily, 1, models.NeverEnds()), first, end)
	assert.False(t, ok)
}

func TestEvaluator_OccurrenceAt(t *testing.T) {
	e := NewEvaluator(0)
	first := utc(2024, time.January, 1, 10, 0)
	r := rule(models.RecurrenceWeekly, 1, models.NeverEnds())

	occ, ok := e.OccurrenceAt(r, first, first.Add(time.Hour), 10)
	require.True(t, ok)
	assert.Equal(t, 10, occ.Index)
	assert.Equal(t, first.AddDate(0, 0, 70), occ.Start)

	_, ok = e.OccurrenceAt(r, first, first.Add(time.Hour), -1)
	assert.False(t, ok)
}

func TestEvaluator_ScanCap(t *testing.T) {
	e := NewEvaluator(10)
	first := utc(2024, time.January, 1, 10, 0)
	r := rule(models.RecurrenceDaily, 1, models.NeverEnds())

	got := e.Expand(r, first, first.Add(time.Hour), first, first.AddDate(1, 0, 0))
	assert.Len(t, got, 10)
}

func TestRRuleOption(t *testing.T) {
	first := utc(2024, time.January, 31, 12, 0)

	opt, err := RRuleOption(Normalize(rule(models.RecurrenceMonthlyByDate, 1, models.EndsAfter(6)), first), first)
	require.NoError(t, err)
	assert.Equal(t, "FREQ=MONTHLY;INTERVAL=1;COUNT=6;BYSETPOS=-1;BYMONTHDAY=28,29,30,31", opt.RRuleString())

	opt, err = RRuleOption(Normalize(rule(models.RecurrenceBiweekly, 2, models.NeverEnds()), first), first)
	require.NoError(t, err)
	assert.Equal(t, "FREQ=WEEKLY;INTERVAL=4", opt.RRuleString())

	_, err = RRuleOption(rule("Hourly", 1, models.NeverEnds()), first)
	assert.Error(t, err)
}

func TestIntersects(t *testing.T) {
	ws := utc(2024, time.January, 1, 0, 0)
	we := utc(2024, time.January, 2, 0, 0)

	assert.True(t, Intersects(ws, ws.Add(time.Hour), ws, we))
	assert.False(t, Intersects(we, we.Add(time.Hour), ws, we), "starting at the window end is outside")
	assert.False(t, Intersects(ws.Add(-time.Hour), ws, ws, we), "ending at the window start is outside")
	assert.True(t, Intersects(ws, ws, ws, we), "zero-length at the window start is inside")
	assert.False(t, Intersects(we, we, ws, we))
}

func TestEvaluator_SeekingMatchesFullScan(t *testing.T) {
	e := NewEvaluator(0)
	const total = 200

	tests := []struct {
		name       string
		rule       models.RecurrenceRule
		firstStart time.Time
		duration   time.Duration
	}{
		{name: "daily every 3 days", rule: rule(models.RecurrenceDaily, 3, models.NeverEnds()), firstStart: utc(2024, time.June, 1, 14, 30), duration: 45 * time.Minute},
		{name: "weekly", rule: rule(models.RecurrenceWeekly, 1, models.NeverEnds()), firstStart: utc(2024, time.January, 1, 10, 0), duration: time.Hour},
		{name: "biweekly every other", rule: rule(models.RecurrenceBiweekly, 2, models.NeverEnds()), firstStart: utc(2024, time.January, 3, 9, 0), duration: 30 * time.Minute},
		{name: "monthly on the 31st", rule: rule(models.RecurrenceMonthlyByDate, 1, models.NeverEnds()), firstStart: utc(2024, time.January, 31, 12, 0), duration: time.Hour},
		{name: "monthly on the 15th every 2 months", rule: rule(models.RecurrenceMonthlyByDate, 2, models.NeverEnds()), firstStart: utc(2024, time.January, 15, 8, 0), duration: time.Hour},
		{name: "third tuesday", rule: rule(models.RecurrenceMonthlyByWeekday, 1, models.NeverEnds()), firstStart: utc(2024, time.January, 16, 17, 0), duration: time.Hour},
		{name: "last friday every 3 months", rule: rule(models.RecurrenceMonthlyByWeekday, 3, models.NeverEnds()), firstStart: utc(2024, time.March, 29, 15, 0), duration: time.Hour},
		{name: "yearly on february 29", rule: rule(models.RecurrenceYearly, 1, models.NeverEnds()), firstStart: utc(2024, time.February, 29, 9, 0), duration: 2 * time.Hour},
		{name: "multi-day weekly", rule: rule(models.RecurrenceWeekly, 1, models.NeverEnds()), firstStart: utc(2024, time.January, 1, 10, 0), duration: 50 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			firstEnd := tt.firstStart.Add(tt.duration)
			var full []models.NominalOccurrence
			for occ := range e.Sequence(tt.rule, tt.firstStart, firstEnd) {
				full = append(full, occ)
				if len(full) == total {
					break
				}
			}
			require.Len(t, full, total)

			for _, i := range []int{0, 1, 2, 11, 12, 13, 59, 123, total - 1} {
				occ, ok := e.OccurrenceAt(tt.rule, tt.firstStart, firstEnd, i)
				require.True(t, ok, "occurrence %d", i)
				assert.Empty(t, cmp.Diff(full[i], occ), "occurrence %d", i)
			}

			for _, i := range []int{0, 5, 37, 120, total - 10} {
				// from the middle of occurrence i to the start of occurrence i+5
				ws := full[i].Start.Add(tt.duration / 2)
				we := full[i+5].Start
				var want []models.NominalOccurrence
				for _, occ := range full {
					if Intersects(occ.Start, occ.End, ws, we) {
						want = append(want, occ)
					}
				}
				got := e.Expand(tt.rule, tt.firstStart, firstEnd, ws, we)
				assert.Empty(t, cmp.Diff(want, got), "window at occurrence %d", i)

				next, ok := e.NextFrom(tt.rule, tt.firstStart, firstEnd, ws)
				require.True(t, ok)
				assert.Equal(t, i+1, next.Index)
			}
		})
	}
}

func TestEvaluator_SeekingHonorsEndConditions(t *testing.T) {
	e := NewEvaluator(0)
	first := utc(2024, time.January, 1, 10, 0)
	end := first.Add(time.Hour)

	counted := rule(models.RecurrenceWeekly, 1, models.EndsAfter(40))
	last, ok := e.OccurrenceAt(counted, first, end, 39)
	require.True(t, ok)
	assert.Equal(t, first.AddDate(0, 0, 7*39), last.Start)
	_, ok = e.OccurrenceAt(counted, first, end, 40)
	assert.False(t, ok)
	got := e.Expand(counted, first, end, first.AddDate(0, 0, 7*38), first.AddDate(1, 0, 0))
	require.Len(t, got, 2)
	assert.Equal(t, []int{38, 39}, []int{got[0].Index, got[1].Index})

	until := utc(2024, time.March, 31, 0, 0)
	dated := rule(models.RecurrenceMonthlyByDate, 1, models.EndsOn(until))
	_, ok = e.NextFrom(dated, utc(2024, time.January, 31, 12, 0), utc(2024, time.January, 31, 13, 0), until)
	assert.False(t, ok, "the march occurrence starts after the until date")
	occ, ok := e.NextFrom(dated, utc(2024, time.January, 31, 12, 0), utc(2024, time.January, 31, 13, 0), utc(2024, time.February, 1, 0, 0))
	require.True(t, ok)
	assert.Equal(t, utc(2024, time.February, 29, 12, 0), occ.Start)

	_, ok = e.NextFrom(rule(models.RecurrenceNone, 1, models.NeverEnds()), first, end, first.Add(time.Minute))
	assert.False(t, ok)
}
