// Package progress derives dashboard statistics from a snapshot of words.
package progress

import (
	"sort"
	"time"

	"github.com/kotoba-study/kotoba/internal/db"
)

const dateLayout = "2006-01-02"

// DayCount is the number of words added on one calendar day.
type DayCount struct {
	Date  string    `json:"date"`
	Day   time.Time `json:"-"`
	Count int       `json:"count"`
}

// DifficultyCounts counts words per difficulty bucket.
type DifficultyCounts struct {
	Easy   int `json:"easy"`
	Medium int `json:"medium"`
	Hard   int `json:"hard"`
}

// Summary is everything the dashboard shows.
type Summary struct {
	Daily               []DayCount       `json:"daily"`
	GoalMetDays         []DayCount       `json:"goalMetDays"`
	DaysSinceFirstEntry int              `json:"daysSinceFirstEntry"`
	Total               int              `json:"total"`
	Learned             int              `json:"learned"`
	Difficulty          DifficultyCounts `json:"difficulty"`
	DailyGoal           int              `json:"dailyGoal"`
	TodayCount          int              `json:"todayCount"`
	CurrentStreak       int              `json:"currentStreak"`
}

// Aggregate summarizes words. Days are calendar days in loc and "today" is the
// day of now. Daily is sorted oldest first, GoalMetDays newest first.
func Aggregate(words []db.Word, dailyGoal int, now time.Time, loc *time.Location) Summary {
	if loc == nil {
		loc = time.UTC
	}

	s := Summary{
		Daily:       []DayCount{},
		GoalMetDays: []DayCount{},
		Total:       len(words),
		DailyGoal:   dailyGoal,
	}

	counts := make(map[civil]int)
	for _, w := range words {
		if w.Learned {
			s.Learned++
		}
		switch w.Difficulty {
		case db.DifficultyEasy:
			s.Difficulty.Easy++
		case db.DifficultyMedium:
			s.Difficulty.Medium++
		case db.DifficultyHard:
			s.Difficulty.Hard++
		}
		counts[civilOf(w.CreatedAt, loc)]++
	}

	days := make([]civil, 0, len(counts))
	for d := range counts {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].before(days[j]) })

	for _, d := range days {
		dc := DayCount{Date: d.String(), Day: d.in(loc), Count: counts[d]}
		s.Daily = append(s.Daily, dc)
		if dc.Count >= dailyGoal {
			s.GoalMetDays = append(s.GoalMetDays, dc)
		}
	}
	for i, j := 0, len(s.GoalMetDays)-1; i < j; i, j = i+1, j-1 {
		s.GoalMetDays[i], s.GoalMetDays[j] = s.GoalMetDays[j], s.GoalMetDays[i]
	}

	today := civilOf(now, loc)
	s.TodayCount = counts[today]
	if len(days) > 0 {
		s.DaysSinceFirstEntry = max(daysBetween(days[0], today)+1, 1)
	}
	s.CurrentStreak = streak(counts, dailyGoal, today)
	return s
}

// streak counts consecutive goal-met days ending today, or ending yesterday
// while today's goal is still open.
func streak(counts map[civil]int, goal int, today civil) int {
	met := func(d civil) bool {
		n, ok := counts[d]
		return ok && n >= goal
	}

	day := today
	if !met(day) {
		day = day.addDays(-1)
	}
	n := 0
	for met(day) {
		n++
		day = day.addDays(-1)
	}
	return n
}

// civil is a calendar date without a zone, so day arithmetic ignores DST.
type civil struct {
	year  int
	month time.Month
	day   int
}

func civilOf(t time.Time, loc *time.Location) civil {
	y, m, d := t.In(loc).Date()
	return civil{y, m, d}
}

func (c civil) utc() time.Time {
	return time.Date(c.year, c.month, c.day, 0, 0, 0, 0, time.UTC)
}

func (c civil) in(loc *time.Location) time.Time {
	return time.Date(c.year, c.month, c.day, 0, 0, 0, 0, loc)
}

func (c civil) before(o civil) bool { return c.utc().Before(o.utc()) }

func (c civil) addDays(n int) civil {
	return civilOf(c.utc().AddDate(0, 0, n), time.UTC)
}

func (c civil) String() string { return c.utc().Format(dateLayout) }

func daysBetween(from, to civil) int {
	return int(to.utc().Sub(from.utc()).Hours() / 24)
}
