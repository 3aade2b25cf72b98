package progress

import (
	"reflect"
	"testing"
	"time"

	"github.com/kotoba-study/kotoba/internal/db"
)

var now = time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC)

func wordAt(t time.Time, learned bool, d db.Difficulty) db.Word {
	return db.Word{Headword: "語", CreatedAt: t, Learned: learned, Difficulty: d}
}

func daysAgo(n int) time.Time {
	return now.AddDate(0, 0, -n)
}

func dates(days []DayCount) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = d.Date
	}
	return out
}

// TestAggregateEmpty tests the summary of no words
func TestAggregateEmpty(t *testing.T) {
	s := Aggregate(nil, 5, now, time.UTC)

	if s.Total != 0 || s.Learned != 0 || s.DaysSinceFirstEntry != 0 {
		t.Errorf("expected zero summary, got %+v", s)
	}
	if s.Daily == nil || len(s.Daily) != 0 {
		t.Errorf("expected empty non-nil daily list, got %v", s.Daily)
	}
	if s.GoalMetDays == nil || len(s.GoalMetDays) != 0 {
		t.Errorf("expected empty non-nil goal list, got %v", s.GoalMetDays)
	}
	if s.CurrentStreak != 0 {
		t.Errorf("expected no streak, got %d", s.CurrentStreak)
	}
}

// TestAggregateFiveToday tests a goal met on the first day
func TestAggregateFiveToday(t *testing.T) {
	var words []db.Word
	for i := 0; i < 5; i++ {
		words = append(words, wordAt(now.Add(-time.Duration(i)*time.Hour), false, db.DifficultyMedium))
	}

	s := Aggregate(words, 5, now, time.UTC)

	if got := dates(s.GoalMetDays); !reflect.DeepEqual(got, []string{"2024-03-10"}) {
		t.Errorf("goal met days = %v", got)
	}
	if s.DaysSinceFirstEntry != 1 {
		t.Errorf("days since first entry = %d, want 1", s.DaysSinceFirstEntry)
	}
	if s.TodayCount != 5 {
		t.Errorf("today count = %d, want 5", s.TodayCount)
	}
	if s.CurrentStreak != 1 {
		t.Errorf("streak = %d, want 1", s.CurrentStreak)
	}
}

// TestAggregateOrdering tests chart and goal list ordering
func TestAggregateOrdering(t *testing.T) {
	words := []db.Word{
		wordAt(daysAgo(0), true, db.DifficultyEasy),
		wordAt(daysAgo(4), true, db.DifficultyEasy),
		wordAt(daysAgo(4), false, db.DifficultyHard),
		wordAt(daysAgo(2), false, db.DifficultyHard),
		wordAt(daysAgo(2), false, db.DifficultyMedium),
		wordAt(daysAgo(2), true, db.DifficultyMedium),
	}

	s := Aggregate(words, 2, now, time.UTC)

	wantDaily := []DayCount{
		{Date: "2024-03-06", Count: 2},
		{Date: "2024-03-08", Count: 3},
		{Date: "2024-03-10", Count: 1},
	}
	if len(s.Daily) != len(wantDaily) {
		t.Fatalf("daily = %v", s.Daily)
	}
	for i, want := range wantDaily {
		if s.Daily[i].Date != want.Date || s.Daily[i].Count != want.Count {
			t.Errorf("daily[%d] = %+v, want %+v", i, s.Daily[i], want)
		}
	}
	if got := dates(s.GoalMetDays); !reflect.DeepEqual(got, []string{"2024-03-08", "2024-03-06"}) {
		t.Errorf("goal met days = %v", got)
	}
	if s.DaysSinceFirstEntry != 5 {
		t.Errorf("days since first entry = %d, want 5", s.DaysSinceFirstEntry)
	}
	if s.Total != 6 || s.Learned != 3 {
		t.Errorf("total/learned = %d/%d", s.Total, s.Learned)
	}
	if s.Difficulty != (DifficultyCounts{Easy: 2, Medium: 2, Hard: 2}) {
		t.Errorf("difficulty = %+v", s.Difficulty)
	}
	if s.CurrentStreak != 0 {
		t.Errorf("streak = %d, want 0", s.CurrentStreak)
	}
}

// TestAggregateIdempotent tests that repeated calls agree
func TestAggregateIdempotent(t *testing.T) {
	words := []db.Word{
		wordAt(daysAgo(1), true, db.DifficultyEasy),
		wordAt(daysAgo(3), false, db.DifficultyHard),
	}
	a := Aggregate(words, 1, now, time.UTC)
	b := Aggregate(words, 1, now, time.UTC)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("aggregate not idempotent:\n%+v\n%+v", a, b)
	}
}

// TestAggregateUsesLocalDays tests grouping by the user's calendar day
func TestAggregateUsesLocalDays(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	words := []db.Word{
		wordAt(time.Date(2024, 3, 9, 14, 0, 0, 0, time.UTC), false, db.DifficultyEasy),
		wordAt(time.Date(2024, 3, 9, 16, 0, 0, 0, time.UTC), false, db.DifficultyEasy),
	}

	utc := Aggregate(words, 1, now, time.UTC)
	if len(utc.Daily) != 1 {
		t.Errorf("expected one UTC day, got %v", utc.Daily)
	}

	local := Aggregate(words, 1, time.Date(2024, 3, 10, 12, 0, 0, 0, tokyo), tokyo)
	if got := dates(local.Daily); !reflect.DeepEqual(got, []string{"2024-03-09", "2024-03-10"}) {
		t.Errorf("tokyo days = %v", got)
	}
	if local.TodayCount != 1 {
		t.Errorf("tokyo today count = %d, want 1", local.TodayCount)
	}
}

// TestAggregateAcrossDST tests day counting over a daylight saving change
func TestAggregateAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	first := time.Date(2024, 3, 9, 23, 30, 0, 0, ny)
	today := time.Date(2024, 3, 11, 0, 30, 0, 0, ny)

	s := Aggregate([]db.Word{wordAt(first, false, db.DifficultyEasy)}, 1, today, ny)
	if s.DaysSinceFirstEntry != 3 {
		t.Errorf("days since first entry = %d, want 3", s.DaysSinceFirstEntry)
	}
}

// TestCurrentStreak tests consecutive goal days
func TestCurrentStreak(t *testing.T) {
	tests := []struct {
		name string
		ago  []int
		goal int
		want int
	}{
		{"today and two before", []int{0, 1, 2, 4}, 1, 3},
		{"today still open", []int{1, 2}, 1, 2},
		{"gap yesterday", []int{0, 2, 3}, 1, 1},
		{"broken two days ago", []int{2, 3}, 1, 0},
		{"goal not met", []int{0, 1}, 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var words []db.Word
			for _, n := range tt.ago {
				words = append(words, wordAt(daysAgo(n), false, db.DifficultyEasy))
			}
			s := Aggregate(words, tt.goal, now, time.UTC)
			if s.CurrentStreak != tt.want {
				t.Errorf("streak = %d, want %d", s.CurrentStreak, tt.want)
			}
		})
	}
}
