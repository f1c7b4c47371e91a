// Package stats computes the yearly aggregates exported by the pipeline.
package stats

import (
	"encoding/json"
	"sort"
	"time"

	"msgwrapped/internal/domain"
)

// ContactCount pairs a resolved correspondent name with a message count.
type ContactCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// YearStats aggregates one calendar year of message history.
type YearStats struct {
	Year            int            `json:"year"`
	Total           int            `json:"total"`
	Sent            int            `json:"sent"`
	Received        int            `json:"received"`
	ByMonth         [12]int        `json:"byMonth"`
	ByWeekday       [7]int         `json:"byWeekday"`
	ByHour          [24]int        `json:"byHour"`
	AvgLength       float64        `json:"avgLength"`
	TopContacts     []ContactCount `json:"topContacts"`
	BusiestDay      string         `json:"busiestDay"`
	BusiestDayCount int            `json:"busiestDayCount"`
}

// YearsStats is the aggregate sent to the remote service. It is opaque to
// the rest of the pipeline beyond Marshal.
type YearsStats struct {
	Years []YearStats `json:"years"`
}

// Marshal serializes the aggregate deterministically: struct field order is
// fixed and the year slice is sorted ascending.
func (s *YearsStats) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// PhaseTiming is one timed stat category.
type PhaseTiming struct {
	Name     string
	Duration time.Duration
}

// Produce computes the per-year aggregates from ordered message records and
// the contact/handle indices. Each category is timed independently.
func Produce(messages []domain.MessageRecord, contacts domain.Contacts, handles domain.Handles) (*YearsStats, []PhaseTiming) {
	var timings []PhaseTiming
	timed := func(name string, fn func()) {
		start := time.Now()
		fn()
		timings = append(timings, PhaseTiming{Name: name, Duration: time.Since(start)})
	}

	byYear := make(map[int]*YearStats)
	yearOf := func(m domain.MessageRecord) *YearStats {
		y := m.Time().Year()
		ys, ok := byYear[y]
		if !ok {
			ys = &YearStats{Year: y}
			byYear[y] = ys
		}
		return ys
	}

	timed("message totals", func() {
		for _, m := range messages {
			ys := yearOf(m)
			ys.Total++
			if m.FromMe {
				ys.Sent++
			} else {
				ys.Received++
			}
		}
	})

	timed("time histograms", func() {
		for _, m := range messages {
			ys := yearOf(m)
			t := m.Time()
			ys.ByMonth[int(t.Month())-1]++
			ys.ByWeekday[int(t.Weekday())]++
			ys.ByHour[t.Hour()]++
		}
	})

	timed("message length", func() {
		lengths := make(map[int]int)
		for _, m := range messages {
			lengths[m.Time().Year()] += len([]rune(m.Text))
		}
		for y, total := range lengths {
			if ys := byYear[y]; ys.Total > 0 {
				ys.AvgLength = float64(total) / float64(ys.Total)
			}
		}
	})

	timed("top correspondents", func() {
		counts := make(map[int]map[string]int)
		for _, m := range messages {
			if m.HandleID == 0 {
				continue
			}
			name := correspondentName(m.HandleID, contacts, handles)
			if name == "" {
				continue
			}
			y := m.Time().Year()
			if counts[y] == nil {
				counts[y] = make(map[string]int)
			}
			counts[y][name]++
		}
		for y, perName := range counts {
			byYear[y].TopContacts = topN(perName, 5)
		}
	})

	timed("busiest day", func() {
		days := make(map[int]map[string]int)
		for _, m := range messages {
			t := m.Time()
			y := t.Year()
			if days[y] == nil {
				days[y] = make(map[string]int)
			}
			days[y][t.Format("2006-01-02")]++
		}
		for y, perDay := range days {
			ys := byYear[y]
			for day, n := range perDay {
				if n > ys.BusiestDayCount || (n == ys.BusiestDayCount && day < ys.BusiestDay) {
					ys.BusiestDay = day
					ys.BusiestDayCount = n
				}
			}
		}
	})

	out := &YearsStats{}
	for _, ys := range byYear {
		out.Years = append(out.Years, *ys)
	}
	sort.Slice(out.Years, func(i, j int) bool { return out.Years[i].Year < out.Years[j].Year })
	return out, timings
}

// correspondentName resolves a handle to a contact display name, falling
// back to the raw identifier when the contact is unknown.
func correspondentName(handleID int64, contacts domain.Contacts, handles domain.Handles) string {
	id, ok := handles.Identifier(handleID)
	if !ok {
		return ""
	}
	if name, ok := contacts.Lookup(id); ok {
		return name
	}
	return id
}

// topN returns the n highest counts, ordered by count descending then name
// ascending so the output is deterministic.
func topN(counts map[string]int, n int) []ContactCount {
	out := make([]ContactCount, 0, len(counts))
	for name, count := range counts {
		out = append(out, ContactCount{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
