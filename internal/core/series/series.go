// Package series holds keyword observation rows and the time bucketing shared by
// the velocity detector and the feature builder
package series

import (
	"sort"
	"time"
)

// Observation is one (term, platform, count, batch time) row
// rows are append only and a term's history is the set of all its rows
type Observation struct {
	Term     string    `json:"term"`
	Platform string    `json:"platform"`
	Count    int64     `json:"count"`
	At       time.Time `json:"at"`
}

// Range is a half open [From, To) time interval
// a zero To leaves the range open ended
type Range struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Since returns an open ended range starting at from
func Since(from time.Time) Range { return Range{From: from} }

// Contains reports whether t falls inside the range
func (r Range) Contains(t time.Time) bool {
	if t.Before(r.From) {
		return false
	}
	return r.To.IsZero() || t.Before(r.To)
}

// Open reports whether the range has no upper bound
func (r Range) Open() bool { return r.To.IsZero() }

// Filter returns the rows inside r, optionally restricted to one platform
func Filter(obs []Observation, r Range, platform string) []Observation {
	out := make([]Observation, 0, len(obs))
	for _, o := range obs {
		if platform != "" && o.Platform != platform {
			continue
		}
		if !r.Contains(o.At) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// SumByTerm folds rows into term -> total count
func SumByTerm(obs []Observation) map[string]int64 {
	out := make(map[string]int64, len(obs))
	for _, o := range obs {
		out[o.Term] += o.Count
	}
	return out
}

// DayOf truncates t to its UTC calendar date
func DayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Weekday returns the day of week with Monday as 0 and Sunday as 6
func Weekday(t time.Time) int {
	return (int(t.UTC().Weekday()) + 6) % 7
}

// Days is one term's per day totals in ascending date order
type Days struct {
	Dates  []time.Time
	Counts []int64
}

// Len returns the number of tracked days
func (d Days) Len() int { return len(d.Dates) }

// Daily buckets rows per term per UTC day
func Daily(obs []Observation) map[string]Days {
	buckets := make(map[string]map[time.Time]int64)
	for _, o := range obs {
		m, ok := buckets[o.Term]
		if !ok {
			m = make(map[time.Time]int64)
			buckets[o.Term] = m
		}
		m[DayOf(o.At)] += o.Count
	}

	out := make(map[string]Days, len(buckets))
	for term, m := range buckets {
		dates := make([]time.Time, 0, len(m))
		for d := range m {
			dates = append(dates, d)
		}
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
		counts := make([]int64, len(dates))
		for i, d := range dates {
			counts[i] = m[d]
		}
		out[term] = Days{Dates: dates, Counts: counts}
	}
	return out
}

// Terms returns the keys of a Daily result sorted ascending
func Terms(daily map[string]Days) []string {
	out := make([]string, 0, len(daily))
	for t := range daily {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
