// Package stats derives per-staff completion-latency statistics from
// the correlation engine's matched history. Pure and read-only:
// recomputed on demand, never cached.
package stats

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/okian/triage/internal/domain/model"
)

// Samples below this count flag the staff row low-confidence so
// consumers can visually discount the percentiles.
const lowConfidenceThreshold = 10

// StaffStats is one staff member's derived KPI row.
type StaffStats struct {
	Staff    string `json:"staff"`
	Assigned int    `json:"assigned"`
	// Completed counts matched assignments in range.
	Completed int `json:"completed"`
	// Active counts currently OPEN assignments regardless of range.
	Active int `json:"active"`

	// HasData is false when there are zero matched samples; median
	// and p90 then render as "no data", never as zero.
	HasData       bool    `json:"has_data"`
	MedianMinutes float64 `json:"median_minutes"`
	P90Minutes    float64 `json:"p90_minutes"`
	LowConfidence bool    `json:"low_confidence"`
}

// Compute builds the per-staff KPI table from assignments restricted
// to [from, to] by creation time for assigned counts and by match time
// for completion samples. Staff with zero assignments in range and no
// activity are omitted.
func Compute(assignments []model.Assignment, from, to time.Time) []StaffStats {
	type acc struct {
		assigned  int
		completed int
		active    int
		durations []float64
	}
	byStaff := make(map[string]*acc)
	get := func(staff string) *acc {
		key := strings.ToLower(staff)
		a, ok := byStaff[key]
		if !ok {
			a = &acc{}
			byStaff[key] = a
		}
		return a
	}

	inRange := func(ts time.Time) bool {
		if !from.IsZero() && ts.Before(from) {
			return false
		}
		if !to.IsZero() && ts.After(to) {
			return false
		}
		return true
	}

	for _, a := range assignments {
		if a.Staff == "" {
			continue
		}
		s := get(a.Staff)
		if inRange(a.CreatedAt) {
			s.assigned++
		}
		switch a.State {
		case model.StateOpen:
			s.active++
		case model.StateMatched:
			if inRange(a.Matched) {
				s.completed++
				s.durations = append(s.durations, a.Duration.Minutes())
			}
		}
	}

	out := make([]StaffStats, 0, len(byStaff))
	for staff, a := range byStaff {
		if a.assigned == 0 && a.completed == 0 && a.active == 0 {
			continue
		}
		row := StaffStats{
			Staff:     staff,
			Assigned:  a.assigned,
			Completed: a.completed,
			Active:    a.active,
		}
		if len(a.durations) > 0 {
			sort.Float64s(a.durations)
			row.HasData = true
			row.MedianMinutes = percentile(a.durations, 0.5)
			row.P90Minutes = percentile(a.durations, 0.9)
			row.LowConfidence = len(a.durations) < lowConfidenceThreshold
		}
		out = append(out, row)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Assigned != out[j].Assigned {
			return out[i].Assigned > out[j].Assigned
		}
		return out[i].Staff < out[j].Staff
	})
	return out
}

// percentile interpolates linearly on a pre-sorted sample set:
// k = (n-1)*p, blended between the flooring and ceiling samples.
func percentile(sorted []float64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	k := float64(len(sorted)-1) * pct
	f := math.Floor(k)
	c := math.Ceil(k)
	if f == c {
		return sorted[int(k)]
	}
	return sorted[int(f)]*(c-k) + sorted[int(c)]*(k-f)
}
