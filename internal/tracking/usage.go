package tracking

import "sort"

// Usage maps an application name to focused milliseconds.
type Usage map[string]int64

// Add accumulates ms for app. Non-positive durations are ignored.
func (u Usage) Add(app string, ms int64) {
	if ms <= 0 {
		return
	}
	u[app] += ms
}

// Total returns the sum over all apps.
func (u Usage) Total() int64 {
	var total int64
	for _, ms := range u {
		total += ms
	}
	return total
}

// Clone returns an independent copy.
func (u Usage) Clone() Usage {
	out := make(Usage, len(u))
	for app, ms := range u {
		out[app] = ms
	}
	return out
}

// AppDuration is one row of a sorted usage listing.
type AppDuration struct {
	App          string `json:"app_name"`
	Milliseconds int64  `json:"duration"`
}

// Sorted lists apps by descending time, then by name.
func (u Usage) Sorted() []AppDuration {
	rows := make([]AppDuration, 0, len(u))
	for app, ms := range u {
		rows = append(rows, AppDuration{App: app, Milliseconds: ms})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Milliseconds != rows[j].Milliseconds {
			return rows[i].Milliseconds > rows[j].Milliseconds
		}
		return rows[i].App < rows[j].App
	})
	return rows
}
