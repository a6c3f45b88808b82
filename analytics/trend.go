package analytics

import (
	"sort"
	"time"

	"resellerdash/models"
	"resellerdash/normalize"
)

const trendMonths = 6

// TotalCategory is the only category of a trend without grouping.
const TotalCategory = "total"

type TrendOptions struct {
	GroupByLocation bool `json:"groupByLocation"`
	GroupByStatus   bool `json:"groupByStatus"`
}

// TrendPoint is the part of a record the trend looks at.
type TrendPoint struct {
	Date   time.Time
	Dated  bool
	GPS    string
	Status string
}

// TrendRow is one month of the grid.
type TrendRow struct {
	Month  string         `json:"month"`
	Label  string         `json:"label"`
	Counts map[string]int `json:"counts"`
}

// TrendGrid is a month by category grid, oldest month first.
type TrendGrid struct {
	Categories []string   `json:"categories"`
	Rows       []TrendRow `json:"rows"`
}

func CustomerPoints(customers []models.Customer) []TrendPoint {
	points := make([]TrendPoint, len(customers))
	for i, c := range customers {
		date, ok := c.RecordDate()
		points[i] = TrendPoint{Date: date, Dated: ok, GPS: c.GPS, Status: string(normalize.CustomerStatus(string(c.Status)))}
	}
	return points
}

func LeadPoints(leads []models.Lead) []TrendPoint {
	points := make([]TrendPoint, len(leads))
	for i, l := range leads {
		date, ok := l.RecordDate()
		points[i] = TrendPoint{Date: date, Dated: ok, GPS: l.GPS, Status: string(l.Status)}
	}
	return points
}

// CustomerTrend buckets customers by the month they were added.
func CustomerTrend(customers []models.Customer, opts TrendOptions) TrendGrid {
	statuses := make([]string, len(models.CustomerStatuses))
	for i, s := range models.CustomerStatuses {
		statuses[i] = string(s)
	}
	return MonthlyTrend(CustomerPoints(customers), statuses, opts)
}

// LeadTrend buckets leads by the month they were added.
func LeadTrend(leads []models.Lead, opts TrendOptions) TrendGrid {
	statuses := make([]string, len(models.LeadStatuses))
	for i, s := range models.LeadStatuses {
		statuses[i] = string(s)
	}
	return MonthlyTrend(LeadPoints(leads), statuses, opts)
}

// MonthlyTrend counts points in the six most recent months that have any
// data. Undated points are skipped. Categories come from the fixed location
// and status sets, so empty categories show up as zero.
func MonthlyTrend(points []TrendPoint, statuses []string, opts TrendOptions) TrendGrid {
	categories := trendCategories(statuses, opts)

	seen := map[string]time.Time{}
	for _, p := range points {
		if !p.Dated {
			continue
		}
		key, first := monthOf(p.Date)
		seen[key] = first
	}
	months := make([]string, 0, len(seen))
	for key := range seen {
		months = append(months, key)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	if len(months) > trendMonths {
		months = months[:trendMonths]
	}
	sort.Strings(months)

	rows := make([]TrendRow, len(months))
	index := make(map[string]int, len(months))
	for i, key := range months {
		counts := make(map[string]int, len(categories))
		for _, c := range categories {
			counts[c] = 0
		}
		rows[i] = TrendRow{Month: key, Label: seen[key].Format("Jan 2006"), Counts: counts}
		index[key] = i
	}

	for _, p := range points {
		if !p.Dated {
			continue
		}
		key, _ := monthOf(p.Date)
		i, ok := index[key]
		if !ok {
			continue
		}
		category := pointCategory(p, opts)
		if _, known := rows[i].Counts[category]; known {
			rows[i].Counts[category]++
		}
	}
	return TrendGrid{Categories: categories, Rows: rows}
}

func trendCategories(statuses []string, opts TrendOptions) []string {
	switch {
	case opts.GroupByLocation && opts.GroupByStatus:
		out := make([]string, 0, len(models.Locations)*len(statuses))
		for _, loc := range models.Locations {
			for _, s := range statuses {
				out = append(out, string(loc)+"/"+s)
			}
		}
		return out
	case opts.GroupByLocation:
		out := make([]string, len(models.Locations))
		for i, loc := range models.Locations {
			out[i] = string(loc)
		}
		return out
	case opts.GroupByStatus:
		return append([]string(nil), statuses...)
	}
	return []string{TotalCategory}
}

func pointCategory(p TrendPoint, opts TrendOptions) string {
	switch {
	case opts.GroupByLocation && opts.GroupByStatus:
		return string(normalize.ClassifyLocation(p.GPS)) + "/" + p.Status
	case opts.GroupByLocation:
		return string(normalize.ClassifyLocation(p.GPS))
	case opts.GroupByStatus:
		return p.Status
	}
	return TotalCategory
}

func monthOf(t time.Time) (string, time.Time) {
	t = t.UTC()
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.Format("2006-01"), first
}
