package report

import (
	"sort"
	"time"
)

// YearMonths lists the months with at least one report in a given year.
// Months keep their first-seen order; with date-ascending input they come out
// ascending as well.
type YearMonths struct {
	Year   int   `json:"year"`
	Months []int `json:"months"`
}

// GroupDates folds an ascending sequence of report dates into a per-year
// month index for the navigation calendar. Years are returned ascending;
// duplicate months within a year collapse.
func GroupDates(dates []time.Time) []YearMonths {
	byYear := make(map[int][]int)
	var years []int
	for _, d := range dates {
		d = Day(d)
		year := d.Year()
		month := int(d.Month())
		months, seen := byYear[year]
		if !seen {
			years = append(years, year)
		}
		if !containsInt(months, month) {
			byYear[year] = append(months, month)
		}
	}
	sort.Ints(years)

	out := make([]YearMonths, 0, len(years))
	for _, y := range years {
		out = append(out, YearMonths{Year: y, Months: byYear[y]})
	}
	return out
}

func containsInt(list []int, v int) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
