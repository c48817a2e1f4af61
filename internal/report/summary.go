package report

import (
	"sort"

	"svodka.org/internal/auth"
	"svodka.org/internal/money"
)

// UserRevenue is one summary row: a user snapshot with their revenue total.
type UserRevenue struct {
	User  auth.User   `json:"user"`
	Total money.Money `json:"total"`
}

// Totals feeds the dashboard summary tiles.
type Totals struct {
	Revenue money.Money `json:"revenue"`
	Entries int         `json:"entries"`
	Users   int         `json:"users"`
}

// Summarize groups reports by owner and sums revenue per user, sorted by
// family name ascending. Ties keep their first-seen relative order.
func Summarize(rows []*ReportWithUser) []UserRevenue {
	index := make(map[string]int)
	var out []UserRevenue
	for _, row := range rows {
		i, ok := index[row.User.ID]
		if !ok {
			index[row.User.ID] = len(out)
			out = append(out, UserRevenue{User: row.User})
			i = len(out) - 1
		}
		out[i].Total = out[i].Total.Add(row.Revenue)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].User.FamilyName < out[j].User.FamilyName
	})
	return out
}

// ComputeTotals counts entries, distinct owners, and total revenue.
func ComputeTotals(rows []*ReportWithUser) Totals {
	totals := Totals{Entries: len(rows)}
	owners := make(map[string]struct{})
	for _, row := range rows {
		totals.Revenue = totals.Revenue.Add(row.Revenue)
		owners[row.UserID] = struct{}{}
	}
	totals.Users = len(owners)
	return totals
}
