package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"svodka.org/internal/audit"
	"svodka.org/internal/money"
	"svodka.org/internal/report"
)

// Revenue comes in as the operator typed it: "12 345,67", "12345.67" and the
// grouped variants are all accepted.
type createReportRequest struct {
	Date    string `json:"date,omitempty"`
	Address string `json:"address"`
	Revenue string `json:"revenue"`
}

type updateReportRequest struct {
	Date    string `json:"date"`
	Address string `json:"address"`
	Revenue string `json:"revenue"`
}

const dateLayout = "2006-01-02"

func (a *API) handleReports(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listReports(w, r)
	case http.MethodPost:
		a.createReport(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleReportResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/reports/")
	path = strings.Trim(path, "/")
	if path == "" || strings.Contains(path, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch path {
	case "dates":
		a.listReportDates(w, r)
		return
	case "summary":
		a.monthSummary(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getReport(w, r, path)
	case http.MethodPut:
		a.updateReport(w, r, path)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut)
	}
}

func (a *API) listReports(w http.ResponseWriter, r *http.Request) {
	p, ok := a.principal(w, r)
	if !ok {
		return
	}
	year, month, err := yearMonthParams(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	rows, err := a.reports.List(r.Context(), p, year, month, r.URL.Query().Get("user_id"))
	if err != nil {
		handleReportError(w, r, err)
		return
	}
	if rows == nil {
		rows = []*report.ReportWithUser{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": rows})
}

func (a *API) createReport(w http.ResponseWriter, r *http.Request) {
	p, ok := a.principal(w, r)
	if !ok {
		return
	}
	var req createReportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	in := report.NewReportInput{Address: req.Address}
	if req.Date != "" {
		d, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		in.Date = d
	}
	amount, err := money.Parse(req.Revenue)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "revenue is not a valid amount")
		return
	}
	in.Revenue = amount

	created, err := a.reports.Create(r.Context(), p, in)
	if err != nil {
		handleReportError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "report.create", map[string]any{
		"report_id": created.ID,
		"date":      created.Date.Format(dateLayout),
		"revenue":   created.Revenue.Cents,
	})
	w.Header().Set("Location", fmt.Sprintf("/v1/reports/%s", created.ID))
	writeJSON(w, http.StatusCreated, created)
}

func (a *API) getReport(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	p, ok := a.principal(w, r)
	if !ok {
		return
	}
	rep, err := a.reports.Get(r.Context(), p, id)
	if err != nil {
		handleReportError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (a *API) updateReport(w http.ResponseWriter, r *http.Request, id string) {
	p, ok := a.principal(w, r)
	if !ok {
		return
	}
	var req updateReportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	amount, err := money.Parse(req.Revenue)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "revenue is not a valid amount")
		return
	}

	updated, err := a.reports.Update(r.Context(), p, id, report.UpdateReportInput{
		Date:    date,
		Address: req.Address,
		Revenue: amount,
	})
	if err != nil {
		handleReportError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "report.update", map[string]any{
		"report_id": updated.ID,
		"revenue":   updated.Revenue.Cents,
	})
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) listReportDates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	p, ok := a.principal(w, r)
	if !ok {
		return
	}
	groups, err := a.reports.Dates(r.Context(), p, r.URL.Query().Get("user_id"))
	if err != nil {
		handleReportError(w, r, err)
		return
	}
	if groups == nil {
		groups = []report.YearMonths{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"dates": groups})
}

func (a *API) monthSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	p, ok := a.principal(w, r)
	if !ok {
		return
	}
	year, month, err := yearMonthParams(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	summary, err := a.reports.MonthSummary(r.Context(), p, year, month, r.URL.Query().Get("user_id"))
	if err != nil {
		handleReportError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse(summary))
}

// summaryResponse adds display-formatted totals alongside the raw amounts so
// the dashboard tiles need no client-side money formatting.
func summaryResponse(s *report.Summary) map[string]any {
	users := make([]map[string]any, 0, len(s.ByUser))
	for _, row := range s.ByUser {
		users = append(users, map[string]any{
			"user":            row.User,
			"name":            row.User.ShortName(),
			"total":           row.Total,
			"total_formatted": row.Total.String(),
		})
	}
	return map[string]any{
		"by_user": users,
		"totals": map[string]any{
			"revenue":           s.Totals.Revenue,
			"revenue_formatted": s.Totals.Revenue.String(),
			"entries":           s.Totals.Entries,
			"users":             s.Totals.Users,
		},
	}
}

func yearMonthParams(r *http.Request) (int, time.Month, error) {
	q := r.URL.Query()
	now := time.Now().UTC()

	year := now.Year()
	if raw := strings.TrimSpace(q.Get("year")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return 0, 0, fmt.Errorf("year must be a positive integer")
		}
		year = v
	}
	month := now.Month()
	if raw := strings.TrimSpace(q.Get("month")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 12 {
			return 0, 0, fmt.Errorf("month must be between 1 and 12")
		}
		month = time.Month(v)
	}
	return year, month, nil
}
