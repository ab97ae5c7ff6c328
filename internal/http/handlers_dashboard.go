package http

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"strings"

	"ccpp/internal/core"
	"ccpp/internal/log"
	"ccpp/internal/report"
	"ccpp/internal/services"
)

type bar struct {
	Label string
	Value string
	Width int
}

type dashboardPage struct {
	services.Dashboard
	ExportURL       string
	ClientDetailURL string
	MonthBars       []bar
	CompanyBars     []bar
	Empty           bool
}

func withQuery(path, query string) string {
	if query == "" {
		return path
	}
	return path + "?" + query
}

// handleDashboard renders the main page for a live session.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, sess core.Session) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	f := ParseFilters(r.URL.Query())
	d, err := s.svc.Dashboard(ctx, sess, f)
	if err != nil {
		s.fail(w, r, err, true)
		return
	}

	query := FilterQuery(d.Filters)
	page := dashboardPage{
		Dashboard:       d,
		ExportURL:       withQuery("/export.csv", query),
		ClientDetailURL: withQuery("/ui/client-detail", query),
		MonthBars:       monthBars(d.Months),
		CompanyBars:     companyBars(d.Companies),
		Empty:           d.Summary.Contracts == 0,
	}
	s.render(w, r, http.StatusOK, "dashboard.html", page)
}

func monthBars(months []core.MonthAmount) []bar {
	var max int64
	for _, m := range months {
		if m.Amount.Cents > max {
			max = m.Amount.Cents
		}
	}
	out := make([]bar, 0, len(months))
	for _, m := range months {
		out = append(out, bar{Label: m.Month, Value: formatEuros(m.Amount), Width: barWidth(m.Amount.Cents, max)})
	}
	return out
}

func companyBars(companies []core.CompanyCount) []bar {
	var max int64
	for _, c := range companies {
		if int64(c.Count) > max {
			max = int64(c.Count)
		}
	}
	out := make([]bar, 0, len(companies))
	for _, c := range companies {
		out = append(out, bar{Label: c.Company, Value: strconv.Itoa(c.Count), Width: barWidth(int64(c.Count), max)})
	}
	return out
}

type clientDetailPage struct {
	services.ClientView
	Filters report.Filters
	Found   bool
}

// handleClientDetail returns the client panel partial, with the months
// charged to the chosen CUPS.
func (s *Server) handleClientDetail(w http.ResponseWriter, r *http.Request, sess core.Session) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	q := r.URL.Query()
	f := ParseFilters(q)
	sel := ParseSelection(q)
	view, ok, err := s.svc.ClientDetail(ctx, sess, f, sel.CUPS)
	if err != nil {
		s.fail(w, r, err, false)
		return
	}
	s.render(w, r, http.StatusOK, "client_detail", clientDetailPage{ClientView: view, Filters: f, Found: ok})
}

type commissionPage struct {
	CUPS     []string
	Months   []string
	Total    core.Money
	Selected bool
}

// handleCommission returns the commission for the CUPS and months picked in
// the client panel.
func (s *Server) handleCommission(w http.ResponseWriter, r *http.Request, sess core.Session) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	q := r.URL.Query()
	f := ParseFilters(q)
	sel := ParseSelection(q)
	total, err := s.svc.CommissionSelection(ctx, sess, f, sel.CUPS, sel.Months)
	if err != nil {
		s.fail(w, r, err, false)
		return
	}
	s.render(w, r, http.StatusOK, "commission", commissionPage{
		CUPS:     sel.CUPS,
		Months:   sel.Months,
		Total:    total,
		Selected: len(sel.CUPS) > 0 && len(sel.Months) > 0,
	})
}

type monthPoint struct {
	Month  string `json:"month"`
	Amount string `json:"amount"`
	Cents  int64  `json:"cents"`
}

type companyPoint struct {
	Company string `json:"company"`
	Count   int    `json:"count"`
}

// handleMonthsChart serves the commission-by-month series under the
// current filters.
func (s *Server) handleMonthsChart(w http.ResponseWriter, r *http.Request, sess core.Session) {
	d, ok := s.chartData(w, r, sess)
	if !ok {
		return
	}
	points := make([]monthPoint, 0, len(d.Months))
	for _, m := range d.Months {
		points = append(points, monthPoint{Month: m.Month, Amount: m.Amount.String(), Cents: m.Amount.Cents})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"column": d.CommissionColumn,
		"series": points,
	})
}

// handleCompaniesChart serves the contracts-by-company series under the
// current filters.
func (s *Server) handleCompaniesChart(w http.ResponseWriter, r *http.Request, sess core.Session) {
	d, ok := s.chartData(w, r, sess)
	if !ok {
		return
	}
	points := make([]companyPoint, 0, len(d.Companies))
	for _, c := range d.Companies {
		points = append(points, companyPoint{Company: c.Company, Count: c.Count})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"series": points})
}

func (s *Server) chartData(w http.ResponseWriter, r *http.Request, sess core.Session) (services.Dashboard, bool) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	d, err := s.svc.Dashboard(ctx, sess, ParseFilters(r.URL.Query()))
	if err != nil {
		status, msg := errorStatus(err)
		if status >= http.StatusInternalServerError {
			log.FromContext(r.Context()).ErrorContext(ctx, "Chart data failed", log.FieldError, err)
		}
		writeJSON(w, status, map[string]string{"error": msg})
		return services.Dashboard{}, false
	}
	return d, true
}

// handleExport downloads the filtered rows as CSV.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, sess core.Session) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	var buf bytes.Buffer
	n, err := s.svc.Export(ctx, sess, ParseFilters(r.URL.Query()), &buf)
	if err != nil {
		s.fail(w, r, err, false)
		return
	}
	s.structured.LogExport(ctx, sess.Identity, sess.IsAdmin, n)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.ExportFilename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// handleReload drops cached tables. Admins only.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request, sess core.Session) {
	if !sess.IsAdmin {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Reload refused for non-admin session")
		ForbiddenError("Solo los administradores pueden recargar los datos").Write(w)
		return
	}
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Formato de solicitud no válido").Write(w)
		return
	}
	source := strings.TrimSpace(p.Get("source"))

	ctx, cancel := context.WithTimeout(detached(r.Context()), s.opts.RequestTimeout)
	defer cancel()
	s.svc.Reload(ctx, source, "admin")

	log.FromContext(r.Context()).InfoContext(ctx, "Data reload requested",
		log.FieldOperation, log.OpReload, log.FieldSource, source)

	if isHTMX(r) {
		SuccessResponse("Datos recargados").
			TriggerDataReloaded(source).
			Write(w)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
