package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"ccpp/internal/auth"
	"ccpp/internal/core"
	"ccpp/internal/metrics"
	"ccpp/internal/report"
)

// DataLoader is the part of the loader the service needs.
type DataLoader interface {
	LoadContracts(ctx context.Context, source string) (core.Table, error)
	LoadUsers(ctx context.Context, source string) (core.Table, error)
	Invalidate(source string) int
	InvalidateAll()
}

// SessionManager issues and resolves sessions.
type SessionManager interface {
	Start(ctx context.Context, username, identity string, isAdmin bool) (core.Session, error)
	Lookup(ctx context.Context, id string) (core.Session, error)
	End(ctx context.Context, id string) error
}

// ReloadPublisher fans a reload out to other instances.
type ReloadPublisher interface {
	PublishReload(ctx context.Context, source, origin string) error
}

// Sources names the two tables the dashboard reads.
type Sources struct {
	Contracts string
	Users     string
}

// DashboardService glues the loader, the authenticator, the session store
// and the report engine together for the HTTP layer.
type DashboardService struct {
	loader    DataLoader
	auth      *auth.Authenticator
	sessions  SessionManager
	publisher ReloadPublisher
	sources   Sources
	logger    *slog.Logger
}

func NewDashboardService(loader DataLoader, a *auth.Authenticator, sessions SessionManager, sources Sources, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{loader: loader, auth: a, sessions: sessions, sources: sources, logger: logger}
}

// WithPublisher enables fan-out of reloads.
func (s *DashboardService) WithPublisher(p ReloadPublisher) *DashboardService {
	s.publisher = p
	return s
}

func (s *DashboardService) Sources() Sources { return s.sources }

// Login verifies credentials and opens a session. Errors wrap
// core.ErrConfiguration, core.ErrAuthentication or core.ErrDataLoad.
func (s *DashboardService) Login(ctx context.Context, username, password string) (core.Session, error) {
	users, err := s.loader.LoadUsers(ctx, s.sources.Users)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return core.Session{}, err
	}
	res, err := s.auth.Login(users, username, password)
	if err != nil {
		outcome := "failure"
		if errors.Is(err, core.ErrConfiguration) || auth.IsMalformed(err) {
			outcome = "error"
		}
		metrics.LoginAttemptsTotal.WithLabelValues(outcome).Inc()
		return core.Session{}, err
	}
	sess, err := s.sessions.Start(ctx, res.User.Username, res.Identity, res.IsAdmin)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return core.Session{}, err
	}
	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	return sess, nil
}

// Logout ends the session.
func (s *DashboardService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.End(ctx, sessionID)
}

// Session resolves a session id.
func (s *DashboardService) Session(ctx context.Context, sessionID string) (core.Session, error) {
	return s.sessions.Lookup(ctx, sessionID)
}

// Dashboard is everything the main page renders.
type Dashboard struct {
	Session          core.Session
	Filters          report.Filters
	Selectors        report.Selectors
	CommissionColumn string
	Summary          core.Summary
	Months           []core.MonthAmount
	Companies        []core.CompanyCount
	Detail           *report.Detail
	Table            report.View
}

func (s *DashboardService) workingSet(ctx context.Context, sess core.Session) (report.WorkingSet, error) {
	contracts, err := s.loader.LoadContracts(ctx, s.sources.Contracts)
	if err != nil {
		return report.WorkingSet{}, err
	}
	return report.BuildWorkingSet(contracts, sess)
}

func (s *DashboardService) filtered(ctx context.Context, sess core.Session, f report.Filters) (report.WorkingSet, []core.Contract, error) {
	ws, err := s.workingSet(ctx, sess)
	if err != nil {
		return report.WorkingSet{}, nil, err
	}
	return ws, report.Apply(ws, f), nil
}

// Dashboard builds the main view for the session and filters.
func (s *DashboardService) Dashboard(ctx context.Context, sess core.Session, f report.Filters) (Dashboard, error) {
	f = f.Normalize()
	ws, rows, err := s.filtered(ctx, sess, f)
	if err != nil {
		return Dashboard{}, err
	}
	col := ws.CommissionColumn()
	d := Dashboard{
		Session:          sess,
		Filters:          f,
		Selectors:        report.Options(ws),
		CommissionColumn: col,
		Summary:          report.Summarize(rows, col),
		Months:           report.CommissionByMonth(rows, col),
		Companies:        report.ContractsByCompany(rows),
		Table:            report.TableView(ws, rows),
	}
	if f.ClientSelected() {
		if detail, ok := report.ClientDetail(rows, col); ok {
			d.Detail = &detail
		}
	}
	s.logger.DebugContext(ctx, "Dashboard built",
		"identity", sess.Identity, "rows", len(rows), "filters", fmt.Sprintf("%+v", f))
	return d, nil
}

// ClientView is the client detail panel with the CUPS selection applied.
type ClientView struct {
	Detail       report.Detail
	SelectedCUPS []string
	Months       []string
}

// ClientDetail returns the detail of the selected client and the months
// charged for the chosen CUPS. ok is false when nothing matches.
func (s *DashboardService) ClientDetail(ctx context.Context, sess core.Session, f report.Filters, cups []string) (ClientView, bool, error) {
	ws, rows, err := s.filtered(ctx, sess, f.Normalize())
	if err != nil {
		return ClientView{}, false, err
	}
	if !f.ClientSelected() {
		return ClientView{}, false, nil
	}
	detail, ok := report.ClientDetail(rows, ws.CommissionColumn())
	if !ok {
		return ClientView{}, false, nil
	}
	v := ClientView{Detail: detail, SelectedCUPS: cups}
	if len(cups) > 0 {
		v.Months = report.MonthsForCups(rows, cups)
	}
	return v, true, nil
}

// CommissionSelection sums the session's commission over the chosen CUPS
// and months within the filtered rows.
func (s *DashboardService) CommissionSelection(ctx context.Context, sess core.Session, f report.Filters, cups, months []string) (core.Money, error) {
	ws, rows, err := s.filtered(ctx, sess, f.Normalize())
	if err != nil {
		return core.Money{}, err
	}
	return report.SumCommission(rows, cups, months, ws.CommissionColumn()), nil
}

// Export writes the filtered rows as CSV and returns the row count.
func (s *DashboardService) Export(ctx context.Context, sess core.Session, f report.Filters, w io.Writer) (int, error) {
	ws, rows, err := s.filtered(ctx, sess, f.Normalize())
	if err != nil {
		return 0, err
	}
	if err := report.ExportCSV(w, ws, rows); err != nil {
		return 0, err
	}
	metrics.ExportsTotal.Inc()
	return len(rows), nil
}

// Reload drops cached tables, for one source or all when source is empty,
// and tells other instances to do the same.
func (s *DashboardService) Reload(ctx context.Context, source, trigger string) {
	metrics.DataInvalidationsTotal.WithLabelValues(trigger).Inc()
	if source == "" {
		s.loader.InvalidateAll()
	} else {
		s.loader.Invalidate(source)
	}
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishReload(ctx, source, trigger); err != nil {
		// Local invalidation already happened.
		s.logger.ErrorContext(ctx, "Failed to publish reload message", "source", source, "error", err)
	}
}

// Ready checks that both sources can be read.
func (s *DashboardService) Ready(ctx context.Context) error {
	if _, err := s.loader.LoadUsers(ctx, s.sources.Users); err != nil {
		return err
	}
	_, err := s.loader.LoadContracts(ctx, s.sources.Contracts)
	return err
}
