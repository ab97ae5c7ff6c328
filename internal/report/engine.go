// Package report filters the contracts table for a session and computes the
// dashboard aggregates. Every function is pure over its inputs.
package report

import (
	"fmt"
	"slices"
	"strings"

	"ccpp/internal/core"
)

// Statuses counted as active contracts.
var activeStatuses = []string{"Activado", "Cargado"}

// ContractTypeCancellation marks a cancelled supply.
const ContractTypeCancellation = "Baja"

// WorkingSet is the role-scoped copy of the contracts table a session works
// on. It is rebuilt per request and never mutated.
type WorkingSet struct {
	Session   core.Session
	Columns   []string
	Contracts []core.Contract
}

// BuildWorkingSet scopes contracts to the session: admins see every row,
// collaborators only rows whose COLABORADOR equals their identity.
func BuildWorkingSet(contracts core.Table, s core.Session) (WorkingSet, error) {
	if err := s.Validate(); err != nil {
		return WorkingSet{}, err
	}
	if err := contracts.Require(core.ContractColumns...); err != nil {
		return WorkingSet{}, fmt.Errorf("%w: %w", core.ErrConfiguration, err)
	}
	all := core.ContractsFromTable(contracts)
	ws := WorkingSet{Session: s, Columns: contracts.Columns}
	if s.SeesAll() {
		ws.Contracts = all
		return ws, nil
	}
	ws.Contracts = make([]core.Contract, 0, len(all))
	for _, c := range all {
		if c.Collaborator == s.Identity {
			ws.Contracts = append(ws.Contracts, c)
		}
	}
	return ws, nil
}

// CommissionColumnFor returns the commission column read for the session.
func CommissionColumnFor(s core.Session) string {
	if s.IsAdmin {
		return core.ColCommissionAdmin
	}
	return core.ColCommissionStandard
}

// CommissionColumn is CommissionColumnFor(ws.Session).
func (ws WorkingSet) CommissionColumn() string {
	return CommissionColumnFor(ws.Session)
}

// Filters narrows a working set. Empty or All means no restriction.
type Filters struct {
	Client       string
	ContractType string
	Month        string
	Status       string
}

func unrestricted(v string) bool {
	return v == "" || v == core.All
}

// Normalize maps empty selections to All.
func (f Filters) Normalize() Filters {
	for _, p := range []*string{&f.Client, &f.ContractType, &f.Month, &f.Status} {
		if unrestricted(*p) {
			*p = core.All
		}
	}
	return f
}

// ClientSelected reports whether a single client is chosen.
func (f Filters) ClientSelected() bool {
	return !unrestricted(f.Client)
}

func (f Filters) match(c core.Contract) bool {
	return (unrestricted(f.Client) || c.Client == f.Client) &&
		(unrestricted(f.ContractType) || c.ContractType == f.ContractType) &&
		(unrestricted(f.Month) || c.Month == f.Month) &&
		(unrestricted(f.Status) || c.Status == f.Status)
}

// Apply returns the contracts matching every active filter, in table order.
func Apply(ws WorkingSet, f Filters) []core.Contract {
	out := make([]core.Contract, 0, len(ws.Contracts))
	for _, c := range ws.Contracts {
		if f.match(c) {
			out = append(out, c)
		}
	}
	return out
}

// Selectors lists the choices offered by each filter, All first and the rest
// in first-seen order.
type Selectors struct {
	Clients       []string
	ContractTypes []string
	Months        []string
	Statuses      []string
}

// Options derives the selector choices from the unfiltered working set.
func Options(ws WorkingSet) Selectors {
	return Selectors{
		Clients:       withAll(distinct(ws.Contracts, func(c core.Contract) string { return c.Client })),
		ContractTypes: withAll(distinct(ws.Contracts, func(c core.Contract) string { return c.ContractType })),
		Months:        withAll(distinct(ws.Contracts, func(c core.Contract) string { return c.Month })),
		Statuses:      withAll(distinct(ws.Contracts, func(c core.Contract) string { return c.Status })),
	}
}

func withAll(values []string) []string {
	return append([]string{core.All}, values...)
}

func distinct(rows []core.Contract, field func(core.Contract) string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, c := range rows {
		v := field(c)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// DedupeCupsSuffix strips a trailing "0F" from each id and returns the
// unique results in first-seen order.
func DedupeCupsSuffix(cups []string) []string {
	seen := make(map[string]struct{}, len(cups))
	out := make([]string, 0, len(cups))
	for _, c := range cups {
		c = strings.TrimSuffix(c, "0F")
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// LatestContractInfo returns the contract type and company of the last row,
// in table order, whose CUPS is in cups. ok is false when nothing matches.
func LatestContractInfo(rows []core.Contract, cups []string) (contractType, company string, ok bool) {
	for i := len(rows) - 1; i >= 0; i-- {
		if slices.Contains(cups, rows[i].CUPS) {
			return rows[i].ContractType, rows[i].Company, true
		}
	}
	return "", "", false
}

// SumCommission sums column over rows whose CUPS is in cups and whose month
// is in months. An empty restriction sums to zero, as does a column other
// than the two commission columns.
func SumCommission(rows []core.Contract, cups, months []string, column string) core.Money {
	var total core.Money
	for _, c := range rows {
		if slices.Contains(cups, c.CUPS) && slices.Contains(months, c.Month) {
			total = total.Add(commissionIn(c, column))
		}
	}
	return total
}

func commissionIn(c core.Contract, column string) core.Money {
	switch column {
	case core.ColCommissionAdmin:
		return c.CommissionAdmin
	case core.ColCommissionStandard:
		return c.CommissionStandard
	default:
		return core.Money{}
	}
}

// TotalCommission sums the session's commission column over rows.
func TotalCommission(rows []core.Contract, column string) core.Money {
	var total core.Money
	for _, c := range rows {
		total = total.Add(commissionIn(c, column))
	}
	return total
}

// Summarize computes the headline cards.
func Summarize(rows []core.Contract, column string) core.Summary {
	s := core.Summary{TotalCommission: TotalCommission(rows, column), Contracts: len(rows)}
	for _, c := range rows {
		if slices.Contains(activeStatuses, c.Status) {
			s.Active++
		}
		if c.ContractType == ContractTypeCancellation {
			s.Cancellations++
		}
	}
	return s
}

// CommissionByMonth totals commission per month in calendar order. Months
// outside the calendar follow in first-seen order.
func CommissionByMonth(rows []core.Contract, column string) []core.MonthAmount {
	totals := map[string]core.Money{}
	var unknown []string
	for _, c := range rows {
		if _, ok := totals[c.Month]; !ok && core.MonthIndex(c.Month) < 0 {
			unknown = append(unknown, c.Month)
		}
		totals[c.Month] = totals[c.Month].Add(commissionIn(c, column))
	}
	out := make([]core.MonthAmount, 0, len(totals))
	for _, m := range core.Months {
		if amt, ok := totals[m]; ok {
			out = append(out, core.MonthAmount{Month: m, Amount: amt})
		}
	}
	for _, m := range unknown {
		out = append(out, core.MonthAmount{Month: m, Amount: totals[m]})
	}
	return out
}

// ContractsByCompany counts contracts per company, largest first. Ties keep
// first-seen order.
func ContractsByCompany(rows []core.Contract) []core.CompanyCount {
	idx := map[string]int{}
	var out []core.CompanyCount
	for _, c := range rows {
		if c.Company == "" {
			continue
		}
		i, ok := idx[c.Company]
		if !ok {
			i = len(out)
			idx[c.Company] = i
			out = append(out, core.CompanyCount{Company: c.Company})
		}
		out[i].Count++
	}
	slices.SortStableFunc(out, func(a, b core.CompanyCount) int { return b.Count - a.Count })
	return out
}

// Detail describes the client chosen in the client filter.
type Detail struct {
	Client       string
	TaxID        string
	Status       string
	ContractType string
	Company      string
	HasLatest    bool
	Total        core.Money
	CUPS         []string
}

// ClientDetail builds the detail panel from the filtered rows. ok is false
// when rows is empty.
func ClientDetail(rows []core.Contract, column string) (Detail, bool) {
	if len(rows) == 0 {
		return Detail{}, false
	}
	first := rows[0]
	cups := DedupeCupsSuffix(distinct(rows, func(c core.Contract) string { return c.CUPS }))
	d := Detail{
		Client: first.Client,
		TaxID:  first.TaxID,
		Status: first.Status,
		Total:  TotalCommission(rows, column),
		CUPS:   cups,
	}
	d.ContractType, d.Company, d.HasLatest = LatestContractInfo(rows, cups)
	return d, true
}

// MonthsForCups lists, in first-seen order, the months charged for the
// selected CUPS.
func MonthsForCups(rows []core.Contract, cups []string) []string {
	var matched []core.Contract
	for _, c := range rows {
		if slices.Contains(cups, c.CUPS) {
			matched = append(matched, c)
		}
	}
	return distinct(matched, func(c core.Contract) string { return c.Month })
}
