package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"slices"
	"testing"

	"ccpp/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var header = []string{
	"CLIENTE", "CIF/DNI", "CUPS", "TIPO CONTRATO", "COMPAÑÍA",
	"Comision IVAN", "Comision", "MES", "ESTADO", "COLABORADOR", "Factura IVAN",
}

func contractsTable() core.Table {
	return core.NewTable("clientes.xlsx", [][]string{
		header,
		{"Acme", "B111", "X1", "Alta", "Endesa", "100,25", "80,25", "Marzo", "Activado", "Ana", "F1"},
		{"Acme", "B111", "X1", "Renovación", "Iberdrola", "50", "40,25", "Marzo", "Cargado", "Ana", "F2"},
		{"Acme", "B111", "X10F", "Alta", "Naturgy", "10", "5", "Abril", "Pendiente", "Ana", "F3"},
		{"Beta", "B222", "Y1", "Baja", "Endesa", "7", "3", "Marzo", "Baja", "Luis", "F4"},
		{"Gamma", "B333", "Z1", "Alta", "Endesa", "n/a", "", "Trimestre", "Activado", "Luis", "F5"},
	})
}

func adminSession() core.Session {
	return core.Session{Identity: core.All, IsAdmin: true}
}

func anaSession() core.Session {
	return core.Session{Identity: "Ana"}
}

func TestDedupeCupsSuffix(t *testing.T) {
	got := DedupeCupsSuffix([]string{"AB0F", "AB", "CD"})
	assert.Equal(t, []string{"AB", "CD"}, got)
	assert.Empty(t, DedupeCupsSuffix(nil))
}

func TestSumCommission_MarchScenario(t *testing.T) {
	ws, err := BuildWorkingSet(contractsTable(), anaSession())
	require.NoError(t, err)

	got := SumCommission(ws.Contracts, []string{"X1"}, []string{"Marzo"}, ws.CommissionColumn())
	assert.Equal(t, "120.50", got.String())
}

func TestSumCommission_EmptyIntersection(t *testing.T) {
	ws, err := BuildWorkingSet(contractsTable(), adminSession())
	require.NoError(t, err)

	assert.Zero(t, SumCommission(ws.Contracts, []string{"X1"}, []string{"Enero"}, core.ColCommissionAdmin).Cents)
	assert.Zero(t, SumCommission(ws.Contracts, nil, []string{"Marzo"}, core.ColCommissionAdmin).Cents)
	assert.Zero(t, SumCommission(nil, []string{"X1"}, []string{"Marzo"}, core.ColCommissionAdmin).Cents)
}

func TestBuildWorkingSet_ScopesCollaborator(t *testing.T) {
	ws, err := BuildWorkingSet(contractsTable(), anaSession())
	require.NoError(t, err)
	require.Len(t, ws.Contracts, 3)
	for _, c := range ws.Contracts {
		assert.Equal(t, "Ana", c.Collaborator)
	}

	ws, err = BuildWorkingSet(contractsTable(), adminSession())
	require.NoError(t, err)
	assert.Len(t, ws.Contracts, 5)

	ws, err = BuildWorkingSet(contractsTable(), core.Session{Identity: "Nadie"})
	require.NoError(t, err)
	assert.Empty(t, ws.Contracts)
}

func TestBuildWorkingSet_Errors(t *testing.T) {
	_, err := BuildWorkingSet(contractsTable(), core.Session{})
	assert.True(t, errors.Is(err, core.ErrEmptyIdentity))

	bad := core.NewTable("clientes.xlsx", [][]string{{"CLIENTE"}, {"Acme"}})
	_, err = BuildWorkingSet(bad, adminSession())
	assert.True(t, errors.Is(err, core.ErrConfiguration))
}

func TestCommissionColumnFor(t *testing.T) {
	assert.Equal(t, "Comision IVAN", CommissionColumnFor(adminSession()))
	assert.Equal(t, "Comision", CommissionColumnFor(anaSession()))
}

func TestApplyFilters(t *testing.T) {
	ws, err := BuildWorkingSet(contractsTable(), adminSession())
	require.NoError(t, err)

	tests := []struct {
		name    string
		filters Filters
		want    int
	}{
		{"no filters", Filters{}, 5},
		{"all sentinel", Filters{Client: core.All, Month: core.All}, 5},
		{"client", Filters{Client: "Acme"}, 3},
		{"client and month", Filters{Client: "Acme", Month: "Marzo"}, 2},
		{"status", Filters{Status: "Activado"}, 2},
		{"type", Filters{ContractType: "Baja"}, 1},
		{"no match", Filters{Client: "Acme", Status: "Baja"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, Apply(ws, tt.filters), tt.want)
		})
	}
}

func TestOptions(t *testing.T) {
	ws, err := BuildWorkingSet(contractsTable(), anaSession())
	require.NoError(t, err)

	opts := Options(ws)
	assert.Equal(t, []string{core.All, "Acme"}, opts.Clients)
	assert.Equal(t, []string{core.All, "Alta", "Renovación"}, opts.ContractTypes)
	assert.Equal(t, []string{core.All, "Marzo", "Abril"}, opts.Months)
	assert.Equal(t, []string{core.All, "Activado", "Cargado", "Pendiente"}, opts.Statuses)
}

func TestSummarize(t *testing.T) {
	ws, err := BuildWorkingSet(contractsTable(), adminSession())
	require.NoError(t, err)

	s := Summarize(ws.Contracts, ws.CommissionColumn())
	assert.Equal(t, int64(16725), s.TotalCommission.Cents)
	assert.Equal(t, 5, s.Contracts)
	assert.Equal(t, 3, s.Active)
	assert.Equal(t, 1, s.Cancellations)

	assert.Equal(t, core.Summary{}, Summarize(nil, core.ColCommissionAdmin))
}

func TestCommissionByMonth(t *testing.T) {
	ws, err := BuildWorkingSet(contractsTable(), adminSession())
	require.NoError(t, err)

	got := CommissionByMonth(ws.Contracts, ws.CommissionColumn())
	require.Len(t, got, 3)
	assert.Equal(t, "Marzo", got[0].Month)
	assert.Equal(t, int64(15725), got[0].Amount.Cents)
	assert.Equal(t, "Abril", got[1].Month)
	assert.Equal(t, "Trimestre", got[2].Month)
	assert.Zero(t, got[2].Amount.Cents)
}

func TestContractsByCompany(t *testing.T) {
	ws, err := BuildWorkingSet(contractsTable(), adminSession())
	require.NoError(t, err)

	got := ContractsByCompany(ws.Contracts)
	assert.Equal(t, []core.CompanyCount{
		{Company: "Endesa", Count: 3},
		{Company: "Iberdrola", Count: 1},
		{Company: "Naturgy", Count: 1},
	}, got)
}

func TestLatestContractInfo(t *testing.T) {
	ws, err := BuildWorkingSet(contractsTable(), adminSession())
	require.NoError(t, err)

	kind, company, ok := LatestContractInfo(ws.Contracts, []string{"X1"})
	assert.True(t, ok)
	assert.Equal(t, "Renovación", kind)
	assert.Equal(t, "Iberdrola", company)

	_, _, ok = LatestContractInfo(ws.Contracts, []string{"nope"})
	assert.False(t, ok)
}

func TestClientDetail(t *testing.T) {
	ws, err := BuildWorkingSet(contractsTable(), anaSession())
	require.NoError(t, err)
	rows := Apply(ws, Filters{Client: "Acme"})

	d, ok := ClientDetail(rows, ws.CommissionColumn())
	require.True(t, ok)
	assert.Equal(t, "Acme", d.Client)
	assert.Equal(t, "B111", d.TaxID)
	assert.Equal(t, "Activado", d.Status)
	assert.Equal(t, []string{"X1"}, d.CUPS)
	assert.Equal(t, "Renovación", d.ContractType)
	assert.Equal(t, "125.50", d.Total.String())

	_, ok = ClientDetail(nil, ws.CommissionColumn())
	assert.False(t, ok)
}

func TestMonthsForCups(t *testing.T) {
	ws, err := BuildWorkingSet(contractsTable(), adminSession())
	require.NoError(t, err)
	assert.Equal(t, []string{"Marzo"}, MonthsForCups(ws.Contracts, []string{"X1", "Y1"}))
	assert.Empty(t, MonthsForCups(ws.Contracts, nil))
}

func TestTableView_HidesAdminColumnsForCollaborators(t *testing.T) {
	ws, err := BuildWorkingSet(contractsTable(), anaSession())
	require.NoError(t, err)

	v := TableView(ws, ws.Contracts)
	assert.NotContains(t, v.Columns, "Comision IVAN")
	assert.NotContains(t, v.Columns, "Factura IVAN")
	assert.Len(t, v.Rows, 3)
	assert.Len(t, v.Rows[0], len(v.Columns))

	ws, err = BuildWorkingSet(contractsTable(), adminSession())
	require.NoError(t, err)
	assert.Equal(t, header, TableView(ws, ws.Contracts).Columns)
}

func TestExportCSV_OmitsAdminColumns(t *testing.T) {
	for _, s := range []core.Session{anaSession(), adminSession()} {
		ws, err := BuildWorkingSet(contractsTable(), s)
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, ExportCSV(&buf, ws, Apply(ws, Filters{})))

		recs, err := csv.NewReader(&buf).ReadAll()
		require.NoError(t, err)
		require.Equal(t, len(ws.Contracts)+1, len(recs))
		assert.NotContains(t, recs[0], "Comision IVAN")
		assert.NotContains(t, recs[0], "Factura IVAN")
		assert.Contains(t, recs[0], "Comision")
		assert.Equal(t, "Acme", recs[1][0])
	}
}

func TestExportCSV_ZeroFillsCommission(t *testing.T) {
	ws, err := BuildWorkingSet(contractsTable(), adminSession())
	require.NoError(t, err)
	rows := Apply(ws, Filters{Client: "Gamma"})
	require.Len(t, rows, 1)

	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, ws, rows))
	recs, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	col := slices.Index(recs[0], "Comision")
	require.GreaterOrEqual(t, col, 0)
	assert.Equal(t, "0.00", recs[1][col])

	v := TableView(ws, rows)
	assert.Equal(t, "0.00", v.Rows[0][slices.Index(v.Columns, "Comision IVAN")])
	assert.Equal(t, "0.00", v.Rows[0][slices.Index(v.Columns, "Comision")])
	assert.Equal(t, "Gamma", v.Rows[0][0])
}

func TestTableView_FormatsCommission(t *testing.T) {
	ws, err := BuildWorkingSet(contractsTable(), anaSession())
	require.NoError(t, err)

	v := TableView(ws, ws.Contracts)
	col := slices.Index(v.Columns, "Comision")
	require.GreaterOrEqual(t, col, 0)
	assert.Equal(t, "80.25", v.Rows[0][col])
}
