package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"

	"ccpp/internal/core"
)

// ExportFilename is the download name of the CSV export.
const ExportFilename = "datos_filtrados.csv"

// View is a rendered grid: a header and aligned string rows.
type View struct {
	Columns []string
	Rows    [][]string
}

// VisibleColumns returns the header positions a session may see. Admin-only
// columns are hidden from collaborators.
func VisibleColumns(ws WorkingSet) []int {
	if ws.Session.IsAdmin {
		idx := make([]int, len(ws.Columns))
		for i := range ws.Columns {
			idx[i] = i
		}
		return idx
	}
	return keepColumns(ws.Columns, core.AdminOnlyColumns)
}

func keepColumns(cols, drop []string) []int {
	idx := make([]int, 0, len(cols))
	for i, c := range cols {
		if !slices.Contains(drop, c) {
			idx = append(idx, i)
		}
	}
	return idx
}

// TableView projects rows onto the columns visible to the session.
// Commission columns show the coerced amount, so blanks read as 0.00.
func TableView(ws WorkingSet, rows []core.Contract) View {
	return project(ws.Columns, VisibleColumns(ws), rows)
}

func project(cols []string, idx []int, rows []core.Contract) View {
	v := View{Columns: make([]string, len(idx)), Rows: make([][]string, len(rows))}
	for j, i := range idx {
		v.Columns[j] = cols[i]
	}
	for r, c := range rows {
		out := make([]string, len(idx))
		for j, i := range idx {
			switch cols[i] {
			case core.ColCommissionAdmin, core.ColCommissionStandard:
				out[j] = commissionIn(c, cols[i]).String()
			default:
				out[j] = core.Cell(c.Raw, i)
			}
		}
		v.Rows[r] = out
	}
	return v
}

// ExportCSV writes rows as UTF-8 CSV with a header. Admin-only columns are
// always dropped, whatever the session role.
func ExportCSV(w io.Writer, ws WorkingSet, rows []core.Contract) error {
	v := project(ws.Columns, keepColumns(ws.Columns, core.AdminOnlyColumns), rows)
	cw := csv.NewWriter(w)
	if err := cw.Write(v.Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(v.Rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}
