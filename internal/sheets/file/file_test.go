package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ccpp/internal/core"
	ports "ccpp/internal/sheets"

	"github.com/xuri/excelize/v2"
)

func TestStoreWorkbookRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New(t.TempDir())
	in := core.Table{
		Columns: []string{"USUARIO", "CONTRASEÑA", "NOMBRE DE COLABORADOR"},
		Rows: [][]string{
			{"ana", "secreto", "Ana Ruiz"},
			{"luis", "clave", "Luis Gil"},
		},
	}
	if err := s.WriteTable(ctx, "usuarios.xlsx", in); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := s.ReadTable(ctx, "usuarios.xlsx")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Source != "usuarios.xlsx" || got.Len() != 2 {
		t.Fatalf("unexpected table: %+v", got)
	}
	if got.Index("NOMBRE DE COLABORADOR") != 2 {
		t.Fatalf("unexpected columns: %v", got.Columns)
	}
	if core.Cell(got.Rows[1], 2) != "Luis Gil" {
		t.Fatalf("unexpected row: %v", got.Rows[1])
	}
}

func TestStoreReadWorkbookIgnoresNumberFormats(t *testing.T) {
	dir := t.TempDir()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	cells := map[string]any{
		"A1": "CLIENTE", "B1": "Comision",
		"A2": "Acme", "B2": 1200,
		"A3": "Beta", "B3": 1500.5,
	}
	for cell, v := range cells {
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			t.Fatal(err)
		}
	}
	style, err := f.NewStyle(&excelize.Style{NumFmt: 3})
	if err != nil {
		t.Fatal(err)
	}
	if err := f.SetCellStyle(sheet, "B2", "B3", style); err != nil {
		t.Fatal(err)
	}
	if err := f.SaveAs(filepath.Join(dir, "clientes.xlsx")); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	got, err := New(dir).ReadTable(context.Background(), "clientes.xlsx")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	col := got.Index("Comision")
	for i, want := range []int64{120000, 150050} {
		if cents := core.CoerceAmount(core.Cell(got.Rows[i], col)); cents.Cents != want {
			t.Errorf("row %d: cell %q parsed to %d cents, want %d", i, core.Cell(got.Rows[i], col), cents.Cents, want)
		}
	}
}

func TestStoreReadCSV(t *testing.T) {
	dir := t.TempDir()
	body := "\ufeffCLIENTE,CUPS,MES,Comision\nAcme,ES01,Marzo,\"100,50\"\n,,,\nBeta,ES02,Abril,20\n"
	if err := os.WriteFile(filepath.Join(dir, "clientes.csv"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := New(dir).ReadTable(context.Background(), "clientes.csv")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Columns[0] != "CLIENTE" {
		t.Fatalf("byte order mark not stripped: %q", got.Columns[0])
	}
	if got.Len() != 2 {
		t.Fatalf("expected blank row dropped, got %d rows", got.Len())
	}
	if core.Cell(got.Rows[0], 3) != "100,50" {
		t.Fatalf("unexpected cell: %v", got.Rows[0])
	}
}

func TestStoreMissingFile(t *testing.T) {
	s := New(t.TempDir())
	if _, err := s.ReadTable(context.Background(), "nope.xlsx"); !errors.Is(err, ports.ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}
	if _, err := s.Fingerprint(context.Background(), "nope.xlsx"); !errors.Is(err, ports.ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}
}

func TestStoreUnsupportedFormat(t *testing.T) {
	s := New(t.TempDir())
	if _, err := s.ReadTable(context.Background(), "datos.ods"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestStoreFingerprintChanges(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := New(dir)
	path := filepath.Join(dir, "clientes.csv")
	if err := os.WriteFile(path, []byte("CLIENTE\nAcme\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	fp1, err := s.Fingerprint(ctx, "clientes.csv")
	if err != nil {
		t.Fatal(err)
	}

	later := time.Now().Add(time.Minute)
	if err := os.WriteFile(path, []byte("CLIENTE\nAcme\nBeta\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}
	fp2, err := s.Fingerprint(ctx, "clientes.csv")
	if err != nil {
		t.Fatal(err)
	}
	if fp1 == fp2 {
		t.Fatalf("fingerprint unchanged: %s", fp1)
	}
}

func TestStorePath(t *testing.T) {
	s := New("/data")
	if got := s.Path("clientes.xlsx"); got != filepath.Join("/data", "clientes.xlsx") {
		t.Errorf("relative path: %s", got)
	}
	if got := s.Path("/tmp/x.xlsx"); got != "/tmp/x.xlsx" {
		t.Errorf("absolute path: %s", got)
	}
}
