// Package file reads and writes tables stored as local spreadsheet files.
//
// Supported formats are Excel workbooks (.xlsx, .xlsm), read from the first
// sheet, and comma separated values (.csv).
package file

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"ccpp/internal/core"
	ports "ccpp/internal/sheets"

	"github.com/xuri/excelize/v2"
)

// Store resolves relative sources against BaseDir.
type Store struct {
	BaseDir string
}

var (
	_ ports.TableReader   = (*Store)(nil)
	_ ports.TableWriter   = (*Store)(nil)
	_ ports.Fingerprinter = (*Store)(nil)
)

var ErrUnsupportedFormat = errors.New("unsupported file format")

func New(baseDir string) *Store {
	return &Store{BaseDir: baseDir}
}

// Path returns the absolute location of a source.
func (s *Store) Path(source string) string {
	if filepath.IsAbs(source) || s.BaseDir == "" {
		return source
	}
	return filepath.Join(s.BaseDir, source)
}

func (s *Store) ReadTable(ctx context.Context, source string) (core.Table, error) {
	if err := ctx.Err(); err != nil {
		return core.Table{}, err
	}
	path := s.Path(source)
	var (
		values [][]string
		err    error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm":
		values, err = readWorkbook(path)
	case ".csv":
		values, err = readCSV(path)
	default:
		return core.Table{}, fmt.Errorf("%s: %w %q", source, ErrUnsupportedFormat, ext)
	}
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return core.Table{}, fmt.Errorf("%s: %w", source, ports.ErrSourceNotFound)
		}
		return core.Table{}, fmt.Errorf("read %s: %w", source, err)
	}
	return core.NewTable(source, values), nil
}

// Fingerprint changes whenever the file is rewritten.
func (s *Store) Fingerprint(_ context.Context, source string) (string, error) {
	fi, err := os.Stat(s.Path(source))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", source, ports.ErrSourceNotFound)
		}
		return "", err
	}
	return strconv.FormatInt(fi.ModTime().UnixNano(), 36) + "-" + strconv.FormatInt(fi.Size(), 36), nil
}

func (s *Store) WriteTable(ctx context.Context, dest string, t core.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := s.Path(dest)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm":
		return writeWorkbook(path, t)
	case ".csv":
		return writeCSV(path, t)
	default:
		return fmt.Errorf("%s: %w %q", dest, ErrUnsupportedFormat, ext)
	}
}

func readWorkbook(path string) ([][]string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New("workbook has no sheets")
	}
	// Raw values keep numeric cells free of display formats such as #,##0.
	return f.GetRows(sheet, excelize.Options{RawCellValue: true})
}

func writeWorkbook(path string, t core.Table) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	if err := writeRow(f, sheet, 1, t.Columns); err != nil {
		return err
	}
	for i, row := range t.Rows {
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

func writeRow(f *excelize.File, sheet string, n int, cells []string) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	row := make([]interface{}, len(cells))
	for i, v := range cells {
		row[i] = v
	}
	return f.SetSheetRow(sheet, cell, &row)
}

func readCSV(path string) ([][]string, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	r := csv.NewReader(fh)
	r.FieldsPerRecord = -1
	recs, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(recs) > 0 && len(recs[0]) > 0 {
		recs[0][0] = strings.TrimPrefix(recs[0][0], "\ufeff")
	}
	return recs, nil
}

func writeCSV(path string, t core.Table) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(fh)
	if err := w.Write(t.Columns); err != nil {
		fh.Close()
		return err
	}
	if err := w.WriteAll(t.Rows); err != nil {
		fh.Close()
		return err
	}
	return fh.Close()
}
