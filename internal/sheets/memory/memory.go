package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"ccpp/internal/core"
	ports "ccpp/internal/sheets"
)

// Store keeps tables in process memory. Every write bumps a version so
// fingerprint-keyed caches see the change.
type Store struct {
	mu       sync.Mutex
	tables   map[string]core.Table
	versions map[string]int
}

var (
	_ ports.TableReader   = (*Store)(nil)
	_ ports.TableWriter   = (*Store)(nil)
	_ ports.Fingerprinter = (*Store)(nil)
)

func New(tables ...core.Table) *Store {
	s := &Store{tables: map[string]core.Table{}, versions: map[string]int{}}
	for _, t := range tables {
		s.Put(t)
	}
	return s
}

// FromValues is a convenience for tests: header row first.
func FromValues(source string, values [][]string) core.Table {
	return core.NewTable(source, values)
}

// Put stores t under t.Source, replacing any previous table.
func (s *Store) Put(t core.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[t.Source] = clone(t)
	s.versions[t.Source]++
}

func (s *Store) ReadTable(_ context.Context, source string) (core.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[source]
	if !ok {
		return core.Table{}, fmt.Errorf("%s: %w", source, ports.ErrSourceNotFound)
	}
	return clone(t), nil
}

func (s *Store) WriteTable(_ context.Context, dest string, t core.Table) error {
	t.Source = dest
	s.Put(t)
	return nil
}

func (s *Store) Fingerprint(_ context.Context, source string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.versions[source]
	if !ok {
		return "", fmt.Errorf("%s: %w", source, ports.ErrSourceNotFound)
	}
	return "v" + strconv.Itoa(v), nil
}

func clone(t core.Table) core.Table {
	out := core.Table{Source: t.Source, Columns: append([]string(nil), t.Columns...)}
	out.Rows = make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		out.Rows[i] = append([]string(nil), r...)
	}
	return out
}
