package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"ccpp/internal/core"
)

// HashOptions tunes HashPasswordColumn.
type HashOptions struct {
	// Cost is the bcrypt cost; zero means bcrypt.DefaultCost.
	Cost int
	// DropPlaintext removes the CONTRASEÑA column from the result.
	DropPlaintext bool
}

// HashPasswordColumn fills HASH_CONTRASEÑA from CONTRASEÑA for every row,
// adding the column when absent. Rows with a blank password get a blank
// hash and can never log in. It returns the new table and the number of
// hashes written.
func HashPasswordColumn(t core.Table, opts HashOptions) (core.Table, int, error) {
	if err := t.Require(core.ColPassword); err != nil {
		return core.Table{}, 0, fmt.Errorf("%w: %w", core.ErrConfiguration, err)
	}
	cost := opts.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	columns := append([]string(nil), t.Columns...)
	hashIdx := t.Index(core.ColPasswordHash)
	if hashIdx < 0 {
		columns = append(columns, core.ColPasswordHash)
		hashIdx = len(columns) - 1
	}
	plainIdx := t.Index(core.ColPassword)

	out := core.Table{Source: t.Source, Columns: columns, Rows: make([][]string, 0, len(t.Rows))}
	hashed := 0
	for _, row := range t.Rows {
		r := make([]string, len(columns))
		copy(r, row)
		plain := core.Cell(row, plainIdx)
		if plain == "" {
			r[hashIdx] = ""
		} else {
			h, err := hashWithCost(plain, cost)
			if err != nil {
				return core.Table{}, hashed, err
			}
			r[hashIdx] = h
			hashed++
		}
		out.Rows = append(out.Rows, r)
	}

	if opts.DropPlaintext {
		out = dropColumn(out, plainIdx)
	}
	return out, hashed, nil
}

func dropColumn(t core.Table, idx int) core.Table {
	cut := func(in []string) []string {
		if idx >= len(in) {
			return in
		}
		return append(append([]string(nil), in[:idx]...), in[idx+1:]...)
	}
	t.Columns = cut(t.Columns)
	for i, row := range t.Rows {
		t.Rows[i] = cut(row)
	}
	return t
}
