package core

// ContractsFromTable maps every row of a contracts table to a Contract.
// Commission cells are coerced to Money; missing columns yield empty values.
func ContractsFromTable(t Table) []Contract {
	idx := func(c string) int { return t.Index(c) }
	var (
		client   = idx(ColClient)
		taxID    = idx(ColTaxID)
		cups     = idx(ColCUPS)
		kind     = idx(ColContractType)
		company  = idx(ColCompany)
		admin    = idx(ColCommissionAdmin)
		standard = idx(ColCommissionStandard)
		month    = idx(ColMonth)
		status   = idx(ColStatus)
		collab   = idx(ColCollaborator)
	)
	out := make([]Contract, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, Contract{
			Client:             Cell(row, client),
			TaxID:              Cell(row, taxID),
			CUPS:               Cell(row, cups),
			ContractType:       Cell(row, kind),
			Company:            Cell(row, company),
			CommissionAdmin:    CoerceAmount(Cell(row, admin)),
			CommissionStandard: CoerceAmount(Cell(row, standard)),
			Month:              Cell(row, month),
			Status:             Cell(row, status),
			Collaborator:       Cell(row, collab),
			Raw:                row,
		})
	}
	return out
}

// UsersFromTable maps every row of a credentials table to a User, in file
// order.
func UsersFromTable(t Table) []User {
	user, hash, name := t.Index(ColUsername), t.Index(ColPasswordHash), t.Index(ColDisplayName)
	out := make([]User, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, User{
			Username:     Cell(row, user),
			PasswordHash: Cell(row, hash),
			DisplayName:  Cell(row, name),
		})
	}
	return out
}
