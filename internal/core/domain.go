// Package core holds the dashboard's domain types: spreadsheet tables,
// users, contracts, sessions and money.
package core

import (
	"errors"
	"strings"
	"time"
)

// Credential table columns.
const (
	ColUsername     = "USUARIO"
	ColPasswordHash = "HASH_CONTRASEÑA"
	ColDisplayName  = "NOMBRE DE COLABORADOR"
	// ColPassword is only read by the offline hashing utility.
	ColPassword = "CONTRASEÑA"
)

// Contract table columns.
const (
	ColClient             = "CLIENTE"
	ColTaxID              = "CIF/DNI"
	ColCUPS               = "CUPS"
	ColContractType       = "TIPO CONTRATO"
	ColCompany            = "COMPAÑÍA"
	ColCommissionAdmin    = "Comision IVAN"
	ColCommissionStandard = "Comision"
	ColInvoiceAdmin       = "Factura IVAN"
	ColMonth              = "MES"
	ColStatus             = "ESTADO"
	ColCollaborator       = "COLABORADOR"
)

// All is the sentinel used both as the admin identity and as the
// "no restriction" filter value.
const All = "Todos"

var (
	UserColumns     = []string{ColUsername, ColPasswordHash, ColDisplayName}
	ContractColumns = []string{
		ColClient, ColTaxID, ColCUPS, ColContractType, ColCompany,
		ColCommissionAdmin, ColCommissionStandard, ColMonth, ColStatus, ColCollaborator,
	}
	// AdminOnlyColumns never leave the server for non-admin sessions.
	AdminOnlyColumns = []string{ColCommissionAdmin, ColInvoiceAdmin}
)

type (
	User struct {
		Username     string
		DisplayName  string
		PasswordHash string
	}

	Contract struct {
		Client             string
		TaxID              string
		CUPS               string
		ContractType       string
		Company            string
		CommissionAdmin    Money
		CommissionStandard Money
		Month              string
		Status             string
		Collaborator       string

		// Raw keeps every source cell, aligned with the table header.
		Raw []string
	}

	// Session is the authenticated context handed to every filter and
	// aggregation call.
	Session struct {
		ID        string
		Username  string
		Identity  string // collaborator display name, or All for admins
		IsAdmin   bool
		CreatedAt time.Time
		ExpiresAt time.Time
	}
)

var (
	ErrEmptyIdentity  = errors.New("empty session identity")
	ErrSessionExpired = errors.New("session expired")
)

// Commission returns the commission amount as seen by the given role.
func (c Contract) Commission(admin bool) Money {
	if admin {
		return c.CommissionAdmin
	}
	return c.CommissionStandard
}

func (s Session) Validate() error {
	if strings.TrimSpace(s.Identity) == "" {
		return ErrEmptyIdentity
	}
	return nil
}

// Expired reports whether the session is past its expiry. A zero expiry
// never expires.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// SeesAll reports whether the session is unrestricted by collaborator.
func (s Session) SeesAll() bool {
	return s.IsAdmin
}
