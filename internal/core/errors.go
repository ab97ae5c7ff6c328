package core

import "errors"

// Boundary errors shared by the loader, the authenticator and the HTTP layer.
var (
	// ErrConfiguration marks a data source that lacks a required column.
	ErrConfiguration = errors.New("configuration error")
	// ErrAuthentication is the single failure returned for any bad login.
	ErrAuthentication = errors.New("invalid username or password")
	// ErrDataLoad marks a failed read of a data source.
	ErrDataLoad = errors.New("data load failed")
)
