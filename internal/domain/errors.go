package domain

import "errors"

var (
	// ErrAccountNotFound is returned when an account does not exist on chain
	ErrAccountNotFound = errors.New("account not found")

	// ErrTransactionNotFound is returned when a transaction signature has no ledger entry
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrNoHistory is returned when a registry entry has no signature history
	ErrNoHistory = errors.New("no signature history")

	// ErrAmbiguousHistory is returned when a registry entry has too many signatures
	// to safely identify its genesis transaction
	ErrAmbiguousHistory = errors.New("ambiguous signature history")

	// ErrUndecodableTransaction is returned when a raw transaction cannot be
	// decoded into an instruction list
	ErrUndecodableTransaction = errors.New("undecodable transaction")

	// ErrUnexpectedShape is returned when a genesis transaction does not match
	// the fixed creation flow
	ErrUnexpectedShape = errors.New("unexpected transaction shape")

	// ErrMissingTokenAddress is returned when a genesis transaction carries no
	// token account
	ErrMissingTokenAddress = errors.New("missing token address")

	// ErrMalformedAccount is returned when account bytes cannot be decoded into
	// a registry record
	ErrMalformedAccount = errors.New("malformed account data")

	// ErrUnauthorized is returned when the signing credential does not match the
	// live update authority
	ErrUnauthorized = errors.New("credential does not match update authority")
)
