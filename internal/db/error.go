package db

import "errors"

// DuplicateKeyError is an error type for duplicate key errors
type DuplicateKeyError struct {
	Key     string
	Message string
}

func (e *DuplicateKeyError) Error() string {
	return e.Message
}

func IsDuplicateKeyError(err error) bool {
	var target *DuplicateKeyError
	return errors.As(err, &target)
}

// NotFoundError is returned when a requested document does not exist
type NotFoundError struct {
	Key     string
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func IsNotFoundError(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// WalletConflictError is returned when a wallet assignment would bind a
// (chain, wallet) pair already exclusively owned by a different partner.
// Never silently overwritten.
type WalletConflictError struct {
	ChainID        string
	Wallet         string
	OwnerPartnerID string
}

func (e *WalletConflictError) Error() string {
	return "wallet " + e.Wallet + " on chain " + e.ChainID + " already assigned to partner " + e.OwnerPartnerID
}

func IsWalletConflictError(err error) bool {
	var target *WalletConflictError
	return errors.As(err, &target)
}

// LineNotFoundError is returned by the override layer when the target
// commission line does not exist
type LineNotFoundError struct {
	LineID string
}

func (e *LineNotFoundError) Error() string {
	return "commission line not found: " + e.LineID
}

func IsLineNotFoundError(err error) bool {
	var target *LineNotFoundError
	return errors.As(err, &target)
}
