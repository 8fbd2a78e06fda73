package service

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"metro/internal/domain"
	"metro/internal/network"
	"metro/internal/repository"
)

var (
	// ErrInvalidPassengerID is returned when passenger ID is empty.
	ErrInvalidPassengerID = errors.New("invalid passenger id")

	// ErrInvalidStationID is returned when a station ID is empty.
	ErrInvalidStationID = errors.New("invalid station id")

	// ErrInvalidTicketID is returned when ticket ID is empty.
	ErrInvalidTicketID = errors.New("invalid ticket id")

	// ErrInvalidLineID is returned when line ID is empty.
	ErrInvalidLineID = errors.New("invalid line id")

	// ErrInvalidActorID is returned when the scanning or selling staff member is not identified.
	ErrInvalidActorID = errors.New("invalid actor id")

	// ErrInvalidDirection is returned when a scan direction is neither ENTRY nor EXIT.
	ErrInvalidDirection = errors.New("invalid scan direction")

	// ErrInvalidCode is returned when a station or line code or name is empty.
	ErrInvalidCode = errors.New("invalid code or name")

	// ErrSameStation is returned when source and destination are the same station.
	ErrSameStation = errors.New("source and destination must be different")

	// ErrSelfLoopConnection is returned when a connection joins a station to itself.
	ErrSelfLoopConnection = errors.New("connection endpoints must be different stations")

	// ErrNoActiveLine is returned when no line is both active and open for ticket purchase.
	ErrNoActiveLine = errors.New("ticket purchase is currently unavailable")

	// ErrNoPath is returned when the destination cannot be reached from the source.
	ErrNoPath = network.ErrNoPath

	// ErrInvalidAmount is returned when a top-up amount is out of range or too precise.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientBalance is matched by every *InsufficientBalanceError.
	ErrInsufficientBalance = errors.New("insufficient wallet balance")

	// ErrIllegalTransition is matched by every *IllegalTransitionError.
	ErrIllegalTransition = errors.New("illegal ticket transition")

	// ErrScanInProgress is returned when another gate is scanning the same ticket.
	ErrScanInProgress = errors.New("ticket scan already in progress")
)

// InsufficientBalanceError reports a debit larger than the wallet balance.
type InsufficientBalanceError struct {
	PassengerID string
	Available   decimal.Decimal
	Requested   decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient wallet balance: available %s, requested %s",
		e.Available.StringFixed(2), e.Requested.StringFixed(2))
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// IllegalTransitionError reports a scan the ticket's status does not allow.
type IllegalTransitionError struct {
	Direction domain.ScanDirection
	Status    domain.TicketStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("cannot %s scan: ticket status is %s", e.Direction, e.Status)
}

func (e *IllegalTransitionError) Unwrap() error {
	return ErrIllegalTransition
}

// NotFoundError names the entity that could not be found.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return repository.ErrNotFound
}

// StorageError wraps a persistence failure. The operation had no effect
// and may be retried.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// storageErr wraps err in a StorageError unless it already carries a
// domain meaning.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		insufficient *InsufficientBalanceError
		illegal      *IllegalTransitionError
		notFound     *NotFoundError
		storage      *StorageError
	)
	switch {
	case errors.As(err, &insufficient), errors.As(err, &illegal),
		errors.As(err, &notFound), errors.As(err, &storage):
		return err
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrScanInProgress),
		errors.Is(err, ErrNoPath), errors.Is(err, ErrNoActiveLine),
		errors.Is(err, repository.ErrDuplicate):
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// notFound converts repository.ErrNotFound into a NotFoundError for entity.
func notFound(entity, id string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Entity: entity, ID: id}
	}
	return err
}
