package services

import (
	"errors"
	"fmt"
)

// Kind classifies a core failure so the transport can render it.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindInvalidTask       Kind = "invalid_task"
	KindInvalidProof      Kind = "invalid_proof"
	KindInsufficientFunds Kind = "insufficient_funds"
	KindTaskSaturated     Kind = "task_saturated"
	KindAlreadyProcessed  Kind = "already_processed"
	KindUnauthorized      Kind = "unauthorized"
	KindInvalidInput      Kind = "invalid_input"
	KindStorage           Kind = "storage"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTask       = errors.New("task is not active")
	ErrInvalidProof      = errors.New("proof does not match task")
	ErrInsufficientFunds = errors.New("insufficient points")
	ErrTaskSaturated     = errors.New("task has no slots left")
	ErrAlreadyProcessed  = errors.New("already processed")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidInput      = errors.New("invalid input")
	ErrStorage           = errors.New("storage failure")
)

var sentinels = map[Kind]error{
	KindNotFound:          ErrNotFound,
	KindInvalidTask:       ErrInvalidTask,
	KindInvalidProof:      ErrInvalidProof,
	KindInsufficientFunds: ErrInsufficientFunds,
	KindTaskSaturated:     ErrTaskSaturated,
	KindAlreadyProcessed:  ErrAlreadyProcessed,
	KindUnauthorized:      ErrUnauthorized,
	KindInvalidInput:      ErrInvalidInput,
	KindStorage:           ErrStorage,
}

// Error is returned by every core operation that fails. Entity and ID name the
// record the failure is about ("task", "42").
type Error struct {
	Kind   Kind
	Entity string
	ID     string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := sentinels[e.Kind].Error()
	switch {
	case e.Entity != "" && e.ID != "":
		msg = fmt.Sprintf("%s %q: %s", e.Entity, e.ID, msg)
	case e.Entity != "":
		msg = fmt.Sprintf("%s: %s", e.Entity, msg)
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrNotFound) match any *Error of that kind.
func (e *Error) Is(target error) bool {
	return sentinels[e.Kind] == target
}

func newError(kind Kind, entity string, id interface{}, detail string) *Error {
	e := &Error{Kind: kind, Entity: entity, Detail: detail}
	if id != nil {
		e.ID = fmt.Sprint(id)
	}
	return e
}

func notFound(entity string, id interface{}) error {
	return newError(KindNotFound, entity, id, "")
}

func invalidInput(field, detail string) error {
	return newError(KindInvalidInput, field, nil, detail)
}

func storageError(op string, err error) error {
	return &Error{Kind: KindStorage, Entity: op, Err: err}
}

// KindOf returns the Kind carried by err, or "" when err is nil or untyped.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// asCoreError passes typed errors through and wraps anything else as a storage failure.
func asCoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return storageError(op, err)
}
