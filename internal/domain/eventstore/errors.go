package eventstore

import (
    "errors"
    "fmt"

    "github.com/walletera/eventstore-tables/internal/domain/tables"
)

var (
    ErrConnection      = errors.New("connection error")
    ErrBatchWrite      = errors.New("batch write error")
    ErrQuery           = errors.New("query error")
    ErrCodec           = errors.New("codec error")
    ErrNotImplemented  = errors.New("not implemented")
    ErrInvalidArgument = errors.New("invalid argument")
    ErrConflict        = tables.ErrConflict
    ErrNotFound        = tables.ErrNotFound
)

// Error is returned by every Store operation. errors.Is matches both Kind
// and anything wrapped in Err.
type Error struct {
    Op   string
    Kind error
    Err  error
}

func (e *Error) Error() string {
    if e.Err == nil {
        return fmt.Sprintf("%s: %s", e.Op, e.Kind)
    }
    return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
    if e.Err == nil {
        return []error{e.Kind}
    }
    return []error{e.Kind, e.Err}
}

func newError(op string, kind error, err error) *Error {
    return &Error{Op: op, Kind: kind, Err: err}
}

// RowError reports a row that could not be decoded.
type RowError struct {
    Key tables.Key
    Err error
}

func (e *RowError) Error() string {
    return fmt.Sprintf("row %s/%s: %s", e.Key.PartitionKey, e.Key.RowKey, e.Err)
}

func (e *RowError) Unwrap() error {
    return e.Err
}
