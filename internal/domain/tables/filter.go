package tables

import (
    "fmt"
    "strings"
    "time"

    "github.com/walletera/eventstore-tables/pkg/optional"
)

type Op int

const (
    Eq Op = iota
    Gt
    Ge
    Lt
    Le
)

func (o Op) String() string {
    switch o {
    case Eq:
        return "eq"
    case Gt:
        return "gt"
    case Ge:
        return "ge"
    case Lt:
        return "lt"
    case Le:
        return "le"
    default:
        return fmt.Sprintf("op(%d)", int(o))
    }
}

// Condition compares a typed column against a value. Supported value types
// are string, int64, bool and time.Time.
type Condition struct {
    Column string
    Op     Op
    Value  any
}

// Filter is a conjunction of conditions, optionally scoped to one partition.
type Filter struct {
    PartitionKey optional.Optional[string]
    Conditions   []Condition
}

func InPartition(partitionKey string) Filter {
    return Filter{PartitionKey: optional.Some(partitionKey)}
}

func AllPartitions() Filter {
    return Filter{}
}

// And returns a copy of f with one more condition.
func (f Filter) And(column string, op Op, value any) Filter {
    conditions := make([]Condition, 0, len(f.Conditions)+1)
    conditions = append(conditions, f.Conditions...)
    conditions = append(conditions, Condition{Column: column, Op: op, Value: value})
    return Filter{PartitionKey: f.PartitionKey, Conditions: conditions}
}

func (f Filter) Validate() error {
    for _, c := range f.Conditions {
        if c.Column == "" {
            return fmt.Errorf("%w: empty column name", ErrInvalidFilter)
        }
        if c.Op < Eq || c.Op > Le {
            return fmt.Errorf("%w: unknown operator %s on %s", ErrInvalidFilter, c.Op, c.Column)
        }
        switch c.Value.(type) {
        case string, int64, time.Time:
        case bool:
            if c.Op != Eq {
                return fmt.Errorf("%w: bool column %s only supports eq", ErrInvalidFilter, c.Column)
            }
        default:
            return fmt.Errorf("%w: unsupported value type %T on %s", ErrInvalidFilter, c.Value, c.Column)
        }
    }
    return nil
}

func (f Filter) String() string {
    var parts []string
    if pk, ok := f.PartitionKey.Get(); ok {
        parts = append(parts, fmt.Sprintf("PartitionKey eq %q", pk))
    }
    for _, c := range f.Conditions {
        parts = append(parts, fmt.Sprintf("%s %s %v", c.Column, c.Op, c.Value))
    }
    return strings.Join(parts, " and ")
}

// Matches reports whether actual satisfies the condition. A missing column
// never matches. Comparing values of different types is an error.
func (c Condition) Matches(actual any, present bool) (bool, error) {
    if !present {
        return false, nil
    }
    cmp, err := compare(actual, c.Value)
    if err != nil {
        return false, fmt.Errorf("%w: column %s: %s", ErrInvalidFilter, c.Column, err.Error())
    }
    switch c.Op {
    case Eq:
        return cmp == 0, nil
    case Gt:
        return cmp > 0, nil
    case Ge:
        return cmp >= 0, nil
    case Lt:
        return cmp < 0, nil
    case Le:
        return cmp <= 0, nil
    }
    return false, fmt.Errorf("%w: unknown operator %s", ErrInvalidFilter, c.Op)
}

func compare(a, b any) (int, error) {
    switch av := a.(type) {
    case string:
        bv, ok := b.(string)
        if !ok {
            break
        }
        return strings.Compare(av, bv), nil
    case int64:
        bv, ok := b.(int64)
        if !ok {
            break
        }
        switch {
        case av < bv:
            return -1, nil
        case av > bv:
            return 1, nil
        }
        return 0, nil
    case bool:
        bv, ok := b.(bool)
        if !ok {
            break
        }
        if av == bv {
            return 0, nil
        }
        return 1, nil
    case time.Time:
        bv, ok := b.(time.Time)
        if !ok {
            break
        }
        return av.Compare(bv), nil
    }
    return 0, fmt.Errorf("cannot compare %T with %T", a, b)
}
