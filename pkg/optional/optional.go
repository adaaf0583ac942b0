package optional

// Optional holds a value that may be absent.
type Optional[T any] struct {
    Value T
    Set   bool
}

func Some[T any](value T) Optional[T] {
    return Optional[T]{Value: value, Set: true}
}

func None[T any]() Optional[T] {
    return Optional[T]{}
}

// Get returns the value and whether it was set.
func (o Optional[T]) Get() (T, bool) {
    return o.Value, o.Set
}
