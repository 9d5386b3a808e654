package settings

// Opt distinguishes "inherit from the next level" from an explicit value,
// including explicit zero values such as use_atr=0.
type Opt[T any] struct {
	value T
	set   bool
}

// Inherit is the unset state.
func Inherit[T any]() Opt[T] {
	return Opt[T]{}
}

// Override wraps an explicit value.
func Override[T any](v T) Opt[T] {
	return Opt[T]{value: v, set: true}
}

// FromPtr maps a nullable column to an Opt; nil means inherit.
func FromPtr[T any](p *T) Opt[T] {
	if p == nil {
		return Opt[T]{}
	}
	return Override(*p)
}

func (o Opt[T]) IsSet() bool {
	return o.set
}

func (o Opt[T]) Get() (T, bool) {
	return o.value, o.set
}

// Or returns the value or fallback when unset.
func (o Opt[T]) Or(fallback T) T {
	if o.set {
		return o.value
	}
	return fallback
}

// Ptr converts back to a nullable column value.
func (o Opt[T]) Ptr() *T {
	if !o.set {
		return nil
	}
	v := o.value
	return &v
}

// First returns the first set option, walking from the most specific level.
func First[T any](opts ...Opt[T]) Opt[T] {
	for _, o := range opts {
		if o.set {
			return o
		}
	}
	return Opt[T]{}
}
