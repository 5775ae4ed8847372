package domain

import "github.com/goccy/go-json"

// Block holds an optional home page section config. The zero value is the
// absent variant; callers must go through Get, which makes "render nothing
// when absent" the only way to read one.
type Block[T any] struct {
	value   T
	present bool
}

// NewBlock wraps a present config.
func NewBlock[T any](v T) Block[T] {
	return Block[T]{value: v, present: true}
}

// Get returns the config and whether it is present.
func (b Block[T]) Get() (T, bool) {
	return b.value, b.present
}

// IsPresent reports whether the block carries a config.
func (b Block[T]) IsPresent() bool {
	return b.present
}

// Value returns the config or nil when absent. Templates use it with `with`.
func (b Block[T]) Value() *T {
	if !b.present {
		return nil
	}
	v := b.value
	return &v
}

func (b Block[T]) MarshalJSON() ([]byte, error) {
	if !b.present {
		return []byte("null"), nil
	}
	return json.Marshal(b.value)
}

func (b *Block[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*b = Block[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*b = NewBlock(v)
	return nil
}
