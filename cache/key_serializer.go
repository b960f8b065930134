package cache

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// KeySeparator defines the delimiter used between cache key segments.
const KeySeparator = "::"

// maxKeyLength bounds the serialized key size; longer keys collapse to a
// method-prefixed digest so the cache never stores unbounded key material.
const maxKeyLength = 160

// defaultKeySerializer produces deterministic keys for the fetcher cache.
// Scalars serialize to their literal representation; composite values (entity
// payloads, request structs) are msgpack-encoded and digested with xxhash,
// which is stable for struct types because fields encode in declaration
// order.
type defaultKeySerializer struct{}

// NewDefaultKeySerializer creates a new instance of the default key
// serializer.
func NewDefaultKeySerializer() KeySerializer {
	return &defaultKeySerializer{}
}

// SerializeKey builds a cache key from the method name and its arguments.
func (s *defaultKeySerializer) SerializeKey(method string, args ...any) string {
	if len(args) == 0 {
		return method
	}

	parts := make([]string, 0, len(args)+1)
	parts = append(parts, method)
	for _, arg := range args {
		parts = append(parts, s.serializeValue(arg))
	}

	key := strings.Join(parts, KeySeparator)
	if len(key) > maxKeyLength {
		key = fmt.Sprintf("%s%s#%016x", method, KeySeparator, xxhash.Sum64String(key))
	}
	return key
}

func (s *defaultKeySerializer) serializeValue(v any) string {
	if v == nil {
		return "nil"
	}

	switch t := v.(type) {
	case string:
		return t
	case bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return fmt.Sprintf("%v", t)
	case fmt.Stringer:
		return t.String()
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return "nil"
		}
		return s.serializeValue(rv.Elem().Interface())
	}

	b, err := msgpack.Marshal(v)
	if err != nil {
		// msgpack rejects funcs and channels; fall back to the type name
		// so the key at least stays method-scoped.
		return fmt.Sprintf("%T", v)
	}
	return fmt.Sprintf("%T#%016x", v, xxhash.Sum64(b))
}
