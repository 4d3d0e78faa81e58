package codec

import (
	"fmt"
	"reflect"
)

// newLike returns a freshly allocated pointer to the same concrete type as
// template (which must itself be a pointer), so Canonicalize can decode into
// a clean value without the caller's original data leaking through.
func newLike(template interface{}) (interface{}, error) {
	rv := reflect.ValueOf(template)
	if rv.Kind() != reflect.Ptr {
		return nil, fmt.Errorf("codec: Canonicalize template must be a pointer, got %T", template)
	}
	return reflect.New(rv.Type().Elem()).Interface(), nil
}
