package opt

import (
	"fmt"
	"strconv"
	"strings"
)

// FormString reads a multipart/urlencoded value. A key sent with an empty
// value counts as explicit null.
func FormString(values map[string][]string, key string) Field[string] {
	vs, ok := values[key]
	if !ok || len(vs) == 0 {
		return Absent[string]()
	}
	v := strings.TrimSpace(vs[0])
	if v == "" {
		return Null[string]()
	}
	return Of(v)
}

// FormUint is FormString followed by an unsigned integer parse.
func FormUint(values map[string][]string, key string) (Field[uint], error) {
	s := FormString(values, key)
	raw, ok := s.Get()
	if !ok {
		if s.IsNull() {
			return Null[uint](), nil
		}
		return Absent[uint](), nil
	}

	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return Absent[uint](), fmt.Errorf("%s must be an integer", key)
	}
	return Of(uint(n)), nil
}
