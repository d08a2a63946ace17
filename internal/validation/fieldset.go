package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"barkpark-backend/internal/pipeline"
)

// FieldSet is the mapping of attribute names to proposed values taken from
// the "data" envelope of a create/update request body.
type FieldSet map[string]any

type envelope struct {
	Data map[string]any `json:"data"`
}

// ParseBody reads a {"data": {...}} request body. A missing body or a missing
// data key yields an empty set; malformed JSON is an error.
func ParseBody(r io.Reader) (FieldSet, error) {
	var env envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		if errors.Is(err, io.EOF) {
			return FieldSet{}, nil
		}
		return nil, fmt.Errorf("malformed request body: %w", err)
	}
	if env.Data == nil {
		return FieldSet{}, nil
	}
	return FieldSet(env.Data), nil
}

// Has reports whether the field was supplied at all, including as null.
func (fs FieldSet) Has(key string) bool {
	_, ok := fs[key]
	return ok
}

// String returns the field as a string, or "" when absent or not a string.
func (fs FieldSet) String(key string) string {
	s, _ := fs[key].(string)
	return s
}

// Bool returns the field as a bool, or false when absent or not a bool.
func (fs FieldSet) Bool(key string) bool {
	b, _ := fs[key].(bool)
	return b
}

// ID returns the field as an integer identifier. JSON numbers decode as
// float64, so the value is truncated.
func (fs FieldSet) ID(key string) int64 {
	n, _ := fs[key].(float64)
	return int64(n)
}

// NullableID returns the field as an identifier pointer, nil when the field
// is absent, null, or not numeric.
func (fs FieldSet) NullableID(key string) *int64 {
	n, ok := fs[key].(float64)
	if !ok {
		return nil
	}
	id := int64(n)
	return &id
}

// NullableString returns the field as a string pointer, nil when absent,
// null, or not a string.
func (fs FieldSet) NullableString(key string) *string {
	s, ok := fs[key].(string)
	if !ok {
		return nil
	}
	return &s
}

// Schema is the field whitelist and required-field contract for one
// operation kind. Name labels failure messages ("user", "dog", "login").
type Schema struct {
	Name     string
	Allowed  []string
	Required []string
}

// CheckAllowed rejects any field outside the whitelist, reporting every
// offending field name in one combined message rather than only the first.
func (s Schema) CheckAllowed(fs FieldSet) *pipeline.Failure {
	var invalid []string
	for field := range fs {
		if !contains(s.Allowed, field) {
			invalid = append(invalid, field)
		}
	}
	if len(invalid) == 0 {
		return nil
	}
	sort.Strings(invalid)
	return pipeline.Invalidf("Invalid %s field(s): %s", s.Name, strings.Join(invalid, ", "))
}

// CheckRequired reports every required field missing from the set in one
// combined message.
func (s Schema) CheckRequired(fs FieldSet) *pipeline.Failure {
	var missing []string
	for _, field := range s.Required {
		if !fs.Has(field) {
			missing = append(missing, field)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return pipeline.Invalidf("Missing required %s field(s): %s", s.Name, strings.Join(missing, ", "))
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
