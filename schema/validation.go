package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Schema type constants.
const (
	typeObject  = "object"
	typeArray   = "array"
	typeString  = "string"
	typeInteger = "integer"
	typeNumber  = "number"
	typeBoolean = "boolean"
)

// ValidationKind classifies a validation failure.
type ValidationKind string

const (
	// KindSyntax means the input was not valid JSON.
	KindSyntax ValidationKind = "syntax"
	// KindMissing means a required field was absent or null.
	KindMissing ValidationKind = "missing"
	// KindType means a value had the wrong JSON type and could not be coerced.
	KindType ValidationKind = "type"
	// KindConstraint means a value had the right type but violated
	// minimum, maximum, pattern or enum.
	KindConstraint ValidationKind = "constraint"
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Path    string // JSON path to the invalid field (e.g., "user.email")
	Message string // Human-readable error message
	Kind    ValidationKind
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range e {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("  - ")
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Has reports whether any error in the collection is of the given kind.
func (e ValidationErrors) Has(kind ValidationKind) bool {
	for _, err := range e {
		if err.Kind == kind {
			return true
		}
	}
	return false
}

// Validate validates JSON data against a schema.
// Returns nil if valid, or ValidationErrors if invalid.
func (s *Schema) Validate(data json.RawMessage) error {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return ValidationErrors{{Message: fmt.Sprintf("invalid JSON: %s", err), Kind: KindSyntax}}
	}

	var errs ValidationErrors
	s.validate("", value, &errs)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Coerce decodes JSON object arguments, converts loosely typed scalars to
// the declared property types and validates the result. Numeric strings
// become numbers and "true"/"false" become booleans; strings are never
// produced from other types. Empty or null input is treated as an empty
// object. Properties not declared in the schema are passed through untouched.
func (s *Schema) Coerce(data json.RawMessage) (json.RawMessage, error) {
	var value any = map[string]any{}
	trimmed := strings.TrimSpace(string(data))
	if trimmed != "" && trimmed != "null" {
		if err := json.Unmarshal(data, &value); err != nil {
			return nil, ValidationErrors{{Message: fmt.Sprintf("invalid JSON: %s", err), Kind: KindSyntax}}
		}
	}

	value = s.coerce(value)

	var errs ValidationErrors
	s.validate("", value, &errs)
	if len(errs) > 0 {
		return nil, errs
	}

	out, err := json.Marshal(value)
	if err != nil {
		return nil, ValidationErrors{{Message: fmt.Sprintf("re-encode arguments: %s", err), Kind: KindSyntax}}
	}
	return out, nil
}

func (s *Schema) coerce(value any) any {
	switch s.Type {
	case typeNumber, typeInteger:
		if str, ok := value.(string); ok {
			if f, ok := parseDecimal(str); ok {
				return f
			}
		}
	case typeBoolean:
		if str, ok := value.(string); ok {
			switch str {
			case "true":
				return true
			case "false":
				return false
			}
		}
	case typeObject:
		if obj, ok := value.(map[string]any); ok {
			for name, prop := range s.Properties {
				if v, exists := obj[name]; exists {
					obj[name] = prop.coerce(v)
				}
			}
		}
	case typeArray:
		if arr, ok := value.([]any); ok && s.Items != nil {
			for i := range arr {
				arr[i] = s.Items.coerce(arr[i])
			}
		}
	}
	return value
}

func (s *Schema) validate(path string, value any, errs *ValidationErrors) {
	// null is valid for any type; required-ness is checked by the parent object
	if value == nil {
		return
	}

	switch s.Type {
	case typeObject:
		s.validateObject(path, value, errs)
	case typeArray:
		s.validateArray(path, value, errs)
	case typeString:
		s.validateString(path, value, errs)
	case typeInteger:
		s.validateInteger(path, value, errs)
	case typeNumber:
		s.validateNumber(path, value, errs)
	case typeBoolean:
		s.validateBoolean(path, value, errs)
	}
}

func (s *Schema) validateObject(path string, value any, errs *ValidationErrors) {
	obj, ok := value.(map[string]any)
	if !ok {
		*errs = append(*errs, &ValidationError{
			Path:    path,
			Message: fmt.Sprintf("expected object, got %s", jsonTypeName(value)),
			Kind:    KindType,
		})
		return
	}

	for _, req := range s.Required {
		if v, exists := obj[req]; !exists || v == nil {
			*errs = append(*errs, &ValidationError{
				Path:    joinPath(path, req),
				Message: "required field is missing",
				Kind:    KindMissing,
			})
		}
	}

	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if val, exists := obj[name]; exists {
			s.Properties[name].validate(joinPath(path, name), val, errs)
		}
	}
}

func (s *Schema) validateArray(path string, value any, errs *ValidationErrors) {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		*errs = append(*errs, &ValidationError{
			Path:    path,
			Message: fmt.Sprintf("expected array, got %s", jsonTypeName(value)),
			Kind:    KindType,
		})
		return
	}

	if s.Items == nil {
		return
	}

	for i := 0; i < rv.Len(); i++ {
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		s.Items.validate(itemPath, rv.Index(i).Interface(), errs)
	}
}

func (s *Schema) validateString(path string, value any, errs *ValidationErrors) {
	str, ok := value.(string)
	if !ok {
		*errs = append(*errs, &ValidationError{
			Path:    path,
			Message: fmt.Sprintf("expected string, got %s", jsonTypeName(value)),
			Kind:    KindType,
		})
		return
	}

	if len(s.Enum) > 0 {
		found := false
		for _, e := range s.Enum {
			if e == str {
				found = true
				break
			}
		}
		if !found {
			*errs = append(*errs, &ValidationError{
				Path:    path,
				Message: fmt.Sprintf("value must be one of: %v", s.Enum),
				Kind:    KindConstraint,
			})
		}
	}

	if s.Pattern != "" {
		re, err := compilePattern(s.Pattern)
		if err != nil || !re.MatchString(str) {
			*errs = append(*errs, &ValidationError{
				Path:    path,
				Message: fmt.Sprintf("value %q does not match pattern %s", str, s.Pattern),
				Kind:    KindConstraint,
			})
		}
	}
}

func (s *Schema) validateInteger(path string, value any, errs *ValidationErrors) {
	var num float64
	switch v := value.(type) {
	case float64:
		num = v
		if num != math.Trunc(num) {
			*errs = append(*errs, &ValidationError{
				Path:    path,
				Message: "expected integer, got decimal number",
				Kind:    KindType,
			})
			return
		}
	case int:
		num = float64(v)
	case int64:
		num = float64(v)
	default:
		*errs = append(*errs, &ValidationError{
			Path:    path,
			Message: fmt.Sprintf("expected integer, got %s", jsonTypeName(value)),
			Kind:    KindType,
		})
		return
	}

	s.validateNumericConstraints(path, num, errs)
}

func (s *Schema) validateNumber(path string, value any, errs *ValidationErrors) {
	var num float64
	switch v := value.(type) {
	case float64:
		num = v
	case float32:
		num = float64(v)
	case int:
		num = float64(v)
	case int64:
		num = float64(v)
	default:
		*errs = append(*errs, &ValidationError{
			Path:    path,
			Message: fmt.Sprintf("expected number, got %s", jsonTypeName(value)),
			Kind:    KindType,
		})
		return
	}

	s.validateNumericConstraints(path, num, errs)
}

func (s *Schema) validateNumericConstraints(path string, num float64, errs *ValidationErrors) {
	if s.Minimum != nil && num < *s.Minimum {
		*errs = append(*errs, &ValidationError{
			Path:    path,
			Message: fmt.Sprintf("value %v is less than minimum %v", num, *s.Minimum),
			Kind:    KindConstraint,
		})
	}

	if s.Maximum != nil && num > *s.Maximum {
		*errs = append(*errs, &ValidationError{
			Path:    path,
			Message: fmt.Sprintf("value %v is greater than maximum %v", num, *s.Maximum),
			Kind:    KindConstraint,
		})
	}
}

func (s *Schema) validateBoolean(path string, value any, errs *ValidationErrors) {
	if _, ok := value.(bool); !ok {
		*errs = append(*errs, &ValidationError{
			Path:    path,
			Message: fmt.Sprintf("expected boolean, got %s", jsonTypeName(value)),
			Kind:    KindType,
		})
	}
}

var patternCache sync.Map // map[string]*regexp.Regexp

func compilePattern(pattern string) (*regexp.Regexp, error) {
	if re, ok := patternCache.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	patternCache.Store(pattern, re)
	return re, nil
}

// jsonTypeName names the JSON type of a decoded value.
func jsonTypeName(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case float64, float32, int, int64:
		return "number"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func joinPath(base, field string) string {
	if base == "" {
		return field
	}
	return base + "." + field
}

// parseDecimal accepts plain decimal notation only: no hex floats,
// underscores, Inf or NaN.
func parseDecimal(str string) (float64, bool) {
	str = strings.TrimSpace(str)
	if str == "" || strings.Trim(str, "0123456789+-.eE") != "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(str, 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
