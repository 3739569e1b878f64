package validation

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"sort"
)

// JSONSchema is the subset of JSON Schema used to describe job variables in
// the activity registry.
type JSONSchema struct {
	Type                 string              `json:"type"`
	Properties           map[string]Property `json:"properties"`
	Required             []string            `json:"required,omitempty"`
	AdditionalProperties bool                `json:"additionalProperties,omitempty"`
}

type Property struct {
	Type        string              `json:"type"`
	Description string              `json:"description,omitempty"`
	Default     interface{}         `json:"default,omitempty"`
	Minimum     *float64            `json:"minimum,omitempty"`
	Maximum     *float64            `json:"maximum,omitempty"`
	Enum        []string            `json:"enum,omitempty"`
	Pattern     *string             `json:"pattern,omitempty"`
	MinLength   *int                `json:"minLength,omitempty"`
	MaxLength   *int                `json:"maxLength,omitempty"`
	Items       *Property           `json:"items,omitempty"`
	Properties  map[string]Property `json:"properties,omitempty"`
	Required    []string            `json:"required,omitempty"`
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Messages renders every error as "field: message".
func (r *ValidationResult) Messages() []string {
	out := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		out[i] = e.Field + ": " + e.Message
	}
	return out
}

// HasFieldError reports whether field failed any check.
func (r *ValidationResult) HasFieldError(field string) bool {
	return slices.ContainsFunc(r.Errors, func(e ValidationError) bool { return e.Field == field })
}

type checker struct {
	errs []ValidationError
}

func (c *checker) add(field, code, format string, args ...interface{}) {
	c.errs = append(c.errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Code: code})
}

// ValidateInput checks decoded job variables against schema. Errors are
// reported in field order so messages are stable. A null value for an
// optional property counts as absent, since Zeebe keeps unset process
// variables as null.
func ValidateInput(input map[string]interface{}, schema JSONSchema) *ValidationResult {
	c := &checker{}
	c.object("", input, schema.Properties, schema.Required, schema.AdditionalProperties)
	return &ValidationResult{Valid: len(c.errs) == 0, Errors: c.errs}
}

func (c *checker) object(prefix string, obj map[string]interface{}, props map[string]Property, required []string, extra bool) {
	for _, name := range required {
		if v, ok := obj[name]; !ok || v == nil {
			c.add(prefix+name, "REQUIRED_FIELD_MISSING", "required field missing")
		}
	}

	names := make([]string, 0, len(obj))
	for name := range obj {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := obj[name]
		prop, known := props[name]
		switch {
		case !known && !extra:
			c.add(prefix+name, "EXTRA_FIELD", "field not allowed in schema")
		case !known, value == nil:
		default:
			c.value(prefix+name, value, prop)
		}
	}
}

func (c *checker) value(field string, value interface{}, prop Property) {
	if err := checkType(value, prop.Type); err != nil {
		c.add(field, "INVALID_TYPE", "%v", err)
		return
	}

	switch v := value.(type) {
	case string:
		c.text(field, v, prop)
	case []interface{}:
		if prop.Items != nil {
			for i, item := range v {
				c.value(fmt.Sprintf("%s[%d]", field, i), item, *prop.Items)
			}
		}
	case map[string]interface{}:
		if prop.Properties != nil {
			c.object(field+".", v, prop.Properties, prop.Required, true)
		}
	}

	if n, ok := number(value); ok {
		if prop.Minimum != nil && n < *prop.Minimum {
			c.add(field, "MINIMUM_VIOLATION", "value must be >= %g", *prop.Minimum)
		}
		if prop.Maximum != nil && n > *prop.Maximum {
			c.add(field, "MAXIMUM_VIOLATION", "value must be <= %g", *prop.Maximum)
		}
	}
}

func (c *checker) text(field, s string, prop Property) {
	if prop.MinLength != nil && len(s) < *prop.MinLength {
		c.add(field, "MIN_LENGTH_VIOLATION", "value must be at least %d characters", *prop.MinLength)
	}
	if prop.MaxLength != nil && len(s) > *prop.MaxLength {
		c.add(field, "MAX_LENGTH_VIOLATION", "value must be at most %d characters", *prop.MaxLength)
	}
	if prop.Pattern != nil {
		if ok, err := regexp.MatchString(*prop.Pattern, s); err != nil || !ok {
			c.add(field, "PATTERN_MISMATCH", "value must match pattern %s", *prop.Pattern)
		}
	}
	if len(prop.Enum) > 0 && !slices.Contains(prop.Enum, s) {
		c.add(field, "INVALID_ENUM_VALUE", "value must be one of %v", prop.Enum)
	}
}

func checkType(value interface{}, want string) error {
	ok := true
	switch want {
	case "string":
		_, ok = value.(string)
	case "number":
		_, ok = number(value)
	case "integer":
		n, isNum := number(value)
		ok = isNum && n == math.Trunc(n)
	case "boolean":
		_, ok = value.(bool)
	case "object":
		_, ok = value.(map[string]interface{})
	case "array":
		_, ok = value.([]interface{})
	}
	if !ok {
		return fmt.Errorf("expected %s, got %T", want, value)
	}
	return nil
}

func number(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	}
	return 0, false
}

var taskTypePattern = regexp.MustCompile(`^[a-z]+(-[a-z]+)+$`)

// ValidateTaskType checks the kebab-case verb-noun naming used for job types.
func ValidateTaskType(taskType string) error {
	if !taskTypePattern.MatchString(taskType) {
		return fmt.Errorf("task type must be kebab-case with at least two words (e.g., evaluate-interview)")
	}
	return nil
}

func Float64Ptr(v float64) *float64 { return &v }

func IntPtr(v int) *int { return &v }
