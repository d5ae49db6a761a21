package botkit

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ParamType defines the type of a command parameter.
type ParamType string

const (
	TypeString ParamType = "string"
	TypeInt    ParamType = "int"
	TypeFloat  ParamType = "float"
	TypeBool   ParamType = "bool"
	TypeEnum   ParamType = "enum"
)

// ParamSchema defines validation rules for a command parameter.
type ParamSchema struct {
	// Type is the parameter type (string, int, float, bool, enum).
	Type ParamType

	// Required indicates if the parameter must be provided.
	Required bool

	// Default is the default value if not provided.
	Default any

	// Enum contains allowed values for enum type.
	Enum []string

	// Description is a human-readable description for help text.
	Description string
}

// Params is a map of parameter names to their schemas.
type Params map[string]ParamSchema

// Usage renders the schema as "name=<type>" pairs sorted by name, with
// optional parameters in brackets.
func (p Params) Usage() string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	slices.Sort(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		s := p[name]
		kind := string(s.Type)
		if s.Type == TypeEnum {
			kind = strings.Join(s.Enum, "|")
		}
		part := name + "=<" + kind + ">"
		if !s.Required {
			part = "[" + part + "]"
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, " ")
}

// ParsedParams holds validated parameter values.
type ParsedParams map[string]any

// String returns the string value of a parameter.
func (p ParsedParams) String(key string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return ""
}

// Int returns the int64 value of a parameter.
func (p ParsedParams) Int(key string) int64 {
	if v, ok := p[key].(int64); ok {
		return v
	}
	return 0
}

// Float returns the float64 value of a parameter.
func (p ParsedParams) Float(key string) float64 {
	if v, ok := p[key].(float64); ok {
		return v
	}
	return 0
}

// Bool returns the bool value of a parameter.
func (p ParsedParams) Bool(key string) bool {
	if v, ok := p[key].(bool); ok {
		return v
	}
	return false
}

// Has returns true if the parameter was provided.
func (p ParsedParams) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// parseParams validates key=value words against schema.
// Words without "=" are ignored; they stay available in Context.Args.
// Errors are reported in parameter name order.
func parseParams(args []string, schema Params) (ParsedParams, error) {
	raw := make(map[string]string)
	for _, arg := range args {
		if key, value, ok := strings.Cut(arg, "="); ok && key != "" {
			raw[key] = value
		}
	}

	params := make(ParsedParams)
	if schema == nil {
		for k, v := range raw {
			params[k] = v
		}
		return params, nil
	}

	names := make([]string, 0, len(schema))
	for name := range schema {
		names = append(names, name)
	}
	slices.Sort(names)

	var errs []error
	for _, name := range names {
		s := schema[name]
		rawValue, provided := raw[name]

		if !provided {
			if s.Required {
				errs = append(errs, fmt.Errorf("parameter %q is required", name))
			} else if s.Default != nil {
				params[name] = s.Default
			}
			continue
		}

		switch s.Type {
		case TypeInt:
			n, err := strconv.ParseInt(rawValue, 10, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("parameter %q must be a number", name))
				continue
			}
			params[name] = n

		case TypeFloat:
			f, err := strconv.ParseFloat(rawValue, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("parameter %q must be a number", name))
				continue
			}
			params[name] = f

		case TypeBool:
			switch strings.ToLower(rawValue) {
			case "true", "1", "yes", "on":
				params[name] = true
			case "false", "0", "no", "off":
				params[name] = false
			default:
				errs = append(errs, fmt.Errorf("parameter %q must be true or false", name))
			}

		case TypeEnum:
			if !slices.Contains(s.Enum, rawValue) {
				errs = append(errs, fmt.Errorf("parameter %q must be one of: %s",
					name, strings.Join(s.Enum, ", ")))
				continue
			}
			params[name] = rawValue

		default:
			params[name] = rawValue
		}
	}

	unknown := make([]string, 0)
	for name := range raw {
		if _, exists := schema[name]; !exists {
			unknown = append(unknown, name)
		}
	}
	slices.Sort(unknown)
	for _, name := range unknown {
		errs = append(errs, fmt.Errorf("unknown parameter %q", name))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return params, nil
}
