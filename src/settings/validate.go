package settings

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
)

var validate = validator.New()

// coerce converts chat or CLI input into the Go type the field stores.
// A nil value passes through and means "clear".
func coerce(f Field, spec fieldSpec, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	if s, ok := raw.(string); ok {
		raw = strings.TrimSpace(s)
	}

	switch spec.kind {
	case KindBool:
		return coerceBool(f, raw)
	case KindInt:
		// Typed input is always decimal; cast would read "010" as octal.
		if s, ok := raw.(string); ok {
			i, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s expects a whole number, got %v", ErrInvalidValue, f, raw)
			}
			return int(i), nil
		}
		if fv, ok := raw.(float64); ok && fv != math.Trunc(fv) {
			return nil, fmt.Errorf("%w: %s expects a whole number, got %v", ErrInvalidValue, f, raw)
		}
		i, err := cast.ToIntE(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s expects a whole number, got %v", ErrInvalidValue, f, raw)
		}
		return i, nil
	case KindFloat:
		if s, ok := raw.(string); ok {
			raw = strings.TrimSuffix(strings.ReplaceAll(s, ",", "."), "%")
		}
		v, err := cast.ToFloat64E(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s expects a number, got %v", ErrInvalidValue, f, raw)
		}
		return v, nil
	case KindString:
		s, err := cast.ToStringE(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s expects text, got %v", ErrInvalidValue, f, raw)
		}
		if strings.HasPrefix(spec.rule, "oneof=") {
			s = strings.ToLower(s)
		}
		return s, nil
	}

	return nil, fmt.Errorf("%w: %s has unknown kind", ErrInvalidValue, f)
}

func coerceBool(f Field, raw any) (any, error) {
	if s, ok := raw.(string); ok {
		switch strings.ToLower(s) {
		case "on", "yes", "y":
			return true, nil
		case "off", "no", "n":
			return false, nil
		}
	}
	b, err := cast.ToBoolE(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s expects on/off, got %v", ErrInvalidValue, f, raw)
	}
	return b, nil
}

// check applies the declared range or closed set. nil always passes.
func check(f Field, spec fieldSpec, v any) error {
	if v == nil {
		return nil
	}

	switch spec.kind {
	case KindInt, KindFloat:
		tag := fmt.Sprintf("gte=%s,lte=%s", cast.ToString(spec.min), cast.ToString(spec.max))
		if err := validate.Var(v, tag); err != nil {
			return &ValidationError{Field: string(f), Value: v, Min: spec.min, Max: spec.max}
		}
	case KindString:
		if spec.rule == "" {
			return nil
		}
		if err := validate.Var(v, spec.rule); err != nil {
			if strings.HasPrefix(spec.rule, "oneof=") {
				return fmt.Errorf("%w: %s=%v (allowed: %s)", ErrInvalidEnum, f, v, strings.TrimPrefix(spec.rule, "oneof="))
			}
			return fmt.Errorf("%w: %s=%v", ErrInvalidValue, f, v)
		}
	}

	return nil
}
