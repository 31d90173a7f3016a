package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
)

// envLookup is os.LookupEnv; tests swap it for a map.
var envLookup = os.LookupEnv

// applyEnv overrides every field tagged `env:"NAME"` whose variable is set.
// Nested sections are walked recursively; path names the field in errors.
func applyEnv(v reflect.Value, path string) error {
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field, meta := v.Field(i), t.Field(i)
		name := strings.TrimPrefix(path+"."+meta.Name, ".")

		if field.Kind() == reflect.Struct {
			if err := applyEnv(field, name); err != nil {
				return err
			}
			continue
		}

		key := meta.Tag.Get("env")
		if key == "" {
			continue
		}
		raw, ok := envLookup(key)
		if !ok {
			continue
		}
		if err := setFromString(field, strings.TrimSpace(raw)); err != nil {
			return fmt.Errorf("%s (from %s): %w", name, key, err)
		}
	}
	return nil
}

// setFromString parses raw into the kinds the Config struct uses.
func setFromString(field reflect.Value, raw string) error {
	if !field.CanSet() {
		return fmt.Errorf("field cannot be set")
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Int:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid integer %q", raw)
		}
		field.SetInt(int64(n))
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid boolean %q", raw)
		}
		field.SetBool(b)
	case reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q", raw)
		}
		field.SetFloat(f)
	default:
		return fmt.Errorf("unsupported field type %s", field.Kind())
	}
	return nil
}
