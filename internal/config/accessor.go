package config

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// GetByPath returns the value at a dot-notation path of json keys
// (e.g. "source.url"). Sections are returned as their struct values.
func GetByPath(cfg *Config, path string) (any, error) {
	v, err := lookup(reflect.ValueOf(cfg).Elem(), path)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

// SetByPath parses value according to the type of the field at path and
// stores it. Unknown paths and whole sections are rejected.
func SetByPath(cfg *Config, path, value string) error {
	v, err := lookup(reflect.ValueOf(cfg).Elem(), path)
	if err != nil {
		return err
	}

	switch v.Kind() {
	case reflect.String:
		v.SetString(value)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: expected true or false, got %q", path, value)
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: expected an integer, got %q", path, value)
		}
		v.SetInt(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%s: expected a number, got %q", path, value)
		}
		v.SetFloat(f)
	case reflect.Struct:
		return fmt.Errorf("%s is a section, set one of its keys instead", path)
	default:
		return fmt.Errorf("%s: unsupported type %s", path, v.Type())
	}
	return nil
}

// lookup walks struct fields by their json names.
func lookup(v reflect.Value, path string) (reflect.Value, error) {
	if path == "" {
		return reflect.Value{}, fmt.Errorf("empty path")
	}
	for _, key := range strings.Split(path, ".") {
		if v.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("key not found: %s", path)
		}
		field, ok := fieldByJSONName(v, key)
		if !ok {
			return reflect.Value{}, fmt.Errorf("key not found: %s", path)
		}
		v = field
	}
	return v, nil
}

func fieldByJSONName(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if jsonName(t.Field(i)) == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" {
		return f.Name
	}
	return name
}

// Sanitize returns a copy of the config with sensitive values masked.
func Sanitize(cfg *Config) *Config {
	c := *cfg
	if c.Source.APIKey != "" {
		c.Source.APIKey = maskString(c.Source.APIKey)
	}
	return &c
}

// maskString shows first 4 and last 4 chars, masks the rest.
func maskString(s string) string {
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "****" + s[len(s)-4:]
}

// ListPaths returns every settable leaf path with its current value.
func ListPaths(cfg *Config) map[string]any {
	out := make(map[string]any)
	collectLeaves("", reflect.ValueOf(cfg).Elem(), out)
	return out
}

func collectLeaves(prefix string, v reflect.Value, out map[string]any) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		path := jsonName(t.Field(i))
		if prefix != "" {
			path = prefix + "." + path
		}
		if f := v.Field(i); f.Kind() == reflect.Struct {
			collectLeaves(path, f, out)
		} else {
			out[path] = f.Interface()
		}
	}
}
