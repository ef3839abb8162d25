package config

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/glorpus-work/pkgsmith/pkg/errors"
)

// SetValue sets a configuration value by its YAML key, for example
// "log_level", "src_dest", "cflags" or "max_downloads". List values are
// whitespace separated, except download_agents which are separated by ';'.
func (c *Config) SetValue(key, value string) error {
	field, ok := c.field(key)
	if !ok {
		return fmt.Errorf("%w: %s", errors.ErrUnknownConfigKey, key)
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %s", key, value)
		}
		field.SetInt(n)
	case reflect.Slice:
		items := strings.Fields(value)
		if key == "download_agents" {
			items = nil
			for _, a := range strings.Split(value, ";") {
				if a = strings.TrimSpace(a); a != "" {
					items = append(items, a)
				}
			}
		}
		field.Set(reflect.ValueOf(items).Convert(field.Type()))
	default:
		return fmt.Errorf("%w: %s", errors.ErrUnknownConfigKey, key)
	}
	return c.Validate()
}

// GetValue returns a configuration value by its YAML key.
func (c *Config) GetValue(key string) (string, error) {
	field, ok := c.field(key)
	if !ok {
		return "", fmt.Errorf("%w: %s", errors.ErrUnknownConfigKey, key)
	}
	return format(field), nil
}

// ToMap flattens every section into key/value strings. This is useful for
// displaying the configuration.
func (c *Config) ToMap() map[string]string {
	result := make(map[string]string)
	for _, section := range c.sections() {
		t := section.Type()
		for i := 0; i < section.NumField(); i++ {
			if key := yamlKey(t.Field(i)); key != "" {
				result[key] = format(section.Field(i))
			}
		}
	}
	return result
}

func (c *Config) sections() []reflect.Value {
	return []reflect.Value{
		reflect.ValueOf(&c.Settings).Elem(),
		reflect.ValueOf(&c.Build).Elem(),
		reflect.ValueOf(&c.Downloads).Elem(),
	}
}

func (c *Config) field(key string) (reflect.Value, bool) {
	for _, section := range c.sections() {
		t := section.Type()
		for i := 0; i < section.NumField(); i++ {
			if yamlKey(t.Field(i)) == key {
				return section.Field(i), true
			}
		}
	}
	return reflect.Value{}, false
}

func yamlKey(field reflect.StructField) string {
	tag := field.Tag.Get("yaml")
	if tag == "" || tag == "-" {
		return ""
	}
	return strings.Split(tag, ",")[0]
}

func format(v reflect.Value) string {
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Int, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Slice:
		parts := make([]string, v.Len())
		for i := range parts {
			parts[i] = fmt.Sprint(v.Index(i).Interface())
		}
		return strings.Join(parts, " ")
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}
