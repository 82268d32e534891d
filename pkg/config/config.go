package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v2"
)

// Loader reads configuration in three passes: `default:` struct tags
// fill blank fields, then any YAML or TOML files given to Load are
// unmarshalled over them, then environment variables win. A field's env
// name is its `env:` tag when present, otherwise PREFIX_FIELDNAME.
type Loader struct {
	ENVPrefix string
}

func New(prefix string) *Loader {
	return &Loader{ENVPrefix: prefix}
}

// Load populates cfg, which must be a pointer to a struct. Missing
// files are skipped: every file is optional and env-only deployments
// are fine.
func (l *Loader) Load(cfg interface{}, files ...string) error {
	rv := reflect.Indirect(reflect.ValueOf(cfg))
	if rv.Kind() != reflect.Struct || !rv.CanAddr() {
		return fmt.Errorf("config %T must be a pointer to a struct", cfg)
	}

	if err := applyDefaults(rv); err != nil {
		return err
	}

	for _, file := range files {
		if err := processFile(cfg, file); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("config file %s: %w", file, err)
		}
	}

	return l.processEnv(rv, nil)
}

func processFile(cfg interface{}, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	if strings.HasSuffix(file, ".toml") {
		_, err = toml.Decode(string(data), cfg)
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func applyDefaults(rv reflect.Value) error {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rv.Field(i)
		sf := rt.Field(i)
		if !field.CanSet() {
			continue
		}
		if field.Kind() == reflect.Struct {
			if err := applyDefaults(field); err != nil {
				return err
			}
			continue
		}
		if !field.IsZero() {
			continue
		}
		if def := sf.Tag.Get("default"); def != "" {
			if err := setFromString(field, def); err != nil {
				return fmt.Errorf("default for %s: %w", sf.Name, err)
			}
		}
	}
	return nil
}

func (l *Loader) processEnv(rv reflect.Value, prefix []string) error {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rv.Field(i)
		sf := rt.Field(i)
		if !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct {
			if err := l.processEnv(field, append(prefix, sf.Name)); err != nil {
				return err
			}
			continue
		}

		name := sf.Tag.Get("env")
		if name == "" {
			parts := append([]string{l.ENVPrefix}, append(prefix, sf.Name)...)
			name = strings.ToUpper(strings.Join(parts, "_"))
		}
		if value := os.Getenv(name); value != "" {
			if err := setFromString(field, value); err != nil {
				return fmt.Errorf("env %s: %w", name, err)
			}
		}

		if sf.Tag.Get("required") == "true" && field.IsZero() {
			return fmt.Errorf("%s is required, but blank", sf.Name)
		}
	}
	return nil
}

func setFromString(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
		return nil
	case reflect.Bool:
		switch strings.ToLower(value) {
		case "", "0", "f", "false":
			field.SetBool(false)
		default:
			field.SetBool(true)
		}
		return nil
	default:
		// Numbers, durations, maps and slices all round-trip through
		// the YAML scalar parser.
		return yaml.Unmarshal([]byte(value), field.Addr().Interface())
	}
}
