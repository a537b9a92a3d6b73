package settings

import (
	"errors"
	"fmt"
	"os"

	"flowprogress/internal/components/configutil"
)

// DefaultPath is where the settings file is looked for when no path is given.
const DefaultPath = "./progress_settings.json"

// Settings is the parsed settings file, it is not modified after Load.
type Settings struct {
	Login    string
	Password string
	// Goal is the yearly target in kilometers.
	Goal float64
	// Timezone is an IANA zone name used to decide the current day, empty means local time.
	Timezone string
	// BaseUrl overrides the Flow service location.
	BaseUrl string
}

// file mirrors the on-disk keys, pointers tell a missing key apart from a zero value.
type file struct {
	Login    *string  `json:"login" yaml:"login"`
	Password *string  `json:"password" yaml:"password"`
	Goal     *float64 `json:"goal" yaml:"goal"`
	Timezone string   `json:"timezone" yaml:"timezone"`
	BaseUrl  string   `json:"base_url" yaml:"base_url"`
}

// ConfigError is returned for any problem with the settings file. Field is set
// when a specific key is missing or invalid.
type ConfigError struct {
	Path  string
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("settings %s: field %q: %s", e.Path, e.Field, e.Err.Error())
	}
	return fmt.Sprintf("settings %s: %s", e.Path, e.Err.Error())
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

var (
	errMissing     = errors.New("required field is missing")
	errNotPositive = errors.New("must be a positive number")
)

// Load reads the settings at `path`, a sibling `<name>.local.<ext>` file overrides
// individual keys.
func Load(path string) (Settings, error) {
	raw, err := configutil.ReadConfig[file](path)
	if os.IsNotExist(err) {
		return Settings{}, &ConfigError{Path: path, Err: fmt.Errorf("file not found: %w", os.ErrNotExist)}
	}
	if err != nil {
		return Settings{}, &ConfigError{Path: path, Err: err}
	}

	if raw.Login == nil || *raw.Login == "" {
		return Settings{}, &ConfigError{Path: path, Field: "login", Err: errMissing}
	}
	if raw.Password == nil || *raw.Password == "" {
		return Settings{}, &ConfigError{Path: path, Field: "password", Err: errMissing}
	}
	if raw.Goal == nil {
		return Settings{}, &ConfigError{Path: path, Field: "goal", Err: errMissing}
	}
	// NaN fails this comparison as well.
	if !(*raw.Goal > 0) {
		return Settings{}, &ConfigError{Path: path, Field: "goal", Err: errNotPositive}
	}

	return Settings{
		Login:    *raw.Login,
		Password: *raw.Password,
		Goal:     *raw.Goal,
		Timezone: raw.Timezone,
		BaseUrl:  raw.BaseUrl,
	}, nil
}
