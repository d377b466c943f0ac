package config

import (
	"errors"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix starts the names of the variables that override router
// parameters, e.g. VCROUTER_NUM_VCS.
const EnvPrefix = "VCROUTER_"

// LoadEnvFile adds the variables of a .env file to the environment. Variables
// that are already set keep their values. A missing default file is not an
// error.
func LoadEnvFile(filename string) error {
	explicit := filename != ""
	if !explicit {
		filename = ".env"
	}

	err := godotenv.Load(filename)
	if err != nil && !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return err
}

// ApplyEnv overrides router parameters with the VCROUTER_* variables of
// environ, or of the process environment if environ is nil. The variable of a
// parameter is its YAML key in upper case.
func ApplyEnv(f *File, environ map[string]string) error {
	opts := env.Options{Prefix: EnvPrefix, Environment: environ}

	err := env.ParseWithOptions(&f.Router, opts)
	if err != nil {
		return err
	}

	id := struct {
		RouterID int `env:"ROUTER_ID"`
	}{RouterID: f.RouterID}

	err = env.ParseWithOptions(&id, opts)
	if err != nil {
		return err
	}

	f.RouterID = id.RouterID

	return nil
}
