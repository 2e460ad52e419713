package config

import "github.com/kelseyhightower/envconfig"

// EnvPrefix is prepended to every variable name when reading the environment.
const EnvPrefix = "GOPHAUTH"

// parseEnv overlays values found in the environment. Variables that are not
// set leave the current value untouched.
func parseEnv(config *Config) error {
	return envconfig.Process(EnvPrefix, config)
}
