package domain

// ConfigFileName is the TOML config file name, both global and root-local.
const ConfigFileName = "config.toml"

// RootConfigFileName is the per-root config file, resolved against the
// plans root directory.
const RootConfigFileName = ".planloop.toml"

// Config is the application configuration.
type Config struct {
	Service ServiceConfig `toml:"service"`
	Roles   RolesConfig   `toml:"roles"`
	Log     LogConfig     `toml:"log"`
}

// ServiceConfig holds agent execution service settings from [service].
type ServiceConfig struct {
	BaseURL        string `toml:"base_url"`
	Token          string `toml:"token"`
	TimeoutMinutes int    `toml:"timeout_minutes"` // Bound on each session wait
}

// RolesConfig holds the role names used when delivering instructions.
type RolesConfig struct {
	Implementer string `toml:"implementer"`
	Verifier    string `toml:"verifier"`
}

// LogConfig holds logging settings from [log].
type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
}

// NewDefaultConfig returns the built-in defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			BaseURL:        "http://localhost:8080",
			TimeoutMinutes: 10,
		},
		Roles: RolesConfig{
			Implementer: "implementer",
			Verifier:    "verifier",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
