package config

const (
	defaultConfigPath            = "~/.config/cuadrilla/config.toml"
	defaultDataDir               = "~/.local/share/cuadrilla"
	defaultLogDir                = "~/.local/share/cuadrilla/logs"
	defaultAPIBind               = "127.0.0.1:4000"
	defaultServerURL             = "http://127.0.0.1:4000"
	defaultSiteID                = 1
	defaultFlushDelayMillis      = 250
	defaultRetryDelayMillis      = 2000
	defaultRequestTimeoutSeconds = 15
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultLogRetentionDays      = 30

	databaseFileName = "cuadrilla.db"
	lockFileName     = "cuadrillad.lock"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Client: Client{
			ServerURL:             defaultServerURL,
			SiteID:                defaultSiteID,
			FlushDelayMillis:      defaultFlushDelayMillis,
			RetryDelayMillis:      defaultRetryDelayMillis,
			RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
