package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/brainobs/data/db/project.db"
	}
	if cfg.Data.Extensions == nil {
		cfg.Data.Extensions = []string{".nwb", ".h5", ".json"}
	}
	if cfg.Data.IDStrategy == "" {
		cfg.Data.IDStrategy = StrategyPath
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Data.Directories) > 0 && cfg.Data.Recursive == nil {
		t := true
		cfg.Data.Recursive = &t
	}
	if cfg.Sessions.IndexColumn == "" {
		cfg.Sessions.IndexColumn = "ophys_session_id"
	}
}
