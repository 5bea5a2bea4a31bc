package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "file"
	}
	if cfg.Storage.DataPath == "" {
		cfg.Storage.DataPath = "/usr/local/var/nuvem/board.json"
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/nuvem/board.db"
	}
	if cfg.Cloud.TopWords == 0 {
		cfg.Cloud.TopWords = 15
	}
	if cfg.Cloud.MaxWords == 0 {
		cfg.Cloud.MaxWords = 250
	}
	if cfg.RateLimit.RPS == 0 {
		cfg.RateLimit.RPS = 5
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = 10
	}
	if cfg.Report.Model == "" {
		cfg.Report.Model = "gemini-2.5-flash"
	}
	if cfg.Report.MaxSampleEntries == 0 {
		cfg.Report.MaxSampleEntries = 200
	}
	if cfg.Admin.TokenTTLMin == 0 {
		cfg.Admin.TokenTTLMin = 720
	}
}
