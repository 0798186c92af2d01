package config

// Config is the top-level configuration carrier, constructed once at process
// start and passed down explicitly.
type Config struct {
	App    AppConfig    `mapstructure:"app"`
	API    APIConfig    `mapstructure:"api"`
	Data   DataConfig   `mapstructure:"data"`
	Fetch  FetchConfig  `mapstructure:"fetch"`
	Viewer ViewerConfig `mapstructure:"viewer"`
	Notify NotifyConfig `mapstructure:"notify"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
	LogPath  string `mapstructure:"log_path"`
}

// APIConfig describes the data.gov.in resource endpoint.
type APIConfig struct {
	BaseURL        string  `mapstructure:"base_url"`
	ResourceID     string  `mapstructure:"resource_id"`
	Key            string  `mapstructure:"key"`
	KeyEnv         string  `mapstructure:"key_env"`
	BatchSize      int     `mapstructure:"batch_size"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	MaxRetries     int     `mapstructure:"max_retries"`
	RatePerSecond  float64 `mapstructure:"rate_per_second"`
}

type DataConfig struct {
	Dir        string `mapstructure:"dir"`
	MasterFile string `mapstructure:"master_file"`
	RunlogFile string `mapstructure:"runlog_file"`
}

type FetchConfig struct {
	IntervalHours int `mapstructure:"interval_hours"`
}

type ViewerConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Addr            string `mapstructure:"addr"`
	CacheTTLSeconds int    `mapstructure:"cache_ttl_seconds"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
}

type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}
