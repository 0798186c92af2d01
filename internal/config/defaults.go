package config

const (
	defaultBaseURL    = "https://api.data.gov.in"
	defaultResourceID = "9ef84268-d588-465a-a308-a864a43d0070"
	defaultKeyEnv     = "MANDI_API_KEY"

	// 10000 is the documented per-request maximum of the upstream resource.
	defaultBatchSize      = 10000
	defaultTimeoutSeconds = 30
	defaultMaxRetries     = 3
	defaultRatePerSecond  = 2.0

	defaultDataDir    = "data"
	defaultMasterFile = "market_data_master.csv"
	defaultRunlogFile = "runlog.db"

	defaultIntervalHours   = 6
	defaultViewerAddr      = ":8501"
	defaultCacheTTLSeconds = 300
)

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = defaultBaseURL
	}
	if c.API.ResourceID == "" {
		c.API.ResourceID = defaultResourceID
	}
	if c.API.KeyEnv == "" {
		c.API.KeyEnv = defaultKeyEnv
	}
	if c.API.BatchSize <= 0 {
		c.API.BatchSize = defaultBatchSize
	}
	if c.API.TimeoutSeconds <= 0 {
		c.API.TimeoutSeconds = defaultTimeoutSeconds
	}
	if c.API.MaxRetries <= 0 {
		c.API.MaxRetries = defaultMaxRetries
	}
	if c.API.RatePerSecond <= 0 {
		c.API.RatePerSecond = defaultRatePerSecond
	}
	if c.Data.Dir == "" {
		c.Data.Dir = defaultDataDir
	}
	if c.Data.MasterFile == "" {
		c.Data.MasterFile = defaultMasterFile
	}
	if c.Data.RunlogFile == "" {
		c.Data.RunlogFile = defaultRunlogFile
	}
	if c.Fetch.IntervalHours <= 0 {
		c.Fetch.IntervalHours = defaultIntervalHours
	}
	if c.Viewer.Addr == "" {
		c.Viewer.Addr = defaultViewerAddr
	}
	if c.Viewer.CacheTTLSeconds <= 0 {
		c.Viewer.CacheTTLSeconds = defaultCacheTTLSeconds
	}
}
