package cfg

import "time"

type Cfg struct {
	// Server
	Port      string
	BaseUrl   string
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string

	// Content store
	StoreDriver string
	SQLitePath  string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string

	// Admin
	AdminSecret string
	SessionTTL  time.Duration

	// Generation
	LLMProvider       string
	LLMAPIKey         string
	LLMModel          string
	LLMEndpoint       string
	OutputMode        string
	GenerationTimeout time.Duration
	GenerateRate      float64
	GenerateBurst     int
	WorkerCount       int
	CatalogFile       string

	// Read-side cache
	CacheBackend string
	RedisAddr    string
	CacheSize    int
	ListTTL      time.Duration
	ArticleTTL   time.Duration
	SlugsTTL     time.Duration
	ScheduleTTL  time.Duration
	SettingsTTL  time.Duration
}

// PostgresDSN builds a connection string for the postgres store driver.
func (c *Cfg) PostgresDSN() string {
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort + "/" + c.DBName + "?sslmode=disable"
}
