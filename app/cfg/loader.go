package cfg

import (
	"cmp"
	"fmt"
	"log/slog"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Server configuration
	Port      string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl   string `long:"base-url" env:"BASE_URL" default:"https://boardswallah.com" description:"Public base URL used in feeds and sitemaps"`
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"BoardsPress/1.0" description:"User agent string for outbound HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"Asia/Kolkata" description:"Timezone for timestamps (e.g., UTC, Asia/Kolkata)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`

	// Content store configuration
	StoreDriver string `long:"store" env:"STORE_DRIVER" default:"sqlite" choice:"sqlite" choice:"postgres" choice:"memory" description:"Content store backend"`
	SQLitePath  string `long:"sqlite-path" env:"SQLITE_PATH" default:"./data/boards.sqlite" description:"Embedded database file"`
	DBHost      string `long:"db-host" env:"DB_HOST" default:"localhost" description:"Postgres host"`
	DBPort      string `long:"db-port" env:"DB_PORT" default:"5432" description:"Postgres port"`
	DBUser      string `long:"db-user" env:"DB_USER" default:"boards" description:"Postgres user"`
	DBPassword  string `long:"db-password" env:"DB_PASSWORD" description:"Postgres password"`
	DBName      string `long:"db-name" env:"DB_NAME" default:"boards" description:"Postgres database name"`

	// Admin configuration
	AdminSecret string `long:"admin-secret" env:"ADMIN_SECRET" description:"Shared secret for admin endpoints and deletes (admin API disabled when empty)"`
	SessionTTL  int    `long:"session-ttl" env:"SESSION_TTL" default:"43200" description:"Admin session token lifetime in seconds"`

	// Generation configuration
	LLMProvider       string  `long:"llm-provider" env:"LLM_PROVIDER" default:"chat" choice:"chat" choice:"anthropic" description:"Text generation provider"`
	LLMAPIKey         string  `long:"llm-api-key" env:"LLM_API_KEY" description:"API key for the generation provider"`
	LLMModel          string  `long:"llm-model" env:"LLM_MODEL" description:"Model name (provider default when empty)"`
	LLMEndpoint       string  `long:"llm-endpoint" env:"LLM_ENDPOINT" default:"https://api.siliconflow.cn/v1/chat/completions" description:"Chat completions endpoint for the chat provider"`
	OutputMode        string  `long:"output-mode" env:"OUTPUT_MODE" default:"structured" choice:"structured" choice:"statements" description:"Generation output format"`
	GenerationTimeout int     `long:"generation-timeout" env:"GENERATION_TIMEOUT" default:"90" description:"Generation call timeout in seconds"`
	GenerateRate      float64 `long:"generate-rate" env:"GENERATE_RATE" default:"0.2" description:"Generation requests per second per client"`
	GenerateBurst     int     `long:"generate-burst" env:"GENERATE_BURST" default:"3" description:"Generation request burst per client"`
	WorkerCount       int     `long:"worker-count" env:"WORKER_COUNT" default:"2" description:"Number of background generation workers"`
	CatalogFile       string  `long:"catalog" env:"CATALOG_FILE" description:"Catalog YAML overriding the embedded subjects and length tiers"`

	// Read-side cache configuration
	CacheBackend string `long:"cache" env:"CACHE_BACKEND" default:"memory" choice:"memory" choice:"redis" description:"Read cache backend"`
	RedisAddr    string `long:"redis-addr" env:"REDIS_ADDR" default:"localhost:6379" description:"Redis address for the redis cache backend"`
	CacheSize    int    `long:"cache-size" env:"CACHE_SIZE" default:"1024" description:"Maximum entries in the memory cache"`
	ListTTL      int    `long:"list-ttl" env:"LIST_TTL" default:"60" description:"List query cache TTL in seconds"`
	ArticleTTL   int    `long:"article-ttl" env:"ARTICLE_TTL" default:"300" description:"Single article cache TTL in seconds"`
	SlugsTTL     int    `long:"slugs-ttl" env:"SLUGS_TTL" default:"300" description:"Slug listing cache TTL in seconds"`
	ScheduleTTL  int    `long:"schedule-ttl" env:"SCHEDULE_TTL" default:"86400" description:"Exam schedule cache TTL in seconds"`
	SettingsTTL  int    `long:"settings-ttl" env:"SETTINGS_TTL" default:"3600" description:"Site settings cache TTL in seconds"`
}

var globalCfg *Cfg

// Load parses command-line flags and environment variables.
// It returns nil, nil when help was requested.
func Load() (*Cfg, error) {
	return load(nil)
}

// LoadEnv builds the configuration from environment variables and defaults only.
func LoadEnv() (*Cfg, error) {
	return load([]string{})
}

func load(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	var err error
	if args == nil {
		_, err = parser.Parse()
	} else {
		_, err = parser.ParseArgs(args)
	}
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := fromRaw(raw)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		slog.Warn("Invalid timezone, using system default", "timezone", cfg.Timezone, "error", err)
	}

	globalCfg = cfg

	return cfg, nil
}

func fromRaw(raw rawCfg) *Cfg {
	seconds := func(n int) time.Duration { return time.Duration(n) * time.Second }

	return &Cfg{
		Port:              raw.Port,
		BaseUrl:           raw.BaseUrl,
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
		StoreDriver:       raw.StoreDriver,
		SQLitePath:        raw.SQLitePath,
		DBHost:            raw.DBHost,
		DBPort:            raw.DBPort,
		DBUser:            raw.DBUser,
		DBPassword:        raw.DBPassword,
		DBName:            raw.DBName,
		AdminSecret:       raw.AdminSecret,
		SessionTTL:        seconds(raw.SessionTTL),
		LLMProvider:       raw.LLMProvider,
		LLMAPIKey:         raw.LLMAPIKey,
		LLMModel:          raw.LLMModel,
		LLMEndpoint:       raw.LLMEndpoint,
		OutputMode:        raw.OutputMode,
		GenerationTimeout: seconds(raw.GenerationTimeout),
		GenerateRate:      raw.GenerateRate,
		GenerateBurst:     raw.GenerateBurst,
		WorkerCount:       raw.WorkerCount,
		CatalogFile:       raw.CatalogFile,
		CacheBackend:      raw.CacheBackend,
		RedisAddr:         raw.RedisAddr,
		CacheSize:         raw.CacheSize,
		ListTTL:           seconds(raw.ListTTL),
		ArticleTTL:        seconds(raw.ArticleTTL),
		SlugsTTL:          seconds(raw.SlugsTTL),
		ScheduleTTL:       seconds(raw.ScheduleTTL),
		SettingsTTL:       seconds(raw.SettingsTTL),
	}
}

func validate(cfg *Cfg) error {
	nonNegative := map[string]int{
		"worker count":   cfg.WorkerCount,
		"cache size":     cfg.CacheSize,
		"generate burst": cfg.GenerateBurst,
	}
	for name, value := range nonNegative {
		if value < 0 {
			return fmt.Errorf("%s must be non-negative", name)
		}
	}

	positive := map[string]time.Duration{
		"generation timeout": cfg.GenerationTimeout,
		"session ttl":        cfg.SessionTTL,
		"list ttl":           cfg.ListTTL,
		"article ttl":        cfg.ArticleTTL,
		"slugs ttl":          cfg.SlugsTTL,
		"schedule ttl":       cfg.ScheduleTTL,
		"settings ttl":       cfg.SettingsTTL,
	}
	for name, value := range positive {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}

	if cfg.StoreDriver == "postgres" && cfg.DBPassword == "" {
		return fmt.Errorf("db password is required for the postgres store")
	}

	return nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			slog.Debug("Timezone configured", "timezone", timezone)
		}
	}
	return nil
}
