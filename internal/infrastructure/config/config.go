package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"stock-scout/internal/application/rank"
	"stock-scout/internal/domain/signal"
)

// Config holds the runtime settings for the HTTP API, the scan pipeline and
// every external dependency.
type Config struct {
	HTTP     HTTPConfig        `yaml:"http"`
	DB       DBConfig          `yaml:"db"`
	Auth     AuthConfig        `yaml:"auth"`
	Market   MarketConfig      `yaml:"market"`
	Rank     RankConfig        `yaml:"rank"`
	Signal   signal.Thresholds `yaml:"signal"`
	Alert    AlertConfig       `yaml:"alert"`
	Schedule ScheduleConfig    `yaml:"schedule"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type DBConfig struct {
	DSN          string        `yaml:"dsn"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	MaxIdleTime  time.Duration `yaml:"max_idle_time"`
}

type AuthConfig struct {
	TokenTTL             time.Duration `yaml:"token_ttl"`
	Secret               string        `yaml:"secret"`
	OperatorUser         string        `yaml:"operator_user"`
	OperatorPasswordHash string        `yaml:"operator_password_hash"`
}

// MarketConfig configures the market-data providers. The FMP key is the only
// credential the pipeline cannot run without.
type MarketConfig struct {
	FMPAPIKey         string        `yaml:"fmp_api_key"`
	FMPBaseURL        string        `yaml:"fmp_base_url"`
	YahooBaseURL      string        `yaml:"yahoo_base_url"`
	YahooRSSBaseURL   string        `yaml:"yahoo_rss_base_url"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	FundamentalsTTL   time.Duration `yaml:"fundamentals_ttl"`
}

type RankConfig struct {
	Weights         rank.Weights  `yaml:"weights"`
	TopNInitial     int           `yaml:"top_n_initial"`
	TopNFinal       int           `yaml:"top_n_final"`
	Concurrency     int           `yaml:"concurrency"`
	SourceTimeout   time.Duration `yaml:"source_timeout"`
	NewsLookback    time.Duration `yaml:"news_lookback"`
	FallbackTickers []string      `yaml:"fallback_tickers"`
}

type AlertConfig struct {
	Cooldown time.Duration  `yaml:"cooldown"`
	Email    EmailConfig    `yaml:"email"`
	Telegram TelegramConfig `yaml:"telegram"`
}

type EmailConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Host     string   `yaml:"host"`
	Port     int      `yaml:"port"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
}

type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	ChatID  int64  `yaml:"chat_id"`
}

type ScheduleConfig struct {
	Enabled bool   `yaml:"enabled"`
	Spec    string `yaml:"spec"`
}

// LoadFromFile loads settings from a YAML file, then layers defaults and
// environment overrides on top. A missing file is not an error; the
// environment alone can carry a full configuration.
func LoadFromFile(path string) (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config yaml: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg = applyDefaults(cfg)
	cfg = applyEnv(cfg)
	return cfg, nil
}

func applyDefaults(cfg Config) Config {
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.DB.MaxOpenConns == 0 {
		cfg.DB.MaxOpenConns = 5
	}
	if cfg.DB.MaxIdleConns == 0 {
		cfg.DB.MaxIdleConns = 2
	}
	if cfg.DB.MaxIdleTime == 0 {
		cfg.DB.MaxIdleTime = 15 * time.Minute
	}
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = 30 * time.Minute
	}
	if cfg.Auth.Secret == "" {
		cfg.Auth.Secret = "dev-secret-change-me"
	}
	if cfg.Auth.OperatorUser == "" {
		cfg.Auth.OperatorUser = "operator"
	}
	if cfg.Market.FMPBaseURL == "" {
		cfg.Market.FMPBaseURL = "https://financialmodelingprep.com"
	}
	if cfg.Market.YahooBaseURL == "" {
		cfg.Market.YahooBaseURL = "https://query1.finance.yahoo.com"
	}
	if cfg.Market.YahooRSSBaseURL == "" {
		cfg.Market.YahooRSSBaseURL = "https://feeds.finance.yahoo.com"
	}
	if cfg.Market.RequestsPerSecond == 0 {
		cfg.Market.RequestsPerSecond = 4
	}
	if cfg.Market.FundamentalsTTL == 0 {
		cfg.Market.FundamentalsTTL = 24 * time.Hour
	}
	if (cfg.Rank.Weights == rank.Weights{}) {
		cfg.Rank.Weights = rank.DefaultWeights()
	}
	if cfg.Rank.TopNInitial == 0 {
		cfg.Rank.TopNInitial = 10
	}
	if cfg.Rank.TopNFinal == 0 {
		cfg.Rank.TopNFinal = 5
	}
	if cfg.Rank.Concurrency == 0 {
		cfg.Rank.Concurrency = 4
	}
	if cfg.Rank.SourceTimeout == 0 {
		cfg.Rank.SourceTimeout = 10 * time.Second
	}
	if cfg.Rank.NewsLookback == 0 {
		cfg.Rank.NewsLookback = 24 * time.Hour
	}
	if len(cfg.Rank.FallbackTickers) == 0 {
		cfg.Rank.FallbackTickers = []string{
			"DZSI", "BBWI", "ETSY", "SENS", "NGVC",
			"INOD", "NGS", "OB", "TBBK", "HESM",
		}
	}
	if (cfg.Signal == signal.Thresholds{}) {
		cfg.Signal = signal.DefaultThresholds()
	}
	if cfg.Alert.Cooldown == 0 {
		cfg.Alert.Cooldown = 24 * time.Hour
	}
	if cfg.Alert.Email.Port == 0 {
		cfg.Alert.Email.Port = 587
	}
	if cfg.Schedule.Spec == "" {
		// Weekdays shortly after the US close.
		cfg.Schedule.Spec = "30 16 * * 1-5"
	}
	return cfg
}

func applyEnv(cfg Config) Config {
	if val := os.Getenv("HTTP_ADDR"); val != "" {
		cfg.HTTP.Addr = val
	}
	if val := os.Getenv("PORT"); val != "" {
		cfg.HTTP.Addr = ":" + val
	}
	if val := os.Getenv("DB_DSN"); val != "" {
		cfg.DB.DSN = val
	}
	if val := os.Getenv("AUTH_SECRET"); val != "" {
		cfg.Auth.Secret = val
	}
	if val := os.Getenv("OPERATOR_USER"); val != "" {
		cfg.Auth.OperatorUser = val
	}
	if val := os.Getenv("OPERATOR_PASSWORD_HASH"); val != "" {
		cfg.Auth.OperatorPasswordHash = val
	}
	if val := os.Getenv("FMP_API_KEY"); val != "" {
		cfg.Market.FMPAPIKey = val
	}
	if val := os.Getenv("FALLBACK_TICKERS"); val != "" {
		cfg.Rank.FallbackTickers = splitTickers(val)
	}
	if val := os.Getenv("ALERT_COOLDOWN"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Alert.Cooldown = d
		}
	}
	if val := os.Getenv("EMAIL_ENABLED"); val != "" {
		cfg.Alert.Email.Enabled = (val == "true")
	}
	if val := os.Getenv("EMAIL_HOST"); val != "" {
		cfg.Alert.Email.Host = val
	}
	if val := os.Getenv("EMAIL_PORT"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Alert.Email.Port = p
		}
	}
	if val := os.Getenv("EMAIL_USERNAME"); val != "" {
		cfg.Alert.Email.Username = val
	}
	if val := os.Getenv("EMAIL_PASSWORD"); val != "" {
		cfg.Alert.Email.Password = val
	}
	if val := os.Getenv("EMAIL_FROM"); val != "" {
		cfg.Alert.Email.From = val
	}
	if val := os.Getenv("EMAIL_TO"); val != "" {
		cfg.Alert.Email.To = splitTickers(val)
	}
	if val := os.Getenv("TELEGRAM_ENABLED"); val != "" {
		cfg.Alert.Telegram.Enabled = (val == "true")
	}
	if val := os.Getenv("TELEGRAM_TOKEN"); val != "" {
		cfg.Alert.Telegram.Token = val
	}
	if val := os.Getenv("TELEGRAM_CHAT_ID"); val != "" {
		if id, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Alert.Telegram.ChatID = id
		}
	}
	if val := os.Getenv("SCHEDULE_ENABLED"); val != "" {
		cfg.Schedule.Enabled = (val == "true")
	}
	if val := os.Getenv("SCHEDULE_SPEC"); val != "" {
		cfg.Schedule.Spec = val
	}
	return cfg
}

// Validate rejects configurations the pipeline cannot start on. Missing
// required settings are a startup failure, never a silent degraded run.
func (c Config) Validate() error {
	if c.Market.FMPAPIKey == "" {
		return fmt.Errorf("FMP_API_KEY is required")
	}
	if err := c.Rank.Weights.Validate(); err != nil {
		return fmt.Errorf("rank weights: %w", err)
	}
	if err := c.Signal.Validate(); err != nil {
		return fmt.Errorf("signal thresholds: %w", err)
	}
	if c.Rank.TopNInitial < c.Rank.TopNFinal {
		return fmt.Errorf("rank: top_n_initial (%d) must be >= top_n_final (%d)",
			c.Rank.TopNInitial, c.Rank.TopNFinal)
	}
	if c.Alert.Email.Enabled {
		if c.Alert.Email.Host == "" || c.Alert.Email.From == "" || len(c.Alert.Email.To) == 0 {
			return fmt.Errorf("email alerts enabled but host/from/to incomplete")
		}
	}
	if c.Alert.Telegram.Enabled {
		if c.Alert.Telegram.Token == "" || c.Alert.Telegram.ChatID == 0 {
			return fmt.Errorf("telegram alerts enabled but token/chat_id incomplete")
		}
	}
	return nil
}

func splitTickers(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
