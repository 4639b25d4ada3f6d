package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port string `yaml:"port"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	// bcrypt hash of the single dashboard password
	PasswordHash string `yaml:"password_hash"`
}

type CanvasConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
	// optional published ICS deadline feed; used when set
	FeedURL string `yaml:"feed_url"`
}

type OutlookConfig struct {
	TenantID     string `yaml:"tenant_id"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	UserEmail    string `yaml:"user_email"`
	MailLimit    int    `yaml:"mail_limit"`
	CacheTTLSec  int    `yaml:"cache_ttl_sec"`
}

type LLMConfig struct {
	Enabled          bool   `yaml:"enabled"`
	BaseURL          string `yaml:"base_url"`
	APIKey           string `yaml:"api_key"`
	Model            string `yaml:"model"`
	TimeoutSec       int    `yaml:"timeout_sec"`
	MaxMails         int    `yaml:"max_mails"`
	CallBudget       int    `yaml:"call_budget"`
	Parallelism      int    `yaml:"parallelism"`
	BreakerThreshold int    `yaml:"breaker_threshold"`
}

type DigestConfig struct {
	Timezone              string `yaml:"timezone"`
	ScheduleTime          string `yaml:"schedule_time"`
	LookaheadDays         int    `yaml:"lookahead_days"`
	ImportantKeywords     string `yaml:"important_keywords"`
	ActionKeywords        string `yaml:"action_keywords"`
	NoiseKeywords         string `yaml:"noise_keywords"`
	TaskMode              string `yaml:"task_mode"`
	RequireDue            bool   `yaml:"require_due"`
	PushDueWithinHours    int    `yaml:"push_due_within_hours"`
	PushUrgentWithinHours int    `yaml:"push_urgent_within_hours"`
	Persona               string `yaml:"persona"`
}

type CacheConfig struct {
	Backend string `yaml:"backend"` // file | redis
	Path    string `yaml:"path"`
	TTLSec  int    `yaml:"ttl_sec"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type MQConfig struct {
	URL string `yaml:"url"`
}

type PushConfig struct {
	Provider string `yaml:"provider"`
	AppToken string `yaml:"app_token"`
	UserKey  string `yaml:"user_key"`
}

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	Canvas  CanvasConfig  `yaml:"canvas"`
	Outlook OutlookConfig `yaml:"outlook"`
	LLM     LLMConfig     `yaml:"llm"`
	Digest  DigestConfig  `yaml:"digest"`
	Cache   CacheConfig   `yaml:"cache"`
	Redis   RedisConfig   `yaml:"redis"`
	DB      DBConfig      `yaml:"db"`
	MQ      MQConfig      `yaml:"mq"`
	Push    PushConfig    `yaml:"push"`
}

// Load reads the yaml config, applies defaults and environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.yaml"
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	applyDefaults(&cfg)
	overrideFromEnv(&cfg)

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
	}
	if cfg.Digest.Timezone == "" {
		cfg.Digest.Timezone = "America/Los_Angeles"
	}
	if cfg.Digest.ScheduleTime == "" {
		cfg.Digest.ScheduleTime = "07:30"
	}
	if cfg.Digest.LookaheadDays == 0 {
		cfg.Digest.LookaheadDays = 3
	}
	if cfg.Digest.ImportantKeywords == "" {
		cfg.Digest.ImportantKeywords = "urgent,important,deadline,exam,quiz,project"
	}
	if cfg.Digest.ActionKeywords == "" {
		cfg.Digest.ActionKeywords = "due,deadline,exam,quiz,submission,assignment,homework,hw,project,midterm,final,participation,lab"
	}
	if cfg.Digest.NoiseKeywords == "" {
		cfg.Digest.NoiseKeywords = "assignment graded,graded:,office hours moved,daily digest,announcement posted"
	}
	if cfg.Digest.TaskMode == "" {
		cfg.Digest.TaskMode = "action_only"
	}
	if cfg.Digest.PushDueWithinHours == 0 {
		cfg.Digest.PushDueWithinHours = 48
	}
	if cfg.Digest.PushUrgentWithinHours == 0 {
		cfg.Digest.PushUrgentWithinHours = 18
	}
	if cfg.Digest.Persona == "" {
		cfg.Digest.Persona = "auto"
	}
	if cfg.Outlook.MailLimit == 0 {
		cfg.Outlook.MailLimit = 20
	}
	if cfg.Outlook.CacheTTLSec == 0 {
		cfg.Outlook.CacheTTLSec = 600
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}
	if cfg.LLM.TimeoutSec == 0 {
		cfg.LLM.TimeoutSec = 20
	}
	if cfg.LLM.MaxMails == 0 {
		cfg.LLM.MaxMails = 8
	}
	if cfg.LLM.CallBudget == 0 {
		cfg.LLM.CallBudget = 20
	}
	if cfg.LLM.Parallelism == 0 {
		cfg.LLM.Parallelism = 4
	}
	if cfg.LLM.BreakerThreshold == 0 {
		cfg.LLM.BreakerThreshold = 3
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "file"
	}
	if cfg.Cache.Path == "" {
		cfg.Cache.Path = "data/classify_cache.json"
	}
	if cfg.Cache.TTLSec == 0 {
		cfg.Cache.TTLSec = 7 * 24 * 3600
	}
	if cfg.Push.Provider == "" {
		cfg.Push.Provider = "pushover"
	}
}

func overrideFromEnv(cfg *Config) {
	// Server
	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Server.Port = port
	}

	// Auth
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if hash := os.Getenv("AUTH_PASSWORD_HASH"); hash != "" {
		cfg.Auth.PasswordHash = hash
	}

	// Canvas / Outlook credentials
	if v := os.Getenv("CANVAS_BASE_URL"); v != "" {
		cfg.Canvas.BaseURL = v
	}
	if v := os.Getenv("CANVAS_TOKEN"); v != "" {
		cfg.Canvas.Token = v
	}
	if v := os.Getenv("CANVAS_FEED_URL"); v != "" {
		cfg.Canvas.FeedURL = v
	}
	if v := os.Getenv("MS_TENANT_ID"); v != "" {
		cfg.Outlook.TenantID = v
	}
	if v := os.Getenv("MS_CLIENT_ID"); v != "" {
		cfg.Outlook.ClientID = v
	}
	if v := os.Getenv("MS_CLIENT_SECRET"); v != "" {
		cfg.Outlook.ClientSecret = v
	}
	if v := os.Getenv("MS_USER_EMAIL"); v != "" {
		cfg.Outlook.UserEmail = v
	}

	// LLM
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}

	// Redis
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}

	// DB
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.DB.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.DB.Port = p
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.DB.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.DB.Password = password
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.DB.Name = name
	}

	// MQ
	if url := os.Getenv("MQ_URL"); url != "" {
		cfg.MQ.URL = url
	}

	// Push
	if v := os.Getenv("PUSHOVER_APP_TOKEN"); v != "" {
		cfg.Push.AppToken = v
	}
	if v := os.Getenv("PUSHOVER_USER_KEY"); v != "" {
		cfg.Push.UserKey = v
	}
}

// SplitKeywords parses a comma separated keyword list into trimmed,
// lowercased entries, dropping empties.
func SplitKeywords(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
