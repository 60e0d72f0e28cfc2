package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"db"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Mail      MailConfig      `mapstructure:"mail"`
	Dues      DuesConfig      `mapstructure:"dues"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
}

// AppConfig 应用基础信息
type AppConfig struct {
	Name     string `mapstructure:"name"`
	Timezone string `mapstructure:"timezone"` // 考勤日期归一化、按日统计所用的本地时区

	loc *time.Location
}

// Location 返回解析后的本地时区（Validate 之后可用）
func (a *AppConfig) Location() *time.Location {
	if a.loc == nil {
		return time.Local
	}
	return a.loc
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port         int        `mapstructure:"port"`
	BaseURL      string     `mapstructure:"base_url"`
	FrontendURL  string     `mapstructure:"frontend_url"`
	MaxBodyBytes int64      `mapstructure:"max_body_bytes"`
	CORS         CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"sslmode"`
	Timezone        string        `mapstructure:"timezone"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int           `mapstructure:"conn_max_lifetime"`  // 连接最大生命周期（分钟）
	ConnMaxIdleTime int           `mapstructure:"conn_max_idle_time"` // 空闲连接最大存活时间（分钟）
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`      // 单个请求内数据库操作的超时上限
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 缓存配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig JWT 认证配置
type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
	AdminEmail     string        `mapstructure:"admin_email"` // 以该邮箱注册的账号直接授予 admin
}

// MailConfig 邮件发送配置
type MailConfig struct {
	Provider string        `mapstructure:"provider"` // sendgrid | log
	APIKey   string        `mapstructure:"api_key"`
	From     string        `mapstructure:"from"`
	FromName string        `mapstructure:"from_name"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// DuesConfig 月度会费配置
type DuesConfig struct {
	MonthlyFee int64  `mapstructure:"monthly_fee"`
	Currency   string `mapstructure:"currency"`
}

// SchedulerConfig 定时任务配置（cron 表达式，5 段）
type SchedulerConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	GenerateDues    string        `mapstructure:"generate_dues"`
	DuesReminders   string        `mapstructure:"dues_reminders"`
	AbsenceAlerts   string        `mapstructure:"absence_alerts"`
	MonthlyReport   string        `mapstructure:"monthly_report"`
	JobTimeout      time.Duration `mapstructure:"job_timeout"`
	MailsPerSecond  float64       `mapstructure:"mails_per_second"`
	AbsenceMinTotal int           `mapstructure:"absence_min_total"`
	AbsenceMinCount int           `mapstructure:"absence_min_count"`
}

// RateLimitConfig 接口限流配置
type RateLimitConfig struct {
	AuthLimit    int           `mapstructure:"auth_limit"`
	AuthWindow   time.Duration `mapstructure:"auth_window"`
	ExportLimit  int           `mapstructure:"export_limit"`
	ExportWindow time.Duration `mapstructure:"export_window"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("WTM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// ── 关键配置校验 ──
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "Worship Team Manager")
	v.SetDefault("app.timezone", "Indian/Antananarivo")

	v.SetDefault("server.port", 5000)
	v.SetDefault("server.base_url", "http://localhost:5000")
	v.SetDefault("server.frontend_url", "http://localhost:5173")
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "worship_team")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)  // 60分钟
	v.SetDefault("db.conn_max_idle_time", 30) // 30分钟
	v.SetDefault("db.query_timeout", "15s")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.access_token_ttl", "24h")
	v.SetDefault("auth.admin_email", "")

	v.SetDefault("mail.provider", "log")
	v.SetDefault("mail.from", "noreply@worship-team.local")
	v.SetDefault("mail.from_name", "Worship Team Manager")
	v.SetDefault("mail.timeout", "10s")

	v.SetDefault("dues.monthly_fee", 3000)
	v.SetDefault("dues.currency", "Ar")

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.generate_dues", "5 0 1 * *")
	v.SetDefault("scheduler.dues_reminders", "0 9 15 * *")
	v.SetDefault("scheduler.absence_alerts", "0 10 * * 1")
	v.SetDefault("scheduler.monthly_report", "0 8 1 * *")
	v.SetDefault("scheduler.job_timeout", "10m")
	v.SetDefault("scheduler.mails_per_second", 1)
	v.SetDefault("scheduler.absence_min_total", 4)
	v.SetDefault("scheduler.absence_min_count", 3)

	v.SetDefault("rate_limit.auth_limit", 10)
	v.SetDefault("rate_limit.auth_window", "15m")
	v.SetDefault("rate_limit.export_limit", 10)
	v.SetDefault("rate_limit.export_window", "1h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 不能为空")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	if c.Dues.MonthlyFee <= 0 {
		return fmt.Errorf("配置校验失败: dues.monthly_fee 必须大于 0")
	}
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return fmt.Errorf("配置校验失败: app.timezone %q 无效: %w", c.App.Timezone, err)
	}
	c.App.loc = loc
	switch c.Mail.Provider {
	case "log":
	case "sendgrid":
		if c.Mail.APIKey == "" {
			return fmt.Errorf("配置校验失败: mail.provider=sendgrid 时 mail.api_key 不能为空")
		}
	default:
		return fmt.Errorf("配置校验失败: mail.provider 仅支持 sendgrid 或 log")
	}
	return nil
}
