package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig 应用基础信息
type AppConfig struct {
	Name     string `mapstructure:"name"`
	Env      string `mapstructure:"env"`
	ServerID string `mapstructure:"serverId"` // 多实例部署时的实例ID，为空则自动生成
}

// HTTPConfig HTTP 服务配置
type HTTPConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	Pprof        HTTPPprof     `mapstructure:"pprof"`
	Auth         HTTPAuth      `mapstructure:"auth"`
	RateLimit    HTTPRateLimit `mapstructure:"rateLimit"`
}

// HTTPAuth 会话接口认证配置
type HTTPAuth struct {
	Enabled bool     `mapstructure:"enabled"`
	APIKeys []string `mapstructure:"apiKeys"`
}

// HTTPRateLimit HTTP 限流配置
type HTTPRateLimit struct {
	Enabled        bool    `mapstructure:"enabled"`
	RequestsPerSec float64 `mapstructure:"requestsPerSec"`
	Burst          int     `mapstructure:"burst"`
}

// HTTPPprof HTTP pprof 配置
type HTTPPprof struct {
	Enable bool   `mapstructure:"enable"`
	Prefix string `mapstructure:"prefix"`
}

// LumberjackConfig 日志滚动（lumberjack）配置
type LumberjackConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"maxSize"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAge"`
	Compress   bool   `mapstructure:"compress"`
}

// LoggingConfig 日志级别与输出配置
type LoggingConfig struct {
	Level  string           `mapstructure:"level"`
	Format string           `mapstructure:"format"`
	File   LumberjackConfig `mapstructure:"file"`
}

// MetricsConfig Prometheus 指标暴露配置
type MetricsConfig struct {
	Enable bool   `mapstructure:"enable"`
	Path   string `mapstructure:"path"`
}

// SDKConfig 相机 SDK 配置
type SDKConfig struct {
	Driver              string `mapstructure:"driver"` // sim | crsdk
	DiscoveryTimeoutSec uint8  `mapstructure:"discoveryTimeoutSec"`
	WarningTablePath    string `mapstructure:"warningTablePath"` // 告警码名称表（YAML），为空使用内置表
}

// RelayConfig 事件通道配置
type RelayConfig struct {
	HighWater    int           `mapstructure:"highWater"` // 积压告警水位，0 关闭
	WarnInterval time.Duration `mapstructure:"warnInterval"`
}

// SessionConfig 会话配置
type SessionConfig struct {
	Events bool `mapstructure:"events"` // 是否为会话建立事件流
}

// SimulatorConfig 模拟器配置
type SimulatorConfig struct {
	Cameras       int           `mapstructure:"cameras"`
	EventInterval time.Duration `mapstructure:"eventInterval"`
}

// RedisConfig 会话目录（Redis）配置
type RedisConfig struct {
	Enable          bool          `mapstructure:"enable"`
	Addr            string        `mapstructure:"addr"`
	Password        string        `mapstructure:"password"`
	DB              int           `mapstructure:"db"`
	PoolSize        int           `mapstructure:"poolSize"`
	DialTimeout     time.Duration `mapstructure:"dialTimeout"`
	SessionTTL      time.Duration `mapstructure:"sessionTTL"`
	RefreshInterval time.Duration `mapstructure:"refreshInterval"`
}

// Config 顶层配置结构
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	SDK       SDKConfig       `mapstructure:"sdk"`
	Relay     RelayConfig     `mapstructure:"relay"`
	Session   SessionConfig   `mapstructure:"session"`
	Simulator SimulatorConfig `mapstructure:"simulator"`
	Redis     RedisConfig     `mapstructure:"redis"`
}

// Load 从 YAML/TOML/JSON 文件与环境变量加载配置。
// 若 path 为空，则尝试从环境变量 BRIDGE_CONFIG 读取；否则回退到 configs/example.yaml。
func Load(path string) (*Config, error) {
	v := viper.New()

	// 默认值
	setDefaults(v)

	// 环境变量覆盖：前缀 BRIDGE_，并将点号替换为下划线
	v.SetEnvPrefix("BRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = v.GetString("CONFIG")
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.SetConfigName("example")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		// 首次运行允许缺少配置文件，依赖默认值与环境变量
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验配置取值
func (c *Config) Validate() error {
	switch c.SDK.Driver {
	case "sim", "crsdk":
	default:
		return fmt.Errorf("invalid sdk.driver %q: want sim or crsdk", c.SDK.Driver)
	}
	if c.HTTP.Auth.Enabled && len(c.HTTP.Auth.APIKeys) == 0 {
		return errors.New("http.auth.enabled requires at least one api key")
	}
	if c.Relay.HighWater < 0 {
		return fmt.Errorf("invalid relay.highWater %d", c.Relay.HighWater)
	}
	if c.Simulator.Cameras < 0 {
		return fmt.Errorf("invalid simulator.cameras %d", c.Simulator.Cameras)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "crsdk-bridge")
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.serverId", "")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.readTimeout", "5s")
	v.SetDefault("http.writeTimeout", "10s")
	v.SetDefault("http.pprof.enable", false)
	v.SetDefault("http.pprof.prefix", "/debug/pprof")
	v.SetDefault("http.auth.enabled", false)
	v.SetDefault("http.auth.apiKeys", []string{})
	v.SetDefault("http.rateLimit.enabled", false)
	v.SetDefault("http.rateLimit.requestsPerSec", 50)
	v.SetDefault("http.rateLimit.burst", 100)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file.filename", "")
	v.SetDefault("logging.file.maxSize", 100)
	v.SetDefault("logging.file.maxBackups", 7)
	v.SetDefault("logging.file.maxAge", 30)
	v.SetDefault("logging.file.compress", true)

	v.SetDefault("metrics.enable", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("sdk.driver", "sim")
	v.SetDefault("sdk.discoveryTimeoutSec", 3)
	v.SetDefault("sdk.warningTablePath", "")

	v.SetDefault("relay.highWater", 10000)
	v.SetDefault("relay.warnInterval", "10s")

	v.SetDefault("session.events", true)

	v.SetDefault("simulator.cameras", 2)
	v.SetDefault("simulator.eventInterval", "2s")

	v.SetDefault("redis.enable", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.poolSize", 10)
	v.SetDefault("redis.dialTimeout", "3s")
	v.SetDefault("redis.sessionTTL", "1m")
	v.SetDefault("redis.refreshInterval", "20s")
}
