package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 全局配置结构
// 设计说明：使用Viper管理配置，支持YAML文件和环境变量覆盖
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Log           LogConfig           `mapstructure:"log"`
	RabbitMQ      RabbitMQConfig      `mapstructure:"rabbitmq"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Tracing       TracingConfig       `mapstructure:"tracing"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
	Cache         CacheConfig         `mapstructure:"cache"`
	CORS          CORSConfig          `mapstructure:"cors"`
}

type ServerConfig struct {
	Name         string        `mapstructure:"name"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"` // debug | release | test
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig 主库负责写入，从库负责查询
// Replica.Host为空时读写都走主库
type DatabaseConfig struct {
	Primary         PostgresConfig `mapstructure:"primary"`
	Replica         PostgresConfig `mapstructure:"replica"`
	MaxOpenConns    int            `mapstructure:"max_open_conns"`
	MaxIdleConns    int            `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration  `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool           `mapstructure:"auto_migrate"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	TimeZone string `mapstructure:"timezone"`
}

// DSN 生成PostgreSQL连接字符串
// 格式：host=... port=... user=... password=... dbname=... sslmode=... TimeZone=...
func (p PostgresConfig) DSN() string {
	sslMode := p.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	tz := p.TimeZone
	if tz == "" {
		tz = "UTC"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, sslMode, tz)
}

// Enabled 是否配置了该连接
func (p PostgresConfig) Enabled() bool {
	return p.Host != ""
}

type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr 返回Redis地址
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret            string        `mapstructure:"secret"`
	Issuer            string        `mapstructure:"issuer"`
	AccessTokenExpire time.Duration `mapstructure:"access_token_expire"`
}

type LogConfig struct {
	Level        string `mapstructure:"level"`  // debug | info | warn | error
	Format       string `mapstructure:"format"` // console | json
	Output       string `mapstructure:"output"` // stdout | stderr | /path/to/file
	EnableCaller bool   `mapstructure:"enable_caller"`
}

// RabbitMQConfig 命令通道配置
type RabbitMQConfig struct {
	URL          string        `mapstructure:"url"`
	Exchange     string        `mapstructure:"exchange"`
	ExchangeType string        `mapstructure:"exchange_type"`
	Queue        string        `mapstructure:"queue"`
	Prefetch     int           `mapstructure:"prefetch"`
	RetryRate    float64       `mapstructure:"retry_rate"` // 每秒允许的重新入队次数
	ConnectTries uint64        `mapstructure:"connect_tries"`
	ConnectDelay time.Duration `mapstructure:"connect_delay"`
}

type ElasticsearchConfig struct {
	Addresses []string      `mapstructure:"addresses"`
	Username  string        `mapstructure:"username"`
	Password  string        `mapstructure:"password"`
	Index     string        `mapstructure:"index"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type TracingConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"` // OTLP gRPC地址，如 localhost:4317
}

type MetricsConfig struct {
	Port int `mapstructure:"port"` // 消费者进程的/metrics端口
}

// CORSConfig 跨域配置
type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowOrigins     []string `mapstructure:"allow_origins"`
	AllowMethods     []string `mapstructure:"allow_methods"`
	AllowHeaders     []string `mapstructure:"allow_headers"`
	ExposeHeaders    []string `mapstructure:"expose_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"` // 秒
}

type CacheConfig struct {
	BookTTL      time.Duration `mapstructure:"book_ttl"`
	PartitionTTL time.Duration `mapstructure:"partition_lock_ttl"`
}

// Load 加载配置文件
// 支持：
// 1. 默认加载config/config.yaml
// 2. 环境变量覆盖（如CATALOG_DATABASE_PRIMARY_PASSWORD）
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile 加载指定路径的配置文件，path为空时按默认路径查找
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	// 环境变量绑定（CATALOG_RABBITMQ_URL → rabbitmq.url）
	v.SetEnvPrefix("CATALOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.name", "book-service")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("rabbitmq.exchange", "book-service-exchange")
	v.SetDefault("rabbitmq.exchange_type", "topic")
	v.SetDefault("rabbitmq.queue", "book-service-queue")
	v.SetDefault("rabbitmq.prefetch", 1)
	v.SetDefault("rabbitmq.retry_rate", 5)
	v.SetDefault("rabbitmq.connect_tries", 10)
	v.SetDefault("rabbitmq.connect_delay", 3*time.Second)
	v.SetDefault("elasticsearch.index", "books")
	v.SetDefault("elasticsearch.timeout", 5*time.Second)
	v.SetDefault("metrics.port", 9091)
	v.SetDefault("cache.book_ttl", 10*time.Minute)
	v.SetDefault("cache.partition_lock_ttl", 30*time.Second)
	v.SetDefault("cors.allow_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allow_headers", []string{"Authorization", "Content-Type", "X-Correlation-ID"})
	v.SetDefault("cors.expose_headers", []string{"X-Correlation-ID"})
	v.SetDefault("jwt.issuer", "book-service")
	v.SetDefault("jwt.access_token_expire", 2*time.Hour)
}

// validate 配置校验
func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("无效的服务端口: %d", cfg.Server.Port)
	}

	if cfg.RabbitMQ.URL != "" {
		if _, err := url.Parse(cfg.RabbitMQ.URL); err != nil {
			return fmt.Errorf("无效的RabbitMQ地址: %w", err)
		}
	}

	if cfg.Elasticsearch.Index == "" {
		return fmt.Errorf("elasticsearch.index不能为空")
	}

	if cfg.RabbitMQ.Prefetch <= 0 {
		return fmt.Errorf("rabbitmq.prefetch必须大于0")
	}

	if cfg.JWT.Secret == "your-secret-key-change-in-production" && cfg.Server.Mode == "release" {
		return fmt.Errorf("生产环境必须修改JWT密钥")
	}

	return nil
}
