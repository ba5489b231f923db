package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"k8s.io/apimachinery/pkg/api/resource"
)

// Config 应用程序配置
type Config struct {
	APIPort    int
	LogLevel   string
	LogFile    LogFileConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Cache      CacheConfig
	Commission CommissionConfig
}

// DatabaseConfig MySQL数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host     string
	Port     int
	Password string
}

// LogFileConfig 文件日志配置
type LogFileConfig struct {
	Enabled    bool
	Path       string
	MaxSize    int // 单个文件最大大小，单位MB
	MaxBackups int // 最大保留旧文件数量
	MaxAge     int // 最大保留天数
	Compress   bool
}

// CacheConfig 上级链路缓存配置
type CacheConfig struct {
	MaxEntries    int           // 单实例最大条目数
	MaxMemory     int64         // 单实例内存预算，字节
	DefaultTTL    time.Duration // 默认条目过期时间
	SweepInterval time.Duration // 过期条目清理间隔
}

// CommissionConfig 分佣配置
type CommissionConfig struct {
	MaxDepth      int           // 分佣最大层级
	MinAmount     float64       // 低于该金额的佣金不入账
	SettleEvery   time.Duration // 未结算订单补偿处理间隔
	UplineMaxHops int           // 上级链路查找最大跳数
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	// 加载.env文件，文件不存在时直接使用环境变量
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	cfg := &Config{
		APIPort:  envInt("API_PORT", 8080),
		LogLevel: os.Getenv("LOG_LEVEL"),
		LogFile: LogFileConfig{
			Enabled:    os.Getenv("LOG_FILE_ENABLED") == "true",
			Path:       os.Getenv("LOG_FILE_PATH"),
			MaxSize:    envInt("LOG_FILE_MAX_SIZE", 100),
			MaxBackups: envInt("LOG_FILE_MAX_BACKUPS", 7),
			MaxAge:     envInt("LOG_FILE_MAX_AGE", 30),
			Compress:   os.Getenv("LOG_FILE_COMPRESS") == "true",
		},
		Database: DatabaseConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     envInt("DB_PORT", 3306),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   os.Getenv("DB_NAME"),
		},
		Redis: RedisConfig{
			Host:     os.Getenv("REDIS_HOST"),
			Port:     envInt("REDIS_PORT", 6379),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		Cache: CacheConfig{
			MaxEntries:    envInt("CACHE_MAX_ENTRIES", 10000),
			DefaultTTL:    envDuration("CACHE_DEFAULT_TTL", 10*time.Minute),
			SweepInterval: envDuration("CACHE_SWEEP_INTERVAL", time.Minute),
		},
		Commission: CommissionConfig{
			MaxDepth:      envInt("COMMISSION_MAX_DEPTH", 3),
			MinAmount:     envFloat("COMMISSION_MIN_AMOUNT", 0.01),
			SettleEvery:   envDuration("COMMISSION_SETTLE_INTERVAL", 5*time.Minute),
			UplineMaxHops: envInt("UPLINE_MAX_HOPS", 10),
		},
	}

	// 缓存内存预算使用资源数量格式，例如 64Mi、256Mi
	memStr := os.Getenv("CACHE_MAX_MEMORY")
	if memStr == "" {
		memStr = "64Mi"
	}
	quantity, err := resource.ParseQuantity(memStr)
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_MAX_MEMORY %q: %w", memStr, err)
	}
	cfg.Cache.MaxMemory = quantity.Value()

	return cfg, nil
}

// envInt 读取整数环境变量，解析失败时使用默认值
func envInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

// envFloat 读取浮点数环境变量，解析失败时使用默认值
func envFloat(key string, def float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return def
	}
	return v
}

// envDuration 读取时长环境变量，解析失败时使用默认值
func envDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}
