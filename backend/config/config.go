package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Export   ExportConfig   `mapstructure:"export"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port      int        `mapstructure:"port"       validate:"gt=0,lt=65536"`
	BodyLimit int64      `mapstructure:"body_limit" validate:"gt=0"`
	CORS      CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// CatalogConfig 课程目录文件配置
type CatalogConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// ScheduleConfig 课表配置
type ScheduleConfig struct {
	DefaultTitle string `mapstructure:"default_title"`
}

// ExportConfig 课表导出配置
type ExportConfig struct {
	Dir       string `mapstructure:"dir"        validate:"required"`
	TermStart string `mapstructure:"term_start" validate:"omitempty,datetime=2006-01-02"` // 为空时取当前周的周一
	Weeks     int    `mapstructure:"weeks"      validate:"gt=0,lte=52"`
	Timezone  string `mapstructure:"timezone"   validate:"required,timezone"`
}

// Location 导出日历使用的时区
func (c *ExportConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// TermStartDate 学期第一天（所在时区零点）；未配置时返回零值
func (c *ExportConfig) TermStartDate() (time.Time, error) {
	if c.TermStart == "" {
		return time.Time{}, nil
	}
	loc, err := c.Location()
	if err != nil {
		return time.Time{}, err
	}
	return time.ParseInLocation("2006-01-02", c.TermStart, loc)
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"  validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > .env > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	// .env 不存在时忽略；已存在的环境变量不会被覆盖
	_ = godotenv.Load()

	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.body_limit", 1<<20)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("catalog.path", "test-files/course_records.txt")

	v.SetDefault("schedule.default_title", "My Schedule")

	v.SetDefault("export.dir", "export")
	v.SetDefault("export.term_start", "")
	v.SetDefault("export.weeks", 16)
	v.SetDefault("export.timezone", "America/New_York")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
	v.SetEnvPrefix("WOLF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 按结构体标签校验配置项
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("配置校验失败: %s 不满足 %s 约束 (当前值: %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("配置校验失败: %w", err)
	}
	return nil
}
