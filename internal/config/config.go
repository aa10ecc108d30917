package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"inventory/internal/view"
)

const envPrefix = "INVENTORY_"

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type SourceConfig struct {
	BaseURL     string        `yaml:"base_url"`
	PageSize    int           `yaml:"page_size"`
	Timeout     time.Duration `yaml:"timeout"`
	Refresh     string        `yaml:"refresh"`
	LoadOnStart bool          `yaml:"load_on_start"`
}

type ViewConfig struct {
	PageSize    int    `yaml:"page_size"`
	CacheSize   int    `yaml:"cache_size"`
	LowStock    int64  `yaml:"low_stock"`
	HighStock   int64  `yaml:"high_stock"`
	UrgentDays  int    `yaml:"urgent_days"`
	WarningDays int    `yaml:"warning_days"`
	Location    string `yaml:"location"`
}

type InputConfig struct {
	Strict bool `yaml:"strict"`
}

type IDConfig struct {
	Strategy string `yaml:"strategy"`
	Node     int64  `yaml:"node"`
}

type LogConfig struct {
	Mode       string `yaml:"mode"`
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

// AppConfig вся конфигурация сервиса
type AppConfig struct {
	HTTP   HTTPConfig   `yaml:"http"`
	Source SourceConfig `yaml:"source"`
	View   ViewConfig   `yaml:"view"`
	Input  InputConfig  `yaml:"input"`
	IDs    IDConfig     `yaml:"ids"`
	Logger LogConfig    `yaml:"logger"`
}

func Default() *AppConfig {
	th := view.DefaultThresholds()
	return &AppConfig{
		HTTP: HTTPConfig{Addr: ":9091"},
		Source: SourceConfig{
			BaseURL:  "http://localhost:9090",
			PageSize: view.DefaultPageSize,
			Timeout:  5 * time.Second,
		},
		View: ViewConfig{
			PageSize:    view.DefaultPageSize,
			CacheSize:   128,
			LowStock:    th.LowStock,
			HighStock:   th.HighStock,
			UrgentDays:  th.UrgentDays,
			WarningDays: th.WarningDays,
			Location:    "Local",
		},
		Input:  InputConfig{Strict: true},
		IDs:    IDConfig{Strategy: "sequence", Node: 1},
		Logger: LogConfig{Mode: "development", Filename: "logs/inventory.log"},
	}
}

// Load собирает конфигурацию по слоям: значения по умолчанию, YAML-файл path
// (пропускается, если path пуст), .env в рабочем каталоге и переменные INVENTORY_*.
// Числа в переменных окружения всегда десятичные.
func Load(path string) (*AppConfig, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
	}

	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, errors.Wrap(err, "load .env")
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) applyEnv() error {
	str := func(key string, dst *string) error {
		if v, ok := getEnv(key); ok {
			*dst = v
		}
		return nil
	}
	num := func(key string, dst *int) error {
		if v, ok := getEnv(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return errors.Wrapf(err, "%s%s", envPrefix, key)
			}
			*dst = n
		}
		return nil
	}
	num64 := func(key string, dst *int64) error {
		if v, ok := getEnv(key); ok {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return errors.Wrapf(err, "%s%s", envPrefix, key)
			}
			*dst = n
		}
		return nil
	}
	flag := func(key string, dst *bool) error {
		if v, ok := getEnv(key); ok {
			b, err := cast.ToBoolE(v)
			if err != nil {
				return errors.Wrapf(err, "%s%s", envPrefix, key)
			}
			*dst = b
		}
		return nil
	}
	dur := func(key string, dst *time.Duration) error {
		if v, ok := getEnv(key); ok {
			d, err := cast.ToDurationE(v)
			if err != nil {
				return errors.Wrapf(err, "%s%s", envPrefix, key)
			}
			*dst = d
		}
		return nil
	}

	for _, err := range []error{
		str("HTTP_ADDR", &c.HTTP.Addr),
		str("SOURCE_BASE_URL", &c.Source.BaseURL),
		num("SOURCE_PAGE_SIZE", &c.Source.PageSize),
		dur("SOURCE_TIMEOUT", &c.Source.Timeout),
		str("SOURCE_REFRESH", &c.Source.Refresh),
		flag("SOURCE_LOAD_ON_START", &c.Source.LoadOnStart),
		num("VIEW_PAGE_SIZE", &c.View.PageSize),
		num("VIEW_CACHE_SIZE", &c.View.CacheSize),
		num64("VIEW_LOW_STOCK", &c.View.LowStock),
		num64("VIEW_HIGH_STOCK", &c.View.HighStock),
		num("VIEW_URGENT_DAYS", &c.View.UrgentDays),
		num("VIEW_WARNING_DAYS", &c.View.WarningDays),
		str("VIEW_LOCATION", &c.View.Location),
		flag("INPUT_STRICT", &c.Input.Strict),
		str("IDS_STRATEGY", &c.IDs.Strategy),
		num64("IDS_NODE", &c.IDs.Node),
		str("LOGGER_MODE", &c.Logger.Mode),
		flag("LOGGER_FILE_ENABLE", &c.Logger.FileEnable),
		str("LOGGER_FILENAME", &c.Logger.Filename),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *AppConfig) Validate() error {
	if c.Source.PageSize <= 0 {
		return errors.New("source.page_size must be positive")
	}
	if c.View.PageSize <= 0 {
		return errors.New("view.page_size must be positive")
	}
	if c.View.CacheSize < 0 {
		return errors.New("view.cache_size must not be negative")
	}
	if c.View.LowStock > c.View.HighStock {
		return errors.New("view.low_stock must not exceed view.high_stock")
	}
	if c.View.UrgentDays > c.View.WarningDays {
		return errors.New("view.urgent_days must not exceed view.warning_days")
	}
	switch c.IDs.Strategy {
	case "sequence", "snowflake":
	default:
		return errors.Errorf("ids.strategy must be sequence or snowflake, got %q", c.IDs.Strategy)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location разрешает view.location, пустое значение даёт часовой пояс процесса
func (c *AppConfig) Location() (*time.Location, error) {
	if c.View.Location == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.View.Location)
	if err != nil {
		return nil, errors.Wrapf(err, "view.location %q", c.View.Location)
	}
	return loc, nil
}

func (c *AppConfig) Thresholds() view.Thresholds {
	return view.Thresholds{
		LowStock:    c.View.LowStock,
		HighStock:   c.View.HighStock,
		UrgentDays:  c.View.UrgentDays,
		WarningDays: c.View.WarningDays,
	}
}

func getEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}
