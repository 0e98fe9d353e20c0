package config

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/m04kA/SMC-TrekBookingService/internal/domain"
)

// Config конфигурация сервиса, загружаемая из config.toml
type Config struct {
	Server         ServerConfig         `toml:"server"`
	Database       DatabaseConfig       `toml:"database"`
	Logs           LogsConfig           `toml:"logs"`
	Metrics        MetricsConfig        `toml:"metrics"`
	Booking        BookingConfig        `toml:"booking"`
	PartialPayment PartialPaymentConfig `toml:"partial_payment"`
	PaymentGateway IntegrationConfig    `toml:"payment_gateway"`
	InvoiceService IntegrationConfig    `toml:"invoice_service"`
	NotifyService  IntegrationConfig    `toml:"notify_service"`
}

// ServerConfig настройки HTTP сервера
type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

// DatabaseConfig настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"`
	MigrationsPath  string `toml:"migrations_path"`
}

// DSN возвращает строку подключения к базе данных
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// LogsConfig настройки логирования
type LogsConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

// MetricsConfig настройки prometheus-метрик
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// BookingConfig настройки бизнес-логики бронирований
type BookingConfig struct {
	SessionTTLMinutes        int `toml:"session_ttl_minutes"`
	ReconcileIntervalMinutes int `toml:"reconcile_interval_minutes"`
	ReconcileHorizonDays     int `toml:"reconcile_horizon_days"`
}

// PartialPaymentConfig настройки workflow частичной оплаты
type PartialPaymentConfig struct {
	ReminderWindowDays      int `toml:"reminder_window_days"`
	ReminderIntervalMinutes int `toml:"reminder_interval_minutes"`
}

// IntegrationConfig настройки внешнего HTTP-сервиса
type IntegrationConfig struct {
	URL     string `toml:"url"`
	Timeout int    `toml:"timeout"`
}

// Load загружает конфигурацию из TOML-файла и проставляет дефолты
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to decode %s: %w", path, err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.HTTPPort == 0 {
		cfg.Server.HTTPPort = 8080
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MigrationsPath == "" {
		cfg.Database.MigrationsPath = "migrations"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Metrics.ServiceName == "" {
		cfg.Metrics.ServiceName = "trek-booking-service"
	}
	if cfg.Booking.SessionTTLMinutes == 0 {
		cfg.Booking.SessionTTLMinutes = domain.DefaultSessionTTLMinutes
	}
	if cfg.Booking.ReconcileIntervalMinutes == 0 {
		cfg.Booking.ReconcileIntervalMinutes = 60
	}
	if cfg.Booking.ReconcileHorizonDays == 0 {
		cfg.Booking.ReconcileHorizonDays = domain.DefaultReconcileHorizonDays
	}
	if cfg.PartialPayment.ReminderWindowDays == 0 {
		cfg.PartialPayment.ReminderWindowDays = domain.DefaultReminderWindowDays
	}
	if cfg.PartialPayment.ReminderIntervalMinutes == 0 {
		cfg.PartialPayment.ReminderIntervalMinutes = 60
	}
}

func validate(cfg *Config) error {
	if cfg.Database.Host == "" {
		return fmt.Errorf("config: database.host is required")
	}
	if cfg.Database.DBName == "" {
		return fmt.Errorf("config: database.dbname is required")
	}
	if cfg.PaymentGateway.URL == "" {
		return fmt.Errorf("config: payment_gateway.url is required")
	}
	return nil
}
