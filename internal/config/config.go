// Пакет config — загрузка и валидация конфигурации GeoIP Mirror
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Имена поддиректорий внутри корневой директории данных.
const (
	// RawSubdir — исходные базы *.mmdb (наполняются извне или geoip-convert)
	RawSubdir = "mmdb"
	// ArchiveSubdir — сжатые архивы, которыми полностью владеет сборщик
	ArchiveSubdir = "tgz"
)

// Схемы именования архивов на диске.
const (
	// NamingLegacy — архив сохраняет исходное имя файла (GeoLite2-City.mmdb)
	NamingLegacy = "legacy"
	// NamingTGZ — архив получает имя <base>.tgz (GeoLite2-City.tgz)
	NamingTGZ = "tgz"
)

// Config содержит все параметры конфигурации GeoIP Mirror.
// Создаётся один раз при старте процесса и далее не изменяется.
type Config struct {
	// Корневая директория, внутри которой лежат mmdb/ и tgz/
	DataDir string
	// Порт HTTP-сервера
	Port int
	// Схема именования архивов (legacy, tgz)
	ArchiveNaming string
	// Корневая директория CSV-выгрузок GeoLite2 (только geoip-convert)
	CSVDir string
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// Таймауты HTTP-сервера
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// RawDir возвращает путь к директории исходных баз.
func (c *Config) RawDir() string {
	return filepath.Join(c.DataDir, RawSubdir)
}

// ArchiveDir возвращает путь к директории архивов.
func (c *Config) ArchiveDir() string {
	return filepath.Join(c.DataDir, ArchiveSubdir)
}

// Load загружает конфигурацию из переменных окружения, валидирует
// значения и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// GEOIP_DATA_DIR — корневая директория (по умолчанию текущая)
	cfg.DataDir = getEnvDefault("GEOIP_DATA_DIR", ".")

	// GEOIP_PORT — порт HTTP-сервера (по умолчанию 8000)
	cfg.Port, err = getEnvInt("GEOIP_PORT", 8000)
	if err != nil {
		return nil, fmt.Errorf("GEOIP_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("GEOIP_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// GEOIP_ARCHIVE_NAMING — схема именования архивов (по умолчанию legacy)
	cfg.ArchiveNaming = getEnvDefault("GEOIP_ARCHIVE_NAMING", NamingLegacy)
	if cfg.ArchiveNaming != NamingLegacy && cfg.ArchiveNaming != NamingTGZ {
		return nil, fmt.Errorf("GEOIP_ARCHIVE_NAMING: недопустимое значение %q, допустимые: legacy, tgz", cfg.ArchiveNaming)
	}

	cfg.CSVDir = getEnvDefault("GEOIP_CSV_DIR", "./input")

	// GEOIP_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("GEOIP_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("GEOIP_LOG_LEVEL: %w", err)
	}

	// GEOIP_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("GEOIP_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("GEOIP_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	cfg.HTTPReadTimeout, err = getEnvDuration("GEOIP_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("GEOIP_HTTP_READ_TIMEOUT: %w", err)
	}
	cfg.HTTPWriteTimeout, err = getEnvDuration("GEOIP_HTTP_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("GEOIP_HTTP_WRITE_TIMEOUT: %w", err)
	}
	cfg.HTTPIdleTimeout, err = getEnvDuration("GEOIP_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("GEOIP_HTTP_IDLE_TIMEOUT: %w", err)
	}

	// GEOIP_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("GEOIP_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("GEOIP_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 5s, 1m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
