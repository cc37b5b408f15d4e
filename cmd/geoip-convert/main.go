// Точка входа конвертера GeoLite2 CSV → mmdb.
// Аргументы — список редакций (по умолчанию все, для которых есть CSV).
//
//	geoip-convert [GeoLite2-ASN] [GeoLite2-Country] [GeoLite2-City]
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bigkaa/geoip-mirror/internal/config"
	"github.com/bigkaa/geoip-mirror/internal/convert"
	"github.com/bigkaa/geoip-mirror/internal/storage/filestore"
)

func main() {
	// Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка конфигурации: %v\n", err)
		os.Exit(1)
	}

	logger := config.SetupLogger(cfg)
	logger.Info("Конвертер GeoLite2 запускается",
		slog.String("version", config.Version),
		slog.String("csv_dir", cfg.CSVDir),
		slog.String("output_dir", cfg.RawDir()),
	)

	out, err := filestore.New(cfg.RawDir())
	if err != nil {
		logger.Error("Ошибка инициализации выходной директории", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Прерывание по SIGINT/SIGTERM между строками CSV
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	results, err := convert.New(cfg.CSVDir, out, logger).ConvertAll(ctx, os.Args[1:])
	if err != nil {
		logger.Error("Ошибка конвертации", slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}

	logger.Info("Конвертация завершена", slog.Int("editions", len(results)))
}
