// Точка входа GeoIP Mirror — сервиса раздачи сжатых баз геолокации.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/bigkaa/geoip-mirror/internal/api/handlers"
	"github.com/bigkaa/geoip-mirror/internal/api/openapi"
	"github.com/bigkaa/geoip-mirror/internal/config"
	"github.com/bigkaa/geoip-mirror/internal/server"
	"github.com/bigkaa/geoip-mirror/internal/service"
	"github.com/bigkaa/geoip-mirror/internal/storage/archive"
	"github.com/bigkaa/geoip-mirror/internal/storage/filestore"
)

func main() {
	// Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка конфигурации: %v\n", err)
		os.Exit(1)
	}

	// Настройка логгера
	logger := config.SetupLogger(cfg)
	logger.Info("GeoIP Mirror запускается",
		slog.String("version", config.Version),
		slog.String("data_dir", cfg.DataDir),
		slog.String("archive_naming", cfg.ArchiveNaming),
		slog.Int("port", cfg.Port),
	)

	// --- Инициализация компонентов ---

	// 1. Проверка встроенного OpenAPI-контракта
	if _, err := openapi.Load(context.Background()); err != nil {
		logger.Error("Ошибка загрузки OpenAPI-документа", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Файловые хранилища: исходные базы и архивы
	rawStore, err := filestore.New(cfg.RawDir())
	if err != nil {
		logger.Error("Ошибка инициализации директории исходных баз", slog.String("error", err.Error()))
		os.Exit(1)
	}
	archiveStore, err := filestore.New(cfg.ArchiveDir())
	if err != nil {
		logger.Error("Ошибка инициализации директории архивов", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 3. Сборка архивов: один синхронный проход до старта HTTP-сервера
	builder := archive.NewBuilder(rawStore, archiveStore, cfg.ArchiveNaming, logger)
	if _, err := builder.Build(context.Background()); err != nil {
		logger.Error("Ошибка сборки архивов", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Сервисы
	catalogSvc := service.NewCatalogService(archiveStore, logger)
	downloadSvc := service.NewDownloadService(archiveStore, logger)

	// 5. HTTP handlers
	apiHandler := handlers.NewAPIHandler(
		handlers.NewDatabasesHandler(catalogSvc),
		handlers.NewFilesHandler(downloadSvc),
		handlers.NewHealthHandler(cfg.ArchiveDir(), cfg.RawDir()),
		logger,
	)

	// 6. HTTP-сервер
	srv := server.New(cfg, logger, apiHandler)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("GeoIP Mirror остановлен")
}
