// Пакет archive — сборщик архивов: однократный проход при старте,
// упаковывающий каждую исходную базу *.mmdb в tar.gz с одним файлом.
//
// Проход синхронный, безусловный (существующие архивы перезаписываются)
// и не повторяется после старта: появление новых файлов не отслеживается.
package archive

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/geoip-mirror/internal/config"
	"github.com/bigkaa/geoip-mirror/internal/storage/filestore"
)

const (
	// RawExt — расширение исходных баз
	RawExt = ".mmdb"
	// MemberExt — расширение имени файла внутри архива
	MemberExt = ".tgz"
)

// Prometheus-метрики сборщика.
var (
	archivesBuiltTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gm_archives_built_total",
		Help: "Общее количество собранных архивов баз",
	})
	archiveInputBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gm_archive_input_bytes_total",
		Help: "Объём исходных баз, упакованных в архивы, в байтах",
	})
	archiveBuildDuration = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gm_archive_build_duration_seconds",
		Help: "Длительность последнего прохода сборщика архивов в секундах",
	})
)

// Builder — сборщик архивов из директории исходных баз в директорию архивов.
type Builder struct {
	raw    *filestore.FileStore
	out    *filestore.FileStore
	naming string
	logger *slog.Logger
}

// Entry — результат упаковки одного файла.
type Entry struct {
	// InputPath — путь к исходной базе
	InputPath string
	// OutputPath — путь к записанному архиву
	OutputPath string
	// MemberName — имя файла внутри архива (<base>.tgz)
	MemberName string
	// Size — размер исходной базы в байтах
	Size int64
}

// BuildResult — итог прохода сборщика.
type BuildResult struct {
	Entries  []Entry
	Duration time.Duration
}

// NewBuilder создаёт сборщик. naming — config.NamingLegacy или config.NamingTGZ.
func NewBuilder(raw, out *filestore.FileStore, naming string, logger *slog.Logger) *Builder {
	return &Builder{
		raw:    raw,
		out:    out,
		naming: naming,
		logger: logger.With(slog.String("component", "archive_builder")),
	}
}

// Build выполняет один проход: для каждого обычного файла *.mmdb исходной
// директории записывает архив в выходную директорию. Любая ошибка ввода-вывода
// прерывает весь проход и возвращается вызывающему коду без повторов.
func (b *Builder) Build(ctx context.Context) (*BuildResult, error) {
	start := time.Now()

	names, err := b.raw.ListRegular()
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования исходных баз: %w", err)
	}

	result := &BuildResult{}
	for _, name := range names {
		if !strings.HasSuffix(name, RawExt) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("сборка архивов прервана: %w", err)
		}

		entry, err := b.buildOne(name)
		if err != nil {
			return nil, err
		}
		result.Entries = append(result.Entries, *entry)

		archivesBuiltTotal.Inc()
		archiveInputBytesTotal.Add(float64(entry.Size))

		b.logger.Info(fmt.Sprintf("Сжат файл %s в %s", entry.InputPath, entry.OutputPath),
			slog.String("input_path", entry.InputPath),
			slog.String("output_path", entry.OutputPath),
			slog.String("member", entry.MemberName),
			slog.Int64("size", entry.Size),
		)
	}

	result.Duration = time.Since(start)
	archiveBuildDuration.Set(result.Duration.Seconds())

	b.logger.Info(fmt.Sprintf("Сжаты все файлы из %s в %s", b.raw.Dir(), b.out.Dir()),
		slog.String("database_path", b.raw.Dir()),
		slog.String("compressed_path", b.out.Dir()),
		slog.Int("count", len(result.Entries)),
		slog.Duration("duration", result.Duration),
	)

	return result, nil
}

// buildOne упаковывает одну исходную базу.
func (b *Builder) buildOne(name string) (*Entry, error) {
	src, info, err := b.raw.Open(name)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия исходной базы %s: %w", name, err)
	}
	defer src.Close()

	base := BaseName(name)
	member := base + MemberExt
	outName := name
	if b.naming == config.NamingTGZ {
		outName = member
	}

	err = b.out.WriteFile(outName, func(w io.Writer) error {
		return WriteArchive(w, member, info, src)
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка записи архива %s: %w", outName, err)
	}

	return &Entry{
		InputPath:  b.raw.FullPath(name),
		OutputPath: b.out.FullPath(outName),
		MemberName: member,
		Size:       info.Size(),
	}, nil
}

// BaseName возвращает часть имени файла до первой точки.
// GeoLite2-City.mmdb → GeoLite2-City.
func BaseName(name string) string {
	base, _, _ := strings.Cut(name, ".")
	return base
}

// WriteArchive пишет в w tar.gz с единственным файлом member, содержимое
// которого читается из src. info задаёт размер, права и mtime записи.
func WriteArchive(w io.Writer, member string, info os.FileInfo, src io.Reader) error {
	gz, err := gzip.NewWriterLevel(w, gzip.BestCompression)
	if err != nil {
		return fmt.Errorf("ошибка создания gzip writer: %w", err)
	}
	tw := tar.NewWriter(gz)

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return fmt.Errorf("ошибка формирования tar-заголовка: %w", err)
	}
	hdr.Name = member

	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("ошибка записи tar-заголовка: %w", err)
	}

	n, err := io.Copy(tw, src)
	if err != nil {
		return fmt.Errorf("ошибка записи содержимого: %w", err)
	}
	if n != hdr.Size {
		return fmt.Errorf("размер %s изменился во время упаковки: %d вместо %d", member, n, hdr.Size)
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия tar: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия gzip: %w", err)
	}
	return nil
}
