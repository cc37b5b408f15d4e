// Пакет convert — сборка *.mmdb из CSV-выгрузок MaxMind GeoLite2.
// Результат кладётся в директорию исходных баз, откуда его забирает
// сборщик архивов при следующем старте сервера.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/maxmind/mmdbwriter"

	"github.com/bigkaa/geoip-mirror/internal/storage/filestore"
)

// Поддерживаемые редакции GeoLite2.
const (
	EditionASN     = "GeoLite2-ASN"
	EditionCountry = "GeoLite2-Country"
	EditionCity    = "GeoLite2-City"
)

// Editions — редакции в порядке конвертации.
var Editions = []string{EditionASN, EditionCountry, EditionCity}

// ErrUnknownEdition — запрошена неподдерживаемая редакция.
var ErrUnknownEdition = errors.New("неизвестная редакция")

// ErrEditionMissing — нет директории с CSV для редакции.
var ErrEditionMissing = errors.New("директория редакции не найдена")

// Result — итог конвертации одной редакции.
type Result struct {
	Edition    string
	OutputPath string
	// Networks — число прочитанных строк блоков (IPv4 + IPv6)
	Networks int
	Duration time.Duration
}

// Converter читает <csvDir>/<edition>/ и пишет <edition>.mmdb в out.
type Converter struct {
	csvDir string
	out    *filestore.FileStore
	now    func() time.Time
	logger *slog.Logger
}

// New создаёт конвертер.
func New(csvDir string, out *filestore.FileStore, logger *slog.Logger) *Converter {
	return &Converter{
		csvDir: csvDir,
		out:    out,
		now:    time.Now,
		logger: logger.With(slog.String("component", "converter")),
	}
}

// Convert собирает одну редакцию. Любая ошибка разбора прерывает редакцию,
// выходной файл при этом не создаётся и не перезаписывается.
func (c *Converter) Convert(ctx context.Context, edition string) (*Result, error) {
	start := time.Now()

	inserter, err := newBlockInserter(edition)
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(c.csvDir, edition)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrEditionMissing, dir)
	}

	if inserter.needsLocations() {
		if err := c.loadLocations(ctx, dir, inserter); err != nil {
			return nil, err
		}
	}

	tree, err := mmdbwriter.New(mmdbwriter.Options{
		DatabaseType: edition,
		Description: map[string]string{
			"en": edition + " database built from CSV",
		},
		Languages:  inserter.languages(),
		RecordSize: 28,
		BuildEpoch: c.now().Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка создания дерева mmdb: %w", err)
	}

	result := &Result{Edition: edition}
	for _, suffix := range []string{"-Blocks-IPv4.csv", "-Blocks-IPv6.csv"} {
		path := filepath.Join(dir, edition+suffix)
		n, err := readBlocks(ctx, path, tree, inserter)
		if err != nil {
			return nil, err
		}
		result.Networks += n

		c.logger.Info(fmt.Sprintf("Прочитан %s", path),
			slog.String("path", path),
			slog.Int("rows", n),
		)
	}

	name := edition + ".mmdb"
	err = c.out.WriteFile(name, func(w io.Writer) error {
		_, werr := tree.WriteTo(w)
		return werr
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка записи %s: %w", name, err)
	}

	result.OutputPath = c.out.FullPath(name)
	result.Duration = time.Since(start)

	c.logger.Info(fmt.Sprintf("Записан %s", result.OutputPath),
		slog.String("edition", edition),
		slog.String("output_path", result.OutputPath),
		slog.Int("networks", result.Networks),
		slog.Duration("duration", result.Duration),
	)
	return result, nil
}

// ConvertAll собирает перечисленные редакции (все, если список пуст).
// Без явного списка отсутствующие директории пропускаются с предупреждением.
func (c *Converter) ConvertAll(ctx context.Context, editions []string) ([]Result, error) {
	explicit := len(editions) > 0
	if !explicit {
		editions = Editions
	}

	results := make([]Result, 0, len(editions))
	for _, edition := range editions {
		res, err := c.Convert(ctx, edition)
		if err != nil {
			if !explicit && errors.Is(err, ErrEditionMissing) {
				c.logger.Warn("Редакция пропущена: нет CSV", slog.String("edition", edition))
				continue
			}
			return results, fmt.Errorf("редакция %s: %w", edition, err)
		}
		results = append(results, *res)
	}
	return results, nil
}

// loadLocations читает все файлы локаций редакции (любой *.csv,
// кроме файлов блоков) и наполняет таблицу geoname_id → location.
func (c *Converter) loadLocations(ctx context.Context, dir string, ins *blockInserter) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("ошибка чтения директории %s: %w", dir, err)
	}

	for _, e := range entries {
		if !isLocationsFile(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		n, err := ins.locations.load(ctx, path)
		if err != nil {
			return err
		}
		c.logger.Debug(fmt.Sprintf("Прочитаны локации %s", path),
			slog.String("path", path),
			slog.Int("rows", n),
		)
	}
	return nil
}
