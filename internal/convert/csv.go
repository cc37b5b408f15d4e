package convert

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// csvFile — CSV-файл GeoLite2 с обязательной строкой заголовка.
type csvFile struct {
	path string
	f    *os.File
	r    *csv.Reader
}

// openCSV открывает файл и пропускает заголовок. minFields — минимальное
// число колонок; все строки обязаны иметь столько же колонок, сколько заголовок.
func openCSV(path string, minFields int) (*csvFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия %s: %w", path, err)
	}

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		_ = f.Close()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: нет строки заголовка", path)
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(header) < minFields {
		_ = f.Close()
		return nil, fmt.Errorf("%s:1: ожидалось не менее %d колонок, получено %d", path, minFields, len(header))
	}

	return &csvFile{path: path, f: f, r: r}, nil
}

// next возвращает очередную строку и её номер в файле. io.EOF — конец файла.
func (c *csvFile) next() ([]string, int, error) {
	record, err := c.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, 0, io.EOF
		}
		// csv.ParseError уже содержит номер строки
		return nil, 0, fmt.Errorf("%s: %w", c.path, err)
	}
	line, _ := c.r.FieldPos(0)
	return record, line, nil
}

// errorf формирует ошибку с указанием файла и строки.
func (c *csvFile) errorf(line int, format string, args ...any) error {
	return fmt.Errorf("%s:%d: %s", c.path, line, fmt.Sprintf(format, args...))
}

func (c *csvFile) Close() error {
	return c.f.Close()
}

// isLocationsFile — любой *.csv, кроме файлов блоков сетей.
func isLocationsFile(name string) bool {
	return strings.HasSuffix(name, ".csv") &&
		!strings.HasSuffix(name, "-IPv4.csv") &&
		!strings.HasSuffix(name, "-IPv6.csv")
}
