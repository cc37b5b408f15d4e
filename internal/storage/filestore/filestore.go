// Пакет filestore — операции с файлами одной плоской директории:
// перечисление обычных файлов, открытие для отдачи, подсчёт MD5
// и атомарная запись через временный файл.
package filestore

import (
	"crypto/md5" //nolint:gosec // MD5 — формат контрольной суммы в API, не криптография
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound — файл отсутствует или не является обычным файлом.
var ErrNotFound = errors.New("файл не найден")

// FileStore — управление файлами в одной директории без вложенности.
type FileStore struct {
	// dir — директория, которой ограничены все операции
	dir string
}

// New создаёт FileStore. Создаёт директорию, если она не существует.
func New(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию %s: %w", dir, err)
	}

	return &FileStore{dir: dir}, nil
}

// Dir возвращает путь к директории.
func (fs *FileStore) Dir() string {
	return fs.dir
}

// FullPath возвращает путь к файлу на диске.
func (fs *FileStore) FullPath(name string) string {
	return filepath.Join(fs.dir, name)
}

// ListRegular возвращает имена обычных файлов директории в порядке os.ReadDir
// (по имени). Символические ссылки разрешаются; подкаталоги, битые ссылки
// и исчезнувшие между чтением директории и stat файлы пропускаются.
func (fs *FileStore) ListRegular() ([]string, error) {
	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения директории %s: %w", fs.dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		info, err := os.Stat(filepath.Join(fs.dir, e.Name()))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("ошибка stat %s: %w", e.Name(), err)
		}
		if !info.Mode().IsRegular() {
			continue
		}
		names = append(names, e.Name())
	}

	return names, nil
}

// Open открывает обычный файл директории для чтения.
// Возвращает ErrNotFound, если имени нет, это каталог или имя
// выходит за пределы директории. Вызывающий код обязан закрыть файл.
func (fs *FileStore) Open(name string) (*os.File, os.FileInfo, error) {
	if !validName(name) {
		return nil, nil, ErrNotFound
	}

	f, err := os.Open(fs.FullPath(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("ошибка открытия файла %s: %w", name, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("ошибка stat %s: %w", name, err)
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, nil, ErrNotFound
	}

	return f, info, nil
}

// ComputeChecksum вычисляет MD5 содержимого файла (hex, нижний регистр).
// Возвращает также число прочитанных байт.
func (fs *FileStore) ComputeChecksum(name string) (string, int64, error) {
	f, _, err := fs.Open(name)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	hasher := md5.New() //nolint:gosec
	n, err := io.Copy(hasher, f)
	if err != nil {
		return "", 0, fmt.Errorf("ошибка вычисления checksum %s: %w", name, err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), n, nil
}

// WriteFile атомарно записывает файл name: write пишет содержимое во
// временный файл той же директории, затем fsync и rename поверх
// существующего файла. При ошибке временный файл удаляется.
func (fs *FileStore) WriteFile(name string, write func(w io.Writer) error) error {
	if !validName(name) {
		return fmt.Errorf("недопустимое имя файла: %q", name)
	}

	fullPath := fs.FullPath(name)
	tmpPath := filepath.Join(fs.dir, "."+name+"."+uuid.New().String()[:8]+".tmp")

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return fmt.Errorf("ошибка создания временного файла: %w", err)
	}

	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка записи данных: %w", err)
	}

	// fsync для гарантии записи на диск
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка fsync: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	return nil
}

// validName проверяет, что имя указывает на файл непосредственно в директории.
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}
