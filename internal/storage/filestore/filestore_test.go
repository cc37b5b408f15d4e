package filestore

import (
	"bytes"
	"crypto/md5" //nolint:gosec
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// TestNew_CreatesDirectory проверяет создание директории.
func TestNew_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tgz")

	fs, err := New(dir)
	if err != nil {
		t.Fatalf("ошибка создания FileStore: %v", err)
	}

	if fs.Dir() != dir {
		t.Errorf("ожидался путь %s, получен %s", dir, fs.Dir())
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("директория не создана: %v", err)
	}
	if !info.IsDir() {
		t.Fatal("путь не является директорией")
	}

	// Повторное создание поверх существующей директории — не ошибка
	if _, err := New(dir); err != nil {
		t.Errorf("повторный New вернул ошибку: %v", err)
	}
}

// TestListRegular проверяет, что возвращаются только обычные файлы, по имени.
func TestListRegular(t *testing.T) {
	dir := t.TempDir()
	fs, err := New(dir)
	if err != nil {
		t.Fatalf("ошибка создания FileStore: %v", err)
	}

	for _, name := range []string{"b.mmdb", "a.mmdb", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.mmdb"), 0o750); err != nil {
		t.Fatal(err)
	}
	// Битая ссылка пропускается, как и подкаталог
	if err := os.Symlink(filepath.Join(dir, "missing"), filepath.Join(dir, "broken.mmdb")); err != nil {
		t.Fatal(err)
	}
	// Ссылка на обычный файл считается обычным файлом
	if err := os.Symlink(filepath.Join(dir, "a.mmdb"), filepath.Join(dir, "link.mmdb")); err != nil {
		t.Fatal(err)
	}

	names, err := fs.ListRegular()
	if err != nil {
		t.Fatalf("ошибка ListRegular: %v", err)
	}

	want := []string{"a.mmdb", "b.mmdb", "link.mmdb", "notes.txt"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("ожидалось %v, получено %v", want, names)
	}
}

// TestListRegular_MissingDir проверяет ошибку для удалённой директории.
func TestListRegular_MissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "gone")
	fs, err := New(dir)
	if err != nil {
		t.Fatalf("ошибка создания FileStore: %v", err)
	}
	if err := os.Remove(dir); err != nil {
		t.Fatal(err)
	}

	if _, err := fs.ListRegular(); err == nil {
		t.Error("ожидалась ошибка чтения отсутствующей директории")
	}
}

// TestOpen_NotFound проверяет ErrNotFound для отсутствующих и недопустимых имён.
func TestOpen_NotFound(t *testing.T) {
	dir := t.TempDir()
	fs, err := New(dir)
	if err != nil {
		t.Fatalf("ошибка создания FileStore: %v", err)
	}
	if err := os.Mkdir(filepath.Join(dir, "subdir"), 0o750); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"does-not-exist.mmdb", "subdir", "", ".", "..", "../etc/passwd", "a/b"} {
		_, _, err := fs.Open(name)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Open(%q): ожидалась ErrNotFound, получено %v", name, err)
		}
	}
}

// TestComputeChecksum проверяет MD5 содержимого файла.
func TestComputeChecksum(t *testing.T) {
	dir := t.TempDir()
	fs, err := New(dir)
	if err != nil {
		t.Fatalf("ошибка создания FileStore: %v", err)
	}

	content := []byte("ABCDEFGHIJ")
	if err := os.WriteFile(filepath.Join(dir, "GeoLite2-City.mmdb"), content, 0o600); err != nil {
		t.Fatal(err)
	}

	sum, n, err := fs.ComputeChecksum("GeoLite2-City.mmdb")
	if err != nil {
		t.Fatalf("ошибка ComputeChecksum: %v", err)
	}

	expected := md5.Sum(content) //nolint:gosec
	if sum != hex.EncodeToString(expected[:]) {
		t.Errorf("checksum: ожидалось %x, получено %s", expected, sum)
	}
	if n != int64(len(content)) {
		t.Errorf("размер: ожидалось %d, получено %d", len(content), n)
	}
}

// TestWriteFile проверяет атомарную запись с перезаписью.
func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	fs, err := New(dir)
	if err != nil {
		t.Fatalf("ошибка создания FileStore: %v", err)
	}

	for _, payload := range []string{"first", "second"} {
		err := fs.WriteFile("db.mmdb", func(w io.Writer) error {
			_, err := io.Copy(w, strings.NewReader(payload))
			return err
		})
		if err != nil {
			t.Fatalf("ошибка WriteFile: %v", err)
		}

		data, err := os.ReadFile(filepath.Join(dir, "db.mmdb"))
		if err != nil {
			t.Fatalf("ошибка чтения файла: %v", err)
		}
		if !bytes.Equal(data, []byte(payload)) {
			t.Errorf("содержимое: ожидалось %q, получено %q", payload, data)
		}
	}

	// Временных файлов не остаётся
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("ожидался 1 файл в директории, найдено %d", len(entries))
	}
}

// TestWriteFile_ErrorRemovesTemp проверяет удаление временного файла при ошибке.
func TestWriteFile_ErrorRemovesTemp(t *testing.T) {
	dir := t.TempDir()
	fs, err := New(dir)
	if err != nil {
		t.Fatalf("ошибка создания FileStore: %v", err)
	}

	boom := errors.New("boom")
	err = fs.WriteFile("db.mmdb", func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("ожидалась исходная ошибка, получено %v", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("директория должна быть пустой, найдено %d записей", len(entries))
	}
}

// TestWriteFile_InvalidName проверяет отказ для имён с разделителями.
func TestWriteFile_InvalidName(t *testing.T) {
	fs, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("ошибка создания FileStore: %v", err)
	}

	err = fs.WriteFile("../escape.mmdb", func(io.Writer) error { return nil })
	if err == nil {
		t.Error("ожидалась ошибка для имени с разделителем пути")
	}
}
