// Пакет model — доменные модели GeoIP Mirror.
package model

import (
	"time"
)

// DatabaseRecord — описание одного архива базы, доступного для скачивания.
// Формируется заново на каждый запрос листинга, идентичность — только имя файла.
type DatabaseRecord struct {
	// Name — имя архива в выходной директории (вместе с расширением)
	Name string `json:"name"`

	// URL — абсолютный адрес скачивания: <base url>files/<name>
	URL string `json:"url"`

	// Checksum — MD5 содержимого архива в нижнем регистре (hex)
	Checksum string `json:"md5_hash"`

	// Age — зарезервировано, всегда nil
	Age *string `json:"age"`

	// Provider — зарезервировано, всегда nil
	Provider *string `json:"provider"`

	// UpdatedAt — Unix-время формирования записи (не mtime файла)
	UpdatedAt int64 `json:"updated"`
}

// NewDatabaseRecord создаёт запись с UpdatedAt = now.
func NewDatabaseRecord(name, url, checksum string, now time.Time) DatabaseRecord {
	return DatabaseRecord{
		Name:      name,
		URL:       url,
		Checksum:  checksum,
		UpdatedAt: now.Unix(),
	}
}
