package convert

import (
	"context"
	"errors"
	"io"
	"sort"
	"strconv"

	"github.com/maxmind/mmdbwriter/mmdbtype"
)

// Колонки файлов локаций Country (первые 7) и City (все 14).
const (
	locGeonameID = iota
	locLocaleCode
	locContinentCode
	locContinentName
	locCountryISO
	locCountryName
	locCountryInEU // в файлах Country — последняя колонка
)

const (
	locSubdivision1ISO = iota + 6
	locSubdivision1Name
	locSubdivision2ISO
	locSubdivision2Name
	locCityName
	locMetroCode
	locTimeZone
	locCityInEU
)

const (
	countryLocationFields = 7
	cityLocationFields    = 14
)

// continentIDs — фиксированные GeoNames id континентов.
var continentIDs = map[string]uint32{
	"AF": 6255146,
	"AN": 6255152,
	"AS": 6255147,
	"EU": 6255148,
	"NA": 6255149,
	"OC": 6255151,
	"SA": 6255150,
}

type subdivision struct {
	iso   string
	names mmdbtype.Map
}

// location — данные одной строки geoname_id, слитые по всем локалям.
type location struct {
	continentCode  string
	continentNames mmdbtype.Map
	countryISO     string
	countryNames   mmdbtype.Map
	inEU           bool
	subdivisions   [2]subdivision
	cityNames      mmdbtype.Map
	metroCode      string
	timeZone       string
}

// locationTable — geoname_id → location для одной редакции.
type locationTable struct {
	city    bool
	byID    map[uint32]*location
	locales map[string]struct{}
}

func newLocationTable(city bool) *locationTable {
	return &locationTable{
		city:    city,
		byID:    make(map[uint32]*location),
		locales: make(map[string]struct{}),
	}
}

// load читает один файл локаций. Возвращает число прочитанных строк.
func (t *locationTable) load(ctx context.Context, path string) (int, error) {
	minFields := countryLocationFields
	if t.city {
		minFields = cityLocationFields
	}

	f, err := openCSV(path, minFields)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	for {
		rec, line, err := f.next()
		if errors.Is(err, io.EOF) {
			return count, nil
		}
		if err != nil {
			return count, err
		}
		if count%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return count, err
			}
		}
		count++

		id, err := strconv.ParseUint(rec[locGeonameID], 10, 32)
		if err != nil {
			return count, f.errorf(line, "некорректный geoname_id %q", rec[locGeonameID])
		}

		locale := rec[locLocaleCode]
		t.locales[locale] = struct{}{}

		loc, ok := t.byID[uint32(id)]
		if !ok {
			loc = &location{
				continentCode:  rec[locContinentCode],
				continentNames: mmdbtype.Map{},
				countryISO:     rec[locCountryISO],
				countryNames:   mmdbtype.Map{},
				cityNames:      mmdbtype.Map{},
			}
			loc.subdivisions[0].names = mmdbtype.Map{}
			loc.subdivisions[1].names = mmdbtype.Map{}
			t.byID[uint32(id)] = loc
		}

		addName(loc.continentNames, locale, rec[locContinentName])
		addName(loc.countryNames, locale, rec[locCountryName])

		if !t.city {
			loc.inEU = rec[locCountryInEU] == "1"
			continue
		}

		loc.inEU = rec[locCityInEU] == "1"
		loc.subdivisions[0].iso = rec[locSubdivision1ISO]
		loc.subdivisions[1].iso = rec[locSubdivision2ISO]
		addName(loc.subdivisions[0].names, locale, rec[locSubdivision1Name])
		addName(loc.subdivisions[1].names, locale, rec[locSubdivision2Name])
		addName(loc.cityNames, locale, rec[locCityName])
		loc.metroCode = rec[locMetroCode]
		loc.timeZone = rec[locTimeZone]
	}
}

// get возвращает локацию по значению колонки geoname_id.
// Пустое значение — (0, nil, nil): у части сетей id не указан.
func (t *locationTable) get(raw string) (uint32, *location, error) {
	if raw == "" {
		return 0, nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, nil, err
	}
	return uint32(id), t.byID[uint32(id)], nil
}

// languages — все встреченные коды локалей, отсортированные.
func (t *locationTable) languages() []string {
	out := make([]string, 0, len(t.locales))
	for l := range t.locales {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

func addName(names mmdbtype.Map, locale, name string) {
	if name == "" {
		return
	}
	names[mmdbtype.String(locale)] = mmdbtype.String(name)
}
