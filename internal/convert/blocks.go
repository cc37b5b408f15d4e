package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"

	"github.com/maxmind/mmdbwriter"
	"github.com/maxmind/mmdbwriter/inserter"
	"github.com/maxmind/mmdbwriter/mmdbtype"
)

// Колонки файлов блоков. ASN: network, asn, organization.
// Country: первые 6, City: все 10.
const (
	blkNetwork = iota
	blkGeonameID
	blkRegisteredCountry
	blkRepresentedCountry
	blkAnonymousProxy
	blkSatelliteProvider
	blkPostalCode
	blkLatitude
	blkLongitude
	blkAccuracyRadius
)

const (
	asnBlockFields     = 3
	countryBlockFields = 6
	cityBlockFields    = 10
)

// blockInserter превращает строку блока в запись mmdb для своей редакции.
type blockInserter struct {
	edition   string
	minFields int
	locations *locationTable
	value     func(b *blockInserter, rec []string) (mmdbtype.Map, error)
}

func newBlockInserter(edition string) (*blockInserter, error) {
	switch edition {
	case EditionASN:
		return &blockInserter{edition: edition, minFields: asnBlockFields, value: asnValue}, nil
	case EditionCountry:
		return &blockInserter{
			edition:   edition,
			minFields: countryBlockFields,
			locations: newLocationTable(false),
			value:     countryValue,
		}, nil
	case EditionCity:
		return &blockInserter{
			edition:   edition,
			minFields: cityBlockFields,
			locations: newLocationTable(true),
			value:     cityValue,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEdition, edition)
	}
}

func (b *blockInserter) needsLocations() bool {
	return b.locations != nil
}

func (b *blockInserter) languages() []string {
	if b.locations == nil {
		return nil
	}
	return b.locations.languages()
}

// readBlocks вставляет все сети файла в дерево через TopLevelMergeWith.
// Возвращает число прочитанных строк.
func readBlocks(ctx context.Context, path string, tree *mmdbwriter.Tree, b *blockInserter) (int, error) {
	f, err := openCSV(path, b.minFields)
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

		_, network, err := net.ParseCIDR(rec[blkNetwork])
		if err != nil {
			return count, f.errorf(line, "некорректная сеть %q", rec[blkNetwork])
		}

		value, err := b.value(b, rec)
		if err != nil {
			return count, f.errorf(line, "%v", err)
		}

		if err := tree.InsertFunc(network, inserter.TopLevelMergeWith(value)); err != nil {
			return count, f.errorf(line, "ошибка вставки сети %s: %v", network, err)
		}
	}
}

func asnValue(_ *blockInserter, rec []string) (mmdbtype.Map, error) {
	asn, err := strconv.ParseUint(rec[1], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("некорректный номер AS %q", rec[1])
	}
	value := mmdbtype.Map{
		"autonomous_system_number": mmdbtype.Uint32(asn),
	}
	if rec[2] != "" {
		value["autonomous_system_organization"] = mmdbtype.String(rec[2])
	}
	return value, nil
}

func countryValue(b *blockInserter, rec []string) (mmdbtype.Map, error) {
	value := mmdbtype.Map{}

	id, loc, err := b.locations.get(rec[blkGeonameID])
	if err != nil {
		return nil, fmt.Errorf("некорректный geoname_id %q", rec[blkGeonameID])
	}
	if id != 0 {
		if loc != nil && loc.continentCode != "" {
			value["continent"] = continentSection(loc)
		}
		value["country"] = countrySection(id, loc)
	}

	for _, c := range []struct {
		col int
		key mmdbtype.String
	}{
		{blkRegisteredCountry, "registered_country"},
		{blkRepresentedCountry, "represented_country"},
	} {
		id, loc, err := b.locations.get(rec[c.col])
		if err != nil {
			return nil, fmt.Errorf("некорректный %s %q", c.key, rec[c.col])
		}
		if id != 0 {
			value[c.key] = countrySection(id, loc)
		}
	}

	traits := mmdbtype.Map{}
	if rec[blkAnonymousProxy] == "1" {
		traits["is_anonymous_proxy"] = mmdbtype.Bool(true)
	}
	if rec[blkSatelliteProvider] == "1" {
		traits["is_satellite_provider"] = mmdbtype.Bool(true)
	}
	if len(traits) > 0 {
		value["traits"] = traits
	}

	return value, nil
}

func cityValue(b *blockInserter, rec []string) (mmdbtype.Map, error) {
	value, err := countryValue(b, rec)
	if err != nil {
		return nil, err
	}

	id, loc, _ := b.locations.get(rec[blkGeonameID])
	if loc != nil {
		if len(loc.cityNames) > 0 {
			value["city"] = mmdbtype.Map{
				"geoname_id": mmdbtype.Uint32(id),
				"names":      loc.cityNames,
			}
		}

		var subs mmdbtype.Slice
		for _, s := range loc.subdivisions {
			if s.iso == "" && len(s.names) == 0 {
				continue
			}
			sub := mmdbtype.Map{}
			if s.iso != "" {
				sub["iso_code"] = mmdbtype.String(s.iso)
			}
			if len(s.names) > 0 {
				sub["names"] = s.names
			}
			subs = append(subs, sub)
		}
		if len(subs) > 0 {
			value["subdivisions"] = subs
		}
	}

	position, err := locationSection(rec, loc)
	if err != nil {
		return nil, err
	}
	if len(position) > 0 {
		value["location"] = position
	}

	if rec[blkPostalCode] != "" {
		value["postal"] = mmdbtype.Map{"code": mmdbtype.String(rec[blkPostalCode])}
	}

	return value, nil
}

// locationSection собирает координаты из строки блока и часовой пояс из локации.
func locationSection(rec []string, loc *location) (mmdbtype.Map, error) {
	section := mmdbtype.Map{}

	for _, c := range []struct {
		col int
		key mmdbtype.String
	}{
		{blkLatitude, "latitude"},
		{blkLongitude, "longitude"},
	} {
		if rec[c.col] == "" {
			continue
		}
		v, err := strconv.ParseFloat(rec[c.col], 64)
		if err != nil {
			return nil, fmt.Errorf("некорректное значение %s %q", c.key, rec[c.col])
		}
		section[c.key] = mmdbtype.Float64(v)
	}

	if raw := rec[blkAccuracyRadius]; raw != "" {
		v, err := strconv.ParseUint(raw, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("некорректный accuracy_radius %q", raw)
		}
		section["accuracy_radius"] = mmdbtype.Uint16(v)
	}

	if loc != nil {
		if loc.timeZone != "" {
			section["time_zone"] = mmdbtype.String(loc.timeZone)
		}
		if v, err := strconv.ParseUint(loc.metroCode, 10, 16); err == nil {
			section["metro_code"] = mmdbtype.Uint16(v)
		}
	}

	return section, nil
}

func continentSection(loc *location) mmdbtype.Map {
	section := mmdbtype.Map{
		"code": mmdbtype.String(loc.continentCode),
	}
	if id, ok := continentIDs[loc.continentCode]; ok {
		section["geoname_id"] = mmdbtype.Uint32(id)
	}
	if len(loc.continentNames) > 0 {
		section["names"] = loc.continentNames
	}
	return section
}

func countrySection(id uint32, loc *location) mmdbtype.Map {
	section := mmdbtype.Map{
		"geoname_id": mmdbtype.Uint32(id),
	}
	if loc == nil {
		return section
	}
	if loc.countryISO != "" {
		section["iso_code"] = mmdbtype.String(loc.countryISO)
	}
	if len(loc.countryNames) > 0 {
		section["names"] = loc.countryNames
	}
	if loc.inEU {
		section["is_in_european_union"] = mmdbtype.Bool(true)
	}
	return section
}
