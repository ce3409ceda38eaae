package access

import (
	"strconv"
	"strings"
)

const (
	DefaultChapterField = "chapterId"
	DefaultZoneField    = "zoneId"
)

// Source is one place a resource identifier may be read from.
type Source struct {
	Name   string
	Lookup func(field string) (string, bool)
}

// ValuesSource adapts a plain map, e.g. decoded request metadata.
func ValuesSource(name string, values map[string]string) Source {
	return Source{
		Name: name,
		Lookup: func(field string) (string, bool) {
			v, ok := values[field]
			return v, ok
		},
	}
}

// Extractor tries its sources in order; the first non-empty value wins.
type Extractor []Source

// Raw returns the first non-empty value for field and the source it came from.
func (e Extractor) Raw(field string) (value, source string, ok bool) {
	for _, src := range e {
		if src.Lookup == nil {
			continue
		}
		v, found := src.Lookup(field)
		if !found {
			continue
		}
		if v = strings.TrimSpace(v); v != "" {
			return v, src.Name, true
		}
	}
	return "", "", false
}

// ID extracts field as a positive integer identifier. found is false only
// when the field is absent everywhere and optional is set.
func (e Extractor) ID(field string, optional bool) (id int64, found bool, err error) {
	raw, source, ok := e.Raw(field)
	if !ok {
		if optional {
			return 0, false, nil
		}
		return 0, false, BadRequest("%s is required", field)
	}
	id, err = strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false, BadRequest("%s must be a positive integer (from %s)", field, source)
	}
	return id, true, nil
}
