// Package models defines the records persisted by the famlink store and the
// document form they travel in between the store, migrations and backups.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Logical table names. Each one maps to a SQLite table holding
// (key, JSON document) pairs.
const (
	TableUserSettings = "userSettings"
	TableProfiles     = "profiles"
	TableCategories   = "categories"
	TableTranslations = "translations"
)

// Tables lists every logical table in export order.
var Tables = []string{TableProfiles, TableCategories, TableUserSettings, TableTranslations}

// SQLTable returns the SQLite table backing a logical table.
func SQLTable(table string) string {
	if table == TableUserSettings {
		return "user_settings"
	}
	return table
}

// KeyField returns the document field holding the primary key of table.
func KeyField(table string) string {
	if table == TableTranslations {
		return "hash"
	}
	return "id"
}

// Doc is a schemaless record as stored on disk. Numbers are kept as
// json.Number so a decode/encode cycle is lossless.
type Doc map[string]any

// DecodeDoc parses a JSON object into a Doc.
func DecodeDoc(data []byte) (Doc, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var d Doc
	if err := dec.Decode(&d); err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("document is not an object")
	}
	return d, nil
}

// Encode serializes d as JSON. Map keys come out sorted, so equal documents
// encode to equal bytes.
func (d Doc) Encode() ([]byte, error) {
	return json.Marshal(d)
}

// Key returns the string primary key stored under field, or "" when it is
// missing or not a string.
func (d Doc) Key(field string) string {
	switch v := d[field].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// Clone returns a deep copy of d. It fails only when d holds a value JSON
// cannot represent.
func (d Doc) Clone() (Doc, error) {
	b, err := d.Encode()
	if err != nil {
		return nil, fmt.Errorf("clone: %w", err)
	}
	c, err := DecodeDoc(b)
	if err != nil {
		return nil, fmt.Errorf("clone: %w", err)
	}
	return c, nil
}

// StringIDs rewrites numeric "id" fields of a profile or category document,
// and of its nicknames or phrases, as decimal strings. Records written by
// older versions of the app used millisecond timestamps as ids. Documents
// of other tables are left alone.
func StringIDs(table string, d Doc) {
	var nested string
	switch table {
	case TableProfiles:
		nested = "nicknames"
	case TableCategories:
		nested = "phrases"
	default:
		return
	}
	stringID(d)
	list, _ := d[nested].([]any)
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok {
			stringID(obj)
		}
	}
}

func stringID(m map[string]any) {
	switch v := m["id"].(type) {
	case json.Number:
		m["id"] = v.String()
	case float64:
		m["id"] = strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		m["id"] = strconv.Itoa(v)
	case int64:
		m["id"] = strconv.FormatInt(v, 10)
	}
}

// ToDoc converts a typed record into its document form.
func ToDoc(v any) (Doc, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return DecodeDoc(b)
}

// FromDoc fills v (a pointer to a typed record) from d.
func FromDoc(d Doc, v any) error {
	b, err := d.Encode()
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
