package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONB column types. Each one round-trips through encoding/json so sqlx can
// scan them straight into model fields.

// StringList is a JSONB array of strings.
type StringList []string

// Alternatives maps an engine id to the text that engine produced.
type Alternatives map[string]string

// Groups is the list of aligned groups a segment was built from.
type Groups []AlignedGroup

// WordBoxes is the raw output of an engine run.
type WordBoxes []WordBox

func (s StringList) Value() (driver.Value, error)   { return marshalColumn(s, "[]") }
func (s *StringList) Scan(src interface{}) error    { return scanColumn(src, s) }
func (a Alternatives) Value() (driver.Value, error) { return marshalColumn(a, "{}") }
func (a *Alternatives) Scan(src interface{}) error  { return scanColumn(src, a) }
func (g Groups) Value() (driver.Value, error)       { return marshalColumn(g, "[]") }
func (g *Groups) Scan(src interface{}) error        { return scanColumn(src, g) }
func (w WordBoxes) Value() (driver.Value, error)    { return marshalColumn(w, "[]") }
func (w *WordBoxes) Scan(src interface{}) error     { return scanColumn(src, w) }
func (b BBox) Value() (driver.Value, error)         { return marshalColumn(b, "{}") }
func (b *BBox) Scan(src interface{}) error          { return scanColumn(src, b) }

func marshalColumn(v interface{}, empty string) (driver.Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(data) == "null" {
		return empty, nil
	}
	return string(data), nil
}

func scanColumn(src, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported column type %T", src)
	}
}
