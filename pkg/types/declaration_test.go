package types

import (
	"database/sql/driver"
	"testing"
)

// Models embed these as value fields, so the value method set must already
// satisfy driver.Valuer.
var (
	_ driver.Valuer = Declaration{}
	_ driver.Valuer = JSONMap{}
)

func TestDeclarationValueScanRoundTrip(t *testing.T) {
	src := Declaration{"firstNames": "Jane", "familyName": "Mwangi"}

	raw, err := src.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}

	var out Declaration
	if err := out.Scan(raw); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if out.StringField("firstNames") != "Jane" {
		t.Fatalf("expected Jane, got %q", out.StringField("firstNames"))
	}
	if out.StringField("familyName") != "Mwangi" {
		t.Fatalf("expected Mwangi, got %q", out.StringField("familyName"))
	}
}

func TestDeclarationNilValue(t *testing.T) {
	var d Declaration
	raw, err := d.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	if raw != nil {
		t.Fatalf("expected nil driver value, got %v", raw)
	}
}

func TestJSONMapScanNil(t *testing.T) {
	m := JSONMap{"stale": true}
	if err := m.Scan(nil); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if m != nil {
		t.Fatalf("expected nil map, got %v", m)
	}
}
