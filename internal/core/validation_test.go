// internal/core/validation_test.go
package core

import (
	"strings"
	"testing"
)

func TestIsValidIdentifier(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		want    bool
		comment string
	}{
		{"valid simple", "my_table", true, ""},
		{"valid with numbers", "table_123", true, ""},
		{"valid uppercase", "MY_TABLE", true, ""},
		{"valid underscore start", "_table", true, ""},
		{"valid underscore end", "table_", true, ""},
		{"valid number start", "123table", true, "databases/tables may start with a digit"},
		{"valid short", "a", true, ""},
		{"valid long (64 chars)", strings.Repeat("a", 64), true, ""},
		{"invalid empty", "", false, "empty string"},
		{"invalid space", "my table", false, "contains space"},
		{"invalid hyphen", "my-table", false, "contains hyphen"},
		{"invalid special char", "table$", false, "contains dollar sign"},
		{"invalid quote", `ta"ble`, false, "contains double quote"},
		{"invalid semicolon", "t;drop", false, "contains semicolon"},
		{"invalid path separator", "table/name", false, "contains path separator"},
		{"invalid too long", strings.Repeat("a", 65), false, "exceeds 64 chars"},
		{"invalid reserved word", "select", false, "reserved"},
		{"invalid reserved word upper", "DROP", false, "reserved, case-insensitive"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := IsValidIdentifier(tc.input)
			if got != tc.want {
				t.Errorf("IsValidIdentifier(%q) = %v; want %v. %s", tc.input, got, tc.want, tc.comment)
			}
		})
	}
}

func TestIsValidColumnName(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		want    bool
		comment string
	}{
		{"valid simple", "email", true, ""},
		{"valid underscore start", "_hidden", true, ""},
		{"valid trailing digits", "addr2", true, ""},
		{"invalid digit start", "2fast", false, "columns must not start with a digit"},
		{"invalid empty", "", false, "empty string"},
		{"invalid hyphen", "first-name", false, "contains hyphen"},
		{"invalid reserved", "where", false, "reserved"},
		{"invalid too long", strings.Repeat("c", 65), false, "exceeds 64 chars"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := IsValidColumnName(tc.input)
			if got != tc.want {
				t.Errorf("IsValidColumnName(%q) = %v; want %v. %s", tc.input, got, tc.want, tc.comment)
			}
		})
	}
}

func TestQuoteIdentifier(t *testing.T) {
	testCases := []struct {
		input string
		want  string
	}{
		{"orders", `"orders"`},
		{"MY_Table", `"MY_Table"`},
		{`odd"name`, `"odd""name"`},
	}

	for _, tc := range testCases {
		if got := QuoteIdentifier(tc.input); got != tc.want {
			t.Errorf("QuoteIdentifier(%q) = %s; want %s", tc.input, got, tc.want)
		}
	}
}

func TestNormalizeAndValidateType(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		wantType string
		wantOk   bool
		comment  string
	}{
		{"valid TEXT lower", "text", "TEXT", true, ""},
		{"valid TEXT upper", "TEXT", "TEXT", true, ""},
		{"valid TEXT mixed", "TeXt", "TEXT", true, ""},
		{"valid INT alias", "int", "INTEGER", true, "alias normalizes"},
		{"valid SERIAL", "serial", "SERIAL", true, ""},
		{"valid NUMERIC", "numeric", "NUMERIC", true, ""},
		{"valid DECIMAL alias", "decimal", "NUMERIC", true, ""},
		{"valid BOOL alias", "bool", "BOOLEAN", true, ""},
		{"valid double precision", "double precision", "DOUBLE PRECISION", true, ""},
		{"valid varchar with length", "varchar(255)", "VARCHAR(255)", true, ""},
		{"valid numeric with scale", "numeric(10,2)", "NUMERIC(10,2)", true, ""},
		{"invalid type", "GEOMETRY", "", false, "unsupported type"},
		{"invalid empty", "", "", false, "empty string"},
		{"invalid injection", "TEXT; DROP TABLE x", "", false, "contains statement separator"},
		{"invalid parameterized text", "TEXT(10)", "", false, "TEXT takes no parameters"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gotType, gotOk := NormalizeAndValidateType(tc.input)
			if gotOk != tc.wantOk {
				t.Errorf("NormalizeAndValidateType(%q): gotOk = %v; wantOk %v. %s", tc.input, gotOk, tc.wantOk, tc.comment)
			}
			if gotType != tc.wantType {
				t.Errorf("NormalizeAndValidateType(%q): gotType = %q; wantType %q. %s", tc.input, gotType, tc.wantType, tc.comment)
			}
		})
	}
}
