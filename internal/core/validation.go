// internal/core/validation.go
package core

import (
	"regexp"
	"strings"
)

// Regular expression for valid database/table names (alphanumeric + underscore)
var nameValidationRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// Column names additionally must not start with a digit
var columnValidationRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Parameterized types like VARCHAR(255) or NUMERIC(10,2)
var parameterizedTypeRegex = regexp.MustCompile(`^(VARCHAR|CHAR|NUMERIC|DECIMAL)\(\s*\d+\s*(,\s*\d+\s*)?\)$`)

// Reserved words rejected as identifiers. Not the full SQL keyword list,
// just the ones that would make generated DDL/DML ambiguous.
var reservedIdentifiers = map[string]bool{
	"select": true, "insert": true, "update": true, "delete": true,
	"table": true, "where": true, "from": true, "drop": true,
	"create": true, "alter": true, "index": true, "user": true,
	"order": true, "group": true, "all": true, "and": true, "or": true,
	"not": true, "null": true, "true": true, "false": true,
}

// AllowedColumnTypes maps accepted type spellings to their normalized DDL form.
var AllowedColumnTypes = map[string]string{
	"TEXT":             "TEXT",
	"VARCHAR":          "VARCHAR",
	"CHAR":             "CHAR",
	"INTEGER":          "INTEGER",
	"INT":              "INTEGER",
	"BIGINT":           "BIGINT",
	"SMALLINT":         "SMALLINT",
	"SERIAL":           "SERIAL",
	"BIGSERIAL":        "BIGSERIAL",
	"REAL":             "REAL",
	"DOUBLE PRECISION": "DOUBLE PRECISION",
	"NUMERIC":          "NUMERIC",
	"DECIMAL":          "NUMERIC",
	"BOOLEAN":          "BOOLEAN",
	"BOOL":             "BOOLEAN",
	"TIMESTAMP":        "TIMESTAMP",
	"TIMESTAMPTZ":      "TIMESTAMPTZ",
	"DATE":             "DATE",
	"TIME":             "TIME",
	"UUID":             "UUID",
	"JSON":             "JSON",
	"JSONB":            "JSONB",
	"BYTEA":            "BYTEA",
}

// IsValidIdentifier checks if a string is a valid database or table name.
// Applies basic format and length checks.
func IsValidIdentifier(name string) bool {
	return nameValidationRegex.MatchString(name) &&
		len(name) > 0 && len(name) <= 64 &&
		!reservedIdentifiers[strings.ToLower(name)]
}

// IsValidColumnName checks if a string is a valid column name.
// Stricter than IsValidIdentifier: the first character must not be a digit.
func IsValidColumnName(name string) bool {
	return columnValidationRegex.MatchString(name) &&
		len(name) <= 64 &&
		!reservedIdentifiers[strings.ToLower(name)]
}

// QuoteIdentifier wraps a (pre-validated) identifier in double quotes,
// escaping embedded quotes. Identifiers cannot travel through bind
// parameters, so quoting is the second line of defense after validation.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// NormalizeAndValidateType checks if a string is an allowed column type,
// returning the normalized uppercase version. Parameterized forms like
// VARCHAR(255) and NUMERIC(10,2) are accepted as-is after uppercasing.
func NormalizeAndValidateType(colType string) (string, bool) {
	upperType := strings.ToUpper(strings.TrimSpace(colType))
	if normalized, ok := AllowedColumnTypes[upperType]; ok {
		return normalized, true
	}
	if parameterizedTypeRegex.MatchString(upperType) {
		return upperType, true
	}
	return "", false
}
