// internal/core/errors.go
package core

import (
	"errors"
	"fmt"
)

// ErrInvalidIdentifier is returned whenever a database, table or column name
// fails validation. Always a client error, never retried.
var ErrInvalidIdentifier = errors.New("invalid identifier: use only letters, digits and underscores, max length 64")

// ProvisioningFault reports a cross-store consistency failure: the physical
// DDL and the catalog write disagree about what exists. It carries enough
// context for manual reconciliation and is surfaced to clients as a generic
// server error.
type ProvisioningFault struct {
	DatabaseName string
	TableName    string
	Detail       string
	Err          error
}

func (f *ProvisioningFault) Error() string {
	if f.TableName != "" {
		return fmt.Sprintf("provisioning fault on %s.%s: %s: %v", f.DatabaseName, f.TableName, f.Detail, f.Err)
	}
	return fmt.Sprintf("provisioning fault on %s: %s: %v", f.DatabaseName, f.Detail, f.Err)
}

func (f *ProvisioningFault) Unwrap() error { return f.Err }
