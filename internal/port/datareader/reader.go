// Package datareader defines the port for the external data preview source.
package datareader

import "context"

// Record is one preview row. The broker passes rows through unchanged, so the
// shape is whatever the upstream product serves.
type Record map[string]any

// Reader returns preview records for a product. Authorization is NOT this
// port's job: the broker gates every call with its own fresh check.
type Reader interface {
	Read(ctx context.Context, productName string) ([]Record, error)
}
