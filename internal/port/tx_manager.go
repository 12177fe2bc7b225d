package port

import "context"

type TxManager interface {
	// WithinTx runs fn inside one transaction: every store and gateway call
	// made with the derived context joins it, and all writes commit or roll
	// back together. Nested calls join the outer transaction.
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
