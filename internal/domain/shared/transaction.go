package shared

import "context"

// TxManager runs a function inside a database transaction. Repositories called
// with the context passed to fn join that transaction; returning an error from
// fn rolls everything back.
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
