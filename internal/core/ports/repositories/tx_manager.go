package repositories

import "context"

// TxManager runs a function as one unit of work: every store call made with
// the context it passes to fn joins the same transaction, and an error from
// fn rolls the whole unit back. Calls are reentrant; WithTx inside an
// active unit of work joins it instead of opening a nested one.
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
