package employees

import "context"

type StoreAPI interface {
	List(ctx context.Context) ([]Employee, error)
	Get(ctx context.Context, id int64) (Employee, error)
	Count(ctx context.Context) (int, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, emp Employee) (int64, error)
}
