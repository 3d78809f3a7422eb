package domain

import "context"

// EmployeeRepository defines access to the upstream employee API.
type EmployeeRepository interface {
	FetchAll(ctx context.Context) ([]Employee, error)
	FetchOne(ctx context.Context, id string) (*Employee, error)
	Create(ctx context.Context, in EmployeeCreateInput) (*Employee, error)
	// DeleteByName removes the record the upstream matches by name.
	// The upstream keys deletion by name, not by id.
	DeleteByName(ctx context.Context, name string) error
}
