package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/locvowork/employee_proxy/internal/domain"
	"github.com/locvowork/employee_proxy/internal/logger"
)

const topEarnersLimit = 10

// EmployeeService implements the employee operations on top of the upstream
// repository. It keeps no state between calls.
type EmployeeService struct {
	repo domain.EmployeeRepository
}

// NewEmployeeService creates a new EmployeeService instance
func NewEmployeeService(repo domain.EmployeeRepository) *EmployeeService {
	return &EmployeeService{repo: repo}
}

// ListAll returns every employee in upstream order.
func (s *EmployeeService) ListAll(ctx context.Context) ([]domain.Employee, error) {
	logger.InfoLog(ctx, "Fetching all employees from upstream")
	return s.repo.FetchAll(ctx)
}

// SearchByName returns the employees whose name contains query, ignoring case.
func (s *EmployeeService) SearchByName(ctx context.Context, query string) ([]domain.Employee, error) {
	logger.InfoLog(ctx, "Searching for employees with name containing: %s", query)
	all, err := s.repo.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return filterByName(all, query), nil
}

// GetByID returns a single employee. A missing id yields *domain.NotFoundError.
func (s *EmployeeService) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	logger.InfoLog(ctx, "Fetching employee with ID: %s", id)
	return s.repo.FetchOne(ctx, id)
}

// HighestSalary returns the maximum salary, or 0 when there are no employees.
func (s *EmployeeService) HighestSalary(ctx context.Context) (int, error) {
	logger.InfoLog(ctx, "Calculating highest salary of all employees")
	all, err := s.repo.FetchAll(ctx)
	if err != nil {
		return 0, err
	}
	return highestSalary(all), nil
}

// TopTenEarners returns the names of the ten best paid employees, highest
// first. Equal salaries keep their upstream order.
func (s *EmployeeService) TopTenEarners(ctx context.Context) ([]string, error) {
	logger.InfoLog(ctx, "Fetching top %d highest earning employee names", topEarnersLimit)
	all, err := s.repo.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return topEarners(all, topEarnersLimit), nil
}

// Create validates in and forwards it to the upstream.
func (s *EmployeeService) Create(ctx context.Context, in domain.EmployeeCreateInput) (*domain.Employee, error) {
	if err := domain.NewValidationError(in); err != nil {
		return nil, err
	}
	logger.InfoLog(ctx, "Creating a new employee with name: %s", in.Name)
	return s.repo.Create(ctx, in)
}

// DeleteByID resolves id to a name and deletes by that name, returning it.
// The upstream deletes by name, so when two employees share a name the
// upstream decides which record goes.
func (s *EmployeeService) DeleteByID(ctx context.Context, id string) (string, error) {
	logger.InfoLog(ctx, "Attempting to delete employee with ID: %s", id)
	emp, err := s.repo.FetchOne(ctx, id)
	if err != nil {
		return "", err
	}
	if err := s.repo.DeleteByName(ctx, emp.Name); err != nil {
		return "", fmt.Errorf("delete employee %s: %w", id, err)
	}
	logger.InfoLog(ctx, "Successfully deleted employee '%s' with ID: %s", emp.Name, id)
	return emp.Name, nil
}

func filterByName(employees []domain.Employee, query string) []domain.Employee {
	needle := strings.ToLower(query)
	matches := make([]domain.Employee, 0, len(employees))
	for _, e := range employees {
		if strings.Contains(strings.ToLower(e.Name), needle) {
			matches = append(matches, e)
		}
	}
	return matches
}

func highestSalary(employees []domain.Employee) int {
	max := 0
	for _, e := range employees {
		if e.Salary > max {
			max = e.Salary
		}
	}
	return max
}

func topEarners(employees []domain.Employee, limit int) []string {
	sorted := make([]domain.Employee, len(employees))
	copy(sorted, employees)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Salary > sorted[j].Salary
	})

	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	names := make([]string, 0, len(sorted))
	for _, e := range sorted {
		names = append(names, e.Name)
	}
	return names
}
