package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/locvowork/employee_proxy/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"pgregory.net/rapid"
)

// fakeRepository is an in-memory domain.EmployeeRepository that records calls.
type fakeRepository struct {
	employees []domain.Employee
	err       error
	deleteErr error
	calls     []string
}

func (f *fakeRepository) FetchAll(ctx context.Context) ([]domain.Employee, error) {
	f.calls = append(f.calls, "FetchAll")
	if f.err != nil {
		return nil, f.err
	}
	return f.employees, nil
}

func (f *fakeRepository) FetchOne(ctx context.Context, id string) (*domain.Employee, error) {
	f.calls = append(f.calls, "FetchOne:"+id)
	if f.err != nil {
		return nil, f.err
	}
	for _, e := range f.employees {
		if e.ID == id {
			e := e
			return &e, nil
		}
	}
	return nil, &domain.NotFoundError{Resource: "employee", ID: id}
}

func (f *fakeRepository) Create(ctx context.Context, in domain.EmployeeCreateInput) (*domain.Employee, error) {
	f.calls = append(f.calls, "Create:"+in.Name)
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Employee{ID: "generated", Name: in.Name, Salary: *in.Salary, Age: *in.Age, Title: in.Title, Email: in.Email}, nil
}

func (f *fakeRepository) DeleteByName(ctx context.Context, name string) error {
	f.calls = append(f.calls, "DeleteByName:"+name)
	return f.deleteErr
}

func emp(id, name string, salary int) domain.Employee {
	return domain.Employee{ID: id, Name: name, Salary: salary, Age: 30, Title: "Staff", Email: strings.ToLower(id) + "@example.com"}
}

func intPtr(v int) *int { return &v }

var errUpstreamDown = &domain.UpstreamError{Op: "fetch_all", Err: errors.New("connection refused")}

func TestListAll(t *testing.T) {
	repo := &fakeRepository{employees: []domain.Employee{emp("1", "Anna", 100), emp("2", "Bob", 50)}}
	svc := NewEmployeeService(repo)

	got, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, repo.employees, got)
}

func TestSearchByName(t *testing.T) {
	repo := &fakeRepository{employees: []domain.Employee{
		emp("1", "Anna", 100), emp("2", "Ivan", 10), emp("3", "anthony", 20), emp("4", "Bob", 30),
	}}
	svc := NewEmployeeService(repo)

	got, err := svc.SearchByName(context.Background(), "an")
	require.NoError(t, err)
	names := make([]string, 0, len(got))
	for _, e := range got {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"Anna", "Ivan", "anthony"}, names)

	got, err = svc.SearchByName(context.Background(), "zzz")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestGetByID(t *testing.T) {
	repo := &fakeRepository{employees: []domain.Employee{emp("1", "Anna", 100)}}
	svc := NewEmployeeService(repo)

	got, err := svc.GetByID(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "Anna", got.Name)

	_, err = svc.GetByID(context.Background(), "404")
	assert.True(t, domain.IsNotFound(err))
	assert.False(t, domain.IsUpstream(err))
}

func TestHighestSalary(t *testing.T) {
	svc := NewEmployeeService(&fakeRepository{})
	got, err := svc.HighestSalary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, got)

	svc = NewEmployeeService(&fakeRepository{employees: []domain.Employee{emp("1", "a", 100), emp("2", "b", 50), emp("3", "c", 200)}})
	got, err = svc.HighestSalary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 200, got)
}

func TestTopTenEarners(t *testing.T) {
	salaries := []int{10, 90, 40, 90, 70, 5, 60, 30, 80, 20, 100, 50, 15, 65, 35}
	employees := make([]domain.Employee, 0, len(salaries))
	for i, s := range salaries {
		employees = append(employees, emp(fmt.Sprint(i), fmt.Sprintf("e%02d", i), s))
	}
	svc := NewEmployeeService(&fakeRepository{employees: employees})

	got, err := svc.TopTenEarners(context.Background())
	require.NoError(t, err)
	// e01 and e03 tie at 90 and keep upstream order.
	assert.Equal(t, []string{"e10", "e01", "e03", "e08", "e04", "e13", "e06", "e11", "e02", "e14"}, got)

	short := NewEmployeeService(&fakeRepository{employees: employees[:3]})
	got, err = short.TopTenEarners(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"e01", "e02", "e00"}, got)
}

func TestTopTenEarners_DoesNotReorderUpstreamSlice(t *testing.T) {
	employees := []domain.Employee{emp("1", "low", 1), emp("2", "high", 2)}
	svc := NewEmployeeService(&fakeRepository{employees: employees})

	_, err := svc.TopTenEarners(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "low", employees[0].Name)
}

func TestCreate(t *testing.T) {
	repo := &fakeRepository{}
	svc := NewEmployeeService(repo)

	in := domain.EmployeeCreateInput{Name: "Jane", Salary: intPtr(5000), Age: intPtr(40), Title: "CTO", Email: "jane@example.com"}
	got, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "Jane", got.Name)
	assert.Equal(t, 5000, got.Salary)
	assert.Equal(t, 40, got.Age)
	assert.Equal(t, "CTO", got.Title)
	assert.Equal(t, "jane@example.com", got.Email)
}

func TestCreate_InvalidInputNeverReachesUpstream(t *testing.T) {
	repo := &fakeRepository{}
	svc := NewEmployeeService(repo)

	_, err := svc.Create(context.Background(), domain.EmployeeCreateInput{Name: "Jane", Salary: intPtr(0), Age: intPtr(15), Title: "CTO", Email: "bad"})
	require.Error(t, err)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.HasField("salary"))
	assert.True(t, verr.HasField("age"))
	assert.True(t, verr.HasField("email"))
	assert.Empty(t, repo.calls)
}

func TestDeleteByID(t *testing.T) {
	repo := &fakeRepository{employees: []domain.Employee{emp("7", "Anna", 100)}}
	svc := NewEmployeeService(repo)

	name, err := svc.DeleteByID(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "Anna", name)
	assert.Equal(t, []string{"FetchOne:7", "DeleteByName:Anna"}, repo.calls)
}

func TestDeleteByID_MissingIDNeverDeletes(t *testing.T) {
	repo := &fakeRepository{}
	svc := NewEmployeeService(repo)

	_, err := svc.DeleteByID(context.Background(), "7")
	assert.True(t, domain.IsNotFound(err))
	assert.Equal(t, []string{"FetchOne:7"}, repo.calls)
}

func TestDeleteByID_DeleteFailure(t *testing.T) {
	repo := &fakeRepository{
		employees: []domain.Employee{emp("7", "Anna", 100)},
		deleteErr: &domain.UpstreamError{Op: "delete_by_name", StatusCode: 500},
	}
	svc := NewEmployeeService(repo)

	_, err := svc.DeleteByID(context.Background(), "7")
	assert.True(t, domain.IsUpstream(err))
}

func TestUpstreamFailureSurfacesEverywhere(t *testing.T) {
	svc := NewEmployeeService(&fakeRepository{err: errUpstreamDown})
	ctx := context.Background()

	_, err := svc.ListAll(ctx)
	assert.True(t, domain.IsUpstream(err))
	_, err = svc.SearchByName(ctx, "a")
	assert.True(t, domain.IsUpstream(err))
	_, err = svc.GetByID(ctx, "1")
	assert.True(t, domain.IsUpstream(err))
	_, err = svc.HighestSalary(ctx)
	assert.True(t, domain.IsUpstream(err))
	_, err = svc.TopTenEarners(ctx)
	assert.True(t, domain.IsUpstream(err))
	_, err = svc.Create(ctx, domain.EmployeeCreateInput{Name: "a", Salary: intPtr(1), Age: intPtr(20), Title: "t", Email: "a@example.com"})
	assert.True(t, domain.IsUpstream(err))
	_, err = svc.DeleteByID(ctx, "1")
	assert.True(t, domain.IsUpstream(err))
	assert.True(t, domain.IsUpstream(svc.Export(ctx, &bytes.Buffer{}, ExportFormatCSV)))
}

func genEmployees(t *rapid.T) []domain.Employee {
	n := rapid.IntRange(0, 30).Draw(t, "n")
	employees := make([]domain.Employee, n)
	for i := range employees {
		employees[i] = emp(fmt.Sprint(i), fmt.Sprintf("emp-%d", i), rapid.IntRange(0, 20).Draw(t, "salary"))
	}
	return employees
}

func TestHighestSalary_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		employees := genEmployees(t)
		got := highestSalary(employees)

		want := 0
		for _, e := range employees {
			if e.Salary > want {
				want = e.Salary
			}
		}
		if got != want {
			t.Fatalf("highestSalary = %d, want %d", got, want)
		}
	})
}

func TestTopEarners_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		employees := genEmployees(t)
		got := topEarners(employees, topEarnersLimit)

		wantLen := len(employees)
		if wantLen > topEarnersLimit {
			wantLen = topEarnersLimit
		}
		if len(got) != wantLen {
			t.Fatalf("got %d names, want %d", len(got), wantLen)
		}

		index := make(map[string]int, len(employees))
		for i, e := range employees {
			index[e.Name] = i
		}
		for i := 1; i < len(got); i++ {
			prev, cur := employees[index[got[i-1]]], employees[index[got[i]]]
			if prev.Salary < cur.Salary {
				t.Fatalf("not descending at %d: %d < %d", i, prev.Salary, cur.Salary)
			}
			if prev.Salary == cur.Salary && index[got[i-1]] > index[got[i]] {
				t.Fatalf("tie at %d not in upstream order", i)
			}
		}

		// No excluded employee earns more than the last one included.
		if len(got) > 0 {
			floor := employees[index[got[len(got)-1]]].Salary
			included := make(map[string]bool, len(got))
			for _, n := range got {
				included[n] = true
			}
			for _, e := range employees {
				if !included[e.Name] && e.Salary > floor {
					t.Fatalf("%s earns %d but was excluded (floor %d)", e.Name, e.Salary, floor)
				}
			}
		}
	})
}

func TestFilterByName_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		employees := genEmployees(t)
		query := rapid.StringMatching(`[a-zA-Z0-9-]{0,3}`).Draw(t, "query")

		got := filterByName(employees, query)
		for _, e := range got {
			if !strings.Contains(strings.ToLower(e.Name), strings.ToLower(query)) {
				t.Fatalf("%q does not contain %q", e.Name, query)
			}
		}
		want := 0
		for _, e := range employees {
			if strings.Contains(strings.ToLower(e.Name), strings.ToLower(query)) {
				want++
			}
		}
		if len(got) != want {
			t.Fatalf("got %d matches, want %d", len(got), want)
		}
		if !sort.SliceIsSorted(got, func(i, j int) bool {
			var a, b int
			fmt.Sscan(got[i].ID, &a)
			fmt.Sscan(got[j].ID, &b)
			return a < b
		}) {
			t.Fatalf("matches not in upstream order")
		}
	})
}

func TestExport(t *testing.T) {
	repo := &fakeRepository{employees: []domain.Employee{emp("1", "Anna", 100), emp("2", "Bob", 50)}}
	svc := NewEmployeeService(repo)

	var csvBuf bytes.Buffer
	require.NoError(t, svc.Export(context.Background(), &csvBuf, ExportFormatCSV))
	assert.Equal(t,
		"ID,Name,Salary,Age,Title,Email\n1,Anna,100,30,Staff,1@example.com\n2,Bob,50,30,Staff,2@example.com\n",
		csvBuf.String())

	var xlsxBuf bytes.Buffer
	require.NoError(t, svc.Export(context.Background(), &xlsxBuf, ExportFormatXLSX))
	f, err := excelize.OpenReader(&xlsxBuf)
	require.NoError(t, err)
	defer f.Close()

	title, _ := f.GetCellValue("Employees", "A1")
	assert.Equal(t, "Employee Directory", title)
	name, _ := f.GetCellValue("Employees", "B3")
	assert.Equal(t, "Anna", name)
	salary, _ := f.GetCellValue("Employees", "C4")
	assert.Equal(t, "50", salary)
}

func TestParseExportFormat(t *testing.T) {
	for in, want := range map[string]ExportFormat{"": ExportFormatXLSX, "XLSX": ExportFormatXLSX, " csv ": ExportFormatCSV} {
		got, err := ParseExportFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseExportFormat("pdf")
	assert.Error(t, err)
	assert.Equal(t, "text/csv", ExportFormatCSV.ContentType())
}
