package domain

// Employee mirrors the record served by the upstream employee API.
// Field names follow the upstream JSON so records pass through untouched.
type Employee struct {
	ID     string `json:"id"`
	Name   string `json:"employee_name"`
	Salary int    `json:"employee_salary"`
	Age    int    `json:"employee_age"`
	Title  string `json:"employee_title"`
	Email  string `json:"employee_email"`
}

// EmployeeCreateInput is the payload accepted on POST /employees and
// forwarded as-is to the upstream.
//
// Salary and Age are pointers so that a missing value can be told apart
// from an explicit zero.
type EmployeeCreateInput struct {
	Name   string `json:"name" validate:"notblank"`
	Salary *int   `json:"salary" validate:"required,min=1"`
	Age    *int   `json:"age" validate:"required,min=16,max=75"`
	Title  string `json:"title" validate:"notblank"`
	Email  string `json:"email" validate:"notblank,email"`
}

// DeleteEmployeeInput is the body sent with an upstream delete.
type DeleteEmployeeInput struct {
	Name string `json:"name"`
}

// Envelope wraps every upstream response.
type Envelope[T any] struct {
	Data   T      `json:"data"`
	Status string `json:"status"`
}
