package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/locvowork/employee_proxy/internal/domain"
	"github.com/locvowork/employee_proxy/internal/logger"
	"golang.org/x/time/rate"
)

// Upstream operation names, used in errors, logs and metrics.
const (
	OpFetchAll     = "fetch_all"
	OpFetchOne     = "fetch_one"
	OpCreate       = "create"
	OpDeleteByName = "delete_by_name"
)

const maxErrorBodyLen = 512

var errMissingData = errors.New("response envelope has no data")

// CallObserver is notified after every upstream round trip. status is 0 when
// no HTTP response was received.
type CallObserver interface {
	ObserveUpstreamCall(operation string, status int, duration time.Duration)
}

// Option configures the upstream employee repository.
type Option func(*employeeAPIRepository)

// WithRateLimit caps outbound calls to rps requests per second. A
// non-positive rps leaves calls unthrottled.
func WithRateLimit(rps float64, burst int) Option {
	return func(r *employeeAPIRepository) {
		if rps <= 0 {
			return
		}
		if burst < 1 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithObserver registers an observer for upstream calls.
func WithObserver(o CallObserver) Option {
	return func(r *employeeAPIRepository) {
		r.observer = o
	}
}

type employeeAPIRepository struct {
	baseURL  string
	client   *http.Client
	limiter  *rate.Limiter
	observer CallObserver
}

// NewEmployeeAPIRepository creates an EmployeeRepository backed by the
// upstream employee API at baseURL. Each operation makes exactly one attempt.
func NewEmployeeAPIRepository(baseURL string, client *http.Client, opts ...Option) domain.EmployeeRepository {
	if client == nil {
		client = http.DefaultClient
	}
	r := &employeeAPIRepository{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *employeeAPIRepository) FetchAll(ctx context.Context) ([]domain.Employee, error) {
	body, err := r.call(ctx, OpFetchAll, http.MethodGet, r.baseURL, nil)
	if err != nil {
		return nil, err
	}
	employees, err := decodeEnvelope[[]domain.Employee](OpFetchAll, body)
	if err != nil {
		return nil, err
	}
	logger.DebugLog(ctx, "Fetched %d employees from upstream", len(employees))
	return employees, nil
}

func (r *employeeAPIRepository) FetchOne(ctx context.Context, id string) (*domain.Employee, error) {
	body, err := r.call(ctx, OpFetchOne, http.MethodGet, r.resourceURL(id), nil)
	if err != nil {
		var upErr *domain.UpstreamError
		if errors.As(err, &upErr) && upErr.StatusCode == http.StatusNotFound {
			logger.WarnLog(ctx, "Employee not found upstream with id: %s", id)
			return nil, &domain.NotFoundError{Resource: "employee", ID: id}
		}
		return nil, err
	}
	emp, err := decodeEnvelope[domain.Employee](OpFetchOne, body)
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

func (r *employeeAPIRepository) Create(ctx context.Context, in domain.EmployeeCreateInput) (*domain.Employee, error) {
	body, err := r.call(ctx, OpCreate, http.MethodPost, r.baseURL, in)
	if err != nil {
		return nil, err
	}
	emp, err := decodeEnvelope[domain.Employee](OpCreate, body)
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

func (r *employeeAPIRepository) DeleteByName(ctx context.Context, name string) error {
	body, err := r.call(ctx, OpDeleteByName, http.MethodDelete, r.resourceURL(name), domain.DeleteEmployeeInput{Name: name})
	if err != nil {
		return err
	}

	// Some upstreams answer {"data": false} instead of an error status when
	// nothing matched. Anything that is not a JSON envelope is ignored.
	var env domain.Envelope[*bool]
	if json.Unmarshal(body, &env) == nil && env.Data != nil && !*env.Data {
		return &domain.UpstreamError{Op: OpDeleteByName, Err: fmt.Errorf("upstream did not delete %q", name)}
	}
	return nil
}

func (r *employeeAPIRepository) resourceURL(key string) string {
	return r.baseURL + "/" + url.PathEscape(key)
}

// call performs one round trip and returns the body of a 2xx response.
// Every failure is returned as a *domain.UpstreamError.
func (r *employeeAPIRepository) call(ctx context.Context, op, method, endpoint string, payload interface{}) ([]byte, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, &domain.UpstreamError{Op: op, Err: fmt.Errorf("rate limiter: %w", err)}
		}
	}

	start := time.Now()
	status, body, err := r.roundTrip(ctx, method, endpoint, payload)
	if r.observer != nil {
		r.observer.ObserveUpstreamCall(op, status, time.Since(start))
	}
	if err != nil {
		logger.ErrorLog(ctx, "Upstream %s %s failed", err, method, endpoint)
		return nil, &domain.UpstreamError{Op: op, StatusCode: status, Err: err}
	}

	logger.DebugLog(ctx, "Upstream %s %s -> %d in %s", method, endpoint, status, time.Since(start))
	if status < 200 || status > 299 {
		return nil, &domain.UpstreamError{Op: op, StatusCode: status, Body: snippet(body, maxErrorBodyLen)}
	}
	return body, nil
}

func (r *employeeAPIRepository) roundTrip(ctx context.Context, method, endpoint string, payload interface{}) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	// Always drain the body so the connection can be reused.
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// decodeEnvelope unwraps the data field of an upstream envelope into T.
func decodeEnvelope[T any](op string, body []byte) (T, error) {
	var zero T

	var env domain.Envelope[json.RawMessage]
	if err := json.Unmarshal(body, &env); err != nil {
		return zero, &domain.UpstreamError{Op: op, Err: fmt.Errorf("decode envelope: %w body=%s", err, snippet(body, maxErrorBodyLen))}
	}
	raw := bytes.TrimSpace(env.Data)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return zero, &domain.UpstreamError{Op: op, Err: errMissingData}
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, &domain.UpstreamError{Op: op, Err: fmt.Errorf("decode data: %w", err)}
	}
	return out, nil
}

func snippet(b []byte, max int) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
