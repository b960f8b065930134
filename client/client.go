package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"github.com/goliatone/go-directory-cache/entity"
)

// SessionPayload is the identity+graph payload returned by the session
// check, login, and signup endpoints. The nested arrays are optional on the
// wire and default to empty.
type SessionPayload struct {
	entity.Session
	Patients    []entity.Patient    `json:"patients"`
	Hospitals   []entity.Hospital   `json:"hospitals"`
	Departments []entity.Department `json:"departments"`
}

// Credentials carries a login or signup request body.
type Credentials struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// PatientRequest carries a patient create or update body. The server
// resolves HospitalID and DepartmentID and returns the patient with its
// references embedded by value.
type PatientRequest struct {
	Name         string      `json:"name"`
	DateOfBirth  entity.Date `json:"date_of_birth"`
	HospitalID   int         `json:"hospital_id"`
	DepartmentID int         `json:"department_id"`
}

// HospitalRequest carries a hospital create body.
type HospitalRequest struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
}

// DepartmentRequest carries a department create body.
type DepartmentRequest struct {
	Name string `json:"name"`
}

// Client is a typed HTTP client for the directory service. Authentication
// rides on the server's session cookie, held in the underlying client's
// cookie jar.
type Client struct {
	base *url.URL
	http *http.Client
	logf func(format string, args ...any)
}

// New constructs a Client from the given configuration.
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	hc := cfg.HTTPClient
	if hc == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		hc = &http.Client{Jar: jar, Timeout: cfg.Timeout}
	}
	logf := cfg.Logger
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Client{base: base, http: hc, logf: logf}, nil
}

// CheckSession asks the server whether the current cookie still identifies a
// user, returning the identity+graph payload when it does.
func (c *Client) CheckSession(ctx context.Context) (SessionPayload, error) {
	var out SessionPayload
	err := c.do(ctx, http.MethodGet, "check_session", nil, &out)
	return out, err
}

// Login authenticates with name and password and returns the identity+graph
// payload. The session cookie is captured by the jar.
func (c *Client) Login(ctx context.Context, creds Credentials) (SessionPayload, error) {
	var out SessionPayload
	err := c.do(ctx, http.MethodPost, "login", creds, &out)
	return out, err
}

// Signup registers a new user and returns the identity+graph payload for the
// freshly created (empty) account.
func (c *Client) Signup(ctx context.Context, creds Credentials) (SessionPayload, error) {
	var out SessionPayload
	err := c.do(ctx, http.MethodPost, "signup", creds, &out)
	return out, err
}

// Logout invalidates the server-side session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "logout", nil, nil)
}

// Hospitals fetches the flat list of all hospitals.
func (c *Client) Hospitals(ctx context.Context) ([]entity.Hospital, error) {
	var out []entity.Hospital
	err := c.do(ctx, http.MethodGet, "hospitals", nil, &out)
	return out, err
}

// Departments fetches the flat list of all departments.
func (c *Client) Departments(ctx context.Context) ([]entity.Department, error) {
	var out []entity.Department
	err := c.do(ctx, http.MethodGet, "departments", nil, &out)
	return out, err
}

// Hospital fetches a single hospital with its embedded patient list.
func (c *Client) Hospital(ctx context.Context, id int) (entity.Hospital, error) {
	var out entity.Hospital
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("hospitals/%d", id), nil, &out)
	return out, err
}

// Department fetches a single department with its embedded patient list.
func (c *Client) Department(ctx context.Context, id int) (entity.Department, error) {
	var out entity.Department
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("departments/%d", id), nil, &out)
	return out, err
}

// Patient fetches a single patient with its embedded references.
func (c *Client) Patient(ctx context.Context, id int) (entity.Patient, error) {
	var out entity.Patient
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("patients/%d", id), nil, &out)
	return out, err
}

// CreateHospital creates a hospital and returns the server's full record.
func (c *Client) CreateHospital(ctx context.Context, req HospitalRequest) (entity.Hospital, error) {
	var out entity.Hospital
	err := c.do(ctx, http.MethodPost, "hospitals", req, &out)
	return out, err
}

// CreateDepartment creates a department and returns the server's full
// record.
func (c *Client) CreateDepartment(ctx context.Context, req DepartmentRequest) (entity.Department, error) {
	var out entity.Department
	err := c.do(ctx, http.MethodPost, "departments", req, &out)
	return out, err
}

// CreatePatient creates a patient and returns the server's full record with
// the id assigned and references embedded.
func (c *Client) CreatePatient(ctx context.Context, req PatientRequest) (entity.Patient, error) {
	var out entity.Patient
	err := c.do(ctx, http.MethodPost, "patients", req, &out)
	return out, err
}

// UpdatePatient patches a patient and returns the updated record.
func (c *Client) UpdatePatient(ctx context.Context, id int, req PatientRequest) (entity.Patient, error) {
	var out entity.Patient
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("patients/%d", id), req, &out)
	return out, err
}

// DeletePatient deletes a patient. The server responds with no body.
func (c *Client) DeletePatient(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("patients/%d", id), nil, nil)
}

// errorBody matches the server's error envelope. Auth paths use "message",
// everything else uses "error".
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (b errorBody) text() string {
	if b.Error != "" {
		return b.Error
	}
	return b.Message
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	op := method + " /" + path

	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return &APIError{Op: op, Err: err}
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.JoinPath(path).String(), rd)
	if err != nil {
		return &APIError{Op: op, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logf("client: %s failed: %v", op, err)
		return &APIError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		var eb errorBody
		_ = json.NewDecoder(resp.Body).Decode(&eb)
		return &AuthError{Message: eb.text()}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		_ = json.NewDecoder(resp.Body).Decode(&eb)
		c.logf("client: %s rejected: %d %s", op, resp.StatusCode, eb.text())
		return &APIError{Op: op, Status: resp.StatusCode, Message: eb.text()}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{Op: op, Status: resp.StatusCode, Err: err}
	}
	return nil
}
