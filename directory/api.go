package directory

import (
	"context"

	"github.com/goliatone/go-directory-cache/client"
	"github.com/goliatone/go-directory-cache/entity"
)

// API is the remote directory surface the service consumes. *client.Client
// is the production implementation; tests substitute recording fakes.
type API interface {
	CheckSession(ctx context.Context) (client.SessionPayload, error)
	Login(ctx context.Context, creds client.Credentials) (client.SessionPayload, error)
	Signup(ctx context.Context, creds client.Credentials) (client.SessionPayload, error)
	Logout(ctx context.Context) error

	Hospitals(ctx context.Context) ([]entity.Hospital, error)
	Departments(ctx context.Context) ([]entity.Department, error)
	Hospital(ctx context.Context, id int) (entity.Hospital, error)
	Department(ctx context.Context, id int) (entity.Department, error)
	Patient(ctx context.Context, id int) (entity.Patient, error)

	CreateHospital(ctx context.Context, req client.HospitalRequest) (entity.Hospital, error)
	CreateDepartment(ctx context.Context, req client.DepartmentRequest) (entity.Department, error)
	CreatePatient(ctx context.Context, req client.PatientRequest) (entity.Patient, error)
	UpdatePatient(ctx context.Context, id int, req client.PatientRequest) (entity.Patient, error)
	DeletePatient(ctx context.Context, id int) error
}

// Interface assertion to ensure the HTTP client satisfies API.
var _ API = (*client.Client)(nil)
