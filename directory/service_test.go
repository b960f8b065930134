package directory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-directory-cache/cache"
	"github.com/goliatone/go-directory-cache/client"
	"github.com/goliatone/go-directory-cache/entity"
	"github.com/goliatone/go-directory-cache/store"
)

// mockAPI is a hand-rolled recording fake for the remote directory surface.
// Each method delegates to an optional function field and records the call.
type mockAPI struct {
	mu    sync.Mutex
	calls []string

	checkSessionFn     func(ctx context.Context) (client.SessionPayload, error)
	loginFn            func(ctx context.Context, creds client.Credentials) (client.SessionPayload, error)
	signupFn           func(ctx context.Context, creds client.Credentials) (client.SessionPayload, error)
	logoutFn           func(ctx context.Context) error
	hospitalsFn        func(ctx context.Context) ([]entity.Hospital, error)
	departmentsFn      func(ctx context.Context) ([]entity.Department, error)
	hospitalFn         func(ctx context.Context, id int) (entity.Hospital, error)
	departmentFn       func(ctx context.Context, id int) (entity.Department, error)
	patientFn          func(ctx context.Context, id int) (entity.Patient, error)
	createHospitalFn   func(ctx context.Context, req client.HospitalRequest) (entity.Hospital, error)
	createDepartmentFn func(ctx context.Context, req client.DepartmentRequest) (entity.Department, error)
	createPatientFn    func(ctx context.Context, req client.PatientRequest) (entity.Patient, error)
	updatePatientFn    func(ctx context.Context, id int, req client.PatientRequest) (entity.Patient, error)
	deletePatientFn    func(ctx context.Context, id int) error
}

func (m *mockAPI) record(call string) {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	m.mu.Unlock()
}

func (m *mockAPI) callCount(call string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (m *mockAPI) CheckSession(ctx context.Context) (client.SessionPayload, error) {
	m.record("CheckSession")
	if m.checkSessionFn != nil {
		return m.checkSessionFn(ctx)
	}
	return client.SessionPayload{}, nil
}

func (m *mockAPI) Login(ctx context.Context, creds client.Credentials) (client.SessionPayload, error) {
	m.record("Login")
	if m.loginFn != nil {
		return m.loginFn(ctx, creds)
	}
	return client.SessionPayload{}, nil
}

func (m *mockAPI) Signup(ctx context.Context, creds client.Credentials) (client.SessionPayload, error) {
	m.record("Signup")
	if m.signupFn != nil {
		return m.signupFn(ctx, creds)
	}
	return client.SessionPayload{}, nil
}

func (m *mockAPI) Logout(ctx context.Context) error {
	m.record("Logout")
	if m.logoutFn != nil {
		return m.logoutFn(ctx)
	}
	return nil
}

func (m *mockAPI) Hospitals(ctx context.Context) ([]entity.Hospital, error) {
	m.record("Hospitals")
	if m.hospitalsFn != nil {
		return m.hospitalsFn(ctx)
	}
	return nil, nil
}

func (m *mockAPI) Departments(ctx context.Context) ([]entity.Department, error) {
	m.record("Departments")
	if m.departmentsFn != nil {
		return m.departmentsFn(ctx)
	}
	return nil, nil
}

func (m *mockAPI) Hospital(ctx context.Context, id int) (entity.Hospital, error) {
	m.record("Hospital")
	if m.hospitalFn != nil {
		return m.hospitalFn(ctx, id)
	}
	return entity.Hospital{}, nil
}

func (m *mockAPI) Department(ctx context.Context, id int) (entity.Department, error) {
	m.record("Department")
	if m.departmentFn != nil {
		return m.departmentFn(ctx, id)
	}
	return entity.Department{}, nil
}

func (m *mockAPI) Patient(ctx context.Context, id int) (entity.Patient, error) {
	m.record("Patient")
	if m.patientFn != nil {
		return m.patientFn(ctx, id)
	}
	return entity.Patient{}, nil
}

func (m *mockAPI) CreateHospital(ctx context.Context, req client.HospitalRequest) (entity.Hospital, error) {
	m.record("CreateHospital")
	if m.createHospitalFn != nil {
		return m.createHospitalFn(ctx, req)
	}
	return entity.Hospital{}, nil
}

func (m *mockAPI) CreateDepartment(ctx context.Context, req client.DepartmentRequest) (entity.Department, error) {
	m.record("CreateDepartment")
	if m.createDepartmentFn != nil {
		return m.createDepartmentFn(ctx, req)
	}
	return entity.Department{}, nil
}

func (m *mockAPI) CreatePatient(ctx context.Context, req client.PatientRequest) (entity.Patient, error) {
	m.record("CreatePatient")
	if m.createPatientFn != nil {
		return m.createPatientFn(ctx, req)
	}
	return entity.Patient{}, nil
}

func (m *mockAPI) UpdatePatient(ctx context.Context, id int, req client.PatientRequest) (entity.Patient, error) {
	m.record("UpdatePatient")
	if m.updatePatientFn != nil {
		return m.updatePatientFn(ctx, id, req)
	}
	return entity.Patient{}, nil
}

func (m *mockAPI) DeletePatient(ctx context.Context, id int) error {
	m.record("DeletePatient")
	if m.deletePatientFn != nil {
		return m.deletePatientFn(ctx, id)
	}
	return nil
}

func testPatient(id int, name string, hid int, hname string, did int, dname string) entity.Patient {
	return entity.Patient{
		ID:          id,
		Name:        name,
		DateOfBirth: entity.NewDate(1990, time.March, 14),
		Hospital:    entity.HospitalRef{ID: hid, Name: hname},
		Department:  entity.DepartmentRef{ID: did, Name: dname},
	}
}

func newTestService(t *testing.T, api API) *Service {
	t.Helper()

	cfg := cache.DefaultConfig()
	cfg.EarlyRefresh = nil // keep fetch counts deterministic
	cacheService, err := cache.NewCacheService(cfg)
	if err != nil {
		t.Fatalf("NewCacheService failed: %v", err)
	}
	return New(api, store.New(store.DefaultConfig()), cacheService, cache.NewDefaultKeySerializer())
}

func seededPayload() client.SessionPayload {
	p := testPatient(7, "Grace", 3, "General", 5, "Oncology")
	return client.SessionPayload{
		Session:     entity.Session{ID: 1, Name: "ada"},
		Patients:    []entity.Patient{p},
		Hospitals:   []entity.Hospital{{ID: 3, Name: "General", Patients: []entity.Patient{p}}},
		Departments: []entity.Department{{ID: 5, Name: "Oncology", Patients: []entity.Patient{p}}},
	}
}

func TestBootstrapSeedsStoreWithSingleNotification(t *testing.T) {
	api := &mockAPI{
		checkSessionFn: func(context.Context) (client.SessionPayload, error) {
			return seededPayload(), nil
		},
	}
	svc := newTestService(t, api)

	notifications := 0
	svc.Store().Subscribe(func(store.Snapshot) { notifications++ })

	sess, err := svc.Bootstrap(context.Background())
	if err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	if sess.ID != 1 || sess.Name != "ada" {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if notifications != 1 {
		t.Fatalf("seeding should notify exactly once, got %d", notifications)
	}

	snap := svc.Snapshot()
	if len(snap.Patients) != 1 || len(snap.Hospitals) != 1 || len(snap.Departments) != 1 {
		t.Fatalf("store not seeded: %+v", snap)
	}
}

func TestBootstrapFailureResetsStore(t *testing.T) {
	api := &mockAPI{
		checkSessionFn: func(context.Context) (client.SessionPayload, error) {
			return client.SessionPayload{}, &client.AuthError{Message: "no session"}
		},
	}
	svc := newTestService(t, api)

	_, err := svc.Bootstrap(context.Background())
	var authErr *client.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *AuthError, got %T: %v", err, err)
	}
	snap := svc.Snapshot()
	if snap.Session != nil || len(snap.Patients) != 0 {
		t.Fatalf("store should be empty after failed bootstrap: %+v", snap)
	}
}

func TestLoginThenLogoutLifecycle(t *testing.T) {
	api := &mockAPI{
		loginFn: func(context.Context, client.Credentials) (client.SessionPayload, error) {
			return seededPayload(), nil
		},
	}
	svc := newTestService(t, api)

	if _, err := svc.Login(context.Background(), client.Credentials{Name: "ada", Password: "pw"}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if svc.Snapshot().Session == nil {
		t.Fatal("session missing after login")
	}

	if err := svc.Logout(context.Background()); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	snap := svc.Snapshot()
	if snap.Session != nil || len(snap.Patients) != 0 || len(snap.Hospitals) != 0 {
		t.Fatalf("store should be empty after logout: %+v", snap)
	}
}

func TestLogoutTransportFailureKeepsState(t *testing.T) {
	api := &mockAPI{
		loginFn: func(context.Context, client.Credentials) (client.SessionPayload, error) {
			return seededPayload(), nil
		},
		logoutFn: func(context.Context) error {
			return &client.APIError{Op: "DELETE /logout", Err: errors.New("connection refused")}
		},
	}
	svc := newTestService(t, api)

	if _, err := svc.Login(context.Background(), client.Credentials{Name: "ada", Password: "pw"}); err != nil {
		t.Fatal(err)
	}
	if err := svc.Logout(context.Background()); err == nil {
		t.Fatal("expected transport error")
	}
	if svc.Snapshot().Session == nil {
		t.Fatal("transport failure must leave the session intact for retry")
	}
}

func TestLogoutAuthFailureStillResets(t *testing.T) {
	api := &mockAPI{
		loginFn: func(context.Context, client.Credentials) (client.SessionPayload, error) {
			return seededPayload(), nil
		},
		logoutFn: func(context.Context) error {
			return &client.AuthError{Message: "already signed out"}
		},
	}
	svc := newTestService(t, api)

	if _, err := svc.Login(context.Background(), client.Credentials{Name: "ada", Password: "pw"}); err != nil {
		t.Fatal(err)
	}
	if err := svc.Logout(context.Background()); err != nil {
		t.Fatalf("auth failure on logout should not surface: %v", err)
	}
	if svc.Snapshot().Session != nil {
		t.Fatal("store should reset when the server session is already gone")
	}
}

func TestCreatePatientAppliesConfirmedRecord(t *testing.T) {
	api := &mockAPI{
		createPatientFn: func(_ context.Context, req client.PatientRequest) (entity.Patient, error) {
			return testPatient(9, req.Name, 3, "General", 5, "Oncology"), nil
		},
	}
	svc := newTestService(t, api)

	p, err := svc.CreatePatient(context.Background(), client.PatientRequest{Name: "Grace", HospitalID: 3, DepartmentID: 5})
	if err != nil {
		t.Fatalf("CreatePatient failed: %v", err)
	}
	if p.ID != 9 {
		t.Fatalf("unexpected record: %+v", p)
	}

	snap := svc.Snapshot()
	if _, ok := snap.Patient(9); !ok {
		t.Fatal("confirmed patient should be in the store")
	}
	if _, ok := snap.Hospital(3); !ok {
		t.Fatal("hospital should be seeded from the confirmed record")
	}
}

func TestCreatePatientFailureLeavesStoreUnchanged(t *testing.T) {
	api := &mockAPI{
		createPatientFn: func(context.Context, client.PatientRequest) (entity.Patient, error) {
			return entity.Patient{}, &client.APIError{Op: "POST /patients", Status: 422, Message: "name required"}
		},
	}
	svc := newTestService(t, api)

	if _, err := svc.CreatePatient(context.Background(), client.PatientRequest{}); err == nil {
		t.Fatal("expected API error")
	}
	if len(svc.Snapshot().Patients) != 0 {
		t.Fatal("failed create must not touch the store")
	}
}

func TestDeletePatientCascades(t *testing.T) {
	api := &mockAPI{
		loginFn: func(context.Context, client.Credentials) (client.SessionPayload, error) {
			return seededPayload(), nil
		},
	}
	svc := newTestService(t, api)
	if _, err := svc.Login(context.Background(), client.Credentials{Name: "ada", Password: "pw"}); err != nil {
		t.Fatal(err)
	}

	if err := svc.DeletePatient(context.Background(), 7); err != nil {
		t.Fatalf("DeletePatient failed: %v", err)
	}

	snap := svc.Snapshot()
	if len(snap.Patients) != 0 {
		t.Fatalf("patient not removed: %+v", snap.Patients)
	}
	if _, ok := snap.Hospital(3); ok {
		t.Fatal("emptied hospital should cascade away")
	}
}

func TestRefreshHospitalsServedFromCache(t *testing.T) {
	api := &mockAPI{
		hospitalsFn: func(context.Context) ([]entity.Hospital, error) {
			return []entity.Hospital{{ID: 3, Name: "General"}}, nil
		},
	}
	svc := newTestService(t, api)

	for i := 0; i < 3; i++ {
		hospitals, err := svc.RefreshHospitals(context.Background())
		if err != nil {
			t.Fatalf("RefreshHospitals failed: %v", err)
		}
		if len(hospitals) != 1 || hospitals[0].Name != "General" {
			t.Fatalf("unexpected hospitals: %+v", hospitals)
		}
	}

	if got := api.callCount("Hospitals"); got != 1 {
		t.Fatalf("warm refreshes should not hit the API, got %d calls", got)
	}
	if _, ok := svc.Snapshot().Hospital(3); !ok {
		t.Fatal("refresh should populate the store")
	}
}

func TestRefreshHospitalsFailureLeavesStoreUnchanged(t *testing.T) {
	api := &mockAPI{
		hospitalsFn: func(context.Context) ([]entity.Hospital, error) {
			return nil, &client.APIError{Op: "GET /hospitals", Status: 500, Message: "boom"}
		},
	}
	svc := newTestService(t, api)

	if _, err := svc.RefreshHospitals(context.Background()); err == nil {
		t.Fatal("expected fetch error")
	}
	if len(svc.Snapshot().Hospitals) != 0 {
		t.Fatal("failed refresh must leave the store unchanged")
	}
}

func TestWriteInvalidatesCollectionCache(t *testing.T) {
	api := &mockAPI{
		hospitalsFn: func(context.Context) ([]entity.Hospital, error) {
			return []entity.Hospital{{ID: 3, Name: "General"}}, nil
		},
		createPatientFn: func(_ context.Context, req client.PatientRequest) (entity.Patient, error) {
			return testPatient(9, req.Name, 3, "General", 5, "Oncology"), nil
		},
	}
	svc := newTestService(t, api)

	if _, err := svc.RefreshHospitals(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreatePatient(context.Background(), client.PatientRequest{Name: "Grace", HospitalID: 3, DepartmentID: 5}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.RefreshHospitals(context.Background()); err != nil {
		t.Fatal(err)
	}

	if got := api.callCount("Hospitals"); got != 2 {
		t.Fatalf("a write should invalidate the collection key, got %d fetches", got)
	}
}

func TestRefreshDepartmentsServedFromCache(t *testing.T) {
	api := &mockAPI{
		departmentsFn: func(context.Context) ([]entity.Department, error) {
			return []entity.Department{{ID: 5, Name: "Oncology"}}, nil
		},
	}
	svc := newTestService(t, api)

	for i := 0; i < 2; i++ {
		if _, err := svc.RefreshDepartments(context.Background()); err != nil {
			t.Fatalf("RefreshDepartments failed: %v", err)
		}
	}
	if got := api.callCount("Departments"); got != 1 {
		t.Fatalf("expected one API fetch, got %d", got)
	}
}

func TestSupersededUpdateIsDropped(t *testing.T) {
	gates := map[string]chan entity.Patient{
		"old": make(chan entity.Patient, 1),
		"new": make(chan entity.Patient, 1),
	}
	api := &mockAPI{
		updatePatientFn: func(_ context.Context, id int, req client.PatientRequest) (entity.Patient, error) {
			return <-gates[req.Name], nil
		},
	}
	svc := newTestService(t, api)

	// first update stalls in flight
	firstDone := make(chan error, 1)
	go func() {
		_, err := svc.UpdatePatient(context.Background(), 7, client.PatientRequest{Name: "old", HospitalID: 3, DepartmentID: 5})
		firstDone <- err
	}()

	// wait until the first request is in flight so its sequence number is
	// issued before the second begins
	for api.callCount("UpdatePatient") == 0 {
		time.Sleep(time.Millisecond)
	}

	// second update completes immediately
	secondDone := make(chan error, 1)
	go func() {
		_, err := svc.UpdatePatient(context.Background(), 7, client.PatientRequest{Name: "new", HospitalID: 3, DepartmentID: 5})
		secondDone <- err
	}()
	for api.callCount("UpdatePatient") < 2 {
		time.Sleep(time.Millisecond)
	}
	gates["new"] <- testPatient(7, "new", 3, "General", 5, "Oncology")
	if err := <-secondDone; err != nil {
		t.Fatalf("second update failed: %v", err)
	}

	// now let the first, older completion land; it must be dropped
	gates["old"] <- testPatient(7, "old", 3, "General", 5, "Oncology")
	if err := <-firstDone; err != nil {
		t.Fatalf("first update failed: %v", err)
	}

	snap := svc.Snapshot()
	p, ok := snap.Patient(7)
	if !ok {
		t.Fatal("patient missing from store")
	}
	if p.Name != "new" {
		t.Fatalf("stale completion overwrote newer state: %+v", p)
	}
}

func TestCreateHospitalAndDepartment(t *testing.T) {
	api := &mockAPI{
		createHospitalFn: func(_ context.Context, req client.HospitalRequest) (entity.Hospital, error) {
			return entity.Hospital{ID: 12, Name: req.Name, PhoneNumber: req.PhoneNumber}, nil
		},
		createDepartmentFn: func(_ context.Context, req client.DepartmentRequest) (entity.Department, error) {
			return entity.Department{ID: 13, Name: req.Name}, nil
		},
	}
	svc := newTestService(t, api)

	h, err := svc.CreateHospital(context.Background(), client.HospitalRequest{Name: "Mercy", PhoneNumber: "555-0101"})
	if err != nil {
		t.Fatalf("CreateHospital failed: %v", err)
	}
	d, err := svc.CreateDepartment(context.Background(), client.DepartmentRequest{Name: "Radiology"})
	if err != nil {
		t.Fatalf("CreateDepartment failed: %v", err)
	}

	snap := svc.Snapshot()
	got, ok := snap.Hospital(h.ID)
	if !ok || got.Name != "Mercy" || len(got.Patients) != 0 {
		t.Fatalf("hospital not inserted: %+v", got)
	}
	if _, ok := snap.Department(d.ID); !ok {
		t.Fatal("department not inserted")
	}
}
