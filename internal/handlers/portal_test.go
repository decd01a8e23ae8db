package handlers_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/regdesk/portalserver/internal/handlers"
	"github.com/regdesk/portalserver/internal/services"
	"github.com/regdesk/portalserver/internal/session"
	"github.com/regdesk/portalserver/internal/storage"
	"github.com/regdesk/portalserver/internal/store"
	"github.com/regdesk/portalserver/types"
)

// fakeUserRepo is an in-memory services.UserRepository with the same
// merge and no-op semantics as the Postgres repository.
type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[int]types.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: map[int]types.User{}}
}

func (f *fakeUserRepo) add(user types.User) types.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	user.ID = f.nextID
	f.nextID++
	if user.Details == nil {
		user.Details = map[string]string{}
	}
	f.users[user.ID] = user
	return user
}

func (f *fakeUserRepo) List(ctx context.Context) ([]types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var users []types.User
	for _, user := range f.users {
		users = append(users, user)
	}
	return users, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return types.User{}, store.ErrDuplicateEmail
		}
	}
	user.ID = f.nextID
	f.nextID++
	user.CreatedAt = time.Now()
	if user.Details == nil {
		user.Details = map[string]string{}
	}
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) UpdateByID(ctx context.Context, id int, fields map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil
	}
	for key, value := range fields {
		switch key {
		case "email":
			user.Email = value
		case "password":
			user.Password = value
		case "profile_picture":
			user.ProfilePicture = value
		case "is_admin":
			user.IsAdmin = value == "true"
		case "declaration":
			user.Declaration = value == "true"
		default:
			if user.Details == nil {
				user.Details = map[string]string{}
			}
			user.Details[key] = value
		}
	}
	f.users[id] = user
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users)
}

// stubRenderer writes "view:<name>" so tests can assert which view a
// handler picked without real templates.
type stubRenderer struct{}

func (stubRenderer) Render(w http.ResponseWriter, name string, data any) error {
	_, err := fmt.Fprintf(w, "view:%s", name)
	return err
}

type testPortal struct {
	router    *chi.Mux
	repo      *fakeUserRepo
	sessions  session.Store
	codec     *session.Codec
	uploadDir string
}

func newTestPortal(t *testing.T) *testPortal {
	t.Helper()
	repo := newFakeUserRepo()
	portal := newPortalWithRepo(t, repo)
	portal.repo = repo
	return portal
}

func newPortalWithRepo(t *testing.T, repo services.UserRepository) *testPortal {
	t.Helper()

	userService := services.NewUserService(repo)

	sessions := session.NewMemoryStore(time.Hour)
	codec, err := session.NewCodec("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}

	dir := t.TempDir()
	fsClient, err := storage.NewFSClient(dir)
	if err != nil {
		t.Fatalf("new fs client: %v", err)
	}
	if err := fsClient.EnsureBucket(context.Background()); err != nil {
		t.Fatalf("ensure bucket: %v", err)
	}
	uploads := storage.NewStorage(fsClient)

	verifier := services.PlainVerifier{}
	authHandler := handlers.NewAuthHandler(userService, verifier, sessions, stubRenderer{})
	userHandler := handlers.NewUserHandler(userService, verifier, uploads, stubRenderer{}, nil)

	router := chi.NewRouter()
	router.Use(handlers.WithSession(sessions, codec))
	handlers.PortalRouter(router, authHandler, userHandler)

	return &testPortal{router: router, sessions: sessions, codec: codec, uploadDir: dir}
}

// authCookie mints a cookie for a pre-seeded session, bypassing the
// login flow.
func (p *testPortal) authCookie(t *testing.T, sess session.Session) *http.Cookie {
	t.Helper()

	_, id := p.sessions.Resolve("")
	p.sessions.Put(id, sess)
	value, err := p.codec.Encode(id)
	if err != nil {
		t.Fatalf("encode cookie: %v", err)
	}
	return &http.Cookie{Name: session.CookieName, Value: value}
}

func (p *testPortal) do(t *testing.T, method, target string, body io.Reader, contentType string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	p.router.ServeHTTP(rec, req)
	return rec
}

func responseCookies(rec *httptest.ResponseRecorder) []*http.Cookie {
	return (&http.Response{Header: rec.Header()}).Cookies()
}

func formBody(values map[string]string) (io.Reader, string) {
	form := url.Values{}
	for key, value := range values {
		form.Set(key, value)
	}
	return strings.NewReader(form.Encode()), "application/x-www-form-urlencoded"
}

func (p *testPortal) login(t *testing.T, path, email, password string) (*httptest.ResponseRecorder, []*http.Cookie) {
	t.Helper()
	body, contentType := formBody(map[string]string{"email": email, "password": password})
	rec := p.do(t, http.MethodPost, path, body, contentType, nil)
	return rec, responseCookies(rec)
}

func expectRedirect(t *testing.T, rec *httptest.ResponseRecorder, location string) {
	t.Helper()
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Location"); got != location {
		t.Fatalf("expected redirect to %q, got %q", location, got)
	}
}

func TestGuardsRedirectUnauthenticated(t *testing.T) {
	portal := newTestPortal(t)

	protected := []string{"/user", "/admin", "/update/1", "/delete/1", "/uploads/avatar.png"}
	for _, path := range protected {
		rec := portal.do(t, http.MethodGet, path, nil, "", nil)
		expectRedirect(t, rec, "/")
	}

	rec := portal.do(t, http.MethodPost, "/delete/1", nil, "", nil)
	expectRedirect(t, rec, "/")
}

func TestGuardIgnoresForgedCookie(t *testing.T) {
	portal := newTestPortal(t)

	forged := &http.Cookie{Name: session.CookieName, Value: "not-a-real-token"}
	rec := portal.do(t, http.MethodGet, "/user", nil, "", []*http.Cookie{forged})
	expectRedirect(t, rec, "/")
}

func TestRootRendersLoginWhenUnauthenticated(t *testing.T) {
	portal := newTestPortal(t)

	rec := portal.do(t, http.MethodGet, "/", nil, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "view:login" {
		t.Fatalf("expected login view, got %q", rec.Body.String())
	}
}

func TestRootRedirectsAuthenticated(t *testing.T) {
	portal := newTestPortal(t)
	portal.repo.add(types.User{Email: "a@example.com", Password: "pw"})

	_, cookies := portal.login(t, "/login", "a@example.com", "pw")

	rec := portal.do(t, http.MethodGet, "/", nil, "", cookies)
	expectRedirect(t, rec, "/user")
}

func TestLoginUnknownUser(t *testing.T) {
	portal := newTestPortal(t)

	rec, cookies := portal.login(t, "/login", "ghost@example.com", "pw")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "User not found" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}

	// The failed login must not authenticate the session.
	after := portal.do(t, http.MethodGet, "/user", nil, "", cookies)
	expectRedirect(t, after, "/")
}

func TestLoginWrongPassword(t *testing.T) {
	portal := newTestPortal(t)
	portal.repo.add(types.User{Email: "a@example.com", Password: "pw"})

	rec, cookies := portal.login(t, "/login", "a@example.com", "nope")
	if rec.Code != http.StatusOK || rec.Body.String() != "Incorrect password" {
		t.Fatalf("expected incorrect-password response, got %d %q", rec.Code, rec.Body.String())
	}

	after := portal.do(t, http.MethodGet, "/user", nil, "", cookies)
	expectRedirect(t, after, "/")
}

func TestLoginRoutesByAdminFlag(t *testing.T) {
	portal := newTestPortal(t)
	portal.repo.add(types.User{Email: "user@example.com", Password: "pw"})
	portal.repo.add(types.User{Email: "admin@example.com", Password: "pw", IsAdmin: true})

	rec, cookies := portal.login(t, "/login", "user@example.com", "pw")
	expectRedirect(t, rec, "/user")

	dashboard := portal.do(t, http.MethodGet, "/user", nil, "", cookies)
	if dashboard.Code != http.StatusOK || dashboard.Body.String() != "view:user" {
		t.Fatalf("expected user dashboard, got %d %q", dashboard.Code, dashboard.Body.String())
	}

	adminRec, adminCookies := portal.login(t, "/login", "admin@example.com", "pw")
	expectRedirect(t, adminRec, "/admin")

	// The plain login flow authenticates but never sets the session
	// admin flag; the admin dashboard is reachable all the same since
	// it sits behind the plain guard.
	adminDash := portal.do(t, http.MethodGet, "/admin", nil, "", adminCookies)
	if adminDash.Code != http.StatusOK || adminDash.Body.String() != "view:admin" {
		t.Fatalf("expected admin dashboard, got %d %q", adminDash.Code, adminDash.Body.String())
	}
}

func TestAdminLoginFlow(t *testing.T) {
	portal := newTestPortal(t)
	portal.repo.add(types.User{Email: "user@example.com", Password: "pw"})
	portal.repo.add(types.User{Email: "admin@example.com", Password: "pw", IsAdmin: true})

	rec, _ := portal.login(t, "/adminlogin", "user@example.com", "pw")
	expectRedirect(t, rec, "/adminlogin")

	adminRec, cookies := portal.login(t, "/adminlogin", "admin@example.com", "pw")
	expectRedirect(t, adminRec, "/admin")

	dash := portal.do(t, http.MethodGet, "/admin", nil, "", cookies)
	if dash.Code != http.StatusOK || dash.Body.String() != "view:admin" {
		t.Fatalf("expected admin dashboard, got %d %q", dash.Code, dash.Body.String())
	}
}

func TestAdminLoginPage(t *testing.T) {
	portal := newTestPortal(t)
	portal.repo.add(types.User{Email: "a@example.com", Password: "pw"})

	rec := portal.do(t, http.MethodGet, "/adminlogin", nil, "", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "view:adminlogin" {
		t.Fatalf("expected adminlogin view, got %d %q", rec.Code, rec.Body.String())
	}

	_, cookies := portal.login(t, "/login", "a@example.com", "pw")
	authed := portal.do(t, http.MethodGet, "/adminlogin", nil, "", cookies)
	expectRedirect(t, authed, "/admin")
}

func registerBody(t *testing.T, fields map[string]string, filename string, fileData []byte) (io.Reader, string) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		_ = writer.WriteField(key, value)
	}
	if filename != "" {
		part, err := writer.CreateFormFile("profile_picture", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(fileData); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &body, writer.FormDataContentType()
}

func TestRegisterCreatesRecord(t *testing.T) {
	portal := newTestPortal(t)

	body, contentType := registerBody(t, map[string]string{
		"email":       "new@example.com",
		"password":    "pw",
		"name":        "New Person",
		"phone":       "555-0100",
		"declaration": "true",
	}, "avatar.png", []byte("png bytes"))

	rec := portal.do(t, http.MethodPost, "/register", body, contentType, nil)
	expectRedirect(t, rec, "/admin")

	user, err := portal.repo.GetByEmail(context.Background(), "new@example.com")
	if err != nil {
		t.Fatalf("expected record: %v", err)
	}
	if user.Password != "pw" {
		t.Fatalf("expected stored password, got %q", user.Password)
	}
	if !user.Declaration {
		t.Fatalf("expected declaration coerced to true")
	}
	if user.IsAdmin {
		t.Fatalf("expected non-admin by default")
	}
	if user.ProfilePicture != "/uploads/avatar.png" {
		t.Fatalf("unexpected picture path %q", user.ProfilePicture)
	}
	if user.Details["name"] != "New Person" || user.Details["phone"] != "555-0100" {
		t.Fatalf("expected form fields in details, got %v", user.Details)
	}
	if user.CreatedAt.IsZero() {
		t.Fatalf("expected created_at to be set")
	}

	stored, err := os.ReadFile(filepath.Join(portal.uploadDir, "avatar.png"))
	if err != nil {
		t.Fatalf("expected uploaded file on disk: %v", err)
	}
	if string(stored) != "png bytes" {
		t.Fatalf("unexpected file contents %q", stored)
	}
}

func TestRegisterWithoutFile(t *testing.T) {
	portal := newTestPortal(t)

	body, contentType := registerBody(t, map[string]string{
		"email":    "plain@example.com",
		"password": "pw",
	}, "", nil)

	rec := portal.do(t, http.MethodPost, "/register", body, contentType, nil)
	expectRedirect(t, rec, "/admin")

	user, err := portal.repo.GetByEmail(context.Background(), "plain@example.com")
	if err != nil {
		t.Fatalf("expected record: %v", err)
	}
	if user.ProfilePicture != "" {
		t.Fatalf("expected empty picture path, got %q", user.ProfilePicture)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	portal := newTestPortal(t)
	portal.repo.add(types.User{Email: "taken@example.com", Password: "pw"})

	body, contentType := registerBody(t, map[string]string{
		"email":    "taken@example.com",
		"password": "other",
	}, "", nil)

	rec := portal.do(t, http.MethodPost, "/register", body, contentType, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "User already exists. Please choose a different email." {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
	if portal.repo.count() != 1 {
		t.Fatalf("expected a single record, have %d", portal.repo.count())
	}
}

func TestRegisterMissingRequiredFields(t *testing.T) {
	portal := newTestPortal(t)

	body, contentType := registerBody(t, map[string]string{"email": "x@example.com"}, "", nil)
	rec := portal.do(t, http.MethodPost, "/register", body, contentType, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUpdateFormNotFound(t *testing.T) {
	portal := newTestPortal(t)
	portal.repo.add(types.User{Email: "a@example.com", Password: "pw"})

	_, cookies := portal.login(t, "/login", "a@example.com", "pw")

	rec := portal.do(t, http.MethodGet, "/update/99", nil, "", cookies)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec.Body.String() != "User not found" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestUpdateFormRendersRecord(t *testing.T) {
	portal := newTestPortal(t)
	user := portal.repo.add(types.User{Email: "a@example.com", Password: "pw"})

	_, cookies := portal.login(t, "/login", "a@example.com", "pw")

	rec := portal.do(t, http.MethodGet, fmt.Sprintf("/update/%d", user.ID), nil, "", cookies)
	if rec.Code != http.StatusOK || rec.Body.String() != "view:update" {
		t.Fatalf("expected update view, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestUpdateMergesPartialFields(t *testing.T) {
	portal := newTestPortal(t)
	user := portal.repo.add(types.User{
		Email:    "a@example.com",
		Password: "pw",
		Details:  map[string]string{"name": "Old Name", "phone": "555-0100"},
	})

	body, contentType := formBody(map[string]string{
		"email": "b@example.com",
		"name":  "New Name",
	})
	// POST /update/{id} takes no guard.
	rec := portal.do(t, http.MethodPost, fmt.Sprintf("/update/%d", user.ID), body, contentType, nil)
	expectRedirect(t, rec, "/admin")

	updated, err := portal.repo.GetByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("get updated: %v", err)
	}
	if updated.Email != "b@example.com" {
		t.Fatalf("expected updated email, got %q", updated.Email)
	}
	if updated.Password != "pw" {
		t.Fatalf("unspecified password must be retained, got %q", updated.Password)
	}
	if updated.Details["name"] != "New Name" {
		t.Fatalf("expected updated name, got %q", updated.Details["name"])
	}
	if updated.Details["phone"] != "555-0100" {
		t.Fatalf("unspecified phone must be retained, got %q", updated.Details["phone"])
	}
}

func TestUpdateAbsentIDIsNoop(t *testing.T) {
	portal := newTestPortal(t)

	body, contentType := formBody(map[string]string{"email": "b@example.com"})
	rec := portal.do(t, http.MethodPost, "/update/42", body, contentType, nil)
	expectRedirect(t, rec, "/admin")
	if portal.repo.count() != 0 {
		t.Fatalf("expected no records, have %d", portal.repo.count())
	}
}

func TestDeleteRedirect(t *testing.T) {
	portal := newTestPortal(t)
	user := portal.repo.add(types.User{Email: "a@example.com", Password: "pw"})

	_, cookies := portal.login(t, "/login", "a@example.com", "pw")

	rec := portal.do(t, http.MethodGet, fmt.Sprintf("/delete/%d", user.ID), nil, "", cookies)
	expectRedirect(t, rec, "/admin")
	if portal.repo.count() != 0 {
		t.Fatalf("expected record removed")
	}
}

func TestDeleteReturnsJSONAndIsIdempotent(t *testing.T) {
	portal := newTestPortal(t)
	portal.repo.add(types.User{Email: "a@example.com", Password: "pw"})

	_, cookies := portal.login(t, "/login", "a@example.com", "pw")

	// Deleting an id that never existed still confirms success.
	rec := portal.do(t, http.MethodPost, "/delete/99", nil, "", cookies)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	want := `{"message":"User deleted successfully"}`
	if strings.TrimSpace(rec.Body.String()) != want {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestLogoutDestroysSession(t *testing.T) {
	portal := newTestPortal(t)
	portal.repo.add(types.User{Email: "a@example.com", Password: "pw"})

	_, cookies := portal.login(t, "/login", "a@example.com", "pw")

	rec := portal.do(t, http.MethodGet, "/logout", nil, "", cookies)
	expectRedirect(t, rec, "/")

	// The old cookie must no longer authenticate.
	after := portal.do(t, http.MethodGet, "/user", nil, "", cookies)
	expectRedirect(t, after, "/")
}

func TestServeUpload(t *testing.T) {
	portal := newTestPortal(t)
	portal.repo.add(types.User{Email: "a@example.com", Password: "pw"})

	body, contentType := registerBody(t, map[string]string{
		"email":    "pic@example.com",
		"password": "pw",
	}, "avatar.png", []byte("png bytes"))
	rec := portal.do(t, http.MethodPost, "/register", body, contentType, nil)
	expectRedirect(t, rec, "/admin")

	_, cookies := portal.login(t, "/login", "a@example.com", "pw")

	served := portal.do(t, http.MethodGet, "/uploads/avatar.png", nil, "", cookies)
	if served.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", served.Code)
	}
	if served.Body.String() != "png bytes" {
		t.Fatalf("unexpected file bytes %q", served.Body.String())
	}

	missing := portal.do(t, http.MethodGet, "/uploads/nope.png", nil, "", cookies)
	if missing.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing file, got %d", missing.Code)
	}
}

func TestLoginAcceptsJSONBody(t *testing.T) {
	portal := newTestPortal(t)
	portal.repo.add(types.User{Email: "a@example.com", Password: "pw"})

	body := strings.NewReader(`{"email":"a@example.com","password":"pw"}`)
	rec := portal.do(t, http.MethodPost, "/login", body, "application/json", nil)
	expectRedirect(t, rec, "/user")
}

func TestAdminGuardRequiresAdminSession(t *testing.T) {
	portal := newTestPortal(t)

	router := chi.NewRouter()
	router.Use(handlers.WithSession(portal.sessions, portal.codec))
	router.With(handlers.RequireAdmin).Get("/guarded", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	serve := func(cookie *http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
		if cookie != nil {
			req.AddCookie(cookie)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	expectRedirect(t, serve(nil), "/adminlogin")
	expectRedirect(t, serve(portal.authCookie(t, session.Session{Authenticated: true})), "/adminlogin")

	admin := serve(portal.authCookie(t, session.Session{Authenticated: true, IsAdmin: true}))
	if admin.Code != http.StatusOK || admin.Body.String() != "ok" {
		t.Fatalf("expected admin session to pass, got %d %q", admin.Code, admin.Body.String())
	}
}

// failingUserRepo returns a wire-level failure from every operation.
type failingUserRepo struct{}

var errStoreDown = errors.New("connection reset")

func (failingUserRepo) List(ctx context.Context) ([]types.User, error) {
	return nil, errStoreDown
}

func (failingUserRepo) GetByID(ctx context.Context, id int) (types.User, error) {
	return types.User{}, errStoreDown
}

func (failingUserRepo) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return types.User{}, errStoreDown
}

func (failingUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	return types.User{}, errStoreDown
}

func (failingUserRepo) UpdateByID(ctx context.Context, id int, fields map[string]string) error {
	return errStoreDown
}

func (failingUserRepo) Delete(ctx context.Context, id int) error {
	return errStoreDown
}

func expectText(t *testing.T, rec *httptest.ResponseRecorder, code int, body string) {
	t.Helper()
	if rec.Code != code {
		t.Fatalf("expected %d, got %d: %s", code, rec.Code, rec.Body.String())
	}
	if rec.Body.String() != body {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestLoginStoreFailure(t *testing.T) {
	portal := newPortalWithRepo(t, failingUserRepo{})

	for _, path := range []string{"/login", "/adminlogin"} {
		body, contentType := formBody(map[string]string{"email": "a@example.com", "password": "pw"})
		rec := portal.do(t, http.MethodPost, path, body, contentType, nil)
		expectText(t, rec, http.StatusInternalServerError, "Error logging in")
	}
}

func TestDashboardStoreFailure(t *testing.T) {
	portal := newPortalWithRepo(t, failingUserRepo{})
	cookie := portal.authCookie(t, session.Session{Authenticated: true})

	for _, path := range []string{"/user", "/admin"} {
		rec := portal.do(t, http.MethodGet, path, nil, "", []*http.Cookie{cookie})
		expectText(t, rec, http.StatusInternalServerError, "Error fetching from DB")
	}
}

func TestRegisterStoreFailure(t *testing.T) {
	portal := newPortalWithRepo(t, failingUserRepo{})

	body, contentType := registerBody(t, map[string]string{
		"email":    "a@example.com",
		"password": "pw",
	}, "", nil)
	rec := portal.do(t, http.MethodPost, "/register", body, contentType, nil)
	expectText(t, rec, http.StatusInternalServerError, "Error registering user")
}

func TestUpdateStoreFailure(t *testing.T) {
	portal := newPortalWithRepo(t, failingUserRepo{})

	body, contentType := formBody(map[string]string{"email": "b@example.com"})
	rec := portal.do(t, http.MethodPost, "/update/1", body, contentType, nil)
	expectText(t, rec, http.StatusInternalServerError, "Error updating user")
}

func TestDeleteStoreFailure(t *testing.T) {
	portal := newPortalWithRepo(t, failingUserRepo{})
	cookie := portal.authCookie(t, session.Session{Authenticated: true})

	rec := portal.do(t, http.MethodPost, "/delete/1", nil, "", []*http.Cookie{cookie})
	expectText(t, rec, http.StatusInternalServerError, "Error deleting user")
}
