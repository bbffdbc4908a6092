package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"lostfound/internal/core/auth"
	"lostfound/internal/core/config"
	"lostfound/internal/core/mail"
	"lostfound/internal/domain"
	"lostfound/internal/repo/memory"
	"lostfound/internal/service"
)

type recMailer struct {
	mu   sync.Mutex
	sent []mail.Template
}

func (m *recMailer) Send(_ context.Context, _ string, name mail.Template, _ map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, name)
	return nil
}

func (m *recMailer) count(name mail.Template) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sent {
		if s == name {
			n++
		}
	}
	return n
}

type cdn struct {
	mu sync.Mutex
	n  int
}

func (c *cdn) Upload(_ context.Context, r io.Reader, filename string) (string, error) {
	_, _ = io.Copy(io.Discard, r)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return fmt.Sprintf("https://cdn.test/%d-%s", c.n, filename), nil
}

func (c *cdn) Delete(context.Context, string) error { return nil }

type app struct {
	t      *testing.T
	engine *gin.Engine
	store  *memory.Store
	mailer *recMailer
}

func newApp(t *testing.T) *app {
	t.Helper()
	gin.SetMode(gin.TestMode)
	auth.Cost = bcrypt.MinCost
	cfg, err := config.Load(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	log := zap.NewNop()
	store := memory.New()
	mailer := &recMailer{}
	notifier := service.NewNotifier(cfg.Notifications.TTL())

	jwt := auth.NewJWTer("test-secret", "lostfound", cfg.JWT.TTL())
	pets := service.NewPetService(store, &cdn{}, mailer, notifier, log)
	reports := service.NewReportService(store, notifier, log)
	s := Services{
		Auth:          service.NewAuthService(store, jwt, mailer, notifier, log),
		Ownership:     service.NewOwnership(store),
		Pets:          pets,
		Reports:       reports,
		Notifications: service.NewNotificationService(store, log),
		Admin:         service.NewAdminService(store, pets, reports, nil, 0, log),
	}
	return &app{t: t, engine: NewAPIEngine(cfg, log, nil, s), store: store, mailer: mailer}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Message    string            `json:"message"`
		StatusCode int               `json:"statusCode"`
		Fields     map[string]string `json:"fields"`
	} `json:"error"`
}

func (a *app) do(req *http.Request, token string) (int, envelope) {
	a.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		a.t.Fatalf("%s %s: decode %q: %v", req.Method, req.URL.Path, w.Body.String(), err)
	}
	return w.Code, env
}

func (a *app) json(method, path, token string, body any) (int, envelope) {
	a.t.Helper()
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	return a.do(req, token)
}

func (a *app) register(name, email string) (string, string) {
	a.t.Helper()
	code, env := a.json(http.MethodPost, "/api/auth/register", "", gin.H{
		"name": name, "email": email, "password": "Secret1", "phone": "+15550100",
	})
	if code != http.StatusCreated {
		a.t.Fatalf("register %s: %d %+v", email, code, env.Error)
	}
	var s struct {
		User  domain.User `json:"user"`
		Token string      `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &s); err != nil {
		a.t.Fatal(err)
	}
	return s.User.ID, s.Token
}

func (a *app) promote(email string) {
	a.t.Helper()
	ctx := context.Background()
	u, err := a.store.Users().FindByEmail(ctx, email)
	if err != nil {
		a.t.Fatal(err)
	}
	u.Role = domain.RoleAdmin
	if err := a.store.Users().Update(ctx, u); err != nil {
		a.t.Fatal(err)
	}
}

func petForm(t *testing.T, fields map[string]string, photos ...string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	for _, name := range photos {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="photos"; filename=%q`, name))
		h.Set("Content-Type", "image/jpeg")
		part, err := w.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = part.Write([]byte("jpeg"))
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, w.FormDataContentType()
}

func lostDog() map[string]string {
	return map[string]string{
		"name":             "Rex",
		"type":             "dog",
		"breed":            "Labrador",
		"color":            "Black",
		"gender":           "male",
		"status":           "missing",
		"lastSeenDate":     "2024-01-10",
		"lastSeenLocation": `{"address":"1 Main St","city":"Springfield","coordinates":{"type":"Point","coordinates":[-73.98,40.75]}}`,
		"tags":             `["friendly","red collar"]`,
	}
}

func (a *app) createPet(token string, fields map[string]string) domain.Pet {
	a.t.Helper()
	body, ct := petForm(a.t, fields, "rex.jpg")
	req := httptest.NewRequest(http.MethodPost, "/api/pets", body)
	req.Header.Set("Content-Type", ct)
	code, env := a.do(req, token)
	if code != http.StatusCreated {
		a.t.Fatalf("create pet: %d %+v", code, env.Error)
	}
	var out struct {
		Pet domain.Pet `json:"pet"`
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		a.t.Fatal(err)
	}
	return out.Pet
}

func listTotal(t *testing.T, env envelope) int64 {
	t.Helper()
	var page struct {
		Pets       []domain.Pet      `json:"pets"`
		Pagination domain.Pagination `json:"pagination"`
	}
	if err := json.Unmarshal(env.Data, &page); err != nil {
		t.Fatal(err)
	}
	return page.Pagination.Total
}

func TestPetIsListedOnlyAfterApproval(t *testing.T) {
	a := newApp(t)
	_, owner := a.register("Olive Owner", "olive@example.com")
	_, admin := a.register("Ada Admin", "ada@example.com")
	a.promote("ada@example.com")

	pet := a.createPet(owner, lostDog())
	if pet.IsApproved || len(pet.Photos) != 1 || len(pet.Tags) != 2 {
		t.Fatalf("created pet = %+v", pet)
	}
	if pet.LastSeenLocation.Point() == nil {
		t.Fatal("coordinates were dropped")
	}

	_, env := a.json(http.MethodGet, "/api/pets", "", nil)
	if n := listTotal(t, env); n != 0 {
		t.Fatalf("anonymous list before approval = %d", n)
	}

	code, env := a.json(http.MethodPatch, "/api/pets/"+pet.ID+"/approve", owner, nil)
	if code != http.StatusForbidden {
		t.Fatalf("owner approve = %d", code)
	}
	code, env = a.json(http.MethodPatch, "/api/pets/"+pet.ID+"/approve", admin, nil)
	if code != http.StatusOK || !env.Success {
		t.Fatalf("admin approve = %d %+v", code, env.Error)
	}

	_, env = a.json(http.MethodGet, "/api/pets", "", nil)
	if n := listTotal(t, env); n != 1 {
		t.Fatalf("anonymous list after approval = %d", n)
	}
	_, env = a.json(http.MethodGet, "/api/pets/search/nearby?latitude=40.75&longitude=-73.98&radius=5", "", nil)
	if n := listTotal(t, env); n != 1 {
		t.Fatalf("nearby = %d", n)
	}

	_, env = a.json(http.MethodGet, "/api/notifications", owner, nil)
	var notes struct {
		Notifications []domain.Notification `json:"notifications"`
		UnreadCount   int64                 `json:"unreadCount"`
	}
	if err := json.Unmarshal(env.Data, &notes); err != nil {
		t.Fatal(err)
	}
	if notes.UnreadCount != 1 || notes.Notifications[0].Type != domain.NotifyPostApproved {
		t.Fatalf("owner notifications = %+v", notes)
	}
}

func TestOwnershipGate(t *testing.T) {
	a := newApp(t)
	_, owner := a.register("Olive Owner", "olive@example.com")
	_, other := a.register("Oscar Other", "oscar@example.com")
	pet := a.createPet(owner, lostDog())

	code, env := a.json(http.MethodDelete, "/api/pets/"+pet.ID, other, nil)
	if code != http.StatusForbidden || env.Error.Message != "Not authorized to access this resource" {
		t.Fatalf("foreign delete = %d %+v", code, env.Error)
	}
	changed := lostDog()
	changed["color"] = "White"
	body, ct := petForm(t, changed)
	req := httptest.NewRequest(http.MethodPut, "/api/pets/"+pet.ID, body)
	req.Header.Set("Content-Type", ct)
	code, env = a.do(req, other)
	if code != http.StatusForbidden {
		t.Fatalf("foreign update = %d %+v", code, env.Error)
	}
	p, err := a.store.Pets().FindByID(context.Background(), pet.ID)
	if err != nil || p.Color != "Black" || len(p.Photos) != 1 || !p.IsActive {
		t.Fatalf("pet after forbidden writes = %+v, %v", p, err)
	}
	code, _ = a.json(http.MethodDelete, "/api/pets/missing-id", other, nil)
	if code != http.StatusNotFound {
		t.Fatalf("missing pet = %d", code)
	}
	code, _ = a.json(http.MethodPatch, "/api/pets/"+pet.ID+"/reunite", owner, nil)
	if code != http.StatusOK {
		t.Fatalf("owner reunite = %d", code)
	}
}

func TestContactOwner(t *testing.T) {
	a := newApp(t)
	_, owner := a.register("Olive Owner", "olive@example.com")
	_, admin := a.register("Ada Admin", "ada@example.com")
	a.promote("ada@example.com")
	_, finder := a.register("Fran Finder", "fran@example.com")
	pet := a.createPet(owner, lostDog())

	msg := gin.H{"name": "Fran", "email": "fran@example.com", "phone": "+15550111", "message": "I think I saw your dog."}
	code, env := a.json(http.MethodPost, "/api/pets/"+pet.ID+"/contact", finder, msg)
	if code != http.StatusForbidden {
		t.Fatalf("contact unapproved = %d %+v", code, env.Error)
	}
	a.json(http.MethodPatch, "/api/pets/"+pet.ID+"/approve", admin, nil)

	code, env = a.json(http.MethodPost, "/api/pets/"+pet.ID+"/contact", finder, msg)
	if code != http.StatusOK {
		t.Fatalf("contact = %d %+v", code, env.Error)
	}
	if a.mailer.count(mail.ContactRequest) != 1 {
		t.Fatalf("contact emails = %d", a.mailer.count(mail.ContactRequest))
	}
	p, err := a.store.Pets().FindByID(context.Background(), pet.ID)
	if err != nil || p.ContactCount != 1 {
		t.Fatalf("contacts = %+v, %v", p, err)
	}
}

func TestAnonymousContactNotifiesOwner(t *testing.T) {
	a := newApp(t)
	_, owner := a.register("Olive Owner", "olive@example.com")
	_, admin := a.register("Ada Admin", "ada@example.com")
	a.promote("ada@example.com")
	pet := a.createPet(owner, lostDog())
	a.json(http.MethodPatch, "/api/pets/"+pet.ID+"/approve", admin, nil)

	code, env := a.json(http.MethodPost, "/api/pets/"+pet.ID+"/contact", "", gin.H{
		"name": "Vic Visitor", "email": "vic@example.com", "phone": "+15550122", "message": "Your dog is in my yard.",
	})
	if code != http.StatusOK || env.Message != "Contact request sent successfully" {
		t.Fatalf("anonymous contact = %d %+v", code, env.Error)
	}
	if n := a.mailer.count(mail.ContactRequest); n != 1 {
		t.Fatalf("contact emails = %d", n)
	}
	p, err := a.store.Pets().FindByID(context.Background(), pet.ID)
	if err != nil || p.ContactCount != 1 {
		t.Fatalf("contacts = %+v, %v", p, err)
	}

	_, env = a.json(http.MethodGet, "/api/notifications", owner, nil)
	var notes struct {
		Notifications []domain.Notification `json:"notifications"`
	}
	if err := json.Unmarshal(env.Data, &notes); err != nil {
		t.Fatal(err)
	}
	requests := 0
	for _, n := range notes.Notifications {
		if n.Type == domain.NotifyContactRequest {
			requests++
		}
	}
	if requests != 1 {
		t.Fatalf("contact_request notifications = %d in %+v", requests, notes.Notifications)
	}
}

func TestPetFormErrors(t *testing.T) {
	a := newApp(t)
	_, owner := a.register("Olive Owner", "olive@example.com")

	bad := lostDog()
	bad["lastSeenLocation"] = "{not json"
	body, ct := petForm(t, bad, "rex.jpg")
	req := httptest.NewRequest(http.MethodPost, "/api/pets", body)
	req.Header.Set("Content-Type", ct)
	code, env := a.do(req, owner)
	if code != http.StatusBadRequest || env.Error.Message != "Invalid location data format" {
		t.Fatalf("bad location = %d %+v", code, env.Error)
	}

	body, ct = petForm(t, lostDog())
	req = httptest.NewRequest(http.MethodPost, "/api/pets", body)
	req.Header.Set("Content-Type", ct)
	code, env = a.do(req, owner)
	if code != http.StatusBadRequest || env.Error.Message != "At least one photo is required" {
		t.Fatalf("no photos = %d %+v", code, env.Error)
	}
}

func TestAuthEnvelopes(t *testing.T) {
	a := newApp(t)

	code, env := a.json(http.MethodGet, "/api/auth/me", "", nil)
	if code != http.StatusUnauthorized || env.Error.Message != "Not authorized, no token" {
		t.Fatalf("me without token = %d %+v", code, env.Error)
	}
	code, env = a.json(http.MethodPost, "/api/auth/register", "", gin.H{"email": "nope"})
	if code != http.StatusBadRequest || env.Error.Fields["email"] == "" || env.Error.Fields["password"] == "" {
		t.Fatalf("bad register = %d %+v", code, env.Error)
	}

	_, token := a.register("Olive Owner", "olive@example.com")
	code, _ = a.json(http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "Olive Again", "email": "olive@example.com", "password": "Secret1", "phone": "+15550100",
	})
	if code != http.StatusConflict {
		t.Fatalf("duplicate register = %d", code)
	}
	code, env = a.json(http.MethodGet, "/api/auth/me", token, nil)
	if code != http.StatusOK {
		t.Fatalf("me = %d %+v", code, env.Error)
	}
	code, _ = a.json(http.MethodGet, "/api/admin/dashboard", token, nil)
	if code != http.StatusForbidden {
		t.Fatalf("dashboard as user = %d", code)
	}
}

func TestReportFlow(t *testing.T) {
	a := newApp(t)
	ownerID, owner := a.register("Olive Owner", "olive@example.com")
	_, reporter := a.register("Rita Reporter", "rita@example.com")
	_, admin := a.register("Ada Admin", "ada@example.com")
	a.promote("ada@example.com")

	code, env := a.json(http.MethodPost, "/api/reports", reporter, gin.H{
		"type": "spam", "reason": "Posting ads", "reportedUserId": ownerID,
	})
	if code != http.StatusCreated {
		t.Fatalf("create report = %d %+v", code, env.Error)
	}
	var out struct {
		Report domain.Report `json:"report"`
	}
	_ = json.Unmarshal(env.Data, &out)

	code, _ = a.json(http.MethodGet, "/api/reports/"+out.Report.ID, owner, nil)
	if code != http.StatusOK {
		t.Fatalf("reported user view = %d", code)
	}
	code, env = a.json(http.MethodPut, "/api/admin/reports/"+out.Report.ID, admin, gin.H{
		"status": "resolved", "action": "warn_user",
	})
	if code != http.StatusOK {
		t.Fatalf("resolve = %d %+v", code, env.Error)
	}
	code, _ = a.json(http.MethodPut, "/api/reports/"+out.Report.ID, reporter, gin.H{"reason": "changed"})
	if code != http.StatusBadRequest {
		t.Fatalf("edit after review = %d", code)
	}

	_, env = a.json(http.MethodGet, "/api/notifications/unread-count", reporter, nil)
	var count struct {
		Count int64 `json:"count"`
	}
	_ = json.Unmarshal(env.Data, &count)
	if count.Count != 2 {
		t.Fatalf("reporter unread = %d, want received + resolved", count.Count)
	}
}

func TestUnknownRouteAndMethod(t *testing.T) {
	a := newApp(t)

	code, env := a.json(http.MethodGet, "/api/nope", "", nil)
	if code != http.StatusNotFound || env.Error.Message != "Not found - /api/nope" {
		t.Fatalf("unknown route = %d %+v", code, env.Error)
	}
	code, env = a.json(http.MethodDelete, "/health", "", nil)
	if code != http.StatusMethodNotAllowed || env.Success {
		t.Fatalf("wrong method = %d %+v", code, env.Error)
	}
	code, env = a.json(http.MethodGet, "/health", "", nil)
	if code != http.StatusOK || !env.Success {
		t.Fatalf("health = %d", code)
	}
}
