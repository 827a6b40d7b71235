package handlers_test

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"shopkeep/internal/config"
	"shopkeep/internal/domain"
	"shopkeep/internal/http/handlers"
	"shopkeep/internal/repos"
	"shopkeep/internal/services"
	"shopkeep/internal/storage"
)

// Minimal app setup mirroring the wiring in cmd/shopkeep.
func newTestApp(t *testing.T) (*fiber.App, *sqlx.DB, *storage.MediaStore) {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)

	media, err := storage.NewMediaStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	userRepo := repos.NewUserRepo(db)
	authSvc := &services.AuthService{Users: userRepo}
	authH := &handlers.AuthHandler{Auth: authSvc}

	engine := html.New("../../web/templates", ".html")
	app := fiber.New(fiber.Config{Views: engine})
	app.Server().MaxRequestBodySize = 3 << 20
	app.Use(requestid.New())
	app.Use(csrf.New(csrf.Config{KeyLookup: "form:csrf", CookieName: "csrf_", CookieSameSite: "Lax"}))
	app.Use(func(c *fiber.Ctx) error {
		if sid := c.Cookies("sid"); sid != "" {
			if u, err := authSvc.CurrentUser(sid); err == nil && u != nil {
				c.Locals("user", u)
			}
		}
		return c.Next()
	})

	cfg := config.Config{DBDSN: ":memory:", MaxImageBytes: 2 << 20}
	deps := handlers.NewDeps(db, cfg, media)
	prodH := deps.ProductHandler

	app.Get("/products", prodH.Index)
	app.Get("/products/new", handlers.RequireUser(authSvc), prodH.NewForm)
	app.Get("/products/:key", prodH.Show)
	app.Post("/products", handlers.RequireUser(authSvc), prodH.Create)
	app.Get("/products/:key/edit", handlers.RequireUser(authSvc), prodH.EditForm)
	app.Post("/products/:key", handlers.RequireUser(authSvc), prodH.Update)
	app.Post("/products/:key/delete", handlers.RequireUser(authSvc), prodH.Delete)
	app.Get("/login", authH.LoginForm)
	app.Post("/login", authH.Login)
	app.Post("/logout", authH.Logout)

	return app, db, media
}

func extractCookie(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// login authenticates the seeded editor and returns csrf token + session id.
func login(t *testing.T, app *fiber.App) (string, string) {
	t.Helper()
	loginResp, err := app.Test(httptest.NewRequest("GET", "/login", nil))
	if err != nil {
		t.Fatal(err)
	}
	csrfTok := extractCookie(loginResp, "csrf_")
	if csrfTok == "" {
		t.Fatal("csrf token missing")
	}

	form := strings.NewReader("csrf=" + csrfTok + "&email=editor@shopkeep.test&password=Passw0rd!")
	req := httptest.NewRequest("POST", "/login", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: csrfTok})
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("login expected 302, got %d", resp.StatusCode)
	}
	sid := extractCookie(resp, "sid")
	if sid == "" {
		t.Fatal("sid not set after login")
	}
	return csrfTok, sid
}

// postForm submits a multipart product form with optional image.
func postForm(t *testing.T, app *fiber.App, path, csrfTok, sid string, fields map[string]string, imageName string, image []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("csrf", csrfTok)
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	if imageName != "" {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="image"; filename="`+imageName+`"`)
		h.Set("Content-Type", "image/png")
		fw, err := w.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(image); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: csrfTok})
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestProductCRUDFlow(t *testing.T) {
	app, _, _ := newTestApp(t)
	csrfTok, sid := login(t, app)

	// Create
	resp := postForm(t, app, "/products", csrfTok, sid, map[string]string{
		"name": "Game Boy Color", "price": "129.99", "description": "Handheld console",
	}, "", nil)
	if resp.StatusCode != http.StatusFound {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("create expected 302, got %d body=%s", resp.StatusCode, body)
	}
	loc := resp.Header.Get("Location")
	if loc != "/products/game-boy-color" {
		t.Fatalf("redirect = %q, want /products/game-boy-color", loc)
	}

	// Show (public)
	showResp, err := app.Test(httptest.NewRequest("GET", loc, nil))
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(showResp.Body)
	if showResp.StatusCode != http.StatusOK || !strings.Contains(string(body), "Game Boy Color") {
		t.Fatalf("show = %d, body missing product name", showResp.StatusCode)
	}
	if !strings.Contains(string(body), "129.99") {
		t.Fatal("show body missing price")
	}

	// Update (same name keeps slug)
	resp = postForm(t, app, loc, csrfTok, sid, map[string]string{
		"name": "Game Boy Color", "price": "99.90",
	}, "", nil)
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != loc {
		t.Fatalf("update expected 302 back to %s, got %d -> %q", loc, resp.StatusCode, resp.Header.Get("Location"))
	}
	showResp, err = app.Test(httptest.NewRequest("GET", loc, nil))
	if err != nil {
		t.Fatal(err)
	}
	body, _ = io.ReadAll(showResp.Body)
	if !strings.Contains(string(body), "99.90") {
		t.Fatal("updated price not rendered")
	}

	// Delete
	resp = postForm(t, app, loc+"/delete", csrfTok, sid, nil, "", nil)
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/products" {
		t.Fatalf("delete expected 302 to /products, got %d", resp.StatusCode)
	}
	showResp, err = app.Test(httptest.NewRequest("GET", loc, nil))
	if err != nil {
		t.Fatal(err)
	}
	if showResp.StatusCode != http.StatusNotFound {
		t.Fatalf("deleted product show = %d, want 404", showResp.StatusCode)
	}
}

func TestCreateRequiresLogin(t *testing.T) {
	app, db, _ := newTestApp(t)

	loginResp, err := app.Test(httptest.NewRequest("GET", "/login", nil))
	if err != nil {
		t.Fatal(err)
	}
	csrfTok := extractCookie(loginResp, "csrf_")

	resp := postForm(t, app, "/products", csrfTok, "", map[string]string{
		"name": "Sneaky", "price": "1.00",
	}, "", nil)
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/login" {
		t.Fatalf("expected redirect to /login, got %d -> %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM products`); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("product created without login: %d", n)
	}
}

func TestCreateValidationErrors(t *testing.T) {
	app, db, _ := newTestApp(t)
	csrfTok, sid := login(t, app)

	cases := []map[string]string{
		{"name": "", "price": "10.00"},
		{"name": "Priceless", "price": "abc"},
		{"name": "Negative", "price": "-1"},
		{"name": "Too Precise", "price": "1.999"},
	}
	for _, fields := range cases {
		resp := postForm(t, app, "/products", csrfTok, sid, fields, "", nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("fields %v expected 400, got %d", fields, resp.StatusCode)
		}
	}

	// Oversized upload is rejected by validation.
	big := bytes.Repeat([]byte("x"), (2<<20)+1)
	resp := postForm(t, app, "/products", csrfTok, sid, map[string]string{
		"name": "Big Picture", "price": "10.00",
	}, "big.png", big)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("oversized image expected 400, got %d", resp.StatusCode)
	}

	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM products`); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("invalid input persisted %d row(s)", n)
	}
}

func TestCreateWithImage(t *testing.T) {
	app, db, media := newTestApp(t)
	csrfTok, sid := login(t, app)

	resp := postForm(t, app, "/products", csrfTok, sid, map[string]string{
		"name": "Pictured", "price": "10.00",
	}, "main.png", []byte("png-bytes"))
	if resp.StatusCode != http.StatusFound {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("create expected 302, got %d body=%s", resp.StatusCode, body)
	}

	var ref string
	if err := db.Get(&ref, `SELECT image_path FROM products WHERE slug='pictured'`); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(ref, "products/") || !media.Exists(ref) {
		t.Fatalf("image ref %q not stored", ref)
	}
}

func TestIndexPaginationClamp(t *testing.T) {
	app, db, _ := newTestApp(t)

	r := repos.NewProductRepo()
	for _, p := range []domain.Product{
		{ID: "p1", Name: "One", Slug: "one", Price: decimal.RequireFromString("1.00")},
		{ID: "p2", Name: "Two", Slug: "two", Price: decimal.RequireFromString("2.00")},
		{ID: "p3", Name: "Three", Slug: "three", Price: decimal.RequireFromString("3.00")},
	} {
		if err := r.Insert(db, p); err != nil {
			t.Fatal(err)
		}
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/products?per_page=2", nil))
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "Page 1 of 2") {
		t.Fatalf("per_page=2 should paginate: %s", body)
	}

	// Values above 100 clamp, so all three fit one page.
	resp, err = app.Test(httptest.NewRequest("GET", "/products?per_page=500", nil))
	if err != nil {
		t.Fatal(err)
	}
	body, _ = io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "Page 1 of 1") || !strings.Contains(string(body), "(3 products)") {
		t.Fatalf("per_page=500 should clamp to one page: %s", body)
	}
}
