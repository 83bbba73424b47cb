package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"inventory/m/domain"
	"inventory/m/internal/imports"
	"inventory/m/internal/ledger"
	"inventory/m/internal/progress"
	"inventory/m/internal/store"
	"inventory/m/internal/testutil"
)

type testServer struct {
	*httptest.Server
	pool  *imports.Pool
	token string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s := store.New(testutil.NewDB(t))
	registry := progress.NewRegistry()
	pool := imports.NewPool(context.Background(), 3)
	svc := imports.NewService(t.TempDir(), registry, pool, imports.NewWorker(s, registry))
	h := New(s, ledger.New(s, nil), svc, registry, nil, Options{
		Secret:         "test-secret",
		TokenTTL:       time.Minute,
		AllowedOrigins: []string{"*"},
	})
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, pool: pool}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	return ts.send(t, req)
}

func (ts *testServer) send(t *testing.T, req *http.Request) (*http.Response, map[string]any) {
	t.Helper()
	if ts.token != "" {
		req.Header.Set("Authorization", "Bearer "+ts.token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var raw json.RawMessage
	_ = json.NewDecoder(resp.Body).Decode(&raw)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		_ = json.Unmarshal(raw, &out)
	} else {
		out["list"] = raw
	}
	return resp, out
}

func (ts *testServer) login(t *testing.T) {
	t.Helper()
	resp, body := ts.do(t, http.MethodPost, "/api/auth/register", map[string]any{
		"username": "vendedor", "email": "Vendedor@Example.com", "password": "secreto123",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: %d %v", resp.StatusCode, body)
	}
	if _, leaked := body["hashed_password"]; leaked {
		t.Fatal("password hash exposed")
	}
	resp, body = ts.do(t, http.MethodPost, "/api/auth/login", map[string]any{
		"username": "vendedor", "password": "secreto123",
	})
	if resp.StatusCode != http.StatusOK || body["token_type"] != "bearer" {
		t.Fatalf("login: %d %v", resp.StatusCode, body)
	}
	ts.token = body["access_token"].(string)
}

func (ts *testServer) createProduct(t *testing.T, name string, price string, stock int) int64 {
	t.Helper()
	resp, body := ts.do(t, http.MethodPost, "/api/products", map[string]any{
		"name": name, "price": price, "stock": stock,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create product: %d %v", resp.StatusCode, body)
	}
	return int64(body["id"].(float64))
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, http.MethodGet, "/api/products", nil)
	if resp.StatusCode != http.StatusUnauthorized || body["error"] == nil {
		t.Fatalf("anonymous request: %d %v", resp.StatusCode, body)
	}

	ts.login(t)
	resp, body = ts.do(t, http.MethodGet, "/api/auth/me", nil)
	if resp.StatusCode != http.StatusOK || body["username"] != "vendedor" || body["email"] != "vendedor@example.com" {
		t.Fatalf("me: %d %v", resp.StatusCode, body)
	}

	resp, body = ts.do(t, http.MethodPost, "/api/auth/register", map[string]any{
		"username": "vendedor", "email": "otro@example.com", "password": "secreto123",
	})
	if resp.StatusCode != http.StatusBadRequest || !strings.Contains(body["error"].(string), "ya existe") {
		t.Fatalf("duplicate register: %d %v", resp.StatusCode, body)
	}

	ts.token = ""
	resp, _ = ts.do(t, http.MethodPost, "/api/auth/login", map[string]any{"username": "vendedor", "password": "incorrecta"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad password: %d", resp.StatusCode)
	}
	ts.token = "not-a-token"
	resp, _ = ts.do(t, http.MethodGet, "/api/auth/me", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad token: %d", resp.StatusCode)
	}
}

func TestProductEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t)

	resp, body := ts.do(t, http.MethodPost, "/api/categories", map[string]any{"name": "Útiles Escolares"})
	if resp.StatusCode != http.StatusCreated || body["slug"] != "utiles-escolares" {
		t.Fatalf("create category: %d %v", resp.StatusCode, body)
	}

	id := ts.createProduct(t, "Cuaderno", "12.50", 3)
	resp, body = ts.do(t, http.MethodGet, fmt.Sprintf("/api/products/%d", id), nil)
	if resp.StatusCode != http.StatusOK || body["price"] != "12.5" {
		t.Fatalf("get product: %d %v", resp.StatusCode, body)
	}

	resp, body = ts.do(t, http.MethodPost, "/api/products", map[string]any{"name": "Gratis", "price": 0})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("zero price: %d %v", resp.StatusCode, body)
	}

	resp, body = ts.do(t, http.MethodGet, "/api/products/alerts/low-stock", nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body["list"].(json.RawMessage)), "Cuaderno") {
		t.Fatalf("low stock: %d %v", resp.StatusCode, body)
	}

	resp, body = ts.do(t, http.MethodPut, fmt.Sprintf("/api/products/%d", id), map[string]any{"stock": 40})
	if resp.StatusCode != http.StatusOK || body["stock"].(float64) != 40 {
		t.Fatalf("update product: %d %v", resp.StatusCode, body)
	}

	resp, _ = ts.do(t, http.MethodGet, "/api/products/999", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing product: %d", resp.StatusCode)
	}
	resp, _ = ts.do(t, http.MethodGet, "/api/products/abc", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad id: %d", resp.StatusCode)
	}

	resp, body = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/products/%d", id), nil)
	if resp.StatusCode != http.StatusOK || body["message"] != "Producto eliminado exitosamente" {
		t.Fatalf("delete: %d %v", resp.StatusCode, body)
	}
}

func TestSaleEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t)
	id := ts.createProduct(t, "Lápiz", "2.50", 10)

	sale := map[string]any{"items": []map[string]any{{"product_id": id, "quantity": 10, "unit_price": "2.50"}}}
	resp, body := ts.do(t, http.MethodPost, "/api/sales", sale)
	if resp.StatusCode != http.StatusCreated || body["total_amount"] != "25" || body["status"] != "completed" {
		t.Fatalf("create sale: %d %v", resp.StatusCode, body)
	}
	saleID := int64(body["id"].(float64))

	sale = map[string]any{"items": []map[string]any{{"product_id": id, "quantity": 1, "unit_price": "2.50"}}}
	resp, body = ts.do(t, http.MethodPost, "/api/sales", sale)
	want := "Stock insuficiente para 'Lápiz'. Disponible: 0, Solicitado: 1"
	if resp.StatusCode != http.StatusBadRequest || body["error"] != want {
		t.Fatalf("insufficient stock: %d %v", resp.StatusCode, body)
	}

	resp, body = ts.do(t, http.MethodGet, fmt.Sprintf("/api/sales/%d/items", saleID), nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body["list"].(json.RawMessage)), `"product_name":"Lápiz"`) {
		t.Fatalf("sale items: %d %v", resp.StatusCode, body)
	}

	resp, body = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/products/%d", id), nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("delete sold product: %d %v", resp.StatusCode, body)
	}

	resp, body = ts.do(t, http.MethodGet, "/api/sales/stats/summary", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("summary: %d %v", resp.StatusCode, body)
	}
	summary := body["summary"].(map[string]any)
	if summary["total_sales"].(float64) != 1 || summary["total_amount"] != "25" {
		t.Fatalf("summary = %v", summary)
	}

	resp, body = ts.do(t, http.MethodPut, fmt.Sprintf("/api/sales/%d/cancel", saleID), nil)
	if resp.StatusCode != http.StatusOK || body["message"] != "Venta cancelada exitosamente" {
		t.Fatalf("cancel: %d %v", resp.StatusCode, body)
	}
	resp, body = ts.do(t, http.MethodPut, fmt.Sprintf("/api/sales/%d/cancel", saleID), nil)
	if resp.StatusCode != http.StatusBadRequest || body["error"] != "La venta ya está cancelada" {
		t.Fatalf("second cancel: %d %v", resp.StatusCode, body)
	}
	resp, body = ts.do(t, http.MethodGet, fmt.Sprintf("/api/products/%d", id), nil)
	if body["stock"].(float64) != 10 {
		t.Fatalf("stock after cancel: %v", body)
	}

	resp, _ = ts.do(t, http.MethodGet, "/api/sales?status=cancelled", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list sales: %d", resp.StatusCode)
	}
	resp, _ = ts.do(t, http.MethodGet, "/api/sales?status=refunded", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad status filter: %d", resp.StatusCode)
	}
	resp, _ = ts.do(t, http.MethodGet, "/api/sales/77", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing sale: %d", resp.StatusCode)
	}
}

func TestUploadAndProgress(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "productos.csv")
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("name,sku,price,stock\nCuaderno,CU-1,10.50,5\nLapicera,LA-1,0,3\nGoma,GO-1,1.25,7\n"))
	mw.Close()

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/products/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, body := ts.send(t, req)
	if resp.StatusCode != http.StatusAccepted || body["status"] != "processing" {
		t.Fatalf("upload: %d %v", resp.StatusCode, body)
	}
	uploadID := body["upload_id"].(string)
	if body["check_progress_url"] != "/api/products/upload/progress/"+uploadID {
		t.Fatalf("progress url = %v", body["check_progress_url"])
	}

	ts.pool.Wait()
	resp, body = ts.do(t, http.MethodGet, "/api/products/upload/progress/"+uploadID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("progress: %d %v", resp.StatusCode, body)
	}
	if body["status"] != string(domain.ImportCompleted) || body["exitosos"].(float64) != 2 ||
		body["errores"].(float64) != 1 || body["progress"].(float64) != 100 {
		t.Fatalf("progress body = %v", body)
	}
	details := body["detalles_errores"].([]any)
	if len(details) != 1 || !strings.HasPrefix(details[0].(string), "Fila 2") {
		t.Fatalf("details = %v", details)
	}

	resp, _ = ts.do(t, http.MethodGet, "/api/products/upload/progress/unknown", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown upload: %d", resp.StatusCode)
	}
	resp, body = ts.do(t, http.MethodGet, "/api/products/upload/jobs", nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body["list"].(json.RawMessage)), uploadID) {
		t.Fatalf("jobs: %d %v", resp.StatusCode, body)
	}
}

func TestUploadRejectsUnsupportedFile(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("file", "notas.txt")
	part.Write([]byte("hola"))
	mw.Close()

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/products/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, body := ts.send(t, req)
	if resp.StatusCode != http.StatusBadRequest || !strings.Contains(body["error"].(string), ".xlsx") {
		t.Fatalf("upload: %d %v", resp.StatusCode, body)
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, body := ts.do(t, http.MethodGet, "/health", nil)
	if resp.StatusCode != http.StatusOK || body["database"] != "connected" {
		t.Fatalf("health: %d %v", resp.StatusCode, body)
	}
}
