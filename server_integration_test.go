package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

// helper to perform requests with auth token
func performRequest(r http.Handler, method, path string, body io.Reader, token string, contentType string) *httptest.ResponseRecorder {
	// allow callers to pass nil for body safely
	req, _ := http.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func setupTestServer(t *testing.T) *gin.Engine {
	// integration tests are opt-in. Set DB_DSN_TEST=1 and DB_DSN to run them.
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	gin.SetMode(gin.TestMode)
	jwtSecret = []byte("test-secret")
	tmp := t.TempDir()
	_ = os.Setenv("UPLOAD_BASE", tmp)
	initDB()
	r := gin.Default()
	setupRoutes(r)
	return r
}

func loginTestUser(t *testing.T, r *gin.Engine, username string) string {
	t.Helper()
	regBody, _ := json.Marshal(map[string]string{"username": username, "password": "pass123"})
	resp := performRequest(r, http.MethodPost, "/register", bytes.NewBuffer(regBody), "", "application/json")
	if resp.Code != 200 && resp.Code != 409 {
		t.Fatalf("register failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	resp = performRequest(r, http.MethodPost, "/login", bytes.NewBuffer(regBody), "", "application/json")
	if resp.Code != 200 {
		t.Fatalf("login failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var loginResp map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &loginResp)
	token, _ := loginResp["token"].(string)
	if token == "" {
		t.Fatalf("empty token in login response: %+v", loginResp)
	}
	return token
}

func TestFullSettlementFlow(t *testing.T) {
	r := setupTestServer(t)
	token := loginTestUser(t, r, fmt.Sprintf("flow-%d", time.Now().UnixNano()))

	// 1. Create an obligation that was due yesterday.
	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	obBody, _ := json.Marshal(map[string]string{
		"kind": "tax", "name": "Income tax Q2", "amount": "100.00",
		"currency_code": "EUR", "due_date": yesterday,
	})
	resp := performRequest(r, http.MethodPost, "/obligations", bytes.NewBuffer(obBody), token, "application/json")
	if resp.Code != 200 {
		t.Fatalf("create obligation failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var ob map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &ob)
	obID, _ := ob["ID"].(string)
	if obID == "" {
		t.Fatalf("no obligation id in response: %+v", ob)
	}
	if ob["status"] != "overdue" {
		t.Fatalf("expected overdue, got %v", ob["status"])
	}
	if ob["amount_display"] != "100.00" {
		t.Fatalf("expected display 100.00, got %v", ob["amount_display"])
	}

	// 2. Record a partial payment (JSON body).
	payBody, _ := json.Marshal(map[string]string{"amount": "40.00", "paid_at": yesterday})
	resp = performRequest(r, http.MethodPost, "/obligations/"+obID+"/payments", bytes.NewBuffer(payBody), token, "application/json")
	if resp.Code != 200 {
		t.Fatalf("record payment failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 3. Record the rest via multipart with a proof-of-payment file.
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	_ = mw.WriteField("amount", "60.00")
	_ = mw.WriteField("paid_at", yesterday)
	_ = mw.WriteField("note", "bank transfer ref 4711")
	w, _ := mw.CreateFormFile("proof", "receipt.pdf")
	_, _ = w.Write([]byte("%PDF-1.4 fake receipt"))
	_ = mw.Close()
	resp = performRequest(r, http.MethodPost, "/obligations/"+obID+"/payments", buf, token, mw.FormDataContentType())
	if resp.Code != 200 {
		t.Fatalf("multipart payment failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var pay map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &pay)
	fileRef, _ := pay["ProofOfPaymentFile"].(string)
	if fileRef == "" {
		t.Fatalf("payment should carry attachment ref: %+v", pay)
	}

	// 4. Obligation is now fully paid.
	resp = performRequest(r, http.MethodGet, "/obligations/"+obID, nil, token, "")
	if resp.Code != 200 {
		t.Fatalf("get obligation failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &ob)
	if ob["status"] != "paid" || ob["remaining"] != float64(0) {
		t.Fatalf("expected paid/0 remaining, got status=%v remaining=%v", ob["status"], ob["remaining"])
	}

	// 5. One cent more must be rejected.
	payBody, _ = json.Marshal(map[string]string{"amount": "0.01", "paid_at": yesterday})
	resp = performRequest(r, http.MethodPost, "/obligations/"+obID+"/payments", bytes.NewBuffer(payBody), token, "application/json")
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for overpayment, got %d body=%s", resp.Code, resp.Body.String())
	}

	// 6. Storage usage was recomputed after the upload.
	resp = performRequest(r, http.MethodGet, "/me", nil, token, "")
	var me map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &me)
	if used, _ := me["storage_used"].(float64); used <= 0 {
		t.Fatalf("storage_used should be positive after upload: %+v", me)
	}

	// 7. Attachment downloads for the owner.
	resp = performRequest(r, http.MethodGet, "/files/"+fileRef, nil, token, "")
	if resp.Code != 200 {
		t.Fatalf("file download failed status=%d", resp.Code)
	}

	// 8. Grouped listing and stats.
	resp = performRequest(r, http.MethodGet, "/obligations?group=month", nil, token, "")
	if resp.Code != 200 {
		t.Fatalf("grouped list failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	resp = performRequest(r, http.MethodGet, "/obligations/stats", nil, token, "")
	if resp.Code != 200 {
		t.Fatalf("stats failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 9. Deleting the obligation cascades; the attachment file stays.
	resp = performRequest(r, http.MethodDelete, "/obligations/"+obID, nil, token, "")
	if resp.Code != 200 {
		t.Fatalf("delete obligation failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	resp = performRequest(r, http.MethodGet, "/files/"+fileRef, nil, token, "")
	if resp.Code != 200 {
		t.Fatalf("attachment must survive obligation deletion, got %d", resp.Code)
	}

	// 10. Unauthorized access to protected endpoint should be 401.
	unauth := performRequest(r, http.MethodGet, "/obligations", nil, "", "")
	if unauth.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unauthorized list, got %d", unauth.Code)
	}
}

func TestCrossUserAccessIsNotFound(t *testing.T) {
	r := setupTestServer(t)
	now := time.Now().UnixNano()
	ownerToken := loginTestUser(t, r, fmt.Sprintf("owner-%d", now))
	strangerToken := loginTestUser(t, r, fmt.Sprintf("stranger-%d", now))

	obBody, _ := json.Marshal(map[string]string{
		"name": "Rent", "amount": "500.00", "currency_code": "USD", "due_date": "2026-12-01",
	})
	resp := performRequest(r, http.MethodPost, "/obligations", bytes.NewBuffer(obBody), ownerToken, "application/json")
	if resp.Code != 200 {
		t.Fatalf("create failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var ob map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &ob)
	obID := ob["ID"].(string)

	// The stranger gets the same 404 whether the record exists or not.
	resp = performRequest(r, http.MethodGet, "/obligations/"+obID, nil, strangerToken, "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign obligation, got %d", resp.Code)
	}
	payBody, _ := json.Marshal(map[string]string{"amount": "1.00", "paid_at": "2026-08-01"})
	resp = performRequest(r, http.MethodPost, "/obligations/"+obID+"/payments", bytes.NewBuffer(payBody), strangerToken, "application/json")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign payment attempt, got %d", resp.Code)
	}
}

func TestMigrateCommand(t *testing.T) {
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	initDB()
}
