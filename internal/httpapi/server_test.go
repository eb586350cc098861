package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storyswap/internal/alert"
	"storyswap/internal/catalog"
	"storyswap/internal/config"
	"storyswap/internal/db"
	"storyswap/internal/lending"
	"storyswap/internal/models"
)

type fakeSender struct {
	calls    int
	lastTo   string
	lastSubj string
	lastBody string
	ok       bool
}

func (f *fakeSender) Send(_ context.Context, to, subject, htmlBody string) bool {
	f.calls++
	f.lastTo = to
	f.lastSubj = subject
	f.lastBody = htmlBody
	return f.ok
}

type fakeVerifier struct {
	uid string
	err error
}

func (f fakeVerifier) Verify(context.Context, string) (string, error) { return f.uid, f.err }

type memStore struct {
	seq   int
	books map[string]models.Book
}

func newMemStore() *memStore {
	return &memStore{books: make(map[string]models.Book)}
}

func (m *memStore) AddBook(_ context.Context, book models.Book) (string, error) {
	m.seq++
	id := fmt.Sprintf("book-%d", m.seq)
	m.books[id] = book
	return id, nil
}

func (m *memStore) BooksByOwner(_ context.Context, ownerID string) ([]models.Book, error) {
	var out []models.Book
	for id, book := range m.books {
		if book.OwnerID == ownerID {
			book.ID = id
			out = append(out, book)
		}
	}
	return out, nil
}

func (m *memStore) UpdateBook(_ context.Context, id string, patch models.BookPatch) error {
	book, ok := m.books[id]
	if !ok {
		return db.ErrNotFound
	}
	patch.Apply(&book)
	m.books[id] = book
	return nil
}

func (m *memStore) DeleteBook(_ context.Context, id string) error {
	if _, ok := m.books[id]; !ok {
		return db.ErrNotFound
	}
	delete(m.books, id)
	return nil
}

func (m *memStore) Close() error { return nil }

type testEnv struct {
	handler http.Handler
	sender  *fakeSender
	store   *memStore
}

func newTestEnv(t *testing.T, verifier fakeVerifier) *testEnv {
	t.Helper()

	cfg := &config.Config{
		BaseURL:   "http://localhost:5000",
		TestEmail: "ops@example.com",
	}
	sender := &fakeSender{ok: true}
	store := newMemStore()

	srv := New(cfg,
		catalog.NewService(store),
		lending.NewService(sender, alert.New("", 0), cfg.BaseURL),
		verifier,
		sender,
	)

	return &testEnv{handler: srv.Handler(), sender: sender, store: store}
}

func (e *testEnv) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestBorrowRequestEndToEnd(t *testing.T) {
	env := newTestEnv(t, fakeVerifier{})

	rec := env.do(http.MethodPost, "/send-request",
		`{"lenderEmail":"l@x.com","borrowerEmail":"b@x.com","bookTitle":"Dune"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("send-request status = %d body=%s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Fatalf("send-request body = %v", body)
	}
	if env.sender.calls != 1 || env.sender.lastTo != "l@x.com" {
		t.Fatalf("expected one email to lender, got %d to %q", env.sender.calls, env.sender.lastTo)
	}
	if !strings.Contains(env.sender.lastSubj, "Dune") {
		t.Fatalf("subject = %q", env.sender.lastSubj)
	}

	rec = env.do(http.MethodGet,
		"/respond-request?action=accept&borrowerEmail=b@x.com&bookTitle=Dune&lenderName=L", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("respond-request status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Fatalf("respond-request content type = %q", ct)
	}
	if env.sender.calls != 2 || env.sender.lastTo != "b@x.com" {
		t.Fatalf("expected borrower email, got %d calls, last to %q", env.sender.calls, env.sender.lastTo)
	}
	if !strings.Contains(env.sender.lastBody, "ACCEPTED") {
		t.Fatal("borrower email missing ACCEPTED marker")
	}
}

func TestSendRequestMissingFields(t *testing.T) {
	env := newTestEnv(t, fakeVerifier{})

	rec := env.do(http.MethodPost, "/send-request", `{"lenderEmail":"l@x.com"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if msg := decodeBody(t, rec)["message"]; msg != "Missing required fields" {
		t.Fatalf("message = %v", msg)
	}
	if env.sender.calls != 0 {
		t.Fatal("transport must not be invoked")
	}
}

func TestRespondRequestMissingParams(t *testing.T) {
	env := newTestEnv(t, fakeVerifier{})

	rec := env.do(http.MethodGet, "/respond-request?action=accept&bookTitle=Dune", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if env.sender.calls != 0 {
		t.Fatal("transport must not be invoked")
	}
}

func TestRespondRequestAcknowledgesDespiteSendFailure(t *testing.T) {
	env := newTestEnv(t, fakeVerifier{})
	env.sender.ok = false

	rec := env.do(http.MethodGet,
		"/respond-request?action=decline&borrowerEmail=b@x.com&bookTitle=Dune&lenderName=L", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("the decision is recorded by the click; status = %d", rec.Code)
	}
}

func TestAddBookAndGetBooks(t *testing.T) {
	env := newTestEnv(t, fakeVerifier{})

	rec := env.do(http.MethodPost, "/add-book", `{
		"title":"Dune","author":"Frank Herbert","genre":"Sci-Fi",
		"condition":"Good","description":"Epic","coverImage":"aGVsbG8=",
		"ownerId":"owner-1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("add-book status = %d body=%s", rec.Code, rec.Body.String())
	}

	rec = env.do(http.MethodGet, "/get-books?ownerId=owner-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get-books status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	books, ok := body["books"].([]any)
	if !ok || len(books) != 1 {
		t.Fatalf("books = %v", body["books"])
	}
	book := books[0].(map[string]any)
	if book["id"] == "" || book["availability"] != "Available" {
		t.Fatalf("book = %v", book)
	}
}

func TestAddBookMissingField(t *testing.T) {
	env := newTestEnv(t, fakeVerifier{})

	rec := env.do(http.MethodPost, "/add-book", `{"title":"Dune","ownerId":"owner-1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if msg := decodeBody(t, rec)["message"]; msg != "Missing fields" {
		t.Fatalf("message = %v", msg)
	}
	if len(env.store.books) != 0 {
		t.Fatal("store must not be touched")
	}
}

func TestGetBooksMissingOwner(t *testing.T) {
	env := newTestEnv(t, fakeVerifier{})

	rec := env.do(http.MethodGet, "/get-books", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestUpdateBookPartial(t *testing.T) {
	env := newTestEnv(t, fakeVerifier{})
	id, _ := env.store.AddBook(context.Background(), models.Book{
		Title: "Dune", Author: "Frank Herbert", OwnerID: "owner-1",
	})

	rec := env.do(http.MethodPut, "/update-book/"+id, `{"title":"Dune Messiah","author":null}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}

	book := env.store.books[id]
	if book.Title != "Dune Messiah" {
		t.Fatalf("title = %q", book.Title)
	}
	if book.Author != "Frank Herbert" {
		t.Fatalf("null must not clear author, got %q", book.Author)
	}
}

func TestUpdateBookNotFound(t *testing.T) {
	env := newTestEnv(t, fakeVerifier{})

	rec := env.do(http.MethodPut, "/update-book/no-such-id", `{"title":"X"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if msg := decodeBody(t, rec)["message"]; msg != "Book not found" {
		t.Fatalf("message = %v", msg)
	}
}

func TestDeleteBook(t *testing.T) {
	env := newTestEnv(t, fakeVerifier{})
	id, _ := env.store.AddBook(context.Background(), models.Book{Title: "Dune", OwnerID: "owner-1"})

	rec := env.do(http.MethodDelete, "/delete-book/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = env.do(http.MethodDelete, "/delete-book/"+id, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d", rec.Code)
	}
}

func TestVerifyToken(t *testing.T) {
	env := newTestEnv(t, fakeVerifier{uid: "uid-123"})

	rec := env.do(http.MethodPost, "/verify-token", `{"token":"abc"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if uid := decodeBody(t, rec)["uid"]; uid != "uid-123" {
		t.Fatalf("uid = %v", uid)
	}
}

func TestVerifyTokenMissing(t *testing.T) {
	env := newTestEnv(t, fakeVerifier{uid: "uid-123"})

	rec := env.do(http.MethodPost, "/verify-token", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestVerifyTokenInvalid(t *testing.T) {
	env := newTestEnv(t, fakeVerifier{err: errors.New("INVALID_ID_TOKEN")})

	rec := env.do(http.MethodPost, "/verify-token", `{"token":"bad"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	if msg := decodeBody(t, rec)["message"]; !strings.Contains(msg.(string), "INVALID_ID_TOKEN") {
		t.Fatalf("message = %v", msg)
	}
}

func TestTestEmailRoute(t *testing.T) {
	env := newTestEnv(t, fakeVerifier{})

	rec := env.do(http.MethodGet, "/test-email", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if env.sender.lastTo != "ops@example.com" {
		t.Fatalf("test email went to %q", env.sender.lastTo)
	}
}

func TestDebugEnvNeverLeaksValues(t *testing.T) {
	env := newTestEnv(t, fakeVerifier{})

	rec := env.do(http.MethodGet, "/debug-env", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if _, ok := body["SENDGRID_API_KEY_set"].(bool); !ok {
		t.Fatalf("expected boolean flags, got %v", body)
	}
}
