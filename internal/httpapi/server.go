package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"storyswap/internal/auth"
	"storyswap/internal/catalog"
	"storyswap/internal/config"
	"storyswap/internal/db"
	"storyswap/internal/lending"
	"storyswap/internal/mail"
	"storyswap/internal/models"
)

type Server struct {
	cfg      *config.Config
	catalog  *catalog.Service
	lending  *lending.Service
	verifier auth.Verifier
	sender   mail.Sender
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func New(cfg *config.Config, cat *catalog.Service, lend *lending.Service, verifier auth.Verifier, sender mail.Sender) *Server {
	return &Server{
		cfg:      cfg,
		catalog:  cat,
		lending:  lend,
		verifier: verifier,
		sender:   sender,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/send-request", s.handleSendRequest)
	mux.HandleFunc("/respond-request", s.handleRespondRequest)
	mux.HandleFunc("/add-book", s.handleAddBook)
	mux.HandleFunc("/get-books", s.handleGetBooks)
	mux.HandleFunc("/update-book/", s.handleUpdateBook)
	mux.HandleFunc("/delete-book/", s.handleDeleteBook)
	mux.HandleFunc("/verify-token", s.handleVerifyToken)
	mux.HandleFunc("/test-email", s.handleTestEmail)
	mux.HandleFunc("/debug-env", s.handleDebugEnv)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		mux.ServeHTTP(rec, r)
		log.Printf("http %s %s -> %d", r.Method, r.URL.Path, rec.status)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleSendRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, result(false, "method not allowed"))
		return
	}

	var req lending.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, result(false, "invalid json"))
		return
	}

	sent, err := s.lending.SubmitRequest(r.Context(), req)
	if err != nil {
		if errors.Is(err, lending.ErrMissingFields) {
			writeJSON(w, http.StatusBadRequest, result(false, "Missing required fields"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, result(false, err.Error()))
		return
	}

	if sent {
		writeJSON(w, http.StatusOK, result(true, "Email sent!"))
		return
	}
	writeJSON(w, http.StatusOK, result(false, "Failed to send email."))
}

func (s *Server) handleRespondRequest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resp := lending.Response{
		Action:        q.Get("action"),
		BorrowerEmail: q.Get("borrowerEmail"),
		BookTitle:     q.Get("bookTitle"),
		LenderName:    q.Get("lenderName"),
	}

	// The click is the decision: the acknowledgment page goes back even when
	// the borrower notification fails to send.
	if _, err := s.lending.Respond(r.Context(), resp); err != nil {
		if errors.Is(err, lending.ErrMissingParams) {
			writeJSON(w, http.StatusBadRequest, result(false, "Missing required params"))
			return
		}
		writeHTML(w, http.StatusInternalServerError,
			"<script>alert('Error: your response could not be processed.');</script>")
		return
	}

	writeHTML(w, http.StatusOK, `
<script>
	alert('Your response has been recorded. Borrower has been notified.');
	window.close();
</script>
`)
}

func (s *Server) handleAddBook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, result(false, "method not allowed"))
		return
	}

	var book models.Book
	if err := json.NewDecoder(r.Body).Decode(&book); err != nil {
		writeJSON(w, http.StatusBadRequest, result(false, "invalid json"))
		return
	}

	if _, err := s.catalog.Add(r.Context(), book); err != nil {
		if errors.Is(err, catalog.ErrMissingFields) {
			writeJSON(w, http.StatusBadRequest, result(false, "Missing fields"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, result(false, err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, result(true, "Book added successfully!"))
}

func (s *Server) handleGetBooks(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("ownerId")

	books, err := s.catalog.ListByOwner(r.Context(), ownerID)
	if err != nil {
		if errors.Is(err, catalog.ErrMissingOwnerID) {
			writeJSON(w, http.StatusBadRequest, result(false, "Missing ownerId"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, result(false, err.Error()))
		return
	}

	if books == nil {
		books = []models.Book{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "books": books})
}

func (s *Server) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeJSON(w, http.StatusMethodNotAllowed, result(false, "method not allowed"))
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/update-book/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, result(false, "Missing book id"))
		return
	}

	var patch models.BookPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, result(false, "invalid json"))
		return
	}

	if err := s.catalog.Update(r.Context(), id, patch); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, result(false, "Book not found"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, result(false, err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, result(true, "Book updated successfully!"))
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeJSON(w, http.StatusMethodNotAllowed, result(false, "method not allowed"))
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/delete-book/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, result(false, "Missing book id"))
		return
	}

	if err := s.catalog.Delete(r.Context(), id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, result(false, "Book not found"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, result(false, err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, result(true, "Book deleted successfully!"))
}

func (s *Server) handleVerifyToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, result(false, "method not allowed"))
		return
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, result(false, "invalid json"))
		return
	}
	if body.Token == "" {
		writeJSON(w, http.StatusBadRequest, result(false, "Missing token"))
		return
	}

	uid, err := s.verifier.Verify(r.Context(), body.Token)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, result(false, err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "uid": uid})
}

func (s *Server) handleTestEmail(w http.ResponseWriter, r *http.Request) {
	to := s.cfg.TestEmail
	if to == "" {
		writeJSON(w, http.StatusBadRequest, result(false, "TEST_EMAIL is not configured"))
		return
	}

	sent := s.sender.Send(r.Context(), to,
		"StorySwap Email Test (SendGrid)",
		"<h1>SendGrid Test Successful!</h1><p>Your backend is sending emails.</p>")

	if sent {
		writeJSON(w, http.StatusOK, result(true, "Email sent!"))
		return
	}
	writeJSON(w, http.StatusOK, result(false, "Failed to send email."))
}

// handleDebugEnv reports which secrets are configured, never their values.
func (s *Server) handleDebugEnv(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"SENDGRID_API_KEY_set": s.cfg.SendGridAPIKey != "",
		"FROM_EMAIL_set":       s.cfg.FromEmail != "",
		"SECRET_KEY_set":       s.cfg.SecretKey != "",
		"IDENTITY_URL_set":     s.cfg.IdentityURL != "",
		"BASE_URL":             s.cfg.BaseURL,
		"STORE_DRIVER":         s.cfg.StoreDriver,
	})
}

func result(success bool, message string) map[string]any {
	return map[string]any{"success": success, "message": message}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeHTML(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
