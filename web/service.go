package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/foliohq/folio/book"
	"github.com/foliohq/folio/collab"
	canvasrenderer "github.com/foliohq/folio/renderer/canvas"
	"github.com/foliohq/folio/store"
	"github.com/foliohq/folio/theme"
)

const maxUploadBytes = 16 << 20

// Service wires the store, the collab client and the renderer behind the
// HTTP API.
type Service struct {
	Store    *store.Store
	Collab   *collab.Client
	Renderer *canvasrenderer.Renderer
	Auth     *Auth

	ThemeDir  string
	UploadDir string

	server *http.Server
}

// Routes builds the API router.
func (s *Service) Routes() http.Handler {
	r := NewRouter()
	recov := WrapperFunc(RecoverWrapper)

	r.HandleFunc("POST /api/users", s.handleRegister, recov)
	r.HandleFunc("POST /api/login", s.handleLogin, recov)

	r.HandleFunc("GET /api/books", s.handleListBooks, recov, s.Auth)
	r.HandleFunc("POST /api/books", s.handleCreateBook, recov, s.Auth)
	r.HandleFunc("GET /api/books/{id}", s.handleGetBook, recov, s.Auth)
	r.HandleFunc("PUT /api/books/{id}", s.handleUpdateBook, recov, s.Auth)
	r.HandleFunc("DELETE /api/books/{id}", s.handleDeleteBook, recov, s.Auth)
	r.HandleFunc("POST /api/books/{id}/members", s.handleAddMember, recov, s.Auth)

	r.HandleFunc("GET /api/books/{id}/messages", s.handleListMessages, recov, s.Auth)
	r.HandleFunc("POST /api/books/{id}/messages", s.handlePostMessage, recov, s.Auth)
	r.HandleFunc("GET /api/books/{id}/presence", s.handlePresence, recov, s.Auth)
	r.HandleFunc("POST /api/books/{id}/presence", s.handleTouchPresence, recov, s.Auth)

	r.HandleFunc("POST /api/preview", s.handlePreview, recov, s.Auth)
	r.HandleFunc("POST /api/uploads", s.handleUpload, recov, s.Auth)
	r.HandleFunc("GET /api/books/{id}/export", s.handleExport, recov, s.Auth)

	return r
}

// ListenAndServe runs the HTTP server until ctx is cancelled.
func (s *Service) ListenAndServe(ctx context.Context, addr string) error {
	s.server = &http.Server{Addr: addr, Handler: s.Routes()}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[INFO] listening on %s", addr)
		errCh <- s.server.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

//---- auth & users ----

type credentials struct {
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Password string `json:"password"`
}

func (s *Service) handleRegister(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if !decodeBody(w, r, &creds) {
		return
	}
	if creds.Email == "" || !strings.Contains(creds.Email, "@") {
		WriteSimpleErrorJSON(w, http.StatusBadRequest, "invalid email")
		return
	}
	u, err := s.Store.CreateUser(r.Context(), creds.Email, creds.Name, creds.Password)
	if errors.Is(err, store.ErrEmailTaken) {
		WriteSimpleErrorJSON(w, http.StatusConflict, "email already registered")
		return
	}
	if err != nil {
		WriteSimpleErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	EncodeWriteJSON(w, http.StatusCreated, u)
}

func (s *Service) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if !decodeBody(w, r, &creds) {
		return
	}
	u, err := s.Store.Authenticate(r.Context(), creds.Email, creds.Password)
	if err != nil {
		WriteSimpleErrorJSON(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	token, err := s.Auth.IssueToken(u.ID)
	if err != nil {
		WriteSimpleErrorJSON(w, http.StatusInternalServerError, "token issue failed")
		return
	}
	EncodeWriteJSON(w, http.StatusOK, map[string]any{"token": token, "user": u})
}

//---- books ----

func (s *Service) handleListBooks(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	books, err := s.Store.ListBooks(r.Context(), userID)
	if err != nil {
		WriteSimpleErrorJSON(w, http.StatusInternalServerError, "listing books failed")
		return
	}
	EncodeWriteJSON(w, http.StatusOK, books)
}

func (s *Service) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	var b book.Book
	if !decodeBody(w, r, &b) {
		return
	}
	created, err := s.Store.CreateBook(r.Context(), userID, &b)
	if err != nil {
		WriteSimpleErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	EncodeWriteJSON(w, http.StatusCreated, created)
}

func (s *Service) handleGetBook(w http.ResponseWriter, r *http.Request) {
	b, ok := s.accessibleBook(w, r)
	if !ok {
		return
	}
	EncodeWriteJSON(w, http.StatusOK, b)
}

func (s *Service) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	existing, ok := s.accessibleBook(w, r)
	if !ok {
		return
	}
	var b book.Book
	if !decodeBody(w, r, &b) {
		return
	}
	b.ID, b.OwnerID = existing.ID, existing.OwnerID
	if err := s.Store.UpdateBook(r.Context(), &b); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			WriteSimpleErrorJSON(w, http.StatusNotFound, "book not found")
			return
		}
		WriteSimpleErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	EncodeWriteJSON(w, http.StatusOK, Message{Type: "ok", Message: "updated"})
}

func (s *Service) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	b, ok := s.accessibleBook(w, r)
	if !ok {
		return
	}
	if b.OwnerID != userID {
		WriteSimpleErrorJSON(w, http.StatusForbidden, "only the owner can delete a book")
		return
	}
	if err := s.Store.DeleteBook(r.Context(), b.ID); err != nil {
		WriteSimpleErrorJSON(w, http.StatusInternalServerError, "delete failed")
		return
	}
	EncodeWriteJSON(w, http.StatusOK, Message{Type: "ok", Message: "deleted"})
}

func (s *Service) handleAddMember(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	b, ok := s.accessibleBook(w, r)
	if !ok {
		return
	}
	if b.OwnerID != userID {
		WriteSimpleErrorJSON(w, http.StatusForbidden, "only the owner can add members")
		return
	}
	var req struct {
		UserID int64  `json:"userId"`
		Role   string `json:"role,omitempty"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.Store.AddMember(r.Context(), b.ID, req.UserID, req.Role); err != nil {
		WriteSimpleErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	EncodeWriteJSON(w, http.StatusOK, Message{Type: "ok", Message: "member added"})
}

//---- collaboration ----

func (s *Service) handleListMessages(w http.ResponseWriter, r *http.Request) {
	b, ok := s.accessibleBook(w, r)
	if !ok {
		return
	}
	n, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	msgs, err := s.Collab.Recent(r.Context(), b.ID, n)
	if err != nil {
		WriteSimpleErrorJSON(w, http.StatusInternalServerError, "reading messages failed")
		return
	}
	EncodeWriteJSON(w, http.StatusOK, msgs)
}

func (s *Service) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	b, ok := s.accessibleBook(w, r)
	if !ok {
		return
	}
	var msg collab.Message
	if !decodeBody(w, r, &msg) {
		return
	}
	if strings.TrimSpace(msg.Body) == "" {
		WriteSimpleErrorJSON(w, http.StatusBadRequest, "empty message")
		return
	}
	msg.AuthorID = userID
	if err := s.Collab.Append(r.Context(), b.ID, msg); err != nil {
		WriteSimpleErrorJSON(w, http.StatusInternalServerError, "storing message failed")
		return
	}
	EncodeWriteJSON(w, http.StatusCreated, msg)
}

func (s *Service) handlePresence(w http.ResponseWriter, r *http.Request) {
	b, ok := s.accessibleBook(w, r)
	if !ok {
		return
	}
	ids, err := s.Collab.Active(r.Context(), b.ID)
	if err != nil {
		WriteSimpleErrorJSON(w, http.StatusInternalServerError, "reading presence failed")
		return
	}
	EncodeWriteJSON(w, http.StatusOK, map[string]any{"active": ids})
}

func (s *Service) handleTouchPresence(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	b, ok := s.accessibleBook(w, r)
	if !ok {
		return
	}
	if err := s.Collab.Touch(r.Context(), b.ID, userID); err != nil {
		WriteSimpleErrorJSON(w, http.StatusInternalServerError, "touch failed")
		return
	}
	EncodeWriteJSON(w, http.StatusOK, Message{Type: "ok", Message: "touched"})
}

//---- layout preview, uploads, export ----

// handlePreview runs the layout engine for a single element so the editor
// can show exactly what the PDF will contain.
func (s *Service) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Theme   string         `json:"theme,omitempty"`
		Frame   book.Frame     `json:"frame"`
		Element book.QAElement `json:"element"`
		Data    map[string]any `json:"data,omitempty"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	th, err := s.loadTheme(req.Theme)
	if err != nil {
		WriteSimpleErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.Renderer.LayoutElement(&req.Element, req.Frame, th, req.Data)
	if err != nil {
		WriteSimpleErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	EncodeWriteJSON(w, http.StatusOK, res)
}

func (s *Service) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		WriteSimpleErrorJSON(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		WriteSimpleErrorJSON(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if name == "" || name == "." || name == string(filepath.Separator) {
		WriteSimpleErrorJSON(w, http.StatusBadRequest, "invalid filename")
		return
	}
	dst := filepath.Join(s.UploadDir, fmt.Sprintf("%d-%s", time.Now().UnixNano(), name))
	out, err := os.Create(dst)
	if err != nil {
		WriteSimpleErrorJSON(w, http.StatusInternalServerError, "saving upload failed")
		return
	}
	defer out.Close()
	if _, err := io.Copy(out, io.LimitReader(file, maxUploadBytes)); err != nil {
		WriteSimpleErrorJSON(w, http.StatusInternalServerError, "saving upload failed")
		return
	}
	EncodeWriteJSON(w, http.StatusCreated, map[string]string{"src": filepath.Base(dst)})
}

func (s *Service) handleExport(w http.ResponseWriter, r *http.Request) {
	b, ok := s.accessibleBook(w, r)
	if !ok {
		return
	}
	themeName := r.URL.Query().Get("theme")
	if themeName == "" {
		themeName = b.Theme
	}
	th, err := s.loadTheme(themeName)
	if err != nil {
		WriteSimpleErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	pdfBytes, err := s.Renderer.Render(b, th, nil)
	if err != nil {
		log.Printf("[ERROR] export of book %d failed: %v", b.ID, err)
		WriteSimpleErrorJSON(w, http.StatusInternalServerError, "export failed")
		return
	}
	WritePDFBytes(w, fmt.Sprintf("%s.pdf", safeFilename(b.Title)), pdfBytes)
}

//---- helpers ----

// accessibleBook loads the book from the {id} path segment and enforces
// owner-or-member access; it writes the error response itself.
func (s *Service) accessibleBook(w http.ResponseWriter, r *http.Request) (*book.Book, bool) {
	userID, _ := UserID(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		WriteSimpleErrorJSON(w, http.StatusBadRequest, "invalid book id")
		return nil, false
	}
	ok, err := s.Store.CanAccess(r.Context(), id, userID)
	if err != nil {
		WriteSimpleErrorJSON(w, http.StatusInternalServerError, "access check failed")
		return nil, false
	}
	if !ok {
		WriteSimpleErrorJSON(w, http.StatusNotFound, "book not found")
		return nil, false
	}
	b, err := s.Store.GetBook(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			WriteSimpleErrorJSON(w, http.StatusNotFound, "book not found")
		} else {
			WriteSimpleErrorJSON(w, http.StatusInternalServerError, "loading book failed")
		}
		return nil, false
	}
	return b, true
}

func (s *Service) loadTheme(name string) (*theme.Theme, error) {
	if name == "" {
		name = "default"
	}
	if strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("invalid theme name %q", name)
	}
	f, err := os.Open(filepath.Join(s.ThemeDir, name+".theme"))
	if err != nil {
		return nil, fmt.Errorf("theme %q not found", name)
	}
	defer f.Close()
	return theme.Load(f)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	if err := jsonDecode(r.Body, dst); err != nil {
		WriteSimpleErrorJSON(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func safeFilename(title string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '"', '<', '>', '|', '?', '*':
			return '-'
		}
		return r
	}, strings.TrimSpace(title))
	if cleaned == "" {
		return "book"
	}
	return cleaned
}
