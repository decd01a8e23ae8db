package handlers

import (
	"errors"
	"io"
	"io/fs"
	"log"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/regdesk/portalserver/internal/services"
	"github.com/regdesk/portalserver/internal/storage"
	"github.com/regdesk/portalserver/internal/store"
	"github.com/regdesk/portalserver/types"
)

const (
	maxMultipartMemory = 32 << 20
	formFieldPicture   = "profile_picture"
	uploadPathPrefix   = "/uploads/"
)

// UserHandler serves registration, the dashboards, record updates,
// deletion, and profile picture retrieval.
type UserHandler struct {
	users    *services.UserService
	verifier services.CredentialVerifier
	uploads  *storage.Storage
	renderer Renderer
	audit    *services.AuditPublisher
}

// NewUserHandler constructs a UserHandler with the provided dependencies.
func NewUserHandler(users *services.UserService, verifier services.CredentialVerifier, uploads *storage.Storage, renderer Renderer, audit *services.AuditPublisher) *UserHandler {
	return &UserHandler{
		users:    users,
		verifier: verifier,
		uploads:  uploads,
		renderer: renderer,
		audit:    audit,
	}
}

// RegisterPage serves the registration form.
func (h *UserHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, ViewRegister, nil)
}

// Register creates a user record from the multipart registration form.
// At most one profile picture is stored, under its original filename.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeText(w, http.StatusBadRequest, "Invalid registration form")
		return
	}

	picturePath, err := h.storePicture(r)
	if err != nil {
		log.Printf("register: store picture: %v", err)
		writeText(w, http.StatusInternalServerError, "Error registering user")
		return
	}

	user, err := h.buildUser(r, picturePath)
	if err != nil {
		writeText(w, http.StatusBadRequest, err.Error())
		return
	}

	// Read-then-write duplicate check; the unique index on email is
	// the backstop for the race between the two.
	if _, err := h.users.GetByEmail(r.Context(), user.Email); err == nil {
		writeText(w, http.StatusOK, "User already exists. Please choose a different email.")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		writeText(w, http.StatusInternalServerError, "Error registering user")
		return
	}

	created, err := h.users.Create(r.Context(), user)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			writeText(w, http.StatusOK, "User already exists. Please choose a different email.")
			return
		}
		writeText(w, http.StatusInternalServerError, "Error registering user")
		return
	}

	h.audit.Publish(r.Context(), services.EventUserRegistered, created.ID, created.Email)
	redirect(w, r, "/admin")
}

// UserDashboard lists every record on the user dashboard.
func (h *UserHandler) UserDashboard(w http.ResponseWriter, r *http.Request) {
	h.dashboard(w, r, ViewUser)
}

// AdminDashboard lists every record on the admin dashboard.
func (h *UserHandler) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	h.dashboard(w, r, ViewAdmin)
}

func (h *UserHandler) dashboard(w http.ResponseWriter, r *http.Request, view string) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeText(w, http.StatusInternalServerError, "Error fetching from DB")
		return
	}
	h.render(w, view, map[string]any{"Users": users})
}

// UpdateForm serves the edit form prefilled with the record.
func (h *UserHandler) UpdateForm(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(r)
	if err != nil {
		writeText(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeText(w, http.StatusNotFound, "User not found")
			return
		}
		writeText(w, http.StatusInternalServerError, "Error rendering update form")
		return
	}
	h.render(w, ViewUpdate, map[string]any{"User": user})
}

// Update merges the submitted form fields into the record. Updating
// an absent id is a no-op.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(r)
	if err != nil {
		writeText(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := r.ParseForm(); err != nil {
		writeText(w, http.StatusBadRequest, "Invalid update form")
		return
	}
	fields := make(map[string]string, len(r.PostForm))
	for key, values := range r.PostForm {
		if len(values) > 0 {
			fields[key] = values[0]
		}
	}

	if err := h.users.UpdateByID(r.Context(), id, fields); err != nil {
		writeText(w, http.StatusInternalServerError, "Error updating user")
		return
	}

	h.audit.Publish(r.Context(), services.EventUserUpdated, id, fields["email"])
	redirect(w, r, "/admin")
}

// DeleteRedirect removes the record and returns to the admin
// dashboard. Deleting an absent id succeeds.
func (h *UserHandler) DeleteRedirect(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(r)
	if err != nil {
		writeText(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		writeText(w, http.StatusInternalServerError, "Error deleting user")
		return
	}

	h.audit.Publish(r.Context(), services.EventUserDeleted, id, "")
	redirect(w, r, "/admin")
}

// Delete removes the record and confirms with a JSON message.
// Deleting an absent id succeeds.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(r)
	if err != nil {
		writeText(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		writeText(w, http.StatusInternalServerError, "Error deleting user")
		return
	}

	h.audit.Publish(r.Context(), services.EventUserDeleted, id, "")
	writeJSON(w, http.StatusOK, MessageResponse{Message: "User deleted successfully"})
}

// ServeUpload streams a stored profile picture.
func (h *UserHandler) ServeUpload(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	object, err := h.uploads.Get(r.Context(), filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeText(w, http.StatusNotFound, "File not found")
			return
		}
		writeText(w, http.StatusInternalServerError, "Error reading file")
		return
	}
	defer object.Close()

	if contentType := mime.TypeByExtension(filepath.Ext(filename)); contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	if _, err := io.Copy(w, object); err != nil {
		log.Printf("serve upload %s: %v", filename, err)
	}
}

// storePicture persists the uploaded picture, if any, and returns its
// reference path. No file means an empty path.
func (h *UserHandler) storePicture(r *http.Request) (string, error) {
	file, header, err := r.FormFile(formFieldPicture)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", err
	}
	defer file.Close()

	// Original client filename, reduced to its base name. Collisions
	// overwrite the previous file.
	key := filepath.Base(header.Filename)
	contentType := header.Header.Get("Content-Type")
	if err := h.uploads.Put(r.Context(), key, file, header.Size, contentType); err != nil {
		return "", err
	}
	return uploadPathPrefix + key, nil
}

func (h *UserHandler) buildUser(r *http.Request, picturePath string) (types.User, error) {
	form := r.MultipartForm.Value
	value := func(key string) string {
		if values := form[key]; len(values) > 0 {
			return values[0]
		}
		return ""
	}

	email := value("email")
	password := value("password")
	if email == "" || password == "" {
		return types.User{}, errors.New("missing required fields: email and password")
	}

	stored, err := h.verifier.Store(password)
	if err != nil {
		return types.User{}, err
	}

	details := map[string]string{}
	for key, values := range form {
		switch key {
		case "email", "password", "is_admin", "declaration", formFieldPicture:
			continue
		}
		if len(values) > 0 {
			details[key] = values[0]
		}
	}

	return types.User{
		Email:          email,
		Password:       stored,
		IsAdmin:        value("is_admin") == "true",
		ProfilePicture: picturePath,
		Declaration:    value("declaration") == "true",
		Details:        details,
		CreatedAt:      time.Now(),
	}, nil
}

func (h *UserHandler) render(w http.ResponseWriter, name string, data any) {
	if err := h.renderer.Render(w, name, data); err != nil {
		log.Printf("render %s: %v", name, err)
		writeText(w, http.StatusInternalServerError, "Error rendering page")
	}
}

func parseUserID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid user id")
	}
	return id, nil
}
