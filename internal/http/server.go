package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Jackrayallday/uniproj/internal/authz"
	"github.com/Jackrayallday/uniproj/internal/config"
	"github.com/Jackrayallday/uniproj/internal/model"
	"github.com/Jackrayallday/uniproj/internal/ratelimit"
	"github.com/Jackrayallday/uniproj/internal/session"
	"github.com/Jackrayallday/uniproj/internal/store"
)

// Stores groups the persistence interfaces the server needs. The JSON-file
// store satisfies all of them; a Postgres deployment swaps Users and ACL.
type Stores struct {
	Users       store.UserStore
	ACL         store.ACLStore
	Courses     store.CourseStore
	Assignments store.AssignmentStore
	Grades      store.GradeStore
	Materials   store.MaterialStore
}

type Server struct {
	cfg      config.Config
	stores   Stores
	creds    *store.Credentials
	sessions *session.Manager
	gate     *authz.Gate
	limiter  ratelimit.Limiter
}

func NewServer(cfg config.Config, stores Stores, sessions *session.Manager, limiter ratelimit.Limiter) *Server {
	return &Server{
		cfg:      cfg,
		stores:   stores,
		creds:    store.NewCredentials(stores.Users, stores.ACL, cfg.BcryptCost),
		sessions: sessions,
		gate:     authz.NewGate(sessions, stores.ACL),
		limiter:  limiter,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Welcome to UniProj! This is your course manager backend."))
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)
	r.Get("/session", s.handleSession)
	r.Post("/register", s.handleRegister)

	r.With(s.require(authz.Login())).Get("/courses", s.handleListCourses)
	r.With(s.require(authz.Role(model.RoleAdmin), authz.Permission("courses", "write"))).
		Post("/courses/add", s.handleAddCourse)
	r.With(s.require(authz.Role(model.RoleAdmin), authz.Permission("courses", "write"))).
		Post("/courses/enroll", s.handleEnroll)
	r.With(s.require(authz.Role(model.RoleAdmin), authz.Permission("courses", "write"))).
		Post("/courses/remove-student", s.handleRemoveStudent)

	r.With(s.require(authz.Login())).Get("/assignments", s.handleListAssignments)
	r.With(s.require(authz.Role(model.RoleInstructor), authz.Permission("assignments", "write"))).
		Post("/assignments", s.handleAddAssignment)
	r.With(s.require(authz.Role(model.RoleInstructor), authz.Permission("assignments", "write"))).
		Post("/assignments/remove", s.handleRemoveAssignment)

	// Grade writes check the courses resource: gradebook access rides on
	// course write permission.
	r.With(s.require(authz.Role(model.RoleInstructor), authz.Permission("courses", "write"))).
		Post("/grades/assign", s.handleAssignGrade)
	r.With(s.require(authz.Role(model.RoleStudent))).Get("/grades/view", s.handleViewGrades)

	r.With(s.require(authz.Login())).Get("/materials/{course}", s.handleListMaterials)
	r.With(s.require(authz.Role(model.RoleInstructor), authz.Permission("materials", "write"))).
		Post("/materials", s.handleAddMaterial)

	r.Route("/acl", func(r chi.Router) {
		r.Use(s.require(authz.Role(model.RoleAdmin)))
		r.Get("/{email}", s.handleGetACL)
		r.Post("/grant", s.handleGrant)
		r.Post("/revoke", s.handleRevoke)
	})

	return r
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required.")
		return
	}

	// The limiter answers before any credential work so a throttled caller
	// cannot tell an unknown account from a bad password.
	admitted, err := s.limiter.Admit(r.Context(), clientIP(r))
	if err != nil {
		// Fail open: a broken limiter should not lock everyone out.
		log.Printf("rate limiter error: %v", err)
		admitted = true
	}
	if !admitted {
		loginAttempts.WithLabelValues("throttled").Inc()
		writeError(w, http.StatusTooManyRequests, "Too many login attempts. Try again later.")
		return
	}

	user, err := s.creds.VerifyLogin(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, store.ErrInvalidCredentials) {
			loginAttempts.WithLabelValues("invalid").Inc()
			writeError(w, http.StatusUnauthorized, "Invalid email or password.")
			return
		}
		loginAttempts.WithLabelValues("error").Inc()
		log.Printf("login verification error: %v", err)
		writeError(w, http.StatusInternalServerError, "Server error.")
		return
	}

	// Regenerate: any token the connection carried before login is
	// invalidated before identity attaches to a fresh one.
	token, err := s.sessions.Issue(r.Context(), s.sessionToken(r), user.Email, user.Role)
	if err != nil {
		log.Printf("session issue error: %v", err)
		writeError(w, http.StatusInternalServerError, "Server error.")
		return
	}
	s.setSessionCookie(w, token)

	loginAttempts.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Login successful.",
		"role":    user.Role,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Destroy(r.Context(), s.sessionToken(r)); err != nil {
		log.Printf("logout error: %v", err)
		writeError(w, http.StatusInternalServerError, "Server error.")
		return
	}
	s.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Logged out.",
	})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	ident, err := s.sessions.Resolve(r.Context(), s.sessionToken(r))
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"success":  true,
				"loggedIn": false,
			})
			return
		}
		log.Printf("session status error: %v", err)
		writeError(w, http.StatusInternalServerError, "Server error.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"loggedIn": true,
		"email":    ident.Email,
		"role":     ident.Role,
	})
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required.")
		return
	}
	role, ok := model.ParseRole(strings.TrimSpace(req.Role))
	if !ok {
		writeError(w, http.StatusBadRequest, "Role must be student, instructor or admin.")
		return
	}

	if err := s.creds.Register(r.Context(), req.Email, req.Password, role); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			writeError(w, http.StatusConflict, "Email already registered.")
			return
		}
		log.Printf("register error: %v", err)
		writeError(w, http.StatusInternalServerError, "Server error.")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Registration successful.",
	})
}

func (s *Server) handleListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := s.stores.Courses.ListCourses(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"courses": courses,
	})
}

type addCourseRequest struct {
	Course     string `json:"course"`
	Instructor string `json:"instructor"`
}

func (s *Server) handleAddCourse(w http.ResponseWriter, r *http.Request) {
	var req addCourseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	req.Course = strings.TrimSpace(req.Course)
	req.Instructor = strings.TrimSpace(req.Instructor)
	if req.Course == "" || req.Instructor == "" {
		writeError(w, http.StatusBadRequest, "Course and instructor are required.")
		return
	}

	course := model.Course{Course: req.Course, Instructor: req.Instructor, Students: []string{}}
	if err := s.stores.Courses.AddCourse(r.Context(), course); err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusConflict, "Course already exists.")
			return
		}
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Course added.",
	})
}

type enrollRequest struct {
	Course       string `json:"course"`
	StudentEmail string `json:"studentEmail"`
}

func (s *Server) handleEnroll(w http.ResponseWriter, r *http.Request) {
	var req enrollRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	req.Course = strings.TrimSpace(req.Course)
	req.StudentEmail = strings.TrimSpace(req.StudentEmail)
	if req.Course == "" || req.StudentEmail == "" {
		writeError(w, http.StatusBadRequest, "Course and student email are required.")
		return
	}

	if err := s.stores.Courses.Enroll(r.Context(), req.Course, req.StudentEmail); err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusConflict, "Student is already enrolled.")
			return
		}
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Course not found.")
			return
		}
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Student enrolled.",
	})
}

func (s *Server) handleRemoveStudent(w http.ResponseWriter, r *http.Request) {
	var req enrollRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	req.Course = strings.TrimSpace(req.Course)
	req.StudentEmail = strings.TrimSpace(req.StudentEmail)
	if req.Course == "" || req.StudentEmail == "" {
		writeError(w, http.StatusBadRequest, "Course and student email are required.")
		return
	}

	if err := s.stores.Courses.RemoveStudent(r.Context(), req.Course, req.StudentEmail); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Course or student not found.")
			return
		}
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Student removed from course.",
	})
}

func (s *Server) handleListAssignments(w http.ResponseWriter, r *http.Request) {
	course := strings.TrimSpace(r.URL.Query().Get("course"))
	if course == "" {
		writeError(w, http.StatusBadRequest, "Course is required.")
		return
	}
	assignments, err := s.stores.Assignments.ListAssignments(r.Context(), course)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"assignments": assignments,
	})
}

type assignmentRequest struct {
	Course string `json:"course"`
	Title  string `json:"title"`
}

func (s *Server) handleAddAssignment(w http.ResponseWriter, r *http.Request) {
	ident := identityFromContext(r.Context())
	var req assignmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	req.Course = strings.TrimSpace(req.Course)
	req.Title = strings.TrimSpace(req.Title)
	if req.Course == "" || req.Title == "" {
		writeError(w, http.StatusBadRequest, "Course and title are required.")
		return
	}

	assignment := model.Assignment{Course: req.Course, Title: req.Title, Instructor: ident.Email}
	if err := s.stores.Assignments.AddAssignment(r.Context(), assignment); err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusConflict, "Assignment already exists.")
			return
		}
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Assignment added.",
	})
}

func (s *Server) handleRemoveAssignment(w http.ResponseWriter, r *http.Request) {
	var req assignmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	req.Course = strings.TrimSpace(req.Course)
	req.Title = strings.TrimSpace(req.Title)
	if req.Course == "" || req.Title == "" {
		writeError(w, http.StatusBadRequest, "Course and title are required.")
		return
	}

	if err := s.stores.Assignments.RemoveAssignment(r.Context(), req.Course, req.Title); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Assignment not found.")
			return
		}
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Assignment removed.",
	})
}

type assignGradeRequest struct {
	Course     string  `json:"course"`
	Assignment string  `json:"assignment"`
	Student    string  `json:"student"`
	Grade      float64 `json:"grade"`
}

func (s *Server) handleAssignGrade(w http.ResponseWriter, r *http.Request) {
	var req assignGradeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	req.Course = strings.TrimSpace(req.Course)
	req.Assignment = strings.TrimSpace(req.Assignment)
	req.Student = strings.TrimSpace(req.Student)
	if req.Course == "" || req.Assignment == "" || req.Student == "" {
		writeError(w, http.StatusBadRequest, "Course, assignment and student are required.")
		return
	}
	if req.Grade < 0 || req.Grade > 100 {
		writeError(w, http.StatusBadRequest, "Grade must be between 0 and 100.")
		return
	}

	grade := model.Grade{
		Course:     req.Course,
		Assignment: req.Assignment,
		Student:    req.Student,
		Grade:      req.Grade,
	}
	if err := s.stores.Grades.UpsertGrade(r.Context(), grade); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Grade saved.",
	})
}

func (s *Server) handleViewGrades(w http.ResponseWriter, r *http.Request) {
	ident := identityFromContext(r.Context())
	grades, err := s.stores.Grades.ListGradesByStudent(r.Context(), ident.Email)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"grades":  grades,
	})
}

func (s *Server) handleListMaterials(w http.ResponseWriter, r *http.Request) {
	course := chi.URLParam(r, "course")
	materials, err := s.stores.Materials.ListMaterials(r.Context(), course)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"materials": materials,
	})
}

type materialRequest struct {
	Course string `json:"course"`
	Title  string `json:"title"`
	Link   string `json:"link"`
}

func (s *Server) handleAddMaterial(w http.ResponseWriter, r *http.Request) {
	var req materialRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	req.Course = strings.TrimSpace(req.Course)
	req.Title = strings.TrimSpace(req.Title)
	req.Link = strings.TrimSpace(req.Link)
	if req.Course == "" || req.Title == "" || req.Link == "" {
		writeError(w, http.StatusBadRequest, "Course, title and link are required.")
		return
	}

	material := model.Material{Course: req.Course, Title: req.Title, Link: req.Link}
	if err := s.stores.Materials.AddMaterial(r.Context(), material); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Material added.",
	})
}

func (s *Server) handleGetACL(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	entry, err := s.stores.ACL.Get(r.Context(), email)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"email":       email,
		"permissions": entry,
	})
}

type aclRequest struct {
	Email    string `json:"email"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

func (s *Server) handleGrant(w http.ResponseWriter, r *http.Request) {
	var req aclRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Resource = strings.TrimSpace(req.Resource)
	req.Action = strings.TrimSpace(req.Action)
	if req.Email == "" || req.Resource == "" || req.Action == "" {
		writeError(w, http.StatusBadRequest, "Email, resource and action are required.")
		return
	}

	if err := s.stores.ACL.Grant(r.Context(), req.Email, req.Resource, req.Action); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Permission granted.",
	})
}

func (s *Server) handleRevoke(w http.ResponseWriter, r *http.Request) {
	var req aclRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Resource = strings.TrimSpace(req.Resource)
	req.Action = strings.TrimSpace(req.Action)
	if req.Email == "" || req.Resource == "" || req.Action == "" {
		writeError(w, http.StatusBadRequest, "Email, resource and action are required.")
		return
	}

	if err := s.stores.ACL.Revoke(r.Context(), req.Email, req.Resource, req.Action); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Permission revoked.",
	})
}

// require builds middleware that runs the authorization gate with the given
// requirements and stashes the resolved identity in the request context.
func (s *Server) require(reqs ...authz.Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, err := s.gate.Authorize(r.Context(), s.sessionToken(r), reqs...)
			if err != nil {
				switch {
				case errors.Is(err, authz.ErrUnauthenticated):
					authzDenials.WithLabelValues("unauthenticated").Inc()
					writeError(w, http.StatusUnauthorized, "Authentication required.")
				case errors.Is(err, authz.ErrForbidden):
					authzDenials.WithLabelValues("forbidden").Inc()
					writeError(w, http.StatusForbidden, "Access denied.")
				default:
					log.Printf("authorization error: %v", err)
					writeError(w, http.StatusInternalServerError, "Server error.")
				}
				return
			}
			ctx := context.WithValue(r.Context(), identityKey{}, ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type identityKey struct{}

func identityFromContext(ctx context.Context) session.Identity {
	ident, _ := ctx.Value(identityKey{}).(session.Identity)
	return ident
}

func (s *Server) sessionToken(r *http.Request) string {
	cookie, err := r.Cookie(s.cfg.SessionCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.sessions.TTL().Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found.")
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, "Already exists.")
	case errors.Is(err, store.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, "Email already registered.")
	default:
		log.Printf("storage error: %v", err)
		writeError(w, http.StatusInternalServerError, "Server error.")
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"message": message,
	})
}
