// Package fakeapi is an in-process stand-in for the posting service, used by
// integration tests. It speaks the same envelope format, issues HS256 JWT
// access tokens and keeps the refresh token in an HTTP-only cookie. Tests can
// hold requests at a route, inject failures and count calls.
package fakeapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophfeed/internal/client/models"
	"github.com/dmitrijs2005/gophfeed/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"
)

// Route names accepted by Hold, FailNext and Calls.
const (
	RouteRegister    = "register"
	RouteLogin       = "login"
	RouteRefresh     = "refresh"
	RouteLogout      = "logout"
	RoutePosts       = "posts"
	RoutePostsByUser = "posts-by-user"
	RouteCreatePost  = "create-post"
	RouteUpdatePost  = "update-post"
	RouteDeletePost  = "delete-post"
)

const (
	msgBadCredentials   = "bad credentials"
	msgUserExists       = "user already exists"
	msgUserDoesNotExist = "user does not exist"
	msgInvalidRequest   = "invalid request"
)

type user struct {
	id           models.UserID
	name         string
	passwordHash []byte
	refreshToken string
}

type failure struct {
	status  int
	message string
}

// Hold parks requests to a route until Release is called.
type Hold struct {
	arrived  chan struct{}
	release  chan struct{}
	released sync.Once
	arrive   sync.Once
}

// Arrived is closed once a request reaches the held route.
func (h *Hold) Arrived() <-chan struct{} { return h.arrived }

// Release lets the held request continue.
func (h *Hold) Release() { h.released.Do(func() { close(h.release) }) }

type Server struct {
	srv *httptest.Server

	mu         sync.Mutex
	users      map[string]*user
	byID       map[models.UserID]*user
	posts      []models.Post
	nextUserID models.UserID
	nextPostID uint64
	accessTTL  time.Duration
	refreshTTL time.Duration
	calls      map[string]int
	holds      map[string]*Hold
	failures   map[string]failure
	now        func() time.Time

	accessKey  []byte
	refreshKey []byte
}

// New starts a server and closes it when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		users:      make(map[string]*user),
		byID:       make(map[models.UserID]*user),
		accessTTL:  15 * time.Minute,
		refreshTTL: 24 * time.Hour,
		calls:      make(map[string]int),
		holds:      make(map[string]*Hold),
		failures:   make(map[string]failure),
		now:        time.Now,
		accessKey:  []byte("fake-access-secret"),
		refreshKey: []byte("fake-refresh-secret"),
	}
	s.srv = httptest.NewServer(s.routes())
	t.Cleanup(s.srv.Close)
	return s
}

// URL is the API base URL, including the /api/v1 prefix.
func (s *Server) URL() string { return s.srv.URL + "/api/v1" }

// Origin is the scheme and host the cookies are scoped to.
func (s *Server) Origin() string { return s.srv.URL }

// Close stops the server; later requests fail at the transport level.
func (s *Server) Close() { s.srv.Close() }

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	v1 := r.PathPrefix("/api/v1").Subrouter()

	v1.HandleFunc("/auth/register", s.wrap(RouteRegister, s.handleRegister)).Methods(http.MethodPost)
	v1.HandleFunc("/auth/login", s.wrap(RouteLogin, s.handleLogin)).Methods(http.MethodPost)
	v1.HandleFunc("/auth/refresh", s.wrap(RouteRefresh, s.handleRefresh)).Methods(http.MethodPost)
	v1.HandleFunc("/auth/logout", s.wrap(RouteLogout, s.handleLogout)).Methods(http.MethodPost)

	v1.HandleFunc("/posts", s.wrap(RoutePosts, s.handleListPosts)).Methods(http.MethodGet)
	v1.HandleFunc("/posts/by-user/{userId}", s.wrap(RoutePostsByUser, s.authed(s.handleListByUser))).Methods(http.MethodGet)
	v1.HandleFunc("/posts", s.wrap(RouteCreatePost, s.authed(s.handleCreatePost))).Methods(http.MethodPost)
	v1.HandleFunc("/posts/{id}", s.wrap(RouteUpdatePost, s.authed(s.handleUpdatePost))).Methods(http.MethodPut)
	v1.HandleFunc("/posts/{id}", s.wrap(RouteDeletePost, s.authed(s.handleDeletePost))).Methods(http.MethodDelete)
	return r
}

// AddUser registers an account directly and returns its id.
func (s *Server) AddUser(name, password string) models.UserID {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(name, hash)
}

func (s *Server) addUserLocked(name string, hash []byte) models.UserID {
	s.nextUserID++
	u := &user{id: s.nextUserID, name: name, passwordHash: hash}
	s.users[name] = u
	s.byID[u.id] = u
	return u.id
}

// AddPost stores a post for author and returns it. Newer posts come first.
func (s *Server) AddPost(author models.UserID, content string) models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addPostLocked(author, content)
}

func (s *Server) addPostLocked(author models.UserID, content string) models.Post {
	s.nextPostID++
	now := s.now().UTC().Truncate(time.Second)
	p := models.Post{
		ID: s.nextPostID, AuthorID: author, Content: content,
		CreatedAt: now, UpdatedAt: now,
	}
	if u := s.byID[author]; u != nil {
		p.AuthorName = u.name
	}
	s.posts = append(s.posts, p)
	return p
}

// SetAccessTTL changes the lifetime of access tokens issued from now on. A
// negative ttl issues tokens that are already expired.
func (s *Server) SetAccessTTL(ttl time.Duration) {
	s.mu.Lock()
	s.accessTTL = ttl
	s.mu.Unlock()
}

// RevokeRefresh invalidates the stored refresh token of id, so the next
// refresh fails with bad credentials.
func (s *Server) RevokeRefresh(id models.UserID) {
	s.mu.Lock()
	if u := s.byID[id]; u != nil {
		u.refreshToken = ""
	}
	s.mu.Unlock()
}

// Hold parks the next request to route until the returned Hold is released.
func (s *Server) Hold(route string) *Hold {
	h := &Hold{arrived: make(chan struct{}), release: make(chan struct{})}
	s.mu.Lock()
	s.holds[route] = h
	s.mu.Unlock()
	return h
}

// FailNext makes the next request to route answer status with message.
func (s *Server) FailNext(route string, status int, message string) {
	s.mu.Lock()
	s.failures[route] = failure{status: status, message: message}
	s.mu.Unlock()
}

// Calls reports how many requests reached route.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// Posts returns a copy of the stored posts in server order.
func (s *Server) Posts() []models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orderedLocked(func(models.Post) bool { return true })
}

func (s *Server) wrap(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[route]++
		h := s.holds[route]
		delete(s.holds, route)
		f, failing := s.failures[route]
		delete(s.failures, route)
		s.mu.Unlock()

		if h != nil {
			h.arrive.Do(func() { close(h.arrived) })
			select {
			case <-h.release:
			case <-r.Context().Done():
				return
			}
		}
		if failing {
			writeError(w, f.status, f.message, "")
			return
		}
		next(w, r)
	}
}

func (s *Server) authed(next func(w http.ResponseWriter, r *http.Request, id models.UserID)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get(common.AuthorizationHeaderName), common.BearerPrefix)
		id, err := s.verify(token, s.accessKey)
		if err != nil {
			msg := msgBadCredentials
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = common.ErrTokenExpired.Error()
			}
			writeError(w, http.StatusUnauthorized, msg, "UNAUTHORIZED")
			return
		}
		next(w, r, id)
	}
}

type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Username == "" || len(req.Password) < common.MinPasswordLength {
		writeError(w, http.StatusBadRequest, msgInvalidRequest, "INVALID_REQUEST")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_SERVER_ERROR")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[req.Username]; ok {
		writeError(w, http.StatusInternalServerError, msgUserExists, "INTERNAL_SERVER_ERROR")
		return
	}
	s.addUserLocked(req.Username, hash)
	writeData(w, "User registered successfully")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[req.Username]
	if !ok {
		writeError(w, http.StatusBadRequest, msgUserDoesNotExist, "INVALID_REQUEST")
		return
	}
	if bcrypt.CompareHashAndPassword(u.passwordHash, []byte(req.Password)) != nil {
		writeError(w, http.StatusInternalServerError, msgBadCredentials, "INTERNAL_SERVER_ERROR")
		return
	}

	access, err := s.sign(u.id, s.accessTTL, s.accessKey)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_SERVER_ERROR")
		return
	}
	refresh, err := s.sign(u.id, s.refreshTTL, s.refreshKey)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_SERVER_ERROR")
		return
	}
	u.refreshToken = refresh
	http.SetCookie(w, &http.Cookie{
		Name: common.RefreshTokenCookieName, Value: refresh, Path: "/",
		MaxAge: int(s.refreshTTL.Seconds()), HttpOnly: true,
		Secure: true, SameSite: http.SameSiteNoneMode,
	})
	writeData(w, models.AuthResult{ID: u.id, AccessToken: access})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	u, ok := s.refreshUser(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	access, err := s.sign(u.id, s.accessTTL, s.accessKey)
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_SERVER_ERROR")
		return
	}
	writeData(w, models.AuthResult{ID: u.id, AccessToken: access})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	u, ok := s.refreshUser(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	u.refreshToken = ""
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name: common.RefreshTokenCookieName, Value: "", Path: "/", MaxAge: -1,
		HttpOnly: true, Secure: true, SameSite: http.SameSiteNoneMode,
	})
	writeData(w, "User logged out successfully")
}

func (s *Server) refreshUser(w http.ResponseWriter, r *http.Request) (*user, bool) {
	c, err := r.Cookie(common.RefreshTokenCookieName)
	if err != nil {
		writeError(w, http.StatusUnauthorized, msgBadCredentials, "UNAUTHORIZED")
		return nil, false
	}
	id, err := s.verify(c.Value, s.refreshKey)
	if err != nil {
		msg := msgBadCredentials
		if errors.Is(err, jwt.ErrTokenExpired) {
			msg = common.ErrTokenExpired.Error()
		}
		writeError(w, http.StatusUnauthorized, msg, "INVALID_REQUEST")
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.byID[id]
	if u == nil || u.refreshToken == "" || u.refreshToken != c.Value {
		writeError(w, http.StatusUnauthorized, msgBadCredentials, "INVALID_REQUEST")
		return nil, false
	}
	return u, true
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	posts := s.orderedLocked(func(models.Post) bool { return true })
	s.mu.Unlock()
	writeData(w, posts)
}

func (s *Server) handleListByUser(w http.ResponseWriter, r *http.Request, _ models.UserID) {
	raw := mux.Vars(r)["userId"]
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeErrorField(w, http.StatusBadRequest, err.Error(), "INVALID_REQUEST", "userId")
		return
	}
	s.mu.Lock()
	posts := s.orderedLocked(func(p models.Post) bool { return p.AuthorID == models.UserID(id) })
	s.mu.Unlock()
	writeData(w, posts)
}

type postRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request, caller models.UserID) {
	var req postRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeErrorField(w, http.StatusBadRequest, msgInvalidRequest, "INVALID_REQUEST", "content")
		return
	}
	s.mu.Lock()
	p := s.addPostLocked(caller, req.Content)
	s.mu.Unlock()
	writeData(w, p)
}

func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request, caller models.UserID) {
	var req postRequest
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.ownedPostLocked(w, r, caller)
	if !ok {
		return
	}
	s.posts[i].Content = req.Content
	s.posts[i].UpdatedAt = s.now().UTC().Truncate(time.Second).Add(time.Second)
	writeData(w, "Post updated successfully")
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request, caller models.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.ownedPostLocked(w, r, caller)
	if !ok {
		return
	}
	s.posts = append(s.posts[:i], s.posts[i+1:]...)
	writeData(w, "Post deleted successfully")
}

func (s *Server) ownedPostLocked(w http.ResponseWriter, r *http.Request, caller models.UserID) (int, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeErrorField(w, http.StatusBadRequest, err.Error(), "INVALID_REQUEST", "id")
		return 0, false
	}
	for i, p := range s.posts {
		if p.ID != id {
			continue
		}
		if p.AuthorID != caller {
			writeError(w, http.StatusForbidden, msgInvalidRequest, "UNAUTHORIZED")
			return 0, false
		}
		return i, true
	}
	writeError(w, http.StatusInternalServerError, "sql: no rows in result set", "INTERNAL_SERVER_ERROR")
	return 0, false
}

// orderedLocked returns matching posts newest first, or nil when none match,
// which the handlers encode as "data": null.
func (s *Server) orderedLocked(keep func(models.Post) bool) []models.Post {
	var out []models.Post
	for _, p := range s.posts {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *Server) sign(id models.UserID, ttl time.Duration, key []byte) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"exp":     now.Add(ttl).Unix(),
		"iat":     now.Unix(),
		"payload": map[string]any{"id": uint64(id)},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

func (s *Server) verify(token string, key []byte) (models.UserID, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return key, nil
	})
	if err != nil {
		return 0, err
	}
	payload, ok := claims["payload"].(map[string]any)
	if !ok {
		return 0, errors.New("missing payload")
	}
	id, ok := payload["id"].(float64)
	if !ok || id <= 0 {
		return 0, errors.New("missing id")
	}
	return models.UserID(id), nil
}

type errorDetail struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidRequest, "INVALID_REQUEST")
		return false
	}
	return true
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, map[string]any{"data": data})
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	writeErrorField(w, status, message, code, "")
}

func writeErrorField(w http.ResponseWriter, status int, message, code, field string) {
	writeJSON(w, status, map[string]any{
		"errors": []errorDetail{{Message: message, Code: code, Field: field}},
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
