package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/YehonatanRavoach/SmartCampusAR/internal/auth"
	"github.com/YehonatanRavoach/SmartCampusAR/internal/config"
	"github.com/YehonatanRavoach/SmartCampusAR/internal/lifecycle"
	"github.com/YehonatanRavoach/SmartCampusAR/internal/model"
)

// Directory extends the core document store with the registration-side
// operations.
type Directory interface {
	lifecycle.Directory
	CreateCampus(ctx context.Context, campus model.Campus) error
	CreateAdmin(ctx context.Context, admin model.Admin) error
	CreateBuilding(ctx context.Context, building model.Building) error
	GetCampusByName(ctx context.Context, name string) (model.Campus, error)
	CampusNameExists(ctx context.Context, name string) (bool, error)
	// EnrollAdmin appends the admin to the campus list and creates the admin
	// document as one atomic unit.
	EnrollAdmin(ctx context.Context, campusID string, admin model.Admin) error
}

type Accounts interface {
	lifecycle.Accounts
	CreateAccount(ctx context.Context, email, password string) (model.Account, error)
	ResetPassword(ctx context.Context, uid, newPassword string) error
}

type Blobs interface {
	lifecycle.Blobs
	Put(ctx context.Context, path, contentType string, data []byte) (string, error)
	Get(ctx context.Context, path string) (model.Blob, error)
}

type Server struct {
	cfg      config.Config
	dir      Directory
	accounts Accounts
	blobs    Blobs
	engine   *lifecycle.Engine
	cascade  *lifecycle.Cascade
	redis    *redis.Client
}

func NewServer(cfg config.Config, dir Directory, accounts Accounts, blobs Blobs, redisClient *redis.Client) *Server {
	return &Server{
		cfg:      cfg,
		dir:      dir,
		accounts: accounts,
		blobs:    blobs,
		engine:   lifecycle.NewEngine(dir, accounts),
		cascade:  lifecycle.NewCascade(dir, accounts, blobs),
		redis:    redisClient,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/campus/exists", s.handleCheckCampusExists)
	r.Post("/email/exists", s.handleCheckEmailExists)
	r.Get("/files/*", s.handleGetFile)
	r.Post("/register", s.handleRegisterAdmin)
	r.Post("/request-manage", s.handleRequestManage)

	r.With(s.authMiddleware).Post("/admin/{adminId}/status", s.handleSetAdminStatus)
	r.With(s.authMiddleware).Post("/campus/{campusId}/status", s.handleSetCampusStatus)
	r.With(s.authMiddleware).Delete("/admin/{adminId}", s.handleDeleteAdmin)
	r.With(s.authMiddleware).Delete("/campus/{campusId}", s.handleDeleteCampus)

	r.With(s.authMiddleware, s.requireSysadmin).Post("/cleanup", s.handleCleanup)
	r.With(s.authMiddleware, s.requireSysadmin).Post("/password/reset", s.handleResetPassword)
	r.With(s.authMiddleware, s.requireSysadmin).Post("/claims", s.handleSetManualClaims)

	return r
}

// Auth

type claimsKey struct{}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing_token")
			return
		}
		claims, err := auth.ParseToken(s.cfg.JWTSecret, token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func claimsFromContext(ctx context.Context) *auth.Claims {
	value := ctx.Value(claimsKey{})
	claims, _ := value.(*auth.Claims)
	return claims
}

func (s *Server) requireSysadmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFromContext(r.Context())
		if claims == nil {
			writeError(w, http.StatusUnauthorized, "missing_token")
			return
		}
		if !claims.IsSysadmin() {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func callerFromContext(ctx context.Context) lifecycle.Caller {
	claims := claimsFromContext(ctx)
	if claims == nil {
		return lifecycle.Caller{}
	}
	return lifecycle.Caller{Email: claims.Email, Role: claims.Role}
}

// Status operations

type setStatusRequest struct {
	NewStatus string `json:"newStatus"`
}

type operationResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	UpdatedAdmins int    `json:"updatedAdmins,omitempty"`
}

func (s *Server) handleSetAdminStatus(w http.ResponseWriter, r *http.Request) {
	var req setStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	result, err := s.engine.SetAdminStatus(r.Context(), callerFromContext(r.Context()), chi.URLParam(r, "adminId"), req.NewStatus)
	if err != nil {
		writeStatusError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, operationResponse{Success: true, Message: result.Message, UpdatedAdmins: result.UpdatedAdmins})
}

func (s *Server) handleSetCampusStatus(w http.ResponseWriter, r *http.Request) {
	var req setStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	result, err := s.engine.SetCampusStatus(r.Context(), callerFromContext(r.Context()), chi.URLParam(r, "campusId"), req.NewStatus)
	if err != nil {
		writeStatusError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, operationResponse{Success: true, Message: result.Message, UpdatedAdmins: result.UpdatedAdmins})
}

func (s *Server) handleDeleteAdmin(w http.ResponseWriter, r *http.Request) {
	result, err := s.cascade.DeleteAdmin(r.Context(), callerFromContext(r.Context()), chi.URLParam(r, "adminId"))
	if err != nil {
		writeStatusError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, operationResponse{Success: true, Message: result.Message})
}

func (s *Server) handleDeleteCampus(w http.ResponseWriter, r *http.Request) {
	result, err := s.cascade.DeleteCampus(r.Context(), callerFromContext(r.Context()), chi.URLParam(r, "campusId"))
	if err != nil {
		writeStatusError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, operationResponse{Success: true, Message: result.Message})
}

// Cleanup

type cleanupResponse struct {
	Success         bool `json:"success"`
	DeletedAdmins   int  `json:"deletedAdmins"`
	DeletedCampuses int  `json:"deletedCampuses"`
}

const cleanupLockKey = "cleanup_lock"

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	if s.redis != nil {
		acquired, err := s.redis.SetNX(r.Context(), cleanupLockKey, "1", s.cfg.CleanupLockTTL).Result()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
		if !acquired {
			writeError(w, http.StatusConflict, "cleanup_in_progress")
			return
		}
		defer s.redis.Del(context.WithoutCancel(r.Context()), cleanupLockKey)
	}

	result, err := s.cascade.CleanupRejected(r.Context())
	if err != nil {
		writeStatusError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cleanupResponse{Success: true, DeletedAdmins: result.DeletedAdmins, DeletedCampuses: result.DeletedCampuses})
}

// Existence checks

func (s *Server) handleCheckCampusExists(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	name := strings.ToLower(strings.TrimSpace(req.Name))
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing_campus_name")
		return
	}

	if s.redis != nil {
		if cached, err := s.redis.Get(r.Context(), campusExistsKey(name)).Result(); err == nil {
			writeJSON(w, http.StatusOK, map[string]bool{"exists": cached == "1"})
			return
		}
	}

	exists, err := s.dir.CampusNameExists(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if s.redis != nil {
		value := "0"
		if exists {
			value = "1"
		}
		_ = s.redis.Set(r.Context(), campusExistsKey(name), value, s.cfg.CampusExistsCacheTTL).Err()
	}
	writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

func campusExistsKey(name string) string {
	return fmt.Sprintf("campus_exists:%s", name)
}

func (s *Server) handleCheckEmailExists(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "missing_email")
		return
	}
	_, err := s.accounts.GetByEmail(r.Context(), req.Email)
	if errors.Is(err, lifecycle.ErrNotFound) {
		writeJSON(w, http.StatusOK, map[string]bool{"exists": false})
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"exists": true})
}

// Maintenance

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		NewPassword string `json:"newPassword"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.Email == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "missing_email_or_password")
		return
	}
	account, err := s.accounts.GetByEmail(r.Context(), req.Email)
	if errors.Is(err, lifecycle.ErrNotFound) {
		writeError(w, http.StatusNotFound, "account_not_found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if err := s.accounts.ResetPassword(r.Context(), account.UID, req.NewPassword); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Password updated successfully for %s", req.Email),
	})
}

func (s *Server) handleSetManualClaims(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		CampusID string `json:"campusId"`
		Role     string `json:"role"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.Email == "" || req.CampusID == "" {
		writeError(w, http.StatusBadRequest, "missing_email_or_campus")
		return
	}
	if req.Role == "" {
		req.Role = lifecycle.AdminRole
	}
	account, err := s.accounts.GetByEmail(r.Context(), req.Email)
	if errors.Is(err, lifecycle.ErrNotFound) {
		writeError(w, http.StatusNotFound, "account_not_found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	claims := model.Claims{Role: req.Role, CampusID: req.CampusID}
	if err := s.accounts.SetClaims(r.Context(), account.UID, &claims); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Custom claims set for %s", req.Email),
		"claims":  claims,
	})
}

// Files

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "*")
	path, err := url.PathUnescape(raw)
	if err != nil || path == "" {
		writeError(w, http.StatusBadRequest, "invalid_path")
		return
	}
	b, err := s.blobs.Get(r.Context(), path)
	if errors.Is(err, lifecycle.ErrNotFound) {
		writeError(w, http.StatusNotFound, "file_not_found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if r.URL.Query().Get("token") != b.Token {
		writeError(w, http.StatusForbidden, "invalid_token")
		return
	}
	if b.ContentType != "" {
		w.Header().Set("Content-Type", b.ContentType)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b.Data)
}

// Utilities

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, code string) {
	writeJSON(w, statusCode, map[string]string{"error": code})
}

// writeStatusError translates the operation error taxonomy into HTTP.
func writeStatusError(w http.ResponseWriter, err error) {
	st, ok := status.FromError(err)
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal")
		return
	}
	writeJSON(w, httpStatusFromCode(st.Code()), map[string]string{
		"error":   errorCodeString(st.Code()),
		"message": st.Message(),
	})
}

func httpStatusFromCode(code codes.Code) int {
	switch code {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.FailedPrecondition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func errorCodeString(code codes.Code) string {
	switch code {
	case codes.InvalidArgument:
		return "invalid_argument"
	case codes.Unauthenticated:
		return "unauthenticated"
	case codes.PermissionDenied:
		return "permission_denied"
	case codes.NotFound:
		return "not_found"
	case codes.FailedPrecondition:
		return "failed_precondition"
	default:
		return "internal"
	}
}
