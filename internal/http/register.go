package http

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/YehonatanRavoach/SmartCampusAR/internal/identity"
	"github.com/YehonatanRavoach/SmartCampusAR/internal/lifecycle"
	"github.com/YehonatanRavoach/SmartCampusAR/internal/model"
)

const maxUploadBytes = 32 << 20

var folderSanitizer = regexp.MustCompile(`[^a-z0-9]+`)

// sanitizeFolder derives the storage folder name from a campus name:
// lowercase, runs of non-alphanumerics collapsed to a single underscore.
func sanitizeFolder(name string) string {
	folder := folderSanitizer.ReplaceAllString(strings.ToLower(name), "_")
	return strings.Trim(folder, "_")
}

type formFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// readFormFile returns nil when the part is absent.
func readFormFile(r *http.Request, field string) (*formFile, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return &formFile{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

type registerResponse struct {
	Success      bool              `json:"success"`
	Message      string            `json:"message"`
	AdminUID     string            `json:"adminUid"`
	CampusID     string            `json:"campusId"`
	UploadedURLs map[string]string `json:"uploadedUrls"`
}

// handleRegisterAdmin creates a fresh campus in pending state together with
// its first admin: identity account, campus document, placeholder building,
// admin profile and the uploaded assets.
func (s *Server) handleRegisterAdmin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_multipart")
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	adminName := strings.TrimSpace(r.FormValue("adminName"))
	role := strings.TrimSpace(r.FormValue("role"))
	campusName := strings.TrimSpace(r.FormValue("campusName"))
	city := strings.TrimSpace(r.FormValue("city"))
	country := strings.TrimSpace(r.FormValue("country"))
	description := strings.TrimSpace(r.FormValue("description"))

	if email == "" || password == "" || adminName == "" || campusName == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	logo, err := readFormFile(r, "logo")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_file")
		return
	}
	mapImage, err := readFormFile(r, "map")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_file")
		return
	}
	approval, err := readFormFile(r, "approval")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_file")
		return
	}
	profile, err := readFormFile(r, "profilePicture")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_file")
		return
	}
	if logo == nil || mapImage == nil || approval == nil || profile == nil {
		writeError(w, http.StatusBadRequest, "missing_files")
		return
	}

	exists, err := s.dir.CampusNameExists(r.Context(), campusName)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if exists {
		writeError(w, http.StatusBadRequest, "campus_name_exists")
		return
	}

	account, err := s.accounts.CreateAccount(r.Context(), email, password)
	if errors.Is(err, identity.ErrEmailTaken) {
		writeError(w, http.StatusBadRequest, "email_registered")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	campusID := uuid.NewString()
	folder := sanitizeFolder(campusName)
	urls := map[string]string{}

	logoURL, err := s.blobs.Put(r.Context(), fmt.Sprintf("campuses/%s/Meta/logo", folder), logo.ContentType, logo.Data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "upload_failed")
		return
	}
	urls["logo"] = logoURL

	mapURL, err := s.blobs.Put(r.Context(), fmt.Sprintf("campuses/%s/Meta/map", folder), mapImage.ContentType, mapImage.Data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "upload_failed")
		return
	}
	urls["map"] = mapURL

	approvalURL, err := s.blobs.Put(r.Context(),
		fmt.Sprintf("campuses/%s/Meta/%s/approval/%s", folder, account.UID, approval.Filename),
		approval.ContentType, approval.Data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "upload_failed")
		return
	}
	urls["approval"] = approvalURL

	profileURL, err := s.blobs.Put(r.Context(),
		fmt.Sprintf("campuses/%s/Meta/%s/profile/%s", folder, account.UID, profile.Filename),
		profile.ContentType, profile.Data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "upload_failed")
		return
	}
	urls["profilePicture"] = profileURL

	campus := model.Campus{
		ID:            campusID,
		Name:          campusName,
		City:          city,
		Country:       country,
		Description:   description,
		LogoURL:       logoURL,
		MapImageURL:   mapURL,
		StorageFolder: folder,
		Status:        model.StatusPending,
		AdminIDs:      []string{account.UID},
	}
	if err := s.dir.CreateCampus(r.Context(), campus); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	// Keeps the buildings listing non-empty for freshly created campuses.
	placeholder := model.Building{
		ID:       uuid.NewString(),
		CampusID: campusID,
		Name:     "_placeholder",
	}
	if err := s.dir.CreateBuilding(r.Context(), placeholder); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	admin := model.Admin{
		ID:              account.UID,
		AdminName:       adminName,
		Email:           email,
		Role:            role,
		CampusID:        campusID,
		Status:          model.StatusPending,
		ApprovalFileURL: approvalURL,
		PhotoURL:        profileURL,
	}
	if err := s.dir.CreateAdmin(r.Context(), admin); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	log.Printf("register: new campus %q (%s) requested by %s", campusName, campusID, email)

	writeJSON(w, http.StatusOK, registerResponse{
		Success:      true,
		Message:      "Registration submitted. The campus is pending approval.",
		AdminUID:     account.UID,
		CampusID:     campusID,
		UploadedURLs: urls,
	})
}

type requestManageResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	NewAdminUID string `json:"newAdminUid"`
	CampusID    string `json:"campusId"`
}

// handleRequestManage registers an additional admin for an existing campus.
// The new admin starts in pending state and does not affect the campus status.
func (s *Server) handleRequestManage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_multipart")
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	adminName := strings.TrimSpace(r.FormValue("adminName"))
	role := strings.TrimSpace(r.FormValue("role"))
	campusName := strings.TrimSpace(r.FormValue("campusName"))

	if email == "" || password == "" || adminName == "" || campusName == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	campus, err := s.dir.GetCampusByName(r.Context(), campusName)
	if errors.Is(err, lifecycle.ErrNotFound) {
		writeError(w, http.StatusNotFound, "campus_not_found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	account, err := s.accounts.CreateAccount(r.Context(), email, password)
	if errors.Is(err, identity.ErrEmailTaken) {
		writeError(w, http.StatusBadRequest, "email_registered")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	folder := campus.StorageFolder
	if folder == "" {
		folder = sanitizeFolder(campus.Name)
	}

	var approvalURL, photoURL string
	if approval, err := readFormFile(r, "approval"); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_file")
		return
	} else if approval != nil {
		approvalURL, err = s.blobs.Put(r.Context(),
			fmt.Sprintf("campuses/%s/Meta/%s/approval/%s", folder, account.UID, approval.Filename),
			approval.ContentType, approval.Data)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "upload_failed")
			return
		}
	}
	if profile, err := readFormFile(r, "profilePhoto"); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_file")
		return
	} else if profile != nil {
		photoURL, err = s.blobs.Put(r.Context(),
			fmt.Sprintf("campuses/%s/Meta/%s/profile/%s", folder, account.UID, profile.Filename),
			profile.ContentType, profile.Data)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "upload_failed")
			return
		}
	}

	admin := model.Admin{
		ID:              account.UID,
		AdminName:       adminName,
		Email:           email,
		Role:            role,
		CampusID:        campus.ID,
		Status:          model.StatusPending,
		ApprovalFileURL: approvalURL,
		PhotoURL:        photoURL,
	}
	if err := s.dir.EnrollAdmin(r.Context(), campus.ID, admin); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	log.Printf("request-manage: %s requested to manage campus %q (%s)", email, campus.Name, campus.ID)

	writeJSON(w, http.StatusOK, requestManageResponse{
		Success:     true,
		Message:     "Management request submitted. Awaiting approval.",
		NewAdminUID: account.UID,
		CampusID:    campus.ID,
	})
}
