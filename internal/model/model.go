package model

import "time"

// Status is the lifecycle state shared by campuses and admins. Values are
// always persisted lowercase.
type Status string

const (
	StatusPending Status = "pending"
	StatusActive  Status = "active"
	StatusReject  Status = "reject"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusReject:
		return true
	}
	return false
}

type Campus struct {
	ID            string
	Name          string
	City          string
	Country       string
	Description   string
	LogoURL       string
	MapImageURL   string
	StorageFolder string
	Status        Status
	AdminIDs      []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PrimaryAdminID is the first entry of the admin list; activating a campus
// activates only this admin.
func (c Campus) PrimaryAdminID() string {
	if len(c.AdminIDs) == 0 {
		return ""
	}
	return c.AdminIDs[0]
}

// Admin is keyed by the identity account uid.
type Admin struct {
	ID              string
	AdminName       string
	Email           string
	Role            string
	CampusID        string
	Status          Status
	ApprovalFileURL string
	PhotoURL        string
	CreatedAt       time.Time
}

type Building struct {
	ID          string
	CampusID    string
	Name        string
	Description string
	Latitude    float64
	Longitude   float64
	ImageURL    string
	CreatedAt   time.Time
}

// Claims are the authorization attributes attached to an identity account.
// Present and equal to {role: "admin", campusId} exactly while the admin is
// active.
type Claims struct {
	Role     string `json:"role"`
	CampusID string `json:"campusId"`
}

type Account struct {
	UID          string
	Email        string
	PasswordHash string
	Claims       *Claims
	CreatedAt    time.Time
}

type Blob struct {
	Path        string
	ContentType string
	Data        []byte
	Token       string
	CreatedAt   time.Time
}
