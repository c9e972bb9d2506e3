package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Capability names understood by the authorization layer
const (
	CapUploadFiles = "upload_files"
	CapManageUsers = "manage_users"
)

// AttachmentStatusInherit marks an attachment as a dependent record rather
// than a standalone content item
const AttachmentStatusInherit = "inherit"

// User represents an account allowed to call the API
type User struct {
	ID           uint   `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Capabilities string `gorm:"type:text"` // comma-separated capability names
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    gorm.DeletedAt `gorm:"index"`

	// Relationships
	Attachments []Attachment `gorm:"foreignKey:UploadedBy"`
}

// Can reports whether the user holds the named capability
func (u *User) Can(capability string) bool {
	for _, c := range u.CapabilityList() {
		if c == capability {
			return true
		}
	}
	return false
}

// CapabilityList returns the parsed capability names
func (u *User) CapabilityList() []string {
	var caps []string
	for _, c := range strings.Split(u.Capabilities, ",") {
		c = strings.TrimSpace(c)
		if c != "" {
			caps = append(caps, c)
		}
	}
	return caps
}

// Attachment is a catalog record for a stored media asset
type Attachment struct {
	ID         uint   `gorm:"primaryKey"`
	GUID       string `gorm:"column:guid;not null"`
	StoredPath string `gorm:"not null"` // store-relative key, e.g. 2026/10/cat.jpg
	MimeType   string `gorm:"not null;index"`
	Title      string `gorm:"not null"`
	Content    string `gorm:"type:text"`
	Status     string `gorm:"not null;default:inherit"`
	SourceURL  string `gorm:"type:text"` // remote URL the asset was sideloaded from
	FileSize   int64
	Metadata   *AttachmentMetadata `gorm:"type:text;serializer:json"`
	UploadedBy *uint // nil when the uploader is unknown
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

// AttachmentMetadata holds derivative information computed after ingest
type AttachmentMetadata struct {
	Width    int                        `json:"width"`
	Height   int                        `json:"height"`
	File     string                     `json:"file"`
	FileSize int64                      `json:"filesize,omitempty"`
	Sizes    map[string]DerivativeImage `json:"sizes,omitempty"`
}

// DerivativeImage describes one generated image variant
type DerivativeImage struct {
	File     string `json:"file"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	MimeType string `json:"mime-type"`
	URL      string `json:"url,omitempty"`
}

// UserRef returns a reference to user id, or nil for 0
func UserRef(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}

// TableName overrides for consistent naming
func (User) TableName() string {
	return "users"
}

func (Attachment) TableName() string {
	return "attachments"
}
