package models

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// Auto-migrate models
	if err := db.AutoMigrate(&User{}, &Attachment{}); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	return db
}

func TestCreateUser(t *testing.T) {
	db := setupTestDB(t)

	user := User{
		Email:        "test@example.com",
		PasswordHash: "hashed_password",
	}

	result := db.Create(&user)
	if result.Error != nil {
		t.Fatalf("Failed to create user: %v", result.Error)
	}

	if user.ID == 0 {
		t.Error("User ID should be set after creation")
	}
}

func TestUserCapabilities(t *testing.T) {
	tests := []struct {
		name         string
		capabilities string
		check        string
		want         bool
	}{
		{"single capability", "upload_files", CapUploadFiles, true},
		{"list with spaces", "manage_users, upload_files", CapUploadFiles, true},
		{"missing capability", "manage_users", CapUploadFiles, false},
		{"empty list", "", CapUploadFiles, false},
		{"no prefix match", "upload_files_extra", CapUploadFiles, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &User{Capabilities: tt.capabilities}
			if got := u.Can(tt.check); got != tt.want {
				t.Errorf("Can(%q) = %v, want %v", tt.check, got, tt.want)
			}
		})
	}
}

func TestAttachmentDefaultsToInheritStatus(t *testing.T) {
	db := setupTestDB(t)

	att := Attachment{
		GUID:       "http://localhost/media/2026/10/cat.jpg",
		StoredPath: "2026/10/cat.jpg",
		MimeType:   "image/jpeg",
		Title:      "cat",
	}
	if err := db.Create(&att).Error; err != nil {
		t.Fatalf("Failed to create attachment: %v", err)
	}

	var retrieved Attachment
	if err := db.First(&retrieved, att.ID).Error; err != nil {
		t.Fatalf("Failed to retrieve attachment: %v", err)
	}

	if retrieved.Status != AttachmentStatusInherit {
		t.Errorf("Expected status 'inherit', got '%s'", retrieved.Status)
	}
	if retrieved.Metadata != nil {
		t.Errorf("Expected nil metadata, got %+v", retrieved.Metadata)
	}
}

func TestAttachmentMetadataRoundTrip(t *testing.T) {
	db := setupTestDB(t)

	att := Attachment{
		GUID:       "http://localhost/media/2026/10/dog.png",
		StoredPath: "2026/10/dog.png",
		MimeType:   "image/png",
		Title:      "dog",
		Status:     AttachmentStatusInherit,
	}
	db.Create(&att)

	meta := &AttachmentMetadata{
		Width:  640,
		Height: 480,
		File:   "2026/10/dog.png",
		Sizes: map[string]DerivativeImage{
			"thumbnail": {File: "dog-150x150.jpg", Width: 150, Height: 150, MimeType: "image/jpeg"},
		},
	}
	if err := db.Model(&att).Select("Metadata").Updates(&Attachment{Metadata: meta}).Error; err != nil {
		t.Fatalf("Failed to update metadata: %v", err)
	}

	var retrieved Attachment
	db.First(&retrieved, att.ID)

	if retrieved.Metadata == nil {
		t.Fatal("Expected metadata to be persisted")
	}
	if retrieved.Metadata.Width != 640 || retrieved.Metadata.Height != 480 {
		t.Errorf("Expected 640x480, got %dx%d", retrieved.Metadata.Width, retrieved.Metadata.Height)
	}
	if _, ok := retrieved.Metadata.Sizes["thumbnail"]; !ok {
		t.Error("Expected thumbnail size in metadata")
	}
}

func TestAttachmentUploaderForeignKey(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&User{}, &Attachment{}); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	orphan := Attachment{GUID: "g", StoredPath: "2026/10/a.gif", MimeType: "image/gif", Title: "a", UploadedBy: UserRef(0)}
	if err := db.Create(&orphan).Error; err != nil {
		t.Fatalf("Attachment without uploader should insert: %v", err)
	}

	dangling := Attachment{GUID: "g", StoredPath: "2026/10/b.gif", MimeType: "image/gif", Title: "b", UploadedBy: UserRef(42)}
	if err := db.Create(&dangling).Error; err == nil {
		t.Error("Expected foreign key violation for unknown uploader")
	}

	user := User{Email: "owner@example.com", PasswordHash: "hash"}
	db.Create(&user)
	owned := Attachment{GUID: "g", StoredPath: "2026/10/c.gif", MimeType: "image/gif", Title: "c", UploadedBy: UserRef(user.ID)}
	if err := db.Create(&owned).Error; err != nil {
		t.Fatalf("Attachment with uploader should insert: %v", err)
	}
}

func TestUserRef(t *testing.T) {
	if UserRef(0) != nil {
		t.Error("Expected nil for id 0")
	}
	if ref := UserRef(5); ref == nil || *ref != 5 {
		t.Errorf("Expected 5, got %v", ref)
	}
}
