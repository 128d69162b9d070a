package database

import "time"

// DefaultTitle is assigned to uploads without an explicit title.
const DefaultTitle = "untitled"

// FileRecord is the metadata row for one uploaded asset. The artifact
// on disk is named {ID}.{Extension}; video assets additionally own
// {ID}.thumb.jpg.
type FileRecord struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Extension       string    `json:"extension"`
	Width           int       `json:"width"`
	Height          int       `json:"height"`
	ThumbnailHeight int       `json:"thumbnailHeight"`
	Token           string    `json:"-"`
	CreatedAt       time.Time `json:"createdAt"`
}

// TaskRecord marks deferred generation work still owed by the trusted
// client for one file.
type TaskRecord struct {
	ID        string `json:"id"`
	Thumbnail bool   `json:"thumbnail"`
	Gif       bool   `json:"gif"`
}

// User is the single admin account.
type User struct {
	ID           int64     `json:"id"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Session is an authenticated admin session.
type Session struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}
