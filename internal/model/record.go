package model

import "time"

// RecordType classifies what a record stores.
type RecordType string

const (
	RecordTypeNote  RecordType = "note"
	RecordTypeLogin RecordType = "login"
	RecordTypeCard  RecordType = "card"
)

// Valid reports whether t is one of the known record types.
func (t RecordType) Valid() bool {
	switch t {
	case RecordTypeNote, RecordTypeLogin, RecordTypeCard:
		return true
	}
	return false
}

// Record mirrors the `records` table. Content is stored encrypted with the
// owner's session-derived key; the repository layer never sees plaintext.
//
// Fields:
//
//	ID          – primary key identifier.
//	OwnerUserID – owning user.
//	FolderID    – containing folder (nil for unfiled records).
//	RecordType  – note / login / card.
//	Title       – record title (plaintext, used for listing and filtering).
//	Content     – encrypted record content.
//	IsFavorite  – favorite flag.
//	CreatedAt   – creation timestamp.
//	UpdatedAt   – last update timestamp.
type Record struct {
	ID          uint64     // records.id
	OwnerUserID uint64     // records.owner_user_id
	FolderID    *uint64    // records.folder_id (nullable)
	RecordType  RecordType // records.record_type
	Title       string     // records.title
	Content     string     // records.content (encrypted)
	IsFavorite  bool       // records.is_favorite
	CreatedAt   time.Time  // records.created_at
	UpdatedAt   time.Time  // records.updated_at
}
