package model

import "time"

// Folder mirrors the `folders` table. Folders form a tree per user via
// ParentFolderID; deleting a folder cascades to its children and records
// at the database level.
//
// Fields:
//
//	ID             – primary key identifier.
//	OwnerUserID    – owning user.
//	ParentFolderID – parent folder (nil for root-level folders).
//	Name           – folder name.
//	CreatedAt      – creation timestamp.
type Folder struct {
	ID             uint64    // folders.id
	OwnerUserID    uint64    // folders.owner_user_id
	ParentFolderID *uint64   // folders.parent_folder_id (nullable)
	Name           string    // folders.name
	CreatedAt      time.Time // folders.created_at
}
