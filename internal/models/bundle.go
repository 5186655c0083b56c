package models

import (
	"time"
)

// Bundle is the serializable result of the server-assisted load path.
type Bundle struct {
	FileName    string          `json:"fileName"`
	Hash        string          `json:"hash"`
	MeshCount   int             `json:"meshCount"`
	Elements    []ElementRecord `json:"elements"`
	Materials   []MaterialGroup `json:"materials"`
	Storeys     []FlatNode      `json:"storeys"`
	SpatialTree *SpatialNode    `json:"spatialTree,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	ExpiresAt   time.Time       `json:"expiresAt"`
	CacheHit    bool            `json:"cacheHit"`
}

// Expired reports whether the bundle is past its expiry at the given time.
func (b *Bundle) Expired(now time.Time) bool {
	return !b.ExpiresAt.IsZero() && now.After(b.ExpiresAt)
}

// BundleRecord represents the metadata of a processed model stored in the database.
type BundleRecord struct {
	Hash         string    `gorm:"primaryKey;size:64" json:"hash"`
	FileName     string    `json:"file_name"`
	Size         int64     `json:"size"`
	MeshCount    int       `json:"mesh_count"`
	ElementCount int       `json:"element_count"`
	GroupCount   int       `json:"group_count"`
	StorageKey   string    `json:"storage_key"`
	ProcessedAt  time.Time `json:"processed_at"`
	ExpiresAt    time.Time `gorm:"index" json:"expires_at"`
}
