package model

import "time"

// Subscription is a proxy subscription source owned by one user. Either URL
// points at a remote provider, or Content holds the subscription body inline
// and URL is rewritten to this service's own /api/raw/{id} address.
type Subscription struct {
	ID        string    `db:"id" json:"id" gorm:"primaryKey;size:36"`
	UserID    string    `db:"user_id" json:"user_id" gorm:"size:36;not null;index"`
	Name      string    `db:"name" json:"name" gorm:"size:255;not null"`
	URL       string    `db:"url" json:"url" gorm:"type:text"`
	Content   string    `db:"content" json:"content,omitempty" gorm:"type:text"`
	Enabled   bool      `db:"enabled" json:"enabled" gorm:"not null;default:true"`
	CreatedAt time.Time `db:"created_at" json:"created_at" gorm:"autoCreateTime"`
}

// BackendURL is a registered subconverter backend endpoint.
type BackendURL struct {
	ID        string    `db:"id" json:"id" gorm:"primaryKey;size:36"`
	UserID    string    `db:"user_id" json:"user_id" gorm:"size:36;not null;index"`
	Name      string    `db:"name" json:"name" gorm:"size:255;not null"`
	URL       string    `db:"url" json:"url" gorm:"type:text;not null"`
	Enabled   bool      `db:"enabled" json:"enabled" gorm:"not null;default:true"`
	CreatedAt time.Time `db:"created_at" json:"created_at" gorm:"autoCreateTime"`
}

// RemoteConfig is a saved remote rule-set URL passed to the backend as the
// config query parameter.
type RemoteConfig struct {
	ID        string    `db:"id" json:"id" gorm:"primaryKey;size:36"`
	UserID    string    `db:"user_id" json:"user_id" gorm:"size:36;not null;index"`
	Name      string    `db:"name" json:"name" gorm:"size:255;not null"`
	URL       string    `db:"url" json:"url" gorm:"type:text;not null"`
	Enabled   bool      `db:"enabled" json:"enabled" gorm:"not null;default:true"`
	CreatedAt time.Time `db:"created_at" json:"created_at" gorm:"autoCreateTime"`
}
