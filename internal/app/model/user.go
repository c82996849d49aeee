package model

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is a dashboard account. Passwords are stored as bcrypt hashes only.
type User struct {
	ID           string    `db:"id" json:"id" gorm:"primaryKey;size:36"`
	Email        string    `db:"email" json:"email" gorm:"size:255;not null;uniqueIndex"`
	PasswordHash string    `db:"password_hash" json:"-" gorm:"size:72;not null"`
	Role         string    `db:"role" json:"role" gorm:"size:16;not null;default:user"`
	CreatedAt    time.Time `db:"created_at" json:"created_at" gorm:"autoCreateTime"`
}

// SystemSetting is a single key/value row for global switches such as
// registration_enabled.
type SystemSetting struct {
	Key   string `db:"key" json:"key" gorm:"primaryKey;size:64"`
	Value string `db:"value" json:"value" gorm:"size:255;not null"`
}

// SettingRegistrationEnabled gates self-service signups. Missing row means
// enabled.
const SettingRegistrationEnabled = "registration_enabled"
