package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// AdvancedParams are the optional boolean switches forwarded to the backend.
// Only true values are encoded into the request; absence means off.
type AdvancedParams struct {
	Emoji  bool `json:"emoji,omitempty"`
	UDP    bool `json:"udp,omitempty"`
	TFO    bool `json:"tfo,omitempty"`
	SCV    bool `json:"scv,omitempty"`
	Expand bool `json:"expand,omitempty"`
}

// GenerateParams is the full recipe for one conversion. It is stored verbatim
// on the generated record so refresh can replay it.
type GenerateParams struct {
	BackendURL   string            `json:"backendUrl"`
	Target       string            `json:"target"`
	URLs         []string          `json:"urls"`
	ConfigURL    string            `json:"configUrl,omitempty"`
	Exclude      string            `json:"exclude,omitempty"`
	Include      string            `json:"include,omitempty"`
	Filename     string            `json:"filename,omitempty"`
	Advanced     *AdvancedParams   `json:"advanced,omitempty"`
	CustomParams map[string]string `json:"customParams,omitempty"`
}

// Value implements driver.Valuer so GORM persists the params as jsonb.
func (p GenerateParams) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner for reading the jsonb column back.
func (p *GenerateParams) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*p = GenerateParams{}
		return nil
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return errors.New("generate params: unsupported scan source")
	}
}

// FileExt returns the stored file extension for a conversion target.
func FileExt(target string) string {
	if target == "clash" {
		return "yaml"
	}
	return "txt"
}

// GeneratedConfig is one stored conversion artifact. Token is the only access
// control on the public download path and must stay unguessable; it never
// changes across refreshes so shared links keep working. Version backs the
// compare-and-swap on refresh.
type GeneratedConfig struct {
	ID        string         `db:"id" json:"id" gorm:"primaryKey;size:36"`
	UserID    string         `db:"user_id" json:"user_id" gorm:"size:36;not null;index"`
	Token     string         `db:"token" json:"token" gorm:"size:32;not null"`
	Filename  string         `db:"filename" json:"filename" gorm:"size:64;not null"`
	Target    string         `db:"target" json:"target" gorm:"size:32;not null"`
	Params    GenerateParams `db:"params" json:"params" gorm:"type:jsonb;not null"`
	Name      string         `db:"name" json:"name,omitempty" gorm:"size:255"`
	Version   int            `db:"version" json:"-" gorm:"not null;default:1"`
	CreatedAt time.Time      `db:"created_at" json:"created_at" gorm:"autoCreateTime"`
}

// DisplayFilename is the name suggested to downloading clients.
func (c *GeneratedConfig) DisplayFilename() string {
	if c.Name != "" {
		return c.Name + "." + FileExt(c.Target)
	}
	return c.Filename
}
