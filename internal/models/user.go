package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

type UserRole string
type Role = UserRole // Alias for compatibility

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
)

// ParseUserRole lower-cases the input and reports whether it names a known role.
func ParseUserRole(s string) (UserRole, bool) {
	switch r := UserRole(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleStudent, RoleTeacher:
		return r, true
	default:
		return "", false
	}
}

type User struct {
	ID           string   `json:"id" gorm:"primaryKey;size:64"`
	Username     string   `json:"username" gorm:"uniqueIndex;not null;size:50"`
	Email        string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	PasswordHash string   `json:"-" gorm:"size:255"`
	FullName     string   `json:"full_name" gorm:"not null;size:100"`
	Role         UserRole `json:"role" gorm:"not null;size:20;index"`

	// Ordered, de-duplicated interest tags
	Interests datatypes.JSONSlice[string] `json:"interests" gorm:"type:json"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// Caller is the authenticated principal attached to a request.
type Caller struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	FullName string   `json:"full_name,omitempty"`
}

func (c *Caller) IsTeacher() bool { return c != nil && c.Role == RoleTeacher }
func (c *Caller) IsStudent() bool { return c != nil && c.Role == RoleStudent }

// NormalizeTags trims, drops empties and de-duplicates while keeping first-seen order.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
