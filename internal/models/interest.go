package models

import "time"

// Interest is an entry of the global tag catalog shared by user preferences and course tags.
type Interest struct {
	ID        string    `json:"id" gorm:"primaryKey;size:64"`
	Name      string    `json:"name" gorm:"uniqueIndex;not null;size:100"`
	CreatedAt time.Time `json:"created_at"`
}

func (Interest) TableName() string {
	return "interests"
}
