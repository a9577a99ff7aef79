package models

import "time"

type Venue struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	City        string    `json:"city"`
	Address     string    `json:"address"`
	About       string    `json:"about"`
	AutoApprove bool      `json:"auto_approve"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
