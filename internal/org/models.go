package org

import "time"

// Organization statuses as stored. Only active organizations are picked up
// by bulk assessment generation.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusPending  = "pending"
)

type Organization struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"organization_type"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ListOpts struct {
	Status string // optional filter
	Limit  int
	Offset int
}
