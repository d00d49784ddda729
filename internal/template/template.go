// Package template manages versioned assessment templates. A template is an
// indicator scaffold an operator starts a new assessment from; at most one
// template per type is active at a time.
package template

import (
	"encoding/json"
	"errors"
	"time"
)

var ErrNotFound = errors.New("template not found")

type Template struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Type         string          `json:"type"`
	Version      int             `json:"version"`
	TemplateData json.RawMessage `json:"template_data"`
	Description  string          `json:"description,omitempty"`
	IsActive     bool            `json:"is_active"`
	CreatedBy    string          `json:"created_by"`
	CreatedAt    time.Time       `json:"created_at"`
}

type ListOpts struct {
	Type string // "" = any
}
