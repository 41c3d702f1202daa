package domain

import "time"

// CatalogEntry is the index record describing one dataset in a scope.
// Scope is only set on merged views.
type CatalogEntry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	File      string    `json:"file"`
	Subject   string    `json:"subject"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Scope     Scope     `json:"scope,omitempty"`
}
