package models

import "github.com/gofrs/uuid"

// Category is a named, colored label used to group tasks. Color is a hex
// string used purely for presentation.
type Category struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Color string    `json:"color"`
}
