package model

import "time"

// Seed statuses
const (
	SeedStatusActive  = "active"
	SeedStatusRetired = "retired"
)

// Seed is a saved FractalParams preset. Seeds only supply parameter sets to
// the map service; the computation core never depends on how they are
// stored.
type Seed struct {
	ID        string        `json:"id"`
	DisplayID int           `json:"displayId"`
	Name      string        `json:"name"`
	Params    FractalParams `json:"params"`
	Status    string        `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// SeedCreateRequest creates a new seed preset.
type SeedCreateRequest struct {
	Name   string        `json:"name" validate:"required,min=1,max=128"`
	Params FractalParams `json:"params" validate:"required"`
}

// SeedUpdateRequest replaces a seed's name and/or params.
type SeedUpdateRequest struct {
	Name   *string        `json:"name,omitempty" validate:"omitempty,min=1,max=128"`
	Params *FractalParams `json:"params,omitempty"`
}

// ImageRecord logs one rendered map image: which seed and map it came from
// and where the encoded PNG ended up.
type ImageRecord struct {
	ID        string    `json:"id"`
	SeedID    string    `json:"seedId,omitempty"`
	MapName   string    `json:"mapName"`
	Encoding  string    `json:"encoding"`
	StoredURL string    `json:"storedUrl,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// ImageLogRequest logs a rendered image.
type ImageLogRequest struct {
	SeedID  string        `json:"seedId,omitempty"`
	MapName string        `json:"mapName" validate:"required"`
	Params  FractalParams `json:"params" validate:"required"`
}
