package model

import "gorm.io/datatypes"

// Label is stored inline on boards (the palette) and on tasks. Task labels
// are copies and may drift from the board palette.
type Label struct {
	ID    string `json:"id,omitempty"`
	Color string `json:"color"`
	Title string `json:"title"`
}

// DefaultPalette is assigned to every new board that does not bring its own.
func DefaultPalette() datatypes.JSONSlice[Label] {
	return datatypes.JSONSlice[Label]{
		{Color: "#4BCE97"},
		{Color: "#F5CD47"},
		{Color: "#FEA362"},
		{Color: "#F87168"},
		{Color: "#9F8FEF"},
		{Color: "#579DFF"},
		{Color: "#6CC3E0"},
	}
}
