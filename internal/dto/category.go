package dto

// CategoryInput creates or updates a category.
type CategoryInput struct {
	Name        string `json:"name" validate:"required,min=2,max=80"`
	Description string `json:"description" validate:"max=500"`
	Icon        string `json:"icon" validate:"max=100"`
	IsActive    *bool  `json:"isActive"`
}

// ReconcileResult reports how many categories had their counters corrected.
type ReconcileResult struct {
	Updated int `json:"updated"`
}
