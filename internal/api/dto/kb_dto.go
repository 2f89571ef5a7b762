package dto

import "time"

// CategoryRequest payload.
type CategoryRequest struct {
	Name string `json:"name"`
}

// CategoryResponse projection.
type CategoryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ArticleRequest payload for create/update.
type ArticleRequest struct {
	CategoryID *string `json:"category_id,omitempty"`
	Title      string  `json:"title"`
	Excerpt    string  `json:"excerpt"`
	Content    string  `json:"content"`
	IsFeatured bool    `json:"is_featured"`
}

// PublishRequest payload.
type PublishRequest struct {
	Published bool `json:"published"`
}

// ArticleResponse projection. HTML is present only on detail reads.
type ArticleResponse struct {
	ID          string    `json:"id"`
	CategoryID  *string   `json:"category_id,omitempty"`
	Title       string    `json:"title"`
	Excerpt     string    `json:"excerpt"`
	Content     string    `json:"content,omitempty"`
	HTML        string    `json:"html,omitempty"`
	IsPublished bool      `json:"is_published"`
	IsFeatured  bool      `json:"is_featured"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DraftResponse is a proposed article from a resolved ticket.
type DraftResponse struct {
	Title   string `json:"title"`
	Excerpt string `json:"excerpt"`
	Content string `json:"content"`
}
