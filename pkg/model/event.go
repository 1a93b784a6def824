package model

import "time"

type Event struct {
	ID           string     `json:"id,omitempty" bson:"_id,omitempty"`
	Title        string     `json:"title" bson:"title"`
	Description  string     `json:"description,omitempty" bson:"description,omitempty"`
	Location     string     `json:"location,omitempty" bson:"location,omitempty"`
	StartDate    time.Time  `json:"start_date" bson:"start_date"`
	EndDate      *time.Time `json:"end_date,omitempty" bson:"end_date,omitempty"`
	ImageURL     string     `json:"image_url,omitempty" bson:"image_url,omitempty"`
	ThumbnailURL string     `json:"thumbnail_url,omitempty" bson:"thumbnail_url,omitempty"`
	CreatedBy    string     `json:"created_by" bson:"created_by"`
	CreatedAt    time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" bson:"updated_at"`
}

// EventInput is read from multipart form fields.
type EventInput struct {
	Title       string `json:"title" validate:"required,min=2,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Location    string `json:"location" validate:"max=300"`
	StartDate   string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate     string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

const (
	EventsUpcoming = "upcoming"
	EventsPast     = "past"
)

type EventFilter struct {
	When string // EventsUpcoming, EventsPast or empty for all
}

type GalleryItem struct {
	ID           string    `json:"id,omitempty" bson:"_id,omitempty"`
	Title        string    `json:"title" bson:"title"`
	Category     string    `json:"category" bson:"category"`
	EventID      string    `json:"event_id,omitempty" bson:"event_id,omitempty"`
	ImageURL     string    `json:"image_url" bson:"image_url"`
	ThumbnailURL string    `json:"thumbnail_url" bson:"thumbnail_url"`
	CreatedBy    string    `json:"created_by" bson:"created_by"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

type GalleryInput struct {
	Title    string `json:"title" validate:"required,min=2,max=200"`
	Category string `json:"category" validate:"required,min=2,max=50"`
	EventID  string `json:"event_id" validate:"omitempty,mongodb"`
}

type GalleryFilter struct {
	Category string
	EventID  string
}
