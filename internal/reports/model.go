package reports

import "time"

// ReportPayload is the uploaded JSON document a drone produces for one
// patrol.
type ReportPayload struct {
	DroneID    string             `json:"drone_id" validate:"required"`
	Date       string             `json:"date" validate:"required,datetime=2006-01-02"`
	Location   string             `json:"location" validate:"required"`
	Violations []ViolationPayload `json:"violations" validate:"required,dive"`
}

type ViolationPayload struct {
	ID        string  `json:"id" validate:"required"`
	Type      string  `json:"type" validate:"required"`
	Timestamp string  `json:"timestamp" validate:"required"`
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
	ImageURL  string  `json:"image_url" validate:"required,url"`
}

// Report is the persisted form.
type Report struct {
	ID         int64       `json:"id"`
	DroneID    string      `json:"drone_id"`
	Date       string      `json:"date"`
	Location   string      `json:"location"`
	UploadedBy int64       `json:"uploaded_by,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	Violations []Violation `json:"violations,omitempty"`
}

type Violation struct {
	ViolationID string    `json:"violation_id"`
	Type        string    `json:"type"`
	Timestamp   string    `json:"timestamp"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	ImageURL    string    `json:"image_url"`
	DroneID     string    `json:"drone_id,omitempty"`
	Date        string    `json:"date,omitempty"`
	Location    string    `json:"location,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Filter narrows violation queries.
type Filter struct {
	DroneID string
	Date    string
	Type    string
	Limit   int
}

// KPIs aggregates violation counts for the dashboard.
type KPIs struct {
	Total      int64        `json:"total"`
	ByType     []GroupCount `json:"by_type"`
	ByDrone    []GroupCount `json:"by_drone"`
	ByLocation []GroupCount `json:"by_location"`
	OverTime   []GroupCount `json:"over_time"`
}

type GroupCount struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// FilterOptions lists the distinct values the UI can filter on.
type FilterOptions struct {
	DroneIDs []string `json:"drone_ids"`
	Dates    []string `json:"dates"`
	Types    []string `json:"types"`
}
