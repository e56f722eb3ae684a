package project

import "time"

// Dataset records a data source registered with a project. The data itself
// stays where it is; the schema is captured so list can show it offline.
type Dataset struct {
	ID          string    `json:"id"`
	Path        string    `json:"path"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Sheet       string    `json:"sheet,omitempty"`
	Rows        int       `json:"rows"`
	Columns     []string  `json:"columns"`
	First       time.Time `json:"first"`
	Last        time.Time `json:"last"`
	AddedAt     time.Time `json:"added_at"`
}
