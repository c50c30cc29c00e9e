package domain

// Department is reference data owned by the records backend.
type Department struct {
	ID         string   `json:"_id"`
	Name       string   `json:"name"`
	Categories []string `json:"categories"`
}
