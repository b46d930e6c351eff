package entity

import "time"

// DiseaseReport is a saved disease-detection result. Reports are immutable
// once written.
type DiseaseReport struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"userId"`
	Disease    string    `json:"disease"`
	Confidence float64   `json:"confidence"`
	Cause      string    `json:"cause"`
	Treatment  []string  `json:"treatment"`
	Stores     []string  `json:"stores"`
	ImageName  string    `json:"imageName"`
	CreatedAt  time.Time `json:"createdAt"`
}
