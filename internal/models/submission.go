package models

// SubmittedAtLayout is the timestamp format written to the submissions file
const SubmittedAtLayout = "2006-01-02 15:04:05"

// Submission is one accepted contest entry. Written once at acceptance time,
// never updated or deleted.
type Submission struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Company     string `json:"company"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	SubmittedAt string `json:"submitted_at"`
}
