package dto

// BulkStatusRequest represents a bulk status override for a set of courses
type BulkStatusRequest struct {
	CourseIDs []int64 `json:"courseIds" binding:"required,min=1"`
	Status    string  `json:"status" binding:"required,oneof=draft published expired"`
	Force     bool    `json:"force"`
}
