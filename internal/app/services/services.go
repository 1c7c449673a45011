package services

// Services bundles the service layer for dependency wiring
type Services struct {
	AuthService           *AuthService
	CourseService         *CourseService
	ReconciliationService *ReconciliationService
}
