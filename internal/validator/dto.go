package validator

// CourseCreateRequest represents the request structure for creating courses
type CourseCreateRequest struct {
	Title              string           `json:"title" validate:"required,course_title"`
	Description        string           `json:"description" validate:"required,max=5000"`
	DifficultyLevel    string           `json:"difficulty_level" validate:"omitempty,difficulty_level"`
	EstimatedHours     *int             `json:"estimated_hours" validate:"omitempty,min=1,max=1000"`
	Category           string           `json:"category" validate:"required,max=100"`
	Tags               []string         `json:"tags" validate:"required,max=20,dive,max=100"`
	Sections           []SectionRequest `json:"sections" validate:"omitempty,max=200,dive"`
	Prerequisites      []string         `json:"prerequisites" validate:"required,dive,max=500"`
	LearningObjectives []string         `json:"learning_objectives" validate:"required,dive,max=500"`
}

// CourseUpdateRequest carries a partial course patch; nil fields are left untouched
type CourseUpdateRequest struct {
	Title              *string          `json:"title" validate:"omitempty,course_title"`
	Description        *string          `json:"description" validate:"omitempty,min=1,max=5000"`
	DifficultyLevel    *string          `json:"difficulty_level" validate:"omitempty,difficulty_level"`
	EstimatedHours     *int             `json:"estimated_hours" validate:"omitempty,min=1,max=1000"`
	Category           *string          `json:"category" validate:"omitempty,min=1,max=100"`
	Tags               []string         `json:"tags" validate:"omitempty,max=20,dive,max=100"`
	Sections           []SectionRequest `json:"sections" validate:"omitempty,max=200,dive"`
	Prerequisites      []string         `json:"prerequisites" validate:"omitempty,dive,max=500"`
	LearningObjectives []string         `json:"learning_objectives" validate:"omitempty,dive,max=500"`
	Status             *string          `json:"status" validate:"omitempty,course_status"`
}

// SectionRequest is a course section as supplied by a teacher.
// Any id or order sent by the client is ignored.
type SectionRequest struct {
	ID                 string `json:"id"`
	Title              string `json:"title" validate:"required,max=200"`
	Content            string `json:"content"`
	Order              *int   `json:"order"`
	ReadingTimeMinutes int    `json:"reading_time_minutes" validate:"min=0,max=10000"`
}

type RegisterRequest struct {
	Username  string   `json:"username" validate:"required,username"`
	Email     string   `json:"email" validate:"required,email,max=255"`
	Password  string   `json:"password" validate:"required,min=8,max=72"`
	FullName  string   `json:"full_name" validate:"required,max=100"`
	Role      string   `json:"role" validate:"required,oneof=student teacher"`
	Interests []string `json:"interests" validate:"omitempty,max=50,dive,max=100"`
}

// LoginRequest accepts either the username or the email in Login
type LoginRequest struct {
	Login    string `json:"login" validate:"required,max=255"`
	Password string `json:"password" validate:"required,max=72"`
}

type UpdateInterestsRequest struct {
	Interests []string `json:"interests" validate:"required,max=50,dive,max=100"`
}
