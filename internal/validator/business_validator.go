package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/SAP-F-2025/mentora-service/internal/models"
	"github.com/go-playground/validator/v10"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]{3,32}$`)

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates struct tags for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	err := bv.validate.Struct(s)
	if err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateCourseCreate validates course creation business rules
func (bv *BusinessValidator) ValidateCourseCreate(req *CourseCreateRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)
	errors = append(errors, validateTags(req.Tags)...)

	return errors
}

// ValidateCourseUpdate validates a course patch against the stored course
func (bv *BusinessValidator) ValidateCourseUpdate(req *CourseUpdateRequest, existing *models.Course) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)
	if req.Tags != nil {
		errors = append(errors, validateTags(req.Tags)...)
	}

	if req.Status != nil {
		if next, ok := models.ParseCourseStatus(*req.Status); ok {
			errors = append(errors, bv.ValidateStatusTransition(existing.Status, next)...)
		}
	}

	return errors
}

// ValidateStatusTransition validates course status transitions
func (bv *BusinessValidator) ValidateStatusTransition(current, next models.CourseStatus) ValidationErrors {
	if current.CanTransitionTo(next) {
		return nil
	}
	return ValidationErrors{{
		Field:   "status",
		Message: fmt.Sprintf("cannot transition from %s to %s", current, next),
		Value:   next,
		Rule:    "status_transition",
	}}
}

// ValidateRegister validates a registration request
func (bv *BusinessValidator) ValidateRegister(req *RegisterRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)
	if req.FullName != "" && strings.TrimSpace(req.FullName) == "" {
		errors = append(errors, ValidationError{
			Field:   "full_name",
			Message: "cannot be blank",
			Rule:    "business_logic",
		})
	}

	return errors
}

func (bv *BusinessValidator) registerBusinessRules() {
	// Title validation (1-200 characters after trimming)
	bv.validate.RegisterValidation("course_title", func(fl validator.FieldLevel) bool {
		title := strings.TrimSpace(fl.Field().String())
		return len(title) >= 1 && len(title) <= 200
	})

	bv.validate.RegisterValidation("difficulty_level", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseDifficultyLevel(fl.Field().String())
		return ok
	})

	bv.validate.RegisterValidation("course_status", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseCourseStatus(fl.Field().String())
		return ok
	})

	bv.validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
}

func validateTags(tags []string) ValidationErrors {
	var errors ValidationErrors
	for i, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("tags[%d]", i),
				Message: "tag cannot be empty",
				Value:   tag,
				Rule:    "business_logic",
			})
		}
	}
	return errors
}
