package course

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/elimu/core"
)

type (
	// Instructor is the identity summary joined onto courses.
	Instructor struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}

	Course struct {
		ID           string      `json:"id"`
		Title        string      `json:"title"`
		Description  string      `json:"description"`
		InstructorID string      `json:"-"`
		Instructor   *Instructor `json:"instructor,omitempty"`
		Lessons      []Lesson    `json:"lessons,omitempty"`
		CreatedAt    time.Time   `json:"created_at"` // UTC
		UpdatedAt    time.Time   `json:"updated_at"` // UTC
	}

	Lesson struct {
		ID       string `json:"id"`
		CourseID string `json:"course_id"`
		Title    string `json:"title"`
		Content  string `json:"content"` // text, video URL, etc.
		Position int    `json:"position"`
	}

	// Progress tracks a user's enrollment in a course and the lessons completed.
	Progress struct {
		UserID             string    `json:"user_id"`
		CourseID           string    `json:"course_id"`
		CompletedLessonIDs []string  `json:"completed_lesson_ids"`
		EnrolledAt         time.Time `json:"enrolled_at"` // UTC
		UpdatedAt          time.Time `json:"updated_at"`  // UTC
	}
)

func (p *Progress) HasCompleted(lessonID string) bool {
	for _, id := range p.CompletedLessonIDs {
		if id == lessonID {
			return true
		}
	}
	return false
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Title        string `json:"title" validate:"required,max=200"`
	Description  string `json:"description"`
	InstructorID string `json:"instructor_id" validate:"omitempty,uuid4"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	return validate.Struct(nc)
}

// UpdateCourse replaces a Course's mutable fields; no partial updates.
type UpdateCourse struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description"`
}

func (uc *UpdateCourse) Validate(validate *validator.Validate) error {
	uc.Title = core.CleanString(uc.Title)
	uc.Description = core.CleanString(uc.Description)
	return validate.Struct(uc)
}

// NewLesson contains information needed to add a Lesson to a Course.
type NewLesson struct {
	Title    string `json:"title" validate:"required,max=200"`
	Content  string `json:"content"`
	Position int    `json:"position" validate:"omitempty,gte=0"`
}

func (nl *NewLesson) Validate(validate *validator.Validate) error {
	nl.Title = core.CleanString(nl.Title)
	return validate.Struct(nl)
}
