package course

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Broadcast events
const (
	EventCourseCreated = "course.created"
)

var (
	// errors
	ErrNotFound       = errors.New("course not found")
	ErrLessonNotFound = errors.New("lesson not found")
	ErrNotEnrolled    = errors.New("not enrolled in this course")
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		QueryAllCourses(ctx context.Context) ([]Course, error)
		// GetCourseByID returns the course with its lessons and instructor summary.
		GetCourseByID(ctx context.Context, id string) (Course, error)
		UpdateCourse(ctx context.Context, crs Course) (Course, error)
		DeleteCourse(ctx context.Context, id string) error

		CreateLesson(ctx context.Context, lsn Lesson) (Lesson, error)
		GetLessonByID(ctx context.Context, courseID, lessonID string) (Lesson, error)

		CreateEnrollment(ctx context.Context, pg Progress) (Progress, error)
		GetEnrollment(ctx context.Context, userID, courseID string) (Progress, error)
		SaveProgress(ctx context.Context, pg Progress) (Progress, error)
	}

	// Broadcaster fans domain events out to whoever is listening (eg. a
	// websocket hub). The service does not care about the transport and
	// treats delivery as best-effort.
	Broadcaster interface {
		Broadcast(event string, data interface{})
	}

	Service struct {
		repo   Repository
		events Broadcaster
	}
)

func NewService(repo Repository, events Broadcaster) *Service {
	return &Service{
		repo:   repo,
		events: events,
	}
}

func (svc *Service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	now := time.Now().UTC()
	crs := Course{
		Title:        nc.Title,
		Description:  nc.Description,
		InstructorID: nc.InstructorID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	crs, err := svc.repo.CreateCourse(ctx, crs)
	if err != nil {
		return Course{}, errors.Wrap(err, "creating course")
	}

	if svc.events != nil {
		svc.events.Broadcast(EventCourseCreated, crs)
	}
	return crs, nil
}

func (svc *Service) QueryAll(ctx context.Context) ([]Course, error) {
	return svc.repo.QueryAllCourses(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourseByID(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, uc UpdateCourse) (Course, error) {
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}
	crs.Title = uc.Title
	crs.Description = uc.Description
	crs.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, crs)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteCourse(ctx, id)
}

func (svc *Service) AddLesson(ctx context.Context, courseID string, nl NewLesson) (Lesson, error) {
	if _, err := svc.repo.GetCourseByID(ctx, courseID); err != nil {
		return Lesson{}, err
	}
	lsn := Lesson{
		CourseID: courseID,
		Title:    nl.Title,
		Content:  nl.Content,
		Position: nl.Position,
	}
	return svc.repo.CreateLesson(ctx, lsn)
}

// Enroll records userID's enrollment in a course; enrolling twice is a no-op
// returning the existing progress.
func (svc *Service) Enroll(ctx context.Context, userID, courseID string) (Progress, error) {
	if _, err := svc.repo.GetCourseByID(ctx, courseID); err != nil {
		return Progress{}, err
	}
	if pg, err := svc.repo.GetEnrollment(ctx, userID, courseID); err == nil {
		return pg, nil
	} else if errors.Cause(err) != ErrNotEnrolled {
		return Progress{}, err
	}

	now := time.Now().UTC()
	return svc.repo.CreateEnrollment(ctx, Progress{
		UserID:     userID,
		CourseID:   courseID,
		EnrolledAt: now,
		UpdatedAt:  now,
	})
}

// CompleteLesson marks a lesson done for an enrolled user; completing the same
// lesson twice is a no-op.
func (svc *Service) CompleteLesson(ctx context.Context, userID, courseID, lessonID string) (Progress, error) {
	if _, err := svc.repo.GetLessonByID(ctx, courseID, lessonID); err != nil {
		return Progress{}, err
	}
	pg, err := svc.repo.GetEnrollment(ctx, userID, courseID)
	if err != nil {
		return Progress{}, err
	}
	if pg.HasCompleted(lessonID) {
		return pg, nil
	}

	pg.CompletedLessonIDs = append(pg.CompletedLessonIDs, lessonID)
	pg.UpdatedAt = time.Now().UTC()
	return svc.repo.SaveProgress(ctx, pg)
}

func (svc *Service) GetProgress(ctx context.Context, userID, courseID string) (Progress, error) {
	return svc.repo.GetEnrollment(ctx, userID, courseID)
}
