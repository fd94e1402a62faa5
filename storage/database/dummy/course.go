package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/elimu/core/course"
)

type courseRepository struct {
	db *courseTable
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db.course}
}

func progressKey(userID, courseID string) string {
	return userID + "/" + courseID
}

func (repo *courseRepository) get(id string) (course.Course, error) {
	crs, ok := repo.db.courses[id]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}

	out := *crs
	out.Lessons = nil
	for _, lsn := range repo.db.lessons {
		if lsn.CourseID == id {
			out.Lessons = append(out.Lessons, *lsn)
		}
	}
	sort.Slice(out.Lessons, func(i, j int) bool {
		if out.Lessons[i].Position != out.Lessons[j].Position {
			return out.Lessons[i].Position < out.Lessons[j].Position
		}
		return out.Lessons[i].ID < out.Lessons[j].ID
	})
	return out, nil
}

func (repo *courseRepository) CreateCourse(_ context.Context, crs course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if crs.ID == "" {
		crs.ID = uuid.New().String()
	}
	repo.db.courses[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) QueryAllCourses(_ context.Context) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	courses := make([]course.Course, 0, len(repo.db.courses))
	for _, crs := range repo.db.courses {
		courses = append(courses, *crs)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].CreatedAt.Before(courses[j].CreatedAt) })
	return courses, nil
}

func (repo *courseRepository) GetCourseByID(_ context.Context, id string) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.get(id)
}

func (repo *courseRepository) UpdateCourse(_ context.Context, crs course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	stored, ok := repo.db.courses[crs.ID]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	stored.Title = crs.Title
	stored.Description = crs.Description
	stored.UpdatedAt = crs.UpdatedAt
	return repo.get(crs.ID)
}

func (repo *courseRepository) DeleteCourse(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.courses[id]; !ok {
		return course.ErrNotFound
	}
	delete(repo.db.courses, id)
	for lid, lsn := range repo.db.lessons {
		if lsn.CourseID == id {
			delete(repo.db.lessons, lid)
		}
	}
	return nil
}

func (repo *courseRepository) CreateLesson(_ context.Context, lsn course.Lesson) (course.Lesson, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if lsn.ID == "" {
		lsn.ID = uuid.New().String()
	}
	repo.db.lessons[lsn.ID] = &lsn
	return lsn, nil
}

func (repo *courseRepository) GetLessonByID(_ context.Context, courseID, lessonID string) (course.Lesson, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if lsn, ok := repo.db.lessons[lessonID]; ok && lsn.CourseID == courseID {
		return *lsn, nil
	}
	return course.Lesson{}, course.ErrLessonNotFound
}

func (repo *courseRepository) CreateEnrollment(_ context.Context, pg course.Progress) (course.Progress, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := progressKey(pg.UserID, pg.CourseID)
	if stored, ok := repo.db.progress[key]; ok {
		return *stored, nil
	}
	repo.db.progress[key] = &pg
	return pg, nil
}

func (repo *courseRepository) GetEnrollment(_ context.Context, userID, courseID string) (course.Progress, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if pg, ok := repo.db.progress[progressKey(userID, courseID)]; ok {
		return *pg, nil
	}
	return course.Progress{}, course.ErrNotEnrolled
}

func (repo *courseRepository) SaveProgress(_ context.Context, pg course.Progress) (course.Progress, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := progressKey(pg.UserID, pg.CourseID)
	if _, ok := repo.db.progress[key]; !ok {
		return course.Progress{}, course.ErrNotEnrolled
	}
	repo.db.progress[key] = &pg
	return pg, nil
}
