package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/elimu/core/course"
)

type courseRow struct {
	ID              string      `db:"id"`
	Title           string      `db:"title"`
	Description     string      `db:"description"`
	InstructorID    null.String `db:"instructor_id"`
	CreatedAt       time.Time   `db:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at"`
	InstructorName  null.String `db:"instructor_name"`
	InstructorEmail null.String `db:"instructor_email"`
}

func (r courseRow) unpack() course.Course {
	crs := course.Course{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		InstructorID: r.InstructorID.String,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.InstructorID.Valid {
		crs.Instructor = &course.Instructor{
			ID:    r.InstructorID.String,
			Name:  r.InstructorName.String,
			Email: r.InstructorEmail.String,
		}
	}
	return crs
}

type lessonRow struct {
	ID       string `db:"id"`
	CourseID string `db:"course_id"`
	Title    string `db:"title"`
	Content  string `db:"content"`
	Position int    `db:"position"`
}

func (r lessonRow) unpack() course.Lesson {
	return course.Lesson{
		ID:       r.ID,
		CourseID: r.CourseID,
		Title:    r.Title,
		Content:  r.Content,
		Position: r.Position,
	}
}

type progressRow struct {
	UserID             string         `db:"user_id"`
	CourseID           string         `db:"course_id"`
	CompletedLessonIDs pq.StringArray `db:"completed_lesson_ids"`
	EnrolledAt         time.Time      `db:"enrolled_at"`
	UpdatedAt          time.Time      `db:"updated_at"`
}

func (r progressRow) unpack() course.Progress {
	return course.Progress{
		UserID:             r.UserID,
		CourseID:           r.CourseID,
		CompletedLessonIDs: r.CompletedLessonIDs,
		EnrolledAt:         r.EnrolledAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

const courseSelect = `
SELECT c.id, c.title, c.description, c.instructor_id, c.created_at, c.updated_at,
       u.name AS instructor_name, u.email AS instructor_email
FROM course c
         LEFT JOIN "user" u ON u.id = c.instructor_id`

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sql.DB) *courseRepository {
	return &courseRepository{db: sqlx.NewDb(db, "postgres")}
}

func (repo *courseRepository) trapNoRowsErr(err, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	if crs.ID == "" {
		crs.ID = uuid.New().String()
	}
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO course (id, title, description, instructor_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		crs.ID, crs.Title, crs.Description,
		null.NewString(crs.InstructorID, crs.InstructorID != ""), crs.CreatedAt, crs.UpdatedAt,
	)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "creating course")
	}
	return repo.GetCourseByID(ctx, crs.ID)
}

func (repo *courseRepository) QueryAllCourses(ctx context.Context) ([]course.Course, error) {
	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, courseSelect+` ORDER BY c.created_at`); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, r.unpack())
	}
	return courses, nil
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	var row courseRow
	err := repo.db.GetContext(ctx, &row, courseSelect+` WHERE c.id = $1`, id)
	if err != nil {
		return course.Course{}, repo.trapNoRowsErr(err, course.ErrNotFound, "finding course by id")
	}
	crs := row.unpack()

	var lsnRows []lessonRow
	err = repo.db.SelectContext(ctx, &lsnRows,
		`SELECT id, course_id, title, content, position FROM lesson WHERE course_id = $1 ORDER BY position, id`, id)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "querying course lessons")
	}
	for _, r := range lsnRows {
		crs.Lessons = append(crs.Lessons, r.unpack())
	}
	return crs, nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE course SET title = $1, description = $2, updated_at = $3 WHERE id = $4`,
		crs.Title, crs.Description, crs.UpdatedAt, crs.ID,
	)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return repo.GetCourseByID(ctx, crs.ID)
}

func (repo *courseRepository) DeleteCourse(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM course WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return course.ErrNotFound
	}
	return nil
}

func (repo *courseRepository) CreateLesson(ctx context.Context, lsn course.Lesson) (course.Lesson, error) {
	if lsn.ID == "" {
		lsn.ID = uuid.New().String()
	}
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO lesson (id, course_id, title, content, position) VALUES ($1, $2, $3, $4, $5)`,
		lsn.ID, lsn.CourseID, lsn.Title, lsn.Content, lsn.Position,
	)
	if err != nil {
		return course.Lesson{}, errors.Wrap(err, "creating lesson")
	}
	return lsn, nil
}

func (repo *courseRepository) GetLessonByID(ctx context.Context, courseID, lessonID string) (course.Lesson, error) {
	var row lessonRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT id, course_id, title, content, position FROM lesson WHERE id = $1 AND course_id = $2`,
		lessonID, courseID)
	if err != nil {
		return course.Lesson{}, repo.trapNoRowsErr(err, course.ErrLessonNotFound, "finding lesson by id")
	}
	return row.unpack(), nil
}

func (repo *courseRepository) CreateEnrollment(ctx context.Context, pg course.Progress) (course.Progress, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO progress (user_id, course_id, completed_lesson_ids, enrolled_at, updated_at)
		 VALUES ($1, $2, '{}', $3, $4)
		 ON CONFLICT (user_id, course_id) DO NOTHING`,
		pg.UserID, pg.CourseID, pg.EnrolledAt, pg.UpdatedAt,
	)
	if err != nil {
		return course.Progress{}, errors.Wrap(err, "creating enrollment")
	}
	// a racing enrollment may have won the insert; return whatever is stored
	return repo.GetEnrollment(ctx, pg.UserID, pg.CourseID)
}

func (repo *courseRepository) GetEnrollment(ctx context.Context, userID, courseID string) (course.Progress, error) {
	var row progressRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT * FROM progress WHERE user_id = $1 AND course_id = $2`, userID, courseID)
	if err != nil {
		return course.Progress{}, repo.trapNoRowsErr(err, course.ErrNotEnrolled, "finding enrollment")
	}
	return row.unpack(), nil
}

func (repo *courseRepository) SaveProgress(ctx context.Context, pg course.Progress) (course.Progress, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE progress SET completed_lesson_ids = $1, updated_at = $2 WHERE user_id = $3 AND course_id = $4`,
		pq.StringArray(pg.CompletedLessonIDs), pg.UpdatedAt, pg.UserID, pg.CourseID,
	)
	if err != nil {
		return course.Progress{}, errors.Wrap(err, "saving progress")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return course.Progress{}, course.ErrNotEnrolled
	}
	return pg, nil
}
