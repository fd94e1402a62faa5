package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/user"
)

func createCourse(t *testing.T, svc *course.Service, title string) course.Course {
	t.Helper()

	crs, err := svc.Create(context.Background(), course.NewCourse{Title: title})
	if err != nil {
		t.Fatalf("createCourse() failed: %v", err)
	}
	return crs
}

func Test_courseApi_query(t *testing.T) {
	app := initApp(t)

	// empty catalog is an empty list, not null
	req, rec := newRequest(http.MethodGet, "/v1/courses")
	app.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, "[]", rec.Body.String())

	createCourse(t, app.crsSvc, "Go 101")
	createCourse(t, app.crsSvc, "SQL 201")

	req, rec = newRequest(http.MethodGet, "/v1/courses")
	app.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var courses []course.Course
	unmarshal(t, rec, &courses)
	assert.Len(t, courses, 2)
}

func Test_courseApi_retrieve(t *testing.T) {
	app := initApp(t)
	crs := createCourse(t, app.crsSvc, "Go 101")

	req, rec := newRequest(http.MethodGet, "/v1/courses/"+crs.ID)
	app.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got course.Course
	unmarshal(t, rec, &got)
	assert.Equal(t, crs.ID, got.ID)
	assert.Equal(t, "Go 101", got.Title)

	// unknown id
	req, rec = newRequest(http.MethodGet, "/v1/courses/nope")
	app.do(req, rec)
	require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())

	var body httpErr
	unmarshal(t, rec, &body)
	assert.Equal(t, errNotFoundBody, body)
}

func Test_courseApi_create(t *testing.T) {
	app := initApp(t)
	admin := createUser(t, app.usrRepo, "Awa", "awa@test.cm", "secret1", user.RoleAdmin)
	student := createUser(t, app.usrRepo, "Hawi", "hawi@test.cm", "secret1", user.RoleStudent)

	data := marshal(t, course.NewCourse{Title: "Go 101", Description: "Intro"})

	tests := []struct {
		name     string
		token    string
		data     []byte
		wantCode int
	}{
		{name: "admin can create", token: getToken(t, admin), data: data, wantCode: http.StatusCreated},
		{name: "student cannot", token: getToken(t, student), data: data, wantCode: http.StatusForbidden},
		{name: "anonymous cannot", data: data, wantCode: http.StatusUnauthorized},
		{name: "title is required", token: getToken(t, admin), data: marshal(t, course.NewCourse{Description: "no title"}), wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/courses", tt.token, tt.data)
			app.do(req, rec)

			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantCode == http.StatusCreated {
				var crs course.Course
				unmarshal(t, rec, &crs)
				assert.NotEmpty(t, crs.ID)
				assert.Equal(t, "Go 101", crs.Title)
				// creation is announced to listeners
				assert.Contains(t, app.events.events, course.EventCourseCreated)
			}
		})
	}
}

func Test_courseApi_update(t *testing.T) {
	app := initApp(t)
	admin := createUser(t, app.usrRepo, "Awa", "awa@test.cm", "secret1", user.RoleAdmin)
	crs := createCourse(t, app.crsSvc, "Go 101")
	token := getToken(t, admin)

	// full replacement: an omitted description is cleared
	data := marshal(t, course.UpdateCourse{Title: "Go 102"})
	req, rec := newAuthRequest(http.MethodPut, "/v1/courses/"+crs.ID, token, data)
	app.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got course.Course
	unmarshal(t, rec, &got)
	assert.Equal(t, "Go 102", got.Title)
	assert.Empty(t, got.Description)

	req, rec = newAuthRequest(http.MethodPut, "/v1/courses/nope", token, data)
	app.do(req, rec)
	require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
}

func Test_courseApi_destroy(t *testing.T) {
	app := initApp(t)
	admin := createUser(t, app.usrRepo, "Awa", "awa@test.cm", "secret1", user.RoleAdmin)
	crs := createCourse(t, app.crsSvc, "Go 101")
	token := getToken(t, admin)

	req, rec := newAuthRequest(http.MethodDelete, "/v1/courses/"+crs.ID, token)
	app.do(req, rec)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	// gone
	req, rec = newRequest(http.MethodGet, "/v1/courses/"+crs.ID)
	app.do(req, rec)
	require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())

	// deleting twice
	req, rec = newAuthRequest(http.MethodDelete, "/v1/courses/"+crs.ID, token)
	app.do(req, rec)
	require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
}

func Test_courseApi_addLesson(t *testing.T) {
	app := initApp(t)
	admin := createUser(t, app.usrRepo, "Awa", "awa@test.cm", "secret1", user.RoleAdmin)
	student := createUser(t, app.usrRepo, "Hawi", "hawi@test.cm", "secret1", user.RoleStudent)
	crs := createCourse(t, app.crsSvc, "Go 101")

	data := marshal(t, course.NewLesson{Title: "Interfaces", Content: "https://vid.test.cm/1", Position: 1})

	req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/lessons", getToken(t, student), data)
	app.do(req, rec)
	require.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())

	req, rec = newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/lessons", getToken(t, admin), data)
	app.do(req, rec)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var lsn course.Lesson
	unmarshal(t, rec, &lsn)
	assert.NotEmpty(t, lsn.ID)
	assert.Equal(t, crs.ID, lsn.CourseID)
	assert.Equal(t, 1, lsn.Position)

	req, rec = newAuthRequest(http.MethodPost, "/v1/courses/nope/lessons", getToken(t, admin), data)
	app.do(req, rec)
	require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
}

func Test_courseApi_enrollAndProgress(t *testing.T) {
	app := initApp(t)
	student := createUser(t, app.usrRepo, "Hawi", "hawi@test.cm", "secret1", user.RoleStudent)
	crs := createCourse(t, app.crsSvc, "Go 101")
	lsn, err := app.crsSvc.AddLesson(context.Background(), crs.ID, course.NewLesson{Title: "Interfaces", Position: 1})
	require.NoError(t, err)
	token := getToken(t, student)

	// progress before enrolling
	req, rec := newAuthRequest(http.MethodGet, "/v1/courses/"+crs.ID+"/progress", token)
	app.do(req, rec)
	require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())

	// enroll
	req, rec = newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/enroll", token)
	app.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var pg course.Progress
	unmarshal(t, rec, &pg)
	assert.Equal(t, student.ID, pg.UserID)
	assert.Equal(t, crs.ID, pg.CourseID)
	assert.Empty(t, pg.CompletedLessonIDs)

	// complete the lesson
	req, rec = newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/lessons/"+lsn.ID+"/complete", token)
	app.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	unmarshal(t, rec, &pg)
	assert.Equal(t, []string{lsn.ID}, pg.CompletedLessonIDs)

	// completing again changes nothing
	req, rec = newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/lessons/"+lsn.ID+"/complete", token)
	app.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	unmarshal(t, rec, &pg)
	assert.Equal(t, []string{lsn.ID}, pg.CompletedLessonIDs)

	// a lesson from another course 404s
	other := createCourse(t, app.crsSvc, "SQL 201")
	req, rec = newAuthRequest(http.MethodPost, "/v1/courses/"+other.ID+"/lessons/"+lsn.ID+"/complete", token)
	app.do(req, rec)
	require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())

	// progress is readable afterwards
	req, rec = newAuthRequest(http.MethodGet, "/v1/courses/"+crs.ID+"/progress", token)
	app.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	unmarshal(t, rec, &pg)
	assert.Equal(t, []string{lsn.ID}, pg.CompletedLessonIDs)
	assert.False(t, pg.EnrolledAt.IsZero())
}
