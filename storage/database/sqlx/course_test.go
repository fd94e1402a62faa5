package sqlxrepos

import (
	"reflect"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx/reflectx"
	"github.com/stretchr/testify/assert"
)

// Every column a query selects must land in a tagged field of its row struct,
// or sqlx fails the scan with "missing destination name".
func Test_rowStructs_columnMapping(t *testing.T) {
	// same mapper sqlx uses by default
	mapper := reflectx.NewMapperFunc("db", strings.ToLower)

	tests := []struct {
		name string
		dest interface{}
		cols []string
	}{
		{
			name: "userRow",
			dest: userRow{},
			cols: []string{"id", "name", "email", "role", "password_hash", "created_at", "updated_at", "last_login"},
		},
		{
			name: "courseRow",
			dest: courseRow{},
			cols: []string{"id", "title", "description", "instructor_id", "created_at", "updated_at", "instructor_name", "instructor_email"},
		},
		{
			name: "lessonRow",
			dest: lessonRow{},
			cols: []string{"id", "course_id", "title", "content", "position"},
		},
		{
			name: "progressRow",
			dest: progressRow{},
			cols: []string{"user_id", "course_id", "completed_lesson_ids", "enrolled_at", "updated_at"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			traversals := mapper.TraversalsByName(reflect.TypeOf(tt.dest), tt.cols)
			for i, tr := range traversals {
				assert.NotEmptyf(t, tr, "column %q has no destination field in %s", tt.cols[i], tt.name)
			}
		})
	}
}
