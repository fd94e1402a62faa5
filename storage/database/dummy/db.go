package dummydb

import (
	"sync"

	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/user"
)

type (
	DB struct {
		user   *userTable
		course *courseTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User // id -> user
	}

	courseTable struct {
		sync.RWMutex
		courses  map[string]*course.Course   // id -> course
		lessons  map[string]*course.Lesson   // id -> lesson
		progress map[string]*course.Progress // userID+"/"+courseID -> progress
	}
)

func Open() (*DB, error) {
	db := &DB{
		user: &userTable{table: make(map[string]*user.User)},
		course: &courseTable{
			courses:  make(map[string]*course.Course),
			lessons:  make(map[string]*course.Lesson),
			progress: make(map[string]*course.Progress),
		},
	}
	return db, nil
}
