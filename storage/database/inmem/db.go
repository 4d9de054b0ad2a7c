// Package inmemdb provides map-backed Repository implementations for tests
// and local development without Postgres.
package inmemdb

import (
	"sync"

	"github.com/teacherconnect/backend/core/application"
	"github.com/teacherconnect/backend/core/job"
	"github.com/teacherconnect/backend/core/notification"
	"github.com/teacherconnect/backend/core/profile"
	"github.com/teacherconnect/backend/core/user"
)

type DB struct {
	mutex sync.RWMutex

	users            map[string]*user.User
	jobs             map[string]*job.Job
	applications     map[string]*application.Application
	notifications    map[string]*notification.Notification
	employerProfiles map[string]*profile.EmployerProfile // keyed on user ID
	collegeProfiles  map[string]*profile.CollegeProfile  // keyed on user ID
}

func Open() (*DB, error) {
	db := &DB{
		users:            make(map[string]*user.User),
		jobs:             make(map[string]*job.Job),
		applications:     make(map[string]*application.Application),
		notifications:    make(map[string]*notification.Notification),
		employerProfiles: make(map[string]*profile.EmployerProfile),
		collegeProfiles:  make(map[string]*profile.CollegeProfile),
	}
	return db, nil
}
