package repository

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/edulearn-io/edulearn-go-api/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Exercise{},
		&models.Challenge{},
		&models.Submission{},
		&models.ChallengeSubmission{},
		&models.StudentScore{},
		&models.ActivityLog{},
	))

	return db
}

func seedCourse(t *testing.T, db *gorm.DB) (models.User, models.User, models.Course) {
	t.Helper()

	teacher := models.User{Name: "Grace", Email: "grace@example.com", Role: models.RoleTeacher}
	student := models.User{Name: "Ada", Email: "ada@example.com", Role: models.RoleStudent}
	require.NoError(t, db.Create(&teacher).Error)
	require.NoError(t, db.Create(&student).Error)

	course := models.Course{Title: "Go Basics", Level: "beginner", TeacherID: teacher.ID, Students: []models.User{student}}
	require.NoError(t, db.Create(&course).Error)

	return teacher, student, course
}
