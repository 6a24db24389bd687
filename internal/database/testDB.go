package database

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	// Load env
	_ "github.com/joho/godotenv/autoload"

	m "github.com/Pratyush-PT/EASY-Apply/internal/model"
	"github.com/Pratyush-PT/EASY-Apply/internal/utilities"
)

var testDBInstance *DBinstanceStruct
var teardown func(context.Context, ...testcontainers.TerminateOption) error

// Exported seeded records for package tests
var (
	TestAdmin    m.User
	TestStudent1 m.User // complete profile: CSE, CGPA 8.0, one resume
	TestStudent2 m.User // incomplete profile: no resume, no contact

	// Plain password shared by all seeded users
	TestSeedPassword = "SeedPass123!"

	TestJobOpen     m.Job // CSE/ECE, min CGPA 7.5, deadline a month out
	TestJobHighCGPA m.Job // min CGPA 9.0
	TestJobClosed   m.Job // deadline already passed
)

// GetTestDB starts a PostgreSQL test container and returns a teardown function,
// the DB instance, and any error encountered during setup.
func GetTestDB() (func(context.Context, ...testcontainers.TerminateOption) error, *DBinstanceStruct, error) {

	if testDBInstance != nil && teardown != nil {
		return teardown, testDBInstance, nil
	}

	// Database configuration
	var (
		dbName = "database"
		dbPwd  = "password"
		dbUser = "user"
	)

	dbContainer, err := postgres.Run(
		context.Background(),
		"postgres:latest",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
	)
	if err != nil {
		return nil, nil, err
	}

	dbHost, err := dbContainer.Host(context.Background())
	if err != nil {
		return dbContainer.Terminate, nil, err
	}

	dbPort, err := dbContainer.MappedPort(context.Background(), nat.Port("5432/tcp"))
	if err != nil {
		return dbContainer.Terminate, nil, err
	}

	config := &DBConfig{
		useConstr: true,
		Constr:    fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", dbHost, dbPort.Port(), dbUser, dbPwd, dbName),
	}

	db, err := NewDBInstance(config)
	if err != nil {
		return dbContainer.Terminate, nil, err
	}

	if err := seedTestData(db); err != nil {
		_ = dbContainer.Terminate(context.Background())
		return nil, nil, err
	}

	testDBInstance = db
	teardown = dbContainer.Terminate

	return dbContainer.Terminate, db, nil
}

// seedTestData inserts an admin, two students and three job postings.
func seedTestData(db *DBinstanceStruct) error {
	var userCount int64
	if err := db.Model(&m.User{}).Count(&userCount).Error; err != nil {
		return err
	}
	if userCount > 0 {
		return fmt.Errorf("test database is not empty")
	}

	hashedPwd, err := utilities.HashPassword(TestSeedPassword)
	if err != nil {
		return err
	}

	TestAdmin = m.User{
		Email:    "admin@example.com",
		Password: hashedPwd,
		Role:     m.RoleAdmin,
		Verified: true,
		EditableUserInfo: m.EditableUserInfo{
			Name: "Placement Admin",
		},
	}
	TestStudent1 = m.User{
		Email:    "asha@example.com",
		Password: hashedPwd,
		Role:     m.RoleStudent,
		Verified: true,
		EditableUserInfo: m.EditableUserInfo{
			Name:    "Asha Verma",
			Branch:  "CSE",
			CGPA:    8.0,
			Contact: "9876543210",
		},
	}
	TestStudent2 = m.User{
		Email:    "rohan@example.com",
		Password: hashedPwd,
		Role:     m.RoleStudent,
		Verified: true,
		EditableUserInfo: m.EditableUserInfo{
			Name:   "Rohan Gupta",
			Branch: "ECE",
			// no CGPA, contact or resume: profile stays incomplete
		},
	}

	users := []*m.User{&TestAdmin, &TestStudent1, &TestStudent2}
	for _, u := range users {
		if err := db.Create(u).Error; err != nil {
			return err
		}
	}

	// Give student 1 a stored resume so the profile counts as complete
	resumeFile := m.File{Content: []byte("%PDF-1.4 seeded resume"), Extension: ".pdf"}
	if err := db.Create(&resumeFile).Error; err != nil {
		return err
	}
	resume := m.Resume{
		UserID: TestStudent1.ID,
		Name:   "SDE Resume",
		URL:    fmt.Sprintf("/api/v1/file/%d", resumeFile.ID),
		FileID: resumeFile.ID,
	}
	if err := db.Create(&resume).Error; err != nil {
		return err
	}
	TestStudent1.Resumes = []m.Resume{resume}

	minOpen, minHigh := 7.5, 9.0
	deadlineOpen := time.Now().AddDate(0, 1, 0)
	deadlineClosed := time.Now().AddDate(0, 0, -1)

	TestJobOpen = m.Job{
		EditableJobInfo: m.EditableJobInfo{
			Company:          "TechNova",
			Role:             "Backend Engineer",
			Description:      "Build and operate Go services.",
			EligibleBranches: pq.StringArray{"CSE", "ECE"},
			MinCGPA:          &minOpen,
			Deadline:         &deadlineOpen,
		},
		PostedByID: TestAdmin.ID,
	}
	TestJobHighCGPA = m.Job{
		EditableJobInfo: m.EditableJobInfo{
			Company:          "DataForge",
			Role:             "Research Engineer",
			Description:      "Applied ML research team.",
			EligibleBranches: pq.StringArray{"CSE", "ECE", "EE"},
			MinCGPA:          &minHigh,
			Deadline:         &deadlineOpen,
		},
		PostedByID: TestAdmin.ID,
	}
	TestJobClosed = m.Job{
		EditableJobInfo: m.EditableJobInfo{
			Company:          "LegacyCorp",
			Role:             "Graduate Trainee",
			EligibleBranches: pq.StringArray{"CSE", "ECE", "EE", "EIE", "CE", "ME"},
			Deadline:         &deadlineClosed,
		},
		PostedByID: TestAdmin.ID,
	}

	jobs := []*m.Job{&TestJobOpen, &TestJobHighCGPA, &TestJobClosed}
	for _, j := range jobs {
		if err := db.Create(j).Error; err != nil {
			return err
		}
	}

	return nil
}
