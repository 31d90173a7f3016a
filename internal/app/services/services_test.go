package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yigit/rosterhub/internal/app/models"
	"github.com/yigit/rosterhub/internal/app/repositories"
	"github.com/yigit/rosterhub/internal/pkg/auth"
	"github.com/yigit/rosterhub/internal/pkg/docstore/memstore"
	"github.com/yigit/rosterhub/internal/pkg/session"
)

type testEnv struct {
	store     *memstore.Store
	repos     *repositories.Repositories
	redis     *miniredis.Miniredis
	sessions  *session.Store
	students  StudentService
	histories AcademicHistoryService
	roster    RosterService
	exports   ExportService
	auth      AuthService
}

func newTestEnv(t *testing.T, opts RosterOptions) *testEnv {
	t.Helper()
	ctx := context.Background()

	store := memstore.New(time.Second)
	require.NoError(t, repositories.EnsureIndexes(ctx, store))
	repos := repositories.NewRepositories(store)

	mr := miniredis.RunT(t)
	client, err := session.NewClient(ctx, session.Config{Addr: mr.Addr()})
	require.NoError(t, err)
	sessions := session.NewStore(client, time.Hour)
	t.Cleanup(func() { _ = sessions.Close() })

	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	nop := zerolog.Nop()

	students := NewStudentService(repos.StudentRepository, repos.AcademicHistoryRepository, hasher, sessions, nop)
	histories := NewAcademicHistoryService(repos.AcademicHistoryRepository, repos.StudentRepository, opts, nop)
	roster := NewRosterService(students, histories, opts)
	jwtService := auth.NewJWTService(auth.JWTConfig{SecretKey: "test-secret", TokenExp: time.Hour, TokenIssuer: "rosterhub"})

	return &testEnv{
		store:     store,
		repos:     repos,
		redis:     mr,
		sessions:  sessions,
		students:  students,
		histories: histories,
		roster:    roster,
		exports:   NewExportService(roster),
		auth:      NewAuthService(students, sessions, jwtService, hasher, nop),
	}
}

func newStudent(rollNumber, name string) *models.StudentProfile {
	return &models.StudentProfile{
		RollNumber:      rollNumber,
		Name:            name,
		Phone:           "+911234567890",
		Email:           "student@example.edu",
		DOB:             "2003-04-12",
		FathersName:     "Father " + name,
		MothersName:     "Mother " + name,
		ParentsPhone:    "+919999999999",
		Gender:          "female",
		Course:          "B.Tech",
		Branch:          "CSE",
		Section:         "A",
		Year:            "3",
		ResidenceStatus: "hosteller",
		Username:        "user-" + rollNumber,
	}
}

func (e *testEnv) register(t *testing.T, rollNumber, name string) string {
	t.Helper()
	id, err := e.students.Register(context.Background(), newStudent(rollNumber, name), "password123")
	require.NoError(t, err)
	return id
}

// registerMany registers n students with roll numbers R001..Rnnn.
func (e *testEnv) registerMany(t *testing.T, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		e.register(t, fmt.Sprintf("R%03d", i), fmt.Sprintf("Student %d", i))
	}
}

func ptr[T any](v T) *T {
	return &v
}
