package seed

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	appRepos "github.com/yigit/rosterhub/internal/app/repositories"
	appServices "github.com/yigit/rosterhub/internal/app/services"
	"github.com/yigit/rosterhub/internal/pkg/auth"
	"github.com/yigit/rosterhub/internal/pkg/docstore/memstore"
)

func TestCreateDemoDataIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memstore.New(time.Second)
	require.NoError(t, appRepos.EnsureIndexes(ctx, store))
	repos := appRepos.NewRepositories(store)

	nop := zerolog.Nop()
	students := appServices.NewStudentService(repos.StudentRepository, repos.AcademicHistoryRepository, auth.NewPasswordHasher(bcrypt.MinCost), nil, nop)
	histories := appServices.NewAcademicHistoryService(repos.AcademicHistoryRepository, repos.StudentRepository, appServices.DefaultRosterOptions(), nop)

	require.NoError(t, CreateDemoData(ctx, students, histories, nop))
	require.NoError(t, CreateDemoData(ctx, students, histories, nop))

	_, total, err := students.List(ctx, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, len(demoStudents), total)

	history, err := histories.GetByRollNumber(ctx, "21CS1001")
	require.NoError(t, err)
	assert.InDelta(t, 8.3, history.OverallAverage, 1e-9)

	_, err = histories.GetByRollNumber(ctx, "22EC2001")
	assert.Error(t, err, "the third demo student has no history")
}
