package seed

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	appModels "github.com/yigit/rosterhub/internal/app/models"
	appServices "github.com/yigit/rosterhub/internal/app/services"
	"github.com/yigit/rosterhub/internal/pkg/apperrors"
)

// DemoPassword is the password of every demo account.
const DemoPassword = "demo-password"

type demoStudent struct {
	profile appModels.StudentProfile
	grades  []appModels.SemesterGrade
}

var demoStudents = []demoStudent{
	{
		profile: appModels.StudentProfile{
			RollNumber: "21CS1001", Name: "Asha Verma", Phone: "+919876543210", Email: "asha@example.edu",
			DOB: "2003-04-12", FathersName: "Rakesh Verma", MothersName: "Sunita Verma", ParentsPhone: "+919812345678",
			Gender: "female", Course: "B.Tech", Branch: "CSE", Section: "A", Year: "3", ResidenceStatus: "hosteller",
			Username: "asha",
		},
		grades: []appModels.SemesterGrade{{Semester: "S1", GPA: 8.2}, {Semester: "S2", GPA: 8.6}, {Semester: "S3", GPA: 8.0}, {Semester: "S4", GPA: 8.4}},
	},
	{
		profile: appModels.StudentProfile{
			RollNumber: "21CS1002", Name: "Bryan D'Souza", Phone: "+919845011122", Email: "bryan@example.edu",
			DOB: "2003-09-30", FathersName: "Anthony D'Souza", MothersName: "Maria D'Souza", ParentsPhone: "+919845099988",
			Gender: "male", Course: "B.Tech", Branch: "CSE", Section: "A", Year: "3", ResidenceStatus: "day scholar",
			Username: "bryan",
		},
		grades: []appModels.SemesterGrade{{Semester: "S1", GPA: 7.1}, {Semester: "S2", GPA: 7.4}},
	},
	{
		profile: appModels.StudentProfile{
			RollNumber: "22EC2001", Name: "Carl Mathew", Phone: "+919900112233", Email: "carl@example.edu",
			DOB: "2004-01-05", FathersName: "George Mathew", MothersName: "Annie Mathew", ParentsPhone: "+919900445566",
			Gender: "male", Course: "B.Tech", Branch: "ECE", Section: "B", Year: "2", ResidenceStatus: "hosteller",
			Username: "carl",
		},
	},
}

// CreateDemoData registers the demo students and their histories. Students
// that already exist are left alone, so running it twice is harmless.
func CreateDemoData(ctx context.Context, students appServices.StudentService, histories appServices.AcademicHistoryService, lgr zerolog.Logger) error {
	lgr.Info().Int("students", len(demoStudents)).Msg("Checking/Creating demo data...")
	var finalErr error // To collect potential errors without stopping the process
	created := 0

	for _, demo := range demoStudents {
		profile := demo.profile
		_, err := students.Register(ctx, &profile, DemoPassword)
		if errors.Is(err, apperrors.ErrRollNumberExists) || errors.Is(err, apperrors.ErrUsernameExists) {
			continue
		}
		if err != nil {
			lgr.Error().Err(err).Str("rollNumber", profile.RollNumber).Msg("Error creating demo student")
			finalErr = errors.Join(finalErr, err)
			continue
		}
		created++

		if len(demo.grades) == 0 {
			continue
		}
		if _, err := histories.Submit(ctx, profile.RollNumber, demo.grades, nil); err != nil {
			lgr.Error().Err(err).Str("rollNumber", profile.RollNumber).Msg("Error creating demo academic history")
			finalErr = errors.Join(finalErr, err)
		}
	}

	if created > 0 {
		lgr.Info().Int("created", created).Str("password", DemoPassword).Msg("Demo students created")
	}
	return finalErr
}
