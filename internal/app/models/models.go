package models

// Collection names in the document store.
const (
	CollectionStudents          = "students"
	CollectionAcademicHistories = "academic_histories"
)

// UnavailableAverage is shown in place of an overall average for students
// without a submitted academic history.
const UnavailableAverage = "N/A"
