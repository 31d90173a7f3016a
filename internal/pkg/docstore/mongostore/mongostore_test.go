package mongostore

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/yigit/rosterhub/internal/pkg/docstore"
	"github.com/yigit/rosterhub/internal/pkg/docstore/storetest"
)

// Live tests run against ROSTER_TEST_MONGO_URI, each in its own database.
func TestStoreContract(t *testing.T) {
	uri := os.Getenv("ROSTER_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("ROSTER_TEST_MONGO_URI not set")
	}

	n := 0
	storetest.Run(t, func(t *testing.T) docstore.Store {
		n++
		name := fmt.Sprintf("roster_test_%d_%d", time.Now().UnixNano(), n)
		s, err := Connect(context.Background(), Config{URI: uri, Database: name, OperationTimeout: 5 * time.Second})
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.client.Database(name).Drop(context.Background()) })
		return s
	})
}

func TestBuildFilter(t *testing.T) {
	oid := primitive.NewObjectID()

	q, err := buildFilter(docstore.ByID(oid.Hex()))
	require.NoError(t, err)
	assert.Equal(t, bson.M{"_id": oid}, q)

	q, err = buildFilter(docstore.Where(
		docstore.ContainsFold("name", "a.b"),
		docstore.In("rollNumber", []string{"R1"}),
	))
	require.NoError(t, err)
	assert.Equal(t, bson.M{"$and": []bson.M{
		{"name": primitive.Regex{Pattern: `a\.b`, Options: "i"}},
		{"rollNumber": bson.M{"$in": []string{"R1"}}},
	}}, q)

	q, err = buildFilter(docstore.All())
	require.NoError(t, err)
	assert.Empty(t, q)

	_, err = buildFilter(docstore.ByID("zz"))
	assert.ErrorIs(t, err, docstore.ErrInvalidID)
}

func TestFromBSON(t *testing.T) {
	oid := primitive.NewObjectID()
	doc := fromBSON(bson.M{
		"_id":  oid,
		"year": int32(2),
		"semesterGrades": bson.A{
			bson.M{"semester": "S1", "gpa": 8.5},
		},
	})

	assert.Equal(t, oid.Hex(), doc.ID())
	assert.Equal(t, 2.0, doc["year"])
	grades, ok := doc["semesterGrades"].([]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"semester": "S1", "gpa": 8.5}, grades[0])
}

func TestClassify(t *testing.T) {
	assert.ErrorIs(t, classify(context.DeadlineExceeded), docstore.ErrTimeout)
	assert.NoError(t, classify(nil))
}
