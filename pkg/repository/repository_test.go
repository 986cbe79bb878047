package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/studyhall/pkg/domain/interfaces"
	"github.com/secmon-lab/studyhall/pkg/repository/firestore"
	"github.com/secmon-lab/studyhall/pkg/repository/memory"
	"github.com/secmon-lab/studyhall/pkg/repository/mongodb"
)

type repoFactory func(t *testing.T) interfaces.Repository

// testPrefix isolates each test's collections on shared backends
func testPrefix() string {
	return fmt.Sprintf("test_%d_%s", time.Now().UnixNano(), uuid.NewString()[:8])
}

func newFirestoreFactory(t *testing.T) repoFactory {
	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")
	if projectID == "" || databaseID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID and TEST_FIRESTORE_DATABASE_ID are required")
	}

	return func(t *testing.T) interfaces.Repository {
		repo, err := firestore.New(context.Background(), projectID, databaseID, firestore.WithCollectionPrefix(testPrefix()))
		gt.NoError(t, err).Required()
		t.Cleanup(func() { _ = repo.Close() })
		return repo
	}
}

func newMongoFactory(t *testing.T) repoFactory {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI is required")
	}
	database := os.Getenv("TEST_MONGO_DATABASE")
	if database == "" {
		database = "studyhall_test"
	}

	return func(t *testing.T) interfaces.Repository {
		repo, err := mongodb.New(context.Background(), uri, database, mongodb.WithCollectionPrefix(testPrefix()))
		gt.NoError(t, err).Required()
		t.Cleanup(func() { _ = repo.Close() })
		return repo
	}
}

func newMemoryFactory(_ *testing.T) repoFactory {
	return func(t *testing.T) interfaces.Repository {
		return memory.New()
	}
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}
