package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/studyhall/pkg/domain/interfaces"
	"github.com/secmon-lab/studyhall/pkg/repository/firestore"
	"github.com/secmon-lab/studyhall/pkg/repository/memory"
	"github.com/secmon-lab/studyhall/pkg/repository/mongodb"
	"github.com/secmon-lab/studyhall/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Repository holds CLI flags for repository backend configuration
type Repository struct {
	backend       string
	projectID     string
	databaseID    string
	mongoURI      string
	mongoDatabase string
	prefix        string
}

// Flags returns CLI flags for repository configuration
func (r *Repository) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "repository-backend",
			Usage:       "Repository backend type (firestore, mongodb or memory)",
			Category:    "Repository",
			Value:       "firestore",
			Sources:     cli.EnvVars("STUDYHALL_REPOSITORY_BACKEND"),
			Destination: &r.backend,
		},
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Firestore Project ID (required when using firestore backend)",
			Category:    "Repository",
			Sources:     cli.EnvVars("STUDYHALL_FIRESTORE_PROJECT_ID"),
			Destination: &r.projectID,
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore Database ID",
			Category:    "Repository",
			Value:       "(default)",
			Sources:     cli.EnvVars("STUDYHALL_FIRESTORE_DATABASE_ID"),
			Destination: &r.databaseID,
		},
		&cli.StringFlag{
			Name:        "mongo-uri",
			Usage:       "MongoDB connection URI (required when using mongodb backend)",
			Category:    "Repository",
			Sources:     cli.EnvVars("STUDYHALL_MONGO_URI"),
			Destination: &r.mongoURI,
		},
		&cli.StringFlag{
			Name:        "mongo-database",
			Usage:       "MongoDB database name",
			Category:    "Repository",
			Value:       "studyhall",
			Sources:     cli.EnvVars("STUDYHALL_MONGO_DATABASE"),
			Destination: &r.mongoDatabase,
		},
		&cli.StringFlag{
			Name:        "collection-prefix",
			Usage:       "Prefix of collection names, to share a database between environments",
			Category:    "Repository",
			Sources:     cli.EnvVars("STUDYHALL_COLLECTION_PREFIX"),
			Destination: &r.prefix,
		},
	}
}

func (r Repository) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", r.backend),
		slog.String("firestore_project_id", r.projectID),
		slog.String("firestore_database_id", r.databaseID),
		slog.Bool("mongo_uri.set", r.mongoURI != ""),
		slog.String("mongo_database", r.mongoDatabase),
		slog.String("collection_prefix", r.prefix),
	)
}

// NewRepositoryForTest creates a Repository config for the given backend
func NewRepositoryForTest(backend string) *Repository {
	return &Repository{backend: backend}
}

// Backend returns the configured backend type
func (r *Repository) Backend() string {
	return r.backend
}

// ProjectID returns the Firestore project ID
func (r *Repository) ProjectID() string {
	return r.projectID
}

// DatabaseID returns the Firestore database ID
func (r *Repository) DatabaseID() string {
	return r.databaseID
}

// Prefix returns the collection name prefix
func (r *Repository) Prefix() string {
	return r.prefix
}

// Configure initializes and returns a repository based on the configured backend.
// The caller is responsible for calling Close() on the returned repository.
func (r *Repository) Configure(ctx context.Context) (interfaces.Repository, error) {
	switch r.backend {
	case "firestore":
		if r.projectID == "" {
			return nil, goerr.Wrap(ErrInvalidConfig, "firestore-project-id is required when using firestore backend")
		}
		repo, err := firestore.New(ctx, r.projectID, r.databaseID, firestore.WithCollectionPrefix(r.prefix))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize firestore repository")
		}
		logging.Default().Info("Using Firestore repository",
			"project_id", r.projectID,
			"database_id", r.databaseID,
		)
		return repo, nil

	case "mongodb":
		if r.mongoURI == "" {
			return nil, goerr.Wrap(ErrInvalidConfig, "mongo-uri is required when using mongodb backend")
		}
		repo, err := mongodb.New(ctx, r.mongoURI, r.mongoDatabase, mongodb.WithCollectionPrefix(r.prefix))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize mongodb repository")
		}
		logging.Default().Info("Using MongoDB repository", "database", r.mongoDatabase)
		return repo, nil

	case "memory":
		logging.Default().Info("Using in-memory repository (development mode)")
		return memory.New(), nil

	default:
		return nil, goerr.Wrap(ErrInvalidConfig, "invalid repository backend", goerr.V("backend", r.backend))
	}
}
