package credential

import (
	"context"
	"net/url"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	mongooptions "go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"

	"github.com/brianorwhatever/sign-and-verify/internal/util"
)

const (
	// primaryKey is the document field holding the learner email.
	primaryKey = "credentialSubject.email"

	defaultMongoTimeout = 15 * time.Second
)

// MongoOptions configures NewMongoStore. An empty URI is built from DB_HOST, DB_USER and DB_PASS.
type MongoOptions struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
	// Collections maps additional credential types to collection names.
	Collections map[string]string
}

// MongoStore looks records up in MongoDB. Each handle runs its queries in its own session.
type MongoStore struct {
	client      *mongo.Client
	database    string
	collections map[string]string
	timeout     time.Duration
}

func NewMongoStore(ctx context.Context, opts MongoOptions) (*MongoStore, error) {
	uri := opts.URI
	if uri == "" {
		uri = mongoURIFromEnv()
	}
	if opts.Database == "" || opts.Collection == "" {
		return nil, errors.New("mongo database and collection must not be empty")
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultMongoTimeout
	}

	mongoOpts := clientOptions(uri)

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	client, err := mongo.Connect(connectCtx, mongoOpts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to MongoDB")
	}
	// ping with the read preference queries use
	if err = client.Ping(connectCtx, mongoOpts.ReadPreference); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "failed to ping MongoDB")
	}

	return &MongoStore{
		client:      client,
		database:    opts.Database,
		collections: collectionsFor(opts),
		timeout:     timeout,
	}, nil
}

// clientOptions reads from secondaries when they are available and traces every command.
func clientOptions(uri string) *mongooptions.ClientOptions {
	mongoOpts := mongooptions.Client().ApplyURI(uri)
	mongoOpts.ReadPreference = readpref.SecondaryPreferred()
	mongoOpts.Monitor = otelmongo.NewMonitor()
	return mongoOpts
}

func collectionsFor(opts MongoOptions) map[string]string {
	collections := lo.Assign(opts.Collections)
	if _, ok := collections[IDCredentialType]; !ok {
		collections[IDCredentialType] = opts.Collection
	}
	return collections
}

// mongoURIFromEnv builds mongodb://[user:pass@]host from the DB_* variables.
func mongoURIFromEnv() string {
	u := url.URL{Scheme: "mongodb", Host: os.Getenv("DB_HOST")}
	if user := os.Getenv("DB_USER"); user != "" {
		u.User = url.UserPassword(user, os.Getenv("DB_PASS"))
	}
	return u.String()
}

func recordFilter(key string) bson.M {
	return bson.M{primaryKey: key}
}

func (s *MongoStore) Open(ctx context.Context, credentialType string) (RecordHandle, error) {
	name, ok := s.collections[credentialType]
	if !ok {
		return nil, errors.Errorf("no collection configured for credential type<%s>", credentialType)
	}
	session, err := s.client.StartSession()
	if err != nil {
		return nil, errors.Wrap(err, "starting mongo session")
	}
	return &mongoHandle{
		session:    session,
		collection: s.client.Database(s.database).Collection(name),
		timeout:    s.timeout,
	}, nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.client.Disconnect(ctx); err != nil {
		if errors.Is(err, mongo.ErrClientDisconnected) {
			return nil
		}
		return errors.Wrap(err, "failed to disconnect from MongoDB")
	}
	return nil
}

type mongoHandle struct {
	session    mongo.Session
	collection *mongo.Collection
	timeout    time.Duration
}

func (h *mongoHandle) Query(ctx context.Context, key string) (*Record, error) {
	queryCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	var record Record
	err := h.collection.FindOne(mongo.NewSessionContext(queryCtx, h.session), recordFilter(key)).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		logrus.Debugf("no %s record for key<%s>", h.collection.Name(), util.SanitizeLog(key))
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "finding record in collection<%s>", h.collection.Name())
	}
	return &record, nil
}

func (h *mongoHandle) Close(ctx context.Context) error {
	h.session.EndSession(ctx)
	return nil
}
