//go:build integration

package mongostore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testcontainers "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/roach88/archdsl/internal/builder"
	"github.com/roach88/archdsl/internal/dsl"
	"github.com/roach88/archdsl/internal/journal"
	"github.com/roach88/archdsl/internal/querymongo"
	"github.com/roach88/archdsl/internal/validate"
	"github.com/roach88/archdsl/internal/value"
)

var (
	collectionSeq        atomic.Uint64
	integrationURI       string
	integrationContainer testcontainers.Container
)

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	uri := strings.TrimSpace(os.Getenv("ARCHDSL_TEST_MONGO_URI"))
	if uri == "" {
		container, generatedURI, err := startMongoContainer(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start integration container: %v\n", err)
			os.Exit(1)
		}
		integrationContainer = container
		integrationURI = generatedURI
	} else {
		integrationURI = uri
	}

	exitCode := m.Run()

	if integrationContainer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := integrationContainer.Terminate(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "failed to terminate integration container: %v\n", err)
			if exitCode == 0 {
				exitCode = 1
			}
		}
	}

	os.Exit(exitCode)
}

func startMongoContainer(ctx context.Context) (testcontainers.Container, string, error) {
	request := testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor: wait.ForLog("Waiting for connections").
			WithStartupTimeout(2 * time.Minute),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: request,
		Started:          true,
	})
	if err != nil {
		return nil, "", err
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, "", err
	}
	port, err := container.MappedPort(ctx, "27017/tcp")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, "", err
	}
	return container, fmt.Sprintf("mongodb://%s:%s", host, port.Port()), nil
}

// newCollection returns a fresh collection seeded with docs.
func newCollection(t *testing.T, docs ...bson.D) *mongo.Collection {
	t.Helper()
	client, err := mongo.Connect(options.Client().ApplyURI(integrationURI))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	name := fmt.Sprintf("units_%d", collectionSeq.Add(1))
	coll := client.Database("archdsl_test").Collection(name)
	if len(docs) > 0 {
		_, err := coll.InsertMany(context.Background(), docs)
		require.NoError(t, err)
	}
	t.Cleanup(func() { _ = coll.Drop(context.Background()) })
	return coll
}

func seed() []bson.D {
	return []bson.D{
		{{Key: "_id", Value: "u1"}, {Key: "Title", Value: "Alpha"}, {Key: "N", Value: int64(1)}, {Key: "Tags", Value: bson.A{"a"}}},
		{{Key: "_id", Value: "u2"}, {Key: "Title", Value: "Beta"}, {Key: "N", Value: int64(2)}},
		{{Key: "_id", Value: "u3"}, {Key: "Title", Value: "Gamma"}, {Key: "N", Value: int64(3)}},
	}
}

func newExecutor(coll *mongo.Collection, opts ...Option) *Executor {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tr := querymongo.New(validate.DefaultConfig(), querymongo.WithLogger(logger))
	return New(coll, tr, append([]Option{WithLogger(logger)}, opts...)...)
}

func TestExecutor_Select(t *testing.T) {
	ctx := context.Background()
	e := newExecutor(newCollection(t, seed()...))

	b := builder.NewSelect(nil)
	require.NoError(t, b.AddQuery(dsl.Gte("N", value.Int(2))))
	require.NoError(t, b.AddOrderBy("N", -1))
	require.NoError(t, b.SetLimit(1))
	require.NoError(t, b.AddUsedProjection("Title"))

	res, err := e.Select(ctx, b.Final())
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Total)
	want := []bson.D{{{Key: "_id", Value: "u3"}, {Key: "Title", Value: "Gamma"}}}
	if diff := cmp.Diff(want, res.Documents); diff != "" {
		t.Errorf("documents mismatch (-want +got):\n%s", diff)
	}
}

func TestExecutor_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	coll := newCollection(t, seed()...)
	e := newExecutor(coll)

	u := builder.NewUpdate(nil)
	require.NoError(t, u.AddQuery(dsl.Gt("N", value.Int(1))))
	require.NoError(t, u.AddActions(
		dsl.SetFields(value.M("Status", value.String("OPEN"))),
		dsl.SetFields(value.M("Status", value.String("CLOSED"))),
	))
	u.SetMult(true)

	n, err := e.Update(ctx, u.Final())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	count, err := coll.CountDocuments(ctx, bson.D{{Key: "Status", Value: "CLOSED"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	d := builder.NewDelete(nil)
	require.NoError(t, d.AddRoots("u1", "u2"))
	d.SetMult(true)
	n, err = e.Delete(ctx, d.Final())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestExecutor_Insert(t *testing.T) {
	ctx := context.Background()
	coll := newCollection(t)
	e := newExecutor(coll)

	b := builder.NewInsert(nil)
	require.NoError(t, b.AddData(
		value.Object{value.M("_id", value.String("n1")), value.M("Title", value.String("New"))},
		value.Object{value.M("_id", value.String("n2"))},
	))
	ids, err := e.Insert(ctx, b.Final())
	require.NoError(t, err)
	assert.Equal(t, []any{"n1", "n2"}, ids)
}

func TestExecutor_ApplyOne(t *testing.T) {
	ctx := context.Background()
	coll := newCollection(t, seed()...)
	j, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	e := newExecutor(coll, WithJournal(j))

	u := builder.NewUpdate(nil)
	require.NoError(t, u.AddRoots("u1"))
	require.NoError(t, u.AddActions(dsl.SetFields(value.M("Title", value.String("Alpha2"))), dsl.Push("Tags", value.String("b"))))

	res, err := e.ApplyOne(ctx, u.Final())
	require.NoError(t, err)
	assert.Equal(t, "u1", res.DocumentID)
	assert.Equal(t, []string{"Title", "Tags"}, res.Fields)
	assert.Equal(t, int64(1), res.Version)
	assert.Contains(t, res.Diff, `+  "Title": "Alpha2",`)

	var stored bson.D
	require.NoError(t, coll.FindOne(ctx, bson.D{{Key: "_id", Value: "u1"}}).Decode(&stored))
	want := bson.D{
		{Key: "_id", Value: "u1"},
		{Key: "Title", Value: "Alpha2"},
		{Key: "N", Value: int64(1)},
		{Key: "Tags", Value: bson.A{"a", "b"}},
		{Key: "_v", Value: int64(1)},
	}
	if diff := cmp.Diff(want, stored); diff != "" {
		t.Errorf("stored document mismatch (-want +got):\n%s", diff)
	}

	entries, err := j.ByDocument(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, res.Fingerprint, entries[0].Fingerprint)
}

func TestExecutor_ApplyOne_NoDocument(t *testing.T) {
	e := newExecutor(newCollection(t))
	u := builder.NewUpdate(nil)
	require.NoError(t, u.AddRoots("missing"))
	require.NoError(t, u.AddActions(dsl.UnsetFields("x")))

	_, err := e.ApplyOne(context.Background(), u.Final())
	assert.ErrorIs(t, err, ErrNoDocument)
}
