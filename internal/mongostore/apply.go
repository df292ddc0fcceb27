package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/roach88/archdsl/internal/dsl"
	"github.com/roach88/archdsl/internal/inmemory"
	"github.com/roach88/archdsl/internal/journal"
	"github.com/roach88/archdsl/internal/querymongo"
	"github.com/roach88/archdsl/internal/value"
	"github.com/roach88/archdsl/internal/wire"
)

var (
	// ErrNoDocument is returned by ApplyOne when the filter matches nothing.
	ErrNoDocument = errors.New("no document matches the update filter")

	// ErrConcurrentUpdate is returned by ApplyOne when the document changed
	// between the read and the replace.
	ErrConcurrentUpdate = errors.New("document was modified concurrently")
)

// Journal records applied updates. *journal.Journal implements it.
type Journal interface {
	Append(ctx context.Context, e journal.Entry) (journal.Entry, error)
}

// ApplyResult describes one document updated by ApplyOne.
type ApplyResult struct {
	DocumentID  string   `json:"document_id"`
	Fingerprint string   `json:"fingerprint"`
	Fields      []string `json:"fields"`
	Diff        []string `json:"diff"`
	Version     int64    `json:"version"`
}

// ApplyOne loads the first document matching r, applies r's actions in
// memory and replaces the stored document if its version is unchanged.
func (e *Executor) ApplyOne(ctx context.Context, r *dsl.Update) (res *ApplyResult, err error) {
	start := time.Now()
	defer func() {
		var n int64
		if res != nil {
			n = 1
		}
		sampleCommand("apply", time.Since(start), n, err)
	}()

	cmd, err := e.tr.Update(r)
	if err != nil {
		return nil, err
	}
	fingerprint, err := wire.Fingerprint(r)
	if err != nil {
		return nil, fmt.Errorf("apply: %w", err)
	}

	var raw bson.D
	if err := e.coll.FindOne(ctx, cmd.Filter).Decode(&raw); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNoDocument
		}
		return nil, fmt.Errorf("apply: load: %w", err)
	}
	before, err := querymongo.FromDocument(raw)
	if err != nil {
		return nil, fmt.Errorf("apply: %w", err)
	}

	id, ok := before.Get(e.tr.IDField())
	if !ok {
		return nil, fmt.Errorf("apply: document has no %s", e.tr.IDField())
	}
	version, err := readVersion(before, e.versionField)
	if err != nil {
		return nil, fmt.Errorf("apply: %w", err)
	}

	after, fields, err := inmemory.Apply(before, r.Actions)
	if err != nil {
		return nil, err
	}
	after = after.Set(e.versionField, value.Int(version+1))

	diff, err := inmemory.Diff(before, after)
	if err != nil {
		return nil, fmt.Errorf("apply: %w", err)
	}

	lock := bson.D{
		{Key: e.tr.IDField(), Value: raw[indexOf(raw, e.tr.IDField())].Value},
		{Key: e.versionField, Value: versionTest(before, e.versionField, version)},
	}
	// The stored identifier is kept by omitting it from the replacement.
	replacement := querymongo.ToDocument(after.Delete(e.tr.IDField()))
	replaced, err := e.coll.ReplaceOne(ctx, lock, replacement)
	if err != nil {
		return nil, fmt.Errorf("apply: replace: %w", err)
	}
	if replaced.MatchedCount == 0 {
		return nil, ErrConcurrentUpdate
	}

	res = &ApplyResult{
		DocumentID:  idString(id),
		Fingerprint: fingerprint,
		Fields:      fields,
		Diff:        diff,
		Version:     version + 1,
	}
	if e.journal != nil {
		if _, err := e.journal.Append(ctx, journal.Entry{
			Fingerprint: res.Fingerprint,
			DocumentID:  res.DocumentID,
			Fields:      res.Fields,
			Diff:        res.Diff,
		}); err != nil {
			return nil, fmt.Errorf("apply: journal: %w", err)
		}
	}

	e.logger.Info("update applied", "id", res.DocumentID, "version", res.Version, "fields", len(fields))
	return res, nil
}

// readVersion returns the lock counter, 0 when the field is absent.
func readVersion(doc value.Object, field string) (int64, error) {
	v, ok := doc.Get(field)
	if !ok {
		return 0, nil
	}
	n, ok := v.(value.Int)
	if !ok {
		return 0, fmt.Errorf("version field %s holds %s", field, value.TypeName(v))
	}
	return int64(n), nil
}

// versionTest matches the version read, or its absence for documents
// never updated through ApplyOne.
func versionTest(doc value.Object, field string, version int64) any {
	if _, ok := doc.Get(field); !ok {
		return bson.D{{Key: "$exists", Value: false}}
	}
	return version
}

func idString(v value.Value) string {
	if s, ok := v.(value.String); ok {
		return string(s)
	}
	b, err := value.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func indexOf(d bson.D, key string) int {
	for i, e := range d {
		if e.Key == key {
			return i
		}
	}
	return -1
}
