// Package mongostore runs compiled commands against a MongoDB collection.
//
// Commands come from querymongo; the executor only maps them onto driver
// calls, samples metrics and logs. ApplyOne is the exception: it loads a
// single document, applies the update in memory and replaces it under an
// optimistic lock, so the caller gets a before/after diff.
package mongostore

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/archdsl/internal/dsl"
	"github.com/roach88/archdsl/internal/querymongo"
)

// DefaultVersionField holds the optimistic lock counter.
const DefaultVersionField = "_v"

// Executor runs commands against one collection.
type Executor struct {
	coll         *mongo.Collection
	tr           *querymongo.Translator
	logger       *slog.Logger
	versionField string
	journal      Journal
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithVersionField overrides the optimistic lock field.
func WithVersionField(field string) Option {
	return func(e *Executor) {
		if field != "" {
			e.versionField = field
		}
	}
}

// WithJournal records every ApplyOne result in j.
func WithJournal(j Journal) Option {
	return func(e *Executor) { e.journal = j }
}

// New creates an Executor over coll. tr compiles requests and supplies
// the identifier field.
func New(coll *mongo.Collection, tr *querymongo.Translator, opts ...Option) *Executor {
	e := &Executor{
		coll:         coll,
		tr:           tr,
		logger:       slog.Default(),
		versionField: DefaultVersionField,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SelectResult is one page of documents plus the total match count.
type SelectResult struct {
	Documents []bson.D
	Total     int64
}

// Select runs the find and the count concurrently.
func (e *Executor) Select(ctx context.Context, r *dsl.Select) (res *SelectResult, err error) {
	start := time.Now()
	defer func() {
		var n int64
		if res != nil {
			n = int64(len(res.Documents))
		}
		sampleCommand(string(dsl.KindSelect), time.Since(start), n, err)
	}()

	cmd, err := e.tr.Select(r)
	if err != nil {
		return nil, err
	}

	res = &SelectResult{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cur, err := e.coll.Find(gctx, cmd.Filter, findOptions(cmd))
		if err != nil {
			return fmt.Errorf("find: %w", err)
		}
		docs := []bson.D{}
		if err := cur.All(gctx, &docs); err != nil {
			return fmt.Errorf("find: %w", err)
		}
		res.Documents = docs
		return nil
	})
	g.Go(func() error {
		n, err := e.coll.CountDocuments(gctx, cmd.Filter)
		if err != nil {
			return fmt.Errorf("count: %w", err)
		}
		res.Total = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.logger.Debug("select executed", "returned", len(res.Documents), "total", res.Total)
	return res, nil
}

// findOptions maps the paging, sort, projection and cursor hints of cmd.
func findOptions(cmd *querymongo.SelectCommand) *options.FindOptionsBuilder {
	opts := options.Find()
	if cmd.Sort != nil {
		opts.SetSort(cmd.Sort)
	}
	if cmd.Projection != nil {
		opts.SetProjection(cmd.Projection)
	}
	if cmd.Skip > 0 {
		opts.SetSkip(cmd.Skip)
	}
	if cmd.Limit > 0 {
		opts.SetLimit(cmd.Limit)
	}
	if slices.Contains(cmd.Hints, dsl.HintNoTimeout) {
		opts.SetNoCursorTimeout(true)
	}
	return opts
}

// Update runs the update with its clauses merged into one document.
// It returns the number of modified documents.
func (e *Executor) Update(ctx context.Context, r *dsl.Update) (n int64, err error) {
	start := time.Now()
	defer func() { sampleCommand(string(dsl.KindUpdate), time.Since(start), n, err) }()

	cmd, err := e.tr.Update(r)
	if err != nil {
		return 0, err
	}
	update, err := querymongo.MergeUpdates(cmd.Updates)
	if err != nil {
		return 0, err
	}

	var res *mongo.UpdateResult
	if cmd.Multi {
		res, err = e.coll.UpdateMany(ctx, cmd.Filter, update)
	} else {
		res, err = e.coll.UpdateOne(ctx, cmd.Filter, update)
	}
	if err != nil {
		return 0, fmt.Errorf("update: %w", err)
	}

	e.logger.Debug("update executed", "matched", res.MatchedCount, "modified", res.ModifiedCount, "multi", cmd.Multi)
	return res.ModifiedCount, nil
}

// Delete removes one or, when the request sets $mult, every matching
// document. It returns the number deleted.
func (e *Executor) Delete(ctx context.Context, r *dsl.Delete) (n int64, err error) {
	start := time.Now()
	defer func() { sampleCommand(string(dsl.KindDelete), time.Since(start), n, err) }()

	cmd, err := e.tr.Delete(r)
	if err != nil {
		return 0, err
	}

	var res *mongo.DeleteResult
	if cmd.Multi {
		res, err = e.coll.DeleteMany(ctx, cmd.Filter)
	} else {
		res, err = e.coll.DeleteOne(ctx, cmd.Filter)
	}
	if err != nil {
		return 0, fmt.Errorf("delete: %w", err)
	}

	e.logger.Debug("delete executed", "deleted", res.DeletedCount, "multi", cmd.Multi)
	return res.DeletedCount, nil
}

// Insert stores the request's documents and returns their identifiers.
// The parent filter is not consulted.
func (e *Executor) Insert(ctx context.Context, r *dsl.Insert) (ids []any, err error) {
	start := time.Now()
	defer func() { sampleCommand(string(dsl.KindInsert), time.Since(start), int64(len(ids)), err) }()

	cmd, err := e.tr.Insert(r)
	if err != nil {
		return nil, err
	}
	if len(cmd.Documents) == 0 {
		return nil, nil
	}

	res, err := e.coll.InsertMany(ctx, cmd.Documents)
	if err != nil {
		return nil, fmt.Errorf("insert: %w", err)
	}

	e.logger.Debug("insert executed", "inserted", len(res.InsertedIDs))
	return res.InsertedIDs, nil
}
