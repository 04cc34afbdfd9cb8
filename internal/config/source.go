package config

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"

	_ "github.com/mattn/go-sqlite3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/goliatone/go-selectkit/pkg/record"
	"github.com/goliatone/go-selectkit/pkg/selectsingle"
	"github.com/goliatone/go-selectkit/pkg/sources/filesource"
	"github.com/goliatone/go-selectkit/pkg/sources/httpsource"
	"github.com/goliatone/go-selectkit/pkg/sources/mongosource"
	"github.com/goliatone/go-selectkit/pkg/sources/sqlsource"
)

// CloseFunc releases resources held by a service.
type CloseFunc func(ctx context.Context) error

func noopClose(context.Context) error { return nil }

// BuildService constructs the record service described by src. The returned
// CloseFunc must be called once the controller is unmounted.
func BuildService(ctx context.Context, src Source, logger *zap.Logger) (selectsingle.Service[record.Record], CloseFunc, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch src.Kind {
	case KindHTTP:
		svc, err := buildHTTP(ctx, src.HTTP)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("config: http source",
			zap.String("url", svc.Endpoint().URL),
			zap.String("method", svc.Endpoint().Method),
		)
		return svc, noopClose, nil

	case KindFile:
		logger.Debug("config: file source",
			zap.String("dir", src.File.Dir),
			zap.String("pattern", src.File.Pattern),
		)
		svc := filesource.New(os.DirFS(src.File.Dir), src.File.Pattern,
			filesource.WithResultsPath(src.File.ResultsPath),
		)
		return svc, noopClose, nil

	case KindSQLite:
		db, err := sql.Open("sqlite3", src.SQLite.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("config: open sqlite: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("config: ping sqlite: %w", err)
		}
		logger.Debug("config: sqlite source", zap.String("dsn", src.SQLite.DSN))
		svc := sqlsource.New(db, src.SQLite.Query, src.SQLite.Args...)
		return svc, func(context.Context) error { return db.Close() }, nil

	case KindMongo:
		return buildMongo(ctx, src.Mongo, logger)

	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownKind, src.Kind)
	}
}

func buildHTTP(ctx context.Context, cfg HTTPSource) (*httpsource.Source, error) {
	endpoint := httpsource.Endpoint{
		URL:         cfg.URL,
		Method:      cfg.Method,
		ResultsPath: cfg.ResultsPath,
		Params:      cfg.Params,
		Headers:     cfg.Headers,
	}

	if ref := cfg.OpenAPI; ref != nil {
		data, err := loadDocument(ctx, http.DefaultClient, ref.Document, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		resolved, err := httpsource.EndpointFromOpenAPI(ctx, data, ref.OperationID, ref.Server)
		if err != nil {
			return nil, fmt.Errorf("config: resolve openapi operation: %w", err)
		}
		if endpoint.ResultsPath != "" {
			resolved.ResultsPath = endpoint.ResultsPath
		}
		resolved.Params = endpoint.Params
		resolved.Headers = endpoint.Headers
		endpoint = resolved
	}

	var opts []httpsource.Option
	if cfg.Timeout > 0 {
		opts = append(opts, httpsource.WithTimeout(cfg.Timeout))
	}
	return httpsource.New(endpoint, opts...), nil
}

func buildMongo(ctx context.Context, cfg MongoSource, logger *zap.Logger) (selectsingle.Service[record.Record], CloseFunc, error) {
	connectCtx := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("config: connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("config: ping mongo: %w", err)
	}

	logger.Debug("config: mongo source",
		zap.String("database", cfg.Database),
		zap.String("collection", cfg.Collection),
	)

	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	svc := mongosource.New(coll, mongoOptions(cfg)...)
	return svc, client.Disconnect, nil
}

func mongoOptions(cfg MongoSource) []mongosource.Option {
	var opts []mongosource.Option
	if len(cfg.Filter) > 0 {
		opts = append(opts, mongosource.WithFilter(bson.M(cfg.Filter)))
	}
	if len(cfg.Sort) > 0 {
		opts = append(opts, mongosource.WithSort(cfg.Sort...))
	}
	if cfg.Limit > 0 {
		opts = append(opts, mongosource.WithLimit(cfg.Limit))
	}
	if len(cfg.Fields) > 0 {
		opts = append(opts, mongosource.WithFields(cfg.Fields...))
	}
	return opts
}
