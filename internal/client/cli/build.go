package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/casconsole/internal/client/auth"
	"github.com/dmitrijs2005/casconsole/internal/client/client"
	"github.com/dmitrijs2005/casconsole/internal/client/config"
	"github.com/dmitrijs2005/casconsole/internal/client/services"
	"github.com/dmitrijs2005/casconsole/internal/client/session"
	"github.com/dmitrijs2005/casconsole/internal/client/storage"
	"github.com/dmitrijs2005/casconsole/internal/logging"
	"github.com/redis/go-redis/v9"
)

// mockDelay is how long the in-process backend pretends to process a batch.
const mockDelay = 800 * time.Millisecond

// redisSessionName is the key suffix of the shared session record.
const redisSessionName = "console"

// NewApp wires the console from cfg. The returned cleanup closes the session
// store and must be called after Run returns.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger, in io.Reader, out io.Writer) (*App, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*App, func(), error) {
		cleanup()
		return nil, nil, err
	}

	httpClient := &http.Client{}

	store, closeStore, err := openSessionStore(ctx, cfg.Session)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, closeStore)
	sess := session.New(store, log)

	creds, oauth, err := newCredentials(ctx, cfg.Auth, httpClient)
	if err != nil {
		return fail(err)
	}

	backend, resolver, err := newBackend(cfg, httpClient, log)
	if err != nil {
		return fail(err)
	}

	objects, err := storage.New(ctx, cfg.Storage.StoreConfig(httpClient))
	if err != nil {
		return fail(fmt.Errorf("storage: %w", err))
	}

	app := newApp(Deps{
		Session:   sess,
		Uploads:   services.NewUploadOrchestrator(objects, backend, creds, sess, log),
		History:   services.NewHistorySynchronizer(backend, creds, sess, cfg.PollInterval, log),
		Downloads: services.NewDownloadManager(httpClient, resolver, creds, cfg.DownloadDir, services.PrintOpener{W: out}, log),
		Creds:     creds,
		OAuth:     oauth,
		AuthMode:  cfg.Auth.Mode,
		Log:       log,
		In:        in,
		Out:       out,
	})
	return app, cleanup, nil
}

func openSessionStore(ctx context.Context, c config.SessionConfig) (session.Store, func(), error) {
	switch c.Store {
	case config.SessionStoreSQLite:
		db, err := session.OpenSQLite(ctx, c.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("session store: %w", err)
		}
		return session.NewSQLiteStore(db), closeDB(db), nil

	case config.SessionStoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("session store: redis ping: %w", err)
		}
		return session.NewRedisStore(rdb, c.RedisPrefix, redisSessionName, c.TTL), func() { _ = rdb.Close() }, nil

	default:
		return session.NewMemoryStore(), func() {}, nil
	}
}

func closeDB(db *sql.DB) func() {
	return func() { _ = db.Close() }
}

func newCredentials(ctx context.Context, c config.AuthConfig, httpClient *http.Client) (auth.Provider, *auth.OAuth2Provider, error) {
	if c.Mode != config.AuthModePassword && c.Mode != config.AuthModeDevice {
		return auth.NewStaticProvider(c.Token), nil, nil
	}

	endpoint, err := auth.Discover(ctx, httpClient, c.Issuer)
	if err != nil {
		return nil, nil, err
	}
	p := auth.NewOAuth2Provider(auth.OAuth2Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Scopes:       c.Scopes,
		Endpoint:     endpoint,
		HTTPClient:   httpClient,
	})
	return p, p, nil
}

// passthroughResolver is used when no API base is configured; links are
// used as given.
type passthroughResolver struct{}

func (passthroughResolver) Resolve(ref string) (string, error) { return ref, nil }

func newBackend(cfg *config.Config, httpClient *http.Client, log logging.Logger) (client.Client, services.URLResolver, error) {
	api, err := client.NewAPIClient(cfg.APIBaseURL, httpClient, cfg.RequestTimeout, log)

	if cfg.APIMode == config.APIModeMock {
		log.Info(context.Background(), "using in-process mock backend")
		if err != nil {
			return client.NewMockSubmitter(mockDelay), passthroughResolver{}, nil
		}
		return client.NewMockSubmitter(mockDelay), api, nil
	}

	if err != nil {
		return nil, nil, err
	}
	return api, api, nil
}
