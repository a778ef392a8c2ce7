package app

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"taskapp/internal/auth"
	"taskapp/internal/cache"
	"taskapp/internal/config"
	"taskapp/internal/events"
	"taskapp/internal/handlers"
	"taskapp/internal/repo"
	"taskapp/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const cachePrefix = "taskapp"

type App struct {
	cfg     config.Config
	db      *pgxpool.Pool
	redis   *redis.Client
	backend storage.Backend
	nats    *events.NATSPublisher

	store    *storage.Manager
	users    repo.UserRepo
	tasks    repo.TaskRepo
	cache    *cache.TaskCache
	events   events.Publisher
	sessions auth.Sessions

	routerOnce sync.Once
	router     *gin.Engine
}

// New opens the configured storage backend and the optional Redis cache,
// NATS publisher and session store.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	a := &App{cfg: cfg, events: events.Nop{}}

	if cfg.NeedsRedis() {
		rdb, err := newRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.redis = rdb
	}

	backend, err := a.openBackend(ctx)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	a.backend = backend

	store, err := storage.NewManager(backend, cfg.Storage.Namespace, cfg.Storage.Version,
		storage.WithQuota(cfg.Storage.QuotaBytes))
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	a.store = store
	a.tasks = repo.NewStorageTaskRepo(store)
	a.users = repo.NewStorageUserRepo(store, repo.WithTasks(a.tasks))

	if cfg.Redis.CacheEnabled {
		a.cache = cache.NewTaskCache(a.redis, cachePrefix, cfg.Redis.DefaultTTL.Duration())
	}

	if cfg.NATS.URL != "" {
		pub, err := events.Connect(cfg.NATS.URL, cfg.NATS.SubjectPrefix)
		if err != nil {
			_ = a.Close(ctx)
			return nil, err
		}
		a.nats = pub
		a.events = pub
	}

	if a.redis != nil {
		a.sessions = auth.NewStore(a.redis, cfg.Auth.SessionTTL.Duration())
	} else {
		a.sessions = auth.NewMemoryStore(cfg.Auth.SessionTTL.Duration())
	}

	log.Printf("storage %s ready (namespace %s, version %s), cache=%t, events=%t",
		cfg.Storage.Driver, cfg.Storage.Namespace, cfg.Storage.Version, a.cache != nil, a.nats != nil)
	return a, nil
}

func (a *App) openBackend(ctx context.Context) (storage.Backend, error) {
	switch a.cfg.Storage.Driver {
	case config.DriverMemory:
		return storage.NewMemoryBackend(), nil
	case config.DriverSQLite:
		b, err := storage.OpenSQLite(a.cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		return b, nil
	case config.DriverRedis:
		return storage.NewRedisBackend(a.redis), nil
	case config.DriverPostgres:
		db, err := storage.NewPostgresPool(ctx, a.cfg.PG.DSN)
		if err != nil {
			return nil, err
		}
		a.db = db
		if err := storage.RunMigrations(a.cfg.PG.DSN); err != nil {
			return nil, err
		}
		return storage.NewPGBackend(db), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", a.cfg.Storage.Driver)
	}
}

// Deps returns the shared collaborators for the HTTP handlers and the terminal client.
func (a *App) Deps() handlers.Deps {
	return handlers.Deps{Users: a.users, Tasks: a.tasks, Cache: a.cache, Events: a.events}
}

func (a *App) Config() config.Config { return a.cfg }

// Router builds the HTTP engine on first use.
func (a *App) Router() *gin.Engine {
	a.routerOnce.Do(func() {
		a.router = newRouter(a.cfg, a.Deps(), a.sessions)
	})
	return a.router
}

func (a *App) Close(ctx context.Context) error {
	_ = ctx
	if a.nats != nil {
		a.nats.Close()
	}
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			log.Printf("storage close: %v", err)
		}
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
	return nil
}

func newRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return rdb, nil
}

func newRouter(cfg config.Config, deps handlers.Deps, sessions auth.Sessions) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "Cookie"},
		ExposeHeaders: []string{"Content-Length", "Content-Type"},
		MaxAge:        12 * time.Hour,
	}))

	Setup(r, cfg, deps, sessions)
	return r
}
