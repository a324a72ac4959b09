package database

import (
	"context"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"storefront_back_end/internal/config"
	"storefront_back_end/internal/models"
)

// Connections holds every backend the server talks to. Optional backends are nil when disabled.
type Connections struct {
	SQL     *gorm.DB
	Redis   *redis.Client
	Elastic *elasticsearch.Client
	Scylla  *ScyllaManager
}

// openSQL is swapped in tests to observe the handle Connect opens.
var openSQL = OpenSQL

// Connect opens the SQL database and every configured optional backend.
// Backends opened before a failure are closed again.
func Connect(ctx context.Context, cfg config.Config, log *zap.Logger) (conns *Connections, err error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db, err := openSQL(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	conns = &Connections{SQL: db}
	defer func() {
		if err != nil {
			conns.Close()
			conns = nil
		}
	}()

	if err = Migrate(db.WithContext(ctx)); err != nil {
		return conns, err
	}
	log.Info("SQL database ready", zap.String("driver", cfg.DBDriver))

	if cfg.RedisHost != "" {
		if conns.Redis, err = connectRedis(ctx, cfg); err != nil {
			return conns, err
		}
		log.Info("connected to Redis", zap.String("addr", cfg.RedisHost))
	} else {
		log.Warn("REDIS_HOST not set, product cache and rate limits disabled")
	}

	if cfg.ElasticURL != "" {
		if conns.Elastic, err = connectElastic(cfg); err != nil {
			return conns, err
		}
		log.Info("connected to Elasticsearch", zap.String("url", cfg.ElasticURL))
	} else {
		log.Warn("ELASTIC_URL not set, product search falls back to SQL")
	}

	if len(cfg.ScyllaHosts) > 0 && cfg.ScyllaKeyspace != "" {
		conns.Scylla = NewScyllaManager(log, ScyllaKeyspaceConfig{
			Hosts:    cfg.ScyllaHosts,
			Keyspace: cfg.ScyllaKeyspace,
			Username: cfg.ScyllaUser,
			Password: cfg.ScyllaPassword,
		})
		if _, err = conns.Scylla.GetSession(cfg.ScyllaKeyspace); err != nil {
			return conns, err
		}
	} else {
		log.Warn("SCYLLA_HOSTS not set, audit trail goes to the application log")
	}

	return conns, nil
}

// Close releases every open backend.
func (c *Connections) Close() {
	if c.Scylla != nil {
		c.Scylla.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.SQL != nil {
		if sqlDB, err := c.SQL.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

// OpenSQL opens a gorm connection for the given driver.
func OpenSQL(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		if dsn == "" {
			dsn = "storefront.db?_busy_timeout=5000&_txlock=immediate&_foreign_keys=1"
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	if driver == "sqlite" {
		// sqlite allows a single writer; one connection avoids SQLITE_BUSY between pool members.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Migrate creates or updates the relational schema.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Collection{},
		&models.Promotion{},
		&models.Product{},
		&models.Review{},
		&models.Customer{},
		&models.Address{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.StockMovement{},
	)
	if err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

func connectRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisHost,
		Password:     cfg.RedisPassword,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return client, nil
}

func connectElastic(cfg config.Config) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.ElasticURL},
		Username:  cfg.ElasticUser,
		Password:  cfg.ElasticPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("connect elasticsearch: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("connect elasticsearch: %s", res.Status())
	}
	return client, nil
}
