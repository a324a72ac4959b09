package database

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gocql/gocql"
	"go.uber.org/zap"
)

type ScyllaKeyspaceConfig struct {
	Hosts       []string
	Keyspace    string
	Username    string
	Password    string
	CACertPath  string
	Timeout     time.Duration
	NumConns    int
	Consistency gocql.Consistency
}

// ScyllaManager keeps one session per keyspace and recreates sessions that stop answering.
type ScyllaManager struct {
	log      *zap.Logger
	sessions map[string]*gocql.Session
	configs  map[string]ScyllaKeyspaceConfig
	mu       sync.Mutex
}

func NewScyllaManager(log *zap.Logger, configs ...ScyllaKeyspaceConfig) *ScyllaManager {
	sm := &ScyllaManager{
		log:      log,
		sessions: make(map[string]*gocql.Session),
		configs:  make(map[string]ScyllaKeyspaceConfig),
	}
	for _, c := range configs {
		if c.Timeout == 0 {
			c.Timeout = 5 * time.Second
		}
		if c.NumConns == 0 {
			c.NumConns = 4
		}
		if c.Consistency == 0 {
			c.Consistency = gocql.Quorum
		}
		sm.configs[c.Keyspace] = c
	}
	return sm
}

func createScyllaCluster(config ScyllaKeyspaceConfig) (*gocql.ClusterConfig, error) {
	cluster := gocql.NewCluster(config.Hosts...)
	cluster.Keyspace = config.Keyspace
	cluster.Consistency = config.Consistency
	cluster.Timeout = config.Timeout
	cluster.NumConns = config.NumConns
	cluster.MaxWaitSchemaAgreement = 30 * time.Second
	cluster.ReconnectInterval = time.Second
	if config.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: config.Username,
			Password: config.Password,
		}
	}

	if config.CACertPath != "" {
		caCert, err := os.ReadFile(config.CACertPath)
		if err != nil {
			return nil, fmt.Errorf("read scylla CA certificate: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("parse scylla CA certificate %s", config.CACertPath)
		}
		cluster.SslOpts = &gocql.SslOptions{Config: &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}}
	}

	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())
	return cluster, nil
}

// GetSession returns the live session for keyspace, creating it on first use.
func (sm *ScyllaManager) GetSession(keyspace string) (*gocql.Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	config, ok := sm.configs[keyspace]
	if !ok {
		return nil, fmt.Errorf("scylla keyspace %q not configured", keyspace)
	}

	if session, ok := sm.sessions[keyspace]; ok {
		if err := session.Query("SELECT now() FROM system.local").Exec(); err == nil {
			return session, nil
		}
		session.Close()
		delete(sm.sessions, keyspace)
	}

	cluster, err := createScyllaCluster(config)
	if err != nil {
		return nil, err
	}
	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("create scylla session for %s: %w", keyspace, err)
	}

	sm.sessions[keyspace] = session
	sm.log.Info("scylla session opened", zap.String("keyspace", keyspace), zap.String("user", config.Username))
	return session, nil
}

func (sm *ScyllaManager) Close() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for keyspace, session := range sm.sessions {
		session.Close()
		delete(sm.sessions, keyspace)
		sm.log.Info("scylla session closed", zap.String("keyspace", keyspace))
	}
}
