package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
)

// Client runs the background task queue. Queued work (account syncs,
// retention cleanups) survives restarts because tasks are persisted in a
// dedicated SQLite database next to the main one.
type Client struct {
	backlite *backlite.Client
	tasksDB  *sql.DB
	workers  int

	mu      sync.RWMutex
	started bool
}

// tasksDBPath derives the queue database path from the main database path,
// e.g. ./placesync.db -> ./placesync-tasks.db.
func tasksDBPath(mainDBPath string) string {
	ext := filepath.Ext(mainDBPath)
	return strings.TrimSuffix(mainDBPath, ext) + "-tasks" + ext
}

// NewClient opens the queue database and prepares the backlite client.
// Workers do not run until Start is called.
func NewClient(mainDBPath string, cfg Config) (*Client, error) {
	dsn := fmt.Sprintf("%s?_journal=WAL&_timeout=5000&_busy_timeout=5000", tasksDBPath(mainDBPath))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open tasks database: %w", err)
	}

	// Pool sized for the workers plus cleanup and enqueue traffic.
	db.SetMaxOpenConns(cfg.Workers + 5)
	db.SetMaxIdleConns(cfg.Workers + 2)
	db.SetConnMaxLifetime(time.Hour)

	bl, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          queueLogger{},
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create backlite client: %w", err)
	}

	if err := bl.Install(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to install backlite schema: %w", err)
	}

	return &Client{
		backlite: bl,
		tasksDB:  db,
		workers:  cfg.Workers,
	}, nil
}

// Register adds task queues to the client. Must happen before Start.
func (c *Client) Register(queues ...backlite.Queue) {
	for _, q := range queues {
		c.backlite.Register(q)
	}
}

// Start runs the workers until ctx is cancelled. Non-blocking callers run
// it in a goroutine and use Stop for shutdown.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	log.Printf("Task queue started with %d workers", c.workers)
	c.backlite.Start(ctx)
}

// Stop waits for in-flight tasks up to the context deadline. Returns false
// when the deadline passed with tasks still running.
func (c *Client) Stop(ctx context.Context) bool {
	c.mu.RLock()
	started := c.started
	c.mu.RUnlock()
	if !started {
		return true
	}

	log.Println("Stopping task queue...")
	if c.backlite.Stop(ctx) {
		log.Println("Task queue stopped gracefully")
		return true
	}
	log.Println("Task queue stopped with timeout (some tasks may not have completed)")
	return false
}

// Close releases the queue database. Call after Stop.
func (c *Client) Close() error {
	if c.tasksDB != nil {
		return c.tasksDB.Close()
	}
	return nil
}

// Add starts an enqueue operation; call Save on the result to persist.
func (c *Client) Add(tasks ...backlite.Task) *backlite.TaskAddOp {
	return c.backlite.Add(tasks...)
}

// queueLogger adapts backlite logging onto the standard logger.
type queueLogger struct{}

func (queueLogger) Info(message string, params ...any) {
	log.Printf("[TASK] "+message, params...)
}

func (queueLogger) Error(message string, params ...any) {
	log.Printf("[TASK ERROR] "+message, params...)
}
