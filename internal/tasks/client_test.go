package tasks

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, string) {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "placesync.db")

	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(dbPath, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return client, tmpDir
}

func TestNewClient(t *testing.T) {
	_, tmpDir := newTestClient(t)

	// The queue gets its own database next to the main one.
	_, err := os.Stat(filepath.Join(tmpDir, "placesync-tasks.db"))
	assert.NoError(t, err, "tasks database should be created")
}

func TestTasksDBPath(t *testing.T) {
	assert.Equal(t, "./placesync-tasks.db", tasksDBPath("./placesync.db"))
	assert.Equal(t, "/var/data/app-tasks.sqlite", tasksDBPath("/var/data/app.sqlite"))
}

func TestClientStartStop(t *testing.T) {
	client, _ := newTestClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	time.Sleep(50 * time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	assert.True(t, client.Stop(stopCtx), "stop should succeed gracefully")
}

// probeTask exercises the queue end to end without touching real sync code.
type probeTask struct {
	AccountID string `json:"account_id"`
}

func (probeTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "probe",
		MaxAttempts: 1,
		Backoff:     time.Second,
		Timeout:     5 * time.Second,
	}
}

func TestTaskEnqueue(t *testing.T) {
	client, _ := newTestClient(t)

	executed := make(chan string, 1)
	client.Register(backlite.NewQueue(func(ctx context.Context, task probeTask) error {
		executed <- task.AccountID
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	ids, err := client.Add(probeTask{AccountID: "acct-7"}).Save()
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	select {
	case got := <-executed:
		assert.Equal(t, "acct-7", got)
	case <-time.After(5 * time.Second):
		t.Fatal("task was not executed within timeout")
	}
}

func TestSyncAccountTaskConfig(t *testing.T) {
	cfg := SyncAccountTask{AccountID: "accounts/123", UserID: 1}.Config()

	assert.Equal(t, "sync_account", cfg.Name)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, time.Minute, cfg.Backoff)
	assert.Equal(t, 15*time.Minute, cfg.Timeout)
	assert.NotNil(t, cfg.Retention)
}

func TestCleanupTaskConfigs(t *testing.T) {
	auditCfg := CleanupAuditEventsTask{RetentionDays: 30}.Config()
	assert.Equal(t, "cleanup_audit_events", auditCfg.Name)
	assert.Equal(t, 3, auditCfg.MaxAttempts)

	metricsCfg := CleanupSyncMetricsTask{RetentionDays: 90}.Config()
	assert.Equal(t, "cleanup_sync_metrics", metricsCfg.Name)
	assert.Equal(t, 1, metricsCfg.MaxAttempts)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, time.Minute, cfg.RetryDelay)
	assert.Equal(t, 5*time.Minute, cfg.TaskTimeout)
	assert.Equal(t, 15*time.Minute, cfg.ReleaseAfter)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
	assert.Equal(t, 24*time.Hour, cfg.RetentionDuration)
}
