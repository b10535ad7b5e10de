package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/customer-portal/internal/core/ports"
)

type memAuditRepo struct {
	mu      sync.Mutex
	entries []ports.AuditEntry
	err     error
}

func (m *memAuditRepo) Insert(_ context.Context, e ports.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *memAuditRepo) snapshot() []ports.AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.AuditEntry(nil), m.entries...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func TestDispatcher_PreservesPerUserOrder(t *testing.T) {
	repo := &memAuditRepo{}
	d := NewDispatcher(3, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	for i := int64(1); i <= 20; i++ {
		d.Record(ports.AuditEntry{Action: ports.AuditUpdateCustomer, UserID: "7", CustomerID: i})
		d.Record(ports.AuditEntry{Action: ports.AuditDeleteCustomer, UserID: "8", CustomerID: i})
	}

	waitFor(t, func() bool { return len(repo.snapshot()) == 40 })

	last := map[string]int64{}
	for _, e := range repo.snapshot() {
		if e.CustomerID <= last[e.UserID] {
			t.Fatalf("entries for user %s out of order", e.UserID)
		}
		last[e.UserID] = e.CustomerID
	}
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(5, &memAuditRepo{}, zerolog.Nop())
	for _, id := range []string{"", "1", "alice", "a-very-long-user-identifier"} {
		first := d.shardIndex(id)
		if first < 0 || first >= 5 {
			t.Fatalf("shard %d out of range", first)
		}
		if d.shardIndex(id) != first {
			t.Fatalf("shard for %q not stable", id)
		}
	}
}

func TestDispatcher_DrainsOnShutdown(t *testing.T) {
	repo := &memAuditRepo{}
	d := NewDispatcher(1, repo, zerolog.Nop())
	for i := 0; i < 10; i++ {
		d.Record(ports.AuditEntry{Action: ports.AuditSignIn, UserID: "7"})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Start(ctx)
	d.Wait()

	if got := len(repo.snapshot()); got != 10 {
		t.Fatalf("expected queued entries to be drained, got %d", got)
	}
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	d := NewDispatcher(1, &memAuditRepo{}, zerolog.Nop())
	for i := 0; i < channelBuffer+5; i++ {
		d.Record(ports.AuditEntry{UserID: "7"})
	}
	if got := len(d.workers[0]); got != channelBuffer {
		t.Fatalf("queue length = %d, want %d", got, channelBuffer)
	}
}

func TestDispatcher_WriteErrorsDoNotStopWorker(t *testing.T) {
	repo := &memAuditRepo{err: errors.New("mongo down")}
	d := NewDispatcher(1, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	d.Record(ports.AuditEntry{UserID: "7"})
	waitFor(t, func() bool { return len(d.workers[0]) == 0 })

	repo.mu.Lock()
	repo.err = nil
	repo.mu.Unlock()

	d.Record(ports.AuditEntry{UserID: "7", Action: ports.AuditSignOut})
	waitFor(t, func() bool {
		for _, e := range repo.snapshot() {
			if e.Action == ports.AuditSignOut {
				return true
			}
		}
		return false
	})

	cancel()
	d.Wait()
}
