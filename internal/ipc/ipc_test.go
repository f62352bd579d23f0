package ipc_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"watchdog/internal/ipc"
	"watchdog/internal/logging"
)

type fakeController struct {
	mu      sync.Mutex
	stopped bool
	checked []string
}

func (f *fakeController) Status(context.Context) ipc.StatusResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return ipc.StatusResponse{
		Running:      !f.stopped,
		PID:          os.Getpid(),
		TopicsFile:   "/tmp/topics.toml",
		GateEligible: true,
		Topics: []ipc.TopicStatus{
			{Name: "kernel releases", IntervalHours: 24, LastCheckedAt: &now, Due: false},
			{Name: "go proposals", IntervalHours: 12, Due: true},
		},
	}
}

func (f *fakeController) CheckNow(_ context.Context, topic string, all bool) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if all {
		f.checked = append(f.checked, "kernel releases", "go proposals")
		return []string{"kernel releases", "go proposals"}, nil
	}
	if topic == "missing" {
		return nil, errors.New(`topic "missing" not found`)
	}
	f.checked = append(f.checked, topic)
	return []string{topic}, nil
}

func (f *fakeController) TestNotification(context.Context) (bool, string, error) {
	return true, "test notification sent", nil
}

func (f *fakeController) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func TestIPCServerClient(t *testing.T) {
	ctrl := &fakeController{}
	logger := logging.NewNop()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	socket := filepath.Join(t.TempDir(), "watchdog.sock")
	srv, err := ipc.NewServer(ctx, socket, ctrl, logger)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(func() {
		srv.Close()
	})

	time.Sleep(50 * time.Millisecond)

	client, err := ipc.Dial(socket)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if !status.Running {
		t.Fatal("expected daemon to be running")
	}
	if len(status.Topics) != 2 || status.Topics[1].Name != "go proposals" || !status.Topics[1].Due {
		t.Fatalf("unexpected topics: %#v", status.Topics)
	}
	if status.Topics[0].LastCheckedAt == nil {
		t.Fatal("expected last checked timestamp to survive the wire")
	}

	checkResp, err := client.CheckNow("kernel releases", false)
	if err != nil {
		t.Fatalf("CheckNow failed: %v", err)
	}
	if len(checkResp.Queued) != 1 || checkResp.Queued[0] != "kernel releases" {
		t.Fatalf("unexpected queued topics: %v", checkResp.Queued)
	}

	allResp, err := client.CheckNow("", true)
	if err != nil {
		t.Fatalf("CheckNow all failed: %v", err)
	}
	if len(allResp.Queued) != 2 {
		t.Fatalf("expected 2 queued topics, got %v", allResp.Queued)
	}

	if _, err := client.CheckNow("missing", false); err == nil {
		t.Fatal("expected error for unknown topic")
	}

	if _, err := client.CheckNow("", false); err == nil {
		t.Fatal("expected error for empty request")
	}

	notifyResp, err := client.TestNotification()
	if err != nil {
		t.Fatalf("TestNotification failed: %v", err)
	}
	if !notifyResp.Sent || notifyResp.Message == "" {
		t.Fatalf("unexpected notification response: %#v", notifyResp)
	}

	stopResp, err := client.Stop()
	if err != nil {
		t.Fatalf("Stop RPC failed: %v", err)
	}
	if !stopResp.Stopped {
		t.Fatal("expected stop response to be true")
	}

	status2, err := client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if status2.Running {
		t.Fatal("expected daemon to report stopped")
	}

	if _, err := os.Stat(socket); err != nil {
		t.Fatalf("socket should still exist while server is open: %v", err)
	}
}
