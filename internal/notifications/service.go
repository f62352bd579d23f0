// Package notifications delivers topic update alerts to the user: a desktop
// notification via notify-send, optionally mirrored to an ntfy topic for
// other devices.
package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"watchdog/internal/config"
)

const userAgent = "Watchdog-Go/1.0"

// Service defines the notification surface exposed to the daemon and CLI.
type Service interface {
	// NotifyUpdate announces a significant update for a topic.
	NotifyUpdate(ctx context.Context, topic, summary, sourceURL string) error
	// NotifyStarted announces that the daemon began watching.
	NotifyStarted(ctx context.Context, topicCount int) error
	// NotifyError surfaces a daemon-level failure worth the user's attention.
	NotifyError(ctx context.Context, err error, contextLabel string) error
	// TestNotification sends a test message through every configured channel.
	TestNotification(ctx context.Context) error
}

// NewService builds the notification stack from configuration: notify-send
// always, ntfy in addition when a topic is configured.
func NewService(cfg *config.Config) Service {
	services := []Service{newDesktopService(cfg.Notifications, nil)}

	if topic := strings.TrimSpace(cfg.Notifications.NtfyTopic); topic != "" {
		timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		services = append(services, &ntfyService{
			endpoint: "https://ntfy.sh/" + topic,
			client:   &http.Client{Timeout: timeout},
		})
	}

	if len(services) == 1 {
		return services[0]
	}
	return multiService(services)
}

// NewNop returns a service that drops every notification.
func NewNop() Service {
	return noopService{}
}

// multiService fans a notification out to every channel and reports the
// first failure after trying all of them.
type multiService []Service

func (m multiService) NotifyUpdate(ctx context.Context, topic, summary, sourceURL string) error {
	var firstErr error
	for _, svc := range m {
		if err := svc.NotifyUpdate(ctx, topic, summary, sourceURL); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m multiService) NotifyStarted(ctx context.Context, topicCount int) error {
	var firstErr error
	for _, svc := range m {
		if err := svc.NotifyStarted(ctx, topicCount); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m multiService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var firstErr error
	for _, svc := range m {
		if sendErr := svc.NotifyError(ctx, err, contextLabel); sendErr != nil && firstErr == nil {
			firstErr = sendErr
		}
	}
	return firstErr
}

func (m multiService) TestNotification(ctx context.Context) error {
	var firstErr error
	for _, svc := range m {
		if err := svc.TestNotification(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// commandRunner abstracts exec for tests.
type commandRunner func(ctx context.Context, name string, args ...string) error

func execRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return fmt.Errorf("%s: %w: %s", name, err, detail)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

type desktopService struct {
	command      string
	urgency      string
	expireMillis int
	run          commandRunner
}

func newDesktopService(cfg config.Notifications, run commandRunner) *desktopService {
	command := strings.TrimSpace(cfg.Command)
	if command == "" {
		command = "notify-send"
	}
	urgency := strings.TrimSpace(cfg.Urgency)
	if urgency == "" {
		urgency = "normal"
	}
	expire := cfg.ExpireMillis
	if expire <= 0 {
		expire = 30000
	}
	if run == nil {
		run = execRunner
	}
	return &desktopService{
		command:      command,
		urgency:      urgency,
		expireMillis: expire,
		run:          run,
	}
}

func (d *desktopService) NotifyUpdate(ctx context.Context, topic, summary, sourceURL string) error {
	title := fmt.Sprintf("Watchdog: %s", strings.TrimSpace(topic))
	body := strings.TrimSpace(summary)
	if link := strings.TrimSpace(sourceURL); link != "" {
		body = body + "\n" + link
	}
	return d.send(ctx, d.urgency, title, body)
}

func (d *desktopService) NotifyStarted(ctx context.Context, topicCount int) error {
	body := fmt.Sprintf("Watching %d topics", topicCount)
	if topicCount == 1 {
		body = "Watching 1 topic"
	}
	return d.send(ctx, "low", "Watchdog started", body)
}

func (d *desktopService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	message := "unknown error"
	if err != nil {
		message = strings.TrimSpace(err.Error())
	}
	if label := strings.TrimSpace(contextLabel); label != "" {
		message = label + ": " + message
	}
	return d.send(ctx, "critical", "Watchdog error", message)
}

func (d *desktopService) TestNotification(ctx context.Context) error {
	return d.send(ctx, "low", "Watchdog test", "Notification system test")
}

func (d *desktopService) send(ctx context.Context, urgency, title, body string) error {
	args := []string{
		"--urgency", urgency,
		"--expire-time", strconv.Itoa(d.expireMillis),
		"--app-name", "watchdog",
		title,
		body,
	}
	if err := d.run(ctx, d.command, args...); err != nil {
		return fmt.Errorf("desktop notification: %w", err)
	}
	return nil
}

type ntfyPayload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyUpdate(ctx context.Context, topic, summary, sourceURL string) error {
	message := strings.TrimSpace(summary)
	if link := strings.TrimSpace(sourceURL); link != "" {
		message = message + "\n" + link
	}
	data := ntfyPayload{
		title:   fmt.Sprintf("Watchdog: %s", strings.TrimSpace(topic)),
		message: message,
		tags:    []string{"watchdog", "update"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyStarted(ctx context.Context, topicCount int) error {
	data := ntfyPayload{
		title:   "Watchdog started",
		message: fmt.Sprintf("Watching %d topics", topicCount),
		tags:    []string{"watchdog", "start"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := ntfyPayload{
		title:    "Watchdog - Error",
		message:  builder.String(),
		tags:     []string{"watchdog", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := ntfyPayload{
		title:    "Watchdog - Test",
		message:  "Notification system test",
		tags:     []string{"watchdog", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data ntfyPayload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyUpdate(context.Context, string, string, string) error { return nil }
func (noopService) NotifyStarted(context.Context, int) error                   { return nil }
func (noopService) NotifyError(context.Context, error, string) error           { return nil }
func (noopService) TestNotification(context.Context) error                     { return nil }
