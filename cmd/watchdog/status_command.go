package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"watchdog/internal/config"
	"watchdog/internal/ipc"
	"watchdog/internal/llm"
	"watchdog/internal/power"
	"watchdog/internal/schedule"
	"watchdog/internal/watchfile"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon, power, and topic status",
		// Status must render even before an API key is configured.
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var path string
			if ctx.configFlag != nil {
				path = strings.TrimSpace(*ctx.configFlag)
			}
			cfg, _, _, err := config.LoadLenient(path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			socket := cfg.Paths.SocketPath
			if ctx.socketFlag != nil && strings.TrimSpace(*ctx.socketFlag) != "" {
				socket = *ctx.socketFlag
			}
			client, dialErr := ipc.Dial(socket)
			if dialErr == nil {
				defer client.Close()
				if resp, err := client.Status(); err == nil {
					renderDaemonStatus(out, resp, colorize)
					return nil
				}
			}

			// No daemon: render from the files directly.
			for _, line := range renderSectionHeader("Daemon", colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderStatusLine("Daemon", statusWarn, "not running", colorize))
			fmt.Fprintln(out, renderStatusLine("API key", apiKeyKind(cfg.LLM.APIKey), apiKeyText(cfg.LLM.APIKey), colorize))
			if strings.TrimSpace(cfg.LLM.APIKey) != "" {
				kind, text := probeAPIAccess(cmd.Context(), cfg)
				fmt.Fprintln(out, renderStatusLine("API access", kind, text, colorize))
			}
			fmt.Fprintln(out)

			store := watchfile.NewStore(cfg.Paths.TopicsFile)
			doc, err := store.Load()
			if err != nil {
				if errors.Is(err, watchfile.ErrMissing) {
					fmt.Fprintln(out, "No topics file yet; run 'watchdog init' first.")
					return nil
				}
				return err
			}

			gate := power.NewGate(power.NewPlatformProbe(cfg.Power.ACSupplyGlob), nil)
			idleThreshold := time.Duration(doc.IdleThresholdMinutes) * time.Minute
			eligibility := gate.Evaluate(cmd.Context(), doc.RequireACPower, idleThreshold)
			renderPowerSection(out, eligibility, colorize)

			now := time.Now()
			statuses := make([]ipc.TopicStatus, 0, len(doc.Topics))
			for _, topic := range doc.Topics {
				status := ipc.TopicStatus{
					Name:          topic.Name,
					IntervalHours: topic.CheckIntervalHours,
					LastCheckedAt: topic.LastCheckedAt,
					Due:           schedule.IsDue(topic, now),
				}
				if topic.LastCheckedAt != nil {
					next := schedule.NextDue(topic, now)
					status.NextDueAt = &next
				}
				statuses = append(statuses, status)
			}
			renderTopicSection(out, statuses, colorize)
			return nil
		},
	}
}

func renderDaemonStatus(out io.Writer, resp *ipc.StatusResponse, colorize bool) {
	for _, line := range renderSectionHeader("Daemon", colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Daemon", statusOK, fmt.Sprintf("running (pid %d)", resp.PID), colorize))
	if resp.LastTickAt != nil {
		fmt.Fprintln(out, renderStatusLine("Last tick", statusInfo, formatTimeAgo(resp.LastTickAt, time.Now()), colorize))
	}
	if resp.ActiveChecks > 0 {
		fmt.Fprintln(out, renderStatusLine("Active checks", statusInfo, strconv.Itoa(resp.ActiveChecks), colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Topics file", statusInfo, resp.TopicsFile, colorize))
	fmt.Fprintln(out)

	for _, line := range renderSectionHeader("Power", colorize) {
		fmt.Fprintln(out, line)
	}
	gateKind := statusOK
	gateText := "eligible for checks"
	if !resp.GateEligible {
		gateKind = statusWarn
		gateText = resp.GateReason
	}
	fmt.Fprintln(out, renderStatusLine("Eligibility", gateKind, gateText, colorize))
	fmt.Fprintln(out)

	renderTopicSection(out, resp.Topics, colorize)
}

func renderPowerSection(out io.Writer, eligibility power.Eligibility, colorize bool) {
	for _, line := range renderSectionHeader("Power", colorize) {
		fmt.Fprintln(out, line)
	}
	acKind := statusOK
	if !eligibility.OnAC {
		acKind = statusWarn
	}
	fmt.Fprintln(out, renderStatusLine("AC power", acKind, yesNo(eligibility.OnAC), colorize))
	fmt.Fprintln(out, renderStatusLine("User idle", statusInfo, eligibility.Idle.Truncate(time.Second).String(), colorize))
	gateKind := statusOK
	gateText := "eligible for checks"
	if !eligibility.Eligible {
		gateKind = statusWarn
		gateText = eligibility.Reason
	}
	fmt.Fprintln(out, renderStatusLine("Eligibility", gateKind, gateText, colorize))
	fmt.Fprintln(out)
}

func renderTopicSection(out io.Writer, topics []ipc.TopicStatus, colorize bool) {
	for _, line := range renderSectionHeader("Topics", colorize) {
		fmt.Fprintln(out, line)
	}
	if len(topics) == 0 {
		fmt.Fprintln(out, statusIndent+"none configured")
		return
	}
	now := time.Now()
	rows := make([][]string, 0, len(topics))
	for _, topic := range topics {
		rows = append(rows, []string{
			topic.Name,
			strconv.Itoa(topic.IntervalHours) + "h",
			formatTimeAgo(topic.LastCheckedAt, now),
			formatDueIn(topic.NextDueAt, topic.Due, now),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Topic", "Interval", "Last Checked", "Next Check"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft},
	))
}

// probeAPIAccess pings the model endpoint so status can distinguish a
// configured key from a working one. Kept on a short deadline so status
// stays snappy when the endpoint is down.
func probeAPIAccess(ctx context.Context, cfg *config.Config) (statusKind, string) {
	llmCfg := cfg.GetLLM()
	client := llm.NewClient(llm.Config{
		APIKey:         llmCfg.APIKey,
		BaseURL:        llmCfg.BaseURL,
		Model:          llmCfg.Model,
		Referer:        llmCfg.Referer,
		Title:          llmCfg.Title,
		TimeoutSeconds: 10,
	})
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.HealthCheck(probeCtx); err != nil {
		return statusWarn, "unreachable (" + err.Error() + ")"
	}
	return statusOK, "ok"
}

func apiKeyKind(key string) statusKind {
	if strings.TrimSpace(key) == "" {
		return statusError
	}
	return statusOK
}

func apiKeyText(key string) string {
	if strings.TrimSpace(key) == "" {
		return "missing"
	}
	return "configured"
}
