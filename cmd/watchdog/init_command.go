package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"watchdog/internal/config"
	"watchdog/internal/watchfile"
)

func newInitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "init",
		Short:       "Create the configuration and topics files",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			var path string
			if ctx.configFlag != nil {
				path = strings.TrimSpace(*ctx.configFlag)
			}
			if path == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return err
				}
				path = defaultPath
			}

			created, err := writeSampleConfig(path)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(out, "Created config file at %s\n", path)
				fmt.Fprintln(out, "Edit it to set your OpenRouter API key.")
			} else {
				fmt.Fprintf(out, "Config file already exists at %s\n", path)
			}

			cfg, _, _, err := config.LoadLenient(path)
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}

			store := watchfile.NewStore(cfg.Paths.TopicsFile)
			if store.Exists() {
				fmt.Fprintf(out, "Topics file already exists at %s\n", store.Path())
				return nil
			}
			if err := store.Init(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(out, "Created topics file at %s\n", store.Path())
			fmt.Fprintln(out, "Add your first topic with 'watchdog add'.")
			return nil
		},
	}
}

func writeSampleConfig(path string) (bool, error) {
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return false, nil
	}
	if err := config.CreateSample(path); err != nil {
		return false, err
	}
	return true, nil
}
