// Copyright (C) 2025 NextGen CTO (hello@nextgen-cto.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	serverURL string // Waitlist service base URL
	joinEmail string // Email for non-interactive join
	joinName  string // Name for non-interactive join
)

// =============================================================================
// COMMAND DEFINITIONS
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "waitlist",
	Short: "Join and inspect the NextGen-CTO waitlist",
	Long: `waitlist talks to the NextGen-CTO waitlist service.

Run 'waitlist join' in a terminal for the interactive form, or pass
--email for scripted use.`,
}

// joinCmd submits a signup. With a TTY and no --email flag it runs the
// interactive form; otherwise it submits directly and prints the result.
var joinCmd = &cobra.Command{
	Use:   "join",
	Short: "Join the waitlist",
	Example: `  waitlist join
  waitlist join --email ada@example.com --name "Ada Lovelace"
  waitlist join --server https://waitlist.nextgen-cto.com --email ada@example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewAPIClient(resolveServerURL())

		if joinEmail == "" && isatty.IsTerminal(os.Stdin.Fd()) {
			return runJoinForm(client)
		}
		if joinEmail == "" {
			return fmt.Errorf("--email is required when not running interactively")
		}
		return runJoinDirect(cmd, client, joinEmail, joinName)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "",
		"waitlist service base URL (default http://localhost:8080)")

	joinCmd.Flags().StringVar(&joinEmail, "email", "", "email address to sign up")
	joinCmd.Flags().StringVar(&joinName, "name", "", "name to sign up with")

	rootCmd.AddCommand(joinCmd)
	rootCmd.AddCommand(healthCmd)
}

// resolveServerURL applies flag > config.yaml > default precedence.
func resolveServerURL() string {
	if serverURL != "" {
		return serverURL
	}
	if config.ServerURL != "" {
		return config.ServerURL
	}
	return "http://localhost:8080"
}

// runJoinDirect is the non-interactive path: one request, plain output.
func runJoinDirect(cmd *cobra.Command, client *APIClient, email, name string) error {
	result, err := client.Join(cmd.Context(), email, name)
	if err != nil {
		return fmt.Errorf("could not reach the waitlist service: %w", err)
	}
	if !result.Success {
		for _, fieldErr := range result.Errors {
			fmt.Fprintf(os.Stderr, "  %s\n", fieldErr.Message)
		}
		return fmt.Errorf("%s", result.Message)
	}
	fmt.Println(result.Message)
	return nil
}

// runJoinForm launches the interactive bubbletea form, offering another
// round after each successful signup.
func runJoinForm(client *APIClient) error {
	for {
		model := newJoinModel(client)
		final, err := tea.NewProgram(model).Run()
		if err != nil {
			return fmt.Errorf("form failed: %w", err)
		}
		if m, ok := final.(*joinModel); !ok || !m.succeeded {
			return nil
		}

		again := false
		confirm := huh.NewConfirm().
			Title("Submit another signup?").
			Value(&again)
		if err := huh.NewForm(huh.NewGroup(confirm)).Run(); err != nil || !again {
			return nil
		}
	}
}
