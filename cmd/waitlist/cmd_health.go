// Copyright (C) 2025 NextGen CTO (hello@nextgen-cto.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var healthJSONOutput bool // Output as JSON for scripting

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// healthCmd checks whether the waitlist service is up.
//
// # Examples
//
//	waitlist health
//	waitlist health --json
//	waitlist health --server https://waitlist.nextgen-cto.com
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the waitlist service",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewAPIClient(resolveServerURL())

		status, err := client.Health(cmd.Context())
		if err != nil {
			return fmt.Errorf("could not reach the waitlist service: %w", err)
		}

		if healthJSONOutput {
			return json.NewEncoder(os.Stdout).Encode(status)
		}

		if status.Healthy() {
			fmt.Printf("%s: ok\n", status.Service)
			return nil
		}
		return fmt.Errorf("service unhealthy: status=%q http=%d", status.Status, status.HTTPStatus)
	},
}

func init() {
	healthCmd.Flags().BoolVar(&healthJSONOutput, "json", false, "output as JSON")
}
