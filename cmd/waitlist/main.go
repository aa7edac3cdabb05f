// Copyright (C) 2025 NextGen CTO (hello@nextgen-cto.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// The waitlist CLI joins the NextGen-CTO waitlist from a terminal and
// checks the service's health. Interactive terminals get the full form
// experience; pipes and scripts get plain output.
package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Config is the optional CLI configuration, read from config.yaml next to
// the binary when present.
type Config struct {
	ServerURL string `yaml:"server_url"`
}

var config Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func init() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		// config.yaml is optional; flags and the default cover the
		// common case of a locally running service.
		yamlFile, err := os.ReadFile("config.yaml")
		if err != nil {
			return
		}
		if err := yaml.Unmarshal(yamlFile, &config); err != nil {
			log.Fatalf("Error parsing config.yaml: %v", err)
		}
	}
}
