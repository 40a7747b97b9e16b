// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 UnB Embedded Systems Lab

package cmd

import (
	"fmt"
	"time"

	"github.com/UnB-Embedded-Lab/ball-in-the-tube/pkg/tubelink"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// WebSocket bridge flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Sample window retention, seconds
	retentionSec int
)

var rootCmd = &cobra.Command{
	Use:   "tubectl",
	Short: "Ball-in-the-tube experiment monitor and control",
	Long: `Tubectl - monitor and control the ball-in-the-tube experiment rig.

The rig's microcontroller streams 15-byte telemetry frames over a serial
link (USB-serial or HC-05 Bluetooth SPP, 115200 8N1) and accepts 7-byte
command frames for mode and setpoint changes.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 115200]
  WebSocket: --url ws://host/path [--username user]

For WebSocket authentication, the password is read from the TUBECTL_PASSWORD
environment variable, or prompted interactively if not set.

Defaults for port, baud, url and retention may be placed in
$HOME/.tubectl.yaml; command-line flags take precedence.`,
	Version:           "1.2.0",
	PersistentPreRunE: applyConfigDefaults,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", tubelink.DefaultBaudRate, "Baud rate (serial only)")

	// WebSocket bridge flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	rootCmd.PersistentFlags().IntVar(&retentionSec, "retention", int(tubelink.DefaultRetention/time.Second),
		"Sample window retention in seconds (5-600)")
}

// initConfig reads $HOME/.tubectl.yaml if present. A missing file is fine;
// a malformed one is reported when defaults are applied.
func initConfig() {
	viper.SetConfigName(".tubectl")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.SetEnvPrefix("tubectl")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}

// applyConfigDefaults fills in flags the user did not set from the config
// file. Flags always win over config values.
func applyConfigDefaults(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	if !flags.Changed("port") && viper.IsSet("port") {
		portName = viper.GetString("port")
	}
	if !flags.Changed("baud") && viper.IsSet("baud") {
		baudRate = viper.GetInt("baud")
	}
	if !flags.Changed("url") && viper.IsSet("url") {
		wsURL = viper.GetString("url")
	}
	if !flags.Changed("username") && viper.IsSet("username") {
		wsUsername = viper.GetString("username")
	}
	if !flags.Changed("retention") && viper.IsSet("retention") {
		retentionSec = viper.GetInt("retention")
	}
	return nil
}

// retention returns the configured window span, validated against the
// engine's bounds.
func retention() (time.Duration, error) {
	d := time.Duration(retentionSec) * time.Second
	if d < tubelink.MinRetention || d > tubelink.MaxRetention {
		return 0, fmt.Errorf("retention %ds out of range [%d, %d] seconds",
			retentionSec, int(tubelink.MinRetention/time.Second), int(tubelink.MaxRetention/time.Second))
	}
	return d, nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
