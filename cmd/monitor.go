// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 UnB Embedded Systems Lab

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnB-Embedded-Lab/ball-in-the-tube/pkg/tubelink"
	"github.com/spf13/cobra"
)

var statsInterval int

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Display decoded telemetry frames as they arrive",
	Long: `Continuously decode and display telemetry frames from the rig.

Each frame is shown as one line with mode, heights, ToF, temperature, valve
and fan duty. A link-health summary (decoded frames, resync shifts, buffer
discards) is printed at a configurable interval.

The monitor resynchronizes silently after garbled bytes; a read failure on
the link ends the session.

Supports both serial and WebSocket connections.`,
	RunE: runMonitor,
}

func init() {
	monitorCmd.Flags().IntVar(&statsInterval, "stats-interval", 10, "Seconds between link-health summaries (0 disables)")
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	span, err := retention()
	if err != nil {
		return err
	}

	link, linkInfo, err := OpenLink()
	if err != nil {
		return err
	}
	defer link.Close()

	window, err := tubelink.NewSampleWindow(span)
	if err != nil {
		return err
	}
	reader := tubelink.NewLinkReader(link, window)

	fmt.Printf("Tubectl - Telemetry Monitor\n")
	fmt.Printf("Connection: %s\n", linkInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	// Ctrl+C closes the link, which ends the blocked read.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		link.Close()
	}()

	lastStats := time.Now()
	for {
		samples, err := reader.Poll()
		for _, s := range samples {
			fmt.Println(tubelink.FormatSample(s))
		}
		if err != nil {
			window.Clear()
			if ctx.Err() != nil {
				fmt.Println()
				fmt.Print(reader.Stats().Snapshot())
				return nil
			}
			var lerr *tubelink.LinkError
			if errors.As(err, &lerr) {
				return fmt.Errorf("link failed: %v", lerr.Err)
			}
			return err
		}

		if statsInterval > 0 && time.Since(lastStats) >= time.Duration(statsInterval)*time.Second {
			fmt.Println()
			fmt.Print(reader.Stats().Snapshot())
			fmt.Println()
			lastStats = time.Now()
		}
	}
}
