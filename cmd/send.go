// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 UnB Embedded Systems Lab

package cmd

import (
	"fmt"

	"github.com/UnB-Embedded-Lab/ball-in-the-tube/pkg/tubelink"
	"github.com/spf13/cobra"
)

var (
	sendMode     string
	sendHeight   int
	sendDutyPct  int
	sendValvePct int
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a mode/setpoint command to the rig",
	Long: `Validate, encode and send one command frame.

The mode is given by name or code (manual/0, fan/1, valve/2, reset/3).
Height is in millimetres; duty and valve setpoints are percentages and are
converted to the firmware's raw units. Out-of-range setpoints are clamped to
the rig's limits, matching the operator-panel behavior.`,
	RunE: runSend,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Send the reset command (mode=reset, all setpoints zero)",
	RunE:  runReset,
}

func init() {
	sendCmd.Flags().StringVar(&sendMode, "mode", "manual", "Mode: manual, fan, valve, reset (or 0-3)")
	sendCmd.Flags().IntVar(&sendHeight, "height", 0, "Height setpoint, mm")
	sendCmd.Flags().IntVar(&sendDutyPct, "duty", 0, "Fan duty setpoint, percent")
	sendCmd.Flags().IntVar(&sendValvePct, "valve", 0, "Valve position setpoint, percent")
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(resetCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	mode, err := tubelink.ParseMode(sendMode)
	if err != nil {
		return err
	}

	command, frame, err := tubelink.Submit(int(mode), sendHeight,
		int(tubelink.DutyRawFromPercent(sendDutyPct)),
		int(tubelink.ValveStepsFromPercent(sendValvePct)))
	if err != nil {
		return err
	}

	return writeCommand(command, frame)
}

func runReset(cmd *cobra.Command, args []string) error {
	command := tubelink.NewResetCommand()
	frame, err := tubelink.EncodeCommand(command)
	if err != nil {
		return err
	}
	return writeCommand(command, frame)
}

func writeCommand(command tubelink.Command, frame []byte) error {
	link, linkInfo, err := OpenLink()
	if err != nil {
		return err
	}
	defer link.Close()

	if _, err := link.Write(frame); err != nil {
		return fmt.Errorf("link write failed: %v", err)
	}

	fmt.Printf("Connection: %s\n", linkInfo)
	fmt.Printf("Sent: %s\n", tubelink.FormatCommand(command, frame))
	return nil
}
