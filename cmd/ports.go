// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 UnB Embedded Systems Lab

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.bug.st/serial"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List candidate serial ports",
	Long: `List serial port devices present on this machine.

A paired HC-05 Bluetooth module appears as a virtual COM port (rfcomm on
Linux); a USB-serial adapter as ttyUSB/ttyACM or COMx.`,
	RunE: runPorts,
}

func init() {
	rootCmd.AddCommand(portsCmd)
}

func runPorts(cmd *cobra.Command, args []string) error {
	ports, err := serial.GetPortsList()
	if err != nil {
		return fmt.Errorf("failed to enumerate serial ports: %v", err)
	}
	if len(ports) == 0 {
		fmt.Println("No serial ports found.")
		return nil
	}
	for _, port := range ports {
		fmt.Println(port)
	}
	return nil
}
