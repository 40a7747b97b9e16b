// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 UnB Embedded Systems Lab
//
// Tubectl - Ball-in-the-Tube link monitor and control
//
// A CLI tool for monitoring and controlling the ball-in-the-tube
// experiment rig over its serial telemetry/command link.

package main

import (
	"os"

	"github.com/UnB-Embedded-Lab/ball-in-the-tube/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
