// SPDX-FileCopyrightText: 2025 GSI Helmholtzzentrum für Schwerionenforschung GmbH
//
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// A stand-in for helm and kubectl. MOCK_STDERR adds a stderr line and
// MOCK_EXIT sets the exit code.
func main() {
	name := strings.TrimSuffix(filepath.Base(os.Args[0]), ".exe")
	args := os.Args[1:]

	fmt.Printf("MOCK-%s-EXECUTED\n", strings.ToUpper(name))

	if len(args) > 0 {
		fmt.Printf("ARGS: %s\n", strings.Join(args, " "))
	}

	if cfg := os.Getenv("KUBECONFIG"); cfg != "" {
		if _, err := os.Stat(cfg); err == nil {
			fmt.Println("KUBECONFIG: present")
		}
	}

	if msg := os.Getenv("MOCK_STDERR"); msg != "" {
		fmt.Fprintln(os.Stderr, msg)
	}

	if os.Getenv("MOCK_EXIT") != "" {
		var code int
		if _, err := fmt.Sscan(os.Getenv("MOCK_EXIT"), &code); err == nil {
			os.Exit(code)
		}
	}
}
