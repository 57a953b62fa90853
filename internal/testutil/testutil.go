// SPDX-FileCopyrightText: 2025 GSI Helmholtzzentrum für Schwerionenforschung GmbH
//
// SPDX-License-Identifier: MPL-2.0

// Package testutil holds fixtures shared by the package tests.
package testutil

import (
	"bufio"
	"bytes"

	"github.com/dennisklein/helmtask/internal/pipeline"
)

// Kubeconfig is a minimal valid kubeconfig with one cluster, user and context.
const Kubeconfig = `apiVersion: v1
kind: Config
clusters:
- name: dev
  cluster:
    server: https://dev.example.com:6443
contexts:
- name: dev
  context:
    cluster: dev
    user: ci
current-context: dev
users:
- name: ci
  user:
    token: abc123
`

// ErrorWriter is an io.Writer that fails, either right away or after a
// number of successful writes.
type ErrorWriter struct {
	err       error
	failAfter int
	writes    int
}

// NewErrorWriter creates an ErrorWriter that always fails with err.
func NewErrorWriter(err error) *ErrorWriter {
	return &ErrorWriter{err: err}
}

// NewErrorWriterAfter creates an ErrorWriter that fails with err after n
// successful writes.
func NewErrorWriterAfter(n int, err error) *ErrorWriter {
	return &ErrorWriter{failAfter: n, err: err}
}

// Write implements io.Writer.
func (e *ErrorWriter) Write(p []byte) (int, error) {
	if e.writes >= e.failAfter {
		return 0, e.err
	}

	e.writes++

	return len(p), nil
}

// ParseCommands returns the logging commands found in task output.
func ParseCommands(out []byte) []pipeline.Command {
	var cmds []pipeline.Command

	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for sc.Scan() {
		if cmd, ok := pipeline.ParseCommand(sc.Text()); ok {
			cmds = append(cmds, cmd)
		}
	}

	return cmds
}

// FindCommands filters task.<event> commands.
func FindCommands(cmds []pipeline.Command, event string) []pipeline.Command {
	var found []pipeline.Command

	for _, c := range cmds {
		if c.Area == "task" && c.Event == event {
			found = append(found, c)
		}
	}

	return found
}
