// Copyright 2026 Richard Sanger, Wand Network Research Group
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package app provides helpers for command line applications.
package app

import (
	"errors"

	"github.com/wandsdn/ttp-tools/pkg/log"
)

// LogLevelUsage defines the usage text for the log.level flag.
const LogLevelUsage = "Console logging level verbosity (debug|info|error)"

// SetupLog sets up the logging for a command line application.
func SetupLog(level string) error {
	return log.Setup(log.Config{Level: level})
}

// WithExitCode returns an error with the exit code set.
func WithExitCode(err error, exitCode int) error {
	return codeError{err: err, code: exitCode}
}

// ExitCode extracts the exit code from an error. The exit code is zero for
// a nil error, and -1 if the error does not carry one.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var codeErr codeError
	if errors.As(err, &codeErr) {
		return codeErr.code
	}
	return -1
}

type codeError struct {
	err  error
	code int
}

func (c codeError) Error() string {
	return c.err.Error()
}

func (c codeError) Unwrap() error {
	return c.err
}
