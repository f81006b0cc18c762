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

// Package xtest contains helpers for tests.
package xtest

import (
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// UpdateGoldenFiles registers the '-update' flag for the test.
//
// This flag should be checked by golden file tests to see whether the golden
// files should be updated or not. The golden files should be deterministic.
//
// To update all golden files, run the following command:
//
//	go test ./... -update
//
// To update a specific package, run the following command:
//
//	go test ./path/to/package -update
//
// The flag should be registered as a package global variable:
//
//	var update = xtest.UpdateGoldenFiles()
func UpdateGoldenFiles() *bool {
	return flag.Bool("update", false, "set to regenerate the golden files")
}

// MustMarshalJSONToFile marshals v and writes the result to file
// testdata/baseName. If the file exists, it is truncated and overwritten.
func MustMarshalJSONToFile(t testing.TB, v any, baseName string) {
	t.Helper()

	enc, err := json.MarshalIndent(v, "", "    ")
	require.NoError(t, err)
	MustWriteToFile(t, append(enc, '\n'), baseName)
}

// MustWriteToFile writes b to file testdata/baseName. If the file exists,
// it is truncated and overwritten.
func MustWriteToFile(t testing.TB, b []byte, baseName string) {
	t.Helper()
	require.NoError(t, os.WriteFile(ExpandPath(baseName), b, 0666))
}

// MustReadFromFile reads testdata/baseName and returns the raw content.
func MustReadFromFile(t testing.TB, baseName string) []byte {
	t.Helper()
	b, err := os.ReadFile(ExpandPath(baseName))
	require.NoError(t, err)
	return b
}

// ExpandPath returns testdata/file.
func ExpandPath(file string) string {
	return filepath.Join("testdata", file)
}
