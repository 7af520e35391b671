// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package test holds helpers shared by the package tests: the test
// configuration, request fixtures and in-memory fakes for the pipeline
// collaborators.
package test

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jaycherian/gcp-go-media-digest/internal/cloud"
)

var (
	configOnce sync.Once
	config     *cloud.Config
	configErr  error
)

// GetTestDigestRequestText is the body of a Pub/Sub message requesting a
// digest.
func GetTestDigestRequestText() string {
	return `{
  "url": "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
  "target_language": "es",
  "focus_hints": "main points and key insights",
  "bullet_points": 5
}`
}

// ModuleRoot walks up from the working directory to the directory holding
// go.mod.
func ModuleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("go.mod not found")
		}
		dir = parent
	}
}

// SetupOS points the configuration loader at <module root>/configs with the
// "test" runtime.
func SetupOS() error {
	root, err := ModuleRoot()
	if err != nil {
		return err
	}
	if err := os.Setenv(cloud.EnvConfigFilePrefix, filepath.Join(root, "configs")); err != nil {
		return err
	}
	return os.Setenv(cloud.EnvConfigRuntime, "test")
}

// GetConfig loads the test configuration once per test binary.
func GetConfig(t *testing.T) *cloud.Config {
	t.Helper()
	configOnce.Do(func() {
		if configErr = SetupOS(); configErr != nil {
			return
		}
		config = cloud.NewConfig()
		configErr = cloud.LoadConfig(config)
	})
	if configErr != nil {
		t.Fatalf("failed to load test configuration: %v", configErr)
	}
	return config
}
