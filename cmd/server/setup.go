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

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jaycherian/gcp-go-media-digest/internal/cloud"
	"github.com/jaycherian/gcp-go-media-digest/internal/core/services"
	"github.com/jaycherian/gcp-go-media-digest/internal/core/workflow"
	"github.com/jaycherian/gcp-go-media-digest/internal/executor"
)

// StateManager holds the shared components for the server.
type StateManager struct {
	config     *cloud.Config
	cloud      *cloud.ServiceClients
	workflow   *workflow.DigestWorkflow
	runService *services.RunService
}

// SetupOS defaults the configuration location to ./configs and the runtime
// to "local" unless the environment already names them.
func SetupOS() (err error) {
	if os.Getenv(cloud.EnvConfigFilePrefix) == "" {
		if err = os.Setenv(cloud.EnvConfigFilePrefix, "configs"); err != nil {
			return err
		}
	}
	if os.Getenv(cloud.EnvConfigRuntime) == "" {
		err = os.Setenv(cloud.EnvConfigRuntime, "local")
	}
	return err
}

// GetConfig loads secrets from .env and then the layered TOML configuration.
func GetConfig() (*cloud.Config, error) {
	if err := cloud.LoadDotEnv(); err != nil {
		return nil, err
	}
	if err := SetupOS(); err != nil {
		return nil, fmt.Errorf("failed to setup os: %w", err)
	}
	config := cloud.NewConfig()
	if err := cloud.LoadConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

// InitState creates the cloud clients, the digest workflow and, when run
// history is enabled, the run service.
func InitState(ctx context.Context, config *cloud.Config) (*StateManager, error) {
	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		return nil, err
	}

	deps, err := workflow.NewDependencies(config, cloudClients, executor.New())
	if err != nil {
		cloudClients.Close()
		return nil, err
	}
	// requests from the network never choose where files are written
	deps.PinOutputRoot = true

	state := &StateManager{
		config:   config,
		cloud:    cloudClients,
		workflow: workflow.NewDigestWorkflow(deps),
	}

	if cloudClients.BiqQueryClient != nil {
		state.runService = &services.RunService{
			BigqueryClient: cloudClients.BiqQueryClient,
			IAMClient:      cloudClients.IAMClient,
			SignerEmail:    config.Application.SignerServiceAccountEmail,
			DatasetName:    config.BigQueryDataSource.DatasetName,
			RunsTable:      config.BigQueryDataSource.RunsTable,
		}
	}
	return state, nil
}

// Close releases the cloud clients.
func (s *StateManager) Close() {
	s.cloud.Close()
}
