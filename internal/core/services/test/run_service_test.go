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

// Package services_test covers the parts of the run service that do not need
// a live BigQuery dataset.
package services_test

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/jaycherian/gcp-go-media-digest/internal/core/model"
	"github.com/jaycherian/gcp-go-media-digest/internal/core/services"
)

func TestGetFQN(t *testing.T) {
	client, err := bigquery.NewClient(context.Background(), "my-project", option.WithoutAuthentication())
	require.NoError(t, err)
	defer client.Close()

	s := &services.RunService{BigqueryClient: client, DatasetName: "digest_ds", RunsTable: "runs"}
	assert.Equal(t, "my-project.digest_ds.runs", s.GetFQN())
}

func TestArtifactURI(t *testing.T) {
	run := &model.RunOutput{RunID: "r1", ArtifactURIs: []string{
		"gs://b/clip/20240101_000000/transcription.txt",
		"gs://b/clip/20240101_000000/summary.txt",
	}}
	uri, err := services.ArtifactURI(run, "summary.txt")
	require.NoError(t, err)
	assert.Equal(t, "gs://b/clip/20240101_000000/summary.txt", uri)

	_, err = services.ArtifactURI(run, "translation_en.txt")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestGenerateSignedURL(t *testing.T) {
	var signed []byte
	s := &services.RunService{
		SignerEmail: "signer@my-project.iam.gserviceaccount.com",
		Sign: func(_ context.Context, payload []byte) ([]byte, error) {
			signed = payload
			return []byte("signature"), nil
		},
	}

	u, err := s.GenerateSignedURL(context.Background(), "gs://digests/clip/20240101_000000/summary.txt", 15*time.Minute)
	require.NoError(t, err)
	assert.NotEmpty(t, signed)

	parsed, err := url.Parse(u)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(parsed.Path, "/digests/clip/20240101_000000/summary.txt"), parsed.Path)
	assert.Equal(t, "GOOG4-RSA-SHA256", parsed.Query().Get("X-Goog-Algorithm"))
	assert.Equal(t, "900", parsed.Query().Get("X-Goog-Expires"))
	assert.NotEmpty(t, parsed.Query().Get("X-Goog-Signature"))
}

func TestGenerateSignedURLErrors(t *testing.T) {
	s := &services.RunService{SignerEmail: "signer@p.iam.gserviceaccount.com"}
	_, err := s.GenerateSignedURL(context.Background(), "https://example.com/x", time.Minute)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = s.GenerateSignedURL(context.Background(), "gs://b/o", time.Minute)
	assert.ErrorIs(t, err, model.ErrUnexpected)

	s.Sign = func(context.Context, []byte) ([]byte, error) { return nil, errors.New("denied") }
	_, err = s.GenerateSignedURL(context.Background(), "gs://b/o", time.Minute)
	assert.ErrorIs(t, err, model.ErrUnexpected)

	_, err = (&services.RunService{}).Search(context.Background(), " ", 10)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}
