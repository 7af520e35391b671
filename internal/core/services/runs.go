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

// Package services provides read access to finished digest runs: the run
// history kept in BigQuery and signed URLs for the artifacts uploaded to
// Cloud Storage.
package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/jaycherian/gcp-go-media-digest/internal/cloud"
	"github.com/jaycherian/gcp-go-media-digest/internal/core/model"
)

// DefaultListLimit caps List and Search when the caller passes no limit.
const DefaultListLimit = 50

// SignFunc signs bytes on behalf of the signer service account.
type SignFunc func(ctx context.Context, payload []byte) ([]byte, error)

// RunStats aggregates the run history table.
type RunStats struct {
	Runs                int64   `json:"runs" bigquery:"runs"`
	Translated          int64   `json:"translated" bigquery:"translated"`
	AvgCompressionRatio float64 `json:"avg_compression_ratio" bigquery:"avg_compression_ratio"`
}

type RunService struct {
	BigqueryClient *bigquery.Client                  // Client for the run history table.
	IAMClient      *credentials.IamCredentialsClient // Signs artifact URLs when Sign is nil.
	Sign           SignFunc                          // Overrides IAM signing.
	SignerEmail    string                            // Service account that signs artifact URLs.
	DatasetName    string
	RunsTable      string
}

// GetFQN returns the table name in the project.dataset.table form used in SQL.
func (s *RunService) GetFQN() string {
	fqn := s.BigqueryClient.Dataset(s.DatasetName).Table(s.RunsTable).FullyQualifiedName()
	return strings.Replace(fqn, ":", ".", -1)
}

// List returns the most recent runs, newest first.
func (s *RunService) List(ctx context.Context, limit int) ([]*model.RunOutput, error) {
	q := s.BigqueryClient.Query(fmt.Sprintf(QryListRuns, s.GetFQN()))
	q.Parameters = []bigquery.QueryParameter{{Name: "limit", Value: normalizeLimit(limit)}}
	return readRuns(ctx, q)
}

// Search returns runs whose title contains term, ignoring case.
func (s *RunService) Search(ctx context.Context, term string, limit int) ([]*model.RunOutput, error) {
	if strings.TrimSpace(term) == "" {
		return nil, model.InvalidInputError("runs.search", "search term is required")
	}
	q := s.BigqueryClient.Query(fmt.Sprintf(QrySearchRunsByTitle, s.GetFQN()))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "term", Value: term},
		{Name: "limit", Value: normalizeLimit(limit)},
	}
	return readRuns(ctx, q)
}

// Get returns the run with the given id.
//
// Inputs:
//   - ctx: The context for the request, used for cancellation and tracing.
//   - runID: The id assigned when the run started.
//
// Outputs:
//   - *model.RunOutput: The recorded run, Done or Failed.
//   - error: A NotFoundError when no row has the id, otherwise the query error.
func (s *RunService) Get(ctx context.Context, runID string) (*model.RunOutput, error) {
	q := s.BigqueryClient.Query(fmt.Sprintf(QryFindRunById, s.GetFQN()))
	q.Parameters = []bigquery.QueryParameter{{Name: "run_id", Value: runID}}
	itr, err := q.Read(ctx)
	if err != nil {
		return nil, model.UnexpectedError("runs.get", err, "failed to read from BigQuery")
	}
	run := &model.RunOutput{}
	err = itr.Next(run)
	if errors.Is(err, iterator.Done) {
		return nil, model.NotFoundError("runs.get", nil, "run %s does not exist", runID)
	}
	if err != nil {
		return nil, model.UnexpectedError("runs.get", err, "failed to read run %s", runID)
	}
	return run, nil
}

// Stats aggregates the whole run history.
func (s *RunService) Stats(ctx context.Context) (*RunStats, error) {
	itr, err := s.BigqueryClient.Query(fmt.Sprintf(QryRunStats, s.GetFQN())).Read(ctx)
	if err != nil {
		return nil, model.UnexpectedError("runs.stats", err, "failed to read from BigQuery")
	}
	out := &RunStats{}
	if err := itr.Next(out); err != nil && !errors.Is(err, iterator.Done) {
		return nil, model.UnexpectedError("runs.stats", err, "failed to read run statistics")
	}
	return out, nil
}

func readRuns(ctx context.Context, q *bigquery.Query) ([]*model.RunOutput, error) {
	itr, err := q.Read(ctx)
	if err != nil {
		return nil, model.UnexpectedError("runs.list", err, "failed to read from BigQuery")
	}
	out := make([]*model.RunOutput, 0)
	for {
		run := &model.RunOutput{}
		err := itr.Next(run)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return out, model.UnexpectedError("runs.list", err, "failed to iterate results")
		}
		out = append(out, run)
	}
	return out, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 1000 {
		return DefaultListLimit
	}
	return limit
}

// ArtifactURI returns the gs:// location of the artifact called name, one of
// the run's transcript, summary or translation file names.
func ArtifactURI(run *model.RunOutput, name string) (string, error) {
	for _, uri := range run.ArtifactURIs {
		if path.Base(uri) == name {
			return uri, nil
		}
	}
	return "", model.NotFoundError("runs.artifact", nil, "run %s has no uploaded artifact %q", run.RunID, name)
}

// GenerateSignedURL creates a V4 GET URL for a gs:// object, signed by the
// configured service account, valid for expires.
//
// Inputs:
//   - ctx: The context for the IAM signing call.
//   - gcsURI: A gs://bucket/object location, as stored in ArtifactURIs.
//   - expires: How long the URL stays valid.
//
// Outputs:
//   - string: The signed URL.
//   - error: An error if the URI cannot be parsed or signing fails.
func (s *RunService) GenerateSignedURL(ctx context.Context, gcsURI string, expires time.Duration) (string, error) {
	obj, err := cloud.ParseGCSURI(gcsURI)
	if err != nil {
		return "", model.InvalidInputError("runs.sign", "%v", err)
	}
	if s.SignerEmail == "" {
		return "", model.UnexpectedError("runs.sign", nil, "no signer service account is configured")
	}

	sign := s.Sign
	if sign == nil {
		if s.IAMClient == nil {
			return "", model.UnexpectedError("runs.sign", nil, "iam credentials client is not initialized")
		}
		sign = s.signWithIAM
	}

	opts := &storage.SignedURLOptions{
		GoogleAccessID: s.SignerEmail,
		Scheme:         storage.SigningSchemeV4,
		Method:         "GET",
		Expires:        time.Now().Add(expires),
		SignBytes: func(b []byte) ([]byte, error) {
			return sign(ctx, b)
		},
	}
	u, err := storage.SignedURL(obj.Bucket, obj.Name, opts)
	if err != nil {
		return "", model.UnexpectedError("runs.sign", err, "Bucket(%q).Object(%q).SignedURL", obj.Bucket, obj.Name)
	}
	return u, nil
}

func (s *RunService) signWithIAM(ctx context.Context, payload []byte) ([]byte, error) {
	resp, err := s.IAMClient.SignBlob(ctx, &credentialspb.SignBlobRequest{
		Name:    fmt.Sprintf("projects/-/serviceAccounts/%s", s.SignerEmail),
		Payload: payload,
	})
	if err != nil {
		return nil, err
	}
	return resp.SignedBlob, nil
}
