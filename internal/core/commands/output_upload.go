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

// Package commands holds one cor.Command per stage of the digest pipeline.
// This file copies the artifacts of a persisted run to the optional
// ArtifactStore and deletes them again when the run cannot complete.
package commands

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jaycherian/gcp-go-media-digest/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-digest/internal/core/model"
	"github.com/jaycherian/gcp-go-media-digest/internal/media"
)

// OutputUpload copies the text artifacts of a persisted run to an
// ArtifactStore, keeping the <title>/<timestamp>/<file> layout, and records
// the resulting URIs on the RunOutput. Local files are left in place.
type OutputUpload struct {
	cor.BaseCommand
	store ArtifactStore
}

func NewOutputUpload(name string, store ArtifactStore) *OutputUpload {
	out := &OutputUpload{BaseCommand: *cor.NewBaseCommand(name), store: store}
	out.InputParamName = ParamRunOutput
	out.OutputParamName = ParamRunOutput
	return out
}

func (c *OutputUpload) Execute(context cor.Context) {
	run := context.Get(c.GetInputParam()).(*model.RunOutput)
	ctx := context.GetContext()

	prefix := media.SanitizeFilename(run.Title) + "/" + filepath.Base(run.Dir)
	uris := make([]string, 0, 3)
	for _, path := range []string{run.TranscriptPath, run.SummaryPath, run.TranslationPath} {
		uri, err := c.upload(context, prefix, path)
		if err != nil {
			DiscardArtifacts(ctx, c.store, uris)
			c.Fail(context, err)
			return
		}
		uris = append(uris, uri)
	}

	run.ArtifactURIs = uris
	c.Succeed(context)
	slog.InfoContext(ctx, "run outputs uploaded", "run_id", run.RunID, "objects", len(uris))
	context.Add(c.GetOutputParam(), run)
	context.Add(cor.CtxOut, run)
}

func (c *OutputUpload) upload(context cor.Context, prefix string, path string) (string, error) {
	dat, err := os.Open(path)
	if err != nil {
		return "", model.UnexpectedError("output.upload", err, "failed to open file %s", path)
	}
	defer dat.Close()

	uri, err := c.store.Put(context.GetContext(), prefix+"/"+filepath.Base(path), "text/plain; charset=utf-8", dat)
	if err != nil {
		return "", model.UnexpectedError("output.upload", err, "failed to upload %s", filepath.Base(path))
	}
	return uri, nil
}

// DiscardArtifacts deletes objects already copied to store. Failures are
// logged and do not stop the remaining deletes.
func DiscardArtifacts(ctx context.Context, store ArtifactStore, uris []string) {
	for _, uri := range uris {
		if err := store.Delete(ctx, uri); err != nil {
			slog.WarnContext(ctx, "failed to delete artifact", "uri", uri, "error", err)
		}
	}
}
