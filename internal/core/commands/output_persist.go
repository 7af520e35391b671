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
// This file writes the three text files of a run into a fresh timestamped
// directory and removes such a directory again when a later stage fails.
//
// Functions:
//   - CreateRunDir: Creates root/title/stamp, suffixing stamp on collision.
//   - RemoveRunDir: Deletes a run directory and its emptied title directory.
package commands

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jaycherian/gcp-go-media-digest/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-digest/internal/core/model"
	"github.com/jaycherian/gcp-go-media-digest/internal/media"
)

const opPersist = "output.persist"

// maxRunDirAttempts bounds the collision suffixes tried for one second.
const maxRunDirAttempts = 100

// OutputPersist writes the transcript, summary and translation files of a run
// under <root>/<sanitized title>/<timestamp>/ and produces the RunOutput.
// When translation was skipped the summary is copied into the translation
// file. If any file cannot be written the run directory is removed.
type OutputPersist struct {
	cor.BaseCommand
	clock       Clock
	defaultRoot string
	pinned      bool // Ignore the output root named by requests.
}

func NewOutputPersist(name string, clock Clock, defaultRoot string) *OutputPersist {
	if clock == nil {
		clock = time.Now
	}
	out := &OutputPersist{
		BaseCommand: *cor.NewStageCommand(name, model.StagePersisting),
		clock:       clock,
		defaultRoot: defaultRoot,
	}
	out.InputParamName = ParamSummary
	out.OutputParamName = ParamRunOutput
	return out
}

// PinRoot makes every run write under the default root, whatever output root
// the request names. Servers set it so that callers cannot choose where files
// are written.
func (c *OutputPersist) PinRoot(pinned bool) *OutputPersist {
	c.pinned = pinned
	return c
}

func (c *OutputPersist) IsExecutable(context cor.Context) bool {
	return c.BaseCommand.IsExecutable(context) &&
		context.Get(ParamRequest) != nil &&
		context.Get(ParamTranscript) != nil &&
		context.Get(ParamLanguage) != nil
}

func (c *OutputPersist) Execute(context cor.Context) {
	ctx := context.GetContext()
	summary := context.Get(c.GetInputParam()).(*model.SummaryResult)
	req := context.Get(ParamRequest).(*model.DigestRequest)
	transcript := context.Get(ParamTranscript).(*model.Transcript)
	language := context.Get(ParamLanguage).(*model.LanguageResult)
	translation, translated := context.Get(ParamTranslation).(*model.TranslationResult)

	translationText := summary.Summary
	if translated {
		translationText = translation.Text
	}

	root := c.outputRoot(context, req)

	title := runTitle(context)
	now := c.clock()
	dir, err := CreateRunDir(root, media.SanitizeFilename(title), now.Format(model.TimestampLayout))
	if err != nil {
		c.Fail(context, err)
		return
	}

	run := model.NewRunOutput(req.URL, now)
	run.SetTimestamp(filepath.Base(dir))
	run.Title = title
	run.Dir = dir
	run.TranscriptPath = filepath.Join(dir, model.TranscriptFileName)
	run.SummaryPath = filepath.Join(dir, model.SummaryFileName)
	run.TranslationPath = filepath.Join(dir, model.TranslationFileName(req.TargetLanguage))
	run.DetectedLanguage = language.Code
	run.TargetLanguage = req.TargetLanguage
	run.Translated = translated
	run.CompressionRatio = summary.CompressionRatio
	run.Recognizer = transcript.Recognizer
	run.Device = transcript.Device

	files := []struct {
		path    string
		content string
	}{
		{run.TranscriptPath, transcript.Text},
		{run.SummaryPath, summary.Summary},
		{run.TranslationPath, translationText},
	}
	for _, f := range files {
		if err := os.WriteFile(f.path, []byte(f.content), 0o644); err != nil {
			if rmErr := RemoveRunDir(dir); rmErr != nil {
				slog.WarnContext(ctx, "failed to remove incomplete run directory", "dir", dir, "error", rmErr)
			}
			c.Fail(context, model.UnexpectedError(opPersist, err, "failed to write %s", f.path))
			return
		}
	}

	c.Succeed(context)
	slog.InfoContext(ctx, "run outputs written", "dir", dir, "translated", translated)
	context.Add(c.GetOutputParam(), run)
	context.Add(cor.CtxOut, run)
}

// outputRoot is the request's output root, unless pinned, then the default
// root, then the working directory.
func (c *OutputPersist) outputRoot(context cor.Context, req *model.DigestRequest) string {
	if req.OutputRoot != "" {
		if !c.pinned {
			return req.OutputRoot
		}
		slog.WarnContext(context.GetContext(), "ignoring requested output root", "requested", req.OutputRoot, "root", c.defaultRoot)
	}
	if c.defaultRoot != "" {
		return c.defaultRoot
	}
	return "."
}

// runTitle is the downloaded video title, or the stem of the video file when
// the title is unknown.
func runTitle(context cor.Context) string {
	if title, ok := context.Get(ParamTitle).(string); ok && strings.TrimSpace(title) != "" {
		return title
	}
	if video, ok := context.Get(ParamVideo).(*model.MediaAsset); ok {
		base := filepath.Base(video.Path)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return ""
}

// CreateRunDir creates root/name/stamp. An existing empty directory is reused.
// When a non-empty one exists a _2, _3, ... suffix is appended to stamp.
//
// Inputs:
//   - root: the output root, created when missing.
//   - name: the sanitized video title.
//   - stamp: the run timestamp, e.g. 20241102_180459.
//
// Outputs:
//   - string: the directory that was created or reused.
//   - error: an error when no directory could be created.
func CreateRunDir(root string, name string, stamp string) (string, error) {
	parent := filepath.Join(root, name)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return "", model.UnexpectedError(opPersist, err, "failed to create %s", parent)
	}

	for i := 1; i <= maxRunDirAttempts; i++ {
		candidate := filepath.Join(parent, stamp)
		if i > 1 {
			candidate = filepath.Join(parent, fmt.Sprintf("%s_%d", stamp, i))
		}
		err := os.Mkdir(candidate, 0o755)
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", model.UnexpectedError(opPersist, err, "failed to create %s", candidate)
		}
		if empty, _ := isEmptyDir(candidate); empty {
			return candidate, nil
		}
	}
	return "", model.UnexpectedError(opPersist, nil, "no free run directory for %s/%s", parent, stamp)
}

// RemoveRunDir deletes a run directory and then its title directory when no
// other run is left in it.
func RemoveRunDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	parent := filepath.Dir(dir)
	if empty, _ := isEmptyDir(parent); empty {
		return os.Remove(parent)
	}
	return nil
}

func isEmptyDir(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || !info.IsDir() {
		return false, err
	}
	_, err = f.Readdirnames(1)
	if errors.Is(err, io.EOF) {
		return true, nil
	}
	return false, err
}
