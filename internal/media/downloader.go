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

// Package media wraps the external tools that fetch and convert media.
// This file drives yt-dlp, first for the video metadata and then for the
// download itself, either of the whole video or of its best audio stream.
package media

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jaycherian/gcp-go-media-digest/internal/core/model"
	"github.com/jaycherian/gcp-go-media-digest/internal/executor"
)

const (
	opFetch      = "media.fetch"
	opFetchAudio = "media.fetch_audio"
)

// Downloader fetches remote media into a local directory.
type Downloader interface {
	// Fetch downloads url into outputDir. The file is named filename when
	// given, otherwise after the sanitized video title. It returns the asset
	// and the original, unsanitized title.
	Fetch(ctx context.Context, url string, outputDir string, filename string) (*model.MediaAsset, string, error)
	// FetchAudio downloads only the best audio stream of url and converts it
	// to mp3. Naming and return values follow Fetch.
	FetchAudio(ctx context.Context, url string, outputDir string, filename string) (*model.MediaAsset, string, error)
}

// YtDlpDownloader implements Downloader with the yt-dlp command line tool.
type YtDlpDownloader struct {
	runner     executor.Runner
	binaryPath string
	format     string
}

func NewYtDlpDownloader(runner executor.Runner, binaryPath string) *YtDlpDownloader {
	if binaryPath == "" {
		binaryPath = "yt-dlp"
	}
	return &YtDlpDownloader{runner: runner, binaryPath: binaryPath, format: "best[ext=mp4]/best"}
}

type videoInfo struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Ext   string `json:"ext"`
}

func (d *YtDlpDownloader) Fetch(ctx context.Context, url string, outputDir string, filename string) (*model.MediaAsset, string, error) {
	return d.download(ctx, opFetch, url, outputDir, filename, model.MediaKindVideo, "-f", d.format)
}

// FetchAudio asks yt-dlp for the best audio stream, falling back to the best
// combined format, and has it extract the audio as mp3.
//
// Inputs:
//   - url: the media page to download from.
//   - outputDir: created when missing.
//   - filename: the file stem; empty uses the sanitized title.
//
// Outputs:
//   - an audio asset with MIME type audio/mpeg, the original title, or an error.
func (d *YtDlpDownloader) FetchAudio(ctx context.Context, url string, outputDir string, filename string) (*model.MediaAsset, string, error) {
	asset, title, err := d.download(ctx, opFetchAudio, url, outputDir, filename, model.MediaKindAudio,
		"-f", "bestaudio/best", "-x", "--audio-format", "mp3")
	if err != nil {
		return nil, "", err
	}
	asset.Kind = model.MediaKindAudio
	asset.MIMEType = "audio/mpeg"
	return asset, title, nil
}

func (d *YtDlpDownloader) download(ctx context.Context, op string, url string, outputDir string, filename string, kind model.MediaKind, format ...string) (*model.MediaAsset, string, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, "", model.InvalidInputError(op, "video url is required")
	}

	info, err := d.info(ctx, url)
	if err != nil {
		return nil, "", err
	}
	title := info.Title
	if title == "" {
		title = info.ID
	}

	name := SanitizeFilename(filename)
	if filename == "" {
		name = SanitizeFilename(title)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, "", model.UnexpectedError(op, err, "failed to create %s", outputDir)
	}

	template := filepath.Join(outputDir, name+".%(ext)s")
	args := append(append([]string{}, format...),
		"--no-playlist",
		"--no-progress",
		"--no-warnings",
		"--force-overwrites",
		"-o", template,
		"--print", "after_move:filepath",
		url)
	res, err := d.runner.Run(ctx, d.binaryPath, args...)
	if err != nil {
		return nil, "", model.AcquisitionError(op, err, "download of %s failed", url)
	}

	path := lastLine(string(res.Stdout))
	if path == "" {
		path = findDownloaded(outputDir, name)
	}
	if path == "" {
		return nil, "", model.AcquisitionError(op, nil, "yt-dlp reported success but no file was written for %s", url)
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, "", model.AcquisitionError(op, err, "downloaded file %s is missing", path)
	}

	asset, err := DetectAsset(path, kind)
	if err != nil {
		return nil, "", model.UnexpectedError(op, err, "failed to inspect %s", path)
	}
	slog.InfoContext(ctx, "media downloaded", "url", url, "title", title, "path", path, "kind", asset.Kind, "mime", asset.MIMEType)
	return asset, title, nil
}

func (d *YtDlpDownloader) info(ctx context.Context, url string) (*videoInfo, error) {
	res, err := d.runner.Run(ctx, d.binaryPath,
		"--dump-single-json",
		"--no-playlist",
		"--skip-download",
		"--no-warnings",
		url)
	if err != nil {
		return nil, model.AcquisitionError(opFetch, err, "error getting video info for %s", url)
	}
	var info videoInfo
	if err := json.Unmarshal(res.Stdout, &info); err != nil {
		return nil, model.AcquisitionError(opFetch, err, "unreadable video info for %s", url)
	}
	return &info, nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

// findDownloaded locates name.<ext> in dir for yt-dlp builds that do not
// support --print.
func findDownloaded(dir string, name string) string {
	matches, err := filepath.Glob(filepath.Join(dir, globEscape(name)+".*"))
	if err != nil || len(matches) == 0 {
		return ""
	}
	for _, m := range matches {
		if !strings.HasSuffix(m, ".part") && !strings.HasSuffix(m, ".ytdl") {
			return m
		}
	}
	return ""
}

func globEscape(s string) string {
	r := strings.NewReplacer("*", `\*`, "?", `\?`, "[", `\[`, "]", `\]`)
	return r.Replace(s)
}
