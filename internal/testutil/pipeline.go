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

package test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jaycherian/gcp-go-media-digest/internal/core/model"
	"github.com/jaycherian/gcp-go-media-digest/internal/media"
)

// FakeDownloader writes a small placeholder video, or mp3 for FetchAudio,
// named after Title.
type FakeDownloader struct {
	Title      string
	Err        error
	URLs       []string
	AudioCalls int
}

func (d *FakeDownloader) Fetch(_ context.Context, url string, outputDir string, filename string) (*model.MediaAsset, string, error) {
	return d.write(url, outputDir, filename, &model.MediaAsset{Kind: model.MediaKindVideo, MIMEType: "video/mp4"}, ".mp4")
}

func (d *FakeDownloader) FetchAudio(_ context.Context, url string, outputDir string, filename string) (*model.MediaAsset, string, error) {
	d.AudioCalls++
	return d.write(url, outputDir, filename, &model.MediaAsset{Kind: model.MediaKindAudio, MIMEType: "audio/mpeg"}, ".mp3")
}

func (d *FakeDownloader) write(url string, outputDir string, filename string, asset *model.MediaAsset, ext string) (*model.MediaAsset, string, error) {
	d.URLs = append(d.URLs, url)
	if d.Err != nil {
		return nil, "", d.Err
	}
	name := filename
	if name == "" {
		name = d.Title
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, "", err
	}
	asset.Path = filepath.Join(outputDir, media.SanitizeFilename(name)+ext)
	if err := os.WriteFile(asset.Path, []byte("media"), 0o644); err != nil {
		return nil, "", err
	}
	return asset, d.Title, nil
}

// FakeExtractor writes a placeholder <stem>_audio.mp3 next to the video.
type FakeExtractor struct {
	Err   error
	Calls int
}

func (e *FakeExtractor) ExtractAudio(_ context.Context, videoPath string, outputDir string, filename string) (*model.MediaAsset, error) {
	e.Calls++
	if e.Err != nil {
		return nil, e.Err
	}
	if filename == "" {
		filename = media.AudioFileName(videoPath)
	}
	if outputDir == "" {
		outputDir = filepath.Dir(videoPath)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(outputDir, filename)
	if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
		return nil, err
	}
	return &model.MediaAsset{Path: path, Kind: model.MediaKindAudio, MIMEType: "audio/mpeg"}, nil
}

// FakePreprocessor returns one second of a 440 Hz tone at the requested rate.
type FakePreprocessor struct {
	Err   error
	Paths []string
}

func (p *FakePreprocessor) Prepare(_ context.Context, path string, targetRate int) (*model.Waveform, error) {
	p.Paths = append(p.Paths, path)
	if p.Err != nil {
		return nil, p.Err
	}
	return &model.Waveform{Samples: Sine(440, targetRate, targetRate, 0.5), SampleRate: targetRate}, nil
}

// FakeRecognizer returns a fixed transcript.
type FakeRecognizer struct {
	Text string
	Err  error
}

func (r *FakeRecognizer) Name() string   { return "fake-whisper" }
func (r *FakeRecognizer) Device() string { return "cpu" }

func (r *FakeRecognizer) Transcribe(_ context.Context, waveform *model.Waveform) (*model.Transcript, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	return &model.Transcript{
		Text:       r.Text,
		Recognizer: r.Name(),
		Device:     r.Device(),
		Segments:   []*model.Segment{{Start: 0, End: waveform.Duration(), Text: r.Text}},
	}, nil
}

// MemoryStore is an in-memory artifact store. Err fails every Put; FailOn
// fails only the Put of objects whose name ends with it.
type MemoryStore struct {
	mu      sync.Mutex
	Bucket  string
	Err     error
	FailOn  string
	Objects map[string]string
	Deleted []string
}

func NewMemoryStore(bucket string) *MemoryStore {
	return &MemoryStore{Bucket: bucket, Objects: make(map[string]string)}
}

func (s *MemoryStore) Put(_ context.Context, objectName string, _ string, r io.Reader) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	if s.FailOn != "" && strings.HasSuffix(objectName, s.FailOn) {
		return "", errors.New("write refused for " + objectName)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	name := strings.TrimPrefix(objectName, "/")
	s.Objects[name] = buf.String()
	return "gs://" + s.Bucket + "/" + name, nil
}

func (s *MemoryStore) Delete(_ context.Context, uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Objects, strings.TrimPrefix(uri, "gs://"+s.Bucket+"/"))
	s.Deleted = append(s.Deleted, uri)
	return nil
}

// FakeInserter records rows instead of streaming them to BigQuery.
type FakeInserter struct {
	Err  error
	Rows []interface{}
}

func (i *FakeInserter) Put(_ context.Context, src interface{}) error {
	if i.Err != nil {
		return i.Err
	}
	i.Rows = append(i.Rows, src)
	return nil
}
