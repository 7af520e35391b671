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

package media

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"

	"github.com/jaycherian/gcp-go-media-digest/internal/core/model"
)

// headerSize is enough bytes for filetype to recognise any supported format.
const headerSize = 262

// DetectAsset sniffs the file header to tell audio from video. Files that
// cannot be recognised keep the fallback kind and get their MIME type from
// the extension, if any.
func DetectAsset(path string, fallback model.MediaKind) (*model.MediaAsset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	head := make([]byte, headerSize)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	head = head[:n]

	asset := &model.MediaAsset{Path: path, Kind: fallback}
	switch {
	case filetype.IsVideo(head):
		asset.Kind = model.MediaKindVideo
	case filetype.IsAudio(head):
		asset.Kind = model.MediaKindAudio
	}

	if kind, err := filetype.Match(head); err == nil && kind != filetype.Unknown {
		asset.MIMEType = kind.MIME.Value
	} else if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext != "" {
		if t := filetype.GetType(ext); t != filetype.Unknown {
			asset.MIMEType = t.MIME.Value
		}
	}
	return asset, nil
}
