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

package commands

import (
	"github.com/jaycherian/gcp-go-media-digest/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-digest/internal/core/model"
	"github.com/jaycherian/gcp-go-media-digest/internal/media"
)

// VideoAcquire downloads the requested video into the video download path.
// Requests marked audio only fetch just the audio stream, which the
// extraction stage then passes through.
type VideoAcquire struct {
	cor.BaseCommand
	downloader media.Downloader
	outputDir  string
}

func NewVideoAcquire(name string, downloader media.Downloader, outputDir string) *VideoAcquire {
	out := &VideoAcquire{
		BaseCommand: *cor.NewStageCommand(name, model.StageAcquiring),
		downloader:  downloader,
		outputDir:   outputDir,
	}
	out.InputParamName = ParamRequest
	out.OutputParamName = ParamVideo
	return out
}

func (c *VideoAcquire) Execute(context cor.Context) {
	req := context.Get(c.GetInputParam()).(*model.DigestRequest)

	fetch := c.downloader.Fetch
	if req.AudioOnly {
		fetch = c.downloader.FetchAudio
	}
	asset, title, err := fetch(context.GetContext(), req.URL, c.outputDir, "")
	if err != nil {
		c.Fail(context, err)
		return
	}

	c.Succeed(context)
	context.Add(ParamTitle, title)
	context.Add(c.GetOutputParam(), asset)
	context.Add(cor.CtxOut, asset)
}
