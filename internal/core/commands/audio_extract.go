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

// AudioExtract writes the audio track of the downloaded video as MP3. An
// asset that already is audio passes through unchanged.
type AudioExtract struct {
	cor.BaseCommand
	extractor media.AudioExtractor
	outputDir string
}

func NewAudioExtract(name string, extractor media.AudioExtractor, outputDir string) *AudioExtract {
	out := &AudioExtract{
		BaseCommand: *cor.NewStageCommand(name, model.StageExtracting),
		extractor:   extractor,
		outputDir:   outputDir,
	}
	out.InputParamName = ParamVideo
	out.OutputParamName = ParamAudio
	return out
}

func (c *AudioExtract) Execute(context cor.Context) {
	video := context.Get(c.GetInputParam()).(*model.MediaAsset)

	audio := video
	if video.Kind != model.MediaKindAudio {
		var err error
		audio, err = c.extractor.ExtractAudio(context.GetContext(), video.Path, c.outputDir, "")
		if err != nil {
			c.Fail(context, err)
			return
		}
	}

	c.Succeed(context)
	context.Add(c.GetOutputParam(), audio)
	context.Add(cor.CtxOut, audio)
}
