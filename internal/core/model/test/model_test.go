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

// Package model_test contains unit tests for the pipeline data contracts and
// the error taxonomy.
package model_test

import (
	"errors"
	"io/fs"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jaycherian/gcp-go-media-digest/internal/core/model"
	"github.com/stretchr/testify/assert"
)

func TestNewRunOutput(t *testing.T) {
	now := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	out := model.NewRunOutput("https://example.com/v", now)

	expectedID := uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://example.com/v@20240309_140507"))
	assert.Equal(t, expectedID.String(), out.RunID)
	assert.Equal(t, "20240309_140507", out.Timestamp)
	assert.Len(t, out.Timestamp, 15)
	assert.Equal(t, now, out.CreateDate)
	assert.Equal(t, 0, len(out.Stages))

	out.SetTimestamp("20240309_140507_2")
	assert.Equal(t, "20240309_140507_2", out.Timestamp)
	assert.NotEqual(t, expectedID.String(), out.RunID)
}

func TestErrorKinds(t *testing.T) {
	cause := fs.ErrNotExist
	err := model.NotFoundError("audio.prepare", cause, "file %s does not exist", "a.mp3")

	assert.True(t, errors.Is(err, model.ErrNotFound))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.False(t, errors.Is(err, model.ErrInvalidInput))
	assert.Equal(t, "audio.prepare: file a.mp3 does not exist: file does not exist", err.Error())

	var typed *model.Error
	assert.True(t, errors.As(err, &typed))
	assert.Equal(t, "audio.prepare", typed.Op)
}

func TestKindOf(t *testing.T) {
	assert.Nil(t, model.KindOf(nil))
	assert.Equal(t, model.ErrInvalidInput, model.KindOf(model.InvalidInputError("x", "empty")))
	assert.Equal(t, model.ErrRecognition, model.KindOf(model.RecognitionError("x", nil, "bad")))
	assert.Equal(t, model.ErrAcquisition, model.KindOf(model.AcquisitionError("x", nil, "bad")))
	assert.Equal(t, model.ErrUnexpected, model.KindOf(errors.New("boom")))

	wrapped := errors.Join(errors.New("context"), model.NotFoundError("x", nil, "gone"))
	assert.Equal(t, model.ErrNotFound, model.KindOf(wrapped))
}

func TestDigestRequestValidate(t *testing.T) {
	req := &model.DigestRequest{URL: "  https://example.com/v ", TargetLanguage: " ES "}
	req.Normalize()
	assert.NoError(t, req.Validate())
	assert.Equal(t, "https://example.com/v", req.URL)
	assert.Equal(t, "es", req.TargetLanguage)

	req = &model.DigestRequest{URL: "https://example.com/v"}
	req.Normalize()
	assert.Equal(t, model.DefaultTargetLanguage, req.TargetLanguage)

	req = &model.DigestRequest{}
	req.Normalize()
	assert.ErrorIs(t, req.Validate(), model.ErrInvalidInput)

	req = &model.DigestRequest{URL: "u", TargetLanguage: "eng"}
	req.Normalize()
	assert.ErrorIs(t, req.Validate(), model.ErrInvalidInput)

	req = &model.DigestRequest{URL: "u", BulletPoints: -1}
	req.Normalize()
	assert.ErrorIs(t, req.Validate(), model.ErrInvalidInput)
}

func TestWaveformDuration(t *testing.T) {
	w := &model.Waveform{Samples: make([]float32, 8000), SampleRate: 16000}
	assert.Equal(t, 500*time.Millisecond, w.Duration())
	assert.Equal(t, time.Duration(0), (&model.Waveform{}).Duration())
}

func TestStageTerminal(t *testing.T) {
	assert.True(t, model.StageDone.IsTerminal())
	assert.True(t, model.StageFailed.IsTerminal())
	assert.False(t, model.StagePersisting.IsTerminal())
	assert.Equal(t, "translation_fr.txt", model.TranslationFileName("fr"))
}
