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
	"encoding/json"
	"log/slog"

	"github.com/jaycherian/gcp-go-media-digest/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-digest/internal/core/model"
)

// DigestRequestReader parses the JSON request found under CtxIn, typically
// the body of a Pub/Sub message, into a validated model.DigestRequest.
type DigestRequestReader struct {
	cor.BaseCommand
}

func NewDigestRequestReader(name string) *DigestRequestReader {
	out := &DigestRequestReader{BaseCommand: *cor.NewBaseCommand(name)}
	out.OutputParamName = ParamRequest
	return out
}

func (c *DigestRequestReader) IsExecutable(context cor.Context) bool {
	if !c.BaseCommand.IsExecutable(context) {
		return false
	}
	_, ok := context.Get(c.GetInputParam()).(string)
	return ok
}

func (c *DigestRequestReader) Execute(context cor.Context) {
	in := context.Get(c.GetInputParam()).(string)

	var req model.DigestRequest
	if err := json.Unmarshal([]byte(in), &req); err != nil {
		c.Fail(context, model.InvalidInputError("request.parse", "failed to unmarshal digest request: %v", err))
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		c.Fail(context, err)
		return
	}

	c.Succeed(context)
	slog.InfoContext(context.GetContext(), "digest request accepted", "url", req.URL, "target_language", req.TargetLanguage)
	context.Add(c.GetOutputParam(), &req)
	context.Add(cor.CtxOut, &req)
}
