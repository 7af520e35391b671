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

// Package media acquires remote videos and extracts their audio track. Both
// operations shell out to external tools (yt-dlp and ffmpeg) through an
// executor.Runner.
package media

import (
	"strings"
	"unicode"
)

// DefaultName replaces titles that sanitize to nothing.
const DefaultName = "video"

// SanitizeFilename makes an untrusted title safe to use as a single path
// component. Letters, digits, spaces, hyphens and underscores are kept and
// everything else is removed.
func SanitizeFilename(title string) string {
	var sb strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			sb.WriteRune(r)
		}
	}
	out := strings.TrimSpace(sb.String())
	if out == "" {
		return DefaultName
	}
	return out
}
