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

package model

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure surfaced by a pipeline stage matches exactly one
// of these through errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrRecognition  = errors.New("recognition failed")
	ErrAcquisition  = errors.New("acquisition failed")
	ErrUnexpected   = errors.New("unexpected failure")
)

// Error is the structured error produced by the pipeline components.
//
// Kind is one of the Err* sentinels above, Op names the failing operation
// (for example "audio.prepare") and Err carries the underlying cause, if any.
type Error struct {
	Kind error
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

// Unwrap exposes both the kind and the cause so that errors.Is matches either.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, op string, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...), Err: cause}
}

// NotFoundError reports a missing input file or resource.
func NotFoundError(op string, cause error, format string, args ...interface{}) *Error {
	return newError(ErrNotFound, op, cause, format, args...)
}

// InvalidInputError reports an empty or invalid argument.
func InvalidInputError(op string, format string, args ...interface{}) *Error {
	return newError(ErrInvalidInput, op, nil, format, args...)
}

// RecognitionError reports a speech model that failed to produce output.
func RecognitionError(op string, cause error, format string, args ...interface{}) *Error {
	return newError(ErrRecognition, op, cause, format, args...)
}

// AcquisitionError reports a failed remote fetch.
func AcquisitionError(op string, cause error, format string, args ...interface{}) *Error {
	return newError(ErrAcquisition, op, cause, format, args...)
}

// UnexpectedError wraps any other collaborator failure.
func UnexpectedError(op string, cause error, format string, args ...interface{}) *Error {
	return newError(ErrUnexpected, op, cause, format, args...)
}

// KindOf returns the kind sentinel of err, or ErrUnexpected when err does not
// carry one of the known kinds. A nil error has no kind.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range []error{ErrNotFound, ErrInvalidInput, ErrRecognition, ErrAcquisition} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return ErrUnexpected
}
