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

package main

import (
	"context"
	"log/slog"
	"time"
)

// SetupListeners binds the digest workflow to every configured subscription
// and starts receiving.
func SetupListeners(ctx context.Context, state *StateManager) {
	for key, listener := range state.cloud.PubSubListeners {
		listener.SetCommand(state.workflow)
		if sub, ok := state.config.TopicSubscriptions[key]; ok {
			if sub.TimeoutInSeconds > 0 {
				listener.SetTimeout(time.Duration(sub.TimeoutInSeconds) * time.Second)
			}
			if sub.DeadLetterTopic != "" {
				if err := listener.EnsureDeadLetter(ctx, sub.DeadLetterTopic, sub.MaxDeliveryAttempts); err != nil {
					slog.Warn("redelivery is unbounded", "key", key, "error", err)
				}
			}
		}
		listener.Listen(ctx)
		slog.Info("listener started", "key", key)
	}
}
