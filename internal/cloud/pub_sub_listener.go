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

// Package cloud holds the Google Cloud clients and helpers of the service.
// This file implements the Pub/Sub listener that turns each message into one
// execution of a cor.Command and decides whether a failed message is
// acknowledged or handed back for redelivery.
//
// Structs:
//   - PubSubListener: Receives from one subscription and runs its command.
//
// Functions:
//   - Redeliverable: The Ack or Nack policy for a failed message.
package cloud

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"cloud.google.com/go/pubsub"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jaycherian/gcp-go-media-digest/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-digest/internal/core/model"
)

// PubSubListener pulls messages from a subscription and runs a command for
// each one. The message body is placed on the chain context under cor.CtxIn.
type PubSubListener struct {
	client       *pubsub.Client
	subscription *pubsub.Subscription
	command      cor.Command
	timeout      time.Duration // Per-message bound, zero for none.
}

func NewPubSubListener(
	pubsubClient *pubsub.Client,
	subscriptionID string,
	command cor.Command,
) *PubSubListener {
	return &PubSubListener{
		client:       pubsubClient,
		subscription: pubsubClient.Subscription(subscriptionID),
		command:      command,
	}
}

// SetCommand assigns the command once; later calls are ignored.
func (m *PubSubListener) SetCommand(command cor.Command) {
	if m.command == nil {
		m.command = command
	}
}

func (m *PubSubListener) SetTimeout(timeout time.Duration) {
	m.timeout = timeout
}

// DefaultMaxDeliveryAttempts is the Pub/Sub minimum for a dead letter policy.
const DefaultMaxDeliveryAttempts = 5

// EnsureDeadLetter points the subscription at a dead letter topic so Nacked
// messages stop after maxAttempts deliveries.
//
// Inputs:
//   - topicID: the dead letter topic in the client's project.
//   - maxAttempts: clamped to the 5 to 100 range Pub/Sub accepts.
//
// Outputs:
//   - an error when the subscription could not be updated.
func (m *PubSubListener) EnsureDeadLetter(ctx context.Context, topicID string, maxAttempts int) error {
	maxAttempts = min(max(maxAttempts, DefaultMaxDeliveryAttempts), 100)
	_, err := m.subscription.Update(ctx, pubsub.SubscriptionConfigToUpdate{
		DeadLetterPolicy: &pubsub.DeadLetterPolicy{
			DeadLetterTopic:     m.client.Topic(topicID).String(),
			MaxDeliveryAttempts: maxAttempts,
		},
	})
	if err != nil {
		return model.UnexpectedError("pubsub.dead_letter", err, "failed to set dead letter topic %s on %s", topicID, m.subscription.ID())
	}
	slog.Info("dead letter policy set", "subscription", m.subscription.ID(), "topic", topicID, "max_attempts", maxAttempts)
	return nil
}

// Listen starts receiving in a background goroutine until ctx is done.
func (m *PubSubListener) Listen(ctx context.Context) {
	slog.Info("listening", "subscription", m.subscription.String())

	go func() {
		tracer := otel.Tracer("message-listener")

		err := m.subscription.Receive(ctx, func(_ context.Context, msg *pubsub.Message) {
			spanCtx, span := tracer.Start(ctx, "receive-message")
			defer span.End()
			span.SetAttributes(attribute.String("msg", string(msg.Data)))

			if m.timeout > 0 {
				var cancel context.CancelFunc
				spanCtx, cancel = context.WithTimeout(spanCtx, m.timeout)
				defer cancel()
			}

			chainCtx := cor.NewBaseContext()
			defer chainCtx.Close()
			chainCtx.SetContext(spanCtx)
			chainCtx.Add(cor.CtxIn, string(msg.Data))

			m.command.Execute(chainCtx)

			if !chainCtx.HasErrors() {
				span.SetStatus(codes.Ok, "success")
				msg.Ack()
				return
			}

			err := chainCtx.Err()
			span.SetStatus(codes.Error, "failed")
			span.RecordError(err)
			slog.ErrorContext(spanCtx, "error executing chain", "id", msg.ID, "attempt", deliveryAttempt(msg), "error", err)
			if Redeliverable(err) {
				msg.Nack()
			} else {
				msg.Ack()
			}
		})

		if err != nil {
			slog.Error("error receiving data", "subscription", m.subscription.String(), "error", err)
		}
	}()
}

// deliveryAttempt is zero when the subscription has no dead letter policy.
func deliveryAttempt(msg *pubsub.Message) int {
	if msg.DeliveryAttempt == nil {
		return 0
	}
	return *msg.DeliveryAttempt
}

// permanent lists the failure kinds that repeat on every delivery of the
// same message. The failed run is already recorded, so the message is
// acknowledged.
var permanent = []error{
	model.ErrInvalidInput,
	model.ErrNotFound,
	model.ErrAcquisition,
	model.ErrRecognition,
}

// Redeliverable reports whether a failed message should be Nacked for
// another delivery. Only unexpected or unclassified errors are retried; the
// subscription's dead letter policy bounds how often.
func Redeliverable(err error) bool {
	for _, kind := range permanent {
		if errors.Is(err, kind) {
			return false
		}
	}
	return true
}
