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

// Package cloud holds the configuration model and the Google Cloud plumbing of
// the transformation service. This file defines PubSubListener, which turns
// messages of a Pub/Sub subscription into executions of a cor.Command.
//
// Logic Flow:
//  1. Receive blocks on the subscription until the context is canceled.
//  2. Each message gets its own span and its own cor.BaseContext, with the
//     message data as a string in cor.CtxIn.
//  3. The command runs. A message is acked only if the context holds no
//     errors afterwards; otherwise it is nacked and Pub/Sub redelivers it
//     according to the subscription's retry and dead-letter policy.
package cloud

import (
	"context"
	"log/slog"

	"cloud.google.com/go/pubsub"
	"github.com/jaycherian/gcp-go-media-transform/internal/core/cor"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// PubSubListener connects a subscription to a command.
type PubSubListener struct {
	client       *pubsub.Client       // The client for interacting with the Pub/Sub service.
	subscription *pubsub.Subscription // The subscription messages are pulled from.
	command      cor.Command          // The command executed for each message.
}

// NewPubSubListener creates a listener for subscriptionID. command may be nil
// and set later with SetCommand.
func NewPubSubListener(pubsubClient *pubsub.Client, subscriptionID string, command cor.Command) *PubSubListener {
	return &PubSubListener{
		client:       pubsubClient,
		subscription: pubsubClient.Subscription(subscriptionID),
		command:      command,
	}
}

// SetCommand attaches the command if none is attached yet.
func (m *PubSubListener) SetCommand(command cor.Command) {
	if m.command == nil {
		m.command = command
	}
}

// Handle executes the listener's command for one message payload and reports
// whether the message should be acked.
func (m *PubSubListener) Handle(ctx context.Context, data []byte) bool {
	tracer := otel.Tracer("message-listener")
	spanCtx, span := tracer.Start(ctx, "receive-message")
	defer span.End()
	span.SetAttributes(attribute.String("msg", string(data)))

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(spanCtx)
	chainCtx.Add(cor.CtxIn, string(data))

	m.command.Execute(chainCtx)

	if chainCtx.HasErrors() {
		span.SetStatus(codes.Error, "failed")
		for name, e := range chainCtx.GetErrors() {
			slog.ErrorContext(spanCtx, "error executing chain", "command", name, "error", e)
		}
		return false
	}
	span.SetStatus(codes.Ok, "success")
	return true
}

// Receive pulls messages until ctx is canceled or the subscription fails.
func (m *PubSubListener) Receive(ctx context.Context) error {
	slog.Info("listening", "subscription", m.subscription.String())
	return m.subscription.Receive(ctx, func(_ context.Context, msg *pubsub.Message) {
		slog.Info("received message", "id", msg.ID)
		if m.Handle(ctx, msg.Data) {
			msg.Ack()
		} else {
			msg.Nack()
		}
	})
}

// Listen runs Receive in the background, logging its final error.
func (m *PubSubListener) Listen(ctx context.Context) {
	go func() {
		if err := m.Receive(ctx); err != nil {
			slog.Error("error receiving data", "subscription", m.subscription.String(), "error", err)
		}
	}()
}
