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
// the transformation service. This file defines ServiceClients, the container
// for every Google Cloud client the service uses.
//
// The transformation runs fine without any cloud access, so a client is only
// created when the configuration asks for the feature that needs it:
//   - Storage: [storage] output_bucket is set.
//   - BigQuery: [big_query_data_source] dataset is set.
//   - Pub/Sub: at least one [topic_subscriptions] entry exists.
package cloud

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// ServiceClients holds the initialized clients. Any of them may be nil.
type ServiceClients struct {
	StorageClient   *storage.Client            // Client for Google Cloud Storage (GCS).
	PubsubClient    *pubsub.Client             // Client for Google Cloud Pub/Sub.
	BigQueryClient  *bigquery.Client           // Client for Google Cloud BigQuery.
	PubSubListeners map[string]*PubSubListener // Listeners keyed by the logical name from the config.
}

// Close releases every client that was created.
func (c *ServiceClients) Close() {
	if c == nil {
		return
	}
	if c.StorageClient != nil {
		_ = c.StorageClient.Close()
	}
	if c.PubsubClient != nil {
		_ = c.PubsubClient.Close()
	}
	if c.BigQueryClient != nil {
		_ = c.BigQueryClient.Close()
	}
}

// ClientOptions returns the options shared by all clients.
func ClientOptions(config *Config) []option.ClientOption {
	opts := make([]option.ClientOption, 0)
	if config.Application.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(config.Application.CredentialsFile))
	}
	return opts
}

// NewCloudServiceClients creates the clients the configuration needs.
//
// Inputs:
//   - ctx: The context for client creation.
//   - config: The application configuration.
//
// Outputs:
//   - *ServiceClients: The clients; never nil when err is nil.
//   - error: The first client creation error.
func NewCloudServiceClients(ctx context.Context, config *Config) (cloud *ServiceClients, err error) {
	opts := ClientOptions(config)
	cloud = &ServiceClients{PubSubListeners: make(map[string]*PubSubListener)}

	if config.HasGCSExport() {
		cloud.StorageClient, err = storage.NewClient(ctx, opts...)
		if err != nil {
			cloud.Close()
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
	}

	if config.HasBigQueryExport() {
		cloud.BigQueryClient, err = bigquery.NewClient(ctx, config.Application.GoogleProjectId, opts...)
		if err != nil {
			cloud.Close()
			return nil, fmt.Errorf("failed to create bigquery client: %w", err)
		}
		if config.Application.GoogleLocation != "" {
			cloud.BigQueryClient.Location = config.Application.GoogleLocation
		}
	}

	if len(config.TopicSubscriptions) > 0 {
		cloud.PubsubClient, err = pubsub.NewClient(ctx, config.Application.GoogleProjectId, opts...)
		if err != nil {
			cloud.Close()
			return nil, fmt.Errorf("failed to create pubsub client: %w", err)
		}
		// The command is attached later, once the workflows are built.
		for subKey, values := range config.TopicSubscriptions {
			cloud.PubSubListeners[subKey] = NewPubSubListener(cloud.PubsubClient, values.Name, nil)
		}
	}

	slog.Info("cloud clients initialized",
		"storage", cloud.StorageClient != nil,
		"bigquery", cloud.BigQueryClient != nil,
		"pubsub", cloud.PubsubClient != nil)
	return cloud, nil
}
