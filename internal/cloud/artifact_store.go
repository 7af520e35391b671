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
// This file stores run artifacts as Cloud Storage objects.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// GCSArtifactStore writes objects into one bucket under an optional prefix.
type GCSArtifactStore struct {
	client *storage.Client
	bucket string
	prefix string
}

func NewGCSArtifactStore(client *storage.Client, bucket string, prefix string) *GCSArtifactStore {
	return &GCSArtifactStore{client: client, bucket: bucket, prefix: prefix}
}

// Put streams r to gs://bucket/prefix/objectName and returns that URI.
func (s *GCSArtifactStore) Put(ctx context.Context, objectName string, contentType string, r io.Reader) (string, error) {
	obj := &GCSObject{Bucket: s.bucket, Name: ObjectName(s.prefix, objectName), MIMEType: contentType}

	writer := s.client.Bucket(obj.Bucket).Object(obj.Name).NewWriter(ctx)
	writer.ContentType = contentType

	if written, err := io.Copy(writer, r); err != nil {
		_ = writer.Close()
		return "", fmt.Errorf("failed to copy to GCS or partial write: %d total bytes: %w", written, err)
	}
	// the object is only committed on Close
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close GCS writer for %s: %w", obj.URI(), err)
	}
	return obj.URI(), nil
}

// Delete removes the object at a gs:// URI inside the store's bucket. A
// missing object is not an error.
func (s *GCSArtifactStore) Delete(ctx context.Context, uri string) error {
	obj, err := ParseGCSURI(uri)
	if err != nil {
		return err
	}
	if obj.Bucket != s.bucket {
		return fmt.Errorf("object %s is outside bucket %s", uri, s.bucket)
	}
	err = s.client.Bucket(obj.Bucket).Object(obj.Name).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete %s: %w", uri, err)
	}
	return nil
}
