// Package notification decodes bucket notifications into upload events.
//
// Two payloads are accepted: the S3 event format emitted by AWS S3, MinIO and
// R2 ({"Records":[{"eventName":..., "s3":{...}}]}) and the flat finalize form
// ({"bucket":..., "name":..., "contentType":...}).
package notification

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/muhammadolammi/thumbworker/internal/thumbnail"
)

var ErrEmptyNotification = errors.New("notification carries no object")

type Notification struct {
	// EventName is set by MinIO webhooks and, optionally, on the flat form.
	// Without Records it decides whether the flat object is processed.
	EventName string   `json:"EventName"`
	Records   []Record `json:"Records"`

	Bucket      string `json:"bucket"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
}

type Record struct {
	EventName string   `json:"eventName"`
	S3        S3Entity `json:"s3"`
}

type S3Entity struct {
	Bucket struct {
		Name string `json:"name"`
	} `json:"bucket"`
	Object struct {
		Key         string `json:"key"`
		Size        int64  `json:"size"`
		ContentType string `json:"contentType"`
	} `json:"object"`
}

// Parse returns one upload event per object-created record. Records for other
// event types are dropped, so an empty slice with a nil error is valid.
func Parse(body []byte) ([]thumbnail.UploadEvent, error) {
	var n Notification
	if err := json.Unmarshal(body, &n); err != nil {
		return nil, fmt.Errorf("failed to parse notification: %w", err)
	}

	if len(n.Records) == 0 {
		if !isObjectCreated(n.EventName) {
			return []thumbnail.UploadEvent{}, nil
		}
		if n.Name == "" || n.Bucket == "" {
			return nil, ErrEmptyNotification
		}
		return []thumbnail.UploadEvent{{
			Bucket:      n.Bucket,
			Name:        n.Name,
			ContentType: n.ContentType,
		}}, nil
	}

	events := make([]thumbnail.UploadEvent, 0, len(n.Records))
	for i, rec := range n.Records {
		if !isObjectCreated(rec.EventName) {
			continue
		}
		if rec.S3.Bucket.Name == "" || rec.S3.Object.Key == "" {
			return nil, fmt.Errorf("record %d: %w", i, ErrEmptyNotification)
		}
		// S3 event keys are form-encoded.
		key, err := url.QueryUnescape(rec.S3.Object.Key)
		if err != nil {
			return nil, fmt.Errorf("record %d: invalid object key %q: %w", i, rec.S3.Object.Key, err)
		}
		events = append(events, thumbnail.UploadEvent{
			Bucket:      rec.S3.Bucket.Name,
			Name:        key,
			ContentType: rec.S3.Object.ContentType,
		})
	}
	return events, nil
}

// isObjectCreated accepts "s3:ObjectCreated:Put" (MinIO) as well as
// "ObjectCreated:Put" (AWS).
func isObjectCreated(eventName string) bool {
	return eventName == "" || strings.Contains(eventName, "ObjectCreated")
}
