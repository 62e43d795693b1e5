package imagesource

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

// ObjectStore is the durable, publicly-addressable blob store for ingested
// image bytes. Overwriting an existing path is permitted and expected for
// re-ingestion.
type ObjectStore interface {
	// Put writes data at path with the given content type, publicly
	// readable, and returns the object's public URL.
	Put(ctx context.Context, path string, data []byte, contentType string) (string, error)
}

// RecordStore holds the entity's current public image URL. Writes are
// last-write-wins; implementations fail when the entity record does not
// exist.
type RecordStore interface {
	SetImageURL(ctx context.Context, entityID, publicURL string) error
}

// imageURLField is the record field updated on ingestion.
const imageURLField = "imageUrl"

// GCSObjectStore implements ObjectStore over a Google Cloud Storage bucket.
type GCSObjectStore struct {
	client *storage.Client
	bucket string
}

// NewGCSObjectStore wraps an existing storage client and bucket name.
func NewGCSObjectStore(client *storage.Client, bucket string) *GCSObjectStore {
	return &GCSObjectStore{client: client, bucket: bucket}
}

func (s *GCSObjectStore) Put(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	w := s.client.Bucket(s.bucket).Object(path).NewWriter(ctx)
	w.ContentType = contentType
	w.PredefinedACL = "publicRead"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("gcs write %q: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("gcs write %q: %w", path, err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, path), nil
}

// FirestoreRecordStore implements RecordStore over a Firestore collection
// whose documents are keyed by entity id.
type FirestoreRecordStore struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreRecordStore wraps an existing firestore client and
// collection name.
func NewFirestoreRecordStore(client *firestore.Client, collection string) *FirestoreRecordStore {
	return &FirestoreRecordStore{client: client, collection: collection}
}

// SetImageURL updates the entity document's image URL field. Fails when
// the document does not exist — record creation belongs to the caller.
func (s *FirestoreRecordStore) SetImageURL(ctx context.Context, entityID, publicURL string) error {
	_, err := s.client.Collection(s.collection).Doc(entityID).Update(ctx, []firestore.Update{
		{Path: imageURLField, Value: publicURL},
	})
	if err != nil {
		return fmt.Errorf("firestore update %s/%s: %w", s.collection, entityID, err)
	}
	return nil
}

// NewFirebaseStores bootstraps both ingestion stores from one Firebase app
// using a service-account credentials file.
func NewFirebaseStores(ctx context.Context, credentialsPath, bucket, collection string) (*GCSObjectStore, *FirestoreRecordStore, error) {
	opt := option.WithCredentialsFile(credentialsPath)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	fs, err := app.Firestore(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get firestore client: %w", err)
	}

	gcs, err := storage.NewClient(ctx, opt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get storage client: %w", err)
	}

	return NewGCSObjectStore(gcs, bucket), NewFirestoreRecordStore(fs, collection), nil
}
