// Package storage keeps allocation evidence files in a GridFS bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	BucketName     = "evidence"
	DownloadPrefix = "/api/evidence/"
)

var ErrNotFound = errors.New("evidence not found")

// EvidenceStore persists uploaded evidence and hands back a retrieval URL.
type EvidenceStore interface {
	Put(ctx context.Context, folder, filename string, r io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
	Open(ctx context.Context, id string) (*Object, error)
}

// Object is an open evidence file. Callers must Close it.
type Object struct {
	io.ReadCloser
	Name        string
	ContentType string
	Size        int64
}

type gridFSStore struct {
	db      *mongo.Database
	baseURL string
}

func NewGridFSStore(db *mongo.Database, publicBaseURL string) EvidenceStore {
	return &gridFSStore{db: db, baseURL: strings.TrimRight(publicBaseURL, "/")}
}

// bucket is built per call: GridFS deadlines live on the bucket, not on a context.
func (s *gridFSStore) bucket(ctx context.Context, write bool) (*gridfs.Bucket, error) {
	b, err := gridfs.NewBucket(s.db, options.GridFSBucket().SetName(BucketName))
	if err != nil {
		return nil, fmt.Errorf("gridfs bucket: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		if write {
			err = b.SetWriteDeadline(deadline)
		} else {
			err = b.SetReadDeadline(deadline)
		}
		if err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (s *gridFSStore) Put(ctx context.Context, folder, filename string, r io.Reader) (string, error) {
	b, err := s.bucket(ctx, true)
	if err != nil {
		return "", err
	}
	name := path.Join(folder, path.Base(filename))
	opts := options.GridFSUpload().SetMetadata(bson.D{
		{Key: "folder", Value: folder},
		{Key: "originalName", Value: filename},
	})
	id, err := b.UploadFromStream(name, r, opts)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	return s.URLFor(id.Hex()), nil
}

// URLFor returns the download URL for a stored file id.
func (s *gridFSStore) URLFor(id string) string {
	return s.baseURL + DownloadPrefix + id
}

func (s *gridFSStore) Delete(ctx context.Context, url string) error {
	oid, err := IDFromURL(url)
	if err != nil {
		return err
	}
	b, err := s.bucket(ctx, true)
	if err != nil {
		return err
	}
	if err := b.Delete(oid); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil
		}
		return fmt.Errorf("delete evidence %s: %w", oid.Hex(), err)
	}
	return nil
}

func (s *gridFSStore) Open(ctx context.Context, id string) (*Object, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	b, err := s.bucket(ctx, false)
	if err != nil {
		return nil, err
	}
	stream, err := b.OpenDownloadStream(oid)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("open evidence %s: %w", id, err)
	}

	f := stream.GetFile()
	contentType := mime.TypeByExtension(path.Ext(f.Name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &Object{ReadCloser: stream, Name: path.Base(f.Name), ContentType: contentType, Size: f.Length}, nil
}

// IDFromURL extracts the GridFS file id from a retrieval URL produced by Put.
func IDFromURL(url string) (primitive.ObjectID, error) {
	i := strings.LastIndex(url, DownloadPrefix)
	if i < 0 {
		return primitive.NilObjectID, fmt.Errorf("%w: %q is not an evidence url", ErrNotFound, url)
	}
	oid, err := primitive.ObjectIDFromHex(strings.Trim(url[i+len(DownloadPrefix):], "/"))
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrNotFound, url)
	}
	return oid, nil
}
