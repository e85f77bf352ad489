package supabase

import (
	"bytes"
	"context"
	"net/http"
)

// Storage implementa repository.BlobStore sobre el servicio de storage,
// con el bucket fijado en la construcción.
type Storage struct {
	c      *Client
	bucket string
}

// NewStorage crea el adapter de blobs para un bucket.
func NewStorage(c *Client, bucket string) *Storage {
	return &Storage{c: c, bucket: bucket}
}

func (s *Storage) objectPath(path string) string {
	return "/storage/v1/object/" + s.bucket + "/" + path
}

// Upload sube el objeto con upsert (pisa versiones previas del path).
func (s *Storage) Upload(ctx context.Context, path string, data []byte, contentType string) error {
	req, err := s.c.newRequest(ctx, http.MethodPost, s.objectPath(path), bytes.NewReader(data))
	if err != nil {
		return err
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")

	resp, err := s.c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readAPIError(resp)
	}
	return nil
}

// PublicURL arma la URL pública del objeto. No valida existencia.
func (s *Storage) PublicURL(path string) string {
	return s.c.baseURL + "/storage/v1/object/public/" + s.bucket + "/" + path
}

// Remove borra el objeto (compensación del upload).
func (s *Storage) Remove(ctx context.Context, path string) error {
	return s.c.doJSON(ctx, http.MethodDelete, s.objectPath(path), nil, nil, nil)
}
