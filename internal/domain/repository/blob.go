package repository

import "context"

// BlobStore es la capability sobre el almacenamiento de binarios
// (avatares). Los paths son relativos al bucket que el adapter tenga
// configurado.
type BlobStore interface {
	// Upload sube el objeto con upsert (pisa si ya existe).
	Upload(ctx context.Context, path string, data []byte, contentType string) error

	// PublicURL arma la URL pública del objeto. No hace red.
	PublicURL(path string) string

	// Remove borra el objeto. Es la acción de compensación del upload.
	Remove(ctx context.Context, path string) error
}
