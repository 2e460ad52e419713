// Package objectstore uploads avatar images to object storage and returns
// their public URLs.
package objectstore

import (
	"context"
	"io"
	"path"
	"strings"
)

// UploadOptions places an object. Uploading again with the same Folder and
// SlotID replaces the previous object.
type UploadOptions struct {
	SlotID      string
	Folder      string
	ContentType string
}

// UploadResult identifies a stored object. StorageID is "<folder>/<slot>".
type UploadResult struct {
	StorageID string
	URL       string
}

type Store interface {
	Upload(ctx context.Context, r io.Reader, opts UploadOptions) (*UploadResult, error)
}

// StorageID joins folder and slot the way Upload reports them.
func StorageID(folder, slot string) string {
	if folder == "" {
		return slot
	}
	return path.Join(folder, slot)
}

// SlotFromStorageID strips the folder prefix, returning the bare slot id.
func SlotFromStorageID(storageID, folder string) string {
	if folder == "" {
		return storageID
	}
	return strings.TrimPrefix(storageID, strings.TrimSuffix(folder, "/")+"/")
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	default:
		return ""
	}
}
