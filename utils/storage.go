package utils

import (
	"fmt"
	"io"
	"path/filepath"

	storage "github.com/supabase-community/storage-go"
)

// FileStorage stores uploaded answer files and returns a public URL.
type FileStorage interface {
	Upload(objectPath string, r io.Reader, contentType string) (string, error)
}

type SupabaseStorage struct {
	client *storage.Client
	bucket string
}

func NewSupabaseStorage(baseURL, key, bucket string) *SupabaseStorage {
	return &SupabaseStorage{
		client: storage.NewClient(baseURL+"/storage/v1", key, nil),
		bucket: bucket,
	}
}

func (s *SupabaseStorage) Upload(objectPath string, r io.Reader, contentType string) (string, error) {
	upsert := true
	options := storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	}
	if _, err := s.client.UploadFile(s.bucket, objectPath, r, options); err != nil {
		return "", fmt.Errorf("upload %s: %w", objectPath, err)
	}
	return s.client.GetPublicUrl(s.bucket, objectPath).SignedURL, nil
}

// ObjectPath builds "<folder>/<fileID><ext>" keeping the original extension.
func ObjectPath(folder, fileID, filename string) string {
	ext := filepath.Ext(filename)
	if folder == "" {
		return fileID + ext
	}
	return fmt.Sprintf("%s/%s%s", folder, fileID, ext)
}
