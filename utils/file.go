package utils

import (
	"context"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
)

// LocalStore keeps proof files on disk. It is used when no R2 bucket is configured;
// the files are served back under URLPrefix.
type LocalStore struct {
	Dir       string
	URLPrefix string
}

func NewLocalStore(dir, urlPrefix string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, err
	}
	return &LocalStore{Dir: dir, URLPrefix: urlPrefix}, nil
}

func (s *LocalStore) BaseURL() string { return s.URLPrefix }

func (s *LocalStore) PutProof(_ context.Context, prefix string, fileHeader *multipart.FileHeader) (string, error) {
	key := ProofKey(prefix, fileHeader.Filename)
	if err := SaveFile(fileHeader, filepath.Join(s.Dir, filepath.FromSlash(key))); err != nil {
		return "", err
	}
	return s.URLPrefix + "/" + key, nil
}

// SaveFile saves the uploaded file to the given destination path
func SaveFile(fileHeader *multipart.FileHeader, destPath string) error {
	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, file)
	return err
}
