package blob

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	azb "github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
)

// AzureStore stores objects in an Azure Blob container.
type AzureStore struct {
	client    *azblob.Client
	container string
}

// NewAzureStore connects with a storage-account connection string.
func NewAzureStore(connectionString, container string) (*AzureStore, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("azure blob client: %w", err)
	}
	return &AzureStore{client: client, container: container}, nil
}

func (s *AzureStore) Container() string { return s.container }

func (s *AzureStore) Put(ctx context.Context, key string, body io.Reader, _ int64, contentType string) (string, error) {
	opts := &azblob.UploadStreamOptions{}
	if contentType != "" {
		opts.HTTPHeaders = &azb.HTTPHeaders{BlobContentType: &contentType}
	}
	if _, err := s.client.UploadStream(ctx, s.container, key, body, opts); err != nil {
		return "", fmt.Errorf("azure upload %s: %w", key, err)
	}
	return s.blobURL(key), nil
}

func (s *AzureStore) Delete(ctx context.Context, key string) error {
	if _, err := s.client.DeleteBlob(ctx, s.container, key, nil); err != nil {
		return fmt.Errorf("azure delete %s: %w", key, err)
	}
	return nil
}

// KeyFromURL takes everything after "<container>/" in the URL path.
func (s *AzureStore) KeyFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	marker := "/" + s.container + "/"
	i := strings.Index(u.Path, marker)
	if i < 0 {
		return "", ErrForeignURL
	}
	key := u.Path[i+len(marker):]
	if key == "" {
		return "", ErrForeignURL
	}
	return key, nil
}

func (s *AzureStore) blobURL(key string) string {
	return strings.TrimRight(s.client.URL(), "/") + "/" + s.container + "/" + key
}
