package storage

import (
	"context"
	"errors"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"

	"github.com/dmitrijs2005/casconsole/internal/client/models"
	"github.com/dmitrijs2005/casconsole/internal/common"
)

// AzureBlobStore uploads block blobs through the Azure SDK, authorised by a
// SAS token embedded in the service URL.
type AzureBlobStore struct {
	client    *azblob.Client
	container string
}

// NewAzureBlobStore builds a store for serviceURL (with SAS query). SDK
// retries are disabled.
func NewAzureBlobStore(serviceURL, container string, httpClient *http.Client) (*AzureBlobStore, error) {
	if serviceURL == "" || container == "" {
		return nil, errors.New("azure service URL and container are required")
	}

	opts := &azblob.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{MaxRetries: -1},
		},
	}
	if httpClient != nil {
		opts.Transport = httpClient
	}

	client, err := azblob.NewClientWithNoCredential(serviceURL, opts)
	if err != nil {
		return nil, err
	}
	return &AzureBlobStore{client: client, container: container}, nil
}

func (a *AzureBlobStore) Put(ctx context.Context, path string, file models.StagedFile) error {
	body, err := file.Open()
	if err != nil {
		return err
	}
	defer body.Close()

	ct := common.ContentTypeOrDefault(file.ContentType)
	_, err = a.client.UploadStream(ctx, a.container, path, body, &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &ct},
	})

	var re *azcore.ResponseError
	if errors.As(err, &re) {
		return newTransportError("Azure", path, re.StatusCode, err)
	}
	return err
}
