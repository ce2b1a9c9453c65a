package storage

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/casconsole/internal/client/models"
	"github.com/dmitrijs2005/casconsole/internal/common"
	"github.com/dmitrijs2005/casconsole/internal/netx"
)

// SASStore PUTs each file straight to {base}/{path}{suffix}, where suffix
// carries a shared access signature.
type SASStore struct {
	client *http.Client
	base   string
	suffix string
}

func NewSASStore(client *http.Client, base, suffix string) (*SASStore, error) {
	if base == "" {
		return nil, errors.New("storage base URL is required")
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &SASStore{client: client, base: strings.TrimSuffix(base, "/"), suffix: suffix}, nil
}

func (s *SASStore) objectURL(path string) string {
	segs := strings.Split(path, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return s.base + "/" + strings.Join(segs, "/") + s.suffix
}

func (s *SASStore) Put(ctx context.Context, path string, file models.StagedFile) error {
	body, err := file.Open()
	if err != nil {
		return err
	}
	defer body.Close()

	headers := map[string]string{
		common.BlobTypeHeaderName: common.BlobTypeBlock,
		"Content-Type":            common.ContentTypeOrDefault(file.ContentType),
	}

	err = netx.Put(ctx, s.client, s.objectURL(path), body, file.Size, headers)

	var se *netx.StatusError
	if errors.As(err, &se) {
		te := newTransportError("Azure", path, se.Code, se)
		te.StatusText = se.StatusText
		return te
	}
	return err
}
