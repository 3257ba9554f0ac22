// Package media signe les URLs des images produit stockées dans MinIO.
package media

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
)

const DefaultURLTTL = time.Hour

// Presigner est satisfait par *minio.Client.
type Presigner interface {
	PresignedGetObject(ctx context.Context, bucket, object string, expiry time.Duration, reqParams url.Values) (*url.URL, error)
}

var _ Presigner = (*minio.Client)(nil)

type Signer struct {
	client Presigner
	bucket string
	ttl    time.Duration
	// publicBase : préfixe des URLs publiques historiques du bucket.
	publicBase string
}

func NewSigner(client Presigner, bucket, publicBase string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = DefaultURLTTL
	}
	return &Signer{client: client, bucket: bucket, ttl: ttl, publicBase: strings.TrimSuffix(publicBase, "/") + "/"}
}

// SignURL retourne une URL signée pour une clé du bucket. Les chemins locaux
// ("/images/...") et les URLs externes sont renvoyés tels quels.
func (s *Signer) SignURL(ctx context.Context, key string) (string, error) {
	if s.publicBase != "/" {
		key = strings.TrimPrefix(key, s.publicBase)
	}
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "://") {
		return key, nil
	}

	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.ttl, make(url.Values))
	if err != nil {
		return "", err
	}
	return u.String(), nil
}
