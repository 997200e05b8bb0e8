package allowancecache

import (
	"bytes"
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// RemoteMirror is an opt-in, best-effort backup path for a profile's cache
// bytes: never consulted for reads during a discover() run, only written
// to after a successful WriteChain so a lost local profile can be
// recovered out of band. An error from MirrorChain never aborts a scan:
// Store.WriteChain discards it without logging.
type RemoteMirror interface {
	MirrorChain(ctx context.Context, chainID string, raw []byte) error
}

// S3Mirror writes the cache snapshot to one object per chain in an S3
// bucket, reusing the aws-sdk-go-v2 credential chain the teacher already
// depends on for its infra tooling.
type S3Mirror struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Mirror builds a mirror against an already-configured s3.Client.
func NewS3Mirror(client *s3.Client, bucket, prefix string) *S3Mirror {
	return &S3Mirror{client: client, bucket: bucket, prefix: prefix}
}

func (m *S3Mirror) MirrorChain(ctx context.Context, chainID string, raw []byte) error {
	key := fmt.Sprintf("%sallowances/%s.json", m.prefix, chainID)
	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(raw),
	})
	if err != nil {
		return fmt.Errorf("allowancecache: S3Mirror.MirrorChain: %w", err)
	}
	return nil
}

// AzureBlobMirror writes the cache snapshot to one blob per chain using
// the azblob service client directly.
type AzureBlobMirror struct {
	client    *azblob.Client
	container string
	prefix    string
}

// NewAzureBlobMirror builds a mirror against an already-configured azblob
// service client.
func NewAzureBlobMirror(client *azblob.Client, container, prefix string) *AzureBlobMirror {
	return &AzureBlobMirror{client: client, container: container, prefix: prefix}
}

func (m *AzureBlobMirror) MirrorChain(ctx context.Context, chainID string, raw []byte) error {
	name := fmt.Sprintf("%sallowances/%s.json", m.prefix, chainID)
	_, err := m.client.UploadBuffer(ctx, m.container, name, raw, nil)
	if err != nil {
		return fmt.Errorf("allowancecache: AzureBlobMirror.MirrorChain: %w", err)
	}
	return nil
}
