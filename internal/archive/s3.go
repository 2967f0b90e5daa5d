package archive

import (
	"bytes"
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rmacedo/quill/internal/model"
)

// S3Archiver writes archived posts into an S3-compatible bucket.
type S3Archiver struct {
	client *s3.Client
	bucket string
}

func NewS3Archiver(accessKeyID, accessKeySecret, baseEndpoint, bucket string) (*S3Archiver, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, accessKeySecret, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if baseEndpoint != "" {
			o.BaseEndpoint = aws.String(baseEndpoint)
		}
	})

	return &S3Archiver{
		client: client,
		bucket: bucket,
	}, nil
}

func (a *S3Archiver) ArchivePost(ctx context.Context, post *model.Post) {
	key := objectKey(post.Slug)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(render(post)),
		ContentType: aws.String("text/markdown"),
	})
	if err != nil {
		archiveLogger.Error().Err(err).Str("slug", post.Slug).Msg("Error archiving post to S3")
		return
	}
	archiveLogger.Debug().Str("slug", post.Slug).Str("bucket", a.bucket).Msg("Post archived to S3")
}

func (a *S3Archiver) RemovePost(ctx context.Context, slug string) {
	_, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(objectKey(slug)),
	})
	if err != nil {
		archiveLogger.Error().Err(err).Str("slug", slug).Msg("Error removing archived post from S3")
	}
}
