package storage

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/transfermanager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"

	"github.com/ZaninAndrea/sixlet/internal/config"
)

func newS3Client(ctx context.Context, cfg config.S3Config) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "load aws config")
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	}), nil
}

func openS3(ctx context.Context, loc Location, cfg config.S3Config) (io.ReadCloser, error) {
	client, err := newS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "get %s", loc)
	}

	return out.Body, nil
}

// s3Writer streams everything written to it into a multipart upload.
type s3Writer struct {
	pw   *io.PipeWriter
	done chan error
}

func createS3(ctx context.Context, loc Location, cfg config.S3Config) (io.WriteCloser, error) {
	client, err := newS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}
	uploader := transfermanager.New(client)

	return newS3Writer(func(body io.Reader) error {
		_, err := uploader.UploadObject(ctx, &transfermanager.UploadObjectInput{
			Bucket: aws.String(loc.Bucket),
			Key:    aws.String(loc.Key),
			Body:   body,
		})
		return errors.Wrapf(err, "upload %s", loc)
	}), nil
}

// newS3Writer runs upload in the background, feeding it everything written
// to the returned writer.
func newS3Writer(upload func(body io.Reader) error) *s3Writer {
	pr, pw := io.Pipe()
	w := &s3Writer{pw: pw, done: make(chan error, 1)}

	go func() {
		err := upload(pr)
		pr.CloseWithError(err)
		w.done <- err
	}()

	return w
}

func (w *s3Writer) Write(p []byte) (int, error) {
	return w.pw.Write(p)
}

// Close ends the body and waits for the upload to complete.
func (w *s3Writer) Close() error {
	w.pw.Close()
	return <-w.done
}

// CloseWithError aborts the upload; the object is not created. It returns
// whatever the upload ended with, so a failed abort is visible to the caller.
func (w *s3Writer) CloseWithError(err error) error {
	w.pw.CloseWithError(err)
	return <-w.done
}
