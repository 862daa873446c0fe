package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"cand-go/internal/cand"
	"cand-go/internal/config"
)

// s3API is the subset of the S3 client used by S3Store.
type s3API interface {
	manager.UploadAPIClient
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store keeps candidate documents as objects under
// <prefix>documentos/<candidateID>/<documentType>.<ext>.
// S3 has no folders, so EnsureFolder only computes the key prefix.
type S3Store struct {
	client   s3API
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// NewS3Store creates an S3-backed document store from configuration.
// Static credentials are used when an access key is configured; otherwise the
// default AWS credential chain applies.
func NewS3Store(ctx context.Context, cfg config.DocumentsConfig) (*S3Store, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("s3 documents require s3_bucket to be set")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.S3Region))
	}
	if cfg.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3StoreWithClient(client, cfg.S3Bucket, cfg.S3Prefix), nil
}

func newS3StoreWithClient(client s3API, bucket, prefix string) *S3Store {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3Store{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		prefix:   prefix,
	}
}

func (s *S3Store) folderKey(candidateID string) (string, error) {
	if err := cand.ValidatePathSegment(candidateID); err != nil {
		return "", err
	}
	return s.prefix + folderName + "/" + candidateID + "/", nil
}

func (s *S3Store) objectKey(candidateID, fileName string) (string, error) {
	dir, err := s.folderKey(candidateID)
	if err != nil {
		return "", err
	}
	if err := cand.ValidatePathSegment(fileName); err != nil {
		return "", err
	}
	return dir + fileName, nil
}

func (s *S3Store) EnsureFolder(candidateID string) (string, error) {
	dir, err := s.folderKey(candidateID)
	if err != nil {
		return "", err
	}
	return "s3://" + s.bucket + "/" + dir, nil
}

func (s *S3Store) Store(candidateID, key string, r io.Reader, size int64, ext string) (string, error) {
	objKey, err := s.objectKey(candidateID, key+"."+ext)
	if err != nil {
		return "", err
	}

	counter := &countingReader{r: r}
	_, err = s.uploader.Upload(context.Background(), &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objKey),
		Body:   counter,
	})
	if err != nil {
		return "", &cand.FilesystemError{Op: "upload", Path: objKey, Err: err}
	}
	if counter.n != size {
		// The upload already landed; remove it so a short read leaves nothing behind.
		_, _ = s.client.DeleteObject(context.Background(), &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(objKey),
		})
		return "", &cand.FilesystemError{
			Op:   "upload",
			Path: objKey,
			Err:  fmt.Errorf("size mismatch: expected %d bytes, got %d", size, counter.n),
		}
	}
	return "s3://" + s.bucket + "/" + objKey, nil
}

// List returns object names under the candidate's prefix in key order.
func (s *S3Store) List(candidateID string) ([]string, error) {
	dir, err := s.folderKey(candidateID)
	if err != nil {
		return nil, err
	}

	names := []string{}
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(dir),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(context.Background())
		if err != nil {
			return nil, &cand.FilesystemError{Op: "list", Path: dir, Err: err}
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), dir)
			if name == "" || strings.Contains(name, "/") {
				continue
			}
			names = append(names, name)
		}
	}
	return names, nil
}

func (s *S3Store) Open(candidateID, fileName string, w io.Writer) error {
	objKey, err := s.objectKey(candidateID, fileName)
	if err != nil {
		return err
	}

	out, err := s.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objKey),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return &cand.NotFoundError{Resource: "document", ID: candidateID + "/" + fileName}
		}
		return &cand.FilesystemError{Op: "download", Path: objKey, Err: err}
	}
	defer out.Body.Close()

	if _, err := io.Copy(w, out.Body); err != nil {
		return &cand.FilesystemError{Op: "download", Path: objKey, Err: err}
	}
	return nil
}

// Delete checks the object exists first since DeleteObject succeeds on missing keys.
func (s *S3Store) Delete(candidateID, fileName string) error {
	objKey, err := s.objectKey(candidateID, fileName)
	if err != nil {
		return err
	}

	_, err = s.client.HeadObject(context.Background(), &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objKey),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return &cand.NotFoundError{Resource: "document", ID: candidateID + "/" + fileName}
		}
		return &cand.FilesystemError{Op: "delete", Path: objKey, Err: err}
	}

	if _, err := s.client.DeleteObject(context.Background(), &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objKey),
	}); err != nil {
		return &cand.FilesystemError{Op: "delete", Path: objKey, Err: err}
	}
	return nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

var _ cand.DocumentStore = (*S3Store)(nil)
