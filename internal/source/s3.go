package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dmitrijs2005/pixels/internal/common"
)

// S3Options configures access to an S3-compatible backend.
type S3Options struct {
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
	UsePathStyle bool
	Anonymous    bool
}

// s3API is the subset of *s3.Client used here.
type s3API interface {
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) s3API {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// S3Source lists and reads objects from S3.
type S3Source struct {
	client s3API
}

// NewS3Source builds an S3 client. Static keys are used when set, anonymous
// access when requested, and the AWS default credential chain otherwise.
func NewS3Source(ctx context.Context, opts S3Options) (*S3Source, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(opts.Region),
	}
	switch {
	case opts.Anonymous:
		loadOpts = append(loadOpts, config.WithCredentialsProvider(aws.AnonymousCredentials{}))
	case opts.AccessKey != "":
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}

	cfg, err := loadDefaultAWSConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if opts.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(opts.BaseEndpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})

	return &S3Source{client: client}, nil
}

func (s *S3Source) List(ctx context.Context, loc Location, recursive bool) ([]FileInfo, error) {
	if loc.Kind != KindS3 {
		return nil, fmt.Errorf("not an s3 location %q: %w", loc, common.ErrInvalidLocation)
	}

	prefix := loc.Key
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	in := &s3.ListObjectsV2Input{
		Bucket: aws.String(loc.Bucket),
		Prefix: aws.String(prefix),
	}
	if !recursive {
		in.Delimiter = aws.String("/")
	}

	var result []FileInfo

	p := s3.NewListObjectsV2Paginator(s.client, in)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list s3://%s/%s: %w", loc.Bucket, prefix, err)
		}

		for _, cp := range page.CommonPrefixes {
			key := aws.ToString(cp.Prefix)
			name := path.Base(strings.TrimSuffix(key, "/"))
			if isHidden(name) {
				continue
			}
			result = append(result, FileInfo{
				Path:  "s3://" + loc.Bucket + "/" + key,
				Name:  name + "/",
				IsDir: true,
			})
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, "/") {
				continue
			}
			name := path.Base(key)
			if isHidden(name) {
				continue
			}
			result = append(result, FileInfo{
				Path:    "s3://" + loc.Bucket + "/" + key,
				Name:    name,
				Size:    aws.ToInt64(obj.Size),
				ModTime: aws.ToTime(obj.LastModified).UTC(),
			})
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Path < result[j].Path })
	return result, nil
}

func (s *S3Source) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	loc, err := ParseLocation(p)
	if err != nil {
		return nil, err
	}
	if loc.Kind != KindS3 || loc.Key == "" {
		return nil, fmt.Errorf("not an s3 object %q: %w", p, common.ErrInvalidLocation)
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", p, err)
	}
	if out.Body == nil {
		return nil, errors.New("empty s3 response body")
	}
	return out.Body, nil
}
