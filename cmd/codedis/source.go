package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/risor-io/codedis/bytecode"
	"github.com/spf13/cobra"
)

const s3Scheme = "s3://"

// objectGetter is the part of the S3 client used to fetch images.
type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// newObjectGetter creates the S3 client. Replaced in tests.
var newObjectGetter = func(ctx context.Context, a *app) (objectGetter, error) {
	var opts []func(*config.LoadOptions) error
	if region := a.v.GetString("aws.region"); region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	if profile := a.v.GetString("aws.profile"); profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	keyID := a.v.GetString("aws.access-key-id")
	secret := a.v.GetString("aws.secret-access-key")
	if keyID != "" && secret != "" {
		provider := credentials.NewStaticCredentialsProvider(keyID, secret, a.v.GetString("aws.session-token"))
		opts = append(opts, config.WithCredentialsProvider(provider))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	endpoint := a.v.GetString("aws.endpoint")
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.EndpointResolver = s3.EndpointResolverFromURL(endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// readImage returns the raw image named by the command line: a file path,
// "-" or --stdin for standard input, or an s3://bucket/key URL.
func (a *app) readImage(cmd *cobra.Command, args []string, stdin bool) ([]byte, error) {
	var location string
	if len(args) > 0 {
		location = args[0]
	}
	switch {
	case stdin && location != "" && location != "-":
		return nil, errors.New("multiple input sources specified")
	case stdin || location == "-":
		a.logger.Debug().Msg("reading image from stdin")
		return io.ReadAll(cmd.InOrStdin())
	case location == "":
		return nil, errors.New("no input provided")
	case strings.HasPrefix(location, s3Scheme):
		return a.readS3(cmd.Context(), location)
	default:
		a.logger.Debug().Str("path", location).Msg("reading image file")
		return os.ReadFile(location)
	}
}

func (a *app) readS3(ctx context.Context, location string) ([]byte, error) {
	bucket, key, ok := strings.Cut(strings.TrimPrefix(location, s3Scheme), "/")
	if !ok || bucket == "" || key == "" {
		return nil, fmt.Errorf("invalid s3 location %q: expected s3://bucket/key", location)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := newObjectGetter(ctx, a)
	if err != nil {
		return nil, err
	}
	a.logger.Debug().Str("bucket", bucket).Str("key", key).Msg("fetching image from s3")
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", location, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// loadCode reads and decodes the image named by the command line.
func (a *app) loadCode(cmd *cobra.Command, args []string, stdin bool) (*bytecode.Code, error) {
	data, err := a.readImage(cmd, args, stdin)
	if err != nil {
		return nil, err
	}
	code, err := bytecode.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return code, nil
}
