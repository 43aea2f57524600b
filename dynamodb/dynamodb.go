package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// Options locates the movie store. Endpoint is set for dynamodb-local;
// static keys are optional and fall back to the default AWS chain.
type Options struct {
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	SessionToken string
}

func (o Options) loadOptions() ([]func(*awscfg.LoadOptions) error, error) {
	region := strings.TrimSpace(o.Region)
	if region == "" {
		return nil, errors.New("dynamodb: region is required")
	}
	loadOpts := []func(*awscfg.LoadOptions) error{awscfg.WithRegion(region)}

	if o.AccessKey == "" && o.SecretKey == "" && o.SessionToken == "" {
		return loadOpts, nil
	}
	if o.AccessKey == "" || o.SecretKey == "" {
		return nil, errors.New("dynamodb: access key and secret key must be set together")
	}
	provider := credentials.NewStaticCredentialsProvider(o.AccessKey, o.SecretKey, o.SessionToken)
	return append(loadOpts, awscfg.WithCredentialsProvider(provider)), nil
}

// NewClient builds a client for the movie store from opts.
func NewClient(ctx context.Context, opts Options) (*dynamodb.Client, error) {
	loadOpts, err := opts.loadOptions()
	if err != nil {
		return nil, err
	}

	cfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("dynamodb: load aws config: %w", err)
	}

	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	}), nil
}
