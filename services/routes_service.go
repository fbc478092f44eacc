package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gosimple/slug"

	"github.com/runleveling/server/database/models"
)

// RouteArchive stores session GPS traces in a Spaces bucket, keeping the
// progress documents small. Keys are <root>/<device>/<session>.json.
type RouteArchive struct {
	client    *s3.Client
	bucket    string
	region    string
	RouteRoot string
}

func NewRouteArchive(spacesKey, spacesSecret, region, bucket, routeRoot string) *RouteArchive {
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: fmt.Sprintf("https://%s.digitaloceanspaces.com", region),
		}, nil
	})

	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithEndpointResolverWithOptions(resolver),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(spacesKey, spacesSecret, "")),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		panic(fmt.Sprintf("Unable to load Spaces config: %v", err))
	}

	return &RouteArchive{
		client:    s3.NewFromConfig(cfg),
		bucket:    bucket,
		region:    region,
		RouteRoot: strings.TrimPrefix(routeRoot, "/"),
	}
}

func (a *RouteArchive) key(deviceID, sessionID string) string {
	return fmt.Sprintf("%s/%s/%s.json", a.RouteRoot, slug.Make(deviceID), slug.Make(sessionID))
}

// StoreRoute uploads a session's GPS trace and returns the object key.
func (a *RouteArchive) StoreRoute(ctx context.Context, deviceID, sessionID string, points []models.RoutePoint) (string, error) {
	body, err := json.Marshal(points)
	if err != nil {
		return "", fmt.Errorf("failed to encode route: %w", err)
	}

	key := a.key(deviceID, sessionID)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		ACL:         "private",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload route: %w", err)
	}

	slog.Info("Route archived",
		slog.String("type", "sys"),
		slog.String("key", key),
		slog.Int("points", len(points)))
	return key, nil
}

// LoadRoute fetches a previously archived trace.
func (a *RouteArchive) LoadRoute(ctx context.Context, key string) ([]models.RoutePoint, error) {
	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch route: %w", err)
	}
	defer out.Body.Close()

	var points []models.RoutePoint
	if err := json.NewDecoder(out.Body).Decode(&points); err != nil {
		return nil, fmt.Errorf("failed to decode route: %w", err)
	}
	return points, nil
}

// DeleteRoutes removes every archived trace for a device. Best effort per
// object; the first error aborts.
func (a *RouteArchive) DeleteRoutes(ctx context.Context, deviceID string, keys []string) error {
	for _, key := range keys {
		_, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(a.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return fmt.Errorf("failed to delete route %s: %w", key, err)
		}
	}
	return nil
}
