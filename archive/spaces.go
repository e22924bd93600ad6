package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"yt-chat/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type SpacesConfig struct {
	AccessKey string
	SecretKey string
	Region    string
	Endpoint  string
	Bucket    string
}

// Enabled reports whether the config carries enough to build a client.
func (c SpacesConfig) Enabled() bool {
	return c.AccessKey != "" && c.SecretKey != "" && c.Bucket != ""
}

// SpacesClient archives completed transcripts to an S3-compatible bucket.
type SpacesClient struct {
	client *s3.Client
	bucket string
}

func NewSpacesClient(cfg SpacesConfig) (*SpacesClient, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: cfg.Endpoint,
		}, nil
	})

	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		config.WithEndpointResolverWithOptions(resolver),
		config.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %v", err)
	}

	return &SpacesClient{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.Bucket,
	}, nil
}

type archivedTranscript struct {
	VideoID   int64            `json:"video_id"`
	URL       string           `json:"url"`
	Title     string           `json:"title,omitempty"`
	Content   string           `json:"content"`
	Segments  []models.Segment `json:"segments"`
	Language  string           `json:"language"`
	Timestamp time.Time        `json:"timestamp"`
}

// SaveTranscript uploads the transcript JSON, keyed by video id.
func (s *SpacesClient) SaveTranscript(ctx context.Context, video *models.Video, transcript *models.Transcript) error {
	data := archivedTranscript{
		VideoID:   video.ID,
		URL:       video.URL,
		Title:     video.Title,
		Content:   transcript.Content,
		Segments:  transcript.Segments,
		Language:  transcript.Language,
		Timestamp: time.Now(),
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %v", err)
	}

	key := fmt.Sprintf("transcripts/%d.json", video.ID)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(jsonData),
	})
	if err != nil {
		return fmt.Errorf("failed to upload transcript: %v", err)
	}

	return nil
}

// GetTranscript fetches an archived transcript by video id.
func (s *SpacesClient) GetTranscript(ctx context.Context, videoID int64) (*models.Transcript, error) {
	key := fmt.Sprintf("transcripts/%d.json", videoID)
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transcript: %v", err)
	}
	defer result.Body.Close()

	var data archivedTranscript
	if err := json.NewDecoder(result.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode transcript: %v", err)
	}

	return &models.Transcript{
		VideoID:  data.VideoID,
		Content:  data.Content,
		Segments: data.Segments,
		Language: data.Language,
	}, nil
}
