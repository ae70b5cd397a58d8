// Package googledrive wraps the Drive v3 operations needed for snapshot sync:
// locate the well-known file, replace its content wholesale, and download it.
package googledrive

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// WellKnownFileName is the single fixed-name backup file per account.
const WellKnownFileName = "piggery-pro-cloud-data.json"

const jsonMimeType = "application/json"

// Client exposes the remote object operations used by the sync session.
type Client interface {
	FindFile(ctx context.Context) (fileID string, found bool, err error)
	Upload(ctx context.Context, fileID string, content []byte) (string, error)
	Download(ctx context.Context, fileID string) ([]byte, error)
}

// DriveClient implements Client using the official Drive API.
type DriveClient struct {
	service  *drive.Service
	fileName string
	logger   *zap.Logger
}

// NewDriveClient builds a Drive-backed client authorized with the provided
// access token. Extra options are for tests (endpoint and transport override).
func NewDriveClient(ctx context.Context, accessToken, fileName string, logger *zap.Logger, opts ...option.ClientOption) (*DriveClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if fileName == "" {
		fileName = WellKnownFileName
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	all := append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)

	service, err := drive.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize drive client: %w", err)
	}

	return &DriveClient{service: service, fileName: fileName, logger: logger}, nil
}

// FindFile queries for the well-known non-trashed file. Only the first match
// is used; duplicates are logged.
func (c *DriveClient) FindFile(ctx context.Context) (string, bool, error) {
	query := fmt.Sprintf("name = '%s' and trashed = false", c.fileName)
	resp, err := c.service.Files.List().
		Q(query).
		Spaces("drive").
		Fields("files(id, name)").
		Context(ctx).
		Do()
	if err != nil {
		return "", false, fmt.Errorf("list files named %s: %w", c.fileName, err)
	}
	if len(resp.Files) == 0 {
		return "", false, nil
	}
	if len(resp.Files) > 1 {
		c.logger.Warn("multiple remote snapshot files found, using the first",
			zap.String("name", c.fileName), zap.Int("count", len(resp.Files)))
	}
	return resp.Files[0].Id, true, nil
}

// Upload replaces the file content in place when fileID is set, otherwise
// creates the file with the well-known name and JSON content type. Returns
// the file ID.
func (c *DriveClient) Upload(ctx context.Context, fileID string, content []byte) (string, error) {
	media := bytes.NewReader(content)

	if fileID == "" {
		created, err := c.service.Files.Create(&drive.File{Name: c.fileName, MimeType: jsonMimeType}).
			Media(media, googleapi.ContentType(jsonMimeType)).
			Context(ctx).
			Do()
		if err != nil {
			return "", fmt.Errorf("create file %s: %w", c.fileName, err)
		}
		c.logger.Debug("remote snapshot created", zap.String("file_id", created.Id))
		return created.Id, nil
	}

	updated, err := c.service.Files.Update(fileID, &drive.File{}).
		Media(media, googleapi.ContentType(jsonMimeType)).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("update file %s: %w", fileID, err)
	}
	c.logger.Debug("remote snapshot updated", zap.String("file_id", updated.Id))
	return updated.Id, nil
}

// Download fetches the raw decoded file content (alt=media).
func (c *DriveClient) Download(ctx context.Context, fileID string) ([]byte, error) {
	resp, err := c.service.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("download file %s: %w", fileID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file %s content: %w", fileID, err)
	}
	return content, nil
}
