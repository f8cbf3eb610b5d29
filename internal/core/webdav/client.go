// Package webdav exports clips to configured WebDAV remotes.
package webdav

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/emersion/go-webdav"
	"github.com/guiyumin/vclip/internal/core/config"
	"github.com/guiyumin/vclip/internal/core/logging"
)

// Client wraps go-webdav client with convenience methods
type Client struct {
	client  *webdav.Client
	baseURL string
}

// FileInfo contains information about a remote file
type FileInfo struct {
	Name  string
	Path  string
	Size  int64
	IsDir bool
}

// NewClient creates a WebDAV client from a configured server
func NewClient(server *config.WebDAVServer) (*Client, error) {
	var httpClient webdav.HTTPClient
	if server.Username != "" {
		httpClient = webdav.HTTPClientWithBasicAuth(nil, server.Username, server.Password)
	}

	client, err := webdav.NewClient(httpClient, server.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to create WebDAV client: %w", err)
	}

	return &Client{client: client, baseURL: server.URL}, nil
}

// Stat returns information about a file
func (c *Client) Stat(ctx context.Context, filePath string) (*FileInfo, error) {
	info, err := c.client.Stat(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", filePath, err)
	}

	return &FileInfo{
		Name:  path.Base(info.Path),
		Path:  info.Path,
		Size:  info.Size,
		IsDir: info.IsDir,
	}, nil
}

// List returns the contents of a directory
func (c *Client) List(ctx context.Context, dirPath string) ([]FileInfo, error) {
	infos, err := c.client.ReadDir(ctx, dirPath, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dirPath, err)
	}

	// Some servers include the directory itself.
	self := strings.TrimSuffix(dirPath, "/")
	if self == "" {
		self = "/"
	}

	result := make([]FileInfo, 0, len(infos))
	for _, info := range infos {
		p := strings.TrimSuffix(info.Path, "/")
		name := path.Base(p)
		if p == self || p == "" || name == "." || name == "/" {
			continue
		}
		result = append(result, FileInfo{Name: name, Path: info.Path, Size: info.Size, IsDir: info.IsDir})
	}
	return result, nil
}

// MkdirAll creates dirPath and any missing parents.
func (c *Client) MkdirAll(ctx context.Context, dirPath string) error {
	dirPath = path.Clean("/" + dirPath)
	if dirPath == "/" {
		return nil
	}

	cur := ""
	for part := range strings.SplitSeq(strings.Trim(dirPath, "/"), "/") {
		cur += "/" + part
		if info, err := c.client.Stat(ctx, cur); err == nil {
			if !info.IsDir {
				return fmt.Errorf("%s exists and is not a directory", cur)
			}
			continue
		}
		if err := c.client.Mkdir(ctx, cur); err != nil {
			return fmt.Errorf("failed to create %s: %w", cur, err)
		}
	}
	return nil
}

// Upload copies a local file into remoteDir and returns the remote path.
func (c *Client) Upload(ctx context.Context, localPath, remoteDir string) (string, error) {
	src, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer src.Close()

	if err := c.MkdirAll(ctx, remoteDir); err != nil {
		return "", err
	}

	remote := path.Join("/", remoteDir, filepath.Base(localPath))
	dst, err := c.client.Create(ctx, remote)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", remote, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", fmt.Errorf("failed to upload %s: %w", remote, err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", remote, err)
	}
	return remote, nil
}

// ParseRemotePath parses a remote path like "nas:/clips" into remote name and path
func ParseRemotePath(remotePath string) (remoteName, filePath string, err error) {
	idx := strings.Index(remotePath, ":")
	if idx <= 0 {
		return "", "", fmt.Errorf("invalid remote path format: %s (want name:/dir)", remotePath)
	}
	remoteName = remotePath[:idx]
	filePath = remotePath[idx+1:]

	if !strings.HasPrefix(filePath, "/") {
		filePath = "/" + filePath
	}
	return remoteName, filePath, nil
}

// Export uploads files to a "name:/dir" target using the named server from
// cfg. It returns the remote paths.
func Export(ctx context.Context, cfg *config.Config, target string, files []string) ([]string, error) {
	name, dir, err := ParseRemotePath(target)
	if err != nil {
		return nil, err
	}
	server := cfg.GetWebDAVServer(name)
	if server == nil {
		return nil, fmt.Errorf("WebDAV server %q is not configured", name)
	}

	client, err := NewClient(server)
	if err != nil {
		return nil, err
	}

	log := logging.Component("webdav").WithField("remote", name)
	var out []string
	for _, f := range files {
		if f == "" {
			continue
		}
		remote, err := client.Upload(ctx, f, dir)
		if err != nil {
			return out, err
		}
		log.WithField("path", remote).Info("uploaded")
		out = append(out, name+":"+remote)
	}
	return out, nil
}
