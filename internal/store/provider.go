package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const defaultDialTimeout = 10 * time.Second

const envEmulatorHost = "FIRESTORE_EMULATOR_HOST"

// Config selects the Firestore project and, for local development and tests,
// an emulator endpoint.
type Config struct {
	ProjectID    string
	EmulatorHost string
	DialTimeout  time.Duration
}

// Client wraps the shared Firestore connection used by every repository.
type Client struct {
	fs *firestore.Client
}

// Dial connects to Firestore eagerly so startup fails fast on
// misconfiguration.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	projectID := strings.TrimSpace(cfg.ProjectID)
	if projectID == "" {
		return nil, errors.New("store: firestore project id is required")
	}
	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var opts []option.ClientOption
	if host := emulatorHost(cfg); host != "" {
		if os.Getenv(envEmulatorHost) == "" {
			_ = os.Setenv(envEmulatorHost, host)
		}
		opts = append(opts,
			option.WithoutAuthentication(),
			option.WithEndpoint(host),
			option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
	}

	fs, err := firestore.NewClient(dialCtx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("store: connect firestore: %w", err)
	}
	return &Client{fs: fs}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	if c == nil || c.fs == nil {
		return nil
	}
	return c.fs.Close()
}

// Ping verifies the backend is reachable. A missing probe document is fine;
// only transport failures count.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.fs == nil {
		return errors.New("store: not connected")
	}
	_, err := c.fs.Collection(settingsCollection).Doc(GlobalSettingsID).Get(ctx)
	if err != nil && !errors.Is(WrapError("ping", err), ErrNotFound) {
		return err
	}
	return nil
}

// Raw exposes the underlying client for transactions.
func (c *Client) Raw() *firestore.Client {
	if c == nil {
		return nil
	}
	return c.fs
}

func emulatorHost(cfg Config) string {
	if trimmed := strings.TrimSpace(cfg.EmulatorHost); trimmed != "" {
		return trimmed
	}
	return strings.TrimSpace(os.Getenv(envEmulatorHost))
}
