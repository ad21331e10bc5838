// Package cluster is a minimal REST client for the resource manager that
// hosts StreamForge containers. Only the endpoints the launcher needs are
// covered.
package cluster

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/streamforge-labs/streamforge-go/internal/platform/env"
)

var (
	ErrNotFound      = errors.New("cluster resource not found")
	ErrAlreadyExists = errors.New("cluster resource already exists")
	ErrUnauthorized  = errors.New("cluster request unauthorized")
	ErrForbidden     = errors.New("cluster request forbidden")
)

type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("cluster api error (status=%d)", e.StatusCode)
	}
	return fmt.Sprintf("cluster api error (status=%d): %s", e.StatusCode, body)
}

type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

func ConfigFromEnv() (Config, error) {
	timeout, err := env.Duration("STREAMFORGE_CLUSTER_TIMEOUT", 15*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		BaseURL: env.String("STREAMFORGE_CLUSTER_URL", ""),
		Token:   env.String("STREAMFORGE_CLUSTER_TOKEN", ""),
		Timeout: timeout,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("cluster base url is required")
	}
	if c.Timeout <= 0 {
		return errors.New("cluster timeout must be positive")
	}
	return nil
}

type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
}

func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		token:   strings.TrimSpace(cfg.Token),
		httpc:   &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// ResourceRef points a container at one provisioned artifact. Order
// matters: the resource manager localizes refs in the order given.
type ResourceRef struct {
	Location           string `json:"location"`
	SizeBytes          int64  `json:"size_bytes"`
	LastModifiedMillis int64  `json:"last_modified_ms"`
	Visibility         string `json:"visibility"`
	Type               string `json:"type"`
}

// ContainerSubmission is the launch request for one container.
// Credentials travel as an opaque blob; the resource manager hands it to
// the container unmodified.
type ContainerSubmission struct {
	AppID          string            `json:"app_id"`
	MemoryBudgetMB int               `json:"memory_budget_mb"`
	HeapLimitMB    int               `json:"heap_limit_mb"`
	Environment    map[string]string `json:"environment"`
	Resources      []ResourceRef     `json:"resources"`
	Credentials    []byte            `json:"credentials,omitempty"`
}

func (s ContainerSubmission) Validate() error {
	if strings.TrimSpace(s.AppID) == "" {
		return errors.New("app id is required")
	}
	if s.MemoryBudgetMB <= 0 {
		return errors.New("memory budget must be positive")
	}
	if s.HeapLimitMB <= 0 || s.HeapLimitMB > s.MemoryBudgetMB {
		return errors.New("heap limit must be positive and within the memory budget")
	}
	return nil
}

type ContainerHandle struct {
	ContainerID string `json:"container_id"`
	AppID       string `json:"app_id"`
	State       string `json:"state"`
}

// SubmitContainer asks the resource manager to start one container.
func (c *Client) SubmitContainer(ctx context.Context, sub ContainerSubmission) (ContainerHandle, error) {
	if err := sub.Validate(); err != nil {
		return ContainerHandle{}, err
	}
	body, err := json.Marshal(sub)
	if err != nil {
		return ContainerHandle{}, fmt.Errorf("marshal container submission: %w", err)
	}
	path := fmt.Sprintf("/cluster/v1/applications/%s/containers", strings.TrimSpace(sub.AppID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return ContainerHandle{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var out ContainerHandle
	if err := c.do(req, &out); err != nil {
		return ContainerHandle{}, err
	}
	return out, nil
}

// GetContainer fetches the current state of one container.
func (c *Client) GetContainer(ctx context.Context, appID, containerID string) (ContainerHandle, error) {
	appID = strings.TrimSpace(appID)
	containerID = strings.TrimSpace(containerID)
	if appID == "" || containerID == "" {
		return ContainerHandle{}, errors.New("app id and container id are required")
	}
	path := fmt.Sprintf("/cluster/v1/applications/%s/containers/%s", appID, containerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return ContainerHandle{}, err
	}
	var out ContainerHandle
	if err := c.do(req, &out); err != nil {
		return ContainerHandle{}, err
	}
	return out, nil
}

func (c *Client) do(req *http.Request, out any) error {
	if req == nil {
		return errors.New("request is required")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return err
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode cluster response: %w", err)
		}
		return nil
	case http.StatusConflict:
		return ErrAlreadyExists
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	default:
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
}
