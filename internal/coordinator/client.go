package coordinator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/streamforge-labs/streamforge-go/internal/platform/env"
)

const (
	identityPath = "/coordinator/v1/identity"
	messagesPath = "/coordinator/v1/messages"
)

type Config struct {
	Host    string
	Port    int
	Timeout time.Duration
}

func ConfigFromEnv() (Config, error) {
	port, err := env.Int("STREAMFORGE_COORDINATOR_PORT", 6123)
	if err != nil {
		return Config{}, err
	}
	timeout, err := env.Duration("STREAMFORGE_COORDINATOR_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		Host:    env.String("STREAMFORGE_COORDINATOR_HOST", "localhost"),
		Port:    port,
		Timeout: timeout,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return errors.New("coordinator host is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("coordinator port out of range: %d", c.Port)
	}
	if c.Timeout <= 0 {
		return errors.New("coordinator timeout must be positive")
	}
	return nil
}

func (c Config) address() string {
	return net.JoinHostPort(c.Host, fmt.Sprintf("%d", c.Port))
}

type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeTimeout
	OutcomeMalformed
	OutcomeUnreachable
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeMalformed:
		return "malformed"
	case OutcomeUnreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// Outcome is the tagged result of one status query. Callers branch on
// Kind instead of catching errors; only Success carries records.
type Outcome struct {
	Kind    OutcomeKind
	Jobs    []JobStatusRecord
	Message string
}

// Client holds a resolved reference to the coordinator. The underlying
// transport is owned by the client and released by Close; all queries
// after construction share it read-only, so concurrent ListRunningJobs
// calls are safe.
type Client struct {
	baseURL   string
	timeout   time.Duration
	transport *http.Transport
	httpc     *http.Client
	logger    *slog.Logger
}

// Resolve verifies a live coordinator is reachable at the configured
// address and returns a client bound to it. Resolution failure is fatal:
// the caller gets no client and must not serve status queries.
func Resolve(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:    10,
		IdleConnTimeout: 90 * time.Second,
	}
	c := &Client{
		baseURL:   "http://" + cfg.address(),
		timeout:   cfg.Timeout,
		transport: transport,
		httpc:     &http.Client{Transport: transport},
		logger:    logger,
	}

	resolveCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(resolveCtx, http.MethodGet, c.baseURL+identityPath, nil)
	if err != nil {
		transport.CloseIdleConnections()
		return nil, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		transport.CloseIdleConnections()
		return nil, fmt.Errorf("could not resolve coordinator at %s: %w", cfg.address(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		transport.CloseIdleConnections()
		return nil, fmt.Errorf("could not resolve coordinator at %s: %w", cfg.address(), err)
	}
	var identity identityEnvelope
	if resp.StatusCode != http.StatusOK || json.Unmarshal(body, &identity) != nil || identity.Kind != kindCoordinatorIdentity {
		transport.CloseIdleConnections()
		return nil, fmt.Errorf("could not resolve coordinator at %s: unexpected identity response (status=%d)", cfg.address(), resp.StatusCode)
	}

	logger.Info("resolved coordinator", "address", cfg.address(), "coordinator_id", identity.CoordinatorID)
	return c, nil
}

// Close releases the transport backing the coordinator reference. The
// client must not be used afterwards.
func (c *Client) Close() {
	c.transport.CloseIdleConnections()
}

// ListRunningJobs sends one typed status request and waits up to the
// configured timeout for the typed reply. The deadline is hard: once it
// passes the outcome is Timeout and a stale reply is ignored, but the
// client stays usable for future queries.
func (c *Client) ListRunningJobs(ctx context.Context) Outcome {
	queryCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(requestEnvelope{Kind: kindRequestRunningJobs})
	if err != nil {
		return Outcome{Kind: OutcomeMalformed, Message: fmt.Sprintf("encode status request: %v", err)}
	}

	req, err := http.NewRequestWithContext(queryCtx, http.MethodPost, c.baseURL+messagesPath, bytes.NewReader(payload))
	if err != nil {
		return Outcome{Kind: OutcomeUnreachable, Message: fmt.Sprintf("build status request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		if isTimeout(err) {
			return Outcome{Kind: OutcomeTimeout, Message: fmt.Sprintf("could not retrieve the running jobs from the coordinator within %s", c.timeout)}
		}
		return Outcome{Kind: OutcomeUnreachable, Message: fmt.Sprintf("coordinator unreachable: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		if isTimeout(err) {
			return Outcome{Kind: OutcomeTimeout, Message: fmt.Sprintf("could not retrieve the running jobs from the coordinator within %s", c.timeout)}
		}
		return Outcome{Kind: OutcomeUnreachable, Message: fmt.Sprintf("read coordinator reply: %v", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return Outcome{Kind: OutcomeMalformed, Message: fmt.Sprintf("coordinator replied with status %d", resp.StatusCode)}
	}

	var reply replyEnvelope
	if err := json.Unmarshal(body, &reply); err != nil {
		return Outcome{Kind: OutcomeMalformed, Message: fmt.Sprintf("undecodable coordinator reply: %v", err)}
	}
	if reply.Kind != kindRunningJobs {
		return Outcome{Kind: OutcomeMalformed, Message: fmt.Sprintf("%s requires a response of kind %s; got %q", kindRequestRunningJobs, kindRunningJobs, reply.Kind)}
	}

	records := make([]JobStatusRecord, 0, len(reply.Jobs))
	for _, job := range reply.Jobs {
		id, err := uuid.Parse(job.JobID)
		if err != nil {
			return Outcome{Kind: OutcomeMalformed, Message: fmt.Sprintf("coordinator reported malformed job id %q", job.JobID)}
		}
		records = append(records, JobStatusRecord{
			JobID:                id,
			JobName:              job.JobName,
			State:                job.State,
			StateTimestampMillis: job.StateTimestampMillis,
		})
	}
	return Outcome{Kind: OutcomeSuccess, Jobs: records}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
