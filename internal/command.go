package hydrotop

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// BoardCommand is a manual action understood by the controller
type BoardCommand struct {
	Name  string
	Title string
	Key   string
}

// BoardCommands lists the controller's manual actions in menu order
func BoardCommands() []BoardCommand {
	return []BoardCommand{
		{Name: "start_irrigation", Title: "Start irrigation", Key: "i"},
		{Name: "start_recirculation", Title: "Start recirculation", Key: "r"},
		{Name: "refill_on", Title: "Refill tank", Key: "f"},
		{Name: "stop_all", Title: "Stop everything", Key: "s"},
	}
}

// CommandClient triggers actions through /api/command/{cmd}
type CommandClient struct {
	base    *url.URL
	client  *http.Client
	logger  *zap.Logger
	metrics *Metrics
}

func NewCommandClient(base *url.URL, timeout time.Duration, logger *zap.Logger, metrics *Metrics) *CommandClient {
	if timeout <= 0 {
		timeout = FetchTimeout()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandClient{
		base:    base,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
		metrics: metrics,
	}
}

// Send fires cmd and returns the decoded JSON reply
func (c *CommandClient) Send(ctx context.Context, cmd string) (map[string]any, error) {
	c.logger.Info("sending command", zap.String("command", cmd))
	reply, err := c.send(ctx, cmd)
	if c.metrics != nil {
		c.metrics.Commands.WithLabelValues(cmd, result(err == nil)).Inc()
	}
	if err != nil {
		c.logger.Error("command failed", zap.String("command", cmd), zap.Error(err))
		return nil, err
	}
	c.logger.Info("command result", zap.String("command", cmd), zap.Any("result", reply))
	return reply, nil
}

func (c *CommandClient) send(ctx context.Context, cmd string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.JoinPath("api", "command", cmd).String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP error! status: %d", resp.StatusCode)
	}
	var reply map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	return reply, nil
}
