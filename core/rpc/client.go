package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// maxBodyExcerpt bounds how much of a bad response body ends up in errors.
const maxBodyExcerpt = 400

// Client issues eth_getLogs count queries against JSON-RPC providers.
// One call counts the logs emitted by a single contract/topic pair over an
// inclusive block range. Transient transport failures are retried with
// exponential backoff inside the underlying retryablehttp client; callers
// only ever see the final classified outcome.
type Client struct {
	http     *retryablehttp.Client
	contract string
	topic    string
}

// New creates a log-count client for the given contract address and topic hash.
func New(cfg Config, contract, topic string, log *zap.Logger) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.RetryMax
	rc.RetryWaitMin = time.Duration(cfg.BackoffMillis) * time.Millisecond
	rc.RetryWaitMax = 30 * time.Second
	rc.Logger = retryLogger{log: log.Sugar()}
	rc.HTTPClient = &http.Client{
		Timeout: time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: time.Duration(cfg.ConnectTimeoutSeconds) * time.Second,
			}).DialContext,
		},
	}

	return &Client{
		http:     rc,
		contract: contract,
		topic:    topic,
	}
}

type logsRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int         `json:"id"`
	Method  string      `json:"method"`
	Params  []logFilter `json:"params"`
}

type logFilter struct {
	FromBlock string   `json:"fromBlock"`
	ToBlock   string   `json:"toBlock"`
	Address   string   `json:"address"`
	Topics    []string `json:"topics"`
}

type logsResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// CountLogs returns the number of logs the provider reports for the inclusive
// block range [from, to]. Failures come back as a *CallError classified as
// transport or protocol.
func (c *Client) CountLogs(ctx context.Context, provider string, from, to uint64) (int64, error) {
	payload := logsRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "eth_getLogs",
		Params: []logFilter{{
			FromBlock: hexBlock(from),
			ToBlock:   hexBlock(to),
			Address:   c.contract,
			Topics:    []string{c.topic},
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, &CallError{Kind: KindProtocol, Provider: provider, From: from, To: to, Err: err}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, provider, bytes.NewReader(body))
	if err != nil {
		return 0, &CallError{Kind: KindTransport, Provider: provider, From: from, To: to, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, &CallError{Kind: KindTransport, Provider: provider, From: from, To: to, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, &CallError{Kind: KindTransport, Provider: provider, From: from, To: to, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, &CallError{
			Kind: KindTransport, Provider: provider, From: from, To: to,
			Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, excerpt(raw)),
		}
	}

	var decoded logsResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return 0, &CallError{
			Kind: KindProtocol, Provider: provider, From: from, To: to,
			Err: fmt.Errorf("undecodable response: %s", excerpt(raw)),
		}
	}
	if decoded.Error != nil {
		return 0, &CallError{
			Kind: KindProtocol, Provider: provider, From: from, To: to,
			Err: fmt.Errorf("rpc error %d: %s", decoded.Error.Code, decoded.Error.Message),
		}
	}

	var entries []json.RawMessage
	if decoded.Result == nil || json.Unmarshal(decoded.Result, &entries) != nil {
		return 0, &CallError{
			Kind: KindProtocol, Provider: provider, From: from, To: to,
			Err: fmt.Errorf("result is not a log array: %s", excerpt(raw)),
		}
	}

	return int64(len(entries)), nil
}

func hexBlock(n uint64) string {
	return fmt.Sprintf("0x%x", n)
}

func excerpt(body []byte) string {
	if len(body) > maxBodyExcerpt {
		body = body[:maxBodyExcerpt]
	}
	return string(body)
}

// retryLogger routes retryablehttp's internal logging through zap at debug
// level so retry chatter stays out of normal output.
type retryLogger struct {
	log *zap.SugaredLogger
}

func (l retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}
