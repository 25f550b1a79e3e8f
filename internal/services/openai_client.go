package services

import (
  "bufio"
  "bytes"
  "context"
  "encoding/json"
  "errors"
  "fmt"
  "io"
  "math/rand"
  "net"
  "net/http"
  "os"
  "strconv"
  "strings"
  "time"

  "github.com/refap/refap-backend/internal/logger"
)

type ChatMessage struct {
  Role    string `json:"role"`
  Content string `json:"content"`
}

// LLMClient is the model collaborator: the decision core supplies the system
// prompt and consumes only the final assembled text.
type LLMClient interface {
  Complete(ctx context.Context, system string, history []ChatMessage, user string) (string, error)
  CompleteStream(ctx context.Context, system string, history []ChatMessage, user string, onDelta func(delta string)) (string, error)
}

type openAIClient struct {
  log        *logger.Logger
  baseURL    string
  apiKey     string
  model      string
  httpClient *http.Client

  maxRetries int
}

func NewOpenAIClient(log *logger.Logger) (LLMClient, error) {
  apiKey := os.Getenv("OPENAI_API_KEY")
  if apiKey == "" {
    return nil, fmt.Errorf("missing OPENAI_API_KEY")
  }

  baseURL := os.Getenv("OPENAI_BASE_URL")
  if baseURL == "" {
    baseURL = "https://api.openai.com"
  }

  model := os.Getenv("OPENAI_MODEL")
  if model == "" {
    model = "gpt-4o-mini"
  }

  // Hard timeout for a whole completion, streaming included. On timeout the
  // partial text is discarded by the caller, never cached.
  timeoutSec := 60
  if v := os.Getenv("OPENAI_TIMEOUT_SECONDS"); v != "" {
    if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
      timeoutSec = parsed
    }
  }

  maxRetries := 3
  if v := os.Getenv("OPENAI_MAX_RETRIES"); v != "" {
    if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed >= 0 {
      maxRetries = parsed
    }
  }

  return &openAIClient{
    log:        log.With("service", "OpenAIClient"),
    baseURL:    baseURL,
    apiKey:     apiKey,
    model:      model,
    httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
    maxRetries: maxRetries,
  }, nil
}

type openAIHTTPError struct {
  StatusCode int
  Body       string
}

func (e *openAIHTTPError) Error() string {
  return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

func isRetryableHTTP(code int) bool {
  if code == 408 || code == 429 {
    return true
  }
  if code >= 500 && code <= 599 {
    return true
  }
  return false
}

func isRetryableErr(err error) bool {
  if err == nil {
    return false
  }
  if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
    return true
  }
  var netErr net.Error
  if errors.As(err, &netErr) {
    if netErr.Timeout() {
      return true
    }
  }
  var httpErr *openAIHTTPError
  if errors.As(err, &httpErr) {
    return isRetryableHTTP(httpErr.StatusCode)
  }
  return false
}

func jitterSleep(base time.Duration) time.Duration {
  // +/- 20%
  if base <= 0 {
    return 0
  }
  j := 0.2
  delta := base.Seconds() * j
  low := base.Seconds() - delta
  high := base.Seconds() + delta
  if low < 0 {
    low = 0
  }
  v := low + rand.Float64()*(high-low)
  return time.Duration(v * float64(time.Second))
}

type chatCompletionsRequest struct {
  Model       string        `json:"model"`
  Messages    []ChatMessage `json:"messages"`
  Temperature float64       `json:"temperature,omitempty"`
  Stream      bool          `json:"stream,omitempty"`
}

type chatCompletionsResponse struct {
  Choices []struct {
    Message struct {
      Content string `json:"content"`
    } `json:"message"`
    FinishReason string `json:"finish_reason"`
  } `json:"choices"`
}

type chatCompletionsChunk struct {
  Choices []struct {
    Delta struct {
      Content string `json:"content"`
    } `json:"delta"`
  } `json:"choices"`
}

func buildMessages(system string, history []ChatMessage, user string) []ChatMessage {
  msgs := make([]ChatMessage, 0, len(history)+2)
  msgs = append(msgs, ChatMessage{Role: "system", Content: system})
  msgs = append(msgs, history...)
  msgs = append(msgs, ChatMessage{Role: "user", Content: user})
  return msgs
}

func (c *openAIClient) newRequest(ctx context.Context, body any) (*http.Request, error) {
  var buf bytes.Buffer
  if err := json.NewEncoder(&buf).Encode(body); err != nil {
    return nil, err
  }
  req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", &buf)
  if err != nil {
    return nil, err
  }
  req.Header.Set("Authorization", "Bearer "+c.apiKey)
  req.Header.Set("Content-Type", "application/json")
  return req, nil
}

func (c *openAIClient) doOnce(ctx context.Context, body any) (*http.Response, []byte, error) {
  req, err := c.newRequest(ctx, body)
  if err != nil {
    return nil, nil, err
  }

  resp, err := c.httpClient.Do(req)
  if err != nil {
    return nil, nil, err
  }

  raw, readErr := io.ReadAll(resp.Body)
  _ = resp.Body.Close()
  if readErr != nil {
    return resp, nil, readErr
  }

  if resp.StatusCode < 200 || resp.StatusCode >= 300 {
    return resp, raw, &openAIHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
  }
  return resp, raw, nil
}

func (c *openAIClient) Complete(ctx context.Context, system string, history []ChatMessage, user string) (string, error) {
  reqBody := chatCompletionsRequest{
    Model:       c.model,
    Messages:    buildMessages(system, history, user),
    Temperature: 0.4,
  }

  // exponential backoff: 1s, 2s, 4s (cap ~10s)
  backoff := 1 * time.Second

  for attempt := 0; attempt <= c.maxRetries; attempt++ {
    if ctx.Err() != nil {
      return "", ctx.Err()
    }

    resp, raw, err := c.doOnce(ctx, reqBody)
    if err == nil {
      var parsed chatCompletionsResponse
      if uErr := json.Unmarshal(raw, &parsed); uErr != nil {
        return "", fmt.Errorf("openai decode error: %w; raw=%s", uErr, string(raw))
      }
      if len(parsed.Choices) == 0 {
        return "", fmt.Errorf("openai returned no choices")
      }
      return parsed.Choices[0].Message.Content, nil
    }

    if !isRetryableErr(err) {
      return "", err
    }
    if attempt == c.maxRetries {
      return "", err
    }

    sleepFor := backoff
    if resp != nil {
      ra := strings.TrimSpace(resp.Header.Get("Retry-After"))
      if ra != "" {
        if secs, parseErr := strconv.Atoi(ra); parseErr == nil && secs > 0 {
          sleepFor = time.Duration(secs) * time.Second
        }
      }
    }
    if sleepFor > 10*time.Second {
      sleepFor = 10 * time.Second
    }
    sleepFor = jitterSleep(sleepFor)

    c.log.Warn("OpenAI request retrying",
      "attempt", attempt+1,
      "max_retries", c.maxRetries,
      "sleep", sleepFor.String(),
      "error", err.Error(),
    )

    time.Sleep(sleepFor)
    backoff *= 2
  }

  return "", fmt.Errorf("unreachable retry loop")
}

// CompleteStream streams deltas to onDelta and returns the assembled text.
// Retries only apply before the first byte is read; once streaming has
// started a failure surfaces to the caller, which discards the partial text.
func (c *openAIClient) CompleteStream(ctx context.Context, system string, history []ChatMessage, user string, onDelta func(delta string)) (string, error) {
  reqBody := chatCompletionsRequest{
    Model:       c.model,
    Messages:    buildMessages(system, history, user),
    Temperature: 0.4,
    Stream:      true,
  }

  backoff := 1 * time.Second

  for attempt := 0; attempt <= c.maxRetries; attempt++ {
    if ctx.Err() != nil {
      return "", ctx.Err()
    }

    req, err := c.newRequest(ctx, reqBody)
    if err != nil {
      return "", err
    }
    req.Header.Set("Accept", "text/event-stream")

    resp, err := c.httpClient.Do(req)
    if err == nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
      text, streamErr := c.readStream(resp.Body, onDelta)
      _ = resp.Body.Close()
      return text, streamErr
    }

    if resp != nil {
      raw, _ := io.ReadAll(resp.Body)
      _ = resp.Body.Close()
      err = &openAIHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
    }
    if !isRetryableErr(err) {
      return "", err
    }
    if attempt == c.maxRetries {
      return "", err
    }

    sleepFor := jitterSleep(backoff)
    c.log.Warn("OpenAI stream request retrying",
      "attempt", attempt+1,
      "max_retries", c.maxRetries,
      "sleep", sleepFor.String(),
      "error", err.Error(),
    )
    time.Sleep(sleepFor)
    backoff *= 2
  }

  return "", fmt.Errorf("unreachable retry loop")
}

func (c *openAIClient) readStream(body io.Reader, onDelta func(delta string)) (string, error) {
  var full strings.Builder
  scanner := bufio.NewScanner(body)
  scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

  for scanner.Scan() {
    line := strings.TrimSpace(scanner.Text())
    if !strings.HasPrefix(line, "data:") {
      continue
    }
    payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
    if payload == "" || payload == "[DONE]" {
      continue
    }
    var chunk chatCompletionsChunk
    if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
      c.log.Warn("Skipping malformed stream chunk", "error", err)
      continue
    }
    for _, choice := range chunk.Choices {
      if choice.Delta.Content == "" {
        continue
      }
      full.WriteString(choice.Delta.Content)
      if onDelta != nil {
        onDelta(choice.Delta.Content)
      }
    }
  }
  if err := scanner.Err(); err != nil {
    return "", fmt.Errorf("openai stream read: %w", err)
  }
  return full.String(), nil
}
