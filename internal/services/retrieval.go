package services

import (
  "context"
  "encoding/json"
  "fmt"
  "io"
  "net/http"
  "net/url"
  "strconv"
  "strings"
  "time"

  "github.com/refap/refap-backend/internal/logger"
  "github.com/refap/refap-backend/internal/utils"
)

// Passage is one retrieved corpus record used to enrich the LLM prompt.
// The decision core never consults retrieval output.
type Passage struct {
  ID      string `json:"id"`
  Preview string `json:"preview"`
}

type RetrievalClient interface {
  Search(ctx context.Context, question string) ([]Passage, error)
}

type httpRetrievalClient struct {
  log        *logger.Logger
  baseURL    string
  topK       int
  httpClient *http.Client
}

// NewRetrievalClient returns the HTTP-backed retrieval collaborator, or a
// disabled no-op client when RETRIEVAL_BASE_URL is unset so the chat flow
// runs without corpus context.
func NewRetrievalClient(log *logger.Logger) RetrievalClient {
  clientLog := log.With("service", "RetrievalClient")
  baseURL := strings.TrimRight(utils.GetEnv("RETRIEVAL_BASE_URL", "", log), "/")
  if baseURL == "" {
    clientLog.Warn("RETRIEVAL_BASE_URL not set, retrieval disabled")
    return &noopRetrievalClient{}
  }
  topK := utils.GetEnvAsInt("RETRIEVAL_TOP_K", 4, log)
  timeoutSec := utils.GetEnvAsInt("RETRIEVAL_TIMEOUT_SECONDS", 5, log)
  return &httpRetrievalClient{
    log:        clientLog,
    baseURL:    baseURL,
    topK:       topK,
    httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
  }
}

type retrievalSearchResponse struct {
  Results []Passage `json:"results"`
}

func (c *httpRetrievalClient) Search(ctx context.Context, question string) ([]Passage, error) {
  question = strings.TrimSpace(question)
  if question == "" {
    return nil, nil
  }

  endpoint := c.baseURL + "/search?q=" + url.QueryEscape(question) + "&k=" + strconv.Itoa(c.topK)
  req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
  if err != nil {
    return nil, err
  }

  resp, err := c.httpClient.Do(req)
  if err != nil {
    return nil, err
  }
  defer resp.Body.Close()

  raw, err := io.ReadAll(resp.Body)
  if err != nil {
    return nil, err
  }
  if resp.StatusCode < 200 || resp.StatusCode >= 300 {
    return nil, fmt.Errorf("retrieval http %d: %s", resp.StatusCode, string(raw))
  }

  var parsed retrievalSearchResponse
  if err := json.Unmarshal(raw, &parsed); err != nil {
    return nil, fmt.Errorf("retrieval decode error: %w", err)
  }
  if len(parsed.Results) > c.topK {
    parsed.Results = parsed.Results[:c.topK]
  }
  return parsed.Results, nil
}

type noopRetrievalClient struct{}

func (c *noopRetrievalClient) Search(ctx context.Context, question string) ([]Passage, error) {
  return nil, nil
}
