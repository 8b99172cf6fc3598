package std

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ZhuLinsen/MiniAgent/pkg/tools"
	"github.com/ZhuLinsen/MiniAgent/pkg/utils"
)

// maxResponseBody - сколько байт тела ответа читается в http_request.
const maxResponseBody = 1 << 20

type httpRequestArgs struct {
	URL     string            `json:"url" jsonschema:"description=Request URL (http or https)"`
	Method  string            `json:"method,omitempty" jsonschema:"description=Request method,default=GET,enum=GET,enum=POST,enum=PUT,enum=PATCH,enum=DELETE,enum=HEAD"`
	Headers map[string]string `json:"headers,omitempty" jsonschema:"description=Request headers"`
	Data    map[string]any    `json:"data,omitempty" jsonschema:"description=JSON body for POST PUT and PATCH requests"`
}

// NewHTTPRequest - http_request: отправляет HTTP запрос и возвращает статус, заголовки и тело.
func NewHTTPRequest(client *http.Client) (tools.Tool, error) {
	if client == nil {
		client = http.DefaultClient
	}
	return tools.NewFunc("http_request",
		"Send an HTTP request and return the response: status code, headers and body (parsed JSON when possible).",
		func(ctx context.Context, args httpRequestArgs) (any, error) {
			return doHTTPRequest(ctx, client, args)
		})
}

func doHTTPRequest(ctx context.Context, client *http.Client, args httpRequestArgs) (map[string]any, error) {
	u, err := url.Parse(args.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid URL %q: only http and https are allowed", args.URL)
	}

	method := strings.ToUpper(args.Method)
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if len(args.Data) > 0 && (method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch) {
		data, err := json.Marshal(args.Data)
		if err != nil {
			return nil, fmt.Errorf("encode request data: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP request: %w", err)
	}
	for k, v := range args.Headers {
		req.Header.Set(k, v)
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	utils.Debug("HTTP request", "method", method, "url", u.Redacted())

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute HTTP request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read HTTP response: %w", err)
	}
	truncated := len(raw) > maxResponseBody
	if truncated {
		raw = raw[:maxResponseBody]
	}

	headers := make(map[string]string, len(resp.Header))
	for k, v := range resp.Header {
		headers[k] = strings.Join(v, ", ")
	}

	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		data = string(raw)
	}

	result := map[string]any{
		"status_code": resp.StatusCode,
		"headers":     headers,
		"data":        data,
	}
	if truncated {
		result["truncated"] = true
	}
	return result, nil
}

type webSearchArgs struct {
	Query      string `json:"query" jsonschema:"description=Search query content"`
	NumResults int    `json:"num_results,omitempty" jsonschema:"description=Number of results to return,default=5,minimum=1,maximum=20"`
}

// SearchResult - одна запись выдачи web_search.
type SearchResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

type serpResponse struct {
	Error          string `json:"error"`
	OrganicResults []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic_results"`
	KnowledgeGraph *struct {
		Title       string `json:"title"`
		Website     string `json:"website"`
		Description string `json:"description"`
	} `json:"knowledge_graph"`
	RelatedSearches []struct {
		Query string `json:"query"`
		Link  string `json:"link"`
	} `json:"related_searches"`
}

// NewWebSearch - web_search: поиск через SerpAPI (движок DuckDuckGo).
func NewWebSearch(client *http.Client, endpoint, apiKey string) (tools.Tool, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if endpoint == "" {
		endpoint = DefaultSerpAPIURL
	}
	return tools.NewFunc("web_search",
		"Perform a web search and return a list of results with title, link and snippet.",
		func(ctx context.Context, args webSearchArgs) (any, error) {
			if apiKey == "" {
				return nil, fmt.Errorf("SERPAPI_KEY is not configured")
			}
			n := args.NumResults
			if n <= 0 {
				n = 5
			}
			results, err := serpSearch(ctx, client, endpoint, apiKey, args.Query, n)
			if err != nil {
				return nil, fmt.Errorf("failed to execute search '%s': %w", args.Query, err)
			}
			return results, nil
		})
}

func serpSearch(ctx context.Context, client *http.Client, endpoint, apiKey, query string, n int) ([]SearchResult, error) {
	params := url.Values{}
	params.Set("engine", "duckduckgo")
	params.Set("q", query)
	params.Set("api_key", apiKey)
	params.Set("kl", "us-en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	utils.Debug("Web search", "query", query, "num_results", n)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search API returned status %d: %s", resp.StatusCode, utils.TruncateContent(string(raw), 200))
	}

	var data serpResponse
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if data.Error != "" {
		return nil, fmt.Errorf("search API error: %s", data.Error)
	}

	results := make([]SearchResult, 0, n)
	for _, r := range data.OrganicResults {
		if len(results) >= n {
			break
		}
		results = append(results, SearchResult{Title: r.Title, Link: r.Link, Snippet: r.Snippet})
	}
	if kg := data.KnowledgeGraph; kg != nil && len(results) < n {
		results = append(results, SearchResult{Title: kg.Title, Link: kg.Website, Snippet: kg.Description})
	}
	for _, r := range data.RelatedSearches {
		if len(results) >= n {
			break
		}
		results = append(results, SearchResult{
			Title:   "Related: " + r.Query,
			Link:    r.Link,
			Snippet: "Related search suggestion",
		})
	}
	return results, nil
}
