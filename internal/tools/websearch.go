package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zhoulinyu/imbot/internal/logging"
)

// WebSearch queries the uapis.cn aggregate search endpoint.
type WebSearch struct {
	baseURL string
	client  *http.Client
	log     *logging.Logger
}

func NewWebSearch(baseURL string, log *logging.Logger) *WebSearch {
	return &WebSearch{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
		log:     log.Sub("websearch"),
	}
}

func (s *WebSearch) Name() string { return "web_search" }

func (s *WebSearch) Description() string {
	return "使用搜索引擎查询互联网上的实时信息。当用户询问最新新闻、技术文档、版本号或其他需要实时检索的问题时使用。"
}

func (s *WebSearch) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "搜索关键词",
			},
		},
		"required": []string{"query"},
	}
}

type searchResponse struct {
	// The API returns results on success and code/message on failure.
	Code    string `json:"code"`
	Message string `json:"message"`
	Results []struct {
		Title       string `json:"title"`
		URL         string `json:"url"`
		Snippet     string `json:"snippet"`
		PublishTime string `json:"publish_time"`
	} `json:"results"`
}

func (s *WebSearch) Execute(ctx context.Context, args map[string]interface{}) string {
	query, _ := args["query"].(string)
	if strings.TrimSpace(query) == "" {
		return "搜索失败：缺少搜索关键词"
	}

	payload, err := json.Marshal(map[string]interface{}{
		"query":      query,
		"fetch_full": false,
		"timeout_ms": 5000,
	})
	if err != nil {
		return fmt.Sprintf("搜索出错: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Sprintf("搜索出错: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	s.log.Info().Str("query", query).Msg("searching web")
	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Warn().Err(err).Msg("search request failed")
		return fmt.Sprintf("搜索出错: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Sprintf("搜索出错: %v", err)
	}

	var r searchResponse
	if err := json.Unmarshal(raw, &r); err != nil {
		s.log.Warn().Err(err).Msg("search response not parseable")
		return "搜索结果解析失败"
	}
	if r.Code != "" {
		msg := r.Message
		if msg == "" {
			msg = "未知错误"
		}
		return fmt.Sprintf("搜索失败: %s - %s", r.Code, msg)
	}
	if len(r.Results) == 0 {
		return "未找到相关搜索结果。"
	}

	var out strings.Builder
	out.WriteString("找到以下搜索结果：\n")
	for i, res := range r.Results {
		if i == 5 {
			break
		}
		out.WriteString(fmt.Sprintf("%d. [%s](%s)\n", i+1, res.Title, res.URL))
		out.WriteString(fmt.Sprintf("   %s\n", truncate(res.Snippet, 100)))
		if res.PublishTime != "" {
			out.WriteString(fmt.Sprintf("   (发布时间: %s)\n", res.PublishTime))
		}
	}
	return out.String()
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
