package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zhoulinyu/imbot/internal/logging"
)

// Weather queries current conditions for a city via the uapis.cn misc
// weather endpoint.
type Weather struct {
	baseURL string
	client  *http.Client
	log     *logging.Logger
}

func NewWeather(baseURL string, log *logging.Logger) *Weather {
	return &Weather{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
		log:     log.Sub("weather"),
	}
}

func (w *Weather) Name() string { return "get_weather" }

func (w *Weather) Description() string {
	return "查询指定城市的天气情况。当用户询问天气、气温、下雨吗等问题时使用此工具。"
}

func (w *Weather) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"city": map[string]interface{}{
				"type":        "string",
				"description": "城市名称，例如：北京、上海、深圳",
			},
		},
		"required": []string{"city"},
	}
}

type weatherResponse struct {
	Code          int             `json:"code"`
	Msg           string          `json:"msg"`
	City          string          `json:"city"`
	Weather       string          `json:"weather"`
	Temperature   json.RawMessage `json:"temperature"`
	WindDirection string          `json:"wind_direction"`
}

// temperature arrives as a number or a string depending on the upstream
// provider the API proxied that day.
func (r *weatherResponse) temperatureString() string {
	raw := strings.TrimSpace(string(r.Temperature))
	if raw == "" || raw == "null" {
		return "未知"
	}
	var s string
	if err := json.Unmarshal(r.Temperature, &s); err == nil {
		return s
	}
	var n float64
	if err := json.Unmarshal(r.Temperature, &n); err == nil {
		return fmt.Sprintf("%g", n)
	}
	return raw
}

func (w *Weather) Execute(ctx context.Context, args map[string]interface{}) string {
	city, _ := args["city"].(string)
	if strings.TrimSpace(city) == "" {
		return "天气查询失败：缺少城市名称"
	}

	endpoint := w.baseURL + "?city=" + url.QueryEscape(city)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Sprintf("天气查询失败：%v", err)
	}

	w.log.Info().Str("city", city).Msg("querying weather")
	resp, err := w.client.Do(req)
	if err != nil {
		w.log.Warn().Err(err).Msg("weather request failed")
		return fmt.Sprintf("查询出错: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Sprintf("查询出错: %v", err)
	}

	var r weatherResponse
	if err := json.Unmarshal(raw, &r); err != nil {
		w.log.Warn().Err(err).Msg("weather response not parseable")
		return "天气数据解析失败"
	}
	if r.Code != 200 {
		msg := r.Msg
		if msg == "" {
			msg = "未知错误"
		}
		return fmt.Sprintf("查询失败: %s", msg)
	}

	name := r.City
	if name == "" {
		name = city
	}
	weather := r.Weather
	if weather == "" {
		weather = "未知"
	}
	return fmt.Sprintf("%s当前天气%s，气温%s℃，%s", name, weather, r.temperatureString(), r.WindDirection)
}
