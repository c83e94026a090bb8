package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/harunnryd/mcpilot/internal/errors"
	toolcore "github.com/harunnryd/mcpilot/internal/tool"
)

func init() {
	toolcore.RegisterBuiltin("get_weather", func(options toolcore.BuiltinOptions) (toolcore.Tool, error) {
		return &WeatherTool{}, nil
	})
}

// Report is one entry of the mock weather table.
type Report struct {
	City        string `json:"city"`
	Temperature int    `json:"temperature"`
	Condition   string `json:"condition"`
	Humidity    int    `json:"humidity"`
}

var weatherTable = map[string]Report{
	"北京": {City: "北京", Temperature: 25, Condition: "晴天", Humidity: 45},
	"上海": {City: "上海", Temperature: 22, Condition: "多云", Humidity: 60},
	"广州": {City: "广州", Temperature: 28, Condition: "小雨", Humidity: 75},
	"深圳": {City: "深圳", Temperature: 27, Condition: "阵雨", Humidity: 80},
}

var cityAliases = map[string]string{
	"beijing":   "北京",
	"shanghai":  "上海",
	"guangzhou": "广州",
	"shenzhen":  "深圳",
}

// KnownCities lists the cities the weather tool answers for, in match order.
// English aliases follow the Chinese names.
func KnownCities() []string {
	return []string{"北京", "上海", "广州", "深圳", "Beijing", "Shanghai", "Guangzhou", "Shenzhen"}
}

// WeatherTool answers from a fixed table; it never calls a real service.
type WeatherTool struct{}

func (t *WeatherTool) Name() string { return "get_weather" }

func (t *WeatherTool) Description() string {
	return "Get current weather (temperature, condition, humidity) for a city. Supports Beijing, Shanghai, Guangzhou and Shenzhen."
}

func (t *WeatherTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"city": map[string]interface{}{
				"type":        "string",
				"description": "City name, in Chinese or English (for example: 北京 or Beijing)",
			},
		},
		"required": []string{"city"},
	}
}

func (t *WeatherTool) Execute(ctx context.Context, input json.RawMessage) (*toolcore.Result, error) {
	var args struct {
		City string `json:"city"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid input: %v", err))
	}

	report, ok := LookupWeather(args.City)
	if !ok {
		return nil, apperrors.NotFound(fmt.Sprintf("no weather data for %s", strings.TrimSpace(args.City)))
	}
	return toolcore.JSONResult(report)
}

// LookupWeather resolves a Chinese or English city name against the table.
func LookupWeather(city string) (Report, bool) {
	key := strings.TrimSpace(city)
	if alias, ok := cityAliases[strings.ToLower(key)]; ok {
		key = alias
	}
	report, ok := weatherTable[key]
	return report, ok
}
