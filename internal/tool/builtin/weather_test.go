package builtin

import (
	"context"
	"encoding/json"
	"testing"

	apperrors "github.com/harunnryd/mcpilot/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeatherToolExecute(t *testing.T) {
	tool := &WeatherTool{}

	res, err := tool.Execute(context.Background(), json.RawMessage(`{"city":"北京"}`))
	require.NoError(t, err)

	var report Report
	require.NoError(t, res.Decode(&report))
	assert.Equal(t, Report{City: "北京", Temperature: 25, Condition: "晴天", Humidity: 45}, report)

	res, err = tool.Execute(context.Background(), json.RawMessage(`{"city":" shenzhen "}`))
	require.NoError(t, err)
	require.NoError(t, res.Decode(&report))
	assert.Equal(t, 80, report.Humidity)
}

func TestWeatherToolUnknownCity(t *testing.T) {
	_, err := (&WeatherTool{}).Execute(context.Background(), json.RawMessage(`{"city":"Paris"}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestKnownCitiesAllResolve(t *testing.T) {
	for _, city := range KnownCities() {
		_, ok := LookupWeather(city)
		assert.True(t, ok, city)
	}
}
