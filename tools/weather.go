// Weather tool backed by the Open-Meteo geocoding and forecast APIs.
//
// Information Hiding:
// - Geocoding and forecast endpoints hidden
// - Response shapes of both upstream APIs internalized

package tools

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/richinex/didact/llm"
)

const (
	defaultGeocodeURL  = "https://geocoding-api.open-meteo.com/v1/search"
	defaultForecastURL = "https://api.open-meteo.com/v1/forecast"
)

// WeatherTool resolves a location to coordinates and fetches current
// conditions there.
type WeatherTool struct {
	client      *http.Client
	geocodeURL  string
	forecastURL string
}

// NewWeatherTool creates a weather tool whose upstream calls are bounded
// by the given timeout.
func NewWeatherTool(timeout time.Duration) *WeatherTool {
	return &WeatherTool{
		client:      &http.Client{Timeout: timeout},
		geocodeURL:  defaultGeocodeURL,
		forecastURL: defaultForecastURL,
	}
}

// WithEndpoints overrides the upstream URLs (used in tests).
func (t *WeatherTool) WithEndpoints(geocodeURL, forecastURL string) *WeatherTool {
	t.geocodeURL = geocodeURL
	t.forecastURL = forecastURL
	return t
}

// Declaration returns the schema advertised to the model.
func (t *WeatherTool) Declaration() llm.ToolDeclaration {
	return llm.ToolDeclaration{
		Name:        "get_weather",
		Description: "Gets current weather for a given location string (e.g., 'London', 'New York').",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"location": map[string]any{
					"type":        "string",
					"description": "City or place name.",
				},
				"unit": map[string]any{
					"type":        "string",
					"enum":        []string{"celsius", "fahrenheit"},
					"description": "Temperature unit. Default celsius.",
				},
			},
			"required": []string{"location"},
		},
	}
}

type geocodeResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Country   string  `json:"country"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

type forecastResponse struct {
	CurrentWeather *struct {
		Temperature float64 `json:"temperature"`
		Windspeed   float64 `json:"windspeed"`
		Time        string  `json:"time"`
	} `json:"current_weather"`
}

// Call resolves the location and fetches current conditions.
func (t *WeatherTool) Call(ctx context.Context, args map[string]any) (any, error) {
	location, ok := stringArg(args, "location")
	if !ok {
		return nil, errors.New("Location is required as a string.")
	}

	tempUnit := "celsius"
	if unit, _ := args["unit"].(string); unit == "fahrenheit" {
		tempUnit = "fahrenheit"
	}

	var geo geocodeResponse
	geoURL := fmt.Sprintf("%s?name=%s&count=1", t.geocodeURL, url.QueryEscape(location))
	if err := getJSON(ctx, t.client, geoURL, &geo); err != nil {
		return nil, err
	}
	if len(geo.Results) == 0 {
		return nil, fmt.Errorf("Could not find coordinates for %q", location)
	}
	hit := geo.Results[0]

	var forecast forecastResponse
	wxURL := fmt.Sprintf("%s?latitude=%v&longitude=%v&current_weather=true&temperature_unit=%s",
		t.forecastURL, hit.Latitude, hit.Longitude, tempUnit)
	if err := getJSON(ctx, t.client, wxURL, &forecast); err != nil {
		return nil, err
	}

	current := forecast.CurrentWeather
	if current == nil {
		return nil, errors.New("No current weather found.")
	}

	unitLabel, windLabel := "°C", "km/h"
	if tempUnit == "fahrenheit" {
		unitLabel, windLabel = "°F", "mph"
	}

	return map[string]any{
		"location":       strings.TrimSpace(fmt.Sprintf("%s, %s", hit.Name, hit.Country)),
		"temperature":    current.Temperature,
		"unit":           unitLabel,
		"windspeed":      current.Windspeed,
		"windspeed_unit": windLabel,
		"time":           current.Time,
	}, nil
}

// Verify WeatherTool implements Tool
var _ Tool = (*WeatherTool)(nil)
