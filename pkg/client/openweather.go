package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bobby-s-dev/weather-widget/internal/models"
	"go.uber.org/zap"
)

const (
	DefaultGeoURL     = "https://api.openweathermap.org/geo/1.0"
	DefaultWeatherURL = "https://api.openweathermap.org/data/2.5"
	DefaultIconURL    = "https://openweathermap.org/img/wn"
)

type OpenWeatherClient struct {
	*BaseClient
	apiKey     string
	geoURL     string
	weatherURL string
	iconURL    string
}

// Endpoints overrides the provider base URLs. Empty fields keep the defaults.
type Endpoints struct {
	GeoURL     string
	WeatherURL string
	IconURL    string
}

type OpenWeatherGeoRecord struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	State   string  `json:"state"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

type OpenWeatherCurrentResponse struct {
	Coord struct {
		Lon float64 `json:"lon"`
		Lat float64 `json:"lat"`
	} `json:"coord"`
	Weather []struct {
		ID          int    `json:"id"`
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Pressure  float64 `json:"pressure"`
		Humidity  float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   float64 `json:"deg"`
	} `json:"wind"`
	Dt  int64 `json:"dt"`
	Sys struct {
		Country string `json:"country"`
	} `json:"sys"`
	Name string `json:"name"`
}

func NewOpenWeatherClient(apiKey string, endpoints Endpoints, config ClientConfig, logger *zap.Logger) *OpenWeatherClient {
	baseClient := NewBaseClient("openweather", config, logger)
	return newOpenWeatherClient(baseClient, apiKey, endpoints)
}

func newOpenWeatherClient(base *BaseClient, apiKey string, endpoints Endpoints) *OpenWeatherClient {
	c := &OpenWeatherClient{
		BaseClient: base,
		apiKey:     apiKey,
		geoURL:     DefaultGeoURL,
		weatherURL: DefaultWeatherURL,
		iconURL:    DefaultIconURL,
	}
	if endpoints.GeoURL != "" {
		c.geoURL = strings.TrimRight(endpoints.GeoURL, "/")
	}
	if endpoints.WeatherURL != "" {
		c.weatherURL = strings.TrimRight(endpoints.WeatherURL, "/")
	}
	if endpoints.IconURL != "" {
		c.iconURL = strings.TrimRight(endpoints.IconURL, "/")
	}
	return c
}

// Geocode resolves free text to at most limit places.
func (c *OpenWeatherClient) Geocode(ctx context.Context, text string, limit int) ([]models.Suggestion, error) {
	params := url.Values{}
	params.Set("q", text)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("appid", c.apiKey)

	data, err := c.Get(ctx, "geocode", fmt.Sprintf("%s/direct?%s", c.geoURL, params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch suggestions: %w", err)
	}

	var records []OpenWeatherGeoRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse suggestions: %w", err)
	}

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	suggestions := make([]models.Suggestion, 0, len(records))
	for _, r := range records {
		suggestions = append(suggestions, models.Suggestion{
			Name:    r.Name,
			Country: r.Country,
			State:   r.State,
			Lat:     r.Lat,
			Lon:     r.Lon,
		})
	}

	return suggestions, nil
}

// CurrentWeather fetches metric current conditions by coordinates or by name.
func (c *OpenWeatherClient) CurrentWeather(ctx context.Context, query models.WeatherQuery) (*models.WeatherReport, error) {
	params := url.Values{}
	if query.UseCoords() {
		params.Set("lat", strconv.FormatFloat(query.Coords.Lat, 'f', -1, 64))
		params.Set("lon", strconv.FormatFloat(query.Coords.Lon, 'f', -1, 64))
	} else {
		params.Set("q", query.Name)
	}
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")

	data, err := c.Get(ctx, "weather", fmt.Sprintf("%s/weather?%s", c.weatherURL, params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch current weather: %w", err)
	}

	var response OpenWeatherCurrentResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	report := &models.WeatherReport{
		Name:        response.Name,
		Country:     response.Sys.Country,
		ObservedAt:  time.Unix(response.Dt, 0).UTC(),
		Temperature: response.Main.Temp,
		Humidity:    response.Main.Humidity,
		WindSpeed:   response.Wind.Speed,
	}
	if len(response.Weather) > 0 {
		report.Condition = response.Weather[0].Main
		report.Description = response.Weather[0].Description
		report.Icon = response.Weather[0].Icon
		report.IconURL = c.IconURL(report.Icon)
	}

	return report, nil
}

// IconURL returns the 2x PNG for an OpenWeather icon id.
func (c *OpenWeatherClient) IconURL(icon string) string {
	if icon == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s@2x.png", c.iconURL, icon)
}
