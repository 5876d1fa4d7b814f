package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/MrWong99/fireside/internal/command"
	"github.com/MrWong99/fireside/internal/command/template"
	"github.com/MrWong99/fireside/internal/config"
)

// openMeteoURL is the forecast endpoint. Open-Meteo needs no API key.
const openMeteoURL = "https://api.open-meteo.com/v1/forecast"

// WeatherCommand answers current-conditions questions for the configured
// location using the Open-Meteo API.
type WeatherCommand struct {
	phrases *template.Set
	client  *http.Client
	baseURL string

	mu  sync.RWMutex
	cfg config.WeatherConfig
}

var _ command.Command = (*WeatherCommand)(nil)

// WeatherOption is a functional option for configuring a WeatherCommand.
type WeatherOption func(*WeatherCommand)

// WithWeatherBaseURL overrides the forecast endpoint, mainly for tests.
func WithWeatherBaseURL(u string) WeatherOption {
	return func(c *WeatherCommand) { c.baseURL = u }
}

// WithWeatherClient overrides the HTTP client.
func WithWeatherClient(hc *http.Client) WeatherOption {
	return func(c *WeatherCommand) { c.client = hc }
}

// NewWeatherCommand creates the weather command for the configured location.
func NewWeatherCommand(cfg config.WeatherConfig, opts ...WeatherOption) *WeatherCommand {
	c := &WeatherCommand{
		phrases: template.NewSet(
			"what is the weather",
			"what's the weather",
			"what is the weather like",
			"what's the weather like",
			"how is the weather",
			"what is the temperature",
			"what's the temperature",
			"how cold is it",
			"how hot is it",
			"how warm is it",
			"is it raining",
			"what is the weather like today",
		),
		cfg:     cfg,
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: openMeteoURL,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *WeatherCommand) Name() string { return "weather" }

// SetLocation swaps the forecast location, e.g. after a config reload.
func (c *WeatherCommand) SetLocation(cfg config.WeatherConfig) {
	c.mu.Lock()
	c.cfg = cfg
	c.mu.Unlock()
}

func (c *WeatherCommand) location() config.WeatherConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

func (c *WeatherCommand) Score(text string) float64 {
	if s := c.phrases.Score(text); s > 0 {
		return s
	}
	return template.KeywordScore(text, "weather") * 0.8
}

// forecast mirrors the subset of the Open-Meteo response the command reads.
type forecast struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
		Apparent    float64 `json:"apparent_temperature"`
		WeatherCode int     `json:"weather_code"`
		WindSpeed   float64 `json:"wind_speed_10m"`
	} `json:"current"`
}

func (c *WeatherCommand) Handle(ctx context.Context, text string) (command.Response, error) {
	loc := c.location()
	if loc.Latitude == 0 && loc.Longitude == 0 {
		return command.Response{Text: "I do not know where you are. Set a location in my configuration."}, nil
	}

	fc, err := c.fetch(ctx, loc)
	if err != nil {
		return command.Response{}, fmt.Errorf("builtin: weather lookup: %w", err)
	}

	place := loc.Location
	if place == "" {
		place = "your location"
	}
	temp := int(math.Round(fc.Current.Temperature))
	msg := fmt.Sprintf("It is %d degrees and %s in %s.",
		temp, describeWeatherCode(fc.Current.WeatherCode), place)
	if feels := int(math.Round(fc.Current.Apparent)); feels != temp {
		msg += fmt.Sprintf(" It feels like %d.", feels)
	}
	return command.Response{Text: msg}, nil
}

func (c *WeatherCommand) fetch(ctx context.Context, loc config.WeatherConfig) (*forecast, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(loc.Latitude, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(loc.Longitude, 'f', 4, 64))
	q.Set("current", "temperature_2m,apparent_temperature,weather_code,wind_speed_10m")
	q.Set("temperature_unit", "fahrenheit")
	if loc.Timezone != "" {
		q.Set("timezone", loc.Timezone)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var fc forecast
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &fc, nil
}

// describeWeatherCode translates WMO interpretation codes into spoken text.
func describeWeatherCode(code int) string {
	switch {
	case code == 0:
		return "clear"
	case code <= 2:
		return "partly cloudy"
	case code == 3:
		return "overcast"
	case code == 45 || code == 48:
		return "foggy"
	case code >= 51 && code <= 57:
		return "drizzling"
	case code >= 61 && code <= 67:
		return "raining"
	case code >= 71 && code <= 77:
		return "snowing"
	case code >= 80 && code <= 82:
		return "showering rain"
	case code == 85 || code == 86:
		return "showering snow"
	case code >= 95:
		return "stormy"
	default:
		return "unsettled"
	}
}
