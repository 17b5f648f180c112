package capabilities

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/GYFX35/AI-services/pkg/auth"
	"github.com/GYFX35/AI-services/pkg/envelope"
)

const weatherEndpoint = "http://api.weatherapi.com/v1/current.json"

type weatherPayload struct {
	Location string `json:"location"`
}

// weatherResponse mirrors the subset of the weatherapi.com current.json
// response we report on.
type weatherResponse struct {
	Location struct {
		Name    string `json:"name"`
		Region  string `json:"region"`
		Country string `json:"country"`
	} `json:"location"`
	Current struct {
		TempC     float64 `json:"temp_c"`
		TempF     float64 `json:"temp_f"`
		Condition struct {
			Text string `json:"text"`
		} `json:"condition"`
		WindMPH  float64 `json:"wind_mph"`
		Humidity int     `json:"humidity"`
	} `json:"current"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (d *Deps) weather(ctx context.Context, payload json.RawMessage, _ *auth.Caller) (envelope.ResultPayload, error) {
	var p weatherPayload
	if err := json.Unmarshal(payload, &p); err != nil || p.Location == "" {
		return nil, fmt.Errorf("location is required")
	}
	if d.WeatherAPIKey == "" {
		return nil, fmt.Errorf("weather lookups are not configured")
	}

	query := url.Values{}
	query.Set("key", d.WeatherAPIKey)
	query.Set("q", p.Location)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, weatherEndpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("fetching weather data: %w", err)
	}

	resp, err := d.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching weather data: %w", err)
	}
	defer resp.Body.Close()

	var data weatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("fetching weather data: %w", err)
	}
	if data.Error != nil {
		return nil, fmt.Errorf("%s", data.Error.Message)
	}

	text := fmt.Sprintf("Weather in %s, %s, %s:\nTemperature: %g°C / %g°F\nCondition: %s\nWind: %g mph\nHumidity: %d%%",
		data.Location.Name, data.Location.Region, data.Location.Country,
		data.Current.TempC, data.Current.TempF,
		data.Current.Condition.Text,
		data.Current.WindMPH, data.Current.Humidity)
	return envelope.TextResult{Content: text}, nil
}
