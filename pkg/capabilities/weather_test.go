package capabilities

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/GYFX35/AI-services/pkg/envelope"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestWeather_FormatsConditions(t *testing.T) {
	body := `{
		"location": {"name": "Paris", "region": "Ile-de-France", "country": "France"},
		"current": {
			"temp_c": 21.5, "temp_f": 70.7,
			"condition": {"text": "Partly cloudy"},
			"wind_mph": 8, "humidity": 60
		}
	}`
	client := &http.Client{Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		if got := r.URL.Query().Get("q"); got != "Paris" {
			t.Errorf("capabilities:weather_test - expected location query Paris, got %q", got)
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(body)),
			Header:     make(http.Header),
		}, nil
	})}

	deps := Deps{HTTPClient: client, WeatherAPIKey: "test-key"}
	payload, _ := json.Marshal(weatherPayload{Location: "Paris"})
	result, err := deps.weather(context.Background(), payload, nil)
	if err != nil {
		t.Fatalf("capabilities:weather_test - weather failed: %v", err)
	}
	text := result.(envelope.TextResult).Content
	for _, want := range []string{"Weather in Paris, Ile-de-France, France:", "21.5°C / 70.7°F", "Partly cloudy", "Humidity: 60%"} {
		if !strings.Contains(text, want) {
			t.Errorf("capabilities:weather_test - report missing %q: %q", want, text)
		}
	}
}

func TestWeather_ProviderError(t *testing.T) {
	client := &http.Client{Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusBadRequest,
			Body:       io.NopCloser(strings.NewReader(`{"error": {"message": "No matching location found."}}`)),
			Header:     make(http.Header),
		}, nil
	})}
	deps := Deps{HTTPClient: client, WeatherAPIKey: "test-key"}
	payload, _ := json.Marshal(weatherPayload{Location: "Nowhereville"})
	_, err := deps.weather(context.Background(), payload, nil)
	if err == nil || !strings.Contains(err.Error(), "No matching location found") {
		t.Fatalf("capabilities:weather_test - expected provider error, got %v", err)
	}
}

func TestWeather_RequiresConfiguration(t *testing.T) {
	deps := Deps{}
	payload, _ := json.Marshal(weatherPayload{Location: "Paris"})
	if _, err := deps.weather(context.Background(), payload, nil); err == nil {
		t.Fatalf("capabilities:weather_test - expected error without API key")
	}
	deps.WeatherAPIKey = "k"
	if _, err := deps.weather(context.Background(), json.RawMessage(`{}`), nil); err == nil {
		t.Fatalf("capabilities:weather_test - expected error without location")
	}
}
