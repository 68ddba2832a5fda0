package widget

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"

	"github.com/bobby-s-dev/weather-widget/internal/models"
	"github.com/bobby-s-dev/weather-widget/pkg/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeProvider struct {
	mu           sync.Mutex
	geocodeCalls []string
	weatherCalls []models.WeatherQuery

	suggestions []models.Suggestion
	geocodeErr  error
	report      *models.WeatherReport
	weatherErr  error

	// hooks run inside the call, before it returns
	onGeocode func(text string)
	onWeather func(q models.WeatherQuery)
}

func (p *fakeProvider) Geocode(ctx context.Context, text string, limit int) ([]models.Suggestion, error) {
	p.mu.Lock()
	p.geocodeCalls = append(p.geocodeCalls, text)
	hook := p.onGeocode
	p.mu.Unlock()
	if hook != nil {
		hook(text)
	}
	return p.suggestions, p.geocodeErr
}

func (p *fakeProvider) CurrentWeather(ctx context.Context, q models.WeatherQuery) (*models.WeatherReport, error) {
	p.mu.Lock()
	p.weatherCalls = append(p.weatherCalls, q)
	hook := p.onWeather
	p.mu.Unlock()
	if hook != nil {
		hook(q)
	}
	return p.report, p.weatherErr
}

func newTestWidget(p *fakeProvider) (*Widget, *fakeClock) {
	clock := &fakeClock{}
	w := New(p, Options{AfterFunc: clock.AfterFunc}, zap.NewNop())
	return w, clock
}

var london = models.Suggestion{Name: "London", Country: "GB", Lat: 51.5, Lon: -0.12}

func TestInput_BlankTextClearsWithoutRequest(t *testing.T) {
	for _, text := range []string{"", " ", "\t\n  "} {
		p := &fakeProvider{suggestions: []models.Suggestion{london}}
		w, clock := newTestWidget(p)

		w.Input("Lon")
		clock.FireAll()
		require.Len(t, w.Snapshot().Suggestions, 1)

		w.Input(text)
		assert.Empty(t, w.Snapshot().Suggestions)
		assert.Equal(t, 0, clock.FireAll())
		assert.Equal(t, []string{"Lon"}, p.geocodeCalls)
	}
}

func TestInput_DebouncesToOneRequest(t *testing.T) {
	p := &fakeProvider{suggestions: []models.Suggestion{london}}
	w, clock := newTestWidget(p)

	w.Input("L")
	w.Input("Lo")
	w.Input("Lon")
	assert.Empty(t, p.geocodeCalls)

	assert.Equal(t, 1, clock.FireAll())
	assert.Equal(t, []string{"Lon"}, p.geocodeCalls)
	assert.Equal(t, DefaultDebounce, clock.timers[0].wait)
}

func TestInput_NormalizesAndLimitsSuggestions(t *testing.T) {
	records := []models.Suggestion{
		{Name: "Springfield", Country: "US", State: "Illinois", Lat: 39.8, Lon: -89.6},
		{Name: "Springfield", Country: "US", State: "Missouri", Lat: 37.2, Lon: -93.3},
		{Name: "Springfield", Country: "US", Lat: 42.1, Lon: -72.6},
		{Name: "Springfield", Country: "AU", Lat: -27.6, Lon: 152.9},
		{Name: "Springfield", Country: "NZ", Lat: -43.3, Lon: 171.9},
		{Name: "Springfield", Country: "CA", Lat: 45.1, Lon: -64.3},
	}
	p := &fakeProvider{suggestions: records}
	w, clock := newTestWidget(p)

	w.Input("spring")
	clock.FireAll()

	view := w.Snapshot()
	require.Len(t, view.Suggestions, DefaultSuggestionLimit)
	assert.Equal(t, "Springfield, Illinois, US", view.Suggestions[0].Display)
	assert.Equal(t, "Springfield, US", view.Suggestions[2].Display)
	assert.Equal(t, "", view.Suggestions[2].State)
	assert.Nil(t, view.Suggestions[2].StateMatch)
	assert.Equal(t, models.Segments{Match: "Spring", Suffix: "field", Matched: true}, view.Suggestions[0].NameMatch)
}

func TestInput_FailureClearsSuggestionsSilently(t *testing.T) {
	p := &fakeProvider{suggestions: []models.Suggestion{london}}
	w, clock := newTestWidget(p)

	w.Input("Lon")
	clock.FireAll()
	require.Len(t, w.Snapshot().Suggestions, 1)

	p.suggestions = nil
	p.geocodeErr = &client.StatusError{Code: 500}
	w.Input("Lond")
	clock.FireAll()

	view := w.Snapshot()
	assert.Empty(t, view.Suggestions)
	assert.Empty(t, view.ErrorMessage)
}

func TestInput_StaleResponseIsDiscarded(t *testing.T) {
	p := &fakeProvider{suggestions: []models.Suggestion{london}}
	w, clock := newTestWidget(p)

	// The user clears the box while the lookup for "Lon" is in flight.
	p.onGeocode = func(string) { w.Input("") }

	w.Input("Lon")
	clock.FireAll()

	view := w.Snapshot()
	assert.Equal(t, "", view.Query)
	assert.Empty(t, view.Suggestions)
}

func TestSubmit_EmptyQueryFailsFast(t *testing.T) {
	p := &fakeProvider{report: &models.WeatherReport{Name: "Paris"}}
	w, _ := newTestWidget(p)

	w.Input("Paris")
	_, err := w.Submit(context.Background())
	require.NoError(t, err)
	require.NotNil(t, w.Snapshot().Report)

	w.Input("   ")
	view, err := w.Submit(context.Background())
	assert.ErrorIs(t, err, ErrEmptyQuery)
	assert.Equal(t, MsgEmptyQuery, view.ErrorMessage)
	assert.Nil(t, view.Report)
	assert.False(t, view.Loading)
	assert.Len(t, p.weatherCalls, 1)
}

func TestSubmit_SuccessAndFailureAreExclusive(t *testing.T) {
	tests := []struct {
		name       string
		report     *models.WeatherReport
		err        error
		wantReport bool
		wantError  string
	}{
		{
			name:       "success",
			report:     &models.WeatherReport{Name: "Paris", Country: "FR", Temperature: 18.2},
			wantReport: true,
		},
		{
			name:      "not found",
			err:       &client.StatusError{Code: 404, Message: "city not found"},
			wantError: MsgCityNotFound,
		},
		{
			name:      "transport failure",
			err:       &url.Error{Op: "Get", URL: "https://x/weather?appid=secret", Err: errors.New("connection refused")},
			wantError: "connection refused",
		},
		{
			name:      "malformed body",
			err:       errors.New("failed to parse response: unexpected end of JSON input"),
			wantError: "failed to parse response: unexpected end of JSON input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProvider{report: tt.report, weatherErr: tt.err}
			w, _ := newTestWidget(p)

			var sawLoading bool
			p.onWeather = func(models.WeatherQuery) { sawLoading = w.Snapshot().Loading }

			w.Input("Paris")
			view, _ := w.Submit(context.Background())

			assert.True(t, sawLoading)
			assert.False(t, view.Loading)
			assert.Equal(t, tt.wantReport, view.Report != nil)
			assert.Equal(t, tt.wantError, view.ErrorMessage)
			require.Len(t, p.weatherCalls, 1)
			assert.Equal(t, models.WeatherQuery{Name: "Paris"}, p.weatherCalls[0])
		})
	}
}

func TestSubmit_FailureClearsPreviousReport(t *testing.T) {
	p := &fakeProvider{report: &models.WeatherReport{Name: "Paris"}}
	w, _ := newTestWidget(p)

	w.Input("Paris")
	_, err := w.Submit(context.Background())
	require.NoError(t, err)

	p.report = nil
	p.weatherErr = &client.StatusError{Code: 404}
	w.Input("Atlantis")
	view, err := w.Submit(context.Background())

	assert.Error(t, err)
	assert.Nil(t, view.Report)
	assert.Equal(t, MsgCityNotFound, view.ErrorMessage)
}

func TestSubmit_LatestFetchWins(t *testing.T) {
	p := &fakeProvider{report: &models.WeatherReport{Name: "Old"}}
	w, _ := newTestWidget(p)

	// A second search starts while the first is still in flight.
	p.onWeather = func(q models.WeatherQuery) {
		if q.Name != "first" {
			return
		}
		p.onWeather = nil
		p.report = &models.WeatherReport{Name: "New"}
		w.Input("second")
		_, err := w.Submit(context.Background())
		assert.NoError(t, err)
		p.report = &models.WeatherReport{Name: "Old"}
	}

	w.Input("first")
	view, err := w.Submit(context.Background())
	require.NoError(t, err)
	require.NotNil(t, view.Report)
	assert.Equal(t, "New", view.Report.Name)
	assert.False(t, view.Loading)
}

func TestSelect_LondonScenario(t *testing.T) {
	p := &fakeProvider{
		suggestions: []models.Suggestion{london},
		report:      &models.WeatherReport{Name: "London", Country: "GB", Temperature: 11.3},
	}
	w, clock := newTestWidget(p)

	w.Input("Lon")
	assert.Equal(t, 1, clock.FireAll())

	view := w.Snapshot()
	require.Len(t, view.Suggestions, 1)
	assert.Equal(t, "London, GB", view.Suggestions[0].Display)
	assert.Equal(t, models.Segments{Match: "Lon", Suffix: "don", Matched: true}, view.Suggestions[0].NameMatch)

	view, err := w.Select(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, "London, GB", view.Query)
	assert.Empty(t, view.Suggestions)
	require.Len(t, p.weatherCalls, 1)
	assert.Equal(t, models.WeatherQuery{Name: "London", Coords: &models.Coordinate{Lat: 51.5, Lon: -0.12}}, p.weatherCalls[0])
	require.NotNil(t, view.Report)
	assert.Equal(t, "London", view.Report.Name)
	assert.False(t, view.Loading)
	assert.Empty(t, view.ErrorMessage)
}

func TestSelect_CancelsPendingSuggestionLookup(t *testing.T) {
	p := &fakeProvider{
		suggestions: []models.Suggestion{london},
		report:      &models.WeatherReport{Name: "London"},
	}
	w, clock := newTestWidget(p)

	w.Input("Lon")
	clock.FireAll()
	w.Input("Lond")

	_, err := w.Select(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, 0, clock.FireAll())
	assert.Empty(t, w.Snapshot().Suggestions)
	assert.Len(t, p.geocodeCalls, 1)
}

func TestSelect_IncludesStateInQuery(t *testing.T) {
	p := &fakeProvider{report: &models.WeatherReport{Name: "Portland"}}
	w, _ := newTestWidget(p)

	view, err := w.SelectSuggestion(context.Background(), models.Suggestion{
		Name: "Portland", State: "Oregon", Country: "US", Lat: 45.5, Lon: -122.7,
	})
	require.NoError(t, err)
	assert.Equal(t, "Portland, Oregon, US", view.Query)
}

func TestSelect_OutOfRange(t *testing.T) {
	p := &fakeProvider{}
	w, _ := newTestWidget(p)

	_, err := w.Select(context.Background(), 0)
	assert.ErrorIs(t, err, ErrNoSuchSuggestion)
	assert.Empty(t, p.weatherCalls)
}

func TestOnChange_ReceivesViews(t *testing.T) {
	var views []models.View
	p := &fakeProvider{suggestions: []models.Suggestion{london}}
	clock := &fakeClock{}
	w := New(p, Options{
		AfterFunc: clock.AfterFunc,
		OnChange:  func(v models.View) { views = append(views, v) },
	}, zap.NewNop())

	w.Input("Lon")
	clock.FireAll()

	require.Len(t, views, 2)
	assert.Empty(t, views[0].Suggestions)
	assert.Len(t, views[1].Suggestions, 1)
}

func TestClose_DropsPendingLookup(t *testing.T) {
	p := &fakeProvider{}
	w, clock := newTestWidget(p)

	w.Input("Lon")
	w.Close()

	assert.Equal(t, 0, clock.FireAll())
	assert.Empty(t, p.geocodeCalls)
}
