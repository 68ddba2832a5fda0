package widget

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bobby-s-dev/weather-widget/internal/models"
	"github.com/bobby-s-dev/weather-widget/pkg/client"
	"go.uber.org/zap"
)

const (
	DefaultDebounce        = 300 * time.Millisecond
	DefaultSuggestionLimit = 5

	MsgEmptyQuery   = "Please enter a city name"
	MsgCityNotFound = "City not found"
)

var (
	ErrEmptyQuery       = errors.New("empty city name")
	ErrNoSuchSuggestion = errors.New("suggestion index out of range")
)

// Provider is the remote geocoding and weather service.
type Provider interface {
	Geocode(ctx context.Context, text string, limit int) ([]models.Suggestion, error)
	CurrentWeather(ctx context.Context, query models.WeatherQuery) (*models.WeatherReport, error)
}

type Options struct {
	Debounce        time.Duration
	SuggestionLimit int
	// AfterFunc replaces time.AfterFunc for the debounce timer.
	AfterFunc AfterFunc
	// OnChange receives a fresh View after every state change.
	OnChange func(models.View)
}

// Widget is the state behind one search box: the query, its suggestions
// and the last weather lookup.
type Widget struct {
	provider Provider
	logger   *zap.Logger
	limit    int
	onChange func(models.View)

	debouncer *Debouncer
	ctx       context.Context
	cancel    context.CancelFunc

	mu          sync.Mutex
	query       string
	suggestions []models.Suggestion
	report      *models.WeatherReport
	state       models.UIState
	suggestSeq  uint64
	weatherSeq  uint64
}

func New(provider Provider, opts Options, logger *zap.Logger) *Widget {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.SuggestionLimit <= 0 {
		opts.SuggestionLimit = DefaultSuggestionLimit
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Widget{
		provider:  provider,
		logger:    logger,
		limit:     opts.SuggestionLimit,
		onChange:  opts.OnChange,
		debouncer: NewDebouncer(opts.Debounce, opts.AfterFunc),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Input records a keystroke. Blank text clears suggestions at once; anything
// else schedules a lookup once input has been quiet for the debounce period.
func (w *Widget) Input(text string) {
	w.mu.Lock()
	w.query = text
	w.suggestSeq++
	seq := w.suggestSeq

	if strings.TrimSpace(text) == "" {
		w.debouncer.Cancel()
		w.suggestions = nil
		w.mu.Unlock()
		w.notify()
		return
	}

	w.debouncer.Trigger(func() {
		w.fetchSuggestions(seq, text)
	})
	w.mu.Unlock()
	w.notify()
}

func (w *Widget) fetchSuggestions(seq uint64, text string) {
	suggestions, err := w.provider.Geocode(w.ctx, text, w.limit)

	w.mu.Lock()
	if seq != w.suggestSeq {
		w.mu.Unlock()
		w.logger.Debug("Discarding stale suggestions",
			zap.String("query", text),
			zap.Uint64("seq", seq))
		return
	}

	if err != nil {
		w.suggestions = nil
		w.mu.Unlock()
		w.logger.Warn("Failed to fetch suggestions",
			zap.String("query", text),
			zap.Error(err))
		w.notify()
		return
	}

	if len(suggestions) > w.limit {
		suggestions = suggestions[:w.limit]
	}
	w.suggestions = suggestions
	w.mu.Unlock()

	w.logger.Debug("Suggestions updated",
		zap.String("query", text),
		zap.Int("count", len(suggestions)))
	w.notify()
}

// Submit looks up weather for the current query text.
func (w *Widget) Submit(ctx context.Context) (models.View, error) {
	w.mu.Lock()
	name := w.query
	w.mu.Unlock()

	return w.fetchWeather(ctx, models.WeatherQuery{Name: name})
}

// Select picks the suggestion at index from the current list.
func (w *Widget) Select(ctx context.Context, index int) (models.View, error) {
	w.mu.Lock()
	if index < 0 || index >= len(w.suggestions) {
		w.mu.Unlock()
		return w.Snapshot(), ErrNoSuchSuggestion
	}
	s := w.suggestions[index]
	w.mu.Unlock()

	return w.SelectSuggestion(ctx, s)
}

// SelectSuggestion fills the query with the suggestion's label, clears the
// list and looks up weather at its coordinates.
func (w *Widget) SelectSuggestion(ctx context.Context, s models.Suggestion) (models.View, error) {
	w.mu.Lock()
	w.query = s.Label()
	w.suggestions = nil
	w.suggestSeq++
	w.debouncer.Cancel()
	w.mu.Unlock()
	w.notify()

	return w.fetchWeather(ctx, models.WeatherQuery{
		Name:   s.Name,
		Coords: &models.Coordinate{Lat: s.Lat, Lon: s.Lon},
	})
}

func (w *Widget) fetchWeather(ctx context.Context, query models.WeatherQuery) (models.View, error) {
	w.mu.Lock()
	w.weatherSeq++
	seq := w.weatherSeq

	if strings.TrimSpace(query.Name) == "" && !query.UseCoords() {
		w.report = nil
		w.state = models.UIState{ErrorMessage: MsgEmptyQuery}
		w.mu.Unlock()
		w.notify()
		return w.Snapshot(), ErrEmptyQuery
	}

	w.state.Loading = true
	w.mu.Unlock()
	w.notify()

	report, err := w.provider.CurrentWeather(ctx, query)

	w.mu.Lock()
	if seq != w.weatherSeq {
		w.mu.Unlock()
		w.logger.Debug("Discarding stale weather result",
			zap.String("city", query.Name),
			zap.Uint64("seq", seq))
		return w.Snapshot(), err
	}

	if err != nil {
		w.report = nil
		w.state = models.UIState{ErrorMessage: userMessage(err)}
		w.mu.Unlock()
		w.logger.Warn("Failed to fetch weather",
			zap.String("city", query.Name),
			zap.Error(err))
		w.notify()
		return w.Snapshot(), err
	}

	w.report = report
	w.state = models.UIState{}
	w.mu.Unlock()

	w.logger.Info("Weather updated",
		zap.String("city", report.Name),
		zap.Float64("temperature", report.Temperature))
	w.notify()
	return w.Snapshot(), nil
}

// Snapshot copies the widget state, highlighting each suggestion against
// the current query.
func (w *Widget) Snapshot() models.View {
	w.mu.Lock()
	defer w.mu.Unlock()

	view := models.View{
		Query:       w.query,
		Suggestions: make([]models.SuggestionView, 0, len(w.suggestions)),
		UIState:     w.state,
	}
	for _, s := range w.suggestions {
		sv := models.SuggestionView{
			Suggestion: s,
			Display:    s.Label(),
			NameMatch:  Highlight(s.Name, w.query),
		}
		if s.State != "" {
			stateMatch := Highlight(s.State, w.query)
			sv.StateMatch = &stateMatch
		}
		view.Suggestions = append(view.Suggestions, sv)
	}
	if w.report != nil {
		report := *w.report
		view.Report = &report
	}
	return view
}

// Close stops any pending suggestion lookup. The widget must not be used after.
func (w *Widget) Close() {
	w.debouncer.Cancel()
	w.cancel()
}

func (w *Widget) notify() {
	if w.onChange != nil {
		w.onChange(w.Snapshot())
	}
}

// userMessage turns a weather failure into the text shown under the input.
func userMessage(err error) string {
	if client.IsStatusError(err) {
		return MsgCityNotFound
	}

	// url.Error embeds the request URL, which carries the API key.
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err.Error()
	}
	return err.Error()
}
