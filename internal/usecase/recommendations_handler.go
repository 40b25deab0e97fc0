package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ContraTrack/internal/domain/models"
	"ContraTrack/internal/services/sentiment"
	applogger "ContraTrack/pkg/logger"
	pkgkafka "ContraTrack/pkg/kafka"
	"ContraTrack/pkg/util"
)

type recommendationSaver interface {
	SaveRecommendations(ctx context.Context, source string, recs []models.Recommendation) (int, error)
}

// RecommendationsHandler consumes call messages from Kafka and stores them.
type RecommendationsHandler struct {
	topic string
	saver recommendationSaver
	l     *applogger.Logger
}

func NewRecommendationsHandler(topic string, saver recommendationSaver, l *applogger.Logger) *RecommendationsHandler {
	if l == nil {
		l = applogger.Nop()
	}
	return &RecommendationsHandler{topic: topic, saver: saver, l: l}
}

func (h *RecommendationsHandler) Topic() string { return h.topic }

// RecommendationMessage is the wire schema of the recommendations topic.
// An empty Recommendation means the text has to be classified.
type RecommendationMessage struct {
	Ticker         string `json:"ticker"`
	Date           string `json:"date"`
	Recommendation string `json:"recommendation"`
	Text           string `json:"text"`
	Source         string `json:"source"`
}

func (h *RecommendationsHandler) Handle(ctx context.Context, b []byte) error {
	var m RecommendationMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return fmt.Errorf("decode recommendation: %w", err)
	}
	recs, err := m.Records()
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		h.l.Debug("recommendation message ignored",
			applogger.String("ticker", m.Ticker),
			applogger.String("date", m.Date),
		)
		return nil
	}
	source := m.Source
	if source == "" {
		source = "kafka"
	}
	_, err = h.saver.SaveRecommendations(ctx, source, recs)
	return err
}

// Records converts the message into stored calls. Non actionable calls give none.
func (m RecommendationMessage) Records() ([]models.Recommendation, error) {
	day, ok := util.ParseDay(m.Date)
	if !ok {
		return nil, fmt.Errorf("recommendation date %q: invalid", m.Date)
	}
	source := m.Source
	if source == "" {
		source = "kafka"
	}
	ticker := util.NormalizeSymbol(m.Ticker)

	if strings.TrimSpace(m.Recommendation) == "" {
		if ticker == "" {
			return sentiment.Recommendations(m.Text, day, source), nil
		}
		class := sentiment.Classify(m.Text)
		if !class.Actionable() {
			return nil, nil
		}
		return []models.Recommendation{{
			Ticker: ticker, Date: day, Recommendation: class.Wire(), Text: m.Text, Source: source,
		}}, nil
	}

	if ticker == "" {
		return nil, fmt.Errorf("recommendation without ticker")
	}
	return []models.Recommendation{{
		Ticker:         ticker,
		Date:           day,
		Recommendation: strings.ToLower(strings.TrimSpace(m.Recommendation)),
		Text:           m.Text,
		Source:         source,
	}}, nil
}

var _ pkgkafka.MessageHandler = (*RecommendationsHandler)(nil)
