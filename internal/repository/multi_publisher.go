package repository

import (
	"context"
	"errors"

	"ContraTrack/internal/domain/models"
	domrepo "ContraTrack/internal/domain/repository"
)

// MultiPublisher fans a report out to several publishers. Every publisher is
// tried; the failures are joined.
type MultiPublisher struct {
	pubs []domrepo.AnalysisPublisher
}

// NewMultiPublisher skips nil publishers.
func NewMultiPublisher(pubs ...domrepo.AnalysisPublisher) *MultiPublisher {
	m := &MultiPublisher{}
	for _, p := range pubs {
		if p != nil {
			m.pubs = append(m.pubs, p)
		}
	}
	return m
}

func (m *MultiPublisher) Len() int { return len(m.pubs) }

func (m *MultiPublisher) PublishAnalysis(ctx context.Context, r *models.AnalysisReport) error {
	var errs []error
	for _, p := range m.pubs {
		if err := p.PublishAnalysis(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiPublisher) Close() error {
	var errs []error
	for _, p := range m.pubs {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
