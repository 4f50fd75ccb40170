package service

import (
	"context"
	"fmt"
	"math"

	"airline-reservation/internal/models"
	"airline-reservation/internal/reservation"
	"airline-reservation/internal/util"

	"go.uber.org/zap"
)

// Bulk fare presets
const (
	DiscountMultiplier = 0.9
	PremiumMultiplier  = 1.15
)

// FareService manages flight fares
type FareService struct {
	store          *reservation.Store
	eventPublisher EventPublisher
	logger         *zap.Logger
}

// NewFareService creates a new fare service
func NewFareService(store *reservation.Store, publisher EventPublisher) *FareService {
	return &FareService{
		store:          store,
		eventPublisher: publisherOrNoop(publisher),
		logger:         util.GetLogger(),
	}
}

// FlightFares is one row of the fare summary
type FlightFares struct {
	FlightCode   string       `json:"flight_code"`
	Name         string       `json:"name"`
	Fares        models.Fares `json:"fares"`
	ProfitMargin float64      `json:"profit_margin"`
}

// FareSummary aggregates fares over priced flights
type FareSummary struct {
	Flights          []FlightFares `json:"flights"`
	PricedFlights    int           `json:"priced_flights"`
	AverageExecutive float64       `json:"average_executive"`
	AverageEconomy   float64       `json:"average_economy"`
	AverageBusiness  float64       `json:"average_business"`
	AverageMargin    float64       `json:"average_margin"`
}

// SetFares replaces the fares of one flight
func (s *FareService) SetFares(ctx context.Context, code string, fares models.Fares) (models.Flight, error) {
	ctx, span := util.StartSpan(ctx, "FareService.SetFares")
	defer span.End()

	f, err := s.store.SetFares(ctx, code, fares)
	if err != nil {
		return models.Flight{}, err
	}

	util.FareUpdatesTotal.WithLabelValues("set").Inc()
	s.logger.Info("Fares updated", zap.String("flight_code", f.Code))
	s.publish(ctx, f)
	return f, nil
}

// AdjustFares scales every priced flight's fares by multiplier
func (s *FareService) AdjustFares(ctx context.Context, multiplier float64) ([]models.Flight, error) {
	ctx, span := util.StartSpan(ctx, "FareService.AdjustFares")
	defer span.End()

	flights, err := s.store.AdjustFares(ctx, multiplier)
	if err != nil {
		return nil, err
	}

	util.FareUpdatesTotal.WithLabelValues("adjust").Add(float64(len(flights)))
	s.logger.Info("Fares adjusted",
		zap.Float64("multiplier", multiplier),
		zap.Int("flights", len(flights)))
	for _, f := range flights {
		s.publish(ctx, f)
	}
	return flights, nil
}

// Summary lists every flight's fares with profit margins and averages over
// the priced ones.
func (s *FareService) Summary(ctx context.Context) (FareSummary, error) {
	flights, err := s.store.ListFlights(ctx)
	if err != nil {
		return FareSummary{}, err
	}

	summary := FareSummary{Flights: make([]FlightFares, 0, len(flights))}
	for _, f := range flights {
		row := FlightFares{FlightCode: f.Code, Name: f.Name, Fares: f.Fares}
		if f.Fares != (models.Fares{}) {
			row.ProfitMargin = round2(f.Fares.ProfitMargin())
			summary.PricedFlights++
			summary.AverageExecutive += f.Fares.Executive
			summary.AverageEconomy += f.Fares.Economy
			summary.AverageBusiness += f.Fares.Business
			summary.AverageMargin += row.ProfitMargin
		}
		summary.Flights = append(summary.Flights, row)
	}
	if n := float64(summary.PricedFlights); n > 0 {
		summary.AverageExecutive = round2(summary.AverageExecutive / n)
		summary.AverageEconomy = round2(summary.AverageEconomy / n)
		summary.AverageBusiness = round2(summary.AverageBusiness / n)
		summary.AverageMargin = round2(summary.AverageMargin / n)
	}
	return summary, nil
}

// Quote returns the fare of a seat class on a flight
func (s *FareService) Quote(ctx context.Context, code string, class models.SeatClass) (float64, error) {
	if !class.Valid() {
		return 0, fmt.Errorf("quote %s: seat class %q: %w", code, class, reservation.ErrInvalidSeat)
	}
	f, err := s.store.GetFlight(ctx, code)
	if err != nil {
		return 0, err
	}
	if f.Fares == (models.Fares{}) {
		return 0, fmt.Errorf("quote %s: flight has no fares: %w", f.Code, reservation.ErrInvalidFare)
	}
	return f.Fares.For(class), nil
}

func (s *FareService) publish(ctx context.Context, f models.Flight) {
	event := &models.FlightEvent{
		BaseEvent:  models.NewBaseEvent(models.EventTypeFaresUpdated),
		FlightCode: f.Code,
		Fares:      f.Fares,
	}
	if err := s.eventPublisher.PublishFlight(ctx, event); err != nil {
		s.logger.Error("Failed to publish FaresUpdated event", zap.Error(err))
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
