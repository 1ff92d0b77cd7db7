// Package allocation matches an inbound ambulance to the nearest
// hospital holding a free bed of the required type and reserves that
// bed for a bounded window while the route is computed.
package allocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/openems/bed-allocation/internal/model"
	"github.com/openems/bed-allocation/internal/queue"
	"github.com/openems/bed-allocation/internal/repository"
	"github.com/openems/bed-allocation/internal/routing"
)

// DefaultHoldTTL is how long a reservation blocks its bed before lazy
// expiry reclaims it.
const DefaultHoldTTL = 15 * time.Minute

// HospitalCatalog is the directory query surface the engine consumes.
type HospitalCatalog interface {
	// FindWithinBox returns hospitals inside the coordinate window
	// that own at least one AVAILABLE bed of the given type.
	FindWithinBox(ctx context.Context, minLat, maxLat, minLon, maxLon float64, bedType model.BedType) ([]model.Hospital, error)
}

// BedCatalog exposes per-hospital bed availability.
type BedCatalog interface {
	AvailableBeds(ctx context.Context, hospitalID uint64, bedType model.BedType) ([]model.Bed, error)
}

// ReservationStore is the sole shared mutable resource.  TryReserve
// must be atomic with respect to all other callers: of two racing
// reservations for one bed, exactly one succeeds and the other
// receives repository.ErrBedTaken.
type ReservationStore interface {
	TryReserve(ctx context.Context, hospitalID, bedID uint64, ambulanceID string, ttl time.Duration) (*model.Reservation, error)
	ActiveForBed(ctx context.Context, bedID uint64) (bool, error)
	ExpireOlderThan(ctx context.Context, now time.Time) ([]model.Reservation, error)
}

// EventSink receives allocation state transitions.  Delivery is
// best-effort fire-and-forget: implementations log their own failures
// and never block or fail an allocation call.
type EventSink interface {
	AmbulanceAssigned(ctx context.Context, ev queue.AssignedEvent)
	BedReserved(ctx context.Context, ev queue.ReservedEvent)
	ReservationExpired(ctx context.Context, ev queue.ExpiredEvent)
}

// Request carries one allocation call.
type Request struct {
	Latitude    float64
	Longitude   float64
	BedType     string
	AmbulanceID string
}

// Engine orchestrates expiry, candidate search, reservation and
// routing.  It is safe for concurrent use; all mutation goes through
// the ReservationStore, which serialises conflicting writes.
type Engine struct {
	hospitals HospitalCatalog
	beds      BedCatalog
	store     ReservationStore
	router    routing.Provider
	events    EventSink

	passes  []float64
	holdTTL time.Duration
	now     func() time.Time
}

// Option tweaks engine behaviour.
type Option func(*Engine)

// WithPasses overrides the bounding-box half-widths.
func WithPasses(passes []float64) Option {
	return func(e *Engine) { e.passes = passes }
}

// WithHoldTTL overrides the reservation hold duration.
func WithHoldTTL(ttl time.Duration) Option {
	return func(e *Engine) { e.holdTTL = ttl }
}

// WithClock overrides the time source.  Tests use it to force expiry.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine wires the engine's collaborators.
func NewEngine(hospitals HospitalCatalog, beds BedCatalog, store ReservationStore, router routing.Provider, events EventSink, opts ...Option) *Engine {
	e := &Engine{
		hospitals: hospitals,
		beds:      beds,
		store:     store,
		router:    router,
		events:    events,
		passes:    DefaultPasses,
		holdTTL:   DefaultHoldTTL,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Allocate finds the nearest hospital with a free bed of the
// requested type, reserves that bed and returns the match with a
// computed route.  It fails with ErrUnknownBedType for an invalid
// category and ErrNoBedAvailable when every pass exhausts without a
// committable bed.  Losing a reservation race is not a failure: the
// loser continues to the next candidate.
func (e *Engine) Allocate(ctx context.Context, req Request) (*model.Match, error) {
	// Lazy expiry always runs first so stale holds stop blocking
	// their beds before candidates are evaluated.
	if err := e.expireStale(ctx); err != nil {
		return nil, fmt.Errorf("expire stale reservations: %w", err)
	}

	bedType, err := model.ParseBedType(req.BedType)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBedType, req.BedType)
	}

	for _, halfWidth := range e.passes {
		candidates, err := e.candidatesWithinPass(ctx, req.Latitude, req.Longitude, halfWidth, bedType)
		if err != nil {
			return nil, fmt.Errorf("candidate search (±%.1f°): %w", halfWidth, err)
		}
		log.Debug().Float64("half_width_deg", halfWidth).Int("candidates", len(candidates)).
			Str("bed_type", string(bedType)).Msg("allocation: search pass")

		for _, cand := range candidates {
			match, err := e.tryHospital(ctx, req, bedType, cand)
			if err != nil {
				return nil, err
			}
			if match != nil {
				return match, nil
			}
			// No committable bed here; next candidate.
		}
	}
	return nil, ErrNoBedAvailable
}

// tryHospital attempts to reserve one bed at the candidate hospital.
// A nil, nil return means every bed there was taken and the caller
// should continue with the next candidate.
func (e *Engine) tryHospital(ctx context.Context, req Request, bedType model.BedType, cand candidate) (*model.Match, error) {
	beds, err := e.beds.AvailableBeds(ctx, cand.hospital.ID, bedType)
	if err != nil {
		return nil, fmt.Errorf("list beds for hospital %d: %w", cand.hospital.ID, err)
	}

	for _, bed := range beds {
		// Cheap guard first: the bulk search is not transactionally
		// consistent with concurrent reservations.
		taken, err := e.store.ActiveForBed(ctx, bed.ID)
		if err != nil {
			return nil, fmt.Errorf("check active reservation for bed %d: %w", bed.ID, err)
		}
		if taken {
			continue
		}

		res, err := e.store.TryReserve(ctx, cand.hospital.ID, bed.ID, req.AmbulanceID, e.holdTTL)
		if errors.Is(err, repository.ErrBedTaken) {
			// Lost the race; the guard above is advisory only.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reserve bed %d: %w", bed.ID, err)
		}

		return e.finishMatch(ctx, req, bedType, cand, res, len(beds)), nil
	}
	return nil, nil
}

// finishMatch computes the route, assembles the result and emits the
// ASSIGNED and RESERVED events, in that order.  The reservation is
// already committed at this point and is never rolled back: a routing
// failure degrades to the fallback route inside the provider.
func (e *Engine) finishMatch(ctx context.Context, req Request, bedType model.BedType, cand candidate, res *model.Reservation, availableBeds int) *model.Match {
	route, err := e.router.Route(ctx, req.Latitude, req.Longitude,
		*cand.hospital.Latitude, *cand.hospital.Longitude, routing.DefaultProfile)
	if err != nil {
		// Unreachable with the failover provider, but an engine wired
		// directly to a fallible provider must still return a match.
		log.Error().Err(err).Msg("allocation: route computation failed, reporting straight-line distance")
		route = &model.Route{DistanceMeters: cand.distKm * 1000}
	}

	match := &model.Match{
		HospitalID:    cand.hospital.ID,
		HospitalName:  cand.hospital.Name,
		DistanceKm:    route.DistanceKm(),
		BedID:         res.BedID,
		AvailableBeds: availableBeds,
		ReservationID: res.ID,
		ExpiresAt:     res.ExpiryTime,
		ETAMinutes:    route.ETAMinutes(),
		Encoded:       route.Encoded,
		Path:          route.Points,
	}

	e.events.AmbulanceAssigned(ctx, queue.AssignedEvent{
		AmbulanceID:  req.AmbulanceID,
		HospitalID:   match.HospitalID,
		HospitalName: match.HospitalName,
		BedID:        match.BedID,
		BedType:      string(bedType),
		DistanceKm:   match.DistanceKm,
		Timestamp:    e.now().UTC(),
	})
	e.events.BedReserved(ctx, queue.ReservedEvent{
		ReservationID: res.ID,
		AmbulanceID:   res.AmbulanceID,
		HospitalID:    res.HospitalID,
		BedID:         res.BedID,
		ExpiresAt:     res.ExpiryTime,
	})

	log.Info().Str("ambulance_id", req.AmbulanceID).Uint64("hospital_id", match.HospitalID).
		Uint64("bed_id", match.BedID).Float64("distance_km", match.DistanceKm).
		Msg("allocation: bed reserved")
	return match
}

// expireStale transitions overdue holds to EXPIRED and emits one
// event per reclaimed reservation.
func (e *Engine) expireStale(ctx context.Context) error {
	expired, err := e.store.ExpireOlderThan(ctx, e.now())
	if err != nil {
		return err
	}
	for _, res := range expired {
		e.events.ReservationExpired(ctx, queue.ExpiredEvent{
			ReservationID: res.ID,
			AmbulanceID:   res.AmbulanceID,
			HospitalID:    res.HospitalID,
			BedID:         res.BedID,
			Timestamp:     e.now().UTC(),
		})
	}
	if len(expired) > 0 {
		log.Info().Int("count", len(expired)).Msg("allocation: reclaimed expired reservations")
	}
	return nil
}
