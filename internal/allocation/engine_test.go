package allocation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openems/bed-allocation/internal/model"
	"github.com/openems/bed-allocation/internal/queue"
	"github.com/openems/bed-allocation/internal/repository"
	"github.com/openems/bed-allocation/internal/routing"
)

// fakeWorld is an in-memory implementation of every engine
// collaborator.  Reservation state is guarded by one mutex so the
// exactly-one-winner invariant can be exercised concurrently.
type fakeWorld struct {
	mu        sync.Mutex
	hospitals []model.Hospital
	beds      map[uint64][]model.Bed        // hospital id -> beds
	active    map[uint64]*model.Reservation // bed id -> RESERVED hold
	events    []string                      // event kinds in emit order
	expired   []queue.ExpiredEvent
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{
		beds:   make(map[uint64][]model.Bed),
		active: make(map[uint64]*model.Reservation),
	}
}

func (w *fakeWorld) addHospital(id uint64, name string, lat, lon float64, bedType model.BedType, bedIDs ...uint64) {
	w.hospitals = append(w.hospitals, model.Hospital{ID: id, Name: name, Latitude: &lat, Longitude: &lon})
	for _, bedID := range bedIDs {
		w.beds[id] = append(w.beds[id], model.Bed{
			ID: bedID, HospitalID: id, BedType: bedType, Status: model.BedStatusAvailable,
		})
	}
}

func (w *fakeWorld) FindWithinBox(ctx context.Context, minLat, maxLat, minLon, maxLon float64, bedType model.BedType) ([]model.Hospital, error) {
	var out []model.Hospital
	for _, h := range w.hospitals {
		if *h.Latitude < minLat || *h.Latitude > maxLat || *h.Longitude < minLon || *h.Longitude > maxLon {
			continue
		}
		for _, b := range w.beds[h.ID] {
			if b.BedType == bedType && b.Status == model.BedStatusAvailable {
				out = append(out, h)
				break
			}
		}
	}
	return out, nil
}

func (w *fakeWorld) AvailableBeds(ctx context.Context, hospitalID uint64, bedType model.BedType) ([]model.Bed, error) {
	var out []model.Bed
	for _, b := range w.beds[hospitalID] {
		if b.BedType == bedType && b.Status == model.BedStatusAvailable {
			out = append(out, b)
		}
	}
	return out, nil
}

func (w *fakeWorld) TryReserve(ctx context.Context, hospitalID, bedID uint64, ambulanceID string, ttl time.Duration) (*model.Reservation, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, taken := w.active[bedID]; taken {
		return nil, repository.ErrBedTaken
	}
	now := time.Now()
	res := &model.Reservation{
		ID:          uuid.NewString(),
		HospitalID:  hospitalID,
		BedID:       bedID,
		AmbulanceID: ambulanceID,
		Status:      model.ReservationReserved,
		CreatedAt:   now,
		ExpiryTime:  now.Add(ttl),
	}
	w.active[bedID] = res
	return res, nil
}

func (w *fakeWorld) ActiveForBed(ctx context.Context, bedID uint64) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, taken := w.active[bedID]
	return taken, nil
}

func (w *fakeWorld) ExpireOlderThan(ctx context.Context, now time.Time) ([]model.Reservation, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []model.Reservation
	for bedID, res := range w.active {
		if !res.ExpiryTime.After(now) {
			res.Status = model.ReservationExpired
			out = append(out, *res)
			delete(w.active, bedID)
		}
	}
	return out, nil
}

func (w *fakeWorld) AmbulanceAssigned(ctx context.Context, ev queue.AssignedEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.events = append(w.events, queue.KindAssigned)
}

func (w *fakeWorld) BedReserved(ctx context.Context, ev queue.ReservedEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.events = append(w.events, queue.KindReserved)
}

func (w *fakeWorld) ReservationExpired(ctx context.Context, ev queue.ExpiredEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.events = append(w.events, queue.KindExpired)
	w.expired = append(w.expired, ev)
}

func newTestEngine(w *fakeWorld, opts ...Option) *Engine {
	return NewEngine(w, w, w, routing.WithFallback(nil, routing.NewStraightLine()), w, opts...)
}

func TestAllocateUnknownBedType(t *testing.T) {
	e := newTestEngine(newFakeWorld())

	_, err := e.Allocate(context.Background(), Request{BedType: "SURGICAL", AmbulanceID: "amb-1"})
	assert.ErrorIs(t, err, ErrUnknownBedType)
}

func TestAllocateNoBedAvailable(t *testing.T) {
	w := newFakeWorld()
	w.addHospital(1, "No Beds General", 10.0, 20.0, model.BedTypeICU) // no beds at all

	_, err := newTestEngine(w).Allocate(context.Background(), Request{
		Latitude: 10.0, Longitude: 20.0, BedType: "ICU", AmbulanceID: "amb-1",
	})
	assert.ErrorIs(t, err, ErrNoBedAvailable)
}

// A nearby hospital without free beds must not shadow a farther one
// that has them, and a candidate found in an earlier pass must win
// over anything only reachable in a later pass.
func TestAllocateWideningPasses(t *testing.T) {
	w := newFakeWorld()
	// ~50 km north of the origin, inside the first pass, no beds.
	w.addHospital(1, "Near Empty", 0.45, 0, model.BedTypeICU)
	// ~650 km north, inside the second pass.
	w.addHospital(2, "Mid City", 5.85, 0, model.BedTypeICU, 20)
	// ~1000 km north, only reachable in the global pass.
	w.addHospital(3, "Far Regional", 9.0, 0, model.BedTypeICU, 30)

	match, err := newTestEngine(w).Allocate(context.Background(), Request{
		Latitude: 0, Longitude: 0, BedType: "ICU", AmbulanceID: "amb-7",
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), match.HospitalID)
	assert.Equal(t, uint64(20), match.BedID)
	assert.InDelta(t, 650, match.DistanceKm, 10)
}

func TestAllocateSkipsBedWithActiveHold(t *testing.T) {
	w := newFakeWorld()
	w.addHospital(1, "Two Bed Clinic", 10.0, 20.0, model.BedTypeICU, 11, 12)

	e := newTestEngine(w)
	req := Request{Latitude: 10.0, Longitude: 20.0, BedType: "ICU", AmbulanceID: "amb-1"}

	first, err := e.Allocate(context.Background(), req)
	require.NoError(t, err)
	second, err := e.Allocate(context.Background(), Request{
		Latitude: 10.0, Longitude: 20.0, BedType: "ICU", AmbulanceID: "amb-2",
	})
	require.NoError(t, err)

	assert.NotEqual(t, first.BedID, second.BedID)

	// Both beds held now; a third request finds nothing.
	_, err = e.Allocate(context.Background(), Request{
		Latitude: 10.0, Longitude: 20.0, BedType: "ICU", AmbulanceID: "amb-3",
	})
	assert.ErrorIs(t, err, ErrNoBedAvailable)
}

func TestAllocateLazyExpiryReclaimsBed(t *testing.T) {
	w := newFakeWorld()
	w.addHospital(1, "Single Bed ICU", 10.0, 20.0, model.BedTypeICU, 41)

	now := time.Now()
	clock := now
	e := newTestEngine(w, WithClock(func() time.Time { return clock }))
	req := Request{Latitude: 10.0, Longitude: 20.0, BedType: "ICU", AmbulanceID: "amb-1"}

	first, err := e.Allocate(context.Background(), req)
	require.NoError(t, err)

	// Inside the hold window the bed stays blocked.
	_, err = e.Allocate(context.Background(), Request{
		Latitude: 10.0, Longitude: 20.0, BedType: "ICU", AmbulanceID: "amb-2",
	})
	require.ErrorIs(t, err, ErrNoBedAvailable)

	// Step past the TTL: the stale hold is reclaimed inline and the
	// bed is reservable again.
	clock = now.Add(DefaultHoldTTL + time.Minute)
	second, err := e.Allocate(context.Background(), Request{
		Latitude: 10.0, Longitude: 20.0, BedType: "ICU", AmbulanceID: "amb-2",
	})
	require.NoError(t, err)
	assert.Equal(t, first.BedID, second.BedID)
	assert.NotEqual(t, first.ReservationID, second.ReservationID)

	require.Len(t, w.expired, 1)
	assert.Equal(t, first.ReservationID, w.expired[0].ReservationID)
	assert.Equal(t, "amb-1", w.expired[0].AmbulanceID)
}

// Of N concurrent requests for a single bed, exactly one wins.
func TestAllocateConcurrentExactlyOneWinner(t *testing.T) {
	w := newFakeWorld()
	w.addHospital(1, "Contested ICU", 10.0, 20.0, model.BedTypeICU, 99)

	e := newTestEngine(w)

	const callers = 16
	results := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := e.Allocate(context.Background(), Request{
				Latitude: 10.0, Longitude: 20.0, BedType: "ICU",
				AmbulanceID: uuid.NewString(),
			})
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	wins, losses := 0, 0
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrNoBedAvailable):
			losses++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, callers-1, losses)

	w.mu.Lock()
	defer w.mu.Unlock()
	assert.Len(t, w.active, 1)
}

func TestAllocateEndToEnd(t *testing.T) {
	w := newFakeWorld()
	w.addHospital(1, "Facility A", 10.01, 20.01, model.BedTypeICU, 7)
	w.addHospital(2, "Facility B", 11.0, 21.0, model.BedTypeICU, 8)

	match, err := newTestEngine(w).Allocate(context.Background(), Request{
		Latitude: 10.0, Longitude: 20.0, BedType: "icu", AmbulanceID: "amb-42",
	})
	require.NoError(t, err)

	assert.Equal(t, uint64(1), match.HospitalID)
	assert.Equal(t, "Facility A", match.HospitalName)
	assert.Equal(t, uint64(7), match.BedID)
	assert.Equal(t, 1, match.AvailableBeds)
	assert.InDelta(t, 1.56, match.DistanceKm, 0.1)
	assert.NotEmpty(t, match.ReservationID)
	assert.True(t, match.ExpiresAt.After(time.Now()))

	// Straight-line routing: origin and destination only, no encoding.
	require.Len(t, match.Path, 2)
	assert.Empty(t, match.Encoded)

	// ASSIGNED strictly before RESERVED.
	require.Equal(t, []string{queue.KindAssigned, queue.KindReserved}, w.events)
}
