package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir is t.Chdir for Go versions before 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Errorf("restoring working directory: %v", err)
		}
	})
}

func mustEnvelope(t *testing.T, env Envelope) []byte {
	t.Helper()
	body, err := json.Marshal(env)
	require.NoError(t, err)
	return body
}

func readLog(t *testing.T) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("logs", "allocation.log"))
	require.NoError(t, err)
	return string(b)
}

func TestHandleMessageAssigned(t *testing.T) {
	chdir(t, t.TempDir())

	body := mustEnvelope(t, Envelope{Event: KindAssigned, Assigned: &AssignedEvent{
		AmbulanceID: "amb-1", HospitalID: 3, HospitalName: "Facility A",
		BedID: 7, BedType: "ICU", DistanceKm: 1.5, Timestamp: time.Now().UTC(),
	}})
	require.NoError(t, handleMessage(body))

	line := readLog(t)
	assert.Contains(t, line, "Ambulance assigned")
	assert.Contains(t, line, "ambulance=amb-1")
	assert.Contains(t, line, `hospital="Facility A"`)
	assert.Contains(t, line, "bed_id=7")
}

func TestHandleMessageReservedAndExpired(t *testing.T) {
	chdir(t, t.TempDir())

	reserved := mustEnvelope(t, Envelope{Event: KindReserved, Reserved: &ReservedEvent{
		ReservationID: "res-1", AmbulanceID: "amb-1", HospitalID: 3, BedID: 7,
		ExpiresAt: time.Now().Add(15 * time.Minute).UTC(),
	}})
	expired := mustEnvelope(t, Envelope{Event: KindExpired, Expired: &ExpiredEvent{
		ReservationID: "res-1", AmbulanceID: "amb-1", HospitalID: 3, BedID: 7,
		Timestamp: time.Now().UTC(),
	}})

	require.NoError(t, handleMessage(reserved))
	require.NoError(t, handleMessage(expired))

	log := readLog(t)
	assert.Contains(t, log, "Bed reserved")
	assert.Contains(t, log, "Reservation expired")
	assert.Contains(t, log, "reservation=res-1")
}

func TestHandleMessageRejectsBadInput(t *testing.T) {
	chdir(t, t.TempDir())

	assert.Error(t, handleMessage([]byte("not json")))
	assert.Error(t, handleMessage(mustEnvelope(t, Envelope{Event: "UNKNOWN"})))
	// Kind without its payload.
	assert.Error(t, handleMessage(mustEnvelope(t, Envelope{Event: KindAssigned})))
}
