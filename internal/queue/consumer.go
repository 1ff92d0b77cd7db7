package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// StartAllocationConsumer connects to RabbitMQ, declares the durable
// allocation.events queue and consumes it forever, appending one line
// per event to logs/allocation.log.  It runs a reconnect loop with
// backoff and never returns under normal operation; processing
// failures are logged and the offending message rejected without
// requeue so the consumer cannot spin on a poison message.
func StartAllocationConsumer() error {
	url := BrokerURL()
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn().Err(err).Dur("retry_in", backoff).Msg("allocation-consumer: dial failed")
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn); err != nil {
			log.Warn().Err(err).Msg("allocation-consumer: consume loop ended, reconnecting")
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn().Err(err).Msg("allocation-consumer: set QoS failed")
	}

	if _, err := ch.QueueDeclare(allocationQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(allocationQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage(d.Body); err != nil {
			log.Warn().Err(err).Msg("allocation-consumer: handle message failed")
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

// handleMessage appends one human-readable line per event to
// logs/allocation.log.
func handleMessage(body []byte) error {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	var line string
	switch env.Event {
	case KindAssigned:
		if env.Assigned == nil {
			return errors.New("ASSIGNED envelope missing payload")
		}
		ev := env.Assigned
		line = fmt.Sprintf("[%s] Ambulance assigned | ambulance=%s | hospital_id=%d | hospital=%q | bed_id=%d | bed_type=%s | distance_km=%.2f\n",
			ev.Timestamp.Format(time.RFC3339), ev.AmbulanceID, ev.HospitalID, ev.HospitalName, ev.BedID, ev.BedType, ev.DistanceKm)
	case KindReserved:
		if env.Reserved == nil {
			return errors.New("RESERVED envelope missing payload")
		}
		ev := env.Reserved
		line = fmt.Sprintf("[%s] Bed reserved | reservation=%s | ambulance=%s | hospital_id=%d | bed_id=%d | expires_at=%s\n",
			time.Now().UTC().Format(time.RFC3339), ev.ReservationID, ev.AmbulanceID, ev.HospitalID, ev.BedID, ev.ExpiresAt.Format(time.RFC3339))
	case KindExpired:
		if env.Expired == nil {
			return errors.New("EXPIRED envelope missing payload")
		}
		ev := env.Expired
		line = fmt.Sprintf("[%s] Reservation expired | reservation=%s | ambulance=%s | hospital_id=%d | bed_id=%d\n",
			ev.Timestamp.Format(time.RFC3339), ev.ReservationID, ev.AmbulanceID, ev.HospitalID, ev.BedID)
	default:
		return fmt.Errorf("unknown event kind %q", env.Event)
	}

	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join("logs", "allocation.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
