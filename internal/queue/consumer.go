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

// StartSOSConsumer connects to RabbitMQ, declares the sos.alert queue
// (durable), and starts consuming escalation events. Each event is relayed
// to the emergency log at logs/sos.log in a single-line format suitable
// for downstream forwarding. The function runs a reconnect loop with
// exponential backoff and keeps running indefinitely; processing errors
// are logged and the offending message is rejected without requeue so the
// relay never spins on a poison message.
func StartSOSConsumer() error {
	url := brokerURL()

	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn().Err(err).Dur("retry_in", backoff).Msg("sos-consumer: failed to dial broker")
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn); err != nil {
			log.Warn().Err(err).Msg("sos-consumer: consume loop ended, reconnecting")
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
		log.Warn().Err(err).Msg("sos-consumer: set QoS failed")
	}

	if _, err := ch.QueueDeclare(sosQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(sosQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := relayAlert(d.Body); err != nil {
			log.Error().Err(err).Msg("sos-consumer: relay failed")
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

// relayAlert appends one escalation event to the emergency log.
func relayAlert(body []byte) error {
	var ev SOSAlertEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	fpath := filepath.Join("logs", "sos.log")
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] SOS ALERT | event_id=%s | user=%q | location=%q | details=%q\n",
		ev.Timestamp, ev.EventID, ev.UserName, ev.Location, ev.ScamDetails)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
