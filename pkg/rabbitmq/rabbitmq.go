package rabbitmq

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"recipebox/internal/models"

	"github.com/sirupsen/logrus"
	amqp "github.com/streadway/amqp"
)

// RecipeQueue is the durable queue recipe events are published to.
const RecipeQueue = "recipe_events"

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	mu      sync.Mutex // amqp channels are not safe for concurrent publishing
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// NewClient connects to RabbitMQ, opens a channel and declares the recipe queue.
func NewClient(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := declareQueue(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	logrus.WithField("queue", RecipeQueue).Info("RabbitMQ client connected")

	return &Client{
		conn:    conn,
		channel: ch,
	}, nil
}

func declareQueue(ch *amqp.Channel) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(
		RecipeQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return q, fmt.Errorf("failed to declare %s: %w", RecipeQueue, err)
	}
	return q, nil
}

// Close closes the RabbitMQ channel and connection.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors during RabbitMQ client close: %v", errs)
	}
	return nil
}

// Healthy reports whether the broker connection is still open.
func (c *Client) Healthy() bool {
	return c.conn != nil && !c.conn.IsClosed()
}

// PublishRecipeEvent publishes event as persistent JSON on the recipe queue.
func (c *Client) PublishRecipeEvent(event models.RecipeEvent) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	body, err := EncodeEvent(event)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	err = c.channel.Publish(
		"",          // default exchange
		RecipeQueue, // routing key: the queue name
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Type:         event.Event,
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"event":     event.Event,
		"recipe_id": event.RecipeID,
	}).Debug("Recipe event published")
	return nil
}

// EncodeEvent marshals a recipe event to its wire form.
func EncodeEvent(event models.RecipeEvent) ([]byte, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal recipe event: %w", err)
	}
	return body, nil
}

// DecodeEvent parses a recipe event from its wire form.
func DecodeEvent(body []byte) (models.RecipeEvent, error) {
	var event models.RecipeEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return event, fmt.Errorf("failed to unmarshal recipe event: %w", err)
	}
	return event, nil
}

// ConsumeRecipeEvents starts a goroutine handing every delivery on the recipe
// queue to handler. Successful deliveries are acked; failed ones are nacked
// without requeue so a poison message cannot loop.
func (c *Client) ConsumeRecipeEvents(handler func(event models.RecipeEvent) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	queue, err := declareQueue(c.channel)
	if err != nil {
		return err
	}

	msgs, err := c.channel.Consume(
		queue.Name,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for msg := range msgs {
			handleDelivery(msg, handler)
		}
		logrus.Info("Recipe event consumer stopped")
	}()

	return nil
}

// acknowledger is the part of amqp.Delivery used to settle a message.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func handleDelivery(msg amqp.Delivery, handler func(event models.RecipeEvent) error) {
	settle(&msg, msg.DeliveryTag, msg.Body, handler)
}

func settle(ack acknowledger, tag uint64, body []byte, handler func(event models.RecipeEvent) error) {
	event, err := DecodeEvent(body)
	if err == nil {
		err = handler(event)
	}
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"delivery_tag": tag,
			"error":        err.Error(),
		}).Error("Error processing recipe event")
		if nackErr := ack.Nack(false, false); nackErr != nil {
			logrus.WithError(nackErr).Error("Error nacking recipe event")
		}
		return
	}
	if ackErr := ack.Ack(false); ackErr != nil {
		logrus.WithError(ackErr).Error("Error acking recipe event")
	}
}

// LogRecipeEvent is the default consumer handler: it writes an audit log line.
func LogRecipeEvent(event models.RecipeEvent) error {
	logrus.WithFields(logrus.Fields{
		"event":     event.Event,
		"recipe_id": event.RecipeID,
		"user_id":   event.UserID,
		"title":     event.Title,
		"at":        event.At.Format(time.RFC3339),
	}).Info("Recipe event received")
	return nil
}
