package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"trip-server/internal/model"
)

// PlanCreatedQueue — очередь событий о созданных планах.
const PlanCreatedQueue = "plan_created_events"

// PlanCreatedPayload — сообщение о созданном плане. Направления целиком
// не публикуем, подписчики забирают план по ID при необходимости.
type PlanCreatedPayload struct {
	PlanID              string             `json:"plan_id"`
	FinalRecommendation string             `json:"final_recommendation"`
	ModelName           string             `json:"model_name"`
	Summary             []model.SummaryRow `json:"summary"`
	CreatedAt           time.Time          `json:"created_at"`
}

// RabbitMQPublisher публикует события планов в RabbitMQ.
type RabbitMQPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *zap.Logger
}

// NewRabbitMQPublisher подключается к RabbitMQ и объявляет очередь событий.
func NewRabbitMQPublisher(url string, logger *zap.Logger) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("не удалось открыть канал: %w", err)
	}

	_, err = ch.QueueDeclare(
		PlanCreatedQueue, // name
		true,             // durable
		false,            // delete when unused
		false,            // exclusive
		false,            // no-wait
		nil,              // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("не удалось объявить очередь '%s': %w", PlanCreatedQueue, err)
	}

	logger.Info("RabbitMQ publisher initialized", zap.String("queue", PlanCreatedQueue))
	return &RabbitMQPublisher{conn: conn, channel: ch, logger: logger.Named("plan_publisher")}, nil
}

// PublishPlanCreated публикует событие о созданном плане.
func (p *RabbitMQPublisher) PublishPlanCreated(ctx context.Context, plan *model.Plan) error {
	payload := PlanCreatedPayload{
		PlanID:              plan.ID.String(),
		FinalRecommendation: plan.FinalRecommendation,
		ModelName:           plan.ModelName,
		Summary:             plan.Summary,
		CreatedAt:           plan.CreatedAt,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("ошибка сериализации события plan.created: %w", err)
	}

	if err := p.publishMessage(ctx, body); err != nil {
		return fmt.Errorf("ошибка публикации события plan.created для плана %s: %w", plan.ID, err)
	}
	return nil
}

func (p *RabbitMQPublisher) publishMessage(ctx context.Context, body []byte) error {
	if p.channel == nil {
		return errors.New("канал RabbitMQ не инициализирован")
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var err error
	// Попытка публикации с retry до 3 раз
	for attempt := 1; attempt <= 3; attempt++ {
		err = p.channel.PublishWithContext(ctx,
			"",               // exchange (используем default)
			PlanCreatedQueue, // routing key (имя очереди)
			false,            // mandatory
			false,            // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Body:         body,
				Timestamp:    time.Now(),
				AppId:        "trip-server",
			},
		)
		if err == nil {
			return nil
		}
		p.logger.Warn("Publish attempt failed",
			zap.Int("attempt", attempt), zap.String("queue", PlanCreatedQueue), zap.Error(err))
		time.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
	}
	return err
}

// Close закрывает канал и соединение.
func (p *RabbitMQPublisher) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
	p.logger.Info("RabbitMQ publisher closed")
}
