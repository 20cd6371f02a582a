package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"autoparts/internal/usecase"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// 1件の送信にかける上限
const defaultPublishTimeout = 2 * time.Second

// KafkaNotifier は注文イベントをトピックへ流す（メール送信側が購読する）
// キーは注文番号なので同じ注文のイベントは順序が保たれる
// 送信は1回きり。失敗は呼び出し側がログに残して捨てる
type KafkaNotifier struct {
	w       messageWriter
	topic   string
	timeout time.Duration
}

func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
		MaxAttempts:  1,
		WriteTimeout: defaultPublishTimeout,
	}
	return &KafkaNotifier{w: w, topic: topic, timeout: defaultPublishTimeout}
}

func (n *KafkaNotifier) Publish(ctx context.Context, ev usecase.OrderEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode order event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(ev.OrderNumber),
		Value: b,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(ev.Type)},
		},
	}
	timeout := n.timeout
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := n.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s to %s: %w", ev.Type, n.topic, err)
	}
	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.w.Close()
}

// LogNotifier はブローカー未設定時の代わり。ログに出すだけ
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Publish(ctx context.Context, ev usecase.OrderEvent) error {
	n.log.Info().
		Str("event", ev.Type).
		Int64("order_id", ev.OrderID).
		Str("order_number", ev.OrderNumber).
		Str("status", string(ev.Status)).
		Msg("order event")
	return nil
}

var (
	_ usecase.OrderNotifier = (*KafkaNotifier)(nil)
	_ usecase.OrderNotifier = (*LogNotifier)(nil)
)
