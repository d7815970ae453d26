// Package events 发布考勤领域事件
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// CheckedIn 签到成功事件
type CheckedIn struct {
	RecordID    string    `json:"record_id"`
	PersonID    string    `json:"person_id"`
	PersonName  string    `json:"person_name"`
	EventID     string    `json:"event_id"`
	EventName   string    `json:"event_name"`
	Method      string    `json:"method"`
	CheckInTime time.Time `json:"check_in_time"`
}

// Publisher 领域事件发布器
type Publisher interface {
	PublishCheckedIn(ctx context.Context, evt CheckedIn) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher 以 person_id 为 key 写入 Kafka，同一人员事件落在同一分区
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher 创建 Kafka 发布器
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
			BatchTimeout:           50 * time.Millisecond,
		},
	}
}

// PublishCheckedIn 序列化并写入签到事件
func (p *KafkaPublisher) PublishCheckedIn(ctx context.Context, evt CheckedIn) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("序列化签到事件失败: %w", err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(evt.PersonID),
		Value: payload,
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("attendance.checked_in")},
		},
	})
}

// Close 刷新缓冲并关闭连接
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Noop 未配置 Kafka 时使用
type Noop struct{}

func (Noop) PublishCheckedIn(context.Context, CheckedIn) error { return nil }
func (Noop) Close() error                                      { return nil }
