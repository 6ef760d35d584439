// Package audit 提供了鉴权与自动预置动作的审计事件上报能力。
//
// 审计是尽力而为的：上报失败只记日志，绝不影响鉴权决策本身。
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"iam-core-go/pkg/log"
)

// 审计动作常量。
const (
	ActionTenantCreated   = "tenant.created"
	ActionDeptCreated     = "dept.created"
	ActionUserCreated     = "user.created"
	ActionRoleCreated     = "role.created"
	ActionPermissionsCopy = "permissions.copied"
	ActionPermissionsSync = "permissions.synced"
	ActionAccessDenied    = "access.denied"
)

// Event 是一条审计事件。
type Event struct {
	Action    string    `json:"action"`
	TenantID  uint64    `json:"tenantId"`
	UserID    uint64    `json:"userId,omitempty"`
	UserName  string    `json:"userName,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Recorder 定义了审计上报的契约。
type Recorder interface {
	Record(ctx context.Context, event Event)
}

// KafkaRecorder 把审计事件写入 Kafka 主题。
type KafkaRecorder struct {
	writer *kafka.Writer
}

// NewKafkaRecorder 创建一个 Kafka 审计上报器。
func NewKafkaRecorder(brokers, topic string) *KafkaRecorder {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	log.Info("审计事件生产者初始化成功")
	return &KafkaRecorder{writer: writer}
}

// Record 实现 Recorder 接口。失败只记日志。
func (r *KafkaRecorder) Record(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	value, err := json.Marshal(event)
	if err != nil {
		log.Errorf("序列化审计事件失败: %v", err)
		return
	}
	if err := r.writer.WriteMessages(ctx, kafka.Message{Value: value}); err != nil {
		log.Warnw("写入审计事件失败", "action", event.Action, "tenantId", event.TenantID, "error", err)
	}
}

// Close 关闭底层 Kafka writer。
func (r *KafkaRecorder) Close() error {
	return r.writer.Close()
}

// NopRecorder 在审计关闭时使用。
type NopRecorder struct{}

// Record 实现 Recorder 接口，不做任何事。
func (NopRecorder) Record(ctx context.Context, event Event) {}
