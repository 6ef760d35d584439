// Package idgen 提供了 52 位合成 ID 的生成能力。
//
// ID 位布局（共 52 位）：
//
//	[ 时间戳(秒) 32 位 | 随机部分 14 位 | 序列号 6 位 ]
//
// 计算公式：id = (timestamp << 20) | (random << 6) | sequence。
// 时间戳为相对自定义纪元的秒数；同一秒内由序列号区分，序列号用尽时
// 自旋等待下一秒。随机部分用于降低多进程部署时的碰撞概率，这是一个
// 有记录的取舍，而非全局唯一性保证。
package idgen

import (
	"errors"
	"math/rand/v2"
	"sync"
	"time"
)

const (
	sequenceBits  = 6
	randomBits    = 14
	timestampBits = 32

	maxSequence  = (1 << sequenceBits) - 1  // 63
	maxRandom    = (1 << randomBits) - 1    // 16383
	maxTimestamp = (1 << timestampBits) - 1 // 4294967295

	randomShift    = sequenceBits
	timestampShift = sequenceBits + randomBits

	// customEpoch 是 ID 时间戳的起点（Unix 秒）。与上游系统保持一致，
	// 不可随意变更，否则已发放的 ID 将无法按时间解读。
	customEpoch int64 = 1768579200
)

// ErrClockMovedBackwards 表示系统时钟相对上次发号发生了回拨。
// 这是致命条件：继续发号可能产生重复 ID，调用方必须中止而不是重试。
var ErrClockMovedBackwards = errors.New("idgen: clock moved backwards, refusing to generate id")

// Generator 是进程内唯一的发号器。时间戳与序列号状态由互斥锁保护；
// 随机部分每次独立生成，不需要同步。
type Generator struct {
	mu            sync.Mutex
	lastTimestamp int64
	sequence      uint64

	// now 可在测试中替换，生产环境始终为 time.Now。
	now func() time.Time
}

// NewGenerator 创建一个新的发号器实例。
func NewGenerator() *Generator {
	return &Generator{lastTimestamp: -1, now: time.Now}
}

// NextID 生成一个新的 52 位 ID。
//
// tenantID 参数被接受但目前不参与位布局：租户归属由数据库记录中的
// tenant_id 字段维护，而不再编码进 ID。保留该参数是有意的前向兼容
// 设计，便于将来引入租户内命名空间而不改变调用方签名。
func (g *Generator) NextID(tenantID uint64) (uint64, error) {
	_ = tenantID

	random := uint64(rand.IntN(maxRandom + 1))

	g.mu.Lock()
	defer g.mu.Unlock()

	timestamp := g.currentTimestamp()
	if timestamp < g.lastTimestamp {
		return 0, ErrClockMovedBackwards
	}

	if timestamp == g.lastTimestamp {
		g.sequence = (g.sequence + 1) & maxSequence
		// 序列号回绕到 0 说明本秒内 64 个号已用尽，自旋等待下一秒。
		if g.sequence == 0 {
			timestamp = g.waitNextSecond(g.lastTimestamp)
		}
	} else {
		g.sequence = 0
	}

	g.lastTimestamp = timestamp

	id := (uint64(timestamp)&maxTimestamp)<<timestampShift |
		(random&maxRandom)<<randomShift |
		(g.sequence & maxSequence)
	return id, nil
}

// Decompose 从 ID 中解析出时间戳（相对纪元的秒数）、随机部分和序列号。
func Decompose(id uint64) (timestamp, random, sequence uint64) {
	sequence = id & maxSequence
	random = (id >> randomShift) & maxRandom
	timestamp = (id >> timestampShift) & maxTimestamp
	return
}

// RealTimestamp 返回 ID 中编码的真实 Unix 时间戳（秒）。
func RealTimestamp(id uint64) int64 {
	ts, _, _ := Decompose(id)
	return int64(ts) + customEpoch
}

func (g *Generator) currentTimestamp() int64 {
	return g.now().Unix() - customEpoch
}

func (g *Generator) waitNextSecond(last int64) int64 {
	timestamp := g.currentTimestamp()
	for timestamp <= last {
		timestamp = g.currentTimestamp()
	}
	return timestamp
}
