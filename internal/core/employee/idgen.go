package employee

import (
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator は新規社員の ID を払い出します。
type IDGenerator interface {
	NewID() string
}

// TimestampIDGenerator は作成時刻のミリ秒を ID とします。
// 同じミリ秒内の払い出しは直前の値 +1 とし、ID は単調増加します。
type TimestampIDGenerator struct {
	clock Clock

	mu   sync.Mutex
	last int64
}

// NewTimestampIDGenerator は TimestampIDGenerator を生成します。clock が nil の場合は現在時刻を使用します。
func NewTimestampIDGenerator(clock Clock) *TimestampIDGenerator {
	if clock == nil {
		clock = realClock{}
	}
	return &TimestampIDGenerator{clock: clock}
}

// NewID は max(現在時刻, 直前の ID+1) を返します。
func (g *TimestampIDGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.clock.Now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return strconv.FormatInt(ms, 10)
}

// UUIDGenerator はランダムな UUID を ID とします。
type UUIDGenerator struct{}

// NewID は UUID v4 文字列を返します。
func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// NewIDGenerator は設定値 "timestamp" または "uuid" から IDGenerator を選択します。
func NewIDGenerator(strategy string, clock Clock) IDGenerator {
	if strategy == "uuid" {
		return UUIDGenerator{}
	}
	return NewTimestampIDGenerator(clock)
}
