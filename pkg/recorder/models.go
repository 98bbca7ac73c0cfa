// pkg/recorder/models.go
package recorder

import (
	"time"

	"gorm.io/datatypes"
)

// Session is one recorded run, from reset to shutdown.
type Session struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	StartedAt time.Time      `json:"startedAt"`
	EndedAt   *time.Time     `json:"endedAt"`
	Seed      int64          `json:"seed"`
	Config    datatypes.JSON `json:"config"`
	Ticks     uint64         `json:"ticks"`
	Collected int            `json:"collected"`
	Samples   int            `json:"samples"`
	Events    int            `json:"events"`
}

// BodySample is the kinematic state of one body at a sampled tick.
type BodySample struct {
	ID        uint    `json:"id" gorm:"primarykey"`
	SessionID uint    `json:"sessionId" gorm:"index:idx_sample_session_tick"`
	Tick      uint64  `json:"tick" gorm:"index:idx_sample_session_tick"`
	BodyID    uint64  `json:"bodyId"`
	Kind      string  `json:"kind" gorm:"size:16"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Z         float64 `json:"z"`
	VX        float64 `json:"vx"`
	VY        float64 `json:"vy"`
	VZ        float64 `json:"vz"`
	Alive     bool    `json:"alive"`
	Mode      string  `json:"mode" gorm:"size:16"`
}

// EventRecord is one bus event with its payload.
type EventRecord struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	SessionID uint           `json:"sessionId" gorm:"index"`
	Tick      uint64         `json:"tick"`
	Type      string         `json:"type" gorm:"size:32;index"`
	Payload   datatypes.JSON `json:"payload"`
	CreatedAt time.Time      `json:"createdAt"`
}
