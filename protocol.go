package main

import "encoding/json"

// Client -> Server intents
const (
	MsgJoin       = "join"
	MsgMoveUp     = "moveUp"
	MsgMoveDown   = "moveDown"
	MsgMoveLeft   = "moveLeft"
	MsgMoveRight  = "moveRight"
	MsgShoot      = "shoot"
	MsgRestart    = "restart"
	MsgDisconnect = "disconnect"
)

// Server -> Client notifications
const (
	MsgAssignedID     = "assignedId"
	MsgWorldSnapshot  = "worldSnapshot"
	MsgEntityExploded = "entityExploded"
	MsgExplosionAt    = "explosionAt"
	MsgCollisionAt    = "collisionAt"
	MsgEntityDied     = "entityDied"
	MsgError          = "error"
)

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t" msgpack:"t"`
	Data interface{} `json:"d,omitempty" msgpack:"d,omitempty"`
}

// InEnvelope is used for incoming messages; D stays raw until the type is known
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// JoinMsg is sent when a player wants to enter the arena
type JoinMsg struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// AssignedIDMsg tells a session which entity it controls
type AssignedIDMsg struct {
	ID string `json:"id"`
}

// EntityMsg carries the id for entityExploded and entityDied
type EntityMsg struct {
	ID string `json:"id"`
}

// CellMsg carries the cell for explosionAt and collisionAt
type CellMsg struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ErrorMsg sends error to client
type ErrorMsg struct {
	Msg string `json:"msg"`
}

// EntityState is one entity inside a world snapshot
type EntityState struct {
	ID                       string `json:"id" msgpack:"id"`
	Name                     string `json:"name" msgpack:"name"`
	Color                    string `json:"color" msgpack:"color"`
	X                        int    `json:"x" msgpack:"x"`
	Y                        int    `json:"y" msgpack:"y"`
	Orientation              string `json:"orientation" msgpack:"orientation"`
	Status                   string `json:"status" msgpack:"status"`
	Rating                   int    `json:"rating" msgpack:"rating"`
	InvulnerableUntil        int64  `json:"invulnerableUntil" msgpack:"invulnerableUntil"`
	RespawnShotCooldownUntil int64  `json:"respawnShotCooldownUntil" msgpack:"respawnShotCooldownUntil"`
	IsBot                    bool   `json:"isBot" msgpack:"isBot"`
	Projectiles              []Vec  `json:"projectiles" msgpack:"projectiles"`
}

// ProjectileState is one active projectile inside a world snapshot
type ProjectileState struct {
	ID    uint32 `json:"id" msgpack:"id"`
	Owner string `json:"owner" msgpack:"owner"`
	X     int    `json:"x" msgpack:"x"`
	Y     int    `json:"y" msgpack:"y"`
}

// WorldSnapshot is the full state broadcast once per tick. Grid is indexed
// [row][col]; Now and the entity deadlines are milliseconds since game start.
type WorldSnapshot struct {
	Tick        uint64                 `json:"tick" msgpack:"tick"`
	Now         int64                  `json:"now" msgpack:"now"`
	Cols        int                    `json:"cols" msgpack:"cols"`
	Rows        int                    `json:"rows" msgpack:"rows"`
	Grid        [][]int                `json:"grid" msgpack:"grid"`
	Entities    map[string]EntityState `json:"entities" msgpack:"entities"`
	Projectiles []ProjectileState      `json:"projectiles" msgpack:"projectiles"`
	Walls       []Vec                  `json:"walls" msgpack:"walls"`
}

// SnapshotFrame is the msgpack form of a worldSnapshot notification, tagged
// like Envelope so binary frames name their event too
type SnapshotFrame struct {
	T string        `json:"t" msgpack:"t"`
	D WorldSnapshot `json:"d" msgpack:"d"`
}

// StatsMsg is served by /api/stats
type StatsMsg struct {
	Tick           uint64 `json:"tick"`
	Players        int    `json:"players"`
	Bots           int    `json:"bots"`
	Projectiles    int    `json:"projectiles"`
	PoolCapacity   int    `json:"poolCapacity"`
	ScheduledTasks int    `json:"scheduledTasks"`
	Connections    int    `json:"connections"`
}
