package ports

// AuthLevel is the privilege level of one RPC session.
type AuthLevel int

const (
	AuthLevelNone   AuthLevel = 0
	AuthLevelNormal AuthLevel = 5
	AuthLevelAdmin  AuthLevel = 10
)

// SessionAuth answers questions about RPC consumer sessions. Differential
// status baselines are scoped by session id and purged once a session is no
// longer valid.
type SessionAuth interface {
	IsValid(sessionID string) bool
	Level(sessionID string) AuthLevel
}
