package game

const (
	DefaultObstacleHP       = 3
	DefaultBuffTileDuration = 2
)

// BuffTile grants its buff to the first unit that ends a move on it. An empty
// BuffType is rolled when triggered.
type BuffTile struct {
	ID        string   `json:"id"`
	Position  Position `json:"position"`
	BuffType  BuffType `json:"buffType,omitempty"`
	Duration  int      `json:"duration"`
	Triggered bool     `json:"triggered"`
}

// Obstacle blocks movement until its HP is exhausted.
type Obstacle struct {
	ID       string   `json:"id"`
	Position Position `json:"position"`
	HP       int      `json:"hp"`
}

type DeathChoiceType string

const (
	SpawnObstacle DeathChoiceType = "SPAWN_OBSTACLE"
	SpawnBuffTile DeathChoiceType = "SPAWN_BUFF_TILE"
)

// DeathChoice is owed to the owner of a minion that died.
type DeathChoice struct {
	DeadUnitID string   `json:"deadUnitId"`
	Owner      PlayerID `json:"owner"`
	Position   Position `json:"position"`
}
