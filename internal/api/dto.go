package api

// playerDTO is one row of GET /players.
type playerDTO struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// createChallengeRequest is the body of POST /games/create.
type createChallengeRequest struct {
	Player1ID   int    `json:"player1_id"`
	Player2Name string `json:"player2_name"`
	FieldSize   string `json:"field_size"`
}

// createChallengeResponse is the response of POST /games/create.
type createChallengeResponse struct {
	MatchID string `json:"match_id"`
}

// pendingChallengeDTO is one row of GET /games/pending.
type pendingChallengeDTO struct {
	MatchID   string `json:"match_id"`
	Player1ID int    `json:"player1_id"`
	Player2ID int    `json:"player2_id"`
	FieldName string `json:"field_name"`
}

// unitTypeDTO embeds a stack's catalog entry in a state snapshot.
type unitTypeDTO struct {
	ID                  int     `json:"id"`
	Name                string  `json:"name"`
	BaseDamage          int     `json:"base_damage"`
	Defense             int     `json:"defense"`
	MaxHP               int     `json:"max_hp"`
	MovementRange       int     `json:"movement_range"`
	AttackRange         int     `json:"attack_range"`
	Initiative          int     `json:"initiative"`
	Flying              bool    `json:"flying"`
	Kamikaze            bool    `json:"kamikaze"`
	DodgeChance         float64 `json:"dodge_chance"`
	CritChance          float64 `json:"crit_chance"`
	Luck                float64 `json:"luck"`
	CounterAttackChance float64 `json:"counter_attack_chance"`
	EffectiveAgainst    int     `json:"effective_against,omitempty"`
}

// stackDTO is one stack entry of the state snapshot (spec §6 "list of
// stacks with {id, player_id, x, y, count, hp, has_moved, unit_type: {...}}").
type stackDTO struct {
	ID       int         `json:"id"`
	PlayerID int         `json:"player_id"`
	X        int         `json:"x"`
	Y        int         `json:"y"`
	Count    int         `json:"count"`
	HP       int         `json:"hp"`
	HasMoved bool        `json:"has_moved"`
	UnitType unitTypeDTO `json:"unit_type"`
}

// obstacleDTO is one obstacle cell of the state snapshot.
type obstacleDTO struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// eventDTO is one tail entry of the state snapshot's event log.
type eventDTO struct {
	Ordinal int    `json:"ordinal"`
	Kind    string `json:"kind"`
	Summary string `json:"summary"`
}

// stateResponse is the response of GET /games/{id}/state.
type stateResponse struct {
	MatchID         string        `json:"match_id"`
	Status          string        `json:"status"`
	Width           int           `json:"width"`
	Height          int           `json:"height"`
	CurrentPlayerID int           `json:"current_player_id"`
	RoundNumber     int           `json:"round_number"`
	WinnerID        *int          `json:"winner_id,omitempty"`
	Draw            bool          `json:"draw,omitempty"`
	Stacks          []stackDTO    `json:"stacks"`
	Obstacles       []obstacleDTO `json:"obstacles"`
	Events          []eventDTO    `json:"events"`
}

// cellDTO names a single grid cell in the actions response.
type cellDTO struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// attackableDTO names a stack a given stack may attack this activation.
type attackableDTO struct {
	ID int `json:"id"`
	X  int `json:"x"`
	Y  int `json:"y"`
}

// actionsResponse is the response of GET /games/{id}/units/{stack_id}/actions
// (spec §6: "{ can_move: [{x,y}], can_attack: [{id,x,y}] }").
type actionsResponse struct {
	CanMove   []cellDTO       `json:"can_move"`
	CanAttack []attackableDTO `json:"can_attack"`
}

// actionRequest is the body of POST /games/{id}/move (spec §6's action
// request body).
type actionRequest struct {
	PlayerID  int    `json:"player_id"`
	UnitID    int    `json:"unit_id"`
	Action    string `json:"action"`
	RequestID string `json:"request_id,omitempty"`
	TargetX   int    `json:"target_x,omitempty"`
	TargetY   int    `json:"target_y,omitempty"`
	TargetID  int    `json:"target_id,omitempty"`
}

// actionResponse is the response of POST /games/{id}/move (spec §6).
type actionResponse struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	TurnSwitched    bool   `json:"turn_switched"`
	GameStatus      string `json:"game_status"`
	WinnerID        *int   `json:"winner_id,omitempty"`
	CurrentPlayerID int    `json:"current_player_id"`
}

// errorResponse is the body returned for any non-2xx response.
type errorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
