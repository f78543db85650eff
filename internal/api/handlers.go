package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/stormhaven/arena/internal/action"
	"github.com/stormhaven/arena/internal/apierr"
	"github.com/stormhaven/arena/internal/arena"
	"github.com/stormhaven/arena/internal/board"
	"github.com/stormhaven/arena/internal/catalog"
)

func (s *Server) handleListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := s.lobby.ListPlayers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	dtos := make([]playerDTO, len(players))
	for i, p := range players {
		dtos[i] = playerDTO{ID: p.ID, Name: p.Name}
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (s *Server) handleCreateChallenge(w http.ResponseWriter, r *http.Request) {
	var req createChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierr.IllegalAction("malformed request body"))
		return
	}

	matchID, err := s.lobby.CreateChallenge(r.Context(), req.Player1ID, req.Player2Name, req.FieldSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, createChallengeResponse{MatchID: matchID})
}

func (s *Server) handleAccept(w http.ResponseWriter, r *http.Request) {
	matchID := mux.Vars(r)["id"]
	if err := s.lobby.Accept(r.Context(), matchID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleDecline(w http.ResponseWriter, r *http.Request) {
	matchID := mux.Vars(r)["id"]
	if err := s.lobby.Decline(r.Context(), matchID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleListPending(w http.ResponseWriter, r *http.Request) {
	playerID, err := strconv.Atoi(r.URL.Query().Get("player_id"))
	if err != nil {
		writeError(w, apierr.IllegalAction("player_id query parameter is required"))
		return
	}

	challenges, err := s.lobby.ListPending(r.Context(), playerID)
	if err != nil {
		writeError(w, err)
		return
	}
	dtos := make([]pendingChallengeDTO, len(challenges))
	for i, c := range challenges {
		dtos[i] = pendingChallengeDTO{
			MatchID:   c.MatchID,
			Player1ID: c.Player1ID,
			Player2ID: c.Player2ID,
			FieldName: c.FieldName,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	matchID := mux.Vars(r)["id"]

	st, _, _, err := s.gateway.Load(r.Context(), matchID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := stateResponse{
		MatchID:         st.Match.ID,
		Status:          string(st.Match.Status),
		Width:           st.Match.Width,
		Height:          st.Match.Height,
		CurrentPlayerID: st.Match.CurrentActorID,
		RoundNumber:     st.Match.RoundNumber,
		WinnerID:        st.Match.WinnerID,
		Draw:            st.Match.Draw,
	}

	for _, stack := range st.Stacks {
		if !stack.Alive() {
			continue
		}
		ut, _ := st.UnitType(stack)
		resp.Stacks = append(resp.Stacks, stackDTO{
			ID:       stack.ID,
			PlayerID: stack.PlayerID,
			X:        stack.Pos.X,
			Y:        stack.Pos.Y,
			Count:    stack.Count,
			HP:       stack.RemainingHP,
			HasMoved: stack.HasActed,
			UnitType: toUnitTypeDTO(ut),
		})
	}
	for _, o := range st.Obstacles {
		resp.Obstacles = append(resp.Obstacles, obstacleDTO{X: o.X, Y: o.Y})
	}

	sinceOrdinal := 0
	if raw := r.URL.Query().Get("since_ordinal"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			sinceOrdinal = n
		}
	}

	events, err := s.gateway.EventsSince(r.Context(), matchID, sinceOrdinal)
	if err != nil {
		writeError(w, err)
		return
	}
	for _, ev := range events {
		resp.Events = append(resp.Events, eventDTO{Ordinal: ev.Ordinal, Kind: string(ev.Kind), Summary: ev.Summary})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUnitActions(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	matchID := vars["id"]
	stackID, err := strconv.Atoi(vars["stack_id"])
	if err != nil {
		writeError(w, apierr.IllegalAction("malformed stack id"))
		return
	}

	st, _, _, err := s.gateway.Load(r.Context(), matchID)
	if err != nil {
		writeError(w, err)
		return
	}

	stack, ok := st.StackByID(stackID)
	if !ok {
		writeError(w, apierr.NotFound("stack not found"))
		return
	}
	ut, ok := st.UnitType(stack)
	if !ok {
		writeError(w, apierr.Internal("unit type not found for stack", nil))
		return
	}

	resp := actionsResponse{}
	if stack.Alive() {
		for _, pos := range st.Board.Reach(stack.Pos, ut.MovementRange, ut.Flying) {
			resp.CanMove = append(resp.CanMove, cellDTO{X: pos.X, Y: pos.Y})
		}
		for _, target := range st.OpposingStacks(stack.PlayerID) {
			if board.InAttackRange(stack.Pos, target.Pos, ut.AttackRange) {
				resp.CanAttack = append(resp.CanAttack, attackableDTO{ID: target.ID, X: target.Pos.X, Y: target.Pos.Y})
			}
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	matchID := mux.Vars(r)["id"]

	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierr.IllegalAction("malformed request body"))
		return
	}

	kind, err := actionKindOf(req.Action)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := s.reg.Submit(r.Context(), matchID, action.Request{
		PlayerID:  req.PlayerID,
		StackID:   req.UnitID,
		Kind:      kind,
		RequestID: req.RequestID,
		TargetX:   req.TargetX,
		TargetY:   req.TargetY,
		TargetID:  req.TargetID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	resp := actionResponse{
		Success:         true,
		Message:         "ok",
		TurnSwitched:    result.TurnSwitched,
		CurrentPlayerID: result.CurrentPlayerID,
	}
	if result.MatchEnded {
		resp.GameStatus = string(arena.StatusCompleted)
		resp.WinnerID = result.WinnerID
	} else {
		resp.GameStatus = string(arena.StatusActive)
	}
	writeJSON(w, http.StatusOK, resp)
}

func actionKindOf(raw string) (action.Kind, error) {
	switch action.Kind(raw) {
	case action.KindMove, action.KindAttack, action.KindSkip, action.KindDefer:
		return action.Kind(raw), nil
	default:
		return "", apierr.IllegalAction("unknown action kind " + raw)
	}
}

func toUnitTypeDTO(ut catalog.UnitType) unitTypeDTO {
	return unitTypeDTO{
		ID:                  ut.ID,
		Name:                ut.Name,
		BaseDamage:          ut.BaseDamage,
		Defense:             ut.Defense,
		MaxHP:               ut.MaxHP,
		MovementRange:       ut.MovementRange,
		AttackRange:         ut.AttackRange,
		Initiative:          ut.Initiative,
		Flying:              ut.Flying,
		Kamikaze:            ut.Kamikaze,
		DodgeChance:         ut.DodgeChance,
		CritChance:          ut.CritChance,
		Luck:                ut.Luck,
		CounterAttackChance: ut.CounterAttackChance,
		EffectiveAgainst:    ut.EffectiveAgainst,
	}
}
