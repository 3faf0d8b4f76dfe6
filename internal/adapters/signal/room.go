package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
	"github.com/sgrey/chatline/internal/core"
	"github.com/sgrey/chatline/internal/domain"
)

func (ctl *Controller) handleJoin(cid core.ConnID, user *domain.User, c *WsConn, data []byte) {
	type joinPayload struct {
		Type   string `json:"type"`
		ChatID int64  `json:"chat_id"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil || p.ChatID == 0 {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendJSON(c, map[string]any{"type": "error", "error": "bad_payload"})
		return
	}

	if !ctl.Limiter.Allow(user.ID) {
		ctl.sendJSON(c, map[string]any{"type": "error", "error": "rate_limited"})
		return
	}

	member, err := ctl.Store.Chats.IsMember(p.ChatID, int64(user.ID))
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("membership check")
		ctl.sendJSON(c, map[string]any{"type": "error", "error": "internal"})
		return
	}
	if !member {
		log.Warn().Str("module", "signal").Str("conn", string(cid)).Int64("chat", p.ChatID).Msg("join rejected, not a member")
		ctl.sendJSON(c, map[string]any{"type": "error", "error": "not_a_member"})
		return
	}

	if err := ctl.Orch.Join(cid, domain.ChatID(p.ChatID)); err != nil {
		ctl.sendJSON(c, map[string]any{"type": "error", "error": "join_failed"})
		return
	}
	if err := ctl.Store.Chats.MarkRead(p.ChatID, int64(user.ID)); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("mark read")
	}
	log.Info().Str("module", "signal").Str("conn", string(cid)).Int64("chat", p.ChatID).Msg("join")

	ctl.sendJSON(c, struct {
		Type   string `json:"type"`
		ChatID int64  `json:"chat_id"`
	}{"joined", p.ChatID})
}

// handleLeave drops the room subscription; the socket itself stays open.
func (ctl *Controller) handleLeave(cid core.ConnID, c *WsConn, data []byte) {
	type leavePayload struct {
		Type   string `json:"type"`
		ChatID int64  `json:"chat_id"`
	}
	var p leavePayload
	if err := json.Unmarshal(data, &p); err != nil || p.ChatID == 0 {
		log.Error().Err(err).Str("module", "signal").Msg("bad leave payload")
		ctl.sendJSON(c, map[string]any{"type": "error", "error": "bad_payload"})
		return
	}

	log.Info().Str("module", "signal").Str("conn", string(cid)).Int64("chat", p.ChatID).Msg("leave")
	ctl.Orch.Leave(cid, domain.ChatID(p.ChatID))
	ctl.sendJSON(c, struct {
		Type   string `json:"type"`
		ChatID int64  `json:"chat_id"`
	}{"left", p.ChatID})
}
