package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/sgrey/chatline/internal/core"
	"github.com/sgrey/chatline/internal/domain"
)

func (a *API) ListChats(c *gin.Context) {
	chats, err := a.Store.Chats.ForUser(c.GetInt64("user_id"))
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("list chats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		return
	}
	c.JSON(http.StatusOK, chats)
}

type createChatRequest struct {
	Name       string  `json:"name"`
	Message    string  `json:"message"`
	Recipients []int64 `json:"recipients" binding:"required"`
}

func (a *API) CreateChat(c *gin.Context) {
	var req createChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Recipients) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no users selected"})
		return
	}

	userID := c.GetInt64("user_id")
	recipients := []int64{userID}
	for _, r := range req.Recipients {
		if r != userID {
			recipients = append(recipients, r)
		}
	}

	chat, err := a.Store.Chats.Create(req.Name, recipients)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("create chat")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		return
	}

	if req.Message != "" {
		if _, err := a.Store.Messages.Create(chat.ID, userID, req.Message); err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Msg("create chat first message")
		}
	}

	log.Info().Str("module", "adapters.http").Int64("chat", chat.ID).Int64("user", userID).Msg("chat created")
	c.JSON(http.StatusCreated, chat)
}

func (a *API) ChatHistory(c *gin.Context) {
	chatID, userID, ok := a.chatAccess(c)
	if !ok {
		return
	}

	if err := a.Store.Chats.MarkRead(chatID, userID); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("mark read")
	}

	history, err := a.Store.Messages.History(chatID)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("chat history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		return
	}
	c.JSON(http.StatusOK, history)
}

func (a *API) SearchUsers(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusOK, []gin.H{})
		return
	}

	users, err := a.Store.Users.Search(query, c.GetInt64("user_id"), 5)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("search users")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		return
	}

	results := make([]gin.H, 0, len(users))
	for _, u := range users {
		results = append(results, gin.H{"id": u.ID, "username": u.Username})
	}
	c.JSON(http.StatusOK, results)
}

type sendMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

// SendMessage persists the message and only then fans it out to the chat's
// live subscribers. The serialized view passes through the core untouched.
func (a *API) SendMessage(c *gin.Context) {
	chatID, userID, ok := a.chatAccess(c)
	if !ok {
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message required"})
		return
	}

	msg, err := a.Store.Messages.Create(chatID, userID, req.Message)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("create message")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		return
	}
	if err := a.Store.Chats.MarkUnreadExcept(chatID, userID); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("mark unread")
	}

	view, err := a.Store.Messages.View(msg)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("resolve message view")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		return
	}

	payload, err := json.Marshal(view)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("marshal message")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		return
	}
	res := a.Orch.Broadcast(domain.ChatID(chatID), core.Payload(payload))
	log.Debug().Str("module", "adapters.http").Int64("chat", chatID).Int("sent_to", res.SentTo).Msg("message broadcast")

	c.JSON(http.StatusCreated, view)
}

// chatAccess parses the :id param and rejects callers that are not chat
// members.
func (a *API) chatAccess(c *gin.Context) (chatID, userID int64, ok bool) {
	chatID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return 0, 0, false
	}
	userID = c.GetInt64("user_id")

	member, err := a.Store.Chats.IsMember(chatID, userID)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("membership check")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		return 0, 0, false
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a chat member"})
		return 0, 0, false
	}
	return chatID, userID, true
}
