package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/raluca-web/ai-bot/models"
	"github.com/raluca-web/ai-bot/services"
	"github.com/raluca-web/ai-bot/utils"
)

func SetupChatRoutes(router *gin.Engine, engine *services.QAEngine, messages services.MessageStore) {
	router.POST("/api/chat", func(c *gin.Context) {
		var req models.ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Question is required", gin.H{"error": err.Error()})
			return
		}

		conversationID := req.ConversationID
		if conversationID == "" {
			conversationID = uuid.NewString()
		}

		result, err := engine.Answer(c.Request.Context(), req.Question, conversationID)
		if err != nil {
			utils.RespondWithPipelineError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.ChatResponse{
			Answer:         result.Answer,
			Sources:        result.Sources,
			ConversationID: conversationID,
		})
	})

	router.GET("/api/conversations/:id", func(c *gin.Context) {
		conversationID := c.Param("id")

		// Full stored history, oldest first
		history, err := messages.History(c.Request.Context(), conversationID, 200)
		if err != nil {
			utils.RespondWithPipelineError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"conversation_id": conversationID,
			"messages":        history,
			"total":           len(history),
		})
	})
}
