package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joshua-takyi/studenthub/internal/models"
	"github.com/joshua-takyi/studenthub/internal/services"
)

func SendMessage(cs *services.ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		var req models.SendMessageRequest
		if !bindJSON(c, &req, "message and chatId are required") {
			return
		}
		if err := cs.Send(c.Request.Context(), claims.ID, req); err != nil {
			RespondError(c, err)
			return
		}
		c.String(http.StatusOK, "Message sent")
	}
}

func ListChats(cs *services.ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		chats, err := cs.ListChats(c.Request.Context(), claims.ID)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, chats)
	}
}

func ReadMessages(cs *services.ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		var req models.ReadMessagesRequest
		if !bindJSON(c, &req, "chatId and userId are required") {
			return
		}
		if err := cs.MarkRead(c.Request.Context(), claims.ID, req); err != nil {
			RespondError(c, err)
			return
		}
		c.String(http.StatusOK, "Messages read")
	}
}

func GetMessages(cs *services.ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		var req models.ChatRequest
		if !bindJSON(c, &req, "chatId is required") {
			return
		}
		messages, err := cs.Messages(c.Request.Context(), claims.ID, req)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, messages)
	}
}
