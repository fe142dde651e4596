package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"BuggyFM/logger"
	"BuggyFM/model"
)

// chatHistoryWindow bounds how much history goes to the assistant per turn.
const chatHistoryWindow = 20

// ChatHandler runs one assistant turn: store the user message, ask the
// assistant with recent history, store and return the reply.
func (h *APIHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req model.ChatMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		http.Error(w, "Message content is required", http.StatusBadRequest)
		return
	}

	session, err := h.chatRepo.GetOrCreateSession(userID)
	if err != nil {
		logger.Error("failed to open chat session", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	history, err := h.chatRepo.GetMessagesBySessionID(session.ID, chatHistoryWindow)
	if err != nil {
		logger.Error("failed to load chat history", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	userMessage := &model.ChatMessage{
		SessionID: session.ID,
		Role:      "user",
		Content:   req.Content,
	}
	if _, err := h.chatRepo.CreateMessage(userMessage); err != nil {
		logger.Error("failed to store user message", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	reply := h.agent.Chat(r.Context(), history, req.Content)

	assistantMessage := &model.ChatMessage{
		SessionID: session.ID,
		Role:      "assistant",
		Content:   reply,
	}
	if _, err := h.chatRepo.CreateMessage(assistantMessage); err != nil {
		logger.Error("failed to store assistant message", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, model.ChatMessageResponse{
		UserMessage:      userMessage,
		AssistantMessage: assistantMessage,
	})
}

// ChatHistoryHandler returns the user's chat session and its messages.
func (h *APIHandler) ChatHistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	session, err := h.chatRepo.GetOrCreateSession(userID)
	if err != nil {
		logger.Error("failed to open chat session", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	messages, err := h.chatRepo.GetMessagesBySessionID(session.ID, 0)
	if err != nil {
		logger.Error("failed to load chat history", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, model.ChatHistoryResponse{
		Session:  session,
		Messages: messages,
	})
}

// ClearChatHistoryHandler deletes every message in the user's session.
func (h *APIHandler) ClearChatHistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	session, err := h.chatRepo.GetSessionByUserID(userID)
	if err != nil {
		logger.Error("failed to look up chat session", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if session == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := h.chatRepo.DeleteMessagesBySessionID(session.ID); err != nil {
		logger.Error("failed to clear chat history", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
