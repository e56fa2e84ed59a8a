package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messenger-service/internal/mocks"
	"messenger-service/internal/models"
)

func setupMessageRouter(handler *MessageHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.GET("/messages/unread", handler.Unread)
	r.GET("/messages/history/:user_id", handler.History)
	return r
}

func TestHistorySuccess(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(repo, nil)
	router := setupMessageRouter(handler)

	repo.On("History", mock.Anything, 1, 2).
		Return([]models.DirectMessage{{ID: 10, SenderID: 2, ReceiverID: 1, Content: "hi"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/messages/history/2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
}

func TestHistoryInvalidUserID(t *testing.T) {
	handler := NewMessageHandler(new(mocks.MessageRepositoryMock), nil)
	router := setupMessageRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/messages/history/bad", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnreadSuccess(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(repo, nil)
	router := setupMessageRouter(handler)

	repo.On("Unread", mock.Anything, 1).
		Return([]models.DirectMessage{{ID: 11, SenderID: 3, ReceiverID: 1, Content: "missed"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/messages/unread", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
}

func TestUnreadStoreError(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(repo, nil)
	router := setupMessageRouter(handler)

	repo.On("Unread", mock.Anything, 1).Return(nil, errors.New("db down")).Once()

	req := httptest.NewRequest(http.MethodGet, "/messages/unread", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
