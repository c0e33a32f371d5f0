package rest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"legalport/config"
	"legalport/internal/domain"
	"legalport/internal/service"
)

type testAPI struct {
	router   *gin.Engine
	requests *MockRequestService
	chat     *MockChatService
	presence *MockPresenceService
	lawyers  *MockLawyerService
	video    *MockVideoService
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	api := &testAPI{
		router:   gin.New(),
		requests: &MockRequestService{},
		chat:     &MockChatService{},
		presence: &MockPresenceService{},
		lawyers:  &MockLawyerService{},
		video:    &MockVideoService{},
	}

	services := &service.Services{
		Auth:     fakeAuth{},
		Lawyer:   api.lawyers,
		Request:  api.requests,
		Chat:     api.chat,
		Presence: api.presence,
		Video:    api.video,
	}
	cfg := &config.Config{Chat: config.ChatConfig{MaxFileSize: 16}}

	NewHandler(services, zap.NewNop(), cfg, nil).InitRoutes(api.router)
	return api
}

func (a *testAPI) do(method, path, token string, body []byte, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: pending -> completed", domain.ErrInvalidTransition), http.StatusConflict},
		{domain.ErrChatEnded, http.StatusConflict},
		{domain.ErrSessionEnded, http.StatusConflict},
		{domain.ErrMissingParticipants, http.StatusBadRequest},
		{domain.ErrValidation, http.StatusBadRequest},
		{domain.ErrUnsupportedFileType, http.StatusUnsupportedMediaType},
		{domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{domain.ErrAccessDenied, http.StatusForbidden},
		{&domain.PersistenceError{Op: "insert", Kind: domain.PersistenceKindPermissionDenied}, http.StatusForbidden},
		{&domain.PersistenceError{Op: "insert", Kind: domain.PersistenceKindUnavailable}, http.StatusServiceUnavailable},
		{domain.ErrTimeout, http.StatusGatewayTimeout},
		{domain.ErrUnauthorized, http.StatusUnauthorized},
		{&domain.ProvisioningError{RequestID: "r1", Err: domain.ErrUnavailable}, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name    string
		header  string
		message string
	}{
		{name: "missing header", message: "empty authorization header"},
		{name: "wrong scheme", header: "Basic abc", message: "invalid authorization header format"},
		{name: "unknown token", header: "Bearer nope", message: domain.ErrUnauthorized.Error()},
		{name: "expired token", header: "Bearer expired-token", message: domain.ErrTokenExpired.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/chats", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			api.router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tt.message, decode(t, w)["message"])
		})
	}
}

func TestLawyerRoutesRequireLawyerRole(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodPatch, "/api/v1/requests/r1/status", "client-token", []byte(`{"status":"accepted"}`), "application/json")

	assert.Equal(t, http.StatusForbidden, w.Code)
	api.requests.AssertNotCalled(t, "SetStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestListLawyers_Timeout(t *testing.T) {
	api := newTestAPI(t)
	api.lawyers.On("List", mock.Anything).Return(nil, domain.ErrTimeout)

	w := api.do(http.MethodGet, "/api/v1/lawyers", "", nil, "")

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	body := decode(t, w)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, float64(http.StatusGatewayTimeout), body["code"])
}

func TestSetRequestStatus(t *testing.T) {
	accepted := &domain.ConsultationRequest{ID: "r1", ClientID: "c1", LawyerID: "l1", Status: domain.RequestStatusAccepted}

	t.Run("accept provisions chat", func(t *testing.T) {
		api := newTestAPI(t)
		api.requests.On("SetStatus", mock.Anything, "l1", "r1", domain.UpdateRequestStatusDTO{Status: domain.RequestStatusAccepted}).
			Return(accepted, &domain.ProvisionResult{ChatID: "chat1", SessionID: "s1"}, nil)

		w := api.do(http.MethodPatch, "/api/v1/requests/r1/status", "lawyer-token", []byte(`{"status":"accepted"}`), "application/json")

		require.Equal(t, http.StatusOK, w.Code)
		data := decode(t, w)["data"].(map[string]interface{})
		assert.Equal(t, "accepted", data["request"].(map[string]interface{})["status"])
		assert.Equal(t, "chat1", data["provision"].(map[string]interface{})["chat_id"])
	})

	t.Run("provisioning failure keeps accepted status", func(t *testing.T) {
		api := newTestAPI(t)
		provErr := &domain.ProvisioningError{RequestID: "r1", Err: domain.ErrUnavailable}
		api.requests.On("SetStatus", mock.Anything, "l1", "r1", mock.Anything).Return(accepted, nil, provErr)

		w := api.do(http.MethodPatch, "/api/v1/requests/r1/status", "lawyer-token", []byte(`{"status":"accepted"}`), "application/json")

		require.Equal(t, http.StatusBadGateway, w.Code)
		body := decode(t, w)
		assert.Equal(t, "failed", body["provisioning"])
		assert.Equal(t, "accepted", body["request"].(map[string]interface{})["status"])
	})

	t.Run("invalid transition", func(t *testing.T) {
		api := newTestAPI(t)
		api.requests.On("SetStatus", mock.Anything, "l1", "r1", mock.Anything).
			Return(nil, nil, fmt.Errorf("%w: declined -> accepted", domain.ErrInvalidTransition))

		w := api.do(http.MethodPatch, "/api/v1/requests/r1/status", "lawyer-token", []byte(`{"status":"accepted"}`), "application/json")

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("status outside the lawyer's choices", func(t *testing.T) {
		api := newTestAPI(t)

		w := api.do(http.MethodPatch, "/api/v1/requests/r1/status", "lawyer-token", []byte(`{"status":"cancelled"}`), "application/json")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		api.requests.AssertNotCalled(t, "SetStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestRetryProvisioning_Failure(t *testing.T) {
	api := newTestAPI(t)
	api.requests.On("RetryProvisioning", mock.Anything, "l1", "r1").
		Return(nil, &domain.ProvisioningError{RequestID: "r1", Err: domain.ErrUnavailable})

	w := api.do(http.MethodPost, "/api/v1/requests/r1/provision", "lawyer-token", nil, "")

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "failed", decode(t, w)["provisioning"])
}

func TestRespondError_HidesDriverDetails(t *testing.T) {
	driverErr := errors.New(`ERROR: permission denied for table chat_sessions (SQLSTATE 42501)`)

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{
			name:    "permission denied",
			err:     &domain.PersistenceError{Op: "get chat session", Kind: domain.PersistenceKindPermissionDenied, Err: driverErr},
			status:  http.StatusForbidden,
			message: domain.ErrPermissionDenied.Error(),
		},
		{
			name:    "unavailable",
			err:     fmt.Errorf("load: %w", &domain.PersistenceError{Op: "get chat session", Kind: domain.PersistenceKindUnavailable, Err: driverErr}),
			status:  http.StatusServiceUnavailable,
			message: domain.ErrUnavailable.Error(),
		},
		{
			name: "provisioning",
			err: &domain.ProvisioningError{RequestID: "r1", Err: &domain.PersistenceError{
				Op: "provision chat", Step: domain.StepChatThread, Kind: domain.PersistenceKindUnavailable, Err: driverErr,
			}},
			status:  http.StatusBadGateway,
			message: domain.ErrProvisioningFailed.Error() + ": " + domain.ErrUnavailable.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			body := decode(t, w)
			assert.Equal(t, tt.message, body["message"])
			assert.NotContains(t, w.Body.String(), "SQLSTATE")
		})
	}
}

func TestGetChatSessionByRequest(t *testing.T) {
	t.Run("participant", func(t *testing.T) {
		api := newTestAPI(t)
		api.chat.On("GetSessionByRequest", mock.Anything, "r1", "c1").Return(&domain.ChatSession{
			ID: "s1", RequestID: "r1", ClientID: "c1", LawyerID: "l1",
			ServiceType: domain.ServiceTypeChat, Status: domain.ChatStatusActive,
		}, nil)

		w := api.do(http.MethodGet, "/api/v1/chats/by-request/r1/session", "client-token", nil, "")

		require.Equal(t, http.StatusOK, w.Code)
		data := decode(t, w)["data"].(map[string]interface{})
		assert.Equal(t, "s1", data["id"])
		assert.Equal(t, "chat", data["service_type"])
	})

	t.Run("outsider", func(t *testing.T) {
		api := newTestAPI(t)
		api.chat.On("GetSessionByRequest", mock.Anything, "r1", "l1").Return(nil, domain.ErrAccessDenied)

		w := api.do(http.MethodGet, "/api/v1/chats/by-request/r1/session", "lawyer-token", nil, "")

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestListRequests(t *testing.T) {
	t.Run("scoped to caller with paging", func(t *testing.T) {
		api := newTestAPI(t)
		pending := domain.RequestStatusPending
		principal := domain.Principal{ID: "c1", Role: domain.UserRoleClient}
		api.requests.On("List", mock.Anything, principal, &pending, 10, 20).
			Return([]domain.ConsultationRequest{{ID: "r1"}}, 21, nil)

		w := api.do(http.MethodGet, "/api/v1/requests?status=pending&limit=10&offset=20", "client-token", nil, "")

		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, float64(21), body["total_count"])
		assert.Equal(t, float64(3), body["page"])
		assert.Equal(t, float64(3), body["total_pages"])
	})

	t.Run("unknown status", func(t *testing.T) {
		api := newTestAPI(t)

		w := api.do(http.MethodGet, "/api/v1/requests?status=lost", "client-token", nil, "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSendMessage_ChatEnded(t *testing.T) {
	api := newTestAPI(t)
	api.chat.On("SendMessage", mock.Anything, "chat1", "c1", domain.SenderRoleClient, "hello").
		Return(nil, domain.ErrChatEnded)

	w := api.do(http.MethodPost, "/api/v1/chats/chat1/messages", "client-token", []byte(`{"text":"hello"}`), "application/json")

	assert.Equal(t, http.StatusConflict, w.Code)
}

func multipartBody(t *testing.T, fileName, contentType string, data []byte, text string) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, fileName))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)

	if text != "" {
		require.NoError(t, writer.WriteField("text", text))
	}
	require.NoError(t, writer.Close())

	return buf.Bytes(), writer.FormDataContentType()
}

func TestSendFile(t *testing.T) {
	t.Run("forwards attachment", func(t *testing.T) {
		api := newTestAPI(t)
		body, contentType := multipartBody(t, "scan.pdf", "application/pdf", []byte("%PDF-1.4 tiny"), "see attached")
		expected := domain.Attachment{Name: "scan.pdf", MimeType: "application/pdf", Data: []byte("%PDF-1.4 tiny")}
		api.chat.On("SendMessageWithFile", mock.Anything, "chat1", "l1", domain.SenderRoleLawyer, expected, "see attached").
			Return(&domain.Message{ID: "m1", Type: domain.MessageTypeFile}, nil)

		w := api.do(http.MethodPost, "/api/v1/chats/chat1/files", "lawyer-token", body, contentType)

		require.Equal(t, http.StatusCreated, w.Code)
		api.chat.AssertExpectations(t)
	})

	t.Run("oversized file never reaches the service", func(t *testing.T) {
		api := newTestAPI(t)
		body, contentType := multipartBody(t, "big.png", "image/png", bytes.Repeat([]byte("x"), 17), "")

		w := api.do(http.MethodPost, "/api/v1/chats/chat1/files", "client-token", body, contentType)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		api.chat.AssertNotCalled(t, "SendMessageWithFile", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unsupported type", func(t *testing.T) {
		api := newTestAPI(t)
		body, contentType := multipartBody(t, "a.zip", "application/zip", []byte("PK"), "")
		api.chat.On("SendMessageWithFile", mock.Anything, "chat1", "c1", domain.SenderRoleClient, mock.Anything, "").
			Return(nil, domain.ErrUnsupportedFileType)

		w := api.do(http.MethodPost, "/api/v1/chats/chat1/files", "client-token", body, contentType)

		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	})

	t.Run("missing file", func(t *testing.T) {
		api := newTestAPI(t)
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		require.NoError(t, writer.WriteField("text", "no file"))
		require.NoError(t, writer.Close())

		w := api.do(http.MethodPost, "/api/v1/chats/chat1/files", "client-token", buf.Bytes(), writer.FormDataContentType())

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetPresence(t *testing.T) {
	t.Run("parses ids", func(t *testing.T) {
		api := newTestAPI(t)
		api.presence.On("GetPresence", mock.Anything, []string{"a", "b", "c"}).
			Return(map[string]domain.Presence{"a": {UserID: "a", IsOnline: true}}, nil)

		w := api.do(http.MethodGet, "/api/v1/presence?ids=a,%20b,,c", "client-token", nil, "")

		require.Equal(t, http.StatusOK, w.Code)
		api.presence.AssertExpectations(t)
	})

	t.Run("ids required", func(t *testing.T) {
		api := newTestAPI(t)

		w := api.do(http.MethodGet, "/api/v1/presence?ids=,,", "client-token", nil, "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSetPresence(t *testing.T) {
	api := newTestAPI(t)
	api.presence.On("SetPresence", mock.Anything, "c1", false).
		Return(&domain.Presence{UserID: "c1", IsOnline: false}, nil)

	w := api.do(http.MethodPut, "/api/v1/presence", "client-token", []byte(`{"is_online":false}`), "application/json")

	require.Equal(t, http.StatusOK, w.Code)
	api.presence.AssertExpectations(t)
}

func TestIssueJoinToken_SessionEnded(t *testing.T) {
	api := newTestAPI(t)
	api.video.On("IssueJoinToken", mock.Anything, "v1", "c1").Return(nil, domain.ErrSessionEnded)

	w := api.do(http.MethodPost, "/api/v1/video/sessions/v1/token", "client-token", nil, "")

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestVerifyJoinToken(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		claims  *domain.JoinClaims
		err     error
		status  int
		message string
	}{
		{name: "valid", token: "good", claims: &domain.JoinClaims{SessionID: "v1", Channel: "vcabc", UID: "c1"}, status: http.StatusOK},
		{name: "expired", token: "old", err: domain.ErrTokenExpired, status: http.StatusUnauthorized, message: domain.ErrTokenExpired.Error()},
		{name: "forged", token: "forged", err: fmt.Errorf("%w: signature is invalid", domain.ErrUnauthorized), status: http.StatusUnauthorized, message: domain.ErrUnauthorized.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t)
			if tt.claims != nil {
				api.video.On("VerifyJoinToken", tt.token).Return(tt.claims, nil)
			} else {
				api.video.On("VerifyJoinToken", tt.token).Return(nil, tt.err)
			}

			w := api.do(http.MethodPost, "/api/v1/video/tokens/verify", "", []byte(`{"token":"`+tt.token+`"}`), "application/json")

			require.Equal(t, tt.status, w.Code)
			body := decode(t, w)
			if tt.claims != nil {
				data := body["data"].(map[string]interface{})
				assert.Equal(t, "v1", data["session_id"])
				assert.Equal(t, "vcabc", data["channel"])
				return
			}
			assert.Equal(t, tt.message, body["message"])
		})
	}
}

