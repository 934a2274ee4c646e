package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispomail/backend/internal/domain"
	"dispomail/backend/internal/logger"
	"dispomail/backend/internal/service"
	"dispomail/backend/internal/storage/memory"
)

func newInboundTestRouter(t *testing.T) (*gin.Engine, *memory.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	require.NoError(t, store.CreateAddress(&domain.Address{
		ID:        "addr-1",
		UserID:    "user-1",
		Address:   "box@tempmail.example",
		LocalPart: "box",
		Domain:    "tempmail.example",
		CreatedAt: time.Now().UTC(),
	}, -1))

	log := logger.NewDevelopmentLogger()
	ingest := service.NewIngestService(store, nil, log)
	handler := NewInboundHandler(ingest, log)

	r := gin.New()
	r.POST("/v1/inbound", handler.Handle)
	return r, store
}

func postInbound(r *gin.Engine, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch v := body.(type) {
	case string:
		buf.WriteString(v)
	default:
		_ = json.NewEncoder(&buf).Encode(v)
	}
	req := httptest.NewRequest(http.MethodPost, "/v1/inbound", &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestInboundHandler(t *testing.T) {
	r, store := newInboundTestRouter(t)

	t.Run("投递成功返回200", func(t *testing.T) {
		w := postInbound(r, domain.InboundMessage{
			From:    "sender@remote.example",
			To:      "box@tempmail.example",
			Subject: "hello",
			Text:    "body",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var resp Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data := resp.Data.(map[string]interface{})
		emailID := data["id"].(string)

		stored, err := store.GetEmail(emailID)
		require.NoError(t, err)
		assert.Equal(t, "hello", stored.Subject)
	})

	t.Run("收件地址大小写不敏感", func(t *testing.T) {
		w := postInbound(r, domain.InboundMessage{
			From: "sender@remote.example",
			To:   "BOX@TempMail.Example",
		})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("未分配地址返回404", func(t *testing.T) {
		w := postInbound(r, domain.InboundMessage{
			From: "sender@remote.example",
			To:   "nobody@tempmail.example",
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("非法JSON返回400", func(t *testing.T) {
		w := postInbound(r, "{not json")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("缺少收件地址返回400", func(t *testing.T) {
		w := postInbound(r, domain.InboundMessage{From: "sender@remote.example"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("附件载荷被接受", func(t *testing.T) {
		w := postInbound(r, domain.InboundMessage{
			From: "sender@remote.example",
			To:   "box@tempmail.example",
			Attachments: []domain.InboundAttachment{
				{Filename: "a.txt", ContentType: "text/plain", Content: "aGk="},
			},
		})
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
