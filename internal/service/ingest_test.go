package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispomail/backend/internal/domain"
	"dispomail/backend/internal/logger"
	"dispomail/backend/internal/storage/memory"
	"dispomail/backend/internal/websocket"
)

// recordingNotifier 记录推送事件的测试替身。
type recordingNotifier struct {
	mu     sync.Mutex
	events []websocket.Event
	users  []string
}

func (n *recordingNotifier) NotifyUser(userID string, event websocket.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.users = append(n.users, userID)
	n.events = append(n.events, event)
}

func newIngestFixture(t *testing.T) (*IngestService, *memory.Store, *recordingNotifier) {
	t.Helper()
	store := memory.NewStore()
	notifier := &recordingNotifier{}
	svc := NewIngestService(store, notifier, logger.NewDevelopmentLogger())

	require.NoError(t, store.CreateAddress(&domain.Address{
		ID:        "addr-1",
		UserID:    "user-1",
		Address:   "box@tempmail.example",
		LocalPart: "box",
		Domain:    "tempmail.example",
		CreatedAt: time.Now().UTC(),
	}, -1))
	return svc, store, notifier
}

func TestIngest(t *testing.T) {
	svc, store, notifier := newIngestFixture(t)

	email, err := svc.Ingest(&domain.InboundMessage{
		From:    "sender@remote.example",
		To:      "box@tempmail.example",
		Subject: "hello",
		Text:    "plain body",
		HTML:    "<p>plain body</p>",
	})
	require.NoError(t, err)

	// 归属自解析到的地址冗余复制
	assert.Equal(t, "user-1", email.UserID)
	assert.Equal(t, "box@tempmail.example", email.RecipientEmail)
	assert.False(t, email.Read)

	stored, err := store.GetEmail(email.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", stored.Subject)

	// 入库触发实时推送
	require.Len(t, notifier.events, 1)
	assert.Equal(t, "user-1", notifier.users[0])
	assert.Equal(t, "new_mail", notifier.events[0].Type)

	// 入库计入当日计数
	n, err := store.GetDailyCounter(domain.DateKey(time.Now()))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestIngest_MixedCaseRecipient(t *testing.T) {
	svc, _, _ := newIngestFixture(t)

	// 收件地址匹配与大小写无关
	email, err := svc.Ingest(&domain.InboundMessage{
		From: "sender@remote.example",
		To:   "  BOX@TempMail.Example ",
	})
	require.NoError(t, err)
	assert.Equal(t, "box@tempmail.example", email.RecipientEmail)
}

func TestIngest_RecipientNotFound(t *testing.T) {
	svc, store, notifier := newIngestFixture(t)

	_, err := svc.Ingest(&domain.InboundMessage{
		From: "sender@remote.example",
		To:   "nobody@tempmail.example",
	})
	assert.ErrorIs(t, err, ErrRecipientNotFound)

	// 被拒的投递不入库、不推送、不计数
	emails, err := store.ListEmailsByUserID("user-1")
	require.NoError(t, err)
	assert.Empty(t, emails)
	assert.Empty(t, notifier.events)

	n, err := store.GetDailyCounter(domain.DateKey(time.Now()))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIngest_EmptyBodies(t *testing.T) {
	svc, _, _ := newIngestFixture(t)

	// 缺失的正文字段入库为空字符串
	email, err := svc.Ingest(&domain.InboundMessage{
		From: "sender@remote.example",
		To:   "box@tempmail.example",
	})
	require.NoError(t, err)
	assert.Equal(t, "", email.Text)
	assert.Equal(t, "", email.HTML)
	assert.Equal(t, "", email.Subject)
}

func TestIngest_AttachmentsDropped(t *testing.T) {
	svc, store, _ := newIngestFixture(t)

	email, err := svc.Ingest(&domain.InboundMessage{
		From: "sender@remote.example",
		To:   "box@tempmail.example",
		Attachments: []domain.InboundAttachment{
			{Filename: "a.pdf", ContentType: "application/pdf", Content: "aGVsbG8="},
		},
	})
	require.NoError(t, err)

	// 附件接受但不持久化，邮件本体正常入库
	_, err = store.GetEmail(email.ID)
	assert.NoError(t, err)
}

func TestIngest_ConcurrentCounting(t *testing.T) {
	svc, store, _ := newIngestFixture(t)

	const n = 30
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.Ingest(&domain.InboundMessage{
				From: "sender@remote.example",
				To:   "box@tempmail.example",
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// 并发入库不丢计数
	count, err := store.GetDailyCounter(domain.DateKey(time.Now()))
	require.NoError(t, err)
	assert.Equal(t, int64(n), count)

	emails, err := store.ListEmailsByUserID("user-1")
	require.NoError(t, err)
	assert.Len(t, emails, n)
}

func TestIngest_AfterAddressReleased(t *testing.T) {
	svc, store, _ := newIngestFixture(t)
	require.NoError(t, store.DeleteAddress("addr-1"))

	// 地址回收后投递立即被拒
	_, err := svc.Ingest(&domain.InboundMessage{
		From: "sender@remote.example",
		To:   "box@tempmail.example",
	})
	assert.ErrorIs(t, err, ErrRecipientNotFound)
}
