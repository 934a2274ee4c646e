package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispomail/backend/internal/domain"
	"dispomail/backend/internal/logger"
	"dispomail/backend/internal/storage"
	"dispomail/backend/internal/storage/memory"
)

func newInboxFixture(t *testing.T) (*InboxService, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	svc := NewInboxService(store, logger.NewDevelopmentLogger())

	base := time.Now().UTC()
	for i, id := range []string{"e1", "e2", "e3"} {
		require.NoError(t, store.SaveEmail(&domain.Email{
			ID:        id,
			UserID:    "owner",
			Subject:   id,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, store.SaveEmail(&domain.Email{
		ID:        "other",
		UserID:    "someone-else",
		CreatedAt: base,
	}))
	return svc, store
}

func TestInboxList(t *testing.T) {
	svc, _ := newInboxFixture(t)

	emails, err := svc.List("owner")
	require.NoError(t, err)
	require.Len(t, emails, 3)

	// 按接收时间倒序
	assert.Equal(t, "e3", emails[0].ID)
	assert.Equal(t, "e1", emails[2].ID)
}

func TestInboxGet(t *testing.T) {
	svc, _ := newInboxFixture(t)

	t.Run("属主可以读取", func(t *testing.T) {
		email, err := svc.Get("owner", "e1")
		require.NoError(t, err)
		assert.Equal(t, "e1", email.Subject)
	})

	t.Run("非属主被拒", func(t *testing.T) {
		_, err := svc.Get("owner", "other")
		assert.ErrorIs(t, err, ErrNotOwner)
	})

	t.Run("邮件不存在", func(t *testing.T) {
		_, err := svc.Get("owner", "ghost")
		assert.ErrorIs(t, err, storage.ErrEmailNotFound)
	})
}

func TestInboxMarkRead(t *testing.T) {
	svc, store := newInboxFixture(t)

	require.NoError(t, svc.MarkRead("owner", "e1"))
	email, err := store.GetEmail("e1")
	require.NoError(t, err)
	assert.True(t, email.Read)

	assert.ErrorIs(t, svc.MarkRead("intruder", "e1"), ErrNotOwner)
}

func TestInboxDelete(t *testing.T) {
	svc, store := newInboxFixture(t)

	t.Run("属主可以删除", func(t *testing.T) {
		require.NoError(t, svc.Delete("owner", "e2"))
		_, err := store.GetEmail("e2")
		assert.ErrorIs(t, err, storage.ErrEmailNotFound)
	})

	t.Run("非属主不能删除", func(t *testing.T) {
		assert.ErrorIs(t, svc.Delete("intruder", "e1"), ErrNotOwner)
		_, err := store.GetEmail("e1")
		assert.NoError(t, err)
	})
}
