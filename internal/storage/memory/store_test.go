package memory

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispomail/backend/internal/domain"
	"dispomail/backend/internal/storage"
)

func newAddress(id, userID, email string) *domain.Address {
	return &domain.Address{
		ID:        id,
		UserID:    userID,
		Address:   email,
		CreatedAt: time.Now().UTC(),
	}
}

func TestStore_CreateAddress(t *testing.T) {
	t.Run("全局唯一约束", func(t *testing.T) {
		store := NewStore()

		require.NoError(t, store.CreateAddress(newAddress("a1", "u1", "abc@example.com"), -1))

		err := store.CreateAddress(newAddress("a2", "u2", "abc@example.com"), -1)
		assert.ErrorIs(t, err, storage.ErrAddressExists)
	})

	t.Run("受限套餐配额", func(t *testing.T) {
		store := NewStore()

		require.NoError(t, store.CreateAddress(newAddress("a1", "u1", "one@example.com"), 1))

		err := store.CreateAddress(newAddress("a2", "u1", "two@example.com"), 1)
		assert.ErrorIs(t, err, storage.ErrQuotaExceeded)

		// 不限配额的用户不受影响
		assert.NoError(t, store.CreateAddress(newAddress("a3", "u2", "three@example.com"), -1))
	})

	t.Run("并发分配不会双双越过配额", func(t *testing.T) {
		store := NewStore()

		var wg sync.WaitGroup
		succeeded := make(chan struct{}, 16)
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				addr := newAddress(fmt.Sprintf("a%d", i), "u1", fmt.Sprintf("p%d@example.com", i))
				if store.CreateAddress(addr, 1) == nil {
					succeeded <- struct{}{}
				}
			}(i)
		}
		wg.Wait()
		close(succeeded)

		assert.Len(t, succeeded, 1)
		count, err := store.CountAddressesByUserID("u1")
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestStore_DeleteAddressKeepsEmails(t *testing.T) {
	store := NewStore()

	require.NoError(t, store.CreateAddress(newAddress("a1", "u1", "abc@example.com"), -1))
	require.NoError(t, store.SaveEmail(&domain.Email{
		ID:             "m1",
		UserID:         "u1",
		RecipientEmail: "abc@example.com",
		CreatedAt:      time.Now().UTC(),
	}))

	// 删除地址是弱引用解除，邮件保持原归属
	require.NoError(t, store.DeleteAddress("a1"))

	email, err := store.GetEmail("m1")
	require.NoError(t, err)
	assert.Equal(t, "u1", email.UserID)
}

func TestStore_DeleteEmailsBefore(t *testing.T) {
	store := NewStore()
	now := time.Now().UTC()

	require.NoError(t, store.SaveEmail(&domain.Email{ID: "old", CreatedAt: now.Add(-25 * time.Hour)}))
	require.NoError(t, store.SaveEmail(&domain.Email{ID: "fresh", CreatedAt: now.Add(-1 * time.Hour)}))

	deleted, err := store.DeleteEmailsBefore(now.Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	// 幂等：再次执行没有可删对象
	deleted, err = store.DeleteEmailsBefore(now.Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, deleted)

	_, err = store.GetEmail("fresh")
	assert.NoError(t, err)
}

func TestStore_IncrementDailyCounter(t *testing.T) {
	store := NewStore()
	date := "2025-06-01"

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.IncrementDailyCounter(date)
		}()
	}
	wg.Wait()

	count, err := store.GetDailyCounter(date)
	require.NoError(t, err)
	assert.Equal(t, int64(30), count)

	// 其他日期不受影响
	other, _ := store.GetDailyCounter("2025-06-02")
	assert.Equal(t, int64(0), other)
}

func TestStore_UpsertDomain(t *testing.T) {
	store := NewStore()

	first := &domain.MailDomain{Name: "example.com", IsActive: true, CreatedAt: time.Now().UTC()}
	require.NoError(t, store.UpsertDomain(first))

	// 停用后重新添加会重新激活
	first.IsActive = false
	require.NoError(t, store.UpsertDomain(first))

	readd := &domain.MailDomain{Name: "example.com", IsActive: true, CreatedAt: time.Now().UTC()}
	require.NoError(t, store.UpsertDomain(readd))

	got, err := store.GetDomain("example.com")
	require.NoError(t, err)
	assert.True(t, got.IsActive)

	active, err := store.ListActiveDomains()
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestStore_Administrators(t *testing.T) {
	store := NewStore()

	ok, err := store.IsAdministrator("u1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.AddAdministrator(&domain.Administrator{UserID: "u1", CreatedAt: time.Now().UTC()}))

	ok, err = store.IsAdministrator("u1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.RemoveAdministrator("u1"))
	ok, _ = store.IsAdministrator("u1")
	assert.False(t, ok)
}

func TestStore_RateLimit(t *testing.T) {
	store := NewStore()

	n, err := store.IncrementRateLimit("ip:1.2.3.4", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, _ = store.IncrementRateLimit("ip:1.2.3.4", time.Minute)
	assert.Equal(t, int64(2), n)
}
