package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispomail/backend/internal/domain"
	"dispomail/backend/internal/logger"
	"dispomail/backend/internal/storage"
	"dispomail/backend/internal/storage/memory"
)

func newDomainFixture(t *testing.T) (*DomainService, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return NewDomainService(store, logger.NewDevelopmentLogger()), store
}

func TestDomainAdd(t *testing.T) {
	svc, _ := newDomainFixture(t)

	t.Run("域名归一化为小写", func(t *testing.T) {
		d, err := svc.Add("TempMail.Example", "admin-1")
		require.NoError(t, err)
		assert.Equal(t, "tempmail.example", d.Name)
		assert.True(t, d.IsActive)
	})

	t.Run("拒绝非法域名", func(t *testing.T) {
		_, err := svc.Add("not a domain", "admin-1")
		assert.ErrorIs(t, err, domain.ErrInvalidDomain)
	})

	t.Run("重复添加按upsert处理并重新激活", func(t *testing.T) {
		require.NoError(t, svc.Deactivate("tempmail.example"))

		d, err := svc.Add("tempmail.example", "admin-2")
		require.NoError(t, err)
		assert.True(t, d.IsActive)
		assert.Equal(t, "admin-2", d.CreatedBy)

		all, err := svc.List()
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}

func TestDomainDeactivate(t *testing.T) {
	svc, _ := newDomainFixture(t)
	_, err := svc.Add("a.example", "admin-1")
	require.NoError(t, err)
	_, err = svc.Add("b.example", "admin-1")
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate("a.example"))

	active, err := svc.ListActive()
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "b.example", active[0].Name)

	// 停用保留记录
	all, err := svc.List()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	assert.ErrorIs(t, svc.Deactivate("ghost.example"), storage.ErrDomainNotFound)
}

func TestDomainRemove(t *testing.T) {
	svc, _ := newDomainFixture(t)
	_, err := svc.Add("a.example", "admin-1")
	require.NoError(t, err)

	require.NoError(t, svc.Remove("a.example"))

	all, err := svc.List()
	require.NoError(t, err)
	assert.Empty(t, all)

	assert.ErrorIs(t, svc.Remove("a.example"), storage.ErrDomainNotFound)
}

func TestDomainBootstrap(t *testing.T) {
	svc, _ := newDomainFixture(t)

	require.NoError(t, svc.Bootstrap([]string{"a.example", "b.example"}))

	active, err := svc.ListActive()
	require.NoError(t, err)
	assert.Len(t, active, 2)
}
