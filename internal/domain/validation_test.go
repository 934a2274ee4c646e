package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAddressValidator_ValidateEmail(t *testing.T) {
	v := NewAddressValidator()

	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"合法地址", "abc@example.com", false},
		{"带子域名", "user@mail.example.com", false},
		{"带数字", "user123@example.com", false},
		{"带点", "user.name@example.com", false},
		{"缺少 @", "testexample.com", true},
		{"缺少域名", "test@", true},
		{"缺少本地部分", "@example.com", true},
		{"空字符串", "", true},
		{"包含空格", "test @example.com", true},
		{"本地部分过短", "ab@example.com", true},
		{"连续点", "a..b@example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAddressValidator_ValidateDomain(t *testing.T) {
	v := NewAddressValidator()

	assert.NoError(t, v.ValidateDomain("example.com"))
	assert.NoError(t, v.ValidateDomain("mail.example.com"))
	assert.Error(t, v.ValidateDomain(""))
	assert.Error(t, v.ValidateDomain("nodot"))
	assert.Error(t, v.ValidateDomain("-bad.com"))
	assert.Error(t, v.ValidateDomain("bad..com"))
}

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t, "abc@example.com", NormalizeAddress("ABC@Example.Com"))
	assert.Equal(t, "abc@example.com", NormalizeAddress("  abc@example.com  "))
}

func TestDateKey(t *testing.T) {
	// 跨时区时间必须折算到 UTC 日期
	loc := time.FixedZone("UTC+8", 8*3600)
	ts := time.Date(2025, 6, 2, 6, 30, 0, 0, loc) // UTC 2025-06-01 22:30
	assert.Equal(t, "2025-06-01", DateKey(ts))
}
