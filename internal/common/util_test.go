package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWipeByteArray_ZerosBuffer(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5}
	WipeByteArray(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("expected buf[%d]==0, got %d", i, v)
		}
	}
}

func TestWipeByteArray_NilSafe(t *testing.T) {
	WipeByteArray(nil)
}

func TestValidateCredentials(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{name: "ok", username: "melon_usk", password: "secret1"},
		{name: "blank username", username: "   ", password: "secret1", wantErr: ErrEmptyUsername},
		{name: "short password", username: "u", password: "tragi", wantErr: ErrPasswordTooShort},
		{name: "exactly six", username: "u", password: "tragic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCredentials(tt.username, []byte(tt.password))
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateContent(t *testing.T) {
	require.ErrorIs(t, ValidateContent(""), ErrEmptyContent)
	require.ErrorIs(t, ValidateContent(" \n\t"), ErrEmptyContent)
	require.NoError(t, ValidateContent("The meaning of life is 42"))
}
