package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestUser_BeforeSave(t *testing.T) {
	t.Run("хеширует открытый пароль", func(t *testing.T) {
		user := &User{Username: "alice", Email: "alice@example.com", Password: "Secret123"}

		require.NoError(t, user.BeforeSave(nil))

		assert.NotEqual(t, "Secret123", user.Password, "Пароль должен быть хеширован")
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("Secret123")))
	})

	t.Run("не хеширует повторно", func(t *testing.T) {
		hash, err := bcrypt.GenerateFromPassword([]byte("Secret123"), bcrypt.MinCost)
		require.NoError(t, err)
		user := &User{Password: string(hash)}

		require.NoError(t, user.BeforeSave(nil))

		assert.Equal(t, string(hash), user.Password, "Уже хешированный пароль не должен изменяться")
	})

	t.Run("пустой пароль остается пустым", func(t *testing.T) {
		user := &User{}
		require.NoError(t, user.BeforeSave(nil))
		assert.Empty(t, user.Password)
	})
}

func TestUser_CheckPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("Secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &User{Password: string(hash)}

	assert.True(t, user.CheckPassword("Secret123"))
	assert.False(t, user.CheckPassword("Secret124"))
	assert.False(t, user.CheckPassword(""))
}

func TestIsStrongPassword(t *testing.T) {
	testCases := []struct {
		password string
		want     bool
	}{
		{"Abcdefg1", true},
		{"Abcdefghijklmnopqr12", true},
		{"Abcdef1", false},               // короче 8
		{"Abcdefghijklmnopqrs12", false}, // длиннее 20
		{"abcdefg1", false},              // нет заглавной
		{"ABCDEFG1", false},              // нет строчной
		{"Abcdefgh", false},              // нет цифры
	}

	for _, tc := range testCases {
		t.Run(tc.password, func(t *testing.T) {
			assert.Equal(t, tc.want, IsStrongPassword(tc.password))
		})
	}
}
