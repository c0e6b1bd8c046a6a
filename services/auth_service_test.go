package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizdeck/models"
	"quizdeck/pkg/apperr"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	return NewAuthService(newTestDB(t), "test-secret", time.Hour, disabledMail(t))
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		svc := newAuthService(t)

		res, err := svc.Register(ctx, &RegisterRequest{
			Username: "alice123",
			Email:    "alice@x.com",
			Password: "Passw0rd",
		})
		require.NoError(t, err)
		require.NotEmpty(t, res.Token)
		assert.Equal(t, "alice123", res.User.Username)
		assert.Equal(t, "user", res.User.Role)

		// The hash must never leave the service in serialized form.
		raw, err := json.Marshal(res.User)
		require.NoError(t, err)
		assert.NotContains(t, string(raw), "password")
		assert.NotContains(t, string(raw), "Passw0rd")
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc := newAuthService(t)

		_, err := svc.Register(ctx, &RegisterRequest{Username: "alice123", Email: "alice@x.com", Password: "Passw0rd"})
		require.NoError(t, err)

		_, err = svc.Register(ctx, &RegisterRequest{Username: "alice999", Email: "alice@x.com", Password: "Passw0rd"})
		require.Error(t, err)
		assert.Equal(t, apperr.CodeAlreadyExists, apperr.CodeOf(err))
	})

	t.Run("duplicate username", func(t *testing.T) {
		svc := newAuthService(t)

		_, err := svc.Register(ctx, &RegisterRequest{Username: "alice123", Email: "alice@x.com", Password: "Passw0rd"})
		require.NoError(t, err)

		_, err = svc.Register(ctx, &RegisterRequest{Username: "alice123", Email: "other@x.com", Password: "Passw0rd"})
		require.Error(t, err)
		assert.Equal(t, apperr.CodeAlreadyExists, apperr.CodeOf(err))
	})

	t.Run("storage failure is tagged internal with call context", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewAuthService(db, "test-secret", time.Hour, disabledMail(t))
		require.NoError(t, db.Migrator().DropTable(&models.User{}))

		_, err := svc.Register(ctx, &RegisterRequest{Username: "alice123", Email: "alice@x.com", Password: "Passw0rd"})
		require.Error(t, err)
		assert.Equal(t, apperr.CodeInternal, apperr.CodeOf(err))
		assert.Contains(t, err.Error(), "authService.Register.checkUsername")
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		svc := newAuthService(t)

		reg, err := svc.Register(ctx, &RegisterRequest{Username: "alice123", Email: "alice@x.com", Password: "Passw0rd"})
		require.NoError(t, err)

		res, err := svc.Login(ctx, &LoginRequest{Email: "alice@x.com", Password: "Passw0rd"})
		require.NoError(t, err)
		assert.Equal(t, reg.User.ID, res.User.ID)
		assert.NotEmpty(t, res.Token)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc := newAuthService(t)

		_, err := svc.Register(ctx, &RegisterRequest{Username: "alice123", Email: "alice@x.com", Password: "Passw0rd"})
		require.NoError(t, err)

		_, err = svc.Login(ctx, &LoginRequest{Email: "alice@x.com", Password: "WrongPw1"})
		require.Error(t, err)
		assert.Equal(t, apperr.CodeUnauthenticated, apperr.CodeOf(err))
	})

	t.Run("unknown email", func(t *testing.T) {
		svc := newAuthService(t)

		_, err := svc.Login(ctx, &LoginRequest{Email: "nobody@x.com", Password: "Passw0rd"})
		require.Error(t, err)
		assert.Equal(t, apperr.CodeUnauthenticated, apperr.CodeOf(err))
	})
}

func TestAuthService_UpdateProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("updates supplied fields only", func(t *testing.T) {
		svc := newAuthService(t)
		reg, err := svc.Register(ctx, &RegisterRequest{Username: "alice123", Email: "alice@x.com", Password: "Passw0rd"})
		require.NoError(t, err)

		newName := "alice_new"
		updated, err := svc.UpdateProfile(ctx, reg.User.ID, &UpdateProfileRequest{Username: &newName})
		require.NoError(t, err)
		assert.Equal(t, "alice_new", updated.Username)
		assert.Equal(t, "alice@x.com", updated.Email)
	})

	t.Run("colliding username", func(t *testing.T) {
		svc := newAuthService(t)
		_, err := svc.Register(ctx, &RegisterRequest{Username: "alice123", Email: "alice@x.com", Password: "Passw0rd"})
		require.NoError(t, err)
		bob, err := svc.Register(ctx, &RegisterRequest{Username: "bob456", Email: "bob@x.com", Password: "Passw0rd"})
		require.NoError(t, err)

		taken := "alice123"
		_, err = svc.UpdateProfile(ctx, bob.User.ID, &UpdateProfileRequest{Username: &taken})
		require.Error(t, err)
		assert.Equal(t, apperr.CodeAlreadyExists, apperr.CodeOf(err))
	})
}

func TestUpdateProfileRequest_Violations(t *testing.T) {
	t.Run("zero fields rejected", func(t *testing.T) {
		req := &UpdateProfileRequest{}
		details := req.Violations()
		require.Len(t, details, 1)
		assert.Equal(t, "body", details[0].Field)
	})

	t.Run("bad username charset", func(t *testing.T) {
		bad := "no spaces!"
		req := &UpdateProfileRequest{Username: &bad}
		assert.NotEmpty(t, req.Violations())
	})
}

func TestRegisterRequest_Validation(t *testing.T) {
	cases := []struct {
		name string
		req  RegisterRequest
	}{
		{"short username", RegisterRequest{Username: "ab", Email: "a@x.com", Password: "Passw0rd"}},
		{"bad email", RegisterRequest{Username: "alice123", Email: "not-an-email", Password: "Passw0rd"}},
		{"password without digit", RegisterRequest{Username: "alice123", Email: "a@x.com", Password: "Password"}},
		{"password without upper", RegisterRequest{Username: "alice123", Email: "a@x.com", Password: "passw0rd"}},
		{"password too short", RegisterRequest{Username: "alice123", Email: "a@x.com", Password: "Pw0rd"}},
		{"whitespace-only username", RegisterRequest{Username: "   ", Email: "a@x.com", Password: "Passw0rd"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.req.Normalize()
			assert.NotEmpty(t, tc.req.Violations())
		})
	}

	t.Run("password is not trimmed", func(t *testing.T) {
		req := RegisterRequest{Username: "alice123", Email: "a@x.com", Password: " Passw0rd "}
		req.Normalize()
		assert.Equal(t, " Passw0rd ", req.Password)
		assert.Empty(t, req.Violations())
	})

	t.Run("email is case-folded", func(t *testing.T) {
		req := RegisterRequest{Username: "alice123", Email: "Alice@X.COM", Password: "Passw0rd"}
		req.Normalize()
		assert.Equal(t, "alice@x.com", req.Email)
	})
}
