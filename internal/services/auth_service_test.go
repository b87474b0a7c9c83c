package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"clean-cloak/internal/models"
	"clean-cloak/internal/utils"

	"github.com/golang-jwt/jwt/v4"
)

func newAuthFixture() (*AuthService, *fakeUsers, *memoryCache) {
	users := newFakeUsers()
	cache := newMemoryCache()
	return NewAuthService(users, utils.NewJWTUtil("test-secret", time.Hour), nil, cache), users, cache
}

func TestAuthRegisterAndLogin(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()

	res, err := svc.Register(ctx, models.RegisterRequest{Name: "Asha Mwangi", Phone: "0712 345 678", Password: "secret1", Role: models.RoleCleaner})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if res.Token == "" || res.User.Role != models.RoleCleaner || res.User.Phone != "0712345678" {
		t.Errorf("register result = %+v", res.User)
	}
	if res.User.Password == "secret1" {
		t.Error("password stored in plain text")
	}

	if _, err := svc.Register(ctx, models.RegisterRequest{Name: "Asha", Phone: "0712345678", Password: "secret1"}); !errors.Is(err, models.ErrConflict) {
		t.Errorf("duplicate phone error = %v, want ErrConflict", err)
	}

	login, err := svc.Login(ctx, models.LoginRequest{Identifier: "0712345678", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	claims, err := utils.NewJWTUtil("test-secret", time.Hour).ValidateToken(login.Token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != res.User.ID.Hex() || claims.Role != "cleaner" {
		t.Errorf("claims = %+v", claims)
	}

	if _, err := svc.Login(ctx, models.LoginRequest{Identifier: "Asha Mwangi", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(ctx, models.LoginRequest{Identifier: "nobody", Password: "x"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user error = %v, want ErrInvalidCredentials", err)
	}
}

func TestAuthRegister_RejectsPrivilegedRoles(t *testing.T) {
	svc, _, _ := newAuthFixture()
	for _, role := range []models.Role{models.RoleAdmin, models.RoleTeamLeader} {
		_, err := svc.Register(context.Background(), models.RegisterRequest{Name: "Eve", Phone: "0711111111", Password: "secret1", Role: role})
		if !errors.Is(err, models.ErrValidation) {
			t.Errorf("role %s error = %v, want ErrValidation", role, err)
		}
	}
}

func TestAuthActiveRoleAndDeviceTokens(t *testing.T) {
	user := &models.User{Name: "Chebet", Role: models.RoleClient, IsActive: true}
	inactive := &models.User{Name: "Gone", Role: models.RoleClient}
	svc := NewAuthService(newFakeUsers(user, inactive), utils.NewJWTUtil("k", time.Hour), nil, nil)
	ctx := context.Background()

	if role, err := svc.ActiveRole(ctx, user.ID.Hex()); err != nil || role != "client" {
		t.Errorf("ActiveRole() = %q, %v", role, err)
	}
	if _, err := svc.ActiveRole(ctx, inactive.ID.Hex()); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("inactive error = %v, want ErrForbidden", err)
	}

	for i := 0; i < 2; i++ {
		if err := svc.RegisterDeviceToken(ctx, user.ID.Hex(), models.DeviceTokenRequest{DeviceToken: "fcm-1"}); err != nil {
			t.Fatal(err)
		}
	}
	if len(user.DeviceTokens) != 1 {
		t.Errorf("device tokens = %v, want one", user.DeviceTokens)
	}
	if err := svc.RegisterDeviceToken(ctx, user.ID.Hex(), models.DeviceTokenRequest{}); !errors.Is(err, models.ErrValidation) {
		t.Errorf("empty token error = %v, want ErrValidation", err)
	}
}

func TestAuthMeCachesProfile(t *testing.T) {
	svc, users, cache := newAuthFixture()
	ctx := context.Background()
	res, err := svc.Register(ctx, models.RegisterRequest{Name: "Asha", Phone: "0722000000", Password: "secret1"})
	if err != nil {
		t.Fatal(err)
	}
	id := res.User.ID.Hex()

	if _, err := svc.Me(ctx, id); err != nil {
		t.Fatal(err)
	}
	delete(users.users, id)
	me, err := svc.Me(ctx, id)
	if err != nil || me.Name != "Asha" {
		t.Errorf("cached Me() = %+v, %v", me, err)
	}

	claims := &utils.Claims{UserID: id}
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	if err := svc.Logout(ctx, claims); err != nil {
		t.Errorf("Logout() error = %v", err)
	}
	if _, ok := cache.data[profileCacheKey(id)]; ok {
		t.Error("profile cache survived logout")
	}
}
