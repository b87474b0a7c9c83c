package models

import (
	"time"

	"clean-cloak/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name               string             `bson:"name" json:"name" validate:"required,min=2,max=50"`
	Phone              string             `bson:"phone" json:"phone" validate:"required,kephone"`
	Password           string             `bson:"password" json:"-" validate:"required,min=6"`
	Role               Role               `bson:"role" json:"role" validate:"required,oneof=client cleaner admin team_leader"`
	VerificationStatus string             `bson:"verification_status" json:"verification_status"`
	IsActive           bool               `bson:"is_active" json:"is_active"`
	DeviceTokens       []string           `bson:"device_tokens,omitempty" json:"-"`
	CreatedAt          time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time          `bson:"updated_at" json:"updated_at"`
}

func (u *User) Validate() error {
	return utils.ValidateStruct(u, ErrValidation)
}

func (u *User) HashPassword() error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

func (u *User) ComparePassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

type DeviceTokenRequest struct {
	DeviceToken string `json:"device_token" validate:"required"`
}

type AuthResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
