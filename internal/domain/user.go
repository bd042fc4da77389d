package domain

import "time"

// User is the durable identity record. Name is the identity carried as the
// credential subject.
type User struct {
	Name         string    `json:"name" dynamodbav:"name"`
	UserID       string    `json:"id" dynamodbav:"user_id"`
	Display      string    `json:"display" dynamodbav:"display"`
	Email        string    `json:"email" dynamodbav:"email"`
	PasswordHash string    `json:"-" dynamodbav:"password_hash"`
	CountryCode  uint32    `json:"country_code" dynamodbav:"country_code"`
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`
}

// PublicUser is what other accounts may see of a user.
type PublicUser struct {
	Name        string    `json:"name"`
	UserID      string    `json:"id"`
	Display     string    `json:"display"`
	CountryCode uint32    `json:"country_code"`
	CreatedAt   time.Time `json:"created"`
}

// Public drops the e-mail address and secret.
func (u *User) Public() *PublicUser {
	return &PublicUser{
		Name:        u.Name,
		UserID:      u.UserID,
		Display:     u.Display,
		CountryCode: u.CountryCode,
		CreatedAt:   u.CreatedAt,
	}
}

// UserUpdate lists the stored fields to overwrite; nil fields are kept.
type UserUpdate struct {
	Display      *string
	PasswordHash *string
}

type CreateUserRequest struct {
	Name        string `json:"name" validate:"required,max=64"`
	Display     string `json:"display" validate:"required,max=128"`
	Email       string `json:"email" validate:"required,email"`
	EmailToken  string `json:"email_token" validate:"required"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	CountryCode uint32 `json:"country_code"`
}

type LoginRequest struct {
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type VerifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// UpdateUserRequest edits the caller's own account. Omitted fields are unchanged.
type UpdateUserRequest struct {
	Display  *string `json:"display,omitempty" validate:"omitempty,min=1,max=128"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=8,max=72"`
}

// DeleteUserRequest confirms account deletion with the current password.
type DeleteUserRequest struct {
	Password string `json:"password" validate:"required"`
}
