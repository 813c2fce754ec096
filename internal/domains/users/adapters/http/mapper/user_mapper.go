package mapper

import (
	"time"

	userdomain "github.com/Apurer/go-gin-marketplace/internal/domains/users/domain"
	userports "github.com/Apurer/go-gin-marketplace/internal/domains/users/ports"
)

// RegisterUser is the transport payload for account registration.
type RegisterUser struct {
	Username    string `json:"username" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	Country     string `json:"country" binding:"required"`
	Img         string `json:"img,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Description string `json:"desc,omitempty"`
	IsSeller    bool   `json:"isSeller"`
}

// Credentials is the login payload.
type Credentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// User is the public representation of an account. The password hash never leaves the service.
type User struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Country     string    `json:"country"`
	Img         string    `json:"img,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Description string    `json:"desc,omitempty"`
	IsSeller    bool      `json:"isSeller"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Profile is what other users see; contact details are left out.
type Profile struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Country     string `json:"country"`
	Img         string `json:"img,omitempty"`
	Description string `json:"desc,omitempty"`
	IsSeller    bool   `json:"isSeller"`
}

// Session is returned on a successful login.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      User      `json:"user"`
}

func ToRegisterInput(model RegisterUser) userports.RegisterInput {
	return userports.RegisterInput{
		Username:    model.Username,
		Email:       model.Email,
		Password:    model.Password,
		Country:     model.Country,
		Img:         model.Img,
		Phone:       model.Phone,
		Description: model.Description,
		IsSeller:    model.IsSeller,
	}
}

// FromDomainUser converts a domain user into a transport representation.
func FromDomainUser(user *userdomain.User) User {
	if user == nil {
		return User{}
	}
	return User{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		Country:     user.Country,
		Img:         user.Img,
		Phone:       user.Phone,
		Description: user.Description,
		IsSeller:    user.IsSeller,
		CreatedAt:   user.CreatedAt,
	}
}

func FromLoginResult(result *userports.LoginResult) Session {
	if result == nil {
		return Session{}
	}
	return Session{Token: result.Token, ExpiresAt: result.ExpiresAt, User: FromDomainUser(result.User)}
}

func FromDomainProfile(user *userdomain.User) Profile {
	if user == nil {
		return Profile{}
	}
	return Profile{
		ID:          user.ID,
		Username:    user.Username,
		Country:     user.Country,
		Img:         user.Img,
		Description: user.Description,
		IsSeller:    user.IsSeller,
	}
}
