package domain

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLength = 6

var (
	ErrEmptyUserID   = errors.New("user id is required")
	ErrEmptyUsername = errors.New("username is required")
	ErrEmptyPassword = errors.New("password is required")
	ErrInvalidEmail  = errors.New("email is not a valid address")
	ErrWeakPassword  = errors.New("password must be at least 6 characters")
	ErrEmptyCountry  = errors.New("country is required")
)

// User is a marketplace account. Sellers publish listings; every account can buy.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Country      string
	Img          string
	Phone        string
	Description  string
	IsSeller     bool
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser builds a user ensuring required invariants and hashes the password.
func NewUser(id, username, email, password, country string, now time.Time) (*User, error) {
	user := &User{ID: strings.TrimSpace(id), CreatedAt: now, UpdatedAt: now}
	if user.ID == "" {
		return nil, ErrEmptyUserID
	}
	if err := user.SetUsername(username); err != nil {
		return nil, err
	}
	if err := user.SetEmail(email); err != nil {
		return nil, err
	}
	if err := user.SetPassword(password); err != nil {
		return nil, err
	}
	country = strings.TrimSpace(country)
	if country == "" {
		return nil, ErrEmptyCountry
	}
	user.Country = country
	return user, nil
}

func (u *User) SetUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrEmptyUsername
	}
	u.Username = username
	return nil
}

func (u *User) SetEmail(email string) error {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	u.Email = strings.ToLower(email)
	return nil
}

// SetPassword validates strength and stores a bcrypt hash. The plain text is never kept.
func (u *User) SetPassword(password string) error {
	if strings.TrimSpace(password) == "" {
		return ErrEmptyPassword
	}
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// UpdateProfile applies the optional profile fields.
func (u *User) UpdateProfile(img, phone, description string) {
	u.Img = strings.TrimSpace(img)
	u.Phone = strings.TrimSpace(phone)
	u.Description = strings.TrimSpace(description)
}

func (u *User) CheckPassword(password string) bool {
	if u.PasswordHash == "" || password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}
