package user

import "time"

// User is an account allowed to log in. Hospital accounts use the hospital
// code (hosp_name) as their username.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	Fullname  *string   `json:"fullname"`
	Hospital  *string   `json:"hospital"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HospitalCode returns the hospital the user belongs to, falling back to the
// username for hospital accounts created without one.
func (u *User) HospitalCode() string {
	if u.Hospital != nil && *u.Hospital != "" {
		return *u.Hospital
	}
	return u.Username
}

// Credentials is the login request body.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	User
	Roles     []string  `json:"roles"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
