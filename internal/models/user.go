package models

import (
	"strings"
	"time"

	"rvsync/backend/pkg/jwt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User represents a user in the system
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"column:password_hash;not null" json:"-"`
	IsAdmin   bool      `gorm:"default:false" json:"is_admin"`
	GPA       float64   `gorm:"default:0" json:"gpa"`
	GithubURL string    `json:"github_url,omitempty"`
	Bio       string    `gorm:"type:text" json:"bio,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SignupRequest is the request structure for creating a new user
type SignupRequest struct {
	Name     string `json:"name" binding:"required,max=255"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest is the request structure for user login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest is the body of PUT /users/:user_id; absent fields are left alone
type UpdateProfileRequest struct {
	Name      *string  `json:"name" binding:"omitempty,min=1,max=255"`
	GPA       *float64 `json:"gpa" binding:"omitempty,min=0,max=10"`
	GithubURL *string  `json:"github_url" binding:"omitempty,url"`
	Bio       *string  `json:"bio" binding:"omitempty,max=2000"`
}

// UserResponse is the response structure for user data (without sensitive info)
type UserResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      jwt.Role  `json:"role"`
	GPA       float64   `json:"gpa"`
	GithubURL string    `json:"github_url,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthResponse is returned by signup and login
type AuthResponse struct {
	Token     string       `json:"access_token"`
	TokenType string       `json:"token_type"`
	ExpiresIn int64        `json:"expires_in"`
	User      UserResponse `json:"user"`
}

// HashPassword hashes a password for storage
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with a hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// BeforeCreate is a GORM hook to hash the password before saving
func (u *User) BeforeCreate(tx *gorm.DB) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if strings.HasPrefix(u.Password, "$2a$") {
		return nil
	}
	hashedPassword, err := HashPassword(u.Password)
	if err != nil {
		return err
	}
	u.Password = hashedPassword
	return nil
}

// Role maps the admin flag onto a token role
func (u *User) Role() jwt.Role {
	if u.IsAdmin {
		return jwt.RoleAdmin
	}
	return jwt.RoleStudent
}

// Identity returns what a token is issued for
func (u *User) Identity() jwt.Identity {
	return jwt.Identity{UserID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role()}
}

// ToResponse converts a User model to a UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role(),
		GPA:       u.GPA,
		GithubURL: u.GithubURL,
		Bio:       u.Bio,
		CreatedAt: u.CreatedAt,
	}
}

// GitHubRepo is a repository imported from the user's GitHub profile
type GitHubRepo struct {
	ID          uint                        `gorm:"primaryKey" json:"id"`
	UserID      uint                        `gorm:"index;not null" json:"user_id"`
	RepoName    string                      `gorm:"not null" json:"repo_name"`
	URL         string                      `gorm:"not null" json:"url"`
	Description string                      `gorm:"type:text" json:"description,omitempty"`
	Stars       int                         `json:"stars"`
	Forks       int                         `json:"forks"`
	Language    string                      `json:"language,omitempty"`
	Topics      datatypes.JSONSlice[string] `json:"topics"`
	LastUpdated *time.Time                  `json:"last_updated,omitempty"`
	CreatedAt   time.Time                   `json:"created_at"`
}

// GitHubSyncResponse reports what a GitHub import changed
type GitHubSyncResponse struct {
	Message     string   `json:"message"`
	ReposSynced int      `json:"repos_synced"`
	SkillsFound []string `json:"skills_found"`
	SkillsAdded []string `json:"skills_added"`
}
