package models

import (
	"time"

	"gorm.io/gorm"
)

// These models mirror the platform's CRUD schema. The agent pipeline only
// reads them (shortcut queries, recipient resolution, payment reminders);
// the CRUD endpoints that own them live outside this service.

type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Fname string `gorm:"not null" json:"fname"`
	Lname string `gorm:"not null" json:"lname"`
	Email string `gorm:"uniqueIndex;not null" json:"email"`
	Role  string `gorm:"default:'job_seeker'" json:"role"`
}

type JobSeeker struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	UserID uint `gorm:"uniqueIndex" json:"user_id"`
	User   User `json:"user,omitempty"`

	Phone          string  `json:"phone"`
	Skills         string  `gorm:"type:text" json:"skills"`
	Experience     string  `json:"experience"` // beginner | skilled | advanced
	Location       string  `json:"location"`
	DesiredJob     string  `json:"desired_job"`
	ExpectedSalary float64 `json:"expected_salary"`
}

type Employer struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	UserID uint `gorm:"uniqueIndex" json:"user_id"`
	User   User `json:"user,omitempty"`

	CompanyName string `json:"company_name"`
	CompanySize int    `json:"company_size"`
	Industry    string `json:"industry"`
}

type Job struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	EmployerID uint     `json:"employer_id"`
	Employer   Employer `json:"employer,omitempty"`

	Title       string  `gorm:"not null" json:"title"`
	Description string  `gorm:"type:text" json:"description"`
	JobType     string  `json:"job_type"` // full_time | part_time | contract | temporary
	Category    string  `json:"category"` // BASIC | ADVANCED
	Location    string  `json:"location"`
	Salary      float64 `json:"salary"`
	Status      string  `gorm:"default:'open'" json:"status"`
}

type Application struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	JobID       uint      `json:"job_id"`
	JobSeekerID uint      `json:"job_seeker_id"`
	Status      string    `gorm:"default:'applied'" json:"status"`
	AppliedAt   time.Time `json:"applied_at"`
}

type Payment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	EmployerID  uint      `json:"employer_id"`
	JobSeekerID uint      `json:"job_seeker_id"`
	Amount      float64   `json:"amount"`
	DueDate     time.Time `json:"due_date"`
	Status      string    `gorm:"default:'pending'" json:"status"`
}
