package ports

import (
	"context"
	"errors"
)

var (
	ErrSpellNotFound            = errors.New("spell not found")
	ErrRepositoryConfigNotFound = errors.New("repository config not found")
	ErrUserNotFound             = errors.New("user not found")
)

// Spell is a stored solution record. Timestamps are RFC3339Nano UTC strings.
type Spell struct {
	SpellID         uint64
	Title           string
	Description     string
	ErrorType       string
	ErrorPattern    string
	SolutionCode    string
	Tags            string
	AutoGenerated   bool
	ConfidenceScore int
	HumanReviewed   bool
	RepositoryID    *uint64
	CreatedAt       string
	UpdatedAt       string
}

type RepositoryConfig struct {
	RepositoryConfigID uint64
	RepoName           string
	WebhookURL         string
	Enabled            bool
	UserID             *uint64
	CreatedAt          string
	UpdatedAt          string
}

type User struct {
	UserID         uint64
	Email          string
	HashedPassword string
	IsActive       bool
	CreatedAt      string
	UpdatedAt      string
}

// SpellApplication records one adapted patch produced for a spell.
type SpellApplication struct {
	SpellApplicationID uint64
	SpellID            uint64
	Repository         string
	CommitSHA          string
	Language           string
	Version            string
	FailingTest        string
	StackTrace         string
	Patch              string
	FilesTouchedJSON   string
	Rationale          string
	CreatedAt          string
}

// ExecutionLog is one webhook delivery audit row.
type ExecutionLog struct {
	ExecutionLogID       uint64
	RepositoryConfigID   *uint64
	RepoName             string
	PRNumber             *int
	EventType            string
	Action               string
	Status               string
	MatchedSpellIDsJSON  string
	AutoGeneratedSpellID *uint64
	ErrorMessage         string
	PRProcessingJSON     string
	ExecutionDurationMS  int64
	ExecutedAt           string
}

type ExecutionLogFilter struct {
	RepoName string
	Limit    int
	Offset   int
}

type SpellbookRepository interface {
	CreateSpell(ctx context.Context, spell Spell) (Spell, error)
	GetSpell(ctx context.Context, spellID uint64) (Spell, error)
	ListSpells(ctx context.Context, offset int, limit int) ([]Spell, error)
	UpdateSpell(ctx context.Context, spell Spell) (Spell, error)
	DeleteSpell(ctx context.Context, spellID uint64) error

	// Candidate queries return rows in ascending id order so that equal
	// similarity scores resolve deterministically.
	ListSpellCandidates(ctx context.Context, errorType string) ([]Spell, error)
	ListSpellCandidatesInRepo(ctx context.Context, errorType string, repoName string) ([]Spell, error)

	CreateRepositoryConfig(ctx context.Context, cfg RepositoryConfig) (RepositoryConfig, error)
	GetRepositoryConfig(ctx context.Context, id uint64) (RepositoryConfig, error)
	GetRepositoryConfigByName(ctx context.Context, repoName string) (RepositoryConfig, error)
	ListRepositoryConfigs(ctx context.Context) ([]RepositoryConfig, error)
	UpdateRepositoryConfig(ctx context.Context, cfg RepositoryConfig) (RepositoryConfig, error)
	DeleteRepositoryConfig(ctx context.Context, id uint64) error

	CreateUser(ctx context.Context, user User) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)

	CreateSpellApplication(ctx context.Context, app SpellApplication) (SpellApplication, error)
	ListSpellApplications(ctx context.Context, spellID uint64, limit int) ([]SpellApplication, error)

	CreateExecutionLog(ctx context.Context, log ExecutionLog) (ExecutionLog, error)
	ListExecutionLogs(ctx context.Context, filter ExecutionLogFilter) ([]ExecutionLog, error)
}
