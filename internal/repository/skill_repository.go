package repository

import (
	"context"
	"errors"

	"skill-swap/internal/database"
	"skill-swap/internal/domain/skill"

	"github.com/google/uuid"
)

var ErrSkillRecordNotFound = errors.New("skill not found")

// SkillDirectory is the read side of the skill listings the swap engine
// depends on. Listing CRUD and moderation live elsewhere.
type SkillDirectory interface {
	GetSkill(ctx context.Context, id uuid.UUID) (skill.Skill, error)
}

type PostgresSkillDirectory struct {
	db database.DB
}

func NewPostgresSkillDirectory(db database.DB) *PostgresSkillDirectory {
	return &PostgresSkillDirectory{db: db}
}

func (r *PostgresSkillDirectory) GetSkill(ctx context.Context, id uuid.UUID) (skill.Skill, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, user_id, skill_name, type, approved, created_at FROM skills WHERE id = $1`,
		id,
	)

	var s skill.Skill
	var typ string
	if err := row.Scan(&s.ID, &s.OwnerID, &s.Name, &typ, &s.Approved, &s.CreatedAt); err != nil {
		if isNoRows(err) {
			return skill.Skill{}, ErrSkillRecordNotFound
		}
		return skill.Skill{}, err
	}
	s.Type = skill.Type(typ)
	return s, nil
}
