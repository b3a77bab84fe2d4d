package repository

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"skill-swap/internal/domain/skill"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

type MemorySkillDirectory struct {
	mu     sync.RWMutex
	skills map[uuid.UUID]skill.Skill
}

func NewMemorySkillDirectory(skills ...skill.Skill) *MemorySkillDirectory {
	d := &MemorySkillDirectory{skills: make(map[uuid.UUID]skill.Skill, len(skills))}
	for _, s := range skills {
		d.skills[s.ID] = s
	}
	return d
}

func (d *MemorySkillDirectory) GetSkill(_ context.Context, id uuid.UUID) (skill.Skill, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s, ok := d.skills[id]
	if !ok {
		return skill.Skill{}, ErrSkillRecordNotFound
	}
	return s, nil
}

// Put inserts or replaces a listing.
func (d *MemorySkillDirectory) Put(s skill.Skill) {
	d.mu.Lock()
	d.skills[s.ID] = s
	d.mu.Unlock()
}

func (d *MemorySkillDirectory) Delete(id uuid.UUID) {
	d.mu.Lock()
	delete(d.skills, id)
	d.mu.Unlock()
}

type skillSeedFile struct {
	Skills []skillSeed `yaml:"skills"`
}

type skillSeed struct {
	ID       string `yaml:"id"`
	OwnerID  string `yaml:"owner_id"`
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Approved *bool  `yaml:"approved"`
}

// LoadSkillSeed reads listings for the in-memory directory. Approved
// defaults to true, matching how listings are created upstream.
func LoadSkillSeed(r io.Reader) ([]skill.Skill, error) {
	var f skillSeedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode skill seed: %w", err)
	}

	now := time.Now().UTC()
	out := make([]skill.Skill, 0, len(f.Skills))
	for i, s := range f.Skills {
		id, err := uuid.Parse(strings.TrimSpace(s.ID))
		if err != nil {
			return nil, fmt.Errorf("skill seed #%d: invalid id: %w", i, err)
		}
		owner, err := uuid.Parse(strings.TrimSpace(s.OwnerID))
		if err != nil {
			return nil, fmt.Errorf("skill seed #%d: invalid owner_id: %w", i, err)
		}
		typ := skill.Type(strings.TrimSpace(s.Type))
		if typ == "" {
			typ = skill.TypeOffered
		}
		if typ != skill.TypeOffered && typ != skill.TypeWanted {
			return nil, fmt.Errorf("skill seed #%d: invalid type %q", i, s.Type)
		}
		approved := true
		if s.Approved != nil {
			approved = *s.Approved
		}
		out = append(out, skill.Skill{
			ID:        id,
			OwnerID:   owner,
			Name:      strings.TrimSpace(s.Name),
			Type:      typ,
			Approved:  approved,
			CreatedAt: now,
		})
	}
	return out, nil
}

func LoadSkillSeedFile(path string) ([]skill.Skill, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadSkillSeed(f)
}
