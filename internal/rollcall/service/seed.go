package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/store"
	"github.com/aussiebroadwan/rollcall/pkg/slogx"
	"gopkg.in/yaml.v3"
)

// Seed is the directory snapshot loaded from DIRECTORY_SEED_FILE. It lets a
// standalone deployment run without the upstream user/org/event services.
//
//	users:
//	  - id: 01J...
//	    display_name: Ada
//	organizations:
//	  - id: club
//	    name: Chess Club
//	    members:
//	      - user_id: 01J...
//	        role: Attendance Taker
//	events:
//	  - id: evt-1
//	    organization_id: club
//	    start: 2025-03-01T18:00:00Z
//	    end: 2025-03-01T20:00:00Z
type Seed struct {
	Users         []SeedUser         `yaml:"users"`
	Organizations []SeedOrganization `yaml:"organizations"`
	Events        []SeedEvent        `yaml:"events"`
}

type SeedUser struct {
	ID          string `yaml:"id"`
	DisplayName string `yaml:"display_name"`
	Email       string `yaml:"email"`
}

type SeedOrganization struct {
	ID      string       `yaml:"id"`
	Name    string       `yaml:"name"`
	Members []SeedMember `yaml:"members"`
}

type SeedMember struct {
	UserID string      `yaml:"user_id"`
	Role   domain.Role `yaml:"role"`
}

type SeedEvent struct {
	ID             string     `yaml:"id"`
	OrganizationID string     `yaml:"organization_id"`
	Name           string     `yaml:"name"`
	Start          *time.Time `yaml:"start"`
	End            *time.Time `yaml:"end"`
	CreatedBy      string     `yaml:"created_by"`
}

// LoadSeedFile reads and validates a YAML seed file.
func LoadSeedFile(path string) (Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(data)
}

func ParseSeed(data []byte) (Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return Seed{}, fmt.Errorf("parse seed: %w", err)
	}

	for i, u := range seed.Users {
		if u.ID == "" {
			return Seed{}, fmt.Errorf("seed: users[%d] has no id", i)
		}
	}
	for i, o := range seed.Organizations {
		if o.ID == "" {
			return Seed{}, fmt.Errorf("seed: organizations[%d] has no id", i)
		}
		for j, m := range o.Members {
			if m.UserID == "" || !m.Role.Valid() {
				return Seed{}, fmt.Errorf("seed: organizations[%d].members[%d] needs user_id and role", i, j)
			}
		}
	}
	for i, e := range seed.Events {
		if e.ID == "" || e.OrganizationID == "" {
			return Seed{}, fmt.Errorf("seed: events[%d] needs id and organization_id", i)
		}
		if e.Start != nil && e.End != nil && e.End.Before(*e.Start) {
			return Seed{}, fmt.Errorf("seed: events[%d] ends before it starts", i)
		}
	}
	return seed, nil
}

// ApplySeed upserts the whole snapshot in one transaction.
func ApplySeed(ctx context.Context, s store.Store, seed Seed) error {
	log := slogx.FromContext(ctx)
	now := time.Now().UTC()

	err := s.WithTx(ctx, func(tx store.Tx) error {
		// 1. Users first; memberships reference them.
		for _, u := range seed.Users {
			if err := tx.Users().UpsertUser(ctx, domain.User{ID: u.ID, DisplayName: u.DisplayName, Email: u.Email}); err != nil {
				return fmt.Errorf("upsert user %s: %w", u.ID, err)
			}
		}

		// 2. Organizations and their members.
		for _, o := range seed.Organizations {
			if err := tx.Organizations().UpsertOrganization(ctx, domain.Organization{ID: o.ID, Name: o.Name, CreatedAt: now}); err != nil {
				return fmt.Errorf("upsert organization %s: %w", o.ID, err)
			}
			for _, m := range o.Members {
				if err := tx.Users().EnsureUser(ctx, m.UserID); err != nil {
					return fmt.Errorf("ensure user %s: %w", m.UserID, err)
				}
				err := tx.Organizations().UpsertMembership(ctx, domain.Membership{
					UserID:         m.UserID,
					OrganizationID: o.ID,
					Role:           m.Role,
					JoinedAt:       now,
				})
				if err != nil {
					return fmt.Errorf("upsert membership %s/%s: %w", o.ID, m.UserID, err)
				}
			}
		}

		// 3. Events.
		for _, e := range seed.Events {
			err := tx.Events().UpsertEvent(ctx, domain.Event{
				ID:             e.ID,
				OrganizationID: e.OrganizationID,
				Name:           e.Name,
				Start:          e.Start,
				End:            e.End,
				CreatedBy:      e.CreatedBy,
			})
			if err != nil {
				return fmt.Errorf("upsert event %s: %w", e.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("directory seed applied",
		slog.Int("users", len(seed.Users)),
		slog.Int("organizations", len(seed.Organizations)),
		slog.Int("events", len(seed.Events)),
	)
	return nil
}
