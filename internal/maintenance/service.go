// Package maintenance holds the administrative jobs: wiping the activity
// journal and resetting the demo data.
package maintenance

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"taskboard/internal/materialize"
	"taskboard/internal/model"
	"taskboard/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
)

// DemoPassword is the password of every seeded user.
const DemoPassword = "demo123"

const (
	JobWipeActivity = "wipe-activity"
	JobReset        = "reset"
	JobReconcile    = "reconcile"
)

//go:embed seed.json
var defaultSeed []byte

type Seed struct {
	Users  []SeedUser  `json:"users"`
	Boards []SeedBoard `json:"boards"`
}

type SeedUser struct {
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`
}

type SeedBoard struct {
	Owner    string          `json:"owner"`
	Shares   []SeedShare     `json:"shares"`
	Template json.RawMessage `json:"template"`
}

type SeedShare struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// ResetReport summarises a reset.
type ResetReport struct {
	Boards      int64 `json:"boardsDeleted"`
	Lists       int64 `json:"listsDeleted"`
	Tasks       int64 `json:"tasksDeleted"`
	Shares      int64 `json:"sharesDeleted"`
	UsersSeeded int   `json:"usersSeeded"`
	BoardsMade  int   `json:"boardsSeeded"`
}

type Wiper interface {
	WipeAll(ctx context.Context) (int64, error)
}

type Service struct {
	store        *repository.Store
	journal      Wiper
	materializer *materialize.Materializer
	seed         []byte
	hashCost     int
}

// NewService uses the embedded seed when seed is nil.
func NewService(store *repository.Store, journal Wiper, materializer *materialize.Materializer, seed []byte) *Service {
	if seed == nil {
		seed = defaultSeed
	}
	return &Service{
		store:        store,
		journal:      journal,
		materializer: materializer,
		seed:         seed,
		hashCost:     bcrypt.DefaultCost,
	}
}

// Jobs returns the wipe and reset jobs for a Scheduler. A zero interval
// leaves the job manual only.
func (s *Service) Jobs(wipeEvery, resetEvery time.Duration) []Job {
	return []Job{
		{Name: JobWipeActivity, Interval: wipeEvery, Run: func(ctx context.Context) (any, error) {
			n, err := s.WipeActivity(ctx)
			return map[string]int64{"deleted": n}, err
		}},
		{Name: JobReset, Interval: resetEvery, Run: func(ctx context.Context) (any, error) {
			return s.Reset(ctx)
		}},
	}
}

// WipeActivity deletes every journal entry.
func (s *Service) WipeActivity(ctx context.Context) (int64, error) {
	n, err := s.journal.WipeAll(ctx)
	if err != nil {
		log.Printf("[maintenance] wipe activity failed: %v", err)
		return 0, err
	}
	log.Printf("[maintenance] wiped %d activity entries", n)
	return n, nil
}

// Reset deletes all boards, lists, tasks and shares, empties every user's
// recent and starred boards and rebuilds the demo boards from the seed. Demo
// users are created when missing.
func (s *Service) Reset(ctx context.Context) (*ResetReport, error) {
	var seed Seed
	if err := json.Unmarshal(s.seed, &seed); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}

	report := &ResetReport{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { report.Boards, err = s.store.Boards.DeleteAll(gctx); return })
	g.Go(func() (err error) { report.Lists, err = s.store.Lists.DeleteAll(gctx); return })
	g.Go(func() (err error) { report.Tasks, err = s.store.Tasks.DeleteAll(gctx); return })
	g.Go(func() (err error) { report.Shares, err = s.store.Shares.DeleteAll(gctx); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := s.store.Users.ClearBoardRefs(ctx); err != nil {
		return nil, err
	}

	users, created, err := s.ensureUsers(ctx, seed.Users)
	if err != nil {
		return nil, err
	}
	report.UsersSeeded = created

	for _, b := range seed.Boards {
		owner, ok := users[strings.ToLower(b.Owner)]
		if !ok {
			log.Printf("[maintenance] seed board owner %s is not a seed user, skipping", b.Owner)
			continue
		}
		res, err := s.materializer.FromPayload(ctx, owner, b.Template)
		if err != nil {
			return report, fmt.Errorf("seed board for %s: %w", b.Owner, err)
		}
		for _, share := range b.Shares {
			user, ok := users[strings.ToLower(share.Email)]
			if !ok {
				continue
			}
			if err := s.store.Shares.ShareBoard(ctx, res.Board.ID, user, share.Role); err != nil {
				return report, err
			}
		}
		report.BoardsMade++
	}

	log.Printf("[maintenance] reset complete: %d boards removed, %d seeded", report.Boards, report.BoardsMade)
	return report, nil
}

func (s *Service) ensureUsers(ctx context.Context, seedUsers []SeedUser) (map[string]uuid.UUID, int, error) {
	ids := make(map[string]uuid.UUID, len(seedUsers))
	var hash []byte
	created := 0
	for _, su := range seedUsers {
		email := strings.ToLower(su.Email)
		existing, err := s.store.Users.FindByEmail(ctx, email)
		if err != nil {
			return nil, 0, err
		}
		if existing != nil {
			ids[email] = existing.ID
			continue
		}
		if hash == nil {
			if hash, err = bcrypt.GenerateFromPassword([]byte(DemoPassword), s.hashCost); err != nil {
				return nil, 0, err
			}
		}
		user := &model.User{Fullname: su.Fullname, Email: email, Avatar: su.Avatar, HashedPassword: string(hash)}
		if err := s.store.Users.Create(ctx, user); err != nil {
			return nil, 0, err
		}
		log.Printf("[maintenance] seeded demo user %s", email)
		ids[email] = user.ID
		created++
	}
	return ids, created, nil
}
