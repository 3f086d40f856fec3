// Package votes is the vote ledger: it owns the one-vote-per-(voter, target)
// state machine and keeps the target tally and the author reputation moving
// together with it.
package votes

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/mickeybyalsky/rfd-api/internal/authz"
	"github.com/mickeybyalsky/rfd-api/internal/models"
)

// Intent is the requested vote direction.
type Intent int

const (
	IntentUp   Intent = 1
	IntentDown Intent = -1
)

// ParseIntent maps the wire values "up"/"down" to an Intent.
func ParseIntent(s string) (Intent, error) {
	switch s {
	case "up":
		return IntentUp, nil
	case "down":
		return IntentDown, nil
	}
	return 0, fmt.Errorf("unknown intent %q", s)
}

func (i Intent) String() string {
	if i == IntentDown {
		return "down"
	}
	return "up"
}

// TargetKind names the table a vote lands on.
type TargetKind string

const (
	TargetPost    TargetKind = "posts"
	TargetComment TargetKind = "comments"
)

var (
	ErrNotFound     = errors.New("target not found")
	ErrSelfVote     = errors.New("cannot vote on your own content")
	ErrBanned       = errors.New("banned accounts cannot vote")
	ErrAlreadyVoted = errors.New("already voted")
)

// Result is what a successful transition returns to the caller.
type Result struct {
	Tally int    `json:"tally"`
	State string `json:"state"`
}

type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// ApplyIntent runs one vote transition for voter on the given target.
//
// Current state is derived from the voter's vote row: no row is NONE, a row
// with the same direction is a rejected no-op, a row with the opposite
// direction flips. The vote-row change, the tally increment and the
// reputation outbox row commit in a single transaction; the reputation
// increment itself is applied right after commit and replayed at startup if
// that second step fails.
func (l *Ledger) ApplyIntent(ctx context.Context, voter models.Account, kind TargetKind, targetID int, intent Intent) (Result, error) {
	// Banned voters fail before any storage access.
	if voter.Role == models.RoleBanned {
		return Result{}, ErrBanned
	}

	var target struct {
		ID       int
		AuthorID int
	}
	err := l.db.WithContext(ctx).Table(string(kind)).
		Select("id", "author_id").
		Where("id = ?", targetID).
		Take(&target).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Result{}, ErrNotFound
	}
	if err != nil {
		return Result{}, fmt.Errorf("failed to load target: %w", err)
	}

	if ok, reason := authz.CanVote(voter, target.AuthorID); !ok {
		if reason == authz.ReasonBanned {
			return Result{}, ErrBanned
		}
		return Result{}, ErrSelfVote
	}

	var existing models.Vote
	err = l.db.WithContext(ctx).
		Where("voter_id = ? AND "+targetColumn(kind)+" = ?", voter.ID, targetID).
		Take(&existing).Error
	hasVote := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return Result{}, fmt.Errorf("failed to load current vote: %w", err)
	}

	if hasVote && existing.Direction == int(intent) {
		return Result{}, ErrAlreadyVoted
	}

	// NONE -> intent moves the tally by 1; a flip cancels the old vote and
	// applies the new one, so it moves by 2. The author reputation delta is
	// always equal to the tally delta.
	delta := int(intent)
	if hasVote {
		delta = 2 * int(intent)
	}

	var tally int
	event := models.ReputationEvent{AccountID: target.AuthorID, Delta: delta}

	txErr := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if hasVote {
			// The direction predicate is the optimistic-concurrency guard: a
			// racing flip by the same voter leaves nothing to update here.
			res := tx.Model(&models.Vote{}).
				Where("id = ? AND direction = ?", existing.ID, existing.Direction).
				Update("direction", int(intent))
			if res.Error != nil {
				return fmt.Errorf("failed to flip vote: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return ErrAlreadyVoted
			}
		} else {
			vote := models.Vote{VoterID: voter.ID, Direction: int(intent)}
			switch kind {
			case TargetPost:
				vote.PostID = &targetID
			case TargetComment:
				vote.CommentID = &targetID
			}
			if err := tx.Create(&vote).Error; err != nil {
				if isUniqueViolation(err) {
					// A concurrent first vote by the same voter won.
					return ErrAlreadyVoted
				}
				return fmt.Errorf("failed to record vote: %w", err)
			}
		}

		res := tx.Table(string(kind)).
			Where("id = ?", targetID).
			UpdateColumn("tally", gorm.Expr("tally + ?", delta))
		if res.Error != nil {
			return fmt.Errorf("failed to update tally: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		if err := tx.Create(&event).Error; err != nil {
			return fmt.Errorf("failed to queue reputation delta: %w", err)
		}

		if err := tx.Raw("SELECT tally FROM "+string(kind)+" WHERE id = ?", targetID).Scan(&tally).Error; err != nil {
			return fmt.Errorf("failed to read tally: %w", err)
		}
		return nil
	})
	if txErr != nil {
		return Result{}, txErr
	}

	// The vote is committed at this point; a failure here only delays the
	// reputation delta, it never loses it.
	if err := l.applyEvent(ctx, event); err != nil {
		log.Printf("reputation delta %+d for account %d left pending: %v", event.Delta, event.AccountID, err)
	}

	return Result{Tally: tally, State: intent.String()}, nil
}

// RepairPending replays reputation deltas whose vote transaction committed
// but whose account update never ran. Called once at startup.
func (l *Ledger) RepairPending(ctx context.Context) error {
	var events []models.ReputationEvent
	if err := l.db.WithContext(ctx).Order("id").Find(&events).Error; err != nil {
		return fmt.Errorf("failed to load pending reputation events: %w", err)
	}
	for _, event := range events {
		if err := l.applyEvent(ctx, event); err != nil {
			return fmt.Errorf("failed to replay reputation event %d: %w", event.ID, err)
		}
	}
	if len(events) > 0 {
		log.Printf("replayed %d pending reputation event(s)", len(events))
	}
	return nil
}

// applyEvent consumes one outbox row and applies its delta in a single
// transaction, so a replay either sees the row and applies it once or sees
// nothing and does nothing.
func (l *Ledger) applyEvent(ctx context.Context, event models.ReputationEvent) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.ReputationEvent{}, event.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Already consumed by an earlier replay.
			return nil
		}
		// RowsAffected 0 on the update means the author account is gone;
		// nothing is owed, the event is still consumed.
		return tx.Model(&models.Account{}).
			Where("id = ?", event.AccountID).
			UpdateColumn("reputation", gorm.Expr("reputation + ?", event.Delta)).Error
	})
}

func targetColumn(kind TargetKind) string {
	if kind == TargetComment {
		return "comment_id"
	}
	return "post_id"
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
