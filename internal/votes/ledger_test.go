package votes

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mickeybyalsky/rfd-api/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Discard,
	})
	require.NoError(t, err)

	// One connection so every session sees the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Account{},
		&models.Post{},
		&models.Comment{},
		&models.Vote{},
		&models.ReputationEvent{},
	))
	return db
}

func seedAccount(t *testing.T, db *gorm.DB, username string, role models.Role) models.Account {
	t.Helper()
	acct := models.Account{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Role:         role,
	}
	require.NoError(t, db.Create(&acct).Error)
	return acct
}

func seedPost(t *testing.T, db *gorm.DB, author models.Account) models.Post {
	t.Helper()
	post := models.Post{
		Title:       "PS5 on sale",
		Description: "best price of the year",
		AuthorID:    author.ID,
		Author:      author.Username,
	}
	require.NoError(t, db.Create(&post).Error)
	return post
}

func seedComment(t *testing.T, db *gorm.DB, author models.Account, postID int) models.Comment {
	t.Helper()
	comment := models.Comment{
		Body:     "price matched at another store",
		AuthorID: author.ID,
		Author:   author.Username,
		PostID:   postID,
	}
	require.NoError(t, db.Create(&comment).Error)
	return comment
}

func reputation(t *testing.T, db *gorm.DB, accountID int) int {
	t.Helper()
	var acct models.Account
	require.NoError(t, db.First(&acct, accountID).Error)
	return acct.Reputation
}

func postTally(t *testing.T, db *gorm.DB, postID int) int {
	t.Helper()
	var post models.Post
	require.NoError(t, db.First(&post, postID).Error)
	return post.Tally
}

func TestApplyIntentScenario(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()

	alice := seedAccount(t, db, "alice", models.RoleUser)
	bob := seedAccount(t, db, "bob", models.RoleUser)
	carol := seedAccount(t, db, "carol", models.RoleUser)
	post := seedPost(t, db, alice)

	// bob upvotes: tally 1, alice reputation 1.
	res, err := ledger.ApplyIntent(ctx, bob, TargetPost, post.ID, IntentUp)
	require.NoError(t, err)
	assert.Equal(t, Result{Tally: 1, State: "up"}, res)
	assert.Equal(t, 1, reputation(t, db, alice.ID))

	// carol downvotes: tally back to 0, reputation back to 0.
	res, err = ledger.ApplyIntent(ctx, carol, TargetPost, post.ID, IntentDown)
	require.NoError(t, err)
	assert.Equal(t, Result{Tally: 0, State: "down"}, res)
	assert.Equal(t, 0, reputation(t, db, alice.ID))

	// bob upvotes again: rejected, nothing moves.
	_, err = ledger.ApplyIntent(ctx, bob, TargetPost, post.ID, IntentUp)
	assert.ErrorIs(t, err, ErrAlreadyVoted)
	assert.Equal(t, 0, postTally(t, db, post.ID))
	assert.Equal(t, 0, reputation(t, db, alice.ID))

	// bob flips to down: tally and reputation both move by -2.
	res, err = ledger.ApplyIntent(ctx, bob, TargetPost, post.ID, IntentDown)
	require.NoError(t, err)
	assert.Equal(t, Result{Tally: -2, State: "down"}, res)
	assert.Equal(t, -2, reputation(t, db, alice.ID))
}

func TestApplyIntentIdempotenceRejection(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()

	alice := seedAccount(t, db, "alice", models.RoleUser)
	bob := seedAccount(t, db, "bob", models.RoleUser)
	post := seedPost(t, db, alice)

	_, err := ledger.ApplyIntent(ctx, bob, TargetPost, post.ID, IntentUp)
	require.NoError(t, err)

	for range 3 {
		_, err = ledger.ApplyIntent(ctx, bob, TargetPost, post.ID, IntentUp)
		assert.ErrorIs(t, err, ErrAlreadyVoted)
	}
	assert.Equal(t, 1, postTally(t, db, post.ID))
	assert.Equal(t, 1, reputation(t, db, alice.ID))
}

func TestApplyIntentFlipLaw(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()

	alice := seedAccount(t, db, "alice", models.RoleUser)
	bob := seedAccount(t, db, "bob", models.RoleUser)
	post := seedPost(t, db, alice)

	up, err := ledger.ApplyIntent(ctx, bob, TargetPost, post.ID, IntentUp)
	require.NoError(t, err)

	down, err := ledger.ApplyIntent(ctx, bob, TargetPost, post.ID, IntentDown)
	require.NoError(t, err)

	// -2 relative to the post-up tally, -1 relative to the pre-vote tally.
	assert.Equal(t, up.Tally-2, down.Tally)
	assert.Equal(t, -1, down.Tally)
}

func TestApplyIntentSelfVote(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()

	alice := seedAccount(t, db, "alice", models.RoleUser)
	post := seedPost(t, db, alice)

	for _, intent := range []Intent{IntentUp, IntentDown} {
		_, err := ledger.ApplyIntent(ctx, alice, TargetPost, post.ID, intent)
		assert.ErrorIs(t, err, ErrSelfVote)
	}
	assert.Equal(t, 0, postTally(t, db, post.ID))
	assert.Equal(t, 0, reputation(t, db, alice.ID))
}

func TestApplyIntentBanned(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()

	alice := seedAccount(t, db, "alice", models.RoleUser)
	troll := seedAccount(t, db, "troll", models.RoleBanned)
	post := seedPost(t, db, alice)

	_, err := ledger.ApplyIntent(ctx, troll, TargetPost, post.ID, IntentDown)
	assert.ErrorIs(t, err, ErrBanned)
	assert.Equal(t, 0, postTally(t, db, post.ID))
}

func TestApplyIntentNotFound(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)

	bob := seedAccount(t, db, "bob", models.RoleUser)

	_, err := ledger.ApplyIntent(context.Background(), bob, TargetPost, 999, IntentUp)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApplyIntentCommentTarget(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()

	alice := seedAccount(t, db, "alice", models.RoleUser)
	bob := seedAccount(t, db, "bob", models.RoleUser)
	post := seedPost(t, db, alice)
	comment := seedComment(t, db, alice, post.ID)

	res, err := ledger.ApplyIntent(ctx, bob, TargetComment, comment.ID, IntentDown)
	require.NoError(t, err)
	assert.Equal(t, Result{Tally: -1, State: "down"}, res)
	assert.Equal(t, -1, reputation(t, db, alice.ID))

	// Post votes and comment votes are independent sets: the same voter can
	// hold one of each even when the IDs collide.
	res, err = ledger.ApplyIntent(ctx, bob, TargetPost, post.ID, IntentUp)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Tally)

	// Post tally untouched by the comment vote.
	assert.Equal(t, 1, postTally(t, db, post.ID))
}

func TestVoterInAtMostOneSet(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()

	alice := seedAccount(t, db, "alice", models.RoleUser)
	bob := seedAccount(t, db, "bob", models.RoleUser)
	post := seedPost(t, db, alice)

	sequence := []Intent{IntentUp, IntentDown, IntentDown, IntentUp, IntentUp, IntentDown}
	for _, intent := range sequence {
		_, _ = ledger.ApplyIntent(ctx, bob, TargetPost, post.ID, intent)

		// Exactly one vote row for (bob, post), and the tally always equals
		// the signed sum of current directions.
		var votes []models.Vote
		require.NoError(t, db.Where("post_id = ?", post.ID).Find(&votes).Error)
		require.Len(t, votes, 1)
		assert.Equal(t, bob.ID, votes[0].VoterID)

		sum := 0
		for _, v := range votes {
			sum += v.Direction
		}
		assert.Equal(t, sum, postTally(t, db, post.ID))
	}
}

func TestRepairPending(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()

	alice := seedAccount(t, db, "alice", models.RoleUser)

	// A leftover outbox row, as if the process died between the vote commit
	// and the reputation update.
	require.NoError(t, db.Create(&models.ReputationEvent{AccountID: alice.ID, Delta: 2}).Error)

	require.NoError(t, ledger.RepairPending(ctx))
	assert.Equal(t, 2, reputation(t, db, alice.ID))

	var remaining int64
	require.NoError(t, db.Model(&models.ReputationEvent{}).Count(&remaining).Error)
	assert.Zero(t, remaining)

	// Replaying again is a no-op: the delta was consumed with the row.
	require.NoError(t, ledger.RepairPending(ctx))
	assert.Equal(t, 2, reputation(t, db, alice.ID))
}

func TestApplyEventReplaySafe(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()

	alice := seedAccount(t, db, "alice", models.RoleUser)

	event := models.ReputationEvent{AccountID: alice.ID, Delta: 2}
	require.NoError(t, db.Create(&event).Error)

	require.NoError(t, ledger.applyEvent(ctx, event))
	assert.Equal(t, 2, reputation(t, db, alice.ID))

	// The row was consumed with the delta in one transaction, so a stale
	// replay of the same event applies nothing.
	require.NoError(t, ledger.applyEvent(ctx, event))
	assert.Equal(t, 2, reputation(t, db, alice.ID))

	require.NoError(t, ledger.RepairPending(ctx))
	assert.Equal(t, 2, reputation(t, db, alice.ID))
}

func TestRepairPendingAuthorGone(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)

	require.NoError(t, db.Create(&models.ReputationEvent{AccountID: 404, Delta: 1}).Error)

	require.NoError(t, ledger.RepairPending(context.Background()))

	var remaining int64
	require.NoError(t, db.Model(&models.ReputationEvent{}).Count(&remaining).Error)
	assert.Zero(t, remaining)
}

func TestParseIntent(t *testing.T) {
	up, err := ParseIntent("up")
	require.NoError(t, err)
	assert.Equal(t, IntentUp, up)

	down, err := ParseIntent("down")
	require.NoError(t, err)
	assert.Equal(t, IntentDown, down)

	_, err = ParseIntent("sideways")
	assert.Error(t, err)
}
