package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/store"
	"github.com/aussiebroadwan/rollcall/pkg/clockx"
	"github.com/aussiebroadwan/rollcall/pkg/cryptox"
	"github.com/aussiebroadwan/rollcall/pkg/idx"
	"github.com/aussiebroadwan/rollcall/pkg/slogx"
)

const (
	DefaultTagCooldown    = 30 * 24 * time.Hour
	DefaultPendingTTL     = 5 * time.Minute
	DefaultTagMaxAttempts = 5
	DefaultTagCodeLength  = 12
)

// TagService issues and rotates a user's tag id. A tag is bound to the user
// either in two phases (Prepare, write the physical tag, Confirm) or in one
// (Generate). Both paths share the cooldown and uniqueness guarantees.
type TagService struct {
	Store store.Store
	Audit *AuditTrail
	Clock clockx.Clock

	Cooldown    time.Duration
	PendingTTL  time.Duration
	MaxAttempts int
	CodeLength  int

	// NewCode overrides tag id generation. Nil uses cryptox.GenerateCode.
	NewCode func(length int) (string, error)
}

type PreparedTag struct {
	TagID     string
	PendingID string
	ExpiresAt time.Time
}

type TagWriteResult struct {
	TagID         string
	WriteRecordID string
	WrittenAt     time.Time
}

type CanWriteResult struct {
	CanWrite        bool
	NextAvailableAt *time.Time
	Cooldown        time.Duration
}

func (s *TagService) now() time.Time { return clockx.OrReal(s.Clock).Now() }

func (s *TagService) cooldown() time.Duration {
	if s.Cooldown > 0 {
		return s.Cooldown
	}
	return DefaultTagCooldown
}

func (s *TagService) pendingTTL() time.Duration {
	if s.PendingTTL > 0 {
		return s.PendingTTL
	}
	return DefaultPendingTTL
}

func (s *TagService) maxAttempts() int {
	if s.MaxAttempts > 0 {
		return s.MaxAttempts
	}
	return DefaultTagMaxAttempts
}

func (s *TagService) newCode() (string, error) {
	length := s.CodeLength
	if length <= 0 {
		length = DefaultTagCodeLength
	}
	if s.NewCode != nil {
		return s.NewCode(length)
	}
	return cryptox.GenerateCode(length)
}

// CooldownDays is the cooldown rounded up to whole days for display.
func (s *TagService) CooldownDays() int {
	day := 24 * time.Hour
	return int((s.cooldown() + day - 1) / day)
}

// Prepare reserves a fresh tag id for userID without touching the active
// tag. Any earlier unconfirmed request of the user is superseded.
func (s *TagService) Prepare(ctx context.Context, userID string) (PreparedTag, error) {
	log := slogx.FromContext(ctx)
	if userID == "" {
		return PreparedTag{}, ErrUnauthorized
	}

	now := s.now()
	var out PreparedTag

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		// 1. Cooldown gate
		if err := s.checkCooldown(ctx, tx, userID, now); err != nil {
			return err
		}

		// 2. Supersede any open request
		superseded, err := tx.Tags().DeleteUnconfirmedPendingForUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("supersede pending requests: %w", err)
		}

		// 3. Reserve a unique tag id
		tagID, err := s.reserveTag(ctx, tx, userID, now)
		if err != nil {
			return err
		}

		// 4. Persist the pending request
		pending := domain.PendingTagRequest{
			ID:        idx.NewAt(now).String(),
			UserID:    userID,
			TagID:     tagID,
			CreatedAt: now,
			ExpiresAt: now.Add(s.pendingTTL()),
		}
		if err := tx.Tags().CreatePending(ctx, pending); err != nil {
			return fmt.Errorf("create pending request: %w", err)
		}

		// 5. Audit
		err = s.Audit.RecordTx(ctx, tx, Entry{
			Kind:       domain.AuditTagPrepared,
			ActorID:    userID,
			SubjectID:  userID,
			ResourceID: pending.ID,
			Payload: map[string]any{
				"tag_id":     tagID,
				"expires_at": pending.ExpiresAt,
				"superseded": superseded,
			},
		})
		if err != nil {
			return err
		}

		out = PreparedTag{TagID: tagID, PendingID: pending.ID, ExpiresAt: pending.ExpiresAt}
		return nil
	})
	if err != nil {
		logTagFailure(log, "tag prepare failed", userID, err)
		return PreparedTag{}, err
	}

	log.Info("tag prepared",
		slog.String("user_id", userID),
		slog.String("pending_id", out.PendingID),
		slog.Time("expires_at", out.ExpiresAt),
	)
	return out, nil
}

// Confirm binds a prepared tag id to the user once the physical write has
// succeeded. The pending row is flipped with a compare-and-set so two racing
// confirms cannot both win.
func (s *TagService) Confirm(ctx context.Context, userID, pendingID string) (TagWriteResult, error) {
	log := slogx.FromContext(ctx)
	if userID == "" {
		return TagWriteResult{}, ErrUnauthorized
	}
	if pendingID == "" {
		return TagWriteResult{}, &ValidationError{Field: "pending_id", Reason: "is required"}
	}

	now := s.now()
	var out TagWriteResult

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		// 1. Serialize with other tag writes for this user
		if _, err := tx.Users().LockUser(ctx, userID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("lock user: %w", err)
		}

		// 2. Load and classify the pending request
		pending, err := tx.Tags().GetPending(ctx, pendingID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("get pending request: %w", err)
		}
		if pending.UserID != userID {
			return ErrNotFound
		}
		if err := classifyPending(pending, now); err != nil {
			return err
		}

		// 3. Compare-and-set confirmed
		won, err := tx.Tags().ConfirmPending(ctx, pendingID, userID, now)
		if err != nil {
			return fmt.Errorf("confirm pending request: %w", err)
		}
		if !won {
			// Lost a race; reread to report what the winner did.
			latest, err := tx.Tags().GetPending(ctx, pendingID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return ErrNotFound
				}
				return fmt.Errorf("reload pending request: %w", err)
			}
			if err := classifyPending(latest, now); err != nil {
				return err
			}
			return ErrAlreadyConfirmed
		}

		// 4. Bind the tag under a re-checked cooldown
		if err := s.bindTag(ctx, tx, userID, pending.TagID, now); err != nil {
			return err
		}

		// 5. Write record
		pid := pending.ID
		write := domain.TagWrite{
			ID:        idx.NewAt(now).String(),
			UserID:    userID,
			TagID:     pending.TagID,
			Method:    domain.TagWriteTwoPhase,
			PendingID: &pid,
			WrittenAt: now,
		}
		if err := tx.Tags().CreateWrite(ctx, write); err != nil {
			return fmt.Errorf("create write record: %w", err)
		}

		// 6. Audit
		err = s.Audit.RecordTx(ctx, tx, Entry{
			Kind:       domain.AuditTagConfirmed,
			ActorID:    userID,
			SubjectID:  userID,
			ResourceID: write.ID,
			Payload: map[string]any{
				"tag_id":     pending.TagID,
				"pending_id": pending.ID,
			},
		})
		if err != nil {
			return err
		}

		out = TagWriteResult{TagID: pending.TagID, WriteRecordID: write.ID, WrittenAt: now}
		return nil
	})
	if err != nil {
		logTagFailure(log, "tag confirm failed", userID, err, slog.String("pending_id", pendingID))
		return TagWriteResult{}, err
	}

	log.Info("tag confirmed",
		slog.String("user_id", userID),
		slog.String("pending_id", pendingID),
		slog.String("write_record_id", out.WriteRecordID),
	)
	return out, nil
}

// Generate issues and binds a tag in one step.
func (s *TagService) Generate(ctx context.Context, userID string) (TagWriteResult, error) {
	log := slogx.FromContext(ctx)
	if userID == "" {
		return TagWriteResult{}, ErrUnauthorized
	}

	now := s.now()
	var out TagWriteResult

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		// 1. Cooldown gate
		if err := s.checkCooldown(ctx, tx, userID, now); err != nil {
			return err
		}

		// 2. Reserve a unique tag id and drop open two-phase requests
		tagID, err := s.reserveTag(ctx, tx, userID, now)
		if err != nil {
			return err
		}
		if _, err := tx.Tags().DeleteUnconfirmedPendingForUser(ctx, userID); err != nil {
			return fmt.Errorf("supersede pending requests: %w", err)
		}

		// 3. Bind
		if err := s.bindTag(ctx, tx, userID, tagID, now); err != nil {
			return err
		}

		// 4. Write record
		write := domain.TagWrite{
			ID:        idx.NewAt(now).String(),
			UserID:    userID,
			TagID:     tagID,
			Method:    domain.TagWriteDirect,
			WrittenAt: now,
		}
		if err := tx.Tags().CreateWrite(ctx, write); err != nil {
			return fmt.Errorf("create write record: %w", err)
		}

		// 5. Audit
		err = s.Audit.RecordTx(ctx, tx, Entry{
			Kind:       domain.AuditTagGenerated,
			ActorID:    userID,
			SubjectID:  userID,
			ResourceID: write.ID,
			Payload:    map[string]any{"tag_id": tagID},
		})
		if err != nil {
			return err
		}

		out = TagWriteResult{TagID: tagID, WriteRecordID: write.ID, WrittenAt: now}
		return nil
	})
	if err != nil {
		logTagFailure(log, "tag generate failed", userID, err)
		return TagWriteResult{}, err
	}

	log.Info("tag generated",
		slog.String("user_id", userID),
		slog.String("write_record_id", out.WriteRecordID),
	)
	return out, nil
}

// CanWrite reports whether the user may write a new tag now. Users the
// store has never seen may always write.
func (s *TagService) CanWrite(ctx context.Context, userID string) (CanWriteResult, error) {
	if userID == "" {
		return CanWriteResult{}, ErrUnauthorized
	}

	res := CanWriteResult{CanWrite: true, Cooldown: s.cooldown()}

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return res, nil
		}
		return CanWriteResult{}, fmt.Errorf("get user: %w", err)
	}

	if !user.CanWriteTag(s.now(), s.cooldown()) {
		next := user.NextTagWriteAt(s.cooldown())
		res.CanWrite = false
		res.NextAvailableAt = &next
	}
	return res, nil
}

// ResolveTag maps a scanned tag id to the user currently holding it.
func (s *TagService) ResolveTag(ctx context.Context, tagID string) (string, error) {
	tagID = cryptox.NormalizeCode(tagID)
	if tagID == "" {
		return "", &ValidationError{Field: "tag_id", Reason: "is required"}
	}

	user, err := s.Store.Users().GetUserByActiveTag(ctx, tagID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("resolve tag: %w", err)
	}
	return user.ID, nil
}

// ActiveTag returns the user's bound tag id, or ErrNotFound before the
// first successful write.
func (s *TagService) ActiveTag(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", ErrUnauthorized
	}

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get user: %w", err)
	}
	if user.ActiveTagID == nil {
		return "", ErrNotFound
	}
	return *user.ActiveTagID, nil
}

// checkCooldown makes sure the user row exists and its last write is far
// enough in the past.
func (s *TagService) checkCooldown(ctx context.Context, tx store.Tx, userID string, now time.Time) error {
	if err := tx.Users().EnsureUser(ctx, userID); err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}

	// Held until commit so concurrent prepares and generates for the same
	// user queue behind each other.
	user, err := tx.Users().LockUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("lock user: %w", err)
	}

	if !user.CanWriteTag(now, s.cooldown()) {
		return &CooldownError{NextAvailableAt: user.NextTagWriteAt(s.cooldown())}
	}
	return nil
}

// reserveTag draws candidates until one is new to the issued-tag registry.
func (s *TagService) reserveTag(ctx context.Context, tx store.Tx, userID string, now time.Time) (string, error) {
	for attempt := 1; attempt <= s.maxAttempts(); attempt++ {
		code, err := s.newCode()
		if err != nil {
			return "", fmt.Errorf("generate tag id: %w", err)
		}

		err = tx.Tags().ReserveTag(ctx, domain.IssuedTag{TagID: code, UserID: userID, IssuedAt: now})
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, store.ErrAlreadyExists) {
			return "", fmt.Errorf("reserve tag id: %w", err)
		}

		slogx.FromContext(ctx).Debug("tag id collision",
			slog.String("user_id", userID),
			slog.Int("attempt", attempt),
		)
	}
	return "", ErrGenerationFailed
}

// bindTag installs tagID with a conditional update that re-checks the
// cooldown in the writing transaction.
func (s *TagService) bindTag(ctx context.Context, tx store.Tx, userID, tagID string, now time.Time) error {
	threshold := now.Add(-s.cooldown())
	ok, err := tx.Users().SetActiveTag(ctx, userID, tagID, now, threshold)
	if err != nil {
		return fmt.Errorf("set active tag: %w", err)
	}
	if ok {
		return nil
	}

	user, err := tx.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("get user: %w", err)
	}
	return &CooldownError{NextAvailableAt: user.NextTagWriteAt(s.cooldown())}
}

func classifyPending(p domain.PendingTagRequest, now time.Time) error {
	switch {
	case p.Confirmed:
		return ErrAlreadyConfirmed
	case p.Expired(now):
		return ErrExpired
	default:
		return nil
	}
}

// logTagFailure logs domain rejections at Warn and everything else at Error.
func logTagFailure(log *slog.Logger, msg, userID string, err error, attrs ...any) {
	attrs = append(attrs, slog.String("user_id", userID), slog.Any("error", err))
	if isDomainError(err) {
		log.Warn(msg, attrs...)
		return
	}
	log.Error(msg, attrs...)
}

func isDomainError(err error) bool {
	for _, target := range []error{
		ErrUnauthorized, ErrForbidden, ErrNotFound, ErrExpired, ErrAlreadyConfirmed,
		ErrAlreadyMarked, ErrOutsideWindow, ErrValidation, ErrCooldown,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
