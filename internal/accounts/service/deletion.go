package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
)

const defaultHookTimeout = 10 * time.Second

type DeletionService struct {
	Store      store.Store
	Activation WorkflowActivation
	Notifier   Notifier

	// HookTimeout bounds each post-commit notification. Zero uses 10s.
	HookTimeout time.Duration

	// Now is overridable in tests.
	Now func() time.Time

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// DeleteUser removes targetID on behalf of actor. With a transferee, every
// resource the target owns is handed over; without one, owned resources are
// deleted. All store mutations happen in one transaction.
func (s *DeletionService) DeleteUser(ctx context.Context, actor domain.User, targetID, transfereeID string) error {
	log := slogx.FromContext(ctx).With(
		slog.String("target_id", targetID),
		slog.String("transferee_id", transfereeID),
	)

	if targetID == actor.ID {
		log.Warn("user attempted to delete themselves")
		return ErrSelfDeletionForbidden
	}
	if transfereeID != "" && transfereeID == targetID {
		log.Warn("transferee is the user being deleted")
		return ErrInvalidTransferee
	}

	var target domain.User
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		// Looked up inside the transaction so a concurrent deletion of the
		// same user is observed as not found.
		users, err := lookupUsers(ctx, tx.Users(), targetID, transfereeID)
		if err != nil {
			return err
		}
		target = users[targetID]

		if transfereeID != "" {
			return transferOwnership(ctx, tx, targetID, transfereeID)
		}
		return s.cascadeDelete(ctx, tx, targetID)
	})
	if err != nil {
		if KindOf(err) == KindInternal {
			log.Error("user deletion failed", slogx.Err(err))
		} else {
			log.Warn("user deletion rejected", slogx.Err(err))
		}
		return err
	}

	ev := domain.NewDeletionEvent(actor.ID, target, transfereeID, s.now())
	log.Info("user deleted",
		slog.String("strategy", string(ev.Strategy)),
		slog.String("prior_status", string(ev.PriorStatus)),
	)

	s.notify(ctx, ev, target.Public())
	return nil
}

// Wait blocks until every in-flight notification has finished.
func (s *DeletionService) Wait() { s.wg.Wait() }

// Close stops scheduling notifications and waits for the in-flight ones.
// Deletions after Close still commit but notify nobody.
func (s *DeletionService) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wg.Wait()
}

func transferOwnership(ctx context.Context, tx store.Tx, from, to string) error {
	for _, kind := range domain.ResourceKinds {
		ids, err := ownedResources(ctx, tx, kind, from)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			continue
		}

		// The transferee may already share some of these resources. Their
		// links have to go before the owner link is re-pointed, since
		// (resource, user) is unique.
		if _, err := tx.Ownership().DeleteLinks(ctx, kind, domain.LinkFilter{UserID: to, ResourceIDs: ids}); err != nil {
			return fmt.Errorf("clear %s links of transferee: %w", kind, err)
		}
		if _, err := tx.Ownership().ReassignOwner(ctx, kind, from, to, ids); err != nil {
			return fmt.Errorf("reassign %s ownership: %w", kind, err)
		}
	}
	return removeAccount(ctx, tx, from)
}

func (s *DeletionService) cascadeDelete(ctx context.Context, tx store.Tx, userID string) error {
	workflowIDs, err := ownedResources(ctx, tx, domain.KindWorkflow, userID)
	if err != nil {
		return err
	}
	if len(workflowIDs) > 0 {
		workflows, err := tx.Workflows().GetWorkflowsByIDs(ctx, workflowIDs)
		if err != nil {
			return err
		}
		for _, w := range workflows {
			if !w.Active {
				continue
			}
			if s.Activation == nil {
				return fmt.Errorf("workflow %s is active and no activation service is configured", w.ID)
			}
			if err := s.Activation.Deactivate(ctx, w.ID); err != nil {
				return fmt.Errorf("deactivate workflow %s: %w", w.ID, err)
			}
		}

		if _, err := tx.Ownership().DeleteLinks(ctx, domain.KindWorkflow, domain.LinkFilter{ResourceIDs: workflowIDs}); err != nil {
			return err
		}
		if _, err := tx.Workflows().DeleteWorkflows(ctx, workflowIDs); err != nil {
			return err
		}
	}

	credentialIDs, err := ownedResources(ctx, tx, domain.KindCredential, userID)
	if err != nil {
		return err
	}
	if len(credentialIDs) > 0 {
		if _, err := tx.Ownership().DeleteLinks(ctx, domain.KindCredential, domain.LinkFilter{ResourceIDs: credentialIDs}); err != nil {
			return err
		}
		if _, err := tx.Credentials().DeleteCredentials(ctx, credentialIDs); err != nil {
			return err
		}
	}

	return removeAccount(ctx, tx, userID)
}

// removeAccount deletes the user row and everything still bound to it. The
// remaining links are removed explicitly rather than relying on a store
// cascade.
func removeAccount(ctx context.Context, tx store.Tx, userID string) error {
	if err := tx.Identities().DeleteIdentitiesByUser(ctx, userID); err != nil {
		return err
	}
	for _, kind := range domain.ResourceKinds {
		if _, err := tx.Ownership().DeleteLinks(ctx, kind, domain.LinkFilter{UserID: userID}); err != nil {
			return err
		}
	}
	if err := tx.Users().DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

func ownedResources(ctx context.Context, tx store.Tx, kind domain.ResourceKind, userID string) ([]string, error) {
	links, err := tx.Ownership().ListLinks(ctx, kind, userID, kind.OwnerRole().ID())
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(links))
	for i, l := range links {
		ids[i] = l.ResourceID
	}
	return ids, nil
}

func (s *DeletionService) notify(ctx context.Context, ev domain.DeletionEvent, user domain.PublicUser) {
	if s.Notifier == nil {
		return
	}

	log := slogx.FromContext(ctx)
	base := context.WithoutCancel(ctx)
	timeout := s.HookTimeout
	if timeout <= 0 {
		timeout = defaultHookTimeout
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		log.Warn("deletion notifications closed, skipping", slog.String("target_id", ev.TargetID))
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(base, timeout)
		defer cancel()

		if err := s.Notifier.OnUserDeleted(ctx, ev); err != nil {
			log.Warn("user deletion telemetry failed",
				slog.String("target_id", ev.TargetID),
				slogx.Err(err),
			)
		}
		if err := s.Notifier.OnUserDeletionHook(ctx, user); err != nil {
			log.Warn("user deletion hook failed",
				slog.String("target_id", ev.TargetID),
				slogx.Err(err),
			)
		}
	}()
}

func (s *DeletionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
