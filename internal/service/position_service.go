// Package service orchestrates ledger operations with persistence, audit
// logging, and event publication.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"github.com/alanyoungcy/veledger/internal/domain"
	"github.com/alanyoungcy/veledger/internal/ledger"
)

// positionsChannel is the signal bus channel carrying lifecycle events.
const positionsChannel = "positions"

// PositionService wraps the core ledger with the ambient concerns: snapshot
// persistence, audit trail, and event fan-out. The ledger stays the single
// source of truth; store and bus failures after a committed mutation are
// logged, never propagated, so the caller sees exactly the ledger's outcome.
type PositionService struct {
	ledger  *ledger.Ledger
	records domain.RecordStore
	audit   domain.AuditStore
	bus     domain.SignalBus
	logger  *slog.Logger
}

// NewPositionService creates a PositionService. records, audit, and bus may
// each be nil when the corresponding subsystem is disabled.
func NewPositionService(
	l *ledger.Ledger,
	records domain.RecordStore,
	audit domain.AuditStore,
	bus domain.SignalBus,
	logger *slog.Logger,
) *PositionService {
	return &PositionService{
		ledger:  l,
		records: records,
		audit:   audit,
		bus:     bus,
		logger:  logger.With(slog.String("component", "position_service")),
	}
}

// Restore loads every persisted position record back into the ledger. Called
// once at startup before the API is exposed.
func (s *PositionService) Restore(ctx context.Context) error {
	if s.records == nil {
		return nil
	}
	recs, err := s.records.List(ctx)
	if err != nil {
		return fmt.Errorf("position_service: list persisted records: %w", err)
	}
	for _, rec := range recs {
		if err := s.ledger.ImportPosition(rec); err != nil {
			return fmt.Errorf("position_service: restore position %d: %w", rec.ID, err)
		}
	}
	s.logger.InfoContext(ctx, "position_service: restored positions",
		slog.Int("count", len(recs)),
	)
	return nil
}

// Lock escrows amount for the account and mints a position to beneficiary.
func (s *PositionService) Lock(ctx context.Context, caller, account common.Address, amount *uint256.Int, duration uint64, beneficiary common.Address, useExternalCustody bool) (domain.Position, error) {
	pos, err := s.ledger.Lock(ctx, caller, account, amount, duration, beneficiary, useExternalCustody)
	if err != nil {
		return domain.Position{}, err
	}

	s.persist(ctx, pos.ID, pos.Owner)
	s.record(ctx, "position_locked", map[string]any{
		"position_id":  pos.ID,
		"account":      account.Hex(),
		"beneficiary":  pos.Owner.Hex(),
		"amount":       pos.Amount.Dec(),
		"duration":     pos.Duration,
		"locked_until": pos.LockedUntil,
		"custody":      pos.Custody.String(),
	})

	s.logger.InfoContext(ctx, "position_service: position locked",
		slog.Uint64("position_id", pos.ID),
		slog.String("owner", pos.Owner.Hex()),
		slog.String("amount", pos.Amount.Dec()),
		slog.Uint64("duration", pos.Duration),
		slog.String("custody", pos.Custody.String()),
	)
	return pos, nil
}

// Unlock destroys a matured position and releases its value to beneficiary.
func (s *PositionService) Unlock(ctx context.Context, caller common.Address, id uint64, beneficiary common.Address) error {
	pos, err := s.ledger.Unlock(ctx, caller, id, beneficiary)
	if err != nil {
		return err
	}

	if s.records != nil {
		if storeErr := s.records.Delete(ctx, id); storeErr != nil {
			s.logger.WarnContext(ctx, "position_service: delete persisted record failed",
				slog.Uint64("position_id", id),
				slog.String("error", storeErr.Error()),
			)
		}
	}
	s.record(ctx, "position_unlocked", map[string]any{
		"position_id": id,
		"beneficiary": beneficiary.Hex(),
		"amount":      pos.Amount.Dec(),
		"custody":     pos.Custody.String(),
	})

	s.logger.InfoContext(ctx, "position_service: position unlocked",
		slog.Uint64("position_id", id),
		slog.String("beneficiary", beneficiary.Hex()),
		slog.String("amount", pos.Amount.Dec()),
	)
	return nil
}

// ExtendLock rewrites a position's duration tier.
func (s *PositionService) ExtendLock(ctx context.Context, caller common.Address, id uint64, newDuration uint64) (domain.Position, error) {
	pos, err := s.ledger.ExtendLock(ctx, caller, id, newDuration)
	if err != nil {
		return domain.Position{}, err
	}

	s.persist(ctx, pos.ID, pos.Owner)
	s.record(ctx, "position_extended", map[string]any{
		"position_id":  pos.ID,
		"duration":     pos.Duration,
		"locked_until": pos.LockedUntil,
	})

	s.logger.InfoContext(ctx, "position_service: position extended",
		slog.Uint64("position_id", pos.ID),
		slog.Uint64("duration", pos.Duration),
		slog.Uint64("locked_until", pos.LockedUntil),
	)
	return pos, nil
}

// Specs returns the decoded fields of a position.
func (s *PositionService) Specs(ctx context.Context, id uint64) (domain.Position, error) {
	return s.ledger.Specs(id)
}

// VotingPower returns the account's aggregate time-decayed voting weight.
func (s *PositionService) VotingPower(ctx context.Context, account common.Address) (*uint256.Int, error) {
	return s.ledger.VotingPower(account)
}

// OwnerChanged mirrors an ownership transfer into the snapshot store. It is
// wired as an OnTransfer hook on the registry.
func (s *PositionService) OwnerChanged(id uint64, from, to common.Address) {
	ctx := context.Background()

	var zero common.Address
	if from == zero || to == zero {
		// Mints and burns are persisted by Lock/Unlock themselves.
		return
	}
	if s.records != nil {
		if err := s.records.UpdateOwner(ctx, id, to); err != nil {
			s.logger.Warn("position_service: persist owner change failed",
				slog.Uint64("position_id", id),
				slog.String("error", err.Error()),
			)
		}
	}
	s.record(ctx, "position_transferred", map[string]any{
		"position_id": id,
		"from":        from.Hex(),
		"to":          to.Hex(),
	})
}

// persist mirrors the packed record to the snapshot store, best effort.
func (s *PositionService) persist(ctx context.Context, id uint64, owner common.Address) {
	if s.records == nil {
		return
	}
	reg, err := s.ledger.PackedRecord(id)
	if err != nil {
		s.logger.Warn("position_service: read packed record failed",
			slog.Uint64("position_id", id),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := s.records.Save(ctx, domain.PositionRecord{ID: id, Record: reg, Owner: owner}); err != nil {
		s.logger.WarnContext(ctx, "position_service: persist record failed",
			slog.Uint64("position_id", id),
			slog.String("error", err.Error()),
		)
	}
}

// record writes the audit entry and publishes the bus event for one committed
// mutation.
func (s *PositionService) record(ctx context.Context, event string, detail map[string]any) {
	detail["correlation_id"] = uuid.NewString()
	detail["at"] = time.Now().UTC().Format(time.RFC3339)

	if s.audit != nil {
		if err := s.audit.Log(ctx, event, detail); err != nil {
			s.logger.WarnContext(ctx, "position_service: audit log failed",
				slog.String("event", event),
				slog.String("error", err.Error()),
			)
		}
	}
	if s.bus != nil {
		payload, _ := json.Marshal(map[string]any{"event": event, "detail": detail})
		if err := s.bus.Publish(ctx, positionsChannel, payload); err != nil {
			s.logger.WarnContext(ctx, "position_service: publish event failed",
				slog.String("event", event),
				slog.String("error", err.Error()),
			)
		}
	}
}
