package service

import (
	"context"
	"fmt"

	"deedapi/internal/model"
	"deedapi/internal/repository"
)

// statusEngine applies deed lifecycle transitions in response to signing
// events. All moves go through DeedRepository.AdvanceStatus, whose guarded
// update keeps transitions monotonic under concurrent consumptions.
type statusEngine struct {
	deeds repository.DeedRepository
}

// advance runs the transition for one signing event and returns the status
// the deed is in afterwards. A lost guarded update means either a concurrent
// event already moved the deed or phase ordering blocked the move; the stored
// status is re-read in that case so the outcome reports where the deed
// actually is.
func (e statusEngine) advance(ctx context.Context, deedID string, kind model.SignerKind, p repository.SigningProgress) (model.DeedStatus, error) {
	switch kind {
	case model.SignerKindBorrower:
		if p.AllSigned() {
			return e.tryAdvance(ctx, deedID,
				[]model.DeedStatus{model.StatusCreated, model.StatusPendingBorrowerSignature},
				model.StatusPendingCooperativeSignature)
		}
		return e.tryAdvance(ctx, deedID,
			[]model.DeedStatus{model.StatusCreated},
			model.StatusPendingBorrowerSignature)
	case model.SignerKindCooperativeSigner:
		if p.AllSigned() {
			return e.tryAdvance(ctx, deedID,
				[]model.DeedStatus{model.StatusPendingCooperativeSignature},
				model.StatusCompleted)
		}
		// Mid-phase cooperative signatures do not move the deed.
		return e.current(ctx, deedID)
	}
	return "", model.ErrInvalidSignerRef
}

func (e statusEngine) tryAdvance(ctx context.Context, deedID string, from []model.DeedStatus, to model.DeedStatus) (model.DeedStatus, error) {
	ok, err := e.deeds.AdvanceStatus(ctx, deedID, from, to)
	if err != nil {
		return "", err
	}
	if ok {
		return to, nil
	}
	return e.current(ctx, deedID)
}

func (e statusEngine) current(ctx context.Context, deedID string) (model.DeedStatus, error) {
	deed, err := e.deeds.FindByID(ctx, deedID)
	if err != nil {
		return "", fmt.Errorf("read deed status: %w", err)
	}
	return deed.Status, nil
}
