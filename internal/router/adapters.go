package router

import (
	"context"
	"errors"
	"time"

	"peptide-tracker/internal/domain/doses"
	"peptide-tracker/internal/domain/injections"
	"peptide-tracker/internal/domain/protocols"
	"peptide-tracker/internal/domain/substances"
)

// substanceChecker adapta substances.Service a protocols.SubstanceChecker.
type substanceChecker struct {
	svc *substances.Service
}

func (c substanceChecker) OwnsSubstance(ctx context.Context, ownerID, substanceID string) (bool, error) {
	if _, err := c.svc.Get(ctx, ownerID, substanceID); err != nil {
		if errors.Is(err, substances.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// itemResolver arma los detalles que doses muestra junto a cada dosis.
// Items que ya no existen se omiten del mapa.
type itemResolver struct {
	protocols  *protocols.Service
	substances *substances.Service
}

func (r itemResolver) ResolveItems(ctx context.Context, ownerID string, itemIDs []string) (map[string]doses.ItemDetails, error) {
	out := make(map[string]doses.ItemDetails, len(itemIDs))
	subs := map[string]substances.Substance{}

	for _, id := range itemIDs {
		if _, done := out[id]; done {
			continue
		}
		it, p, err := r.protocols.GetItem(ctx, ownerID, id)
		if err != nil {
			if errors.Is(err, protocols.ErrItemNotFound) {
				continue
			}
			return nil, err
		}

		sub, ok := subs[it.SubstanceID]
		if !ok {
			sub, err = r.substances.Get(ctx, ownerID, it.SubstanceID)
			if err != nil {
				if errors.Is(err, substances.ErrNotFound) {
					continue
				}
				return nil, err
			}
			subs[it.SubstanceID] = sub
		}

		out[id] = doses.ItemDetails{
			ProtocolID:      p.ID,
			ProtocolName:    p.Name,
			SubstanceName:   sub.Name,
			Unit:            sub.Unit,
			DoseValue:       it.DoseValue,
			TimeOfDay:       it.TimeOfDay,
			SitePlanEnabled: it.SitePlanEnabled,
		}
	}
	return out, nil
}

// doseCompleter traduce los errores de doses a los que espera injections.
type doseCompleter struct {
	svc *doses.Service
}

func (c doseCompleter) CompleteIfDue(ctx context.Context, ownerID, doseID string, at time.Time) (bool, error) {
	ok, err := c.svc.CompleteIfDue(ctx, ownerID, doseID, at)
	if errors.Is(err, doses.ErrNotFound) {
		return false, injections.ErrDoseNotFound
	}
	return ok, err
}
