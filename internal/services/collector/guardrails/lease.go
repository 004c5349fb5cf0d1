package guardrails

import (
	"context"
	"errors"
	"time"

	perr "trendflow/internal/platform/errors"
	"trendflow/internal/platform/store"
)

// ErrLeaseHeld signals another collector replica already owns the slot
var ErrLeaseHeld = errors.New("collector: slot lease already held")

// Lease runs do when the caller wins the slot
type Lease func(ctx context.Context, slot time.Time, do func(context.Context) error) error

// Slot truncates t to the schedule interval, replicas starting in the same interval share a slot
func Slot(t time.Time, every time.Duration) time.Time {
	if every <= 0 {
		every = time.Hour
	}
	return t.UTC().Truncate(every)
}

// MakeAdvisoryLease claims slots in collection_leases so that only one replica collects per interval
// a claim is never released, the slot simply passes
func MakeAdvisoryLease(db store.TxRunner, holder string) Lease {
	return func(ctx context.Context, slot time.Time, do func(context.Context) error) error {
		var claimed bool
		err := db.Tx(ctx, func(q store.RowQuerier) error {
			rows, err := q.Query(ctx, `
				insert into collection_leases (slot, holder)
				values ($1, $2)
				on conflict (slot) do nothing
				returning true
			`, slot.UTC(), holder)
			if err != nil {
				return err
			}
			defer rows.Close()
			if rows.Next() {
				claimed = true
			}
			return rows.Err()
		})
		if err != nil {
			return perr.FromPostgres(err, "collector: claim slot")
		}
		if !claimed {
			return ErrLeaseHeld
		}
		return do(ctx)
	}
}

// NoLease always runs do
func NoLease(ctx context.Context, _ time.Time, do func(context.Context) error) error { return do(ctx) }
