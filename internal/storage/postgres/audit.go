package postgres

import (
	"context"

	"storefront/internal/audit"
)

// Audit returns the append-only audit repository. Appends run in their own
// statement, after the workflow transaction has committed.
func (s *Store) Audit() audit.Repository { return auditRepo{s} }

type auditRepo struct{ s *Store }

func (r auditRepo) Append(ctx context.Context, e audit.Event) error {
	const q = `
INSERT INTO audit_events (id, type, actor_user_id, actor_role, ip_address, target_type, target_id, message, metadata, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NULLIF($9,'')::jsonb,$10)
`
	_, err := r.s.db.ExecContext(ctx, q,
		e.ID,
		e.Type,
		e.ActorUserID,
		e.ActorRole,
		e.IPAddress,
		e.TargetType,
		e.TargetID,
		e.Message,
		e.Metadata,
		e.CreatedAt,
	)
	return err
}
