package redis

import (
	"context"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/entity"
	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/repository"
)

// Record hash fields.
const (
	fieldID          = "id"
	fieldPrincipalID = "principal_id"
	fieldSessionID   = "session_id"
	fieldFingerprint = "fingerprint"
	fieldUserAgent   = "user_agent"
	fieldRemoteIP    = "remote_ip"
	fieldIssuedAt    = "issued_at"
	fieldExpiresAt   = "expires_at"
	fieldRevokedAt   = "revoked_at"
	fieldReplacedBy  = "replaced_by"
)

const defaultRetention = 24 * time.Hour

// The scripts read records of one principal through keys derived inside Lua,
// so the store targets standalone and sentinel deployments, not cluster mode.

// createScript inserts a record unless the fingerprint exists or the principal
// is at its active session limit. Returns 1 on insert, 0 on limit, -1 on duplicate.
var createScript = goredis.NewScript(`
if redis.call('EXISTS', KEYS[2]) == 1 then
	return -1
end
local max = tonumber(ARGV[1])
if max > 0 then
	local now = tonumber(ARGV[2])
	local active = 0
	for _, id in ipairs(redis.call('SMEMBERS', KEYS[3])) do
		local f = redis.call('HMGET', ARGV[4] .. id, 'revoked_at', 'expires_at')
		if f[2] and f[1] == '' and tonumber(f[2]) > now then
			active = active + 1
		end
	end
	if active >= max then
		return 0
	end
end
redis.call('HSET', KEYS[1], unpack(ARGV, 6))
redis.call('PEXPIRE', KEYS[1], ARGV[3])
redis.call('SET', KEYS[2], ARGV[5], 'PX', ARGV[3])
redis.call('SADD', KEYS[3], ARGV[5])
return 1
`)

// rotateScript supersedes an active record and inserts its successor.
// Returns 1 on success, 0 when the old record is not active, -1 on duplicate.
var rotateScript = goredis.NewScript(`
local old = redis.call('HMGET', KEYS[1], 'revoked_at', 'expires_at')
if not old[2] or old[1] ~= '' or tonumber(old[2]) <= tonumber(ARGV[1]) then
	return 0
end
if redis.call('EXISTS', KEYS[3]) == 1 then
	return -1
end
redis.call('HSET', KEYS[1], 'revoked_at', ARGV[1], 'replaced_by', ARGV[3])
redis.call('HSET', KEYS[2], unpack(ARGV, 4))
redis.call('PEXPIRE', KEYS[2], ARGV[2])
redis.call('SET', KEYS[3], ARGV[3], 'PX', ARGV[2])
redis.call('SADD', KEYS[4], ARGV[3])
return 1
`)

// revokeScript returns 0 for an unknown record and 1 otherwise.
var revokeScript = goredis.NewScript(`
local revoked = redis.call('HGET', KEYS[1], 'revoked_at')
if not revoked then
	return 0
end
if revoked == '' then
	redis.call('HSET', KEYS[1], 'revoked_at', ARGV[1])
end
return 1
`)

// revokeManyScript revokes the active records of a principal selected by mode:
// "all", "only" (matching session) or "except" (other sessions).
var revokeManyScript = goredis.NewScript(`
local now = tonumber(ARGV[1])
local count = 0
for _, id in ipairs(redis.call('SMEMBERS', KEYS[1])) do
	local key = ARGV[2] .. id
	local f = redis.call('HMGET', key, 'revoked_at', 'expires_at', 'session_id')
	if f[2] and f[1] == '' and tonumber(f[2]) > now then
		local mode = ARGV[3]
		if mode == 'all' or (mode == 'only' and f[3] == ARGV[4]) or (mode == 'except' and f[3] ~= ARGV[4]) then
			redis.call('HSET', key, 'revoked_at', ARGV[1])
			count = count + 1
		end
	end
end
return count
`)

type credentialRepository struct {
	client    goredis.UniversalClient
	keyPrefix string
	retention time.Duration
	now       func() time.Time
}

// Option customises the Redis store.
type Option func(*credentialRepository)

// WithClock replaces the wall clock used to judge expiry.
func WithClock(now func() time.Time) Option {
	return func(r *credentialRepository) {
		r.now = now
	}
}

// WithRetention keeps records this long past their expiry before Redis evicts them.
func WithRetention(retention time.Duration) Option {
	return func(r *credentialRepository) {
		if retention > 0 {
			r.retention = retention
		}
	}
}

// NewCredentialRepository creates a Redis backed store with a pre-configured client.
func NewCredentialRepository(client goredis.UniversalClient, keyPrefix string, opts ...Option) repository.CredentialRepository {
	r := &credentialRepository{
		client:    client,
		keyPrefix: keyPrefix,
		retention: defaultRetention,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *credentialRepository) Create(ctx context.Context, record *entity.CredentialRecord) error {
	return r.create(ctx, record, 0)
}

func (r *credentialRepository) CreateWithLimit(ctx context.Context, record *entity.CredentialRecord, maxActive int) error {
	return r.create(ctx, record, maxActive)
}

func (r *credentialRepository) create(ctx context.Context, record *entity.CredentialRecord, maxActive int) error {
	now := r.now()
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.IssuedAt.IsZero() {
		record.IssuedAt = now
	}

	keys := []string{r.credKey(record.ID), r.fingerprintKey(record.Fingerprint), r.principalKey(record.PrincipalID)}
	args := []any{maxActive, toMillis(now), r.ttlMillis(record, now), r.keyPrefix + "cred:", record.ID.String()}
	args = append(args, recordFields(record)...)

	result, err := createScript.Run(ctx, r.client, keys, args...).Int()
	if err != nil {
		return errors.Wrap(err, "failed to create credential record")
	}

	switch result {
	case 0:
		return repository.ErrSessionLimitReached
	case -1:
		return repository.ErrCredentialDuplicate
	default:
		return nil
	}
}

func (r *credentialRepository) FindActive(ctx context.Context, fingerprint string) (*entity.CredentialRecord, error) {
	id, err := r.client.Get(ctx, r.fingerprintKey(fingerprint)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, repository.ErrCredentialNotFound
		}

		return nil, errors.Wrap(err, "failed to look up fingerprint")
	}

	fields, err := r.client.HGetAll(ctx, r.keyPrefix+"cred:"+id).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load credential record")
	}
	record, err := parseRecord(fields)
	if err != nil {
		return nil, err
	}
	if record == nil || !record.IsActiveAt(r.now()) {
		return nil, repository.ErrCredentialNotFound
	}

	return record, nil
}

func (r *credentialRepository) Rotate(ctx context.Context, oldID uuid.UUID, next *entity.CredentialRecord) error {
	now := r.now()
	if next.ID == uuid.Nil {
		next.ID = uuid.New()
	}
	if next.IssuedAt.IsZero() {
		next.IssuedAt = now
	}

	keys := []string{
		r.credKey(oldID),
		r.credKey(next.ID),
		r.fingerprintKey(next.Fingerprint),
		r.principalKey(next.PrincipalID),
	}
	args := []any{toMillis(now), r.ttlMillis(next, now), next.ID.String()}
	args = append(args, recordFields(next)...)

	result, err := rotateScript.Run(ctx, r.client, keys, args...).Int()
	if err != nil {
		return errors.Wrap(err, "failed to rotate credential record")
	}

	switch result {
	case 0:
		return repository.ErrCredentialSuperseded
	case -1:
		return repository.ErrCredentialDuplicate
	default:
		return nil
	}
}

func (r *credentialRepository) Revoke(ctx context.Context, id uuid.UUID) error {
	result, err := revokeScript.Run(ctx, r.client, []string{r.credKey(id)}, toMillis(r.now())).Int()
	if err != nil {
		return errors.Wrap(err, "failed to revoke credential record")
	}
	if result == 0 {
		return repository.ErrCredentialNotFound
	}

	return nil
}

func (r *credentialRepository) RevokeSession(ctx context.Context, principalID, sessionID uuid.UUID) (int, error) {
	return r.revokeMany(ctx, principalID, "only", sessionID)
}

func (r *credentialRepository) RevokeAllForPrincipal(ctx context.Context, principalID uuid.UUID) (int, error) {
	return r.revokeMany(ctx, principalID, "all", uuid.Nil)
}

func (r *credentialRepository) RevokeAllForPrincipalExcept(ctx context.Context, principalID, keepSessionID uuid.UUID) (int, error) {
	return r.revokeMany(ctx, principalID, "except", keepSessionID)
}

func (r *credentialRepository) revokeMany(ctx context.Context, principalID uuid.UUID, mode string, sessionID uuid.UUID) (int, error) {
	count, err := revokeManyScript.Run(ctx, r.client,
		[]string{r.principalKey(principalID)},
		toMillis(r.now()), r.keyPrefix+"cred:", mode, sessionID.String(),
	).Int()
	if err != nil {
		return 0, errors.Wrap(err, "failed to revoke credential records")
	}

	return count, nil
}

func (r *credentialRepository) ListActiveByPrincipal(ctx context.Context, principalID uuid.UUID) ([]*entity.CredentialRecord, error) {
	records, err := r.loadPrincipal(ctx, r.principalKey(principalID))
	if err != nil {
		return nil, err
	}

	now := r.now()
	active := make([]*entity.CredentialRecord, 0, len(records))
	for _, record := range records {
		if record != nil && record.IsActiveAt(now) {
			active = append(active, record)
		}
	}
	slices.SortFunc(active, func(a, b *entity.CredentialRecord) int {
		return b.IssuedAt.Compare(a.IssuedAt)
	})

	return active, nil
}

// DeleteExpired walks every principal index. Records Redis already evicted are
// dropped from the index as well.
func (r *credentialRepository) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	deleted := 0
	iter := r.client.Scan(ctx, 0, r.keyPrefix+"principal:*", 100).Iterator()
	for iter.Next(ctx) {
		setKey := iter.Val()
		ids, err := r.client.SMembers(ctx, setKey).Result()
		if err != nil {
			return deleted, errors.Wrap(err, "failed to list principal records")
		}

		for _, id := range ids {
			fields, err := r.client.HGetAll(ctx, r.keyPrefix+"cred:"+id).Result()
			if err != nil {
				return deleted, errors.Wrap(err, "failed to load credential record")
			}
			record, err := parseRecord(fields)
			if err != nil {
				return deleted, err
			}

			if record == nil {
				if err := r.client.SRem(ctx, setKey, id).Err(); err != nil {
					return deleted, errors.Wrap(err, "failed to prune principal index")
				}

				continue
			}

			expired := record.ExpiresAt.Before(before)
			revoked := record.RevokedAt != nil && record.RevokedAt.Before(before)
			if !expired && !revoked {
				continue
			}
			if err := r.deleteRecord(ctx, setKey, record); err != nil {
				return deleted, err
			}
			deleted++
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, errors.Wrap(err, "failed to scan principal indexes")
	}

	return deleted, nil
}

func (r *credentialRepository) deleteRecord(ctx context.Context, setKey string, record *entity.CredentialRecord) error {
	fpKey := r.fingerprintKey(record.Fingerprint)
	owner, err := r.client.Get(ctx, fpKey).Result()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return errors.Wrap(err, "failed to look up fingerprint")
	}

	_, err = r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, r.credKey(record.ID))
		if owner == record.ID.String() {
			pipe.Del(ctx, fpKey)
		}
		pipe.SRem(ctx, setKey, record.ID.String())

		return nil
	})

	return errors.Wrap(err, "failed to delete credential record")
}

func (r *credentialRepository) loadPrincipal(ctx context.Context, setKey string) ([]*entity.CredentialRecord, error) {
	ids, err := r.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to list principal records")
	}
	if len(ids) == 0 {
		return nil, nil
	}

	cmds := make([]*goredis.MapStringStringCmd, len(ids))
	_, err = r.client.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, r.keyPrefix+"cred:"+id)
		}

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load principal records")
	}

	records := make([]*entity.CredentialRecord, 0, len(cmds))
	for _, cmd := range cmds {
		record, err := parseRecord(cmd.Val())
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}

func (r *credentialRepository) credKey(id uuid.UUID) string {
	return r.keyPrefix + "cred:" + id.String()
}

func (r *credentialRepository) fingerprintKey(fingerprint string) string {
	return r.keyPrefix + "fp:" + fingerprint
}

func (r *credentialRepository) principalKey(principalID uuid.UUID) string {
	return r.keyPrefix + "principal:" + principalID.String()
}

// ttlMillis keeps a record around for the retention window after it expires.
func (r *credentialRepository) ttlMillis(record *entity.CredentialRecord, now time.Time) int64 {
	ttl := record.ExpiresAt.Sub(now) + r.retention

	return max(ttl.Milliseconds(), 1)
}

func recordFields(record *entity.CredentialRecord) []any {
	revokedAt, replacedBy := "", ""
	if record.RevokedAt != nil {
		revokedAt = strconv.FormatInt(toMillis(*record.RevokedAt), 10)
	}
	if record.ReplacedBy != nil {
		replacedBy = record.ReplacedBy.String()
	}

	return []any{
		fieldID, record.ID.String(),
		fieldPrincipalID, record.PrincipalID.String(),
		fieldSessionID, record.SessionID.String(),
		fieldFingerprint, record.Fingerprint,
		fieldUserAgent, record.UserAgent,
		fieldRemoteIP, record.RemoteIP,
		fieldIssuedAt, toMillis(record.IssuedAt),
		fieldExpiresAt, toMillis(record.ExpiresAt),
		fieldRevokedAt, revokedAt,
		fieldReplacedBy, replacedBy,
	}
}

// parseRecord returns nil for an empty hash, which is how Redis reports a missing key.
func parseRecord(fields map[string]string) (*entity.CredentialRecord, error) {
	if len(fields) == 0 {
		return nil, nil
	}

	record := &entity.CredentialRecord{
		Fingerprint: fields[fieldFingerprint],
		UserAgent:   fields[fieldUserAgent],
		RemoteIP:    fields[fieldRemoteIP],
	}

	var err error
	if record.ID, err = uuid.Parse(fields[fieldID]); err != nil {
		return nil, errors.Wrap(err, "corrupt credential record id")
	}
	if record.PrincipalID, err = uuid.Parse(fields[fieldPrincipalID]); err != nil {
		return nil, errors.Wrap(err, "corrupt credential principal id")
	}
	if record.SessionID, err = uuid.Parse(fields[fieldSessionID]); err != nil {
		return nil, errors.Wrap(err, "corrupt credential session id")
	}
	if record.IssuedAt, err = fromMillis(fields[fieldIssuedAt]); err != nil {
		return nil, err
	}
	if record.ExpiresAt, err = fromMillis(fields[fieldExpiresAt]); err != nil {
		return nil, err
	}
	if raw := fields[fieldRevokedAt]; raw != "" {
		revokedAt, err := fromMillis(raw)
		if err != nil {
			return nil, err
		}
		record.RevokedAt = &revokedAt
	}
	if raw := fields[fieldReplacedBy]; raw != "" {
		replacedBy, err := uuid.Parse(raw)
		if err != nil {
			return nil, errors.Wrap(err, "corrupt credential successor id")
		}
		record.ReplacedBy = &replacedBy
	}

	return record, nil
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(raw string) (time.Time, error) {
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "corrupt timestamp %q", raw)
	}

	return time.UnixMilli(ms).UTC(), nil
}
