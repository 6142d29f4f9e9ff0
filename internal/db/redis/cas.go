package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/kbase/internal/db"
)

// casScript replaces the root document when the integer at ARGV[1] equals
// ARGV[2]. Replies {1} on success, {0, current} on mismatch, {-1} when the
// key is missing.
const casScript = `
local cur = redis.call('JSON.GET', KEYS[1], ARGV[1])
if not cur then
  return {-1}
end
local rev = tonumber(cjson.decode(cur)[1]) or 0
if rev ~= tonumber(ARGV[2]) then
  return {0, rev}
end
redis.call('JSON.SET', KEYS[1], '$', ARGV[3])
return {1}
`

// JSONCompareAndSet atomically swaps the document at key guarded by the
// revision stored at revPath.
func (s *Store) JSONCompareAndSet(ctx context.Context, key, revPath string, expected int, data []byte) error {
	res := s.cas.Exec(ctx, s.client, []string{key}, []string{revPath, strconv.Itoa(expected), string(data)})
	reply, err := res.AsIntSlice()
	if err != nil {
		return &db.Error{Op: db.OpEval, Err: err}
	}
	if len(reply) == 0 {
		return &db.Error{Op: db.OpEval, Err: fmt.Errorf("empty reply")}
	}

	switch reply[0] {
	case 1:
		return nil
	case -1:
		return db.ErrKeyNotFound
	default:
		current := 0
		if len(reply) > 1 {
			current = int(reply[1])
		}
		return &db.RevisionMismatch{Current: current}
	}
}
