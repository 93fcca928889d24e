package redis

import "github.com/redis/go-redis/v9"

/* Lua scripts make every status change a single atomic step on the server
 * The status check and the write can't interleave with another dispatcher
 */

// createScript stores the hash only when the id is unknown
// KEYS[1] = event hash, KEYS[2] = status index
// ARGV = id, tenant_id, type, source, payload, status, created_at, updated_at
var createScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
redis.call('HSET', KEYS[1],
  'id', ARGV[1],
  'tenant_id', ARGV[2],
  'type', ARGV[3],
  'source', ARGV[4],
  'payload', ARGV[5],
  'status', ARGV[6],
  'error_message', '',
  'created_at', ARGV[7],
  'updated_at', ARGV[8])
redis.call('ZADD', KEYS[2], ARGV[7], ARGV[1])
return 1
`)

// transitionScript is a compare-and-set on the status field
// KEYS[1] = event hash
// ARGV = to, error_message, updated_at, index prefix, id, from...
// Returns -1 when the event is missing, 0 when the status is not allowed, 1 on success
var transitionScript = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'status')
if not current then
  return -1
end
local allowed = false
for i = 6, #ARGV do
  if ARGV[i] == current then
    allowed = true
    break
  end
end
if not allowed then
  return 0
end
redis.call('HSET', KEYS[1], 'status', ARGV[1], 'error_message', ARGV[2], 'updated_at', ARGV[3])
if current ~= ARGV[1] then
  local created = redis.call('HGET', KEYS[1], 'created_at')
  redis.call('ZREM', ARGV[4] .. current, ARGV[5])
  redis.call('ZADD', ARGV[4] .. ARGV[1], created, ARGV[5])
end
return 1
`)

// attachTenantScript sets tenant_id only on existing events
var attachTenantScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return 0
end
redis.call('HSET', KEYS[1], 'tenant_id', ARGV[1], 'updated_at', ARGV[2])
return 1
`)
