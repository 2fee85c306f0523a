package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "loanledger:idemp:"

func nowUTC() time.Time { return time.Now().UTC() }

// idempotencyKey scopes a request id to one owner and one route, so two
// owners may reuse the same id without seeing each other's responses.
func idempotencyKey(ownerID, method, route, requestID string) string {
	return keyPrefix + ownerID + ":" + strings.ToUpper(method) + ":" + route + ":" + strings.ToLower(requestID)
}

// fingerprint identifies what was asked: the query string and the body.
// Query parameters are compared in canonical order, so ?a=1&b=2 and ?b=2&a=1
// are the same request while /imports?mode=append and ?mode=reconcile are not.
func fingerprint(rawQuery string, body []byte) string {
	q, err := url.ParseQuery(rawQuery)
	canon := q.Encode()
	if err != nil {
		canon = rawQuery
	}
	h := sha256.New()
	h.Write([]byte(canon))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

var (
	reUUID  = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[1-5][a-f0-9]{3}-[89ab][a-f0-9]{3}-[a-f0-9]{12}$`)
	reHex32 = regexp.MustCompile(`^[a-f0-9]{32}$`)
)

func validReqID(id string) bool {
	id = strings.ToLower(strings.TrimSpace(id))
	return reUUID.MatchString(id) || reHex32.MatchString(id)
}

var errRequestAt = errors.New("Ax-Request-At must be epoch (s/ms) or RFC3339 with timezone")

// parseRequestAt reads Ax-Request-At as epoch seconds, epoch milliseconds or
// an RFC3339 timestamp that carries a zone. Values above 1e12 are milliseconds.
func parseRequestAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("missing Ax-Request-At")
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, errRequestAt
	}
	return t.UTC(), nil
}

// finished reports whether e holds a completed response that can be replayed.
// Responses without a body (204 from a delete) are finished too.
func finished(e idempEntry) bool { return !e.InProgress && e.Code != 0 }

func replay(c echo.Context, e idempEntry) error {
	c.Response().Header().Set("Idempotent-Replay", "true")
	if len(e.Body) == 0 {
		return c.NoContent(e.Code)
	}
	ct := e.ContentType
	if ct == "" {
		ct = echo.MIMEApplicationJSON
	}
	return c.Blob(e.Code, ct, e.Body)
}

// entryStore keeps idempotency entries in Redis: a short-lived reservation
// while the handler runs, then the final response for ttl.
type entryStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func (s entryStore) reserve(ctx context.Context, key string, e idempEntry) (bool, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return false, err
	}
	return s.rdb.SetNX(ctx, key, payload, provisionalLockTTL).Result()
}

func (s entryStore) load(ctx context.Context, key string) (idempEntry, error) {
	var e idempEntry
	v, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return e, err
	}
	err = json.Unmarshal(v, &e)
	return e, err
}

func (s entryStore) finish(ctx context.Context, key string, e idempEntry) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, payload, s.ttl).Err()
}
