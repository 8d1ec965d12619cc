// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/yomira-auth/internal/platform/constants"
)

// maxTxRetries bounds optimistic transaction retries under contention.
const maxTxRetries = 4

var errTxContended = errors.New("redis transaction kept conflicting")

func verificationKey(accountID string) string {
	return constants.RedisPrefixVerifyToken + accountID
}

func recoveryKey(tokenHash string) string {
	return constants.RedisPrefixResetToken + tokenHash
}

func recoveryOwnerKey(accountID string) string {
	return constants.RedisPrefixResetOwner + accountID
}

// # Verification Token Store

// RedisVerificationTokenStore implements [VerificationTokenStore] using Redis.
type RedisVerificationTokenStore struct {
	client *redis.Client
}

// NewVerificationTokenStore creates a new Redis-backed VerificationTokenStore.
func NewVerificationTokenStore(client *redis.Client) *RedisVerificationTokenStore {
	return &RedisVerificationTokenStore{client: client}
}

/*
Save stores the digest under the account key with the given TTL.

Description: Overwriting the key is what supersedes an older token.

Parameters:
  - context: context.Context
  - accountID: string
  - tokenHash: string
  - ttl: time.Duration

Returns:
  - error: Execution errors
*/
func (store *RedisVerificationTokenStore) Save(context context.Context, accountID, tokenHash string, ttl time.Duration) error {

	// Set the digest with TTL, replacing any earlier one
	if err := store.client.Set(context, verificationKey(accountID), tokenHash, ttl).Err(); err != nil {
		return fmt.Errorf("redis_verify_token_set_failed: %w", err)
	}

	// Return nil on success
	return nil
}

// Consume deletes the stored digest inside a WATCH transaction when it
// matches. A mismatch leaves the stored token untouched.
func (store *RedisVerificationTokenStore) Consume(context context.Context, accountID, tokenHash string) (bool, error) {

	// Use constants for key prefix
	key := verificationKey(accountID)

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		var consumed bool

		err := store.client.Watch(context, func(tx *redis.Tx) error {

			// 1. Read the stored digest under WATCH
			stored, err := tx.Get(context, key).Result()
			if err != nil {
				return err
			}

			// 2. A mismatch leaves the key alone
			if subtle.ConstantTimeCompare([]byte(stored), []byte(tokenHash)) != 1 {
				return nil
			}

			// 3. Delete atomically; EXEC aborts if the key changed meanwhile
			_, err = tx.TxPipelined(context, func(pipe redis.Pipeliner) error {
				pipe.Del(context, key)
				return nil
			})
			if err != nil {
				return err
			}

			consumed = true
			return nil
		}, key)

		// Retry on conflict, treat a missing key as an unknown token
		switch {
		case errors.Is(err, redis.TxFailedErr):
			continue
		case errors.Is(err, redis.Nil):
			return false, nil
		case err != nil:
			return false, fmt.Errorf("redis_verify_token_consume_failed: %w", err)
		}

		return consumed, nil
	}

	return false, fmt.Errorf("redis_verify_token_consume_failed: %w", errTxContended)
}

// # Recovery Token Store

// RedisRecoveryTokenStore implements [RecoveryTokenStore] using Redis.
//
// Records live under the token digest. A per-account owner key points at the
// latest digest so a new token can delete the one it supersedes.
type RedisRecoveryTokenStore struct {
	client *redis.Client
}

// NewRecoveryTokenStore creates a new Redis-backed RecoveryTokenStore.
func NewRecoveryTokenStore(client *redis.Client) *RedisRecoveryTokenStore {
	return &RedisRecoveryTokenStore{client: client}
}

/*
Save stores the record and supersedes the account's previous token.

Parameters:
  - context: context.Context
  - tokenHash: string
  - record: RecoveryRecord
  - ttl: time.Duration

Returns:
  - error: Execution errors
*/
func (store *RedisRecoveryTokenStore) Save(context context.Context, tokenHash string, record RecoveryRecord, ttl time.Duration) error {
	// 1. Encode the record
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("redis_reset_token_encode_failed: %w", err)
	}

	// Use constants for key prefix
	ownerKey := recoveryOwnerKey(record.AccountID)

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := store.client.Watch(context, func(tx *redis.Tx) error {

			// 2. Find the digest this token supersedes
			previous, err := tx.Get(context, ownerKey).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				return err
			}

			// 3. Swap record and owner pointer in one transaction
			_, err = tx.TxPipelined(context, func(pipe redis.Pipeliner) error {
				if previous != "" && previous != tokenHash {
					pipe.Del(context, recoveryKey(previous))
				}
				pipe.Set(context, recoveryKey(tokenHash), payload, ttl)
				pipe.Set(context, ownerKey, tokenHash, ttl)
				return nil
			})
			return err
		}, ownerKey)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("redis_reset_token_set_failed: %w", err)
		}

		// Return nil on success
		return nil
	}

	return fmt.Errorf("redis_reset_token_set_failed: %w", errTxContended)
}

/*
Consume removes the record stored under tokenHash and returns it.

Description: Returns a nil record when the token is unknown, already
consumed or superseded. Expiry is judged by the caller.

Parameters:
  - context: context.Context
  - tokenHash: string

Returns:
  - *RecoveryRecord: The removed record, or nil
  - error: Connectivity or decoding errors
*/
func (store *RedisRecoveryTokenStore) Consume(context context.Context, tokenHash string) (*RecoveryRecord, error) {

	// Use constants for key prefix
	key := recoveryKey(tokenHash)

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		var consumed *RecoveryRecord

		err := store.client.Watch(context, func(tx *redis.Tx) error {

			// 1. Load and decode the record
			data, err := tx.Get(context, key).Bytes()
			if err != nil {
				return err
			}

			var record RecoveryRecord
			if err := json.Unmarshal(data, &record); err != nil {
				return fmt.Errorf("decode record: %w", err)
			}

			// 2. Watch the owner pointer too, a concurrent Save may move it
			ownerKey := recoveryOwnerKey(record.AccountID)
			if err := tx.Watch(context, ownerKey).Err(); err != nil {
				return err
			}
			owner, err := tx.Get(context, ownerKey).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				return err
			}

			// 3. Drop the record, and the pointer only if it still names this token
			_, err = tx.TxPipelined(context, func(pipe redis.Pipeliner) error {
				pipe.Del(context, key)
				if owner == tokenHash {
					pipe.Del(context, ownerKey)
				}
				return nil
			})
			if err != nil {
				return err
			}

			consumed = &record
			return nil
		}, key)

		switch {
		case errors.Is(err, redis.TxFailedErr):
			continue
		case errors.Is(err, redis.Nil):
			return nil, nil
		case err != nil:
			return nil, fmt.Errorf("redis_reset_token_consume_failed: %w", err)
		}

		return consumed, nil
	}

	return nil, fmt.Errorf("redis_reset_token_consume_failed: %w", errTxContended)
}
