// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package utils

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/havenmind/syncd/models"
)

func TestInitHasherPoolAndHash(t *testing.T) {
	key := "secret-key"
	InitHasherPool(key)

	data := []byte("test-data")

	sum1 := Hash(data)
	sum2 := Hash(data)

	if len(sum1) == 0 {
		t.Fatal("hash result is empty")
	}

	if !bytes.Equal(sum1, sum2) {
		t.Fatal("hash must be deterministic for the same input")
	}

	// verify against direct HMAC computation
	h := hmac.New(sha256.New, []byte(key))
	h.Write(data)
	expected := h.Sum(nil)

	if !bytes.Equal(sum1, expected) {
		t.Fatalf("unexpected hash value\nwant: %x\ngot:  %x", expected, sum1)
	}
}

const testHashKey = "test-secret-key"

func testOperation(entityID, blob string) *models.SyncOperation {
	return &models.SyncOperation{
		ID:       "op-" + entityID,
		Kind:     models.KindUpload,
		Priority: models.PriorityNormal,
		Payload:  []byte(blob),
		Metadata: models.Metadata{
			EntityType: models.EntityCheckIn,
			EntityID:   entityID,
			UserID:     "user-1",
			DeviceID:   "phone",
			Version:    1,
		},
	}
}

func TestHash_WithRealBatch(t *testing.T) {
	InitHasherPool(testHashKey)

	ops := []*models.SyncOperation{testOperation("checkin-1", "encrypted-blob")}

	batchBytes, err := json.Marshal(ops)
	if err != nil {
		t.Fatalf("failed to marshal batch: %v", err)
	}

	got := hex.EncodeToString(Hash(batchBytes))

	mac := hmac.New(sha256.New, []byte(testHashKey))
	mac.Write(batchBytes)
	want := hex.EncodeToString(mac.Sum(nil))

	if got != want {
		t.Errorf("Hash mismatch:\n  got:  %s\n  want: %s", got, want)
	}
}

func TestHash_DifferentBatches(t *testing.T) {
	InitHasherPool(testHashKey)

	bytes1, _ := json.Marshal([]*models.SyncOperation{testOperation("checkin-1", "encrypted-blob-1")})
	bytes2, _ := json.Marshal([]*models.SyncOperation{testOperation("checkin-2", "encrypted-blob-2")})

	hash1 := hex.EncodeToString(Hash(bytes1))
	hash2 := hex.EncodeToString(Hash(bytes2))

	if hash1 == hash2 {
		t.Error("different batches must produce different hashes")
	}
}

func TestHash_SameBatch_Deterministic(t *testing.T) {
	InitHasherPool(testHashKey)

	batchBytes, _ := json.Marshal([]*models.SyncOperation{testOperation("checkin-1", "encrypted-blob")})

	hash1 := hex.EncodeToString(Hash(batchBytes))
	hash2 := hex.EncodeToString(Hash(batchBytes))

	if hash1 != hash2 {
		t.Errorf("same batch must produce same hash:\n  hash1: %s\n  hash2: %s", hash1, hash2)
	}
}

func TestHash_DifferentKeys(t *testing.T) {
	batchBytes, _ := json.Marshal([]*models.SyncOperation{testOperation("checkin-1", "encrypted-blob")})

	InitHasherPool("key-one")
	hash1 := hex.EncodeToString(Hash(batchBytes))

	InitHasherPool("key-two")
	hash2 := hex.EncodeToString(Hash(batchBytes))

	if hash1 == hash2 {
		t.Error("different keys must produce different hashes for the same batch")
	}
}

func TestHashString(t *testing.T) {
	got := HashString("some data", testHashKey)

	mac := hmac.New(sha256.New, []byte(testHashKey))
	mac.Write([]byte("some data"))
	want := hex.EncodeToString(mac.Sum(nil))

	if got != want {
		t.Errorf("HashString mismatch:\n  got:  %s\n  want: %s", got, want)
	}
}
