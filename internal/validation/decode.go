package validation

import (
	"bytes"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"leaderboard-sync/internal/domain"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/crypto/blake2b"
)

//go:embed schema/replay-proof-v1.schema.json
var replayProofSchema string

const replayProofSchemaURL = "replay-proof-v1.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func replaySchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = jsonschema.CompileString(replayProofSchemaURL, replayProofSchema)
	})
	return compiledSchema, schemaErr
}

// DecodeReplayProof checks raw JSON against the replay proof schema and
// decodes it. Semantic rules are applied separately by SanitizeReplayProof.
func DecodeReplayProof(data []byte) (domain.DailyReplayProof, error) {
	schema, err := replaySchema()
	if err != nil {
		return domain.DailyReplayProof{}, fmt.Errorf("failed to compile replay schema: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var instance any
	if err := dec.Decode(&instance); err != nil {
		return domain.DailyReplayProof{}, invalidProof("malformed json: %v", err)
	}
	if err := schema.Validate(instance); err != nil {
		return domain.DailyReplayProof{}, invalidProof("schema: %v", err)
	}

	var proof domain.DailyReplayProof
	if err := json.Unmarshal(data, &proof); err != nil {
		return domain.DailyReplayProof{}, invalidProof("decode: %v", err)
	}
	return proof, nil
}

// ReplayDigest is the hex BLAKE2b-256 of the proof's JSON encoding.
func ReplayDigest(proof domain.DailyReplayProof) string {
	data, err := json.Marshal(proof)
	if err != nil {
		return ""
	}
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}
