package llm

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"time"

	"github.com/santiagomed/appcannon/logger"
	tellm "github.com/santiagomed/tellm/sdk"
)

func generateBatchID() string {
	timestamp := time.Now().Unix()
	randomBytes := make([]byte, 8)
	rand.Read(randomBytes)

	id := make([]byte, 12)
	binary.BigEndian.PutUint32(id[:4], uint32(timestamp))
	copy(id[4:], randomBytes)

	return hex.EncodeToString(id)
}

func isValidBatchID(s string) bool {
	_, err := hex.DecodeString(s)
	return err == nil && len(s) == 24
}

// EnsureBatchID returns s when it is already a valid batch id, otherwise a fresh one.
func EnsureBatchID(s string) string {
	if !isValidBatchID(s) {
		return generateBatchID()
	}
	return s
}

func newTellmClient(cfg *LlmConfig) *tellm.Client {
	if cfg.TellmURL == "" {
		return nil
	}
	return tellm.NewClient(cfg.TellmURL)
}

func logCompletion(tc *tellm.Client, cfg *LlmConfig, l logger.Logger, prompt, res string, inTokens, outTokens int) {
	if tc == nil {
		return
	}
	if err := tc.Log(cfg.BatchID, prompt, res); err != nil {
		l.WithField("warning", err).Warn("failed to log to tellm")
	}
}
