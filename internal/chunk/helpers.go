package chunk

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	tikTokenOnce sync.Once
	tikEncoding  *tiktoken.Tiktoken
)

func encoding() *tiktoken.Tiktoken {
	tikTokenOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			tikEncoding = enc
		}
	})
	return tikEncoding
}

// estimateTokens returns the token count tiktoken-go would charge an
// OpenAI-style model for text, falling back to the TokensPerChar heuristic
// if the encoding tables failed to load (e.g. offline first run).
func estimateTokens(text string) int {
	if enc := encoding(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return (len(text) + TokensPerChar - 1) / TokensPerChar
}

// EstimateTokens exposes the chunker's token estimator to callers outside
// this package that need a self-consistent count for whole-file content,
// such as the Retriever's fast-path and timeline-path file reads.
func EstimateTokens(text string) int {
	return estimateTokens(text)
}

// generateChunkID derives a content-addressed ID from the source path and
// the chunk's own content, truncated to 16 hex characters.
func generateChunkID(filePath, content string) string {
	sum := sha256.Sum256([]byte(filePath + ":" + content))
	return hex.EncodeToString(sum[:])[:16]
}
