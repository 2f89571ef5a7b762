package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarityTokens(t *testing.T) {
	t.Run("drops stopwords and short words", func(t *testing.T) {
		tokens := SimilarityTokens("How to fix an issue with the login")
		assert.Equal(t, []string{"fix", "login"}, tokens)
	})

	t.Run("lowercases and splits punctuation", func(t *testing.T) {
		tokens := SimilarityTokens("Fixing Mobile Display Issues")
		assert.Equal(t, []string{"fixing", "mobile", "display"}, tokens)
	})

	t.Run("deduplicates repeated words", func(t *testing.T) {
		tokens := SimilarityTokens("billing billing billing question")
		assert.Equal(t, []string{"billing", "question"}, tokens)
	})

	t.Run("all stopwords yields empty set", func(t *testing.T) {
		assert.Empty(t, SimilarityTokens("how can you not"))
	})
}
