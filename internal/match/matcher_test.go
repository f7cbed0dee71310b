package match_test

import (
	"strings"
	"testing"

	"github.com/docminer/docminer/internal/match"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindTerms_WholeWordMatch(t *testing.T) {
	hits := match.FindTerms("We used XGBoost for classification.", []string{"XGBoost"})
	require.Len(t, hits, 1)
	assert.Equal(t, "XGBoost", hits[0].Term)
	assert.Equal(t, 8, hits[0].Offset)
}

func TestFindTerms_CaseInsensitive(t *testing.T) {
	hits := match.FindTerms("we used xgboost and XGBOOST here", []string{"XGBoost"})
	assert.Len(t, hits, 2)
}

func TestFindTerms_RespectsWordBoundaries(t *testing.T) {
	assert.True(t, match.Contains("used an SVM classifier", []string{"SVM"}))
	assert.False(t, match.Contains("installed SVMware tools", []string{"SVM"}))
	assert.False(t, match.Contains("the mySVM variant", []string{"SVM"}))
}

func TestFindTerms_BoundaryAtPunctuation(t *testing.T) {
	assert.True(t, match.Contains("We chose SVM.", []string{"SVM"}))
	assert.True(t, match.Contains("(SVM)", []string{"SVM"}))
	assert.True(t, match.Contains("SVM-based model", []string{"SVM"}))
}

func TestFindTerms_MultiWordPhrase(t *testing.T) {
	text := "A random forest outperformed the baseline; Random Forest again."
	hits := match.FindTerms(text, []string{"random forest"})
	assert.Len(t, hits, 2)
}

func TestFindTerms_MultipleTermsAndMisses(t *testing.T) {
	text := "Gradient boosting beat the SVM baseline."
	hits := match.FindTerms(text, []string{"SVM", "random forest", "gradient boosting"})
	require.Len(t, hits, 2)
	terms := []string{hits[0].Term, hits[1].Term}
	assert.Contains(t, terms, "SVM")
	assert.Contains(t, terms, "gradient boosting")
}

func TestFindTerms_EmptyInputs(t *testing.T) {
	assert.Empty(t, match.FindTerms("", []string{"SVM"}))
	assert.Empty(t, match.FindTerms("some text", nil))
	assert.Empty(t, match.FindTerms("some text", []string{"  "}))
}

func TestFindTerms_OffsetsSurviveCaseFolding(t *testing.T) {
	// U+0130 folds to a shorter byte sequence, so every offset after it is
	// shifted in a lowercased copy of the text. Reported offsets must still
	// point at the term in the original text.
	text := "İstanbul group trained an SVM on the corpus"
	hits := match.FindTerms(text, []string{"SVM"})
	require.Len(t, hits, 1)
	assert.Equal(t, strings.Index(text, "SVM"), hits[0].Offset)
	assert.Contains(t, match.Snippet(text, hits[0].Offset, 12), "SVM")
}

func TestFindTerms_OverlappingOccurrences(t *testing.T) {
	hits := match.FindTerms("svm svm svm", []string{"svm"})
	assert.Len(t, hits, 3)
}
