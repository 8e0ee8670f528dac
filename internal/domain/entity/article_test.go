package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategory_IsValid(t *testing.T) {
	for _, c := range AllCategories {
		assert.True(t, c.IsValid(), "category %q", c)
	}
	assert.False(t, Category("").IsValid())
	assert.False(t, Category("AI-ML").IsValid())
	assert.False(t, Category("sports").IsValid())
}

func TestAllCategories_Order(t *testing.T) {
	assert.Equal(t, []Category{
		CategoryAIML, CategoryBlockchain, CategoryCloud,
		CategorySecurity, CategoryStartup, CategoryFintech,
	}, AllCategories)
}

func TestTechLevel_IsSet(t *testing.T) {
	assert.False(t, TechLevelUnset.IsSet())
	assert.True(t, TechLevelBeginner.IsSet())
	assert.True(t, TechLevelIntermediate.IsSet())
	assert.True(t, TechLevelAdvanced.IsSet())
}

func TestArticle_ZeroValue(t *testing.T) {
	var a Article

	assert.Empty(t, a.ID)
	assert.Equal(t, TechLevelUnset, a.TechLevel)
	assert.True(t, a.PublishedAt.IsZero())
	assert.Zero(t, a.ReadingTime)
}
