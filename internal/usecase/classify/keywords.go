package classify

import "fintech-news/internal/domain/entity"

// keywordRule maps a keyword list to the label it yields.
// Rules are evaluated in slice order and the first hit wins.
type keywordRule[T any] struct {
	label    T
	keywords []string
}

// Keywords are stored lower-cased and matched as plain substrings,
// so "ai" also matches inside longer words. That behavior is part of
// the observable categorization and must not be tightened.
var categoryRules = []keywordRule[entity.Category]{
	{entity.CategoryAIML, []string{"ai", "machine learning", "artificial intelligence", "機械学習", "人工知能"}},
	{entity.CategoryBlockchain, []string{"blockchain", "crypto", "bitcoin", "ethereum", "ブロックチェーン", "暗号資産"}},
	{entity.CategoryCloud, []string{"cloud", "aws", "azure", "gcp", "クラウド"}},
	{entity.CategorySecurity, []string{"security", "cyber", "hack", "セキュリティ", "サイバー"}},
	{entity.CategoryStartup, []string{"startup", "funding", "venture", "スタートアップ", "資金調達"}},
}

var techLevelRules = []keywordRule[entity.TechLevel]{
	{entity.TechLevelBeginner, []string{"beginner", "introduction", "getting started", "初心者", "入門"}},
	{entity.TechLevelAdvanced, []string{"advanced", "expert", "deep dive", "上級", "エキスパート"}},
	{entity.TechLevelIntermediate, []string{"intermediate", "practical", "中級", "実践"}},
}

var urgencyRules = []keywordRule[entity.UrgencyTier]{
	// breaking news, regulation, incidents
	{entity.UrgencyHigh, []string{"速報", "緊急", "重大", "発表", "breaking", "urgent", "規制", "法案", "セキュリティ", "脆弱性", "障害"}},
	// releases, deals, earnings
	{entity.UrgencyMedium, []string{"新機能", "リリース", "買収", "提携", "資金調達", "ipo", "決算", "ai", "ブロックチェーン"}},
}
